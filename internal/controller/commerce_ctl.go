package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"memshaheb_backend/internal/api/dto"
	"memshaheb_backend/internal/model"
	"memshaheb_backend/internal/repository"
	"memshaheb_backend/internal/service"
)

// CommerceController 商品链接查询
type CommerceController struct {
	syncSvc *service.CommerceSyncService
	logger  *zap.Logger
}

func NewCommerceController(syncSvc *service.CommerceSyncService, logger *zap.Logger) *CommerceController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommerceController{syncSvc: syncSvc, logger: logger}
}

// ListProducts 商品列表
// @Summary 商品链接列表
// @Description 全部链接按更新时间倒序，画作类附带标题
// @Tags Commerce (商品)
// @Produce json
// @Param kind query string false "PAINTING | BOOK"
// @Param search query string false "标题或备注关键词"
// @Success 200 {array} dto.CommerceProductItem
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Router /api/commerce/products [get]
func (ctl *CommerceController) ListProducts(c *gin.Context) {
	var req dto.CommerceProductReq
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	filter := repository.LinkFilter{Search: req.Search}
	if req.Kind != "" {
		kind, err := model.ParseProductKind(req.Kind)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		filter.Kind = kind
	}

	rows, err := ctl.syncSvc.ListProducts(c.Request.Context(), filter)
	if err != nil {
		ctl.logger.Error("查询商品链接失败", zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]dto.CommerceProductItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, dto.CommerceProductItem{
			ID:            r.ID,
			WCProductID:   r.RemoteProductID,
			Kind:          string(r.Kind),
			LocalID:       r.LocalID,
			Title:         r.Title,
			SyncState:     string(r.SyncState),
			Price:         r.Price,
			StockStatus:   r.StockStatus,
			StockQuantity: r.StockQuantity,
			LastSyncedAt:  r.LastSyncedAt,
			Notes:         r.Notes,
			UpdatedAt:     r.UpdatedAt,
		})
	}
	success(c, http.StatusOK, items)
}
