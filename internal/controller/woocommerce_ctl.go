package controller

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"memshaheb_backend/internal/api/dto"
	"memshaheb_backend/internal/model"
	"memshaheb_backend/internal/repository"
	"memshaheb_backend/internal/service"
	"memshaheb_backend/pkg/woocommerce"
)

const defaultRetryBatch = 50

// WooCommerceController 商城同步入口：手动推送、webhook、批量重试
type WooCommerceController struct {
	syncSvc         *service.CommerceSyncService
	maxWebhookBytes int64
	logger          *zap.Logger
}

// NewWooCommerceController 创建控制器
func NewWooCommerceController(syncSvc *service.CommerceSyncService, maxWebhookBytes int64, logger *zap.Logger) *WooCommerceController {
	if maxWebhookBytes <= 0 {
		maxWebhookBytes = 1 << 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WooCommerceController{syncSvc: syncSvc, maxWebhookBytes: maxWebhookBytes, logger: logger.Named("wc_ctl")}
}

// SyncEntity 手动推送本地实体到商城
// @Summary 推送到 WooCommerce
// @Description 以 POST 新建或 PUT 更新远端商品，结果写入商品链接
// @Tags Integrations (商城同步)
// @Produce json
// @Param local_id path int true "本地实体 ID"
// @Param kind query string false "PAINTING | BOOK" default(PAINTING)
// @Success 202 {object} dto.SyncResp
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Failure 404 {object} map[string]interface{} "画作不存在"
// @Failure 409 {object} map[string]interface{} "远端商品已关联其他实体"
// @Failure 501 {object} map[string]interface{} "暂不支持该类型"
// @Failure 502 {object} map[string]interface{} "商城返回错误"
// @Failure 503 {object} map[string]interface{} "集成未配置"
// @Router /api/integrations/wc/sync/{local_id} [post]
func (ctl *WooCommerceController) SyncEntity(c *gin.Context) {
	localID, ok := parseID(c, "local_id")
	if !ok {
		fail(c, http.StatusBadRequest, "invalid local_id")
		return
	}
	kind, err := model.ParseProductKind(c.DefaultQuery("kind", string(model.ProductKindPainting)))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	link, err := ctl.syncSvc.SyncEntity(c.Request.Context(), kind, localID)
	if err != nil {
		ctl.writeSyncError(c, link, err)
		return
	}

	success(c, http.StatusAccepted, dto.SyncResp{
		Status:      "ok",
		WCProductID: link.RemoteProductID,
		SyncState:   string(link.SyncState),
	})
}

func (ctl *WooCommerceController) writeSyncError(c *gin.Context, link *model.ProductLink, err error) {
	switch {
	case errors.Is(err, service.ErrKindNotSupported):
		fail(c, http.StatusNotImplemented, "Book sync not yet implemented")
	case errors.Is(err, service.ErrPaintingNotFound):
		fail(c, http.StatusNotFound, "Painting not found")
	case errors.Is(err, woocommerce.ErrNotConfigured):
		fail(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, repository.ErrRemoteIDConflict):
		fail(c, http.StatusConflict, err.Error())
	default:
		apiErr, ok := woocommerce.AsAPIError(err)
		if !ok {
			ctl.logger.Error("商品推送异常", zap.Error(err))
			fail(c, http.StatusInternalServerError, "internal error")
			return
		}
		data := gin.H{"status_code": apiErr.StatusCode}
		if link != nil {
			data["sync_state"] = link.SyncState
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    http.StatusBadGateway,
			"message": apiErr.Detail,
			"data":    data,
		})
	}
}

// ProductWebhook 商品变更 webhook
// @Summary 商品 webhook
// @Description 校验 X-WC-Webhook-Signature 后写入价格与库存镜像
// @Tags Integrations (商城同步)
// @Accept json
// @Produce json
// @Success 202 {object} dto.WebhookAck
// @Failure 400 {object} map[string]interface{} "载荷不合法"
// @Failure 401 {object} map[string]interface{} "签名校验失败"
// @Router /api/integrations/wc/webhooks/product [post]
func (ctl *WooCommerceController) ProductWebhook(c *gin.Context) {
	raw, ok := ctl.readBody(c)
	if !ok {
		return
	}
	link, err := ctl.syncSvc.ApplyProductWebhook(c.Request.Context(), raw, c.GetHeader(woocommerce.SignatureHeader))
	if err != nil {
		ctl.writeWebhookError(c, "product", err)
		return
	}
	ctl.logger.Info("商品 webhook 已处理", zap.Int64("link_id", link.ID), zap.String("sync_state", string(link.SyncState)))
	success(c, http.StatusAccepted, dto.WebhookAck{Status: "accepted"})
}

// OrderWebhook 订单 webhook
// @Summary 订单 webhook
// @Description 为订单中已关联的商品记录订单号，未知商品忽略
// @Tags Integrations (商城同步)
// @Accept json
// @Produce json
// @Success 202 {object} dto.WebhookAck
// @Failure 400 {object} map[string]interface{} "载荷不合法"
// @Failure 401 {object} map[string]interface{} "签名校验失败"
// @Router /api/integrations/wc/webhooks/order [post]
func (ctl *WooCommerceController) OrderWebhook(c *gin.Context) {
	raw, ok := ctl.readBody(c)
	if !ok {
		return
	}
	n, err := ctl.syncSvc.ApplyOrderWebhook(c.Request.Context(), raw, c.GetHeader(woocommerce.SignatureHeader))
	if err != nil {
		ctl.writeWebhookError(c, "order", err)
		return
	}
	ctl.logger.Info("订单 webhook 已处理", zap.Int("annotated", n))
	success(c, http.StatusAccepted, dto.WebhookAck{Status: "accepted"})
}

// readBody 读取原始请求体，签名必须基于原始字节
func (ctl *WooCommerceController) readBody(c *gin.Context) ([]byte, bool) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, ctl.maxWebhookBytes+1))
	if err != nil {
		fail(c, http.StatusBadRequest, "could not read request body")
		return nil, false
	}
	if int64(len(raw)) > ctl.maxWebhookBytes {
		fail(c, http.StatusRequestEntityTooLarge, "payload too large")
		return nil, false
	}
	return raw, true
}

func (ctl *WooCommerceController) writeWebhookError(c *gin.Context, topic string, err error) {
	switch {
	case errors.Is(err, woocommerce.ErrInvalidSignature):
		// 不向调用方透露原因
		ctl.logger.Warn("webhook 签名校验失败",
			zap.String("topic", topic),
			zap.Bool("secret_configured", ctl.syncSvc.WebhookConfigured()),
			zap.String("client_ip", c.ClientIP()),
		)
		fail(c, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, woocommerce.ErrMalformedPayload):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		ctl.logger.Error("webhook 处理失败", zap.String("topic", topic), zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

// RetryFailed 重试全部 ERROR 链接
// @Summary 重试失败的同步
// @Description ERROR -> PENDING -> 推送，返回统计
// @Tags Integrations (商城同步)
// @Produce json
// @Param limit query int false "本批最多处理条数" default(50)
// @Success 200 {object} dto.RetryResp
// @Failure 503 {object} map[string]interface{} "集成未配置"
// @Router /api/integrations/wc/retry [post]
func (ctl *WooCommerceController) RetryFailed(c *gin.Context) {
	limit := defaultRetryBatch
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			fail(c, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	summary, err := ctl.syncSvc.RetryFailed(c.Request.Context(), limit)
	if errors.Is(err, woocommerce.ErrNotConfigured) {
		fail(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		ctl.logger.Error("批量重试失败", zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	success(c, http.StatusOK, dto.RetryResp{
		Attempted: summary.Attempted,
		Synced:    summary.Synced,
		Failed:    summary.Failed,
		Skipped:   summary.Skipped,
	})
}
