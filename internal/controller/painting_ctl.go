package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"memshaheb_backend/internal/api/dto"
	"memshaheb_backend/internal/middleware"
	"memshaheb_backend/internal/model"
	"memshaheb_backend/internal/service"
)

// PaintingController 画作目录
type PaintingController struct {
	paintingSvc *service.PaintingService
	logger      *zap.Logger
}

func NewPaintingController(paintingSvc *service.PaintingService, logger *zap.Logger) *PaintingController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaintingController{paintingSvc: paintingSvc, logger: logger}
}

// List 公开列表
// @Summary 画作列表
// @Description 仅已发布，按 ID 升序，游标分页
// @Tags Paintings (画作)
// @Produce json
// @Param q query string false "标题或描述关键词"
// @Param year query int false "年份"
// @Param medium query string false "材质"
// @Param tags query []string false "标签（需全部包含）"
// @Param cursor query string false "上一页最后一条 ID"
// @Param limit query int false "每页数量 1-50" default(20)
// @Success 200 {object} dto.PaintingListResp
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Router /api/paintings [get]
func (ctl *PaintingController) List(c *gin.Context) {
	ctl.list(c, ctl.paintingSvc.List)
}

// ListAdmin 后台列表
// @Summary 画作后台列表
// @Description 包含草稿，按 ID 降序
// @Tags Paintings (画作)
// @Produce json
// @Success 200 {object} dto.PaintingListResp
// @Router /api/paintings/admin [get]
func (ctl *PaintingController) ListAdmin(c *gin.Context) {
	ctl.list(c, ctl.paintingSvc.ListAdmin)
}

func (ctl *PaintingController) list(c *gin.Context, fn func(context.Context, *dto.PaintingListReq) (*dto.PaintingListResp, error)) {
	var req dto.PaintingListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	resp, err := fn(c.Request.Context(), &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, resp)
}

// Get 详情
// @Summary 画作详情
// @Description 按 ID 或 slug 查询；未登录与 READER 只能看到已发布的画作
// @Tags Paintings (画作)
// @Produce json
// @Param identifier path string true "ID 或 slug"
// @Success 200 {object} model.Painting
// @Failure 404 {object} map[string]interface{} "不存在"
// @Router /api/paintings/{identifier} [get]
func (ctl *PaintingController) Get(c *gin.Context) {
	painting, err := ctl.paintingSvc.Get(c.Request.Context(), c.Param("identifier"), canSeeDrafts(c))
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, painting)
}

// Create 新建
// @Summary 新建画作
// @Tags Paintings (画作)
// @Accept json
// @Produce json
// @Param request body dto.CreatePaintingReq true "画作"
// @Success 201 {object} model.Painting
// @Failure 400 {object} map[string]interface{} "参数错误"
// @Router /api/paintings [post]
func (ctl *PaintingController) Create(c *gin.Context) {
	var req dto.CreatePaintingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	painting, err := ctl.paintingSvc.Create(c.Request.Context(), &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusCreated, painting)
}

// Update 部分更新
// @Summary 更新画作
// @Description 已同步的商品链接会回到 PENDING
// @Tags Paintings (画作)
// @Accept json
// @Produce json
// @Param identifier path string true "ID 或 slug"
// @Param request body dto.UpdatePaintingReq true "需要修改的字段"
// @Success 200 {object} model.Painting
// @Failure 404 {object} map[string]interface{} "不存在"
// @Router /api/paintings/{identifier} [patch]
func (ctl *PaintingController) Update(c *gin.Context) {
	var req dto.UpdatePaintingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	painting, err := ctl.paintingSvc.Update(c.Request.Context(), c.Param("identifier"), &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, painting)
}

// Delete 删除
// @Summary 删除画作
// @Description 商品链接保留但解除关联
// @Tags Paintings (画作)
// @Param identifier path string true "ID 或 slug"
// @Success 204
// @Failure 404 {object} map[string]interface{} "不存在"
// @Router /api/paintings/{identifier} [delete]
func (ctl *PaintingController) Delete(c *gin.Context) {
	if err := ctl.paintingSvc.Delete(c.Request.Context(), c.Param("identifier")); err != nil {
		ctl.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *PaintingController) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPaintingNotFound):
		fail(c, http.StatusNotFound, "Painting not found")
	case errors.Is(err, service.ErrInvalidCursor):
		fail(c, http.StatusBadRequest, "Invalid cursor")
	default:
		ctl.logger.Error("画作操作失败", zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

// canSeeDrafts 后台角色可以看到未发布的画作
func canSeeDrafts(c *gin.Context) bool {
	switch model.UserRole(middleware.GetUserRole(c)) {
	case model.UserRoleAdmin, model.UserRoleEditor:
		return true
	}
	return false
}
