package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"memshaheb_backend/internal/api/dto"
	"memshaheb_backend/internal/service"
)

// SiteController 首页板块与站点设置
type SiteController struct {
	siteSvc *service.SiteService
	logger  *zap.Logger
}

func NewSiteController(siteSvc *service.SiteService, logger *zap.Logger) *SiteController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SiteController{siteSvc: siteSvc, logger: logger}
}

// ListSections 首页板块
// @Summary 首页板块
// @Description 仅启用的板块，按 sort_order 升序
// @Tags Site (站点)
// @Produce json
// @Success 200 {array} model.HomeSection
// @Router /api/home/sections [get]
func (ctl *SiteController) ListSections(c *gin.Context) {
	ctl.listSections(c, true)
}

// ListSectionsAdmin 后台板块列表
// @Summary 首页板块后台列表
// @Description 包含停用的板块
// @Tags Site (站点)
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.HomeSection
// @Router /api/home/sections/admin [get]
func (ctl *SiteController) ListSectionsAdmin(c *gin.Context) {
	ctl.listSections(c, false)
}

func (ctl *SiteController) listSections(c *gin.Context, enabledOnly bool) {
	sections, err := ctl.siteSvc.ListSections(c.Request.Context(), enabledOnly)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, sections)
}

// CreateSection 新建板块
// @Summary 新建首页板块
// @Tags Site (站点)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateHomeSectionReq true "板块"
// @Success 201 {object} model.HomeSection
// @Failure 400 {object} map[string]interface{} "分类无效或链接不合法"
// @Router /api/home/sections [post]
func (ctl *SiteController) CreateSection(c *gin.Context) {
	var req dto.CreateHomeSectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	section, err := ctl.siteSvc.CreateSection(c.Request.Context(), &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusCreated, section)
}

// UpdateSection 修改板块
// @Summary 修改首页板块
// @Tags Site (站点)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "板块 ID"
// @Param request body dto.UpdateHomeSectionReq true "需要修改的字段"
// @Success 200 {object} model.HomeSection
// @Failure 404 {object} map[string]interface{}
// @Router /api/home/sections/{id} [patch]
func (ctl *SiteController) UpdateSection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		fail(c, http.StatusBadRequest, "invalid section id")
		return
	}
	var req dto.UpdateHomeSectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	section, err := ctl.siteSvc.UpdateSection(c.Request.Context(), id, &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, section)
}

// DeleteSection 删除板块
// @Summary 删除首页板块
// @Tags Site (站点)
// @Security BearerAuth
// @Param id path int true "板块 ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/home/sections/{id} [delete]
func (ctl *SiteController) DeleteSection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		fail(c, http.StatusBadRequest, "invalid section id")
		return
	}
	if err := ctl.siteSvc.DeleteSection(c.Request.Context(), id); err != nil {
		ctl.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSettings 站点设置
// @Summary 站点设置
// @Tags Site (站点)
// @Produce json
// @Success 200 {object} model.SiteSettings
// @Router /api/site/settings [get]
func (ctl *SiteController) GetSettings(c *gin.Context) {
	settings, err := ctl.siteSvc.Settings(c.Request.Context())
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, settings)
}

// UpdateSettings 修改站点设置
// @Summary 修改站点设置
// @Description 只写入请求中出现的字段；nav_links 必须是数组，social_links 与 theme 必须是对象
// @Tags Site (站点)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateSiteSettingsReq true "需要修改的字段"
// @Success 200 {object} model.SiteSettings
// @Failure 400 {object} map[string]interface{} "没有任何修改或 JSON 结构不对"
// @Router /api/site/settings [patch]
func (ctl *SiteController) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSiteSettingsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	settings, err := ctl.siteSvc.UpdateSettings(c.Request.Context(), &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, settings)
}

func (ctl *SiteController) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSectionNotFound):
		fail(c, http.StatusNotFound, "Section not found")
	case errors.Is(err, service.ErrInvalidSection),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidTargetURL),
		errors.Is(err, service.ErrNoSettingsUpdate),
		errors.Is(err, service.ErrInvalidSettingsJS):
		fail(c, http.StatusBadRequest, err.Error())
	default:
		ctl.logger.Error("站点操作失败", zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
	}
}
