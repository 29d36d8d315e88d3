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

// BlogController 杂志文章与分类
type BlogController struct {
	blogSvc *service.BlogService
	logger  *zap.Logger
}

func NewBlogController(blogSvc *service.BlogService, logger *zap.Logger) *BlogController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlogController{blogSvc: blogSvc, logger: logger}
}

// List 公开列表
// @Summary 文章列表
// @Description 仅已发布，按 ID 降序，游标分页
// @Tags Blogs (文章)
// @Produce json
// @Param q query string false "标题、正文或摘要关键词"
// @Param tags query []string false "标签（需全部包含）"
// @Param category query string false "分类 ID 或 slug"
// @Param cursor query string false "上一页最后一条 ID"
// @Param limit query int false "每页数量 1-50" default(20)
// @Success 200 {object} dto.BlogListResp
// @Failure 404 {object} map[string]interface{} "分类不存在"
// @Router /api/blogs [get]
func (ctl *BlogController) List(c *gin.Context) {
	ctl.list(c, ctl.blogSvc.List)
}

// ListAdmin 后台列表
// @Summary 文章后台列表
// @Description 包含草稿
// @Tags Blogs (文章)
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.BlogListResp
// @Router /api/blogs/admin [get]
func (ctl *BlogController) ListAdmin(c *gin.Context) {
	ctl.list(c, ctl.blogSvc.ListAdmin)
}

func (ctl *BlogController) list(c *gin.Context, fn func(context.Context, *dto.BlogListReq) (*dto.BlogListResp, error)) {
	var req dto.BlogListReq
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
// @Summary 文章详情
// @Description 按 ID 或 slug；未登录与 READER 只能看到已发布的文章
// @Tags Blogs (文章)
// @Produce json
// @Param identifier path string true "ID 或 slug"
// @Success 200 {object} model.BlogPost
// @Failure 404 {object} map[string]interface{}
// @Router /api/blogs/{identifier} [get]
func (ctl *BlogController) Get(c *gin.Context) {
	post, err := ctl.blogSvc.Get(c.Request.Context(), c.Param("identifier"), canSeeDraftPosts(c))
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, post)
}

// Create 新建
// @Summary 新建文章
// @Description 摘要为空时从正文生成；AUTHOR 只能把自己设为作者
// @Tags Blogs (文章)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateBlogReq true "文章"
// @Success 201 {object} model.BlogPost
// @Failure 400 {object} map[string]interface{} "参数错误或分类无效"
// @Failure 403 {object} map[string]interface{}
// @Router /api/blogs [post]
func (ctl *BlogController) Create(c *gin.Context) {
	var req dto.CreateBlogReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	post, err := ctl.blogSvc.Create(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusCreated, post)
}

// Update 部分更新
// @Summary 更新文章
// @Description category_id 传 0 清空分类；AUTHOR 只能修改自己的文章
// @Tags Blogs (文章)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "文章 ID"
// @Param request body dto.UpdateBlogReq true "需要修改的字段"
// @Success 200 {object} model.BlogPost
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/blogs/{id} [patch]
func (ctl *BlogController) Update(c *gin.Context) {
	id, ok := parseID(c, "identifier")
	if !ok {
		fail(c, http.StatusBadRequest, "invalid blog id")
		return
	}
	var req dto.UpdateBlogReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	post, err := ctl.blogSvc.Update(c.Request.Context(), actorFrom(c), id, &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, post)
}

// Delete 删除
// @Summary 删除文章
// @Tags Blogs (文章)
// @Security BearerAuth
// @Param id path int true "文章 ID"
// @Success 204
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/blogs/{id} [delete]
func (ctl *BlogController) Delete(c *gin.Context) {
	id, ok := parseID(c, "identifier")
	if !ok {
		fail(c, http.StatusBadRequest, "invalid blog id")
		return
	}
	if err := ctl.blogSvc.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		ctl.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ==================== 分类 ====================

// ListCategories 分类列表
// @Summary 文章分类列表
// @Tags Blog Categories (分类)
// @Produce json
// @Param q query string false "名称关键词"
// @Success 200 {array} model.BlogCategory
// @Router /api/blog-categories [get]
func (ctl *BlogController) ListCategories(c *gin.Context) {
	var req dto.BlogCategoryListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	categories, err := ctl.blogSvc.ListCategories(c.Request.Context(), &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, categories)
}

// GetCategory 分类详情
// @Summary 文章分类详情
// @Tags Blog Categories (分类)
// @Produce json
// @Param identifier path string true "ID 或 slug"
// @Success 200 {object} model.BlogCategory
// @Failure 404 {object} map[string]interface{}
// @Router /api/blog-categories/{identifier} [get]
func (ctl *BlogController) GetCategory(c *gin.Context) {
	category, err := ctl.blogSvc.GetCategory(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, category)
}

// CreateCategory 新建分类
// @Summary 新建文章分类
// @Tags Blog Categories (分类)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateBlogCategoryReq true "分类"
// @Success 201 {object} model.BlogCategory
// @Router /api/blog-categories [post]
func (ctl *BlogController) CreateCategory(c *gin.Context) {
	var req dto.CreateBlogCategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	category, err := ctl.blogSvc.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusCreated, category)
}

// UpdateCategory 修改分类
// @Summary 修改文章分类
// @Tags Blog Categories (分类)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "分类 ID"
// @Param request body dto.UpdateBlogCategoryReq true "需要修改的字段"
// @Success 200 {object} model.BlogCategory
// @Failure 404 {object} map[string]interface{}
// @Router /api/blog-categories/{id} [patch]
func (ctl *BlogController) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "identifier")
	if !ok {
		fail(c, http.StatusBadRequest, "invalid category id")
		return
	}
	var req dto.UpdateBlogCategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	category, err := ctl.blogSvc.UpdateCategory(c.Request.Context(), id, &req)
	if err != nil {
		ctl.writeError(c, err)
		return
	}
	success(c, http.StatusOK, category)
}

// DeleteCategory 删除分类
// @Summary 删除文章分类
// @Description 文章与首页板块保留，分类引用置空
// @Tags Blog Categories (分类)
// @Security BearerAuth
// @Param id path int true "分类 ID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/blog-categories/{id} [delete]
func (ctl *BlogController) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "identifier")
	if !ok {
		fail(c, http.StatusBadRequest, "invalid category id")
		return
	}
	if err := ctl.blogSvc.DeleteCategory(c.Request.Context(), id); err != nil {
		ctl.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *BlogController) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBlogNotFound):
		fail(c, http.StatusNotFound, "Blog post not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		fail(c, http.StatusNotFound, "Category not found")
	case errors.Is(err, service.ErrInvalidCategory):
		fail(c, http.StatusBadRequest, "Invalid category")
	case errors.Is(err, service.ErrInvalidCursor):
		fail(c, http.StatusBadRequest, "Invalid cursor")
	case errors.Is(err, service.ErrForbidden):
		fail(c, http.StatusForbidden, "Authors can only modify their own posts")
	default:
		ctl.logger.Error("文章操作失败", zap.Error(err))
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{ID: middleware.GetUserID(c), Role: model.UserRole(middleware.GetUserRole(c))}
}

// canSeeDraftPosts 作者也能看到未发布的文章
func canSeeDraftPosts(c *gin.Context) bool {
	switch model.UserRole(middleware.GetUserRole(c)) {
	case model.UserRoleAdmin, model.UserRoleEditor, model.UserRoleAuthor:
		return true
	}
	return false
}
