package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"memshaheb_backend/internal/api/dto"
	"memshaheb_backend/internal/middleware"
	"memshaheb_backend/internal/service"
)

// ==================== UserController 用户控制器 ====================

// UserController 登录、个人资料与用户管理
type UserController struct {
	userService *service.UserService
}

// NewUserController 创建用户控制器
func NewUserController(userService *service.UserService) *UserController {
	return &UserController{userService: userService}
}

// Login 用户登录
// @Summary 用户登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录信息"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (c *UserController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	resp, err := c.userService.Login(ctx.Request.Context(), &req)
	if err != nil {
		writeAuthError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "登录成功",
		"data":    resp,
	})
}

// RefreshToken 刷新 Token
// @Summary 刷新 Token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh Token"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/refresh [post]
func (c *UserController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "参数错误: " + err.Error(),
		})
		return
	}

	resp, err := c.userService.Refresh(ctx.Request.Context(), &req)
	if err != nil {
		writeAuthError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "刷新成功",
		"data":    resp,
	})
}

// Me 当前用户信息
// @Summary 当前用户信息
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserInfo
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/me [get]
func (c *UserController) Me(ctx *gin.Context) {
	user, err := c.userService.Me(ctx.Request.Context(), middleware.GetUserID(ctx))
	if err != nil {
		writeAuthError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    user,
	})
}

// ==================== 用户管理 ====================

// List 用户列表
// @Summary 用户列表
// @Tags Users (用户)
// @Produce json
// @Security BearerAuth
// @Param role query string false "角色筛选" Enums(ADMIN, EDITOR, AUTHOR, READER)
// @Success 200 {array} dto.UserInfo
// @Failure 403 {object} map[string]interface{}
// @Router /api/users [get]
func (c *UserController) List(ctx *gin.Context) {
	var req dto.UserListReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	users, err := c.userService.ListUsers(ctx.Request.Context(), &req)
	if err != nil {
		writeUserError(ctx, err)
		return
	}
	success(ctx, http.StatusOK, users)
}

// Create 管理员创建用户
// @Summary 创建用户
// @Tags Users (用户)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserReq true "用户"
// @Success 201 {object} dto.UserInfo
// @Failure 400 {object} map[string]interface{} "参数错误或邮箱已被使用"
// @Router /api/users [post]
func (c *UserController) Create(ctx *gin.Context) {
	var req dto.CreateUserReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	user, err := c.userService.CreateUser(ctx.Request.Context(), &req)
	if err != nil {
		writeUserError(ctx, err)
		return
	}
	success(ctx, http.StatusCreated, user)
}

// Update 管理员修改用户
// @Summary 修改用户
// @Description 可重置密码、修改角色与启停状态
// @Tags Users (用户)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户 ID"
// @Param request body dto.UpdateUserReq true "需要修改的字段"
// @Success 200 {object} dto.UserInfo
// @Failure 404 {object} map[string]interface{}
// @Router /api/users/{id} [put]
func (c *UserController) Update(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		fail(ctx, http.StatusBadRequest, "invalid user id")
		return
	}
	var req dto.UpdateUserReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	user, err := c.userService.UpdateUser(ctx.Request.Context(), id, &req)
	if err != nil {
		writeUserError(ctx, err)
		return
	}
	success(ctx, http.StatusOK, user)
}

// Delete 管理员删除用户
// @Summary 删除用户
// @Tags Users (用户)
// @Security BearerAuth
// @Param id path int true "用户 ID"
// @Success 204
// @Failure 400 {object} map[string]interface{} "不能删除自己"
// @Failure 404 {object} map[string]interface{}
// @Router /api/users/{id} [delete]
func (c *UserController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		fail(ctx, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := c.userService.DeleteUser(ctx.Request.Context(), middleware.GetUserID(ctx), id); err != nil {
		writeUserError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// UpdateMe 修改个人资料
// @Summary 修改个人资料
// @Tags Users (用户)
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateMeReq true "需要修改的字段"
// @Success 200 {object} dto.UserInfo
// @Failure 400 {object} map[string]interface{}
// @Router /api/users/me [put]
func (c *UserController) UpdateMe(ctx *gin.Context) {
	var req dto.UpdateMeReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	user, err := c.userService.UpdateMe(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		writeUserError(ctx, err)
		return
	}
	success(ctx, http.StatusOK, user)
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags Users (用户)
// @Accept json
// @Security BearerAuth
// @Param request body dto.ChangePasswordReq true "旧密码与新密码"
// @Success 204
// @Failure 400 {object} map[string]interface{} "旧密码错误"
// @Router /api/users/me/password [post]
func (c *UserController) ChangePassword(ctx *gin.Context) {
	var req dto.ChangePasswordReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	if err := c.userService.ChangePassword(ctx.Request.Context(), middleware.GetUserID(ctx), &req); err != nil {
		writeUserError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func writeUserError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		fail(ctx, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrIncorrectPassword),
		errors.Is(err, service.ErrCannotDeleteSelf),
		errors.Is(err, service.ErrInvalidRole):
		fail(ctx, http.StatusBadRequest, err.Error())
	default:
		fail(ctx, http.StatusInternalServerError, "internal error")
	}
}

func writeAuthError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrUserNotFound):
		fail(ctx, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrUserDisabled):
		fail(ctx, http.StatusForbidden, err.Error())
	default:
		fail(ctx, http.StatusInternalServerError, "internal error")
	}
}
