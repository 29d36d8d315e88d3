package dto

import "time"

// ==================== 登录 ====================

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=320"`
	Password string `json:"password" binding:"required,min=1,max=128"`
}

// TokenResponse 登录 / 刷新响应
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *UserInfo `json:"user,omitempty"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ==================== 用户信息 ====================

// UserInfo 用户信息
type UserInfo struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Bio         *string    `json:"bio,omitempty"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ==================== 用户管理 ====================

// UserListReq 用户列表筛选
type UserListReq struct {
	Role string `form:"role" binding:"omitempty,oneof=ADMIN EDITOR AUTHOR READER"`
}

// CreateUserReq 管理员创建用户
type CreateUserReq struct {
	Email       string  `json:"email" binding:"required,email,max=320"`
	Password    string  `json:"password" binding:"required,min=8,max=128"`
	DisplayName string  `json:"display_name" binding:"max=255"`
	Bio         *string `json:"bio"`
	Role        string  `json:"role" binding:"required,oneof=ADMIN EDITOR AUTHOR READER"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateUserReq 管理员修改用户，nil 字段不改
type UpdateUserReq struct {
	Email       *string `json:"email" binding:"omitempty,email,max=320"`
	Password    *string `json:"password" binding:"omitempty,min=8,max=128"`
	DisplayName *string `json:"display_name" binding:"omitempty,max=255"`
	Bio         *string `json:"bio"`
	Role        *string `json:"role" binding:"omitempty,oneof=ADMIN EDITOR AUTHOR READER"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateMeReq 修改个人资料
type UpdateMeReq struct {
	Email       *string `json:"email" binding:"omitempty,email,max=320"`
	DisplayName *string `json:"display_name" binding:"omitempty,max=255"`
	Bio         *string `json:"bio"`
}

// ChangePasswordReq 修改密码
type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required,max=128"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}
