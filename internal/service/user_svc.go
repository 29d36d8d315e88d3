package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"memshaheb_backend/internal/api/dto"
	"memshaheb_backend/internal/middleware"
	"memshaheb_backend/internal/model"
	"memshaheb_backend/internal/repository"
)

// ==================== UserService 用户服务 ====================

// UserService 用户与认证
type UserService struct {
	userRepo repository.UserRepository
	tokens   *middleware.TokenManager
	logger   *zap.Logger
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository, tokens *middleware.TokenManager, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{userRepo: userRepo, tokens: tokens, logger: logger.Named("user")}
}

// ==================== 认证相关 ====================

// Login 邮箱 + 密码登录
func (s *UserService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("更新最后登录时间失败", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	resp.User = toUserInfo(user)
	return resp, nil
}

// Refresh 用 refresh token 换新的 Token 对
func (s *UserService) Refresh(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := s.tokens.ParseToken(req.RefreshToken, middleware.SubjectRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// 确认用户仍然有效
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrUserDisabled
	}
	return s.issue(user)
}

// Me 当前用户
func (s *UserService) Me(ctx context.Context, userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return toUserInfo(user), nil
}

// ==================== 用户管理 ====================

// ListUsers 用户列表，role 为空时返回全部
func (s *UserService) ListUsers(ctx context.Context, req *dto.UserListReq) ([]*dto.UserInfo, error) {
	users, err := s.userRepo.List(ctx, model.UserRole(req.Role))
	if err != nil {
		return nil, err
	}
	out := make([]*dto.UserInfo, 0, len(users))
	for i := range users {
		out = append(out, toUserInfo(&users[i]))
	}
	return out, nil
}

// CreateUser 管理员创建用户
func (s *UserService) CreateUser(ctx context.Context, req *dto.CreateUserReq) (*dto.UserInfo, error) {
	role := model.UserRole(req.Role)
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if err := s.ensureEmailFree(ctx, req.Email, 0); err != nil {
		return nil, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		Bio:          req.Bio,
		Role:         role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	// is_active 列带默认值，false 需在创建后单独写入
	if req.IsActive != nil && !*req.IsActive {
		user.IsActive = false
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	s.logger.Info("已创建用户", zap.Int64("user_id", user.ID), zap.String("role", string(role)))
	return toUserInfo(user), nil
}

// UpdateUser 管理员修改用户，可重置密码与启停
func (s *UserService) UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserReq) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if req.Email != nil {
		if err := s.ensureEmailFree(ctx, *req.Email, user.ID); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.Password != nil {
		if user.PasswordHash, err = hashPassword(*req.Password); err != nil {
			return nil, err
		}
	}
	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.Role != nil {
		role := model.UserRole(*req.Role)
		if !role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

// DeleteUser 删除用户，不能删除自己
func (s *UserService) DeleteUser(ctx context.Context, currentUserID, id int64) error {
	if currentUserID == id {
		return ErrCannotDeleteSelf
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("已删除用户", zap.Int64("user_id", id), zap.Int64("operator", currentUserID))
	return nil
}

// UpdateMe 修改个人资料，角色与启停状态不可自改
func (s *UserService) UpdateMe(ctx context.Context, userID int64, req *dto.UpdateMeReq) (*dto.UserInfo, error) {
	return s.UpdateUser(ctx, userID, &dto.UpdateUserReq{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	})
}

// ChangePassword 校验旧密码后修改
func (s *UserService) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordReq) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrIncorrectPassword
	}
	if user.PasswordHash, err = hashPassword(req.NewPassword); err != nil {
		return err
	}
	return s.userRepo.Update(ctx, user)
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, excludeID int64) error {
	taken, err := s.userRepo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

// ==================== 初始化 ====================

// EnsureAdmin 不存在时创建管理员，返回是否新建
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, displayName string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return false, errors.New("admin email and password are required")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}
	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         model.UserRoleAdmin,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return false, err
	}
	s.logger.Info("已创建初始管理员", zap.Int64("user_id", user.ID))
	return true, nil
}

func (s *UserService) issue(user *model.User) (*dto.TokenResponse, error) {
	access, refresh, err := s.tokens.GenerateTokenPair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(s.tokens.AccessTokenTTL()),
	}, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func toUserInfo(u *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
