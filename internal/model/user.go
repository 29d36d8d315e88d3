package model

import "time"

// UserRole 系统角色
type UserRole string

const (
	UserRoleAdmin  UserRole = "ADMIN"
	UserRoleEditor UserRole = "EDITOR"
	UserRoleAuthor UserRole = "AUTHOR"
	UserRoleReader UserRole = "READER"
)

// Valid 是否为已知角色
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleEditor, UserRoleAuthor, UserRoleReader:
		return true
	}
	return false
}

// User 后台用户
type User struct {
	BaseModel
	Email        string     `gorm:"size:320;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	DisplayName  string     `gorm:"size:255" json:"display_name"`
	Bio          *string    `gorm:"type:text" json:"bio,omitempty"`
	Role         UserRole   `gorm:"size:20;not null;default:'READER'" json:"role"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}
