package middleware

import (
	"context"
	"reflect"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ==================== 审计上下文 ====================

type auditContextKey struct{}

// AuditInfo 审计信息
type AuditInfo struct {
	UserID int64
	Email  string
}

// WithAuditInfo 注入审计信息到 context
func WithAuditInfo(ctx context.Context, userID int64, email string) context.Context {
	return context.WithValue(ctx, auditContextKey{}, &AuditInfo{
		UserID: userID,
		Email:  email,
	})
}

// GetAuditUserID 从 context 获取审计用户 ID
func GetAuditUserID(ctx context.Context) int64 {
	if info, ok := ctx.Value(auditContextKey{}).(*AuditInfo); ok {
		return info.UserID
	}
	return 0
}

// ==================== Gin 中间件 ====================

// AuditContext 将 JWT 中的用户写入 request context，供 GORM 回调使用
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := GetUserID(c); userID > 0 {
			ctx := WithAuditInfo(c.Request.Context(), userID, GetUserEmail(c))
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// ==================== GORM 回调 ====================

// RegisterAuditCallbacks 在 Create/Update 时填充 CreatedByID/UpdatedByID
func RegisterAuditCallbacks(db *gorm.DB) error {
	err := db.Callback().Create().Before("gorm:create").Register("audit:create", func(tx *gorm.DB) {
		userID := auditUserID(tx)
		if userID == 0 {
			return
		}
		setAuditField(tx, "CreatedByID", userID, false)
		setAuditField(tx, "UpdatedByID", userID, false)
	})
	if err != nil {
		return err
	}

	// 更新时总是覆盖 UpdatedByID
	return db.Callback().Update().Before("gorm:update").Register("audit:update", func(tx *gorm.DB) {
		if userID := auditUserID(tx); userID > 0 {
			setAuditField(tx, "UpdatedByID", userID, true)
		}
	})
}

func auditUserID(tx *gorm.DB) int64 {
	if tx.Statement.Context == nil {
		return 0
	}
	return GetAuditUserID(tx.Statement.Context)
}

func setAuditField(tx *gorm.DB, fieldName string, value int64, overwrite bool) {
	if tx.Statement.Schema == nil {
		return
	}
	field := tx.Statement.Schema.LookUpField(fieldName)
	if field == nil {
		return
	}

	ctx := tx.Statement.Context
	apply := func(rv reflect.Value) {
		if _, isZero := field.ValueOf(ctx, rv); isZero || overwrite {
			_ = field.Set(ctx, rv, value)
		}
	}

	switch tx.Statement.ReflectValue.Kind() {
	case reflect.Struct:
		apply(tx.Statement.ReflectValue)
	case reflect.Slice:
		for i := 0; i < tx.Statement.ReflectValue.Len(); i++ {
			apply(tx.Statement.ReflectValue.Index(i))
		}
	}
}
