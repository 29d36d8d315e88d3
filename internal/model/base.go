package model

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// BaseModel 通用主键与时间戳
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditMixin 审计字段 (只记录操作人，不参与权限判断)
type AuditMixin struct {
	CreatedByID *int64 `gorm:"index" json:"created_by_id,omitempty"`
	UpdatedByID *int64 `gorm:"index" json:"updated_by_id,omitempty"`
}

// ==================== StringArray ====================

// StringArray postgres 下映射为 text[]，其他方言退化为 text 存储 "{a,b}" 字面量
type StringArray pq.StringArray

func (a StringArray) Value() (driver.Value, error) {
	return pq.StringArray(a).Value()
}

func (a *StringArray) Scan(src interface{}) error {
	return (*pq.StringArray)(a).Scan(src)
}

// GormDataType 空数组的 Value() 为 nil，schema 解析时无法推断类型，需显式声明
func (StringArray) GormDataType() string {
	return "text"
}

func (StringArray) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
