package model

import (
	"time"

	"gorm.io/datatypes"
)

// MediaFile 已上传的媒体文件
type MediaFile struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Key       string         `gorm:"size:512;not null" json:"key"`
	URL       string         `gorm:"size:1024;not null" json:"url"`
	Alt       *string        `gorm:"size:512" json:"alt"`
	Meta      datatypes.JSON `json:"meta"`
	OwnerID   *int64         `gorm:"index" json:"owner_id"`
	CreatedAt time.Time      `json:"created_at"`
}

func (MediaFile) TableName() string {
	return "media"
}
