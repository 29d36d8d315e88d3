package dto

import (
	"time"

	"memshaheb_backend/internal/model"
)

// ==================== 请求 DTO ====================

// CreatePaintingReq 创建画作
type CreatePaintingReq struct {
	Title       string     `json:"title" binding:"required,min=1,max=255"`
	Slug        *string    `json:"slug" binding:"omitempty,max=255"`
	Description *string    `json:"description"`
	Year        *int       `json:"year" binding:"omitempty,gte=0"`
	Medium      *string    `json:"medium" binding:"omitempty,max=255"`
	Dimensions  *string    `json:"dimensions" binding:"omitempty,max=255"`
	ImageURL    *string    `json:"image_url" binding:"omitempty,max=1024"`
	Tags        []string   `json:"tags"`
	WCProductID *int64     `json:"wc_product_id" binding:"omitempty,gt=0"`
	IsFeatured  bool       `json:"is_featured"`
	PublishedAt *time.Time `json:"published_at"`
}

// UpdatePaintingReq 部分更新，nil 字段不改
type UpdatePaintingReq struct {
	Title       *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Slug        *string    `json:"slug" binding:"omitempty,max=255"`
	Description *string    `json:"description"`
	Year        *int       `json:"year" binding:"omitempty,gte=0"`
	Medium      *string    `json:"medium" binding:"omitempty,max=255"`
	Dimensions  *string    `json:"dimensions" binding:"omitempty,max=255"`
	ImageURL    *string    `json:"image_url" binding:"omitempty,max=1024"`
	Tags        []string   `json:"tags"`
	WCProductID *int64     `json:"wc_product_id" binding:"omitempty,gt=0"`
	IsFeatured  *bool      `json:"is_featured"`
	PublishedAt *time.Time `json:"published_at"`
}

// PaintingListReq 列表查询
type PaintingListReq struct {
	Query  string   `form:"q"`
	Year   *int     `form:"year"`
	Medium string   `form:"medium"`
	Tags   []string `form:"tags"`
	Cursor string   `form:"cursor"`
	Limit  int      `form:"limit" binding:"omitempty,min=1,max=50"`
}

// ==================== 响应 DTO ====================

// PaintingListResp 游标分页结果
type PaintingListResp struct {
	Items      []model.Painting `json:"items"`
	NextCursor *string          `json:"next_cursor"`
}
