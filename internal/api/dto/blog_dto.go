package dto

import (
	"time"

	"memshaheb_backend/internal/model"
)

// ==================== 文章 ====================

// CreateBlogReq 新建文章
type CreateBlogReq struct {
	Title           string     `json:"title" binding:"required,min=1,max=255"`
	Slug            *string    `json:"slug" binding:"omitempty,max=512"`
	ContentMD       string     `json:"content_md" binding:"required"`
	Excerpt         *string    `json:"excerpt"`
	CoverURL        *string    `json:"cover_url" binding:"omitempty,max=1024"`
	Tags            []string   `json:"tags"`
	CategoryID      *int64     `json:"category_id" binding:"omitempty,gt=0"`
	AuthorID        *int64     `json:"author_id" binding:"omitempty,gt=0"`
	MetaTitle       *string    `json:"meta_title" binding:"omitempty,max=255"`
	MetaDescription *string    `json:"meta_description" binding:"omitempty,max=512"`
	CanonicalURL    *string    `json:"canonical_url" binding:"omitempty,max=512"`
	OGImageURL      *string    `json:"og_image_url" binding:"omitempty,max=1024"`
	PublishedAt     *time.Time `json:"published_at"`
}

// UpdateBlogReq 部分更新；category_id 传 0 表示清空分类
type UpdateBlogReq struct {
	Title           *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Slug            *string    `json:"slug" binding:"omitempty,max=512"`
	ContentMD       *string    `json:"content_md"`
	Excerpt         *string    `json:"excerpt"`
	CoverURL        *string    `json:"cover_url" binding:"omitempty,max=1024"`
	Tags            []string   `json:"tags"`
	CategoryID      *int64     `json:"category_id" binding:"omitempty,gte=0"`
	AuthorID        *int64     `json:"author_id" binding:"omitempty,gt=0"`
	MetaTitle       *string    `json:"meta_title" binding:"omitempty,max=255"`
	MetaDescription *string    `json:"meta_description" binding:"omitempty,max=512"`
	CanonicalURL    *string    `json:"canonical_url" binding:"omitempty,max=512"`
	OGImageURL      *string    `json:"og_image_url" binding:"omitempty,max=1024"`
	PublishedAt     *time.Time `json:"published_at"`
}

// BlogListReq 列表查询
type BlogListReq struct {
	Query    string   `form:"q"`
	Tags     []string `form:"tags"`
	Category string   `form:"category"` // 分类 ID 或 slug
	Cursor   string   `form:"cursor"`
	Limit    int      `form:"limit" binding:"omitempty,min=1,max=50"`
}

// BlogListResp 游标分页结果
type BlogListResp struct {
	Items      []model.BlogPost `json:"items"`
	NextCursor *string          `json:"next_cursor"`
}

// ==================== 分类 ====================

// CreateBlogCategoryReq 新建分类
type CreateBlogCategoryReq struct {
	Name        string  `json:"name" binding:"required,min=1,max=160"`
	Slug        *string `json:"slug" binding:"omitempty,max=180"`
	Description *string `json:"description"`
}

// UpdateBlogCategoryReq 修改分类
type UpdateBlogCategoryReq struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=160"`
	Slug        *string `json:"slug" binding:"omitempty,max=180"`
	Description *string `json:"description"`
}

// BlogCategoryListReq 分类列表
type BlogCategoryListReq struct {
	Query string `form:"q"`
}
