package model

import "time"

// BlogCategory 文章分类
type BlogCategory struct {
	BaseModel
	Name        string  `gorm:"size:160;not null" json:"name"`
	Slug        string  `gorm:"size:180;not null;uniqueIndex" json:"slug"`
	Description *string `gorm:"type:text" json:"description"`
}

func (BlogCategory) TableName() string {
	return "blog_categories"
}

// BlogPost 杂志文章
// AuthorID 为空时以 CreatedByID 作为归属
type BlogPost struct {
	BaseModel
	AuditMixin

	Title     string      `gorm:"size:255;not null" json:"title"`
	Slug      string      `gorm:"size:512;not null;uniqueIndex" json:"slug"`
	Excerpt   *string     `gorm:"type:text" json:"excerpt"`
	ContentMD string      `gorm:"type:text;not null" json:"content_md"`
	CoverURL  *string     `gorm:"size:1024" json:"cover_url"`
	Tags      StringArray `json:"tags"`

	CategoryID *int64        `gorm:"index" json:"category_id"`
	Category   *BlogCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	AuthorID   *int64        `gorm:"index" json:"author_id"`

	MetaTitle       *string `gorm:"size:255" json:"meta_title"`
	MetaDescription *string `gorm:"size:512" json:"meta_description"`
	CanonicalURL    *string `gorm:"size:512" json:"canonical_url"`
	OGImageURL      *string `gorm:"size:1024" json:"og_image_url"`

	PublishedAt *time.Time `gorm:"index" json:"published_at"`
}

func (BlogPost) TableName() string {
	return "blogs"
}

// IsPublished 发布时间已到
func (b *BlogPost) IsPublished(now time.Time) bool {
	return b.PublishedAt != nil && !b.PublishedAt.After(now)
}

// OwnerID 归属用户，作者只能修改自己的文章
func (b *BlogPost) OwnerID() int64 {
	if b.AuthorID != nil {
		return *b.AuthorID
	}
	if b.CreatedByID != nil {
		return *b.CreatedByID
	}
	return 0
}
