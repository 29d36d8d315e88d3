package model

import "time"

// Painting 画作（本地目录实体）
// RemoteProductID 只是远端商品 ID 的缓存，权威值在 ProductLink 上
type Painting struct {
	BaseModel
	AuditMixin

	Title       string      `gorm:"size:255;not null" json:"title"`
	Slug        string      `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description *string     `gorm:"type:text" json:"description"`
	Year        *int        `json:"year"`
	Medium      *string     `gorm:"size:255" json:"medium"`
	Dimensions  *string     `gorm:"size:255" json:"dimensions"`
	ImageURL    *string     `gorm:"size:1024" json:"image_url"`
	Tags        StringArray `json:"tags"`

	RemoteProductID *int64 `gorm:"index" json:"wc_product_id"`

	IsFeatured  bool       `gorm:"not null;default:false" json:"is_featured"`
	PublishedAt *time.Time `gorm:"index" json:"published_at"`
}

func (Painting) TableName() string {
	return "paintings"
}

// IsPublished 发布时间已到
func (p *Painting) IsPublished(now time.Time) bool {
	return p.PublishedAt != nil && !p.PublishedAt.After(now)
}
