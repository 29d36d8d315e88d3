package dto

import "encoding/json"

// ==================== 首页板块 ====================

// CreateHomeSectionReq 新建板块；sort_order 默认 1，enabled 默认 true
type CreateHomeSectionReq struct {
	Kind       string  `json:"kind" binding:"required,oneof=AD CATEGORY"`
	Title      *string `json:"title" binding:"omitempty,max=255"`
	Subtitle   *string `json:"subtitle" binding:"omitempty,max=512"`
	ImageURL   *string `json:"image_url" binding:"omitempty,max=1024"`
	TargetURL  *string `json:"target_url" binding:"omitempty,max=1024"`
	CategoryID *int64  `json:"category_id" binding:"omitempty,gt=0"`
	SortOrder  *int    `json:"sort_order"`
	Enabled    *bool   `json:"enabled"`
}

// UpdateHomeSectionReq 修改板块
type UpdateHomeSectionReq struct {
	Kind       *string `json:"kind" binding:"omitempty,oneof=AD CATEGORY"`
	Title      *string `json:"title" binding:"omitempty,max=255"`
	Subtitle   *string `json:"subtitle" binding:"omitempty,max=512"`
	ImageURL   *string `json:"image_url" binding:"omitempty,max=1024"`
	TargetURL  *string `json:"target_url" binding:"omitempty,max=1024"`
	CategoryID *int64  `json:"category_id" binding:"omitempty,gt=0"`
	SortOrder  *int    `json:"sort_order"`
	Enabled    *bool   `json:"enabled"`
}

// ==================== 站点设置 ====================

// UpdateSiteSettingsReq 部分更新，至少一个字段
type UpdateSiteSettingsReq struct {
	SocialLinks json.RawMessage `json:"social_links" swaggertype:"object"`
	Theme       json.RawMessage `json:"theme" swaggertype:"object"`
	NavLinks    json.RawMessage `json:"nav_links" swaggertype:"array,object"`

	SiteTitle      *string `json:"site_title" binding:"omitempty,max=255"`
	SiteTagline    *string `json:"site_tagline" binding:"omitempty,max=512"`
	SEODescription *string `json:"seo_description"`
	LogoURL        *string `json:"logo_url" binding:"omitempty,max=1024"`
	FaviconURL     *string `json:"favicon_url" binding:"omitempty,max=1024"`
	SEOImageURL    *string `json:"seo_image_url" binding:"omitempty,max=1024"`

	HeroTitle          *string `json:"hero_title" binding:"omitempty,max=255"`
	HeroTagline        *string `json:"hero_tagline" binding:"omitempty,max=512"`
	HeroBody           *string `json:"hero_body"`
	HeroPrimaryLabel   *string `json:"hero_primary_label" binding:"omitempty,max=255"`
	HeroPrimaryHref    *string `json:"hero_primary_href" binding:"omitempty,max=1024"`
	HeroSecondaryLabel *string `json:"hero_secondary_label" binding:"omitempty,max=255"`
	HeroSecondaryHref  *string `json:"hero_secondary_href" binding:"omitempty,max=1024"`
	HeroFeaturedBlogID *int64  `json:"hero_featured_blog_id" binding:"omitempty,gt=0"`

	ContactPhone *string `json:"contact_phone" binding:"omitempty,max=64"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,max=320"`

	GoogleAnalyticsID      *string `json:"google_analytics_id" binding:"omitempty,max=64"`
	GoogleSiteVerification *string `json:"google_site_verification" binding:"omitempty,max=255"`
	BingSiteVerification   *string `json:"bing_site_verification" binding:"omitempty,max=255"`

	ManualTotalViews *int `json:"manual_total_views" binding:"omitempty,gte=0"`
	GAViewSample     *int `json:"ga_view_sample" binding:"omitempty,gte=0"`
}
