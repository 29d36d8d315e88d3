package model

import "gorm.io/datatypes"

// HomeSectionKind 首页板块类型
type HomeSectionKind string

const (
	HomeSectionAd       HomeSectionKind = "AD"
	HomeSectionCategory HomeSectionKind = "CATEGORY"
)

// Valid 是否为已知类型
func (k HomeSectionKind) Valid() bool {
	return k == HomeSectionAd || k == HomeSectionCategory
}

// HomeSection 首页板块：广告位或文章分类
type HomeSection struct {
	BaseModel
	Kind       HomeSectionKind `gorm:"size:20;not null" json:"kind"`
	Title      *string         `gorm:"size:255" json:"title"`
	Subtitle   *string         `gorm:"size:512" json:"subtitle"`
	ImageURL   *string         `gorm:"size:1024" json:"image_url"`
	TargetURL  *string         `gorm:"size:1024" json:"target_url"`
	CategoryID *int64          `gorm:"index" json:"category_id"`
	SortOrder  int             `gorm:"not null" json:"sort_order"`
	Enabled    bool            `gorm:"not null" json:"enabled"`
}

func (HomeSection) TableName() string {
	return "home_sections"
}

// SiteSettings 站点设置，全表只有一行
type SiteSettings struct {
	BaseModel

	SocialLinks datatypes.JSON `json:"social_links"`
	Theme       datatypes.JSON `json:"theme"`
	NavLinks    datatypes.JSON `json:"nav_links"`

	SiteTitle      *string `gorm:"size:255" json:"site_title"`
	SiteTagline    *string `gorm:"size:512" json:"site_tagline"`
	SEODescription *string `gorm:"type:text" json:"seo_description"`
	LogoURL        *string `gorm:"size:1024" json:"logo_url"`
	FaviconURL     *string `gorm:"size:1024" json:"favicon_url"`
	SEOImageURL    *string `gorm:"size:1024" json:"seo_image_url"`

	HeroTitle          *string `gorm:"size:255" json:"hero_title"`
	HeroTagline        *string `gorm:"size:512" json:"hero_tagline"`
	HeroBody           *string `gorm:"type:text" json:"hero_body"`
	HeroPrimaryLabel   *string `gorm:"size:255" json:"hero_primary_label"`
	HeroPrimaryHref    *string `gorm:"size:1024" json:"hero_primary_href"`
	HeroSecondaryLabel *string `gorm:"size:255" json:"hero_secondary_label"`
	HeroSecondaryHref  *string `gorm:"size:1024" json:"hero_secondary_href"`
	HeroFeaturedBlogID *int64  `json:"hero_featured_blog_id"`

	ContactPhone *string `gorm:"size:64" json:"contact_phone"`
	ContactEmail *string `gorm:"size:320" json:"contact_email"`

	GoogleAnalyticsID      *string `gorm:"size:64" json:"google_analytics_id"`
	GoogleSiteVerification *string `gorm:"size:255" json:"google_site_verification"`
	BingSiteVerification   *string `gorm:"size:255" json:"bing_site_verification"`

	ManualTotalViews int  `gorm:"not null;default:0" json:"manual_total_views"`
	GAViewSample     *int `json:"ga_view_sample"`
}

func (SiteSettings) TableName() string {
	return "site_settings"
}
