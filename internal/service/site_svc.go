package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"memshaheb_backend/internal/api/dto"
	"memshaheb_backend/internal/model"
	"memshaheb_backend/internal/repository"
)

// SiteService 首页板块与站点设置
type SiteService struct {
	site       repository.SiteRepository
	categories repository.BlogCategoryRepository
	logger     *zap.Logger
}

// NewSiteService 创建站点服务
func NewSiteService(site repository.SiteRepository, categories repository.BlogCategoryRepository, logger *zap.Logger) *SiteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SiteService{site: site, categories: categories, logger: logger.Named("site")}
}

// ==================== 首页板块 ====================

// ListSections enabledOnly 为 true 时只返回启用的板块
func (s *SiteService) ListSections(ctx context.Context, enabledOnly bool) ([]model.HomeSection, error) {
	sections, err := s.site.ListSections(ctx, enabledOnly)
	if err != nil {
		return nil, err
	}
	if sections == nil {
		sections = []model.HomeSection{}
	}
	return sections, nil
}

// CreateSection 分类板块必须指向已存在的分类
func (s *SiteService) CreateSection(ctx context.Context, req *dto.CreateHomeSectionReq) (*model.HomeSection, error) {
	kind := model.HomeSectionKind(req.Kind)
	if !kind.Valid() {
		return nil, ErrInvalidSection
	}
	if err := validateTargetURL(req.TargetURL); err != nil {
		return nil, err
	}
	if kind == model.HomeSectionCategory {
		if err := s.ensureSectionCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
	}

	section := &model.HomeSection{
		Kind:       kind,
		Title:      req.Title,
		Subtitle:   req.Subtitle,
		ImageURL:   req.ImageURL,
		TargetURL:  req.TargetURL,
		CategoryID: req.CategoryID,
		SortOrder:  1,
		Enabled:    true,
	}
	if req.SortOrder != nil {
		section.SortOrder = *req.SortOrder
	}
	if req.Enabled != nil {
		section.Enabled = *req.Enabled
	}
	if err := s.site.CreateSection(ctx, section); err != nil {
		return nil, err
	}
	return section, nil
}

func (s *SiteService) UpdateSection(ctx context.Context, id int64, req *dto.UpdateHomeSectionReq) (*model.HomeSection, error) {
	section, err := s.site.GetSection(ctx, id)
	if err != nil {
		return nil, err
	}
	if section == nil {
		return nil, ErrSectionNotFound
	}

	if req.Kind != nil {
		kind := model.HomeSectionKind(*req.Kind)
		if !kind.Valid() {
			return nil, ErrInvalidSection
		}
		section.Kind = kind
	}
	if req.CategoryID != nil {
		section.CategoryID = req.CategoryID
	}
	if section.Kind == model.HomeSectionCategory && (req.Kind != nil || req.CategoryID != nil) {
		if err := s.ensureSectionCategory(ctx, section.CategoryID); err != nil {
			return nil, err
		}
	}
	if req.TargetURL != nil {
		if err := validateTargetURL(req.TargetURL); err != nil {
			return nil, err
		}
		section.TargetURL = req.TargetURL
	}
	if req.Title != nil {
		section.Title = req.Title
	}
	if req.Subtitle != nil {
		section.Subtitle = req.Subtitle
	}
	if req.ImageURL != nil {
		section.ImageURL = req.ImageURL
	}
	if req.SortOrder != nil {
		section.SortOrder = *req.SortOrder
	}
	if req.Enabled != nil {
		section.Enabled = *req.Enabled
	}

	if err := s.site.UpdateSection(ctx, section); err != nil {
		return nil, err
	}
	return section, nil
}

func (s *SiteService) DeleteSection(ctx context.Context, id int64) error {
	section, err := s.site.GetSection(ctx, id)
	if err != nil {
		return err
	}
	if section == nil {
		return ErrSectionNotFound
	}
	return s.site.DeleteSection(ctx, id)
}

func (s *SiteService) ensureSectionCategory(ctx context.Context, id *int64) error {
	if id == nil {
		return ErrInvalidCategory
	}
	category, err := s.categories.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrInvalidCategory
	}
	return nil
}

// validateTargetURL 空值允许，否则必须是带主机的 http(s) 地址
func validateTargetURL(raw *string) error {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(*raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidTargetURL
	}
	return nil
}

// ==================== 站点设置 ====================

// Settings 读取站点设置，首次访问时创建
func (s *SiteService) Settings(ctx context.Context) (*model.SiteSettings, error) {
	settings, err := s.site.Settings(ctx)
	if err != nil {
		return nil, err
	}
	// 旧数据里 nav_links 可能存成了对象
	if !isJSONKind(settings.NavLinks, '[') {
		settings.NavLinks = datatypes.JSON("[]")
		if err := s.site.SaveSettings(ctx, settings); err != nil {
			return nil, err
		}
	}
	return settings, nil
}

// UpdateSettings 只写入请求里出现的字段
func (s *SiteService) UpdateSettings(ctx context.Context, req *dto.UpdateSiteSettingsReq) (*model.SiteSettings, error) {
	settings, err := s.site.Settings(ctx)
	if err != nil {
		return nil, err
	}

	changed := false
	setJSON := func(dst *datatypes.JSON, raw json.RawMessage, open byte, field string) error {
		if raw == nil {
			return nil
		}
		if !isJSONKind(raw, open) {
			return fmt.Errorf("%w: %s", ErrInvalidSettingsJS, field)
		}
		*dst = datatypes.JSON(bytes.TrimSpace(raw))
		changed = true
		return nil
	}
	if err := setJSON(&settings.SocialLinks, req.SocialLinks, '{', "social_links"); err != nil {
		return nil, err
	}
	if err := setJSON(&settings.Theme, req.Theme, '{', "theme"); err != nil {
		return nil, err
	}
	if err := setJSON(&settings.NavLinks, req.NavLinks, '[', "nav_links"); err != nil {
		return nil, err
	}

	strs := []struct {
		dst **string
		src *string
	}{
		{&settings.SiteTitle, req.SiteTitle},
		{&settings.SiteTagline, req.SiteTagline},
		{&settings.SEODescription, req.SEODescription},
		{&settings.LogoURL, req.LogoURL},
		{&settings.FaviconURL, req.FaviconURL},
		{&settings.SEOImageURL, req.SEOImageURL},
		{&settings.HeroTitle, req.HeroTitle},
		{&settings.HeroTagline, req.HeroTagline},
		{&settings.HeroBody, req.HeroBody},
		{&settings.HeroPrimaryLabel, req.HeroPrimaryLabel},
		{&settings.HeroPrimaryHref, req.HeroPrimaryHref},
		{&settings.HeroSecondaryLabel, req.HeroSecondaryLabel},
		{&settings.HeroSecondaryHref, req.HeroSecondaryHref},
		{&settings.ContactPhone, req.ContactPhone},
		{&settings.ContactEmail, req.ContactEmail},
		{&settings.GoogleAnalyticsID, req.GoogleAnalyticsID},
		{&settings.GoogleSiteVerification, req.GoogleSiteVerification},
		{&settings.BingSiteVerification, req.BingSiteVerification},
	}
	for _, f := range strs {
		if f.src != nil {
			*f.dst = f.src
			changed = true
		}
	}

	if req.HeroFeaturedBlogID != nil {
		settings.HeroFeaturedBlogID = req.HeroFeaturedBlogID
		changed = true
	}
	if req.ManualTotalViews != nil {
		settings.ManualTotalViews = *req.ManualTotalViews
		changed = true
	}
	if req.GAViewSample != nil {
		settings.GAViewSample = req.GAViewSample
		changed = true
	}

	if !changed {
		return nil, ErrNoSettingsUpdate
	}
	if err := s.site.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}
	s.logger.Info("站点设置已更新", zap.Int64("settings_id", settings.ID))
	return settings, nil
}

// isJSONKind 合法 JSON 且以 open 开头（'{' 对象，'[' 数组）
func isJSONKind(raw []byte, open byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == open && json.Valid(trimmed)
}
