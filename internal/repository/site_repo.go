package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"memshaheb_backend/internal/model"
)

// SiteRepository 首页板块与站点设置
type SiteRepository interface {
	CreateSection(ctx context.Context, section *model.HomeSection) error
	GetSection(ctx context.Context, id int64) (*model.HomeSection, error)
	UpdateSection(ctx context.Context, section *model.HomeSection) error
	DeleteSection(ctx context.Context, id int64) error
	ListSections(ctx context.Context, enabledOnly bool) ([]model.HomeSection, error)

	// Settings 返回唯一的设置行，不存在时创建
	Settings(ctx context.Context) (*model.SiteSettings, error)
	SaveSettings(ctx context.Context, settings *model.SiteSettings) error
}

type siteRepo struct {
	db *gorm.DB
}

// NewSiteRepository 创建站点仓储
func NewSiteRepository(db *gorm.DB) SiteRepository {
	return &siteRepo{db: db}
}

// ==================== 首页板块 ====================

func (r *siteRepo) CreateSection(ctx context.Context, section *model.HomeSection) error {
	return r.db.WithContext(ctx).Create(section).Error
}

func (r *siteRepo) GetSection(ctx context.Context, id int64) (*model.HomeSection, error) {
	var section model.HomeSection
	err := r.db.WithContext(ctx).First(&section, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *siteRepo) UpdateSection(ctx context.Context, section *model.HomeSection) error {
	return r.db.WithContext(ctx).Save(section).Error
}

func (r *siteRepo) DeleteSection(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.HomeSection{}, id).Error
}

// ListSections 按 sort_order、ID 升序
func (r *siteRepo) ListSections(ctx context.Context, enabledOnly bool) ([]model.HomeSection, error) {
	q := r.db.WithContext(ctx).Order("sort_order ASC").Order("id ASC")
	if enabledOnly {
		q = q.Where("enabled = ?", true)
	}
	var sections []model.HomeSection
	err := q.Find(&sections).Error
	return sections, err
}

// ==================== 站点设置 ====================

func (r *siteRepo) Settings(ctx context.Context) (*model.SiteSettings, error) {
	var settings model.SiteSettings
	err := r.db.WithContext(ctx).Order("id ASC").First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	settings = model.SiteSettings{
		SocialLinks: []byte("{}"),
		Theme:       []byte("{}"),
		NavLinks:    []byte("[]"),
	}
	if err := r.db.WithContext(ctx).Create(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *siteRepo) SaveSettings(ctx context.Context, settings *model.SiteSettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}
