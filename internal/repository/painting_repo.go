package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"memshaheb_backend/internal/model"
)

// ==================== 仓储接口 ====================

// PaintingRepository 画作仓储接口
type PaintingRepository interface {
	Create(ctx context.Context, painting *model.Painting) error
	GetByID(ctx context.Context, id int64) (*model.Painting, error)
	GetBySlug(ctx context.Context, slug string) (*model.Painting, error)
	Update(ctx context.Context, painting *model.Painting) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter PaintingFilter) ([]model.Painting, error)

	// 远端商品 ID 缓存
	UpdateRemoteProductID(ctx context.Context, id, remoteID int64) error
	BackfillRemoteProductID(ctx context.Context, id, remoteID int64) (bool, error)

	// slug 去重
	SlugsLike(ctx context.Context, base string, excludeID int64) ([]string, error)
}

// PaintingFilter 画作列表筛选（游标分页）
type PaintingFilter struct {
	Query         string
	Year          *int
	Medium        string
	Tags          []string
	Cursor        int64
	Limit         int
	PublishedOnly bool
	Now           time.Time
	Descending    bool
}

// ==================== 实现 ====================

type paintingRepo struct {
	db *gorm.DB
}

// NewPaintingRepository 创建画作仓储
func NewPaintingRepository(db *gorm.DB) PaintingRepository {
	return &paintingRepo{db: db}
}

func (r *paintingRepo) Create(ctx context.Context, painting *model.Painting) error {
	return r.db.WithContext(ctx).Create(painting).Error
}

func (r *paintingRepo) GetByID(ctx context.Context, id int64) (*model.Painting, error) {
	var painting model.Painting
	err := r.db.WithContext(ctx).First(&painting, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &painting, nil
}

func (r *paintingRepo) GetBySlug(ctx context.Context, slug string) (*model.Painting, error) {
	var painting model.Painting
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&painting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &painting, nil
}

func (r *paintingRepo) Update(ctx context.Context, painting *model.Painting) error {
	return r.db.WithContext(ctx).Save(painting).Error
}

func (r *paintingRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Painting{}, id).Error
}

// List 游标分页，多取一条用于判断是否还有下一页
func (r *paintingRepo) List(ctx context.Context, filter PaintingFilter) ([]model.Painting, error) {
	q := r.db.WithContext(ctx).Model(&model.Painting{})

	if filter.PublishedOnly {
		q = q.Where("published_at IS NOT NULL AND published_at <= ?", filter.Now)
	}
	if s := strings.TrimSpace(filter.Query); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?", pattern, pattern)
	}
	if filter.Year != nil {
		q = q.Where("year = ?", *filter.Year)
	}
	if m := strings.TrimSpace(filter.Medium); m != "" {
		q = q.Where("LOWER(medium) = ?", strings.ToLower(m))
	}
	if len(filter.Tags) > 0 {
		q = whereTagsContainAll(q, "tags", filter.Tags)
	}

	if filter.Descending {
		if filter.Cursor > 0 {
			q = q.Where("id < ?", filter.Cursor)
		}
		q = q.Order("id DESC")
	} else {
		if filter.Cursor > 0 {
			q = q.Where("id > ?", filter.Cursor)
		}
		q = q.Order("id ASC")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var paintings []model.Painting
	err := q.Limit(limit + 1).Find(&paintings).Error
	return paintings, err
}

// UpdateRemoteProductID 写入远端商品 ID 缓存
func (r *paintingRepo) UpdateRemoteProductID(ctx context.Context, id, remoteID int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Painting{}).
		Where("id = ?", id).
		Update("remote_product_id", remoteID).Error
}

// BackfillRemoteProductID 仅在缓存为空时写入
func (r *paintingRepo) BackfillRemoteProductID(ctx context.Context, id, remoteID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Painting{}).
		Where("id = ? AND remote_product_id IS NULL", id).
		Update("remote_product_id", remoteID)
	return res.RowsAffected > 0, res.Error
}

// SlugsLike 返回与 base 相同或以 "base-" 开头的 slug
func (r *paintingRepo) SlugsLike(ctx context.Context, base string, excludeID int64) ([]string, error) {
	return slugsLike(ctx, r.db, &model.Painting{}, base, excludeID)
}
