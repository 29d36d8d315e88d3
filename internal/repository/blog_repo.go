package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"memshaheb_backend/internal/model"
)

// ==================== 仓储接口 ====================

// BlogRepository 文章仓储接口
type BlogRepository interface {
	Create(ctx context.Context, post *model.BlogPost) error
	GetByID(ctx context.Context, id int64) (*model.BlogPost, error)
	GetBySlug(ctx context.Context, slug string) (*model.BlogPost, error)
	Update(ctx context.Context, post *model.BlogPost) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter BlogFilter) ([]model.BlogPost, error)
	SlugsLike(ctx context.Context, base string, excludeID int64) ([]string, error)
}

// BlogFilter 文章列表筛选，按 ID 降序游标分页
type BlogFilter struct {
	Query         string
	Tags          []string
	CategoryID    *int64
	Cursor        int64
	Limit         int
	PublishedOnly bool
	Now           time.Time
}

// BlogCategoryRepository 分类仓储接口
type BlogCategoryRepository interface {
	Create(ctx context.Context, category *model.BlogCategory) error
	GetByID(ctx context.Context, id int64) (*model.BlogCategory, error)
	GetBySlug(ctx context.Context, slug string) (*model.BlogCategory, error)
	Update(ctx context.Context, category *model.BlogCategory) error
	List(ctx context.Context, query string) ([]model.BlogCategory, error)
	SlugsLike(ctx context.Context, base string, excludeID int64) ([]string, error)

	// Delete 删除分类，文章与首页板块上的引用置空
	Delete(ctx context.Context, id int64) error
}

// ==================== 文章实现 ====================

type blogRepo struct {
	db *gorm.DB
}

// NewBlogRepository 创建文章仓储
func NewBlogRepository(db *gorm.DB) BlogRepository {
	return &blogRepo{db: db}
}

func (r *blogRepo) Create(ctx context.Context, post *model.BlogPost) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

func (r *blogRepo) GetByID(ctx context.Context, id int64) (*model.BlogPost, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *blogRepo) GetBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	return r.first(r.db.WithContext(ctx).Where("slug = ?", slug))
}

func (r *blogRepo) first(q *gorm.DB) (*model.BlogPost, error) {
	var post model.BlogPost
	err := q.Preload("Category").First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Update 只写文章本身，分类以 CategoryID 为准
func (r *blogRepo) Update(ctx context.Context, post *model.BlogPost) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error
}

func (r *blogRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.BlogPost{}, id).Error
}

// List 多取一条用于判断是否还有下一页
func (r *blogRepo) List(ctx context.Context, filter BlogFilter) ([]model.BlogPost, error) {
	q := r.db.WithContext(ctx).Model(&model.BlogPost{})

	if filter.PublishedOnly {
		q = q.Where("published_at IS NOT NULL AND published_at <= ?", filter.Now)
	}
	if s := strings.TrimSpace(filter.Query); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(content_md) LIKE ? OR LOWER(COALESCE(excerpt, '')) LIKE ?",
			pattern, pattern, pattern)
	}
	if len(filter.Tags) > 0 {
		q = whereTagsContainAll(q, "tags", filter.Tags)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Cursor > 0 {
		q = q.Where("id < ?", filter.Cursor)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var posts []model.BlogPost
	err := q.Preload("Category").Order("id DESC").Limit(limit + 1).Find(&posts).Error
	return posts, err
}

func (r *blogRepo) SlugsLike(ctx context.Context, base string, excludeID int64) ([]string, error) {
	return slugsLike(ctx, r.db, &model.BlogPost{}, base, excludeID)
}

// ==================== 分类实现 ====================

type blogCategoryRepo struct {
	db *gorm.DB
}

// NewBlogCategoryRepository 创建分类仓储
func NewBlogCategoryRepository(db *gorm.DB) BlogCategoryRepository {
	return &blogCategoryRepo{db: db}
}

func (r *blogCategoryRepo) Create(ctx context.Context, category *model.BlogCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *blogCategoryRepo) GetByID(ctx context.Context, id int64) (*model.BlogCategory, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *blogCategoryRepo) GetBySlug(ctx context.Context, slug string) (*model.BlogCategory, error) {
	return r.first(r.db.WithContext(ctx).Where("slug = ?", slug))
}

func (r *blogCategoryRepo) first(q *gorm.DB) (*model.BlogCategory, error) {
	var category model.BlogCategory
	err := q.First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *blogCategoryRepo) Update(ctx context.Context, category *model.BlogCategory) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// List 按名称排序，query 为名称关键词
func (r *blogCategoryRepo) List(ctx context.Context, query string) ([]model.BlogCategory, error) {
	q := r.db.WithContext(ctx).Order("name ASC").Order("id ASC")
	if s := strings.TrimSpace(query); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	var categories []model.BlogCategory
	err := q.Find(&categories).Error
	return categories, err
}

func (r *blogCategoryRepo) SlugsLike(ctx context.Context, base string, excludeID int64) ([]string, error) {
	return slugsLike(ctx, r.db, &model.BlogCategory{}, base, excludeID)
}

// Delete sqlite 默认不执行外键动作，引用在同一事务内显式置空
func (r *blogCategoryRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.BlogPost{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.HomeSection{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.BlogCategory{}, id).Error
	})
}
