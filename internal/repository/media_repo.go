package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"memshaheb_backend/internal/model"
)

// MediaRepository 媒体文件仓储
type MediaRepository interface {
	Create(ctx context.Context, media *model.MediaFile) error
	GetByID(ctx context.Context, id int64) (*model.MediaFile, error)
	List(ctx context.Context, limit int) ([]model.MediaFile, error)
	Delete(ctx context.Context, id int64) error
}

type mediaRepo struct {
	db *gorm.DB
}

// NewMediaRepository 创建媒体仓储
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepo{db: db}
}

func (r *mediaRepo) Create(ctx context.Context, media *model.MediaFile) error {
	return r.db.WithContext(ctx).Create(media).Error
}

func (r *mediaRepo) GetByID(ctx context.Context, id int64) (*model.MediaFile, error) {
	var media model.MediaFile
	err := r.db.WithContext(ctx).First(&media, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &media, nil
}

// List 最新上传在前
func (r *mediaRepo) List(ctx context.Context, limit int) ([]model.MediaFile, error) {
	var files []model.MediaFile
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&files).Error
	return files, err
}

func (r *mediaRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.MediaFile{}, id).Error
}
