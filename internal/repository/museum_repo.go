package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"memshaheb_backend/internal/model"
)

// MuseumRepository 展厅与展品仓储
type MuseumRepository interface {
	CreateRoom(ctx context.Context, room *model.MuseumRoom) error
	GetRoom(ctx context.Context, id int64) (*model.MuseumRoom, error)
	UpdateRoom(ctx context.Context, room *model.MuseumRoom) error
	ListRooms(ctx context.Context) ([]model.MuseumRoom, error)
	RoomSlugsLike(ctx context.Context, base string, excludeID int64) ([]string, error)

	// DeleteRoom 连同展厅内的展品一起删除
	DeleteRoom(ctx context.Context, id int64) error

	CreateArtifact(ctx context.Context, artifact *model.MuseumArtifact) error
	GetArtifact(ctx context.Context, id int64) (*model.MuseumArtifact, error)
	FindArtifact(ctx context.Context, roomID, paintingID int64) (*model.MuseumArtifact, error)
	UpdateArtifact(ctx context.Context, artifact *model.MuseumArtifact) error
	DeleteArtifact(ctx context.Context, id int64) error
	ListArtifacts(ctx context.Context, filter ArtifactFilter) ([]model.MuseumArtifact, error)

	// DeleteArtifactsByPainting 画作删除时移除它在所有展厅中的位置
	DeleteArtifactsByPainting(ctx context.Context, paintingID int64) (int64, error)
}

// ArtifactFilter 展品筛选
type ArtifactFilter struct {
	RoomID        *int64
	PaintingID    *int64
	PublishedOnly bool // 只返回画作已发布的展品
	Now           time.Time
}

type museumRepo struct {
	db *gorm.DB
}

// NewMuseumRepository 创建美术馆仓储
func NewMuseumRepository(db *gorm.DB) MuseumRepository {
	return &museumRepo{db: db}
}

// ==================== 展厅 ====================

func (r *museumRepo) CreateRoom(ctx context.Context, room *model.MuseumRoom) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *museumRepo) GetRoom(ctx context.Context, id int64) (*model.MuseumRoom, error) {
	var room model.MuseumRoom
	err := r.db.WithContext(ctx).First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *museumRepo) UpdateRoom(ctx context.Context, room *model.MuseumRoom) error {
	return r.db.WithContext(ctx).Save(room).Error
}

// ListRooms 按 sort、ID 升序
func (r *museumRepo) ListRooms(ctx context.Context) ([]model.MuseumRoom, error) {
	var rooms []model.MuseumRoom
	err := r.db.WithContext(ctx).Order("sort ASC").Order("id ASC").Find(&rooms).Error
	return rooms, err
}

func (r *museumRepo) RoomSlugsLike(ctx context.Context, base string, excludeID int64) ([]string, error) {
	return slugsLike(ctx, r.db, &model.MuseumRoom{}, base, excludeID)
}

func (r *museumRepo) DeleteRoom(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", id).Delete(&model.MuseumArtifact{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.MuseumRoom{}, id).Error
	})
}

// ==================== 展品 ====================

func (r *museumRepo) CreateArtifact(ctx context.Context, artifact *model.MuseumArtifact) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(artifact).Error
}

func (r *museumRepo) GetArtifact(ctx context.Context, id int64) (*model.MuseumArtifact, error) {
	return r.firstArtifact(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *museumRepo) FindArtifact(ctx context.Context, roomID, paintingID int64) (*model.MuseumArtifact, error) {
	return r.firstArtifact(r.db.WithContext(ctx).Where("room_id = ? AND painting_id = ?", roomID, paintingID))
}

func (r *museumRepo) firstArtifact(q *gorm.DB) (*model.MuseumArtifact, error) {
	var artifact model.MuseumArtifact
	err := q.Preload("Painting").First(&artifact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &artifact, nil
}

// UpdateArtifact 只写展品本身，关联以外键为准
func (r *museumRepo) UpdateArtifact(ctx context.Context, artifact *model.MuseumArtifact) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(artifact).Error
}

func (r *museumRepo) DeleteArtifact(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.MuseumArtifact{}, id).Error
}

// ListArtifacts 按 sort、ID 升序，附带画作
func (r *museumRepo) ListArtifacts(ctx context.Context, filter ArtifactFilter) ([]model.MuseumArtifact, error) {
	q := r.db.WithContext(ctx).Model(&model.MuseumArtifact{})
	if filter.PublishedOnly {
		q = q.Joins("JOIN paintings ON paintings.id = museum_artifacts.painting_id").
			Where("paintings.published_at IS NOT NULL AND paintings.published_at <= ?", filter.Now)
	}
	if filter.RoomID != nil {
		q = q.Where("museum_artifacts.room_id = ?", *filter.RoomID)
	}
	if filter.PaintingID != nil {
		q = q.Where("museum_artifacts.painting_id = ?", *filter.PaintingID)
	}

	var artifacts []model.MuseumArtifact
	err := q.Preload("Painting").
		Order("museum_artifacts.sort ASC").
		Order("museum_artifacts.id ASC").
		Find(&artifacts).Error
	return artifacts, err
}

func (r *museumRepo) DeleteArtifactsByPainting(ctx context.Context, paintingID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("painting_id = ?", paintingID).Delete(&model.MuseumArtifact{})
	return res.RowsAffected, res.Error
}
