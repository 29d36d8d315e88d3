package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"memshaheb_backend/internal/api/dto"
	"memshaheb_backend/internal/model"
	"memshaheb_backend/internal/repository"
	"memshaheb_backend/pkg/utils"
)

const roomSlugFallback = "room"

// MuseumService 虚拟美术馆：展厅与展品
type MuseumService struct {
	museum    repository.MuseumRepository
	paintings repository.PaintingRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewMuseumService 创建美术馆服务
func NewMuseumService(museum repository.MuseumRepository, paintings repository.PaintingRepository, logger *zap.Logger) *MuseumService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MuseumService{
		museum:    museum,
		paintings: paintings,
		logger:    logger.Named("museum"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ==================== 展厅 ====================

// ListRooms 全部展厅
func (s *MuseumService) ListRooms(ctx context.Context) ([]model.MuseumRoom, error) {
	rooms, err := s.museum.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	if rooms == nil {
		rooms = []model.MuseumRoom{}
	}
	return rooms, nil
}

func (s *MuseumService) CreateRoom(ctx context.Context, actor Actor, req *dto.CreateRoomReq) (*model.MuseumRoom, error) {
	base := req.Title
	if req.Slug != nil && strings.TrimSpace(*req.Slug) != "" {
		base = *req.Slug
	}
	slug, err := s.uniqueRoomSlug(ctx, base, 0)
	if err != nil {
		return nil, err
	}
	room := &model.MuseumRoom{Title: req.Title, Slug: slug, Intro: req.Intro, Sort: req.Sort}
	if actor.ID > 0 {
		room.CreatedByID = &actor.ID
		room.UpdatedByID = &actor.ID
	}
	if err := s.museum.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *MuseumService) UpdateRoom(ctx context.Context, actor Actor, id int64, req *dto.UpdateRoomReq) (*model.MuseumRoom, error) {
	room, err := s.museum.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	if req.Title != nil || req.Slug != nil {
		base := room.Title
		if req.Title != nil {
			base = *req.Title
		}
		if req.Slug != nil && strings.TrimSpace(*req.Slug) != "" {
			base = *req.Slug
		}
		if room.Slug, err = s.uniqueRoomSlug(ctx, base, room.ID); err != nil {
			return nil, err
		}
	}
	if req.Title != nil {
		room.Title = *req.Title
	}
	if req.Intro != nil {
		room.Intro = req.Intro
	}
	if req.Sort != nil {
		room.Sort = *req.Sort
	}
	if actor.ID > 0 {
		room.UpdatedByID = &actor.ID
	}
	if err := s.museum.UpdateRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// DeleteRoom 展厅内的展品一并删除
func (s *MuseumService) DeleteRoom(ctx context.Context, id int64) error {
	room, err := s.museum.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrRoomNotFound
	}
	return s.museum.DeleteRoom(ctx, id)
}

// ==================== 展品 ====================

// ListArtifacts includeDrafts 为 false 时隐藏未发布画作
func (s *MuseumService) ListArtifacts(ctx context.Context, req *dto.ArtifactListReq, includeDrafts bool) ([]model.MuseumArtifact, error) {
	artifacts, err := s.museum.ListArtifacts(ctx, repository.ArtifactFilter{
		RoomID:        req.RoomID,
		PaintingID:    req.PaintingID,
		PublishedOnly: !includeDrafts,
		Now:           s.now(),
	})
	if err != nil {
		return nil, err
	}
	if artifacts == nil {
		artifacts = []model.MuseumArtifact{}
	}
	return artifacts, nil
}

func (s *MuseumService) CreateArtifact(ctx context.Context, req *dto.CreateArtifactReq) (*model.MuseumArtifact, error) {
	if err := s.ensureRelations(ctx, req.RoomID, req.PaintingID, 0); err != nil {
		return nil, err
	}
	hotspot, err := normalizeHotspot(req.Hotspot)
	if err != nil {
		return nil, err
	}

	artifact := &model.MuseumArtifact{
		RoomID:     req.RoomID,
		PaintingID: req.PaintingID,
		Sort:       req.Sort,
		Hotspot:    hotspot,
	}
	if err := s.museum.CreateArtifact(ctx, artifact); err != nil {
		return nil, err
	}
	return s.reloadArtifact(ctx, artifact.ID)
}

// UpdateArtifact 换展厅或换画作时重新校验唯一性
func (s *MuseumService) UpdateArtifact(ctx context.Context, id int64, req *dto.UpdateArtifactReq) (*model.MuseumArtifact, error) {
	artifact, err := s.museum.GetArtifact(ctx, id)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, ErrArtifactNotFound
	}

	if req.RoomID != nil || req.PaintingID != nil {
		roomID, paintingID := artifact.RoomID, artifact.PaintingID
		if req.RoomID != nil {
			roomID = *req.RoomID
		}
		if req.PaintingID != nil {
			paintingID = *req.PaintingID
		}
		if err := s.ensureRelations(ctx, roomID, paintingID, artifact.ID); err != nil {
			return nil, err
		}
		artifact.RoomID, artifact.PaintingID = roomID, paintingID
	}
	if req.Sort != nil {
		artifact.Sort = *req.Sort
	}
	if req.Hotspot != nil {
		if artifact.Hotspot, err = normalizeHotspot(req.Hotspot); err != nil {
			return nil, err
		}
	}

	artifact.Painting = nil
	if err := s.museum.UpdateArtifact(ctx, artifact); err != nil {
		return nil, err
	}
	return s.reloadArtifact(ctx, artifact.ID)
}

func (s *MuseumService) DeleteArtifact(ctx context.Context, id int64) error {
	artifact, err := s.museum.GetArtifact(ctx, id)
	if err != nil {
		return err
	}
	if artifact == nil {
		return ErrArtifactNotFound
	}
	return s.museum.DeleteArtifact(ctx, id)
}

// ==================== 内部方法 ====================

func (s *MuseumService) ensureRelations(ctx context.Context, roomID, paintingID, excludeID int64) error {
	room, err := s.museum.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return ErrInvalidRoom
	}
	painting, err := s.paintings.GetByID(ctx, paintingID)
	if err != nil {
		return err
	}
	if painting == nil {
		return ErrInvalidPainting
	}

	existing, err := s.museum.FindArtifact(ctx, roomID, paintingID)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != excludeID {
		return ErrArtifactExists
	}
	return nil
}

func (s *MuseumService) reloadArtifact(ctx context.Context, id int64) (*model.MuseumArtifact, error) {
	artifact, err := s.museum.GetArtifact(ctx, id)
	if err != nil {
		return nil, err
	}
	if artifact == nil {
		return nil, ErrArtifactNotFound
	}
	return artifact, nil
}

func (s *MuseumService) uniqueRoomSlug(ctx context.Context, base string, excludeID int64) (string, error) {
	slug := utils.Slugify(base)
	if slug == "" {
		slug = roomSlugFallback
	}
	existing, err := s.museum.RoomSlugsLike(ctx, slug, excludeID)
	if err != nil {
		return "", err
	}
	return utils.UniqueSlug(slug, existing, roomSlugFallback), nil
}

// normalizeHotspot 热点坐标只接受 JSON 对象；null 或缺省表示无热点
func normalizeHotspot(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, ErrInvalidHotspot
	}
	return datatypes.JSON(trimmed), nil
}
