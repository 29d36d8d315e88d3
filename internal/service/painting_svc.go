package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"memshaheb_backend/internal/api/dto"
	"memshaheb_backend/internal/model"
	"memshaheb_backend/internal/repository"
	"memshaheb_backend/pkg/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
	slugFallback    = "painting"
)

// ==================== PaintingService 画作服务 ====================

// PaintingService 画作目录
type PaintingService struct {
	uow    *repository.CommerceUnitOfWork
	logger *zap.Logger
	now    func() time.Time
}

// NewPaintingService 创建画作服务
func NewPaintingService(uow *repository.CommerceUnitOfWork, logger *zap.Logger) *PaintingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaintingService{
		uow:    uow,
		logger: logger.Named("painting"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create 创建画作，slug 自动去重，未指定发布时间时立即发布
func (s *PaintingService) Create(ctx context.Context, req *dto.CreatePaintingReq) (*model.Painting, error) {
	base := req.Title
	if req.Slug != nil && strings.TrimSpace(*req.Slug) != "" {
		base = *req.Slug
	}
	slug, err := s.uniqueSlug(ctx, s.uow.Paintings, base, 0)
	if err != nil {
		return nil, err
	}

	publishedAt := s.now()
	if req.PublishedAt != nil {
		publishedAt = req.PublishedAt.UTC()
	}

	painting := &model.Painting{
		Title:           req.Title,
		Slug:            slug,
		Description:     req.Description,
		Year:            req.Year,
		Medium:          req.Medium,
		Dimensions:      req.Dimensions,
		ImageURL:        req.ImageURL,
		Tags:            model.StringArray(cleanTags(req.Tags)),
		RemoteProductID: req.WCProductID,
		IsFeatured:      req.IsFeatured,
		PublishedAt:     &publishedAt,
	}
	if err := s.uow.Paintings.Create(ctx, painting); err != nil {
		return nil, err
	}
	return painting, nil
}

// Get 按 ID 或 slug 查找；纯数字先按 ID 查，找不到再按 slug
// includeDrafts 为 false 时只返回已发布的画作
func (s *PaintingService) Get(ctx context.Context, identifier string, includeDrafts bool) (*model.Painting, error) {
	var (
		painting *model.Painting
		err      error
	)
	if id, convErr := strconv.ParseInt(identifier, 10, 64); convErr == nil && id > 0 {
		if painting, err = s.uow.Paintings.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	if painting == nil || (!includeDrafts && !painting.IsPublished(s.now())) {
		if painting, err = s.uow.Paintings.GetBySlug(ctx, identifier); err != nil {
			return nil, err
		}
	}
	if painting == nil || (!includeDrafts && !painting.IsPublished(s.now())) {
		return nil, ErrPaintingNotFound
	}
	return painting, nil
}

// List 公开列表：仅已发布，按 ID 升序
func (s *PaintingService) List(ctx context.Context, req *dto.PaintingListReq) (*dto.PaintingListResp, error) {
	return s.list(ctx, req, true)
}

// ListAdmin 后台列表：包含草稿，按 ID 降序
func (s *PaintingService) ListAdmin(ctx context.Context, req *dto.PaintingListReq) (*dto.PaintingListResp, error) {
	return s.list(ctx, req, false)
}

func (s *PaintingService) list(ctx context.Context, req *dto.PaintingListReq, public bool) (*dto.PaintingListResp, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var cursor int64
	if c := strings.TrimSpace(req.Cursor); c != "" {
		v, err := strconv.ParseInt(c, 10, 64)
		if err != nil || v < 0 {
			return nil, ErrInvalidCursor
		}
		cursor = v
	}

	rows, err := s.uow.Paintings.List(ctx, repository.PaintingFilter{
		Query:         req.Query,
		Year:          req.Year,
		Medium:        req.Medium,
		Tags:          splitTags(req.Tags),
		Cursor:        cursor,
		Limit:         limit,
		PublishedOnly: public,
		Now:           s.now(),
		Descending:    !public,
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.PaintingListResp{Items: rows}
	if len(rows) > limit {
		resp.Items = rows[:limit]
		next := strconv.FormatInt(resp.Items[limit-1].ID, 10)
		resp.NextCursor = &next
	}
	if resp.Items == nil {
		resp.Items = []model.Painting{}
	}
	return resp, nil
}

// Update 部分更新；标题或 slug 变化时重新生成唯一 slug
func (s *PaintingService) Update(ctx context.Context, identifier string, req *dto.UpdatePaintingReq) (*model.Painting, error) {
	painting, err := s.Get(ctx, identifier, true)
	if err != nil {
		return nil, err
	}

	if req.Title != nil || req.Slug != nil {
		base := painting.Title
		if req.Title != nil {
			base = *req.Title
		}
		if req.Slug != nil && strings.TrimSpace(*req.Slug) != "" {
			base = *req.Slug
		}
		if painting.Slug, err = s.uniqueSlug(ctx, s.uow.Paintings, base, painting.ID); err != nil {
			return nil, err
		}
	}

	if req.Title != nil {
		painting.Title = *req.Title
	}
	if req.Description != nil {
		painting.Description = req.Description
	}
	if req.Year != nil {
		painting.Year = req.Year
	}
	if req.Medium != nil {
		painting.Medium = req.Medium
	}
	if req.Dimensions != nil {
		painting.Dimensions = req.Dimensions
	}
	if req.ImageURL != nil {
		painting.ImageURL = req.ImageURL
	}
	if req.Tags != nil {
		painting.Tags = model.StringArray(cleanTags(req.Tags))
	}
	if req.WCProductID != nil {
		painting.RemoteProductID = req.WCProductID
	}
	if req.IsFeatured != nil {
		painting.IsFeatured = *req.IsFeatured
	}
	if req.PublishedAt != nil {
		t := req.PublishedAt.UTC()
		painting.PublishedAt = &t
	}

	err = s.uow.Transaction(ctx, func(tx *repository.CommerceUnitOfWork) error {
		if err := tx.Paintings.Update(ctx, painting); err != nil {
			return err
		}
		_, err := tx.Links.MarkLocalChanged(ctx, model.ProductKindPainting, painting.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return painting, nil
}

// Delete 删除画作，解除商品链接并移出展厅，同一事务
func (s *PaintingService) Delete(ctx context.Context, identifier string) error {
	painting, err := s.Get(ctx, identifier, true)
	if err != nil {
		return err
	}

	return s.uow.Transaction(ctx, func(tx *repository.CommerceUnitOfWork) error {
		link, err := tx.Links.UnlinkLocal(ctx, model.ProductKindPainting, painting.ID)
		if err != nil {
			return err
		}
		if link != nil {
			s.logger.Info("画作删除，商品链接已解除",
				zap.Int64("painting_id", painting.ID),
				zap.Int64("link_id", link.ID),
			)
		}
		if n, err := tx.Artifacts.DeleteArtifactsByPainting(ctx, painting.ID); err != nil {
			return err
		} else if n > 0 {
			s.logger.Info("画作删除，已移出展厅", zap.Int64("painting_id", painting.ID), zap.Int64("artifacts", n))
		}
		return tx.Paintings.Delete(ctx, painting.ID)
	})
}

func (s *PaintingService) uniqueSlug(ctx context.Context, repo repository.PaintingRepository, base string, excludeID int64) (string, error) {
	slug := utils.Slugify(base)
	if slug == "" {
		slug = slugFallback
	}
	existing, err := repo.SlugsLike(ctx, slug, excludeID)
	if err != nil {
		return "", err
	}
	return utils.UniqueSlug(slug, existing, slugFallback), nil
}

// splitTags 支持 ?tags=a,b 与 ?tags=a&tags=b 两种写法
func splitTags(raw []string) []string {
	var out []string
	for _, r := range raw {
		out = append(out, cleanTags(strings.Split(r, ","))...)
	}
	return out
}

func cleanTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
