package service

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"memshaheb_backend/internal/api/dto"
	"memshaheb_backend/internal/model"
	"memshaheb_backend/internal/repository"
	"memshaheb_backend/pkg/utils"
)

const (
	blogSlugFallback     = "post"
	categorySlugFallback = "category"
	excerptMaxRunes      = 240
)

// Actor 发起写操作的用户
type Actor struct {
	ID   int64
	Role model.UserRole
}

func (a Actor) isAuthor() bool {
	return a.Role == model.UserRoleAuthor
}

// ==================== BlogService 文章服务 ====================

// BlogService 杂志文章与分类
type BlogService struct {
	posts      repository.BlogRepository
	categories repository.BlogCategoryRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewBlogService 创建文章服务
func NewBlogService(posts repository.BlogRepository, categories repository.BlogCategoryRepository, logger *zap.Logger) *BlogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlogService{
		posts:      posts,
		categories: categories,
		logger:     logger.Named("blog"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create 新建文章
// 摘要为空时从正文生成；作者角色只能把自己设为作者
func (s *BlogService) Create(ctx context.Context, actor Actor, req *dto.CreateBlogReq) (*model.BlogPost, error) {
	base := req.Title
	if req.Slug != nil && strings.TrimSpace(*req.Slug) != "" {
		base = *req.Slug
	}
	slug, err := s.uniquePostSlug(ctx, base, 0)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	authorID := actor.ID
	if req.AuthorID != nil {
		if actor.isAuthor() && *req.AuthorID != actor.ID {
			return nil, ErrForbidden
		}
		authorID = *req.AuthorID
	}

	excerpt := ""
	if req.Excerpt != nil {
		excerpt = strings.TrimSpace(*req.Excerpt)
	}
	if excerpt == "" {
		excerpt = GenerateExcerpt(req.ContentMD)
	}

	post := &model.BlogPost{
		Title:           req.Title,
		Slug:            slug,
		Excerpt:         &excerpt,
		ContentMD:       req.ContentMD,
		CoverURL:        req.CoverURL,
		Tags:            model.StringArray(cleanTags(req.Tags)),
		CategoryID:      req.CategoryID,
		AuthorID:        &authorID,
		MetaTitle:       firstNonEmpty(req.MetaTitle, &req.Title),
		MetaDescription: firstNonEmpty(req.MetaDescription, &excerpt),
		CanonicalURL:    req.CanonicalURL,
		OGImageURL:      firstNonEmpty(req.OGImageURL, req.CoverURL),
	}
	if req.PublishedAt != nil {
		t := req.PublishedAt.UTC()
		post.PublishedAt = &t
	}
	if actor.ID > 0 {
		post.CreatedByID = &actor.ID
		post.UpdatedByID = &actor.ID
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.reload(ctx, post.ID)
}

// Get 按 ID 或 slug 查找，规则同画作
func (s *BlogService) Get(ctx context.Context, identifier string, includeDrafts bool) (*model.BlogPost, error) {
	var (
		post *model.BlogPost
		err  error
	)
	if id, convErr := strconv.ParseInt(identifier, 10, 64); convErr == nil && id > 0 {
		if post, err = s.posts.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	if post == nil || (!includeDrafts && !post.IsPublished(s.now())) {
		if post, err = s.posts.GetBySlug(ctx, identifier); err != nil {
			return nil, err
		}
	}
	if post == nil || (!includeDrafts && !post.IsPublished(s.now())) {
		return nil, ErrBlogNotFound
	}
	return post, nil
}

// List 公开列表：仅已发布
func (s *BlogService) List(ctx context.Context, req *dto.BlogListReq) (*dto.BlogListResp, error) {
	return s.list(ctx, req, true)
}

// ListAdmin 后台列表：包含草稿
func (s *BlogService) ListAdmin(ctx context.Context, req *dto.BlogListReq) (*dto.BlogListResp, error) {
	return s.list(ctx, req, false)
}

// list 两种列表都按 ID 降序
func (s *BlogService) list(ctx context.Context, req *dto.BlogListReq, public bool) (*dto.BlogListResp, error) {
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

	filter := repository.BlogFilter{
		Query:         req.Query,
		Tags:          splitTags(req.Tags),
		Cursor:        cursor,
		Limit:         limit,
		PublishedOnly: public,
		Now:           s.now(),
	}
	if c := strings.TrimSpace(req.Category); c != "" {
		category, err := s.resolveCategory(ctx, c)
		if err != nil {
			return nil, err
		}
		filter.CategoryID = &category.ID
	}

	rows, err := s.posts.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.BlogListResp{Items: rows}
	if len(rows) > limit {
		resp.Items = rows[:limit]
		next := strconv.FormatInt(resp.Items[limit-1].ID, 10)
		resp.NextCursor = &next
	}
	if resp.Items == nil {
		resp.Items = []model.BlogPost{}
	}
	return resp, nil
}

// Update 部分更新，作者只能修改自己的文章
func (s *BlogService) Update(ctx context.Context, actor Actor, id int64, req *dto.UpdateBlogReq) (*model.BlogPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrBlogNotFound
	}
	if err := authorScope(actor, post); err != nil {
		return nil, err
	}

	if req.Title != nil || req.Slug != nil {
		base := post.Title
		if req.Title != nil {
			base = *req.Title
		}
		if req.Slug != nil && strings.TrimSpace(*req.Slug) != "" {
			base = *req.Slug
		}
		if post.Slug, err = s.uniquePostSlug(ctx, base, post.ID); err != nil {
			return nil, err
		}
	}
	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.ContentMD != nil {
		post.ContentMD = *req.ContentMD
	}
	if req.CoverURL != nil {
		post.CoverURL = req.CoverURL
	}
	if req.Tags != nil {
		post.Tags = model.StringArray(cleanTags(req.Tags))
	}
	if req.PublishedAt != nil {
		t := req.PublishedAt.UTC()
		post.PublishedAt = &t
	}
	if req.CategoryID != nil {
		if *req.CategoryID == 0 {
			post.CategoryID = nil
		} else {
			if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
				return nil, err
			}
			post.CategoryID = req.CategoryID
		}
		post.Category = nil
	}
	if req.AuthorID != nil {
		if actor.isAuthor() && *req.AuthorID != actor.ID {
			return nil, ErrForbidden
		}
		post.AuthorID = req.AuthorID
	}
	if req.MetaTitle != nil {
		post.MetaTitle = req.MetaTitle
	}
	if req.MetaDescription != nil {
		post.MetaDescription = req.MetaDescription
	}
	if req.CanonicalURL != nil {
		post.CanonicalURL = req.CanonicalURL
	}
	if req.OGImageURL != nil {
		post.OGImageURL = req.OGImageURL
	}

	// 显式传空摘要时重新生成；正文变化且原摘要为空时补上
	switch {
	case req.Excerpt != nil:
		excerpt := strings.TrimSpace(*req.Excerpt)
		if excerpt == "" {
			excerpt = GenerateExcerpt(post.ContentMD)
		}
		post.Excerpt = &excerpt
	case req.ContentMD != nil && (post.Excerpt == nil || *post.Excerpt == ""):
		excerpt := GenerateExcerpt(post.ContentMD)
		post.Excerpt = &excerpt
	}

	if actor.ID > 0 {
		post.UpdatedByID = &actor.ID
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.reload(ctx, post.ID)
}

// Delete 删除文章，作者只能删除自己的
func (s *BlogService) Delete(ctx context.Context, actor Actor, id int64) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrBlogNotFound
	}
	if err := authorScope(actor, post); err != nil {
		return err
	}
	return s.posts.Delete(ctx, id)
}

// ==================== 分类 ====================

// ListCategories 分类列表
func (s *BlogService) ListCategories(ctx context.Context, req *dto.BlogCategoryListReq) ([]model.BlogCategory, error) {
	categories, err := s.categories.List(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []model.BlogCategory{}
	}
	return categories, nil
}

// GetCategory 按 ID 或 slug
func (s *BlogService) GetCategory(ctx context.Context, identifier string) (*model.BlogCategory, error) {
	return s.resolveCategory(ctx, identifier)
}

// CreateCategory 新建分类
func (s *BlogService) CreateCategory(ctx context.Context, req *dto.CreateBlogCategoryReq) (*model.BlogCategory, error) {
	base := req.Name
	if req.Slug != nil && strings.TrimSpace(*req.Slug) != "" {
		base = *req.Slug
	}
	slug, err := s.uniqueCategorySlug(ctx, base, 0)
	if err != nil {
		return nil, err
	}
	category := &model.BlogCategory{Name: strings.TrimSpace(req.Name), Slug: slug, Description: req.Description}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory 修改分类
func (s *BlogService) UpdateCategory(ctx context.Context, id int64, req *dto.UpdateBlogCategoryReq) (*model.BlogCategory, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	if req.Name != nil || req.Slug != nil {
		base := category.Name
		if req.Name != nil {
			base = *req.Name
		}
		if req.Slug != nil && strings.TrimSpace(*req.Slug) != "" {
			base = *req.Slug
		}
		if category.Slug, err = s.uniqueCategorySlug(ctx, base, category.ID); err != nil {
			return nil, err
		}
	}
	if req.Name != nil {
		category.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory 删除分类，文章保留但不再归类
func (s *BlogService) DeleteCategory(ctx context.Context, id int64) error {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("分类已删除", zap.Int64("category_id", id), zap.String("slug", category.Slug))
	return nil
}

// ==================== 内部方法 ====================

func (s *BlogService) reload(ctx context.Context, id int64) (*model.BlogPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrBlogNotFound
	}
	return post, nil
}

// resolveCategory 纯数字按 ID，否则按 slug
func (s *BlogService) resolveCategory(ctx context.Context, identifier string) (*model.BlogCategory, error) {
	var (
		category *model.BlogCategory
		err      error
	)
	if id, convErr := strconv.ParseInt(identifier, 10, 64); convErr == nil {
		category, err = s.categories.GetByID(ctx, id)
	} else {
		category, err = s.categories.GetBySlug(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

func (s *BlogService) ensureCategory(ctx context.Context, id int64) error {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrInvalidCategory
	}
	return nil
}

func (s *BlogService) uniquePostSlug(ctx context.Context, base string, excludeID int64) (string, error) {
	slug := utils.Slugify(base)
	if slug == "" {
		slug = blogSlugFallback
	}
	existing, err := s.posts.SlugsLike(ctx, slug, excludeID)
	if err != nil {
		return "", err
	}
	return utils.UniqueSlug(slug, existing, blogSlugFallback), nil
}

func (s *BlogService) uniqueCategorySlug(ctx context.Context, base string, excludeID int64) (string, error) {
	slug := utils.Slugify(base)
	if slug == "" {
		slug = categorySlugFallback
	}
	existing, err := s.categories.SlugsLike(ctx, slug, excludeID)
	if err != nil {
		return "", err
	}
	return utils.UniqueSlug(slug, existing, categorySlugFallback), nil
}

// authorScope 作者只能操作归属自己的文章，无归属的文章不限制
func authorScope(actor Actor, post *model.BlogPost) error {
	if !actor.isAuthor() {
		return nil
	}
	if owner := post.OwnerID(); owner != 0 && owner != actor.ID {
		return ErrForbidden
	}
	return nil
}

var excerptStripper = strings.NewReplacer("#", "", "*", "", "_", "", "`", "", ">", "")

// GenerateExcerpt 去掉常见 markdown 标记后截取前 240 个字符
func GenerateExcerpt(content string) string {
	text := excerptStripper.Replace(strings.TrimSpace(content))
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= excerptMaxRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:excerptMaxRunes-1]), " ") + "…"
}

func firstNonEmpty(values ...*string) *string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return v
		}
	}
	return nil
}
