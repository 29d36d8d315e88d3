package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"memshaheb_backend/internal/api/dto"
	"memshaheb_backend/internal/model"
	"memshaheb_backend/internal/repository"
)

// AllowedMediaExtensions 允许上传的扩展名
var AllowedMediaExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".svg": {},
}

// UploadInput 上传参数
type UploadInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Alt         *string
	Meta        string // 可选 JSON 对象
	OwnerID     int64
}

// MediaService 媒体上传与管理
type MediaService struct {
	provider StorageProvider
	repo     repository.MediaRepository
	maxBytes int64
	logger   *zap.Logger
}

// NewMediaService 创建媒体服务
func NewMediaService(provider StorageProvider, repo repository.MediaRepository, maxBytes int64, logger *zap.Logger) *MediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &MediaService{provider: provider, repo: repo, maxBytes: maxBytes, logger: logger.Named("media")}
}

// Upload 校验 -> 存储 -> 落库
func (s *MediaService) Upload(ctx context.Context, in UploadInput) (*dto.MediaUploadResp, error) {
	// 1. 扩展名
	ext := strings.ToLower(filepath.Ext(in.Filename))
	if _, ok := AllowedMediaExtensions[ext]; !ok {
		return nil, fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedMediaType, ext, allowedExtensionList())
	}

	// 2. 附加元数据
	meta := map[string]interface{}{}
	if strings.TrimSpace(in.Meta) != "" {
		if err := json.Unmarshal([]byte(in.Meta), &meta); err != nil || meta == nil {
			return nil, ErrInvalidMediaMeta
		}
	}

	// 3. 大小
	data, err := io.ReadAll(io.LimitReader(in.Body, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w (max %d MB)", ErrMediaTooLarge, s.maxBytes>>20)
	}

	// 4. 存储
	obj, err := s.provider.Upload(ctx, data, in.Filename, in.ContentType)
	if err != nil {
		return nil, err
	}

	mime := in.ContentType
	if mime == "" {
		mime = "application/octet-stream"
	}
	meta["original_filename"] = in.Filename
	meta["stored_filename"] = obj.Key
	meta["file_size"] = len(data)
	meta["mime_type"] = mime
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	media := &model.MediaFile{
		Key:  obj.Key,
		URL:  obj.URL,
		Alt:  in.Alt,
		Meta: datatypes.JSON(rawMeta),
	}
	if in.OwnerID > 0 {
		media.OwnerID = &in.OwnerID
	}
	if err := s.repo.Create(ctx, media); err != nil {
		if derr := s.provider.Delete(ctx, obj.Key); derr != nil {
			s.logger.Warn("回滚已上传文件失败", zap.String("key", obj.Key), zap.Error(derr))
		}
		return nil, err
	}

	s.logger.Info("媒体上传成功", zap.Int64("media_id", media.ID), zap.String("key", obj.Key), zap.Int("size", len(data)))
	return &dto.MediaUploadResp{MediaFile: *media, SignedURL: obj.SignedURL}, nil
}

// List 最近上传的媒体
func (s *MediaService) List(ctx context.Context, limit int) ([]model.MediaFile, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}

// Delete 删除记录与存储文件；文件删除失败只记日志
func (s *MediaService) Delete(ctx context.Context, id int64) error {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if media == nil {
		return ErrMediaNotFound
	}
	if media.Key != "" {
		if err := s.provider.Delete(ctx, media.Key); err != nil {
			s.logger.Warn("删除存储文件失败", zap.Int64("media_id", id), zap.String("key", media.Key), zap.Error(err))
		}
	}
	return s.repo.Delete(ctx, id)
}

func allowedExtensionList() string {
	exts := make([]string, 0, len(AllowedMediaExtensions))
	for e := range AllowedMediaExtensions {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}
