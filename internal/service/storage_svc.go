package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ==================== 接口定义 ====================

// StorageProvider 存储提供者接口
type StorageProvider interface {
	// Upload 保存文件，key 由文件名清洗得到
	Upload(ctx context.Context, data []byte, filename, contentType string) (*StoredObject, error)

	// Delete 按 key 删除，不存在视为成功
	Delete(ctx context.Context, key string) error
}

// StoredObject 存储结果
type StoredObject struct {
	Key       string
	URL       string
	SignedURL string
}

// ==================== 配置 ====================

// StorageConfig 存储配置
type StorageConfig struct {
	Provider      string // "local" | "s3"
	LocalRoot     string
	BaseURL       string // 公开访问前缀
	Bucket        string
	Region        string
	Endpoint      string // 自定义端点（MinIO 等 S3 兼容服务）
	AccessKey     string
	SecretKey     string
	SignedExpires time.Duration
}

// ==================== 工厂方法 ====================

// NewStorageProvider 按配置创建存储
func NewStorageProvider(ctx context.Context, cfg *StorageConfig) (StorageProvider, error) {
	switch cfg.Provider {
	case "s3":
		return NewS3Storage(ctx, cfg)
	case "local", "":
		return NewLocalStorage(cfg)
	default:
		return nil, fmt.Errorf("不支持的存储提供者: %s", cfg.Provider)
	}
}

// ==================== 本地存储 ====================

// LocalStorage 写入本地目录，由 /media 静态路由对外提供
type LocalStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage 创建本地存储，目录不存在时自动创建
func NewLocalStorage(cfg *StorageConfig) (*LocalStorage, error) {
	root := cfg.LocalRoot
	if root == "" {
		root = "media"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("创建媒体目录失败: %w", err)
	}
	return &LocalStorage{root: root, baseURL: strings.TrimRight(cfg.BaseURL, "/")}, nil
}

// Root 本地根目录
func (s *LocalStorage) Root() string {
	return s.root
}

// Upload 重名时依次尝试 name-1.ext、name-2.ext ...
func (s *LocalStorage) Upload(ctx context.Context, data []byte, filename, contentType string) (*StoredObject, error) {
	key := objectKey(filename)
	ext := filepath.Ext(key)
	stem := strings.TrimSuffix(key, ext)

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidate := key
		if i > 0 {
			candidate = stem + "-" + strconv.Itoa(i) + ext
		}

		f, err := os.OpenFile(filepath.Join(s.root, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("创建文件失败: %w", err)
		}

		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(f.Name())
			return nil, fmt.Errorf("写入文件失败: %w", errors.Join(werr, cerr))
		}

		url := s.baseURL + "/" + candidate
		return &StoredObject{Key: candidate, URL: url, SignedURL: url}, nil
	}
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if key == "" || key != path.Base(key) {
		return fmt.Errorf("非法的文件 key: %q", key)
	}
	err := os.Remove(filepath.Join(s.root, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ==================== S3 实现 ====================

// S3Storage S3 及兼容服务
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	baseURL string
	expires time.Duration
}

// NewS3Storage 凭证缺省时走默认凭证链
func NewS3Storage(ctx context.Context, cfg *StorageConfig) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("MEDIA_S3_BUCKET must be configured for S3 storage backend")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	expires := cfg.SignedExpires
	if expires <= 0 {
		expires = time.Hour
	}
	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		expires: expires,
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, data []byte, filename, contentType string) (*StoredObject, error) {
	key := objectKey(filename)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("上传S3失败: %w", err)
	}

	signed, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expires))
	if err != nil {
		return nil, fmt.Errorf("生成签名URL失败: %w", err)
	}

	url := key
	if s.baseURL != "" {
		url = s.baseURL + "/" + key
	}
	return &StoredObject{Key: key, URL: url, SignedURL: signed.URL}, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// ==================== 工具函数 ====================

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename 去掉目录部分，非法字符替换为下划线
func SanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if strings.Trim(name, ".") == "" {
		return ""
	}
	return name
}

// objectKey 清洗后为空时用随机名，保留扩展名
func objectKey(filename string) string {
	if key := SanitizeFilename(filename); key != "" {
		return key
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if SanitizeFilename(ext) != ext {
		ext = ""
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}
