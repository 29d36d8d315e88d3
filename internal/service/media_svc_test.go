package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memshaheb_backend/internal/repository"
)

// ==================== 文件名 ====================

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.jpg", "photo.jpg"},
		{"my photo (1).png", "my_photo_1_.png"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\pic.gif`, "pic.gif"},
		{"ছবি.webp", "_.webp"},
		{"..", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestObjectKey_FallsBackToRandomName(t *testing.T) {
	key := objectKey("..")
	assert.Len(t, key, 32)

	assert.Equal(t, "a.png", objectKey("a.png"))
}

// ==================== 本地存储 ====================

func newLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(&StorageConfig{LocalRoot: t.TempDir(), BaseURL: "/media/"})
	require.NoError(t, err)
	return s
}

func TestLocalStorage_UploadAvoidsCollisions(t *testing.T) {
	s := newLocalStorage(t)
	ctx := context.Background()

	first, err := s.Upload(ctx, []byte("one"), "art.png", "image/png")
	require.NoError(t, err)
	second, err := s.Upload(ctx, []byte("two"), "art.png", "image/png")
	require.NoError(t, err)
	third, err := s.Upload(ctx, []byte("three"), "art.png", "image/png")
	require.NoError(t, err)

	assert.Equal(t, "art.png", first.Key)
	assert.Equal(t, "art-1.png", second.Key)
	assert.Equal(t, "art-2.png", third.Key)
	assert.Equal(t, "/media/art-1.png", second.URL)
	assert.Equal(t, second.URL, second.SignedURL)

	data, err := os.ReadFile(filepath.Join(s.Root(), "art-1.png"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestLocalStorage_Delete(t *testing.T) {
	s := newLocalStorage(t)
	ctx := context.Background()

	obj, err := s.Upload(ctx, []byte("x"), "gone.jpg", "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, obj.Key))
	_, err = os.Stat(filepath.Join(s.Root(), obj.Key))
	assert.True(t, os.IsNotExist(err))

	// 重复删除不报错
	assert.NoError(t, s.Delete(ctx, obj.Key))
	assert.Error(t, s.Delete(ctx, "../escape.jpg"))
}

// ==================== S3 存储 ====================

func TestS3Storage_UploadUsesPathStyleAndPresigns(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewS3Storage(context.Background(), &StorageConfig{
		Provider:      "s3",
		Bucket:        "art",
		Region:        "us-east-1",
		Endpoint:      srv.URL,
		AccessKey:     "AKIDEXAMPLE",
		SecretKey:     "secret",
		BaseURL:       "https://cdn.example.com/",
		SignedExpires: 10 * time.Minute,
	})
	require.NoError(t, err)

	obj, err := s.Upload(context.Background(), []byte("pixels"), "sky.png", "image/png")
	require.NoError(t, err)

	assert.Equal(t, "sky.png", obj.Key)
	assert.Equal(t, "https://cdn.example.com/sky.png", obj.URL)
	assert.True(t, strings.HasPrefix(obj.SignedURL, srv.URL+"/art/sky.png?"))
	assert.Contains(t, obj.SignedURL, "X-Amz-Expires=600")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"PUT /art/sky.png"}, requests)
}

func TestNewStorageProvider_RejectsUnknownBackend(t *testing.T) {
	_, err := NewStorageProvider(context.Background(), &StorageConfig{Provider: "ftp"})
	assert.Error(t, err)

	_, err = NewStorageProvider(context.Background(), &StorageConfig{Provider: "s3"})
	assert.Error(t, err)
}

// ==================== MediaService ====================

func newMediaSvc(t *testing.T) (*MediaService, *LocalStorage) {
	t.Helper()
	store := newLocalStorage(t)
	repo := repository.NewMediaRepository(setupServiceTestDB(t))
	return NewMediaService(store, repo, 1024, nil), store
}

func TestMediaService_UploadStoresFileAndMeta(t *testing.T) {
	svc, store := newMediaSvc(t)
	alt := "A quiet river"

	resp, err := svc.Upload(context.Background(), UploadInput{
		Filename:    "river.PNG",
		ContentType: "image/png",
		Body:        bytes.NewReader([]byte("png-bytes")),
		Alt:         &alt,
		Meta:        `{"credit":"Rumi"}`,
		OwnerID:     7,
	})
	require.NoError(t, err)

	assert.Equal(t, "river.PNG", resp.Key)
	assert.Equal(t, "/media/river.PNG", resp.URL)
	assert.Equal(t, resp.URL, resp.SignedURL)
	assert.Equal(t, "A quiet river", *resp.Alt)
	require.NotNil(t, resp.OwnerID)
	assert.Equal(t, int64(7), *resp.OwnerID)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Meta, &meta))
	assert.Equal(t, "Rumi", meta["credit"])
	assert.Equal(t, "river.PNG", meta["original_filename"])
	assert.Equal(t, "river.PNG", meta["stored_filename"])
	assert.Equal(t, float64(9), meta["file_size"])
	assert.Equal(t, "image/png", meta["mime_type"])

	_, err = os.Stat(filepath.Join(store.Root(), "river.PNG"))
	assert.NoError(t, err)
}

func TestMediaService_UploadValidation(t *testing.T) {
	svc, store := newMediaSvc(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, UploadInput{Filename: "script.exe", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
	assert.Contains(t, err.Error(), ".webp")

	_, err = svc.Upload(ctx, UploadInput{Filename: "a.jpg", Body: strings.NewReader("x"), Meta: "{broken"})
	assert.ErrorIs(t, err, ErrInvalidMediaMeta)

	_, err = svc.Upload(ctx, UploadInput{Filename: "a.jpg", Body: strings.NewReader("x"), Meta: "[1,2]"})
	assert.ErrorIs(t, err, ErrInvalidMediaMeta)

	_, err = svc.Upload(ctx, UploadInput{Filename: "big.jpg", Body: bytes.NewReader(make([]byte, 2048))})
	assert.ErrorIs(t, err, ErrMediaTooLarge)

	entries, err := os.ReadDir(store.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMediaService_ListAndDelete(t *testing.T) {
	svc, store := newMediaSvc(t)
	ctx := context.Background()

	first, err := svc.Upload(ctx, UploadInput{Filename: "a.jpg", Body: strings.NewReader("a")})
	require.NoError(t, err)
	second, err := svc.Upload(ctx, UploadInput{Filename: "b.jpg", Body: strings.NewReader("b")})
	require.NoError(t, err)

	items, err := svc.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)

	require.NoError(t, svc.Delete(ctx, first.ID))
	_, err = os.Stat(filepath.Join(store.Root(), "a.jpg"))
	assert.True(t, os.IsNotExist(err))

	items, err = svc.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.ErrorIs(t, svc.Delete(ctx, first.ID), ErrMediaNotFound)
}
