package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memshaheb_backend/internal/model"
	"memshaheb_backend/internal/repository"
	"memshaheb_backend/internal/service"
)

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

// ==================== 用户管理 ====================

func TestUserController_AdminCRUDAndPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	userSvc := service.NewUserService(repository.NewUserRepository(env.db), env.tokens, nil)
	_, err := userSvc.EnsureAdmin(t.Context(), "admin@example.com", "s3cret", "Admin")
	require.NoError(t, err)
	var admin model.User
	require.NoError(t, env.db.Where("email = ?", "admin@example.com").First(&admin).Error)
	adminToken := env.tokenFor(t, admin.ID, model.UserRoleAdmin)

	body := map[string]interface{}{"email": "writer@example.com", "password": "long-pass-1", "role": "AUTHOR"}
	w := env.doJSON(t, http.MethodPost, "/api/users", adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var writer struct {
		ID       int64  `json:"id"`
		Role     string `json:"role"`
		IsActive bool   `json:"is_active"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &writer))
	assert.Equal(t, "AUTHOR", writer.Role)
	assert.True(t, writer.IsActive)

	// 重复邮箱（大小写不敏感）与过短密码
	body["email"] = "Writer@Example.com"
	assert.Equal(t, http.StatusBadRequest, env.doJSON(t, http.MethodPost, "/api/users", adminToken, body).Code)
	body["email"], body["password"] = "other@example.com", "short"
	assert.Equal(t, http.StatusBadRequest, env.doJSON(t, http.MethodPost, "/api/users", adminToken, body).Code)

	w = env.do(t, http.MethodGet, "/api/users?role=AUTHOR", env.token(t, model.UserRoleEditor), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "writer@example.com")
	assert.NotContains(t, w.Body.String(), "admin@example.com")

	// 个人资料与密码
	writerToken := env.tokenFor(t, writer.ID, model.UserRoleAuthor)
	w = env.doJSON(t, http.MethodPut, "/api/users/me", writerToken, map[string]string{"display_name": "Writer"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"display_name":"Writer"`)

	w = env.doJSON(t, http.MethodPut, "/api/users/me", writerToken, map[string]string{"email": "admin@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	pw := map[string]string{"old_password": "wrong", "new_password": "another-pass"}
	assert.Equal(t, http.StatusBadRequest, env.doJSON(t, http.MethodPost, "/api/users/me/password", writerToken, pw).Code)
	pw["old_password"] = "long-pass-1"
	assert.Equal(t, http.StatusNoContent, env.doJSON(t, http.MethodPost, "/api/users/me/password", writerToken, pw).Code)

	w = env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "writer@example.com", "password": "another-pass"})
	assert.Equal(t, http.StatusOK, w.Code)

	// 管理员停用后无法登录
	w = env.doJSON(t, http.MethodPut, idPath("/api/users", writer.ID), adminToken, map[string]bool{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "writer@example.com", "password": "another-pass"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, http.StatusNotFound, env.doJSON(t, http.MethodPut, "/api/users/9999", adminToken, map[string]string{}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodDelete, idPath("/api/users", admin.ID), adminToken, nil, nil).Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, idPath("/api/users", writer.ID), adminToken, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, idPath("/api/users", writer.ID), adminToken, nil, nil).Code)
}

// ==================== 文章 ====================

func TestBlogController_AuthorScopeAndCategories(t *testing.T) {
	env := newTestEnv(t, nil)
	editor := env.token(t, model.UserRoleEditor)
	author := env.tokenFor(t, 10, model.UserRoleAuthor)
	other := env.tokenFor(t, 11, model.UserRoleAuthor)

	w := env.doJSON(t, http.MethodPost, "/api/blog-categories", editor, map[string]string{"name": "Essays"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var category model.BlogCategory
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &category))
	assert.Equal(t, "Essays", category.Slug)

	w = env.doJSON(t, http.MethodPost, "/api/blogs", author, map[string]interface{}{
		"title":       "First Light",
		"content_md":  "# Heading\n\nSome *bold* text",
		"category_id": category.ID,
		"tags":        []string{"dawn"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var post model.BlogPost
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &post))
	assert.Equal(t, "First-Light", post.Slug)
	require.NotNil(t, post.Excerpt)
	assert.Equal(t, "Heading Some bold text", *post.Excerpt)
	require.NotNil(t, post.AuthorID)
	assert.Equal(t, int64(10), *post.AuthorID)
	require.NotNil(t, post.MetaTitle)
	assert.Equal(t, "First Light", *post.MetaTitle)
	require.NotNil(t, post.Category)
	assert.Equal(t, "Essays", post.Category.Name)
	assert.Nil(t, post.PublishedAt)

	// 分类不存在与冒名作者
	w = env.doJSON(t, http.MethodPost, "/api/blogs", author, map[string]interface{}{"title": "X", "content_md": "x", "category_id": 999})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.doJSON(t, http.MethodPost, "/api/blogs", author, map[string]interface{}{"title": "X", "content_md": "x", "author_id": 11})
	assert.Equal(t, http.StatusForbidden, w.Code)

	postPath := idPath("/api/blogs", post.ID)
	slugPath := "/api/blogs/First-Light"

	// 草稿：公开不可见，作者可见
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, slugPath, "", nil, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, slugPath, other, nil, nil).Code)

	published := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	assert.Equal(t, http.StatusForbidden, env.doJSON(t, http.MethodPatch, postPath, other, map[string]string{"published_at": published}).Code)
	w = env.doJSON(t, http.MethodPatch, postPath, author, map[string]string{"published_at": published})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, slugPath, "", nil, nil).Code)

	w = env.do(t, http.MethodGet, "/api/blogs?category=Essays", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "First Light")
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/blogs?category=missing", "", nil, nil).Code)

	// 删除分类后文章仍在，分类置空
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, idPath("/api/blog-categories", category.ID), editor, nil, nil).Code)
	w = env.do(t, http.MethodGet, postPath, "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reloaded model.BlogPost
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &reloaded))
	assert.Nil(t, reloaded.CategoryID)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, postPath, other, nil, nil).Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, postPath, editor, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, postPath, editor, nil, nil).Code)
}

// ==================== 美术馆 ====================

func TestMuseumController_RoomsAndArtifacts(t *testing.T) {
	env := newTestEnv(t, nil)
	editor := env.token(t, model.UserRoleEditor)
	shown := env.seedPainting(t, "Shown", true)
	hidden := env.seedPainting(t, "Hidden", false)

	w := env.doJSON(t, http.MethodPost, "/api/museum/rooms", editor, map[string]string{"title": "East Wing"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var room model.MuseumRoom
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &room))
	assert.Equal(t, "East-Wing", room.Slug)

	w = env.doJSON(t, http.MethodPost, "/api/museum/artifacts", editor, map[string]interface{}{
		"room_id": room.ID, "painting_id": shown.ID, "sort": 2, "hotspot": map[string]float64{"x": 0.5},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"title":"Shown"`)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"重复", map[string]interface{}{"room_id": room.ID, "painting_id": shown.ID}},
		{"展厅不存在", map[string]interface{}{"room_id": 999, "painting_id": shown.ID}},
		{"画作不存在", map[string]interface{}{"room_id": room.ID, "painting_id": 999}},
		{"热点不是对象", map[string]interface{}{"room_id": room.ID, "painting_id": hidden.ID, "hotspot": []int{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.doJSON(t, http.MethodPost, "/api/museum/artifacts", editor, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	w = env.doJSON(t, http.MethodPost, "/api/museum/artifacts", editor, map[string]interface{}{
		"room_id": room.ID, "painting_id": hidden.ID, "sort": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	list := func(token string) []model.MuseumArtifact {
		w := env.do(t, http.MethodGet, "/api/museum/artifacts?room_id="+strconv.FormatInt(room.ID, 10), token, nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var items []model.MuseumArtifact
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &items))
		return items
	}
	public := list("")
	require.Len(t, public, 1)
	assert.Equal(t, shown.ID, public[0].PaintingID)
	all := list(editor)
	require.Len(t, all, 2)
	assert.Equal(t, hidden.ID, all[0].PaintingID)

	// 删除画作时移出展厅
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, idPath("/api/paintings", shown.ID), editor, nil, nil).Code)
	assert.Len(t, list(editor), 1)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, idPath("/api/museum/rooms", room.ID), editor, nil, nil).Code)
	var count int64
	require.NoError(t, env.db.Model(&model.MuseumArtifact{}).Count(&count).Error)
	assert.Zero(t, count)
}

// ==================== 首页与站点设置 ====================

func TestSiteController_SectionsAndSettings(t *testing.T) {
	env := newTestEnv(t, nil)
	editor := env.token(t, model.UserRoleEditor)

	bad := []map[string]interface{}{
		{"kind": "CATEGORY"},
		{"kind": "CATEGORY", "category_id": 42},
		{"kind": "AD", "target_url": "ftp://example.com/x"},
		{"kind": "BANNER"},
	}
	for _, body := range bad {
		w := env.doJSON(t, http.MethodPost, "/api/home/sections", editor, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v", body)
	}

	w := env.doJSON(t, http.MethodPost, "/api/home/sections", editor, map[string]interface{}{
		"kind": "AD", "title": "Spring", "target_url": "https://shop.example/spring",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var spring model.HomeSection
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &spring))
	assert.True(t, spring.Enabled)
	assert.Equal(t, 1, spring.SortOrder)

	w = env.doJSON(t, http.MethodPost, "/api/home/sections", editor, map[string]interface{}{
		"kind": "AD", "title": "Hidden", "enabled": false, "sort_order": 0,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/home/sections", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Spring")
	assert.NotContains(t, w.Body.String(), "Hidden")

	w = env.do(t, http.MethodGet, "/api/home/sections/admin", editor, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var all []model.HomeSection
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &all))
	require.Len(t, all, 2)
	assert.Equal(t, "Hidden", *all[0].Title)

	w = env.doJSON(t, http.MethodPatch, idPath("/api/home/sections", spring.ID), editor, map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/home/sections", "", nil, nil)
	assert.JSONEq(t, `[]`, string(decode(t, w).Data))

	// 站点设置
	w = env.do(t, http.MethodGet, "/api/site/settings", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"nav_links":[]`)

	assert.Equal(t, http.StatusBadRequest, env.doJSON(t, http.MethodPatch, "/api/site/settings", editor, map[string]string{}).Code)
	assert.Equal(t, http.StatusBadRequest,
		env.doJSON(t, http.MethodPatch, "/api/site/settings", editor, map[string]interface{}{"nav_links": map[string]int{"a": 1}}).Code)

	w = env.doJSON(t, http.MethodPatch, "/api/site/settings", editor, map[string]interface{}{
		"site_title": "Memshaheb",
		"nav_links":  []map[string]string{{"label": "Home", "href": "/"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/site/settings", "", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"site_title":"Memshaheb"`)
	assert.Contains(t, w.Body.String(), `"href":"/"`)
}
