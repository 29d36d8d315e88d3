package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"memshaheb_backend/internal/model"
	"memshaheb_backend/internal/repository"
	"memshaheb_backend/pkg/woocommerce"
)

// ==================== 测试辅助 ====================

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

func seedPainting(t *testing.T, db *gorm.DB, title string) *model.Painting {
	t.Helper()
	published := time.Now().UTC().Add(-time.Hour)
	desc := "Oil on canvas"
	medium := "Oil"
	year := 2021
	p := &model.Painting{
		Title:       title,
		Slug:        title,
		Description: &desc,
		Medium:      &medium,
		Year:        &year,
		PublishedAt: &published,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// fakeStore 记录请求的商城桩
type fakeStore struct {
	mu       sync.Mutex
	requests []string
	bodies   []map[string]interface{}
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var obj map[string]interface{}
	_ = json.Unmarshal(body, &obj)

	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.bodies = append(f.bodies, obj)
	f.mu.Unlock()

	f.handler(w, r)
}

func (f *fakeStore) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func respondJSON(status int, body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func noSleep(context.Context, time.Duration) error { return nil }

type syncFixture struct {
	db    *gorm.DB
	store *fakeStore
	svc   *CommerceSyncService
}

const testWebhookSecret = "whsec-test"

func newSyncFixture(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *syncFixture {
	t.Helper()
	db := setupServiceTestDB(t)
	store := &fakeStore{handler: handler}
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)

	client := woocommerce.NewClient(woocommerce.Config{
		StoreURL:       srv.URL,
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
		MaxRetries:     3,
		RetryBackoff:   time.Millisecond,
	}, woocommerce.WithSleeper(noSleep))

	svc := NewCommerceSyncService(
		repository.NewCommerceUnitOfWork(db),
		client,
		woocommerce.NewVerifier(testWebhookSecret),
		nil,
	)
	return &syncFixture{db: db, store: store, svc: svc}
}

func reloadLink(t *testing.T, db *gorm.DB, id int64) *model.ProductLink {
	t.Helper()
	var link model.ProductLink
	require.NoError(t, db.First(&link, id).Error)
	return &link
}

func reloadPainting(t *testing.T, db *gorm.DB, id int64) *model.Painting {
	t.Helper()
	var p model.Painting
	require.NoError(t, db.First(&p, id).Error)
	return &p
}

// ==================== 出站推送 ====================

func TestSyncEntity_CreatesRemoteProduct(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusCreated, `{"id":501,"status":"publish"}`))
	p := seedPainting(t, f.db, "Sunset")

	link, err := f.svc.SyncEntity(context.Background(), model.ProductKindPainting, p.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"POST /wp-json/wc/v3/products"}, f.store.calls())
	assert.Equal(t, model.SyncStateSynced, link.SyncState)
	require.NotNil(t, link.RemoteProductID)
	assert.Equal(t, int64(501), *link.RemoteProductID)

	stored := reloadLink(t, f.db, link.ID)
	assert.Equal(t, model.SyncStateSynced, stored.SyncState)
	assert.Equal(t, "Synced painting", *stored.Notes)
	assert.NotNil(t, stored.LastSyncedAt)
	assert.NotEmpty(t, stored.LastPayload)

	painting := reloadPainting(t, f.db, p.ID)
	require.NotNil(t, painting.RemoteProductID)
	assert.Equal(t, int64(501), *painting.RemoteProductID)

	body := f.store.bodies[0]
	assert.Equal(t, "Sunset", body["name"])
	assert.Equal(t, "simple", body["type"])
	assert.Equal(t, "publish", body["status"])
}

func TestSyncEntity_SecondPushUpdatesExistingProduct(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusOK, `{"id":501}`))
	p := seedPainting(t, f.db, "Sunset")
	ctx := context.Background()

	_, err := f.svc.SyncEntity(ctx, model.ProductKindPainting, p.ID)
	require.NoError(t, err)
	_, err = f.svc.SyncEntity(ctx, model.ProductKindPainting, p.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"POST /wp-json/wc/v3/products",
		"PUT /wp-json/wc/v3/products/501",
	}, f.store.calls())

	var n int64
	require.NoError(t, f.db.Model(&model.ProductLink{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestSyncEntity_UsesCachedRemoteIDWhenLinkHasNone(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusOK, `{}`))
	p := seedPainting(t, f.db, "Cached")
	require.NoError(t, f.db.Model(p).Update("remote_product_id", 321).Error)

	link, err := f.svc.SyncEntity(context.Background(), model.ProductKindPainting, p.ID)
	require.NoError(t, err)

	// PUT 响应没有 id 时沿用目标 ID
	assert.Equal(t, []string{"PUT /wp-json/wc/v3/products/321"}, f.store.calls())
	assert.Equal(t, int64(321), *link.RemoteProductID)
	assert.Equal(t, model.SyncStateSynced, link.SyncState)
}

func TestSyncEntity_ServerErrorRetriesThenMarksError(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusInternalServerError, `{"code":"boom"}`))
	p := seedPainting(t, f.db, "Storm")

	link, err := f.svc.SyncEntity(context.Background(), model.ProductKindPainting, p.ID)
	require.Error(t, err)
	require.NotNil(t, link)

	apiErr, ok := woocommerce.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Len(t, f.store.calls(), 3)

	stored := reloadLink(t, f.db, link.ID)
	assert.Equal(t, model.SyncStateError, stored.SyncState)
	assert.Equal(t, "Error 500", *stored.Notes)
	assert.Nil(t, stored.RemoteProductID)
	assert.Nil(t, reloadPainting(t, f.db, p.ID).RemoteProductID)
}

func TestSyncEntity_ClientErrorIsNotRetried(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusNotFound, `{"code":"woocommerce_rest_product_invalid_id"}`))
	p := seedPainting(t, f.db, "Lost")

	link, err := f.svc.SyncEntity(context.Background(), model.ProductKindPainting, p.ID)
	require.Error(t, err)
	assert.Len(t, f.store.calls(), 1)
	assert.Equal(t, "Error 404", *reloadLink(t, f.db, link.ID).Notes)
}

func TestSyncEntity_MissingProductIDInCreateResponse(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusCreated, `{"name":"no id"}`))
	p := seedPainting(t, f.db, "Anon")

	link, err := f.svc.SyncEntity(context.Background(), model.ProductKindPainting, p.ID)
	require.Error(t, err)
	require.NotNil(t, link)
	assert.Equal(t, model.SyncStateError, reloadLink(t, f.db, link.ID).SyncState)
	assert.Equal(t, "Error 200", *reloadLink(t, f.db, link.ID).Notes)
}

func TestSyncEntity_NotConfiguredLeavesLinkPending(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCommerceSyncService(
		repository.NewCommerceUnitOfWork(db),
		woocommerce.NewClient(woocommerce.Config{}),
		woocommerce.NewVerifier(""),
		nil,
	)
	p := seedPainting(t, db, "Quiet")

	link, err := svc.SyncEntity(context.Background(), model.ProductKindPainting, p.ID)
	assert.Nil(t, link)
	assert.ErrorIs(t, err, woocommerce.ErrNotConfigured)

	var stored model.ProductLink
	require.NoError(t, db.Where("local_id = ?", p.ID).First(&stored).Error)
	assert.Equal(t, model.SyncStatePending, stored.SyncState)
}

func TestSyncEntity_RejectsUnsupportedKindAndMissingPainting(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusOK, `{"id":1}`))
	ctx := context.Background()

	_, err := f.svc.SyncEntity(ctx, model.ProductKindBook, 1)
	assert.ErrorIs(t, err, ErrKindNotSupported)

	_, err = f.svc.SyncEntity(ctx, model.ProductKindPainting, 9999)
	assert.ErrorIs(t, err, ErrPaintingNotFound)

	assert.Empty(t, f.store.calls())
}

func TestSyncEntity_AdoptsUnmappedLinkHoldingRemoteID(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusCreated, `{"id":501}`))
	ctx := context.Background()

	raw := []byte(`{"id":501,"price":"12.50","stock_status":"instock","stock_quantity":4}`)
	orphan, err := f.svc.ApplyProductWebhook(ctx, raw, woocommerce.Sign(testWebhookSecret, raw))
	require.NoError(t, err)
	require.Nil(t, orphan.LocalID)

	p := seedPainting(t, f.db, "Adopted")
	link, err := f.svc.SyncEntity(ctx, model.ProductKindPainting, p.ID)
	require.NoError(t, err)

	stored := reloadLink(t, f.db, link.ID)
	assert.Equal(t, int64(501), *stored.RemoteProductID)
	assert.True(t, stored.Price.Valid)
	assert.Equal(t, "12.5", stored.Price.Decimal.String())
	assert.Equal(t, "instock", *stored.StockStatus)

	released := reloadLink(t, f.db, orphan.ID)
	assert.Nil(t, released.RemoteProductID)
}

func TestSyncEntity_ConflictWithMappedLinkMarksError(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusCreated, `{"id":501}`))
	ctx := context.Background()

	first := seedPainting(t, f.db, "First")
	_, err := f.svc.SyncEntity(ctx, model.ProductKindPainting, first.ID)
	require.NoError(t, err)

	second := seedPainting(t, f.db, "Second")
	link, err := f.svc.SyncEntity(ctx, model.ProductKindPainting, second.ID)
	assert.ErrorIs(t, err, repository.ErrRemoteIDConflict)
	require.NotNil(t, link)

	stored := reloadLink(t, f.db, link.ID)
	assert.Equal(t, model.SyncStateError, stored.SyncState)
	assert.Equal(t, "Error 409", *stored.Notes)
	assert.Nil(t, reloadPainting(t, f.db, second.ID).RemoteProductID)
}

func TestSyncEntity_SerializesPushesPerEntity(t *testing.T) {
	var inFlight, maxInFlight int32
	f := newSyncFixture(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		respondJSON(http.StatusOK, `{"id":700}`)(w, r)
	})
	p := seedPainting(t, f.db, "Busy")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.SyncEntity(context.Background(), model.ProductKindPainting, p.ID)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
	assert.Equal(t, 0, f.svc.locks.size())

	// 第一次 POST 之后都应是 PUT
	calls := f.store.calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "POST /wp-json/wc/v3/products", calls[0])
	for _, c := range calls[1:] {
		assert.Equal(t, "PUT /wp-json/wc/v3/products/700", c)
	}
}

// ==================== 载荷 ====================

func TestBuildPaintingPayload(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	img := "https://cdn.example.com/a.jpg"
	dims := "50x70 cm"

	p := &model.Painting{Title: "Draft", ImageURL: &img, Dimensions: &dims, PublishedAt: &future}
	payload := BuildPaintingPayload(p, now)

	assert.Equal(t, woocommerce.StatusDraft, payload.Status)
	assert.Equal(t, "", payload.Description)
	assert.Equal(t, []woocommerce.Image{{Src: img}}, payload.Images)
	assert.Equal(t, []woocommerce.MetaData{
		{Key: "medium", Value: ""},
		{Key: "dimensions", Value: dims},
		{Key: "year", Value: ""},
	}, payload.MetaData)

	p.PublishedAt = &now
	assert.Equal(t, woocommerce.StatusPublish, BuildPaintingPayload(p, now).Status)
}

// ==================== 批量重试 ====================

func TestRetryFailed_PushesErroredLinksAgain(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	f := newSyncFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			respondJSON(http.StatusBadRequest, `{"code":"invalid"}`)(w, r)
			return
		}
		respondJSON(http.StatusCreated, `{"id":601}`)(w, r)
	})
	ctx := context.Background()

	bad := seedPainting(t, f.db, "Retry")
	link, err := f.svc.SyncEntity(ctx, model.ProductKindPainting, bad.ID)
	require.Error(t, err)
	require.Equal(t, model.SyncStateError, reloadLink(t, f.db, link.ID).SyncState)

	fail.Store(false)
	summary, err := f.svc.RetryFailed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, RetrySummary{Attempted: 1, Synced: 1}, summary)

	stored := reloadLink(t, f.db, link.ID)
	assert.Equal(t, model.SyncStateSynced, stored.SyncState)
	assert.Equal(t, int64(601), *stored.RemoteProductID)

	// 已无 ERROR 链接
	summary, err = f.svc.RetryFailed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, RetrySummary{}, summary)
}

func TestRetryFailed_CountsFailures(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusBadRequest, `{}`))
	ctx := context.Background()

	p := seedPainting(t, f.db, "Stuck")
	_, err := f.svc.SyncEntity(ctx, model.ProductKindPainting, p.ID)
	require.Error(t, err)

	summary, err := f.svc.RetryFailed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, RetrySummary{Attempted: 1, Failed: 1}, summary)
}

func TestRetryFailed_NotConfigured(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCommerceSyncService(repository.NewCommerceUnitOfWork(db), woocommerce.NewClient(woocommerce.Config{}), nil, nil)

	_, err := svc.RetryFailed(context.Background(), 10)
	assert.ErrorIs(t, err, woocommerce.ErrNotConfigured)
}

// ==================== 取消与超时 ====================

// newCancelOnSleepFixture 退避时触发 cancel 的夹具，cancel 为空时不等待
func newCancelOnSleepFixture(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*syncFixture, func(context.CancelFunc)) {
	t.Helper()
	db := setupServiceTestDB(t)
	store := &fakeStore{handler: handler}
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)

	var mu sync.Mutex
	var cancel context.CancelFunc
	sleeper := func(ctx context.Context, _ time.Duration) error {
		mu.Lock()
		c := cancel
		mu.Unlock()
		if c == nil {
			return nil
		}
		c()
		return ctx.Err()
	}

	client := woocommerce.NewClient(woocommerce.Config{
		StoreURL:       srv.URL,
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
		MaxRetries:     3,
		RetryBackoff:   time.Millisecond,
	}, woocommerce.WithSleeper(sleeper))

	svc := NewCommerceSyncService(repository.NewCommerceUnitOfWork(db), client, woocommerce.NewVerifier(testWebhookSecret), nil)
	setCancel := func(c context.CancelFunc) {
		mu.Lock()
		cancel = c
		mu.Unlock()
	}
	return &syncFixture{db: db, store: store, svc: svc}, setCancel
}

func TestSyncEntity_CancelledDuringBackoffRecordsError(t *testing.T) {
	f, setCancel := newCancelOnSleepFixture(t, respondJSON(http.StatusBadGateway, `{"code":"down"}`))
	p := seedPainting(t, f.db, "Nocturne")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setCancel(cancel)

	link, err := f.svc.SyncEntity(ctx, model.ProductKindPainting, p.ID)
	require.Error(t, err)
	apiErr, ok := woocommerce.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, woocommerce.StatusTransport, apiErr.StatusCode)
	require.NotNil(t, link)

	stored := reloadLink(t, f.db, link.ID)
	assert.Equal(t, model.SyncStateError, stored.SyncState)
	assert.Equal(t, "Error -1", *stored.Notes)
	assert.Len(t, f.store.calls(), 1)
}

func TestRetryFailed_CancelledBatchKeepsLinkInErrorSet(t *testing.T) {
	var healthy atomic.Bool
	f, setCancel := newCancelOnSleepFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			respondJSON(http.StatusOK, `{"id":91}`)(w, r)
			return
		}
		respondJSON(http.StatusInternalServerError, `{}`)(w, r)
	})
	p := seedPainting(t, f.db, "Harbour")

	link, err := f.svc.SyncEntity(context.Background(), model.ProductKindPainting, p.ID)
	require.Error(t, err)
	require.Equal(t, model.SyncStateError, reloadLink(t, f.db, link.ID).SyncState)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setCancel(cancel)

	summary, err := f.svc.RetryFailed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, RetrySummary{Attempted: 1, Failed: 1}, summary)

	// 中途取消后链接仍在 ERROR 集合中，下一轮可再次选中
	stored := reloadLink(t, f.db, link.ID)
	assert.Equal(t, model.SyncStateError, stored.SyncState)
	assert.Equal(t, "Error -1", *stored.Notes)

	setCancel(nil)
	healthy.Store(true)
	summary, err = f.svc.RetryFailed(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, RetrySummary{Attempted: 1, Synced: 1}, summary)
	assert.Equal(t, model.SyncStateSynced, reloadLink(t, f.db, link.ID).SyncState)
}

func TestRetryFailed_ExpiredContextLeavesLinksUntouched(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusInternalServerError, `{}`))
	p := seedPainting(t, f.db, "Tideline")

	link, err := f.svc.SyncEntity(context.Background(), model.ProductKindPainting, p.ID)
	require.Error(t, err)
	before := len(f.store.calls())

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err = f.svc.RetryFailed(ctx, 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, model.SyncStateError, reloadLink(t, f.db, link.ID).SyncState)
	assert.Len(t, f.store.calls(), before)
}

// ==================== 入站 webhook ====================

func TestApplyProductWebhook_CreatesUnmappedLink(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusOK, `{}`))
	raw := []byte(`{"id":777,"price":"12.50","stock_status":"instock","stock_quantity":4}`)

	link, err := f.svc.ApplyProductWebhook(context.Background(), raw, woocommerce.Sign(testWebhookSecret, raw))
	require.NoError(t, err)

	stored := reloadLink(t, f.db, link.ID)
	assert.Nil(t, stored.LocalID)
	assert.Equal(t, model.ProductKindPainting, stored.Kind)
	assert.Equal(t, model.SyncStateSynced, stored.SyncState)
	assert.Equal(t, int64(777), *stored.RemoteProductID)
	assert.Equal(t, "12.5", stored.Price.Decimal.String())
	assert.Equal(t, "instock", *stored.StockStatus)
	assert.Equal(t, 4, *stored.StockQuantity)
	assert.Equal(t, repository.NoteUnmappedProduct, *stored.Notes)
	assert.Empty(t, f.store.calls())
}

func TestApplyProductWebhook_BackfillsPaintingCache(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusOK, `{}`))
	ctx := context.Background()

	p := seedPainting(t, f.db, "Linked")
	link, err := repository.NewLinkRepository(f.db).FindOrCreate(ctx, model.ProductKindPainting, p.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(link).Update("remote_product_id", 888).Error)

	raw := []byte(`{"id":888,"price":"99","stock_status":"outofstock"}`)
	_, err = f.svc.ApplyProductWebhook(ctx, raw, woocommerce.Sign(testWebhookSecret, raw))
	require.NoError(t, err)

	stored := reloadLink(t, f.db, link.ID)
	assert.Equal(t, model.SyncStateSynced, stored.SyncState)
	assert.Equal(t, repository.NoteWebhookUpdate, *stored.Notes)
	assert.Nil(t, stored.StockQuantity)

	painting := reloadPainting(t, f.db, p.ID)
	require.NotNil(t, painting.RemoteProductID)
	assert.Equal(t, int64(888), *painting.RemoteProductID)
}

func TestApplyProductWebhook_RejectsBadInputWithoutWriting(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusOK, `{}`))
	ctx := context.Background()
	raw := []byte(`{"id":777,"price":"12.50"}`)

	_, err := f.svc.ApplyProductWebhook(ctx, raw, "bm90LWEtc2lnbmF0dXJl")
	assert.ErrorIs(t, err, woocommerce.ErrInvalidSignature)

	_, err = f.svc.ApplyProductWebhook(ctx, raw, "")
	assert.ErrorIs(t, err, woocommerce.ErrInvalidSignature)

	noID := []byte(`{"price":"1"}`)
	_, err = f.svc.ApplyProductWebhook(ctx, noID, woocommerce.Sign(testWebhookSecret, noID))
	assert.ErrorIs(t, err, woocommerce.ErrMalformedPayload)

	var n int64
	require.NoError(t, f.db.Model(&model.ProductLink{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestApplyProductWebhook_UnconfiguredSecretRejectsEverything(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewCommerceSyncService(repository.NewCommerceUnitOfWork(db), woocommerce.NewClient(woocommerce.Config{}), woocommerce.NewVerifier(""), nil)
	raw := []byte(`{"id":1}`)

	assert.False(t, svc.WebhookConfigured())
	_, err := svc.ApplyProductWebhook(context.Background(), raw, woocommerce.Sign("", raw))
	assert.True(t, errors.Is(err, woocommerce.ErrInvalidSignature))
}

func TestApplyOrderWebhook_AnnotatesKnownProductsOnly(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusCreated, `{"id":501}`))
	ctx := context.Background()

	p := seedPainting(t, f.db, "Sold")
	link, err := f.svc.SyncEntity(ctx, model.ProductKindPainting, p.ID)
	require.NoError(t, err)

	raw := []byte(`{"id":42,"line_items":[{"product_id":501},{"product_id":999},{"name":"fee"}]}`)
	n, err := f.svc.ApplyOrderWebhook(ctx, raw, woocommerce.Sign(testWebhookSecret, raw))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored := reloadLink(t, f.db, link.ID)
	assert.Equal(t, "Updated by order #42", *stored.Notes)
	assert.Equal(t, model.SyncStateSynced, stored.SyncState)

	var count int64
	require.NoError(t, f.db.Model(&model.ProductLink{}).Where("remote_product_id = ?", 999).Count(&count).Error)
	assert.Zero(t, count)
}

// ==================== 查询 ====================

func TestListProducts_JoinsPaintingTitle(t *testing.T) {
	f := newSyncFixture(t, respondJSON(http.StatusCreated, `{"id":501}`))
	ctx := context.Background()

	p := seedPainting(t, f.db, "Harbour")
	_, err := f.svc.SyncEntity(ctx, model.ProductKindPainting, p.ID)
	require.NoError(t, err)

	items, err := f.svc.ListProducts(ctx, repository.LinkFilter{Kind: model.ProductKindPainting, Search: "harb"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Title)
	assert.Equal(t, "Harbour", *items[0].Title)

	items, err = f.svc.ListProducts(ctx, repository.LinkFilter{Search: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, items)
}
