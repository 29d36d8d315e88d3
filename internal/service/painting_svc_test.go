package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memshaheb_backend/internal/api/dto"
	"memshaheb_backend/internal/model"
	"memshaheb_backend/internal/repository"
)

func newPaintingSvc(t *testing.T) (*PaintingService, *repository.CommerceUnitOfWork) {
	t.Helper()
	uow := repository.NewCommerceUnitOfWork(setupServiceTestDB(t))
	return NewPaintingService(uow, nil), uow
}

func strPtr(s string) *string { return &s }

func TestPaintingService_CreateGeneratesUniqueSlugs(t *testing.T) {
	svc, _ := newPaintingSvc(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, &dto.CreatePaintingReq{Title: "River at Dusk"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, &dto.CreatePaintingReq{Title: "River at Dusk"})
	require.NoError(t, err)
	c, err := svc.Create(ctx, &dto.CreatePaintingReq{Title: "???"})
	require.NoError(t, err)

	assert.Equal(t, "River-at-Dusk", a.Slug)
	assert.Equal(t, "River-at-Dusk-2", b.Slug)
	assert.Equal(t, "painting", c.Slug)

	// 未指定发布时间时立即发布
	require.NotNil(t, a.PublishedAt)
	assert.True(t, a.IsPublished(time.Now().UTC().Add(time.Second)))
}

func TestPaintingService_CreateKeepsUnicodeSlugAndTags(t *testing.T) {
	svc, _ := newPaintingSvc(t)

	p, err := svc.Create(context.Background(), &dto.CreatePaintingReq{
		Title: "নদী ও আকাশ",
		Tags:  []string{" river ", "", "sky"},
	})
	require.NoError(t, err)
	assert.Equal(t, "নদী-ও-আকাশ", p.Slug)
	assert.Equal(t, model.StringArray{"river", "sky"}, p.Tags)
}

func TestPaintingService_GetByIDOrSlugHidesDrafts(t *testing.T) {
	svc, _ := newPaintingSvc(t)
	ctx := context.Background()

	future := time.Now().UTC().Add(48 * time.Hour)
	draft, err := svc.Create(ctx, &dto.CreatePaintingReq{Title: "Draft", PublishedAt: &future})
	require.NoError(t, err)
	live, err := svc.Create(ctx, &dto.CreatePaintingReq{Title: "Live"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, strconv.FormatInt(live.ID, 10), false)
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	got, err = svc.Get(ctx, "Live", false)
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	_, err = svc.Get(ctx, strconv.FormatInt(draft.ID, 10), false)
	assert.ErrorIs(t, err, ErrPaintingNotFound)

	got, err = svc.Get(ctx, "Draft", true)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	_, err = svc.Get(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrPaintingNotFound)
}

func TestPaintingService_ListPaginatesWithCursor(t *testing.T) {
	svc, _ := newPaintingSvc(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		p, err := svc.Create(ctx, &dto.CreatePaintingReq{Title: "Piece " + strconv.Itoa(i)})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	page, err := svc.List(ctx, &dto.PaintingListReq{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[0], page.Items[0].ID)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, strconv.FormatInt(ids[1], 10), *page.NextCursor)

	page, err = svc.List(ctx, &dto.PaintingListReq{Limit: 2, Cursor: *page.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[2], ids[3]}, []int64{page.Items[0].ID, page.Items[1].ID})

	page, err = svc.List(ctx, &dto.PaintingListReq{Limit: 2, Cursor: *page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Nil(t, page.NextCursor)

	_, err = svc.List(ctx, &dto.PaintingListReq{Cursor: "abc"})
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestPaintingService_ListAdminIncludesDraftsNewestFirst(t *testing.T) {
	svc, _ := newPaintingSvc(t)
	ctx := context.Background()

	future := time.Now().UTC().Add(time.Hour)
	a, err := svc.Create(ctx, &dto.CreatePaintingReq{Title: "A"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, &dto.CreatePaintingReq{Title: "B", PublishedAt: &future})
	require.NoError(t, err)
	c, err := svc.Create(ctx, &dto.CreatePaintingReq{Title: "C"})
	require.NoError(t, err)

	public, err := svc.List(ctx, &dto.PaintingListReq{})
	require.NoError(t, err)
	assert.Len(t, public.Items, 2)

	page, err := svc.ListAdmin(ctx, &dto.PaintingListReq{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, c.ID, page.Items[0].ID)
	assert.Equal(t, b.ID, page.Items[1].ID)

	page, err = svc.ListAdmin(ctx, &dto.PaintingListReq{Limit: 2, Cursor: *page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, a.ID, page.Items[0].ID)
	assert.Nil(t, page.NextCursor)
}

func TestPaintingService_ListFiltersByTags(t *testing.T) {
	svc, _ := newPaintingSvc(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &dto.CreatePaintingReq{Title: "One", Tags: []string{"river", "night"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &dto.CreatePaintingReq{Title: "Two", Tags: []string{"river"}})
	require.NoError(t, err)

	page, err := svc.List(ctx, &dto.PaintingListReq{Tags: []string{"river,night"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "One", page.Items[0].Title)

	page, err = svc.List(ctx, &dto.PaintingListReq{Tags: []string{"river"}})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestPaintingService_UpdateMarksSyncedLinkPending(t *testing.T) {
	svc, uow := newPaintingSvc(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, &dto.CreatePaintingReq{Title: "Harbour"})
	require.NoError(t, err)
	link, err := uow.Links.FindOrCreate(ctx, model.ProductKindPainting, p.ID)
	require.NoError(t, err)
	require.NoError(t, uow.Links.RecordPushSuccess(ctx, link, 501, nil))

	updated, err := svc.Update(ctx, strconv.FormatInt(p.ID, 10), &dto.UpdatePaintingReq{
		Title:  strPtr("Harbour at Night"),
		Medium: strPtr("Ink"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Harbour-at-Night", updated.Slug)
	assert.Equal(t, "Ink", *updated.Medium)

	stored, err := uow.Links.GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SyncStatePending, stored.SyncState)
	assert.Equal(t, "Painting updated locally", *stored.Notes)
	assert.Equal(t, int64(501), *stored.RemoteProductID)
}

func TestPaintingService_DeleteUnlinksProduct(t *testing.T) {
	svc, uow := newPaintingSvc(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, &dto.CreatePaintingReq{Title: "Gone"})
	require.NoError(t, err)
	link, err := uow.Links.FindOrCreate(ctx, model.ProductKindPainting, p.ID)
	require.NoError(t, err)
	require.NoError(t, uow.Links.RecordPushSuccess(ctx, link, 77, nil))

	require.NoError(t, svc.Delete(ctx, "Gone"))

	_, err = svc.Get(ctx, strconv.FormatInt(p.ID, 10), true)
	assert.ErrorIs(t, err, ErrPaintingNotFound)

	stored, err := uow.Links.GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LocalID)
	assert.Equal(t, int64(77), *stored.RemoteProductID)
	assert.Equal(t, model.SyncStatePending, stored.SyncState)
	assert.Equal(t, "Painting deleted locally", *stored.Notes)

	assert.ErrorIs(t, svc.Delete(ctx, "Gone"), ErrPaintingNotFound)
}
