package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"memshaheb_backend/internal/model"
)

// ==================== 仓储接口 ====================

// LinkRepository 商品链接登记表，ProductLink 的唯一读写入口
type LinkRepository interface {
	FindOrCreate(ctx context.Context, kind model.ProductKind, localID int64) (*model.ProductLink, error)
	FindByLocal(ctx context.Context, kind model.ProductKind, localID int64) (*model.ProductLink, error)
	FindByRemoteID(ctx context.Context, remoteID int64) (*model.ProductLink, error)
	GetByID(ctx context.Context, id int64) (*model.ProductLink, error)

	RecordPushSuccess(ctx context.Context, link *model.ProductLink, remoteID int64, payload []byte) error
	RecordPushFailure(ctx context.Context, link *model.ProductLink, statusCode int) error
	RecordWebhookUpdate(ctx context.Context, remoteID int64, fields WebhookFields) (*model.ProductLink, error)
	AnnotateOrder(ctx context.Context, remoteID, orderID int64) (bool, error)
	UnlinkLocal(ctx context.Context, kind model.ProductKind, localID int64) (*model.ProductLink, error)
	MarkLocalChanged(ctx context.Context, kind model.ProductKind, localID int64) (*model.ProductLink, error)
	RequestRetry(ctx context.Context, link *model.ProductLink) error

	ListByState(ctx context.Context, state model.SyncState, limit int) ([]model.ProductLink, error)
	List(ctx context.Context, filter LinkFilter) ([]LinkListItem, error)
}

// WebhookFields 商品 webhook 带来的镜像字段
type WebhookFields struct {
	Price         decimal.NullDecimal
	StockStatus   *string
	StockQuantity *int
}

// LinkFilter 链接列表筛选
type LinkFilter struct {
	Kind   model.ProductKind
	Search string
}

// LinkListItem 链接 + 本地标题
type LinkListItem struct {
	model.ProductLink
	Title *string `gorm:"column:title"`
}

// ErrRemoteIDConflict 远端 ID 已被另一个已映射的链接占用
var ErrRemoteIDConflict = errors.New("remote product id already linked to another local entity")

// 诊断备注
const (
	NoteUnmappedProduct = "Unmapped product"
	NoteWebhookUpdate   = "Product webhook update"
	NoteRetryRequested  = "Retry requested"
)

// ==================== 实现 ====================

type linkRepo struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLinkRepository 创建链接仓储
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// FindOrCreate 幂等获取 (kind, local_id) 的链接，不存在时以 PENDING 创建
// 依赖唯一索引兜底并发插入
func (r *linkRepo) FindOrCreate(ctx context.Context, kind model.ProductKind, localID int64) (*model.ProductLink, error) {
	link, err := r.FindByLocal(ctx, kind, localID)
	if err != nil || link != nil {
		return link, err
	}

	table := kind.LocalTable()
	candidate := &model.ProductLink{
		Kind:      kind,
		LocalID:   &localID,
		SyncState: model.SyncStatePending,
	}
	if table != "" {
		candidate.LocalTable = &table
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(candidate).Error; err != nil {
		return nil, fmt.Errorf("create product link: %w", err)
	}

	link, err = r.FindByLocal(ctx, kind, localID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, fmt.Errorf("product link for %s #%d vanished after insert", kind, localID)
	}
	return link, nil
}

// FindByLocal 按本地实体查找，不存在返回 nil, nil
func (r *linkRepo) FindByLocal(ctx context.Context, kind model.ProductKind, localID int64) (*model.ProductLink, error) {
	return r.first(r.db.WithContext(ctx).Where("kind = ? AND local_id = ?", kind, localID))
}

// FindByRemoteID 按远端商品 ID 查找
func (r *linkRepo) FindByRemoteID(ctx context.Context, remoteID int64) (*model.ProductLink, error) {
	return r.first(r.db.WithContext(ctx).Where("remote_product_id = ?", remoteID))
}

// GetByID 按主键查找
func (r *linkRepo) GetByID(ctx context.Context, id int64) (*model.ProductLink, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *linkRepo) first(q *gorm.DB) (*model.ProductLink, error) {
	var link model.ProductLink
	err := q.First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// RecordPushSuccess 推送成功：写入远端 ID，状态 SYNCED
// 若该远端 ID 被一个未映射链接占用，则接管其镜像字段并释放对方的 ID
func (r *linkRepo) RecordPushSuccess(ctx context.Context, link *model.ProductLink, remoteID int64, payload []byte) error {
	if remoteID <= 0 {
		return fmt.Errorf("record push success: invalid remote id %d", remoteID)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 处理远端 ID 占用
		var holder model.ProductLink
		err := tx.Where("remote_product_id = ? AND id <> ?", remoteID, link.ID).First(&holder).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return err
		case holder.LocalID != nil:
			return fmt.Errorf("%w: remote #%d held by link #%d", ErrRemoteIDConflict, remoteID, holder.ID)
		default:
			if !link.Price.Valid {
				link.Price = holder.Price
			}
			if link.StockStatus == nil {
				link.StockStatus = holder.StockStatus
			}
			if link.StockQuantity == nil {
				link.StockQuantity = holder.StockQuantity
			}
			holder.RemoteProductID = nil
			holder.SetNote(fmt.Sprintf("Superseded by link #%d", link.ID))
			if err := tx.Save(&holder).Error; err != nil {
				return err
			}
		}

		// 2. 状态迁移
		if err := link.Apply(model.SyncEventPushSucceeded); err != nil {
			return err
		}
		now := r.now()
		link.RemoteProductID = &remoteID
		link.LastSyncedAt = &now
		if table := link.Kind.LocalTable(); table != "" {
			link.LocalTable = &table
		}
		link.SetNote("Synced " + strings.ToLower(string(link.Kind)))
		if len(payload) > 0 {
			link.LastPayload = datatypes.JSON(payload)
		}
		return tx.Save(link).Error
	})
}

// RecordPushFailure 推送失败：状态 ERROR，保留已知远端 ID
func (r *linkRepo) RecordPushFailure(ctx context.Context, link *model.ProductLink, statusCode int) error {
	if err := link.Apply(model.SyncEventPushFailed); err != nil {
		return err
	}
	now := r.now()
	link.LastSyncedAt = &now
	link.SetNote(fmt.Sprintf("Error %d", statusCode))
	return r.db.WithContext(ctx).Save(link).Error
}

// RecordWebhookUpdate 按远端 ID upsert 链接并写入镜像字段
// 不存在时创建 local_id 为空的未映射链接
func (r *linkRepo) RecordWebhookUpdate(ctx context.Context, remoteID int64, fields WebhookFields) (*model.ProductLink, error) {
	var result *model.ProductLink
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		link, err := r.first(tx.Where("remote_product_id = ?", remoteID))
		if err != nil {
			return err
		}

		note := NoteWebhookUpdate
		if link == nil {
			candidate := &model.ProductLink{
				RemoteProductID: &remoteID,
				Kind:            model.ProductKindPainting,
				SyncState:       model.SyncStatePending,
			}
			candidate.SetNote(NoteUnmappedProduct)
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(candidate).Error; err != nil {
				return err
			}
			if link, err = r.first(tx.Where("remote_product_id = ?", remoteID)); err != nil {
				return err
			}
			if link == nil {
				return fmt.Errorf("product link for remote #%d vanished after insert", remoteID)
			}
			if link.LocalID == nil {
				note = NoteUnmappedProduct
			}
		}

		if err := link.Apply(model.SyncEventWebhookObserved); err != nil {
			return err
		}
		now := r.now()
		link.Price = fields.Price
		link.StockStatus = fields.StockStatus
		link.StockQuantity = fields.StockQuantity
		link.LastSyncedAt = &now
		link.SetNote(note)
		if err := tx.Save(link).Error; err != nil {
			return err
		}
		result = link
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AnnotateOrder 已知链接记录订单号，未知商品返回 false
func (r *linkRepo) AnnotateOrder(ctx context.Context, remoteID, orderID int64) (bool, error) {
	link, err := r.FindByRemoteID(ctx, remoteID)
	if err != nil || link == nil {
		return false, err
	}
	now := r.now()
	link.LastSyncedAt = &now
	link.SetNote(fmt.Sprintf("Updated by order #%d", orderID))
	if err := r.db.WithContext(ctx).Save(link).Error; err != nil {
		return false, err
	}
	return true, nil
}

// UnlinkLocal 本地实体删除后解除关联，链接行保留
func (r *linkRepo) UnlinkLocal(ctx context.Context, kind model.ProductKind, localID int64) (*model.ProductLink, error) {
	link, err := r.FindByLocal(ctx, kind, localID)
	if err != nil || link == nil {
		return nil, err
	}
	if err := link.Apply(model.SyncEventLocalChanged); err != nil {
		return nil, err
	}
	link.LocalID = nil
	link.SetNote(kindLabel(kind) + " deleted locally")
	if err := r.db.WithContext(ctx).Save(link).Error; err != nil {
		return nil, err
	}
	return link, nil
}

// MarkLocalChanged 本地内容变更后 SYNCED -> PENDING，其他状态不动
func (r *linkRepo) MarkLocalChanged(ctx context.Context, kind model.ProductKind, localID int64) (*model.ProductLink, error) {
	link, err := r.FindByLocal(ctx, kind, localID)
	if err != nil || link == nil || link.SyncState != model.SyncStateSynced {
		return link, err
	}
	if err := link.Apply(model.SyncEventLocalChanged); err != nil {
		return nil, err
	}
	link.SetNote(kindLabel(kind) + " updated locally")
	if err := r.db.WithContext(ctx).Save(link).Error; err != nil {
		return nil, err
	}
	return link, nil
}

// RequestRetry ERROR -> PENDING
func (r *linkRepo) RequestRetry(ctx context.Context, link *model.ProductLink) error {
	if err := link.Apply(model.SyncEventRetryRequested); err != nil {
		return err
	}
	link.SetNote(NoteRetryRequested)
	return r.db.WithContext(ctx).Save(link).Error
}

// ListByState 按状态列出（仅已映射的链接）
func (r *linkRepo) ListByState(ctx context.Context, state model.SyncState, limit int) ([]model.ProductLink, error) {
	var links []model.ProductLink
	q := r.db.WithContext(ctx).
		Where("sync_state = ? AND local_id IS NOT NULL", state).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&links).Error
	return links, err
}

// List 商品列表，左连接画作标题
func (r *linkRepo) List(ctx context.Context, filter LinkFilter) ([]LinkListItem, error) {
	q := r.db.WithContext(ctx).
		Table("product_links").
		Select("product_links.*, paintings.title AS title").
		Joins("LEFT JOIN paintings ON paintings.id = product_links.local_id AND product_links.kind = ?", model.ProductKindPainting)

	if filter.Kind != "" {
		q = q.Where("product_links.kind = ?", filter.Kind)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		if filter.Kind == "" || filter.Kind == model.ProductKindPainting {
			q = q.Where("LOWER(paintings.title) LIKE ?", pattern)
		} else {
			q = q.Where("LOWER(product_links.notes) LIKE ?", pattern)
		}
	}

	var items []LinkListItem
	err := q.Order("product_links.updated_at DESC").Order("product_links.id DESC").Scan(&items).Error
	return items, err
}

func kindLabel(kind model.ProductKind) string {
	s := strings.ToLower(string(kind))
	if s == "" {
		return "Item"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
