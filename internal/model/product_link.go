package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ==================== 商品类型 ====================

// ProductKind 本地实体类别
type ProductKind string

const (
	ProductKindPainting ProductKind = "PAINTING"
	ProductKindBook     ProductKind = "BOOK"
)

// LocalTable 返回该类别对应的本地表名
func (k ProductKind) LocalTable() string {
	switch k {
	case ProductKindPainting:
		return "paintings"
	case ProductKindBook:
		return "books"
	}
	return ""
}

// ErrInvalidKind 未知的商品类别
var ErrInvalidKind = errors.New("invalid product kind")

// ParseProductKind 解析类别（大小写不敏感）
func ParseProductKind(s string) (ProductKind, error) {
	switch k := ProductKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case ProductKindPainting, ProductKindBook:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// ==================== 同步状态机 ====================

// SyncState 链接同步状态
type SyncState string

const (
	SyncStatePending SyncState = "PENDING"
	SyncStateSynced  SyncState = "SYNCED"
	SyncStateError   SyncState = "ERROR"
)

// SyncEvent 驱动状态迁移的事件
type SyncEvent string

const (
	SyncEventPushSucceeded   SyncEvent = "push_succeeded"
	SyncEventPushFailed      SyncEvent = "push_failed"
	SyncEventWebhookObserved SyncEvent = "webhook_observed"
	SyncEventLocalChanged    SyncEvent = "local_changed"
	SyncEventRetryRequested  SyncEvent = "retry_requested"
)

// ErrInvalidTransition 非法状态迁移
var ErrInvalidTransition = errors.New("invalid sync state transition")

// syncTransitions 当前状态 -> 事件 -> 目标状态
// 表中不存在的组合一律拒绝
var syncTransitions = map[SyncState]map[SyncEvent]SyncState{
	SyncStatePending: {
		SyncEventPushSucceeded:   SyncStateSynced,
		SyncEventPushFailed:      SyncStateError,
		SyncEventWebhookObserved: SyncStateSynced,
		SyncEventLocalChanged:    SyncStatePending,
	},
	SyncStateError: {
		SyncEventPushSucceeded:   SyncStateSynced,
		SyncEventPushFailed:      SyncStateError,
		SyncEventWebhookObserved: SyncStateSynced,
		SyncEventLocalChanged:    SyncStatePending,
		SyncEventRetryRequested:  SyncStatePending,
	},
	SyncStateSynced: {
		SyncEventPushSucceeded:   SyncStateSynced,
		SyncEventPushFailed:      SyncStateError,
		SyncEventWebhookObserved: SyncStateSynced,
		SyncEventLocalChanged:    SyncStatePending,
	},
}

// Transition 计算事件作用后的状态
func (s SyncState) Transition(ev SyncEvent) (SyncState, error) {
	next, ok := syncTransitions[s][ev]
	if !ok {
		return s, fmt.Errorf("%w: %s --%s-->", ErrInvalidTransition, s, ev)
	}
	return next, nil
}

// ==================== ProductLink ====================

// ProductLink 本地实体与远端商品的映射
// (kind, local_id) 唯一；remote_product_id 非空时全局唯一；local_id 可为空（未映射商品）
type ProductLink struct {
	BaseModel

	RemoteProductID *int64      `gorm:"uniqueIndex" json:"wc_product_id"`
	Kind            ProductKind `gorm:"size:20;not null;uniqueIndex:idx_product_links_kind_local" json:"kind"`
	LocalID         *int64      `gorm:"uniqueIndex:idx_product_links_kind_local" json:"local_id"`
	SyncState       SyncState   `gorm:"size:20;not null;default:'PENDING';index" json:"sync_state"`

	// 远端镜像字段
	Price         decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"price"`
	StockStatus   *string             `gorm:"size:50" json:"stock_status"`
	StockQuantity *int                `json:"stock_quantity"`

	LastSyncedAt *time.Time `json:"last_synced_at"`
	LocalTable   *string    `gorm:"size:100" json:"local_table"`
	Notes        *string    `gorm:"size:255" json:"notes"`

	// 最近一次成功推送的商品载荷
	LastPayload datatypes.JSON `json:"-"`
}

func (ProductLink) TableName() string {
	return "product_links"
}

// Apply 按事件迁移状态，非法迁移时不修改
func (l *ProductLink) Apply(ev SyncEvent) error {
	next, err := l.SyncState.Transition(ev)
	if err != nil {
		return err
	}
	l.SyncState = next
	return nil
}

// SetNote 设置诊断备注，超长截断
func (l *ProductLink) SetNote(note string) {
	if r := []rune(note); len(r) > 255 {
		note = string(r[:255])
	}
	l.Notes = &note
}
