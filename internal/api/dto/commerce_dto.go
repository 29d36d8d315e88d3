package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SyncResp 手动同步结果
type SyncResp struct {
	Status      string `json:"status"`
	WCProductID *int64 `json:"wc_product_id"`
	SyncState   string `json:"sync_state"`
}

// WebhookAck webhook 受理
type WebhookAck struct {
	Status string `json:"status"`
}

// RetryResp 批量重试结果
type RetryResp struct {
	Attempted int `json:"attempted"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// CommerceProductReq 商品列表查询
type CommerceProductReq struct {
	Kind   string `form:"kind"`
	Search string `form:"search"`
}

// CommerceProductItem 商品列表项
type CommerceProductItem struct {
	ID            int64               `json:"id"`
	WCProductID   *int64              `json:"wc_product_id"`
	Kind          string              `json:"kind"`
	LocalID       *int64              `json:"local_id"`
	Title         *string             `json:"title"`
	SyncState     string              `json:"sync_state"`
	Price         decimal.NullDecimal `json:"price"`
	StockStatus   *string             `json:"stock_status"`
	StockQuantity *int                `json:"stock_quantity"`
	LastSyncedAt  *time.Time          `json:"last_synced_at"`
	Notes         *string             `json:"notes"`
	UpdatedAt     time.Time           `json:"updated_at"`
}
