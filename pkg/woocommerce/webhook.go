package woocommerce

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ProductEvent 商品 webhook 中用到的字段
type ProductEvent struct {
	ID            int64
	Price         decimal.NullDecimal
	StockStatus   *string
	StockQuantity *int
}

// OrderEvent 订单 webhook 中用到的字段
type OrderEvent struct {
	ID         int64
	ProductIDs []int64
}

// ParseProductEvent 解析商品 webhook
// 价格与库存数量无法解析时置空，不拒绝整条消息
func ParseProductEvent(raw []byte) (*ProductEvent, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	id, ok := toInt64(obj["id"])
	if !ok || id <= 0 {
		return nil, fmt.Errorf("%w: missing product id", ErrMalformedPayload)
	}

	ev := &ProductEvent{
		ID:    id,
		Price: toNullDecimal(obj["price"]),
	}
	if s, ok := obj["stock_status"].(string); ok {
		ev.StockStatus = &s
	}
	if q, ok := toInt64(obj["stock_quantity"]); ok && q >= math.MinInt32 && q <= math.MaxInt32 {
		n := int(q)
		ev.StockQuantity = &n
	}
	return ev, nil
}

// ParseOrderEvent 解析订单 webhook，跳过没有 product_id 的行
func ParseOrderEvent(raw []byte) (*OrderEvent, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	id, ok := toInt64(obj["id"])
	if !ok || id <= 0 {
		return nil, fmt.Errorf("%w: missing order id", ErrMalformedPayload)
	}

	ev := &OrderEvent{ID: id}
	items, _ := obj["line_items"].([]interface{})
	for _, it := range items {
		item, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		if pid, ok := toInt64(item["product_id"]); ok && pid > 0 {
			ev.ProductIDs = append(ev.ProductIDs, pid)
		}
	}
	return ev, nil
}

// ==================== 工具函数 ====================

func decodeObject(raw []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedPayload)
	}
	// 只允许一个 JSON 值
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrMalformedPayload)
	}
	return obj, nil
}

func toInt64(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		if f, err := x.Float64(); err == nil && f == math.Trunc(f) {
			return int64(f), true
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func toNullDecimal(v interface{}) decimal.NullDecimal {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	default:
		return decimal.NullDecimal{}
	}
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
