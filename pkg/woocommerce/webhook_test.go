package woocommerce

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductEvent(t *testing.T) {
	ev, err := ParseProductEvent([]byte(`{"id": 501, "price": "12.50", "stock_status": "instock", "stock_quantity": 4}`))

	require.NoError(t, err)
	assert.Equal(t, int64(501), ev.ID)
	require.True(t, ev.Price.Valid)
	assert.True(t, ev.Price.Decimal.Equal(decimal.RequireFromString("12.5")))
	require.NotNil(t, ev.StockStatus)
	assert.Equal(t, "instock", *ev.StockStatus)
	require.NotNil(t, ev.StockQuantity)
	assert.Equal(t, 4, *ev.StockQuantity)
}

func TestParseProductEvent_BadFieldsNormalizeToAbsent(t *testing.T) {
	ev, err := ParseProductEvent([]byte(`{"id": "77", "price": "n/a", "stock_quantity": "lots"}`))

	require.NoError(t, err)
	assert.Equal(t, int64(77), ev.ID)
	assert.False(t, ev.Price.Valid)
	assert.Nil(t, ev.StockQuantity)
	assert.Nil(t, ev.StockStatus)

	ev, err = ParseProductEvent([]byte(`{"id": 78, "price": "", "stock_quantity": null}`))
	require.NoError(t, err)
	assert.False(t, ev.Price.Valid)
	assert.Nil(t, ev.StockQuantity)

	ev, err = ParseProductEvent([]byte(`{"id": 79, "price": 9.99}`))
	require.NoError(t, err)
	assert.True(t, ev.Price.Valid)
}

func TestParseProductEvent_Malformed(t *testing.T) {
	for _, raw := range []string{
		`not json`, `{"price": "1.00"}`, `{"id": 0}`, `[1,2]`, `null`,
		`{"id": 1} trailing-garbage`, `{"id": 1}{"id": 2}`, `{"id": 1} 7`,
	} {
		_, err := ParseProductEvent([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedPayload, raw)
	}

	_, err := ParseOrderEvent([]byte(`{"id": 9001, "line_items": []} x`))
	assert.ErrorIs(t, err, ErrMalformedPayload)

	// 末尾空白仍合法
	ev, err := ParseProductEvent([]byte("{\"id\": 5}\n  "))
	require.NoError(t, err)
	assert.Equal(t, int64(5), ev.ID)
}

func TestParseOrderEvent(t *testing.T) {
	ev, err := ParseOrderEvent([]byte(`{"id": 9001, "line_items": [{"product_id": 501}, {"product_id": 999}, {"name": "fee"}, "junk"]}`))

	require.NoError(t, err)
	assert.Equal(t, int64(9001), ev.ID)
	assert.Equal(t, []int64{501, 999}, ev.ProductIDs)

	_, err = ParseOrderEvent([]byte(`{"line_items": []}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestNewProductPayload(t *testing.T) {
	long := make([]rune, 300)
	for i := range long {
		long[i] = 'ب'
	}

	p := NewProductPayload("Title", string(long), "https://cdn/x.jpg", false,
		MetaData{Key: "medium", Value: "oil"})

	assert.Equal(t, StatusDraft, p.Status)
	assert.Equal(t, ProductTypeSimple, p.Type)
	assert.Len(t, []rune(p.ShortDescription), 250)
	assert.Equal(t, []Image{{Src: "https://cdn/x.jpg"}}, p.Images)
	assert.Len(t, p.MetaData, 1)
}
