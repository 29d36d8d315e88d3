package woocommerce

import (
	"errors"
	"fmt"
	"strings"
)

// StatusTransport 纯传输层失败（无 HTTP 状态码）
const StatusTransport = -1

var (
	// ErrNotConfigured 集成未配置，永不重试
	ErrNotConfigured = errors.New("woocommerce integration is not configured")

	// ErrMalformedPayload webhook 载荷不可用（非法 JSON 或缺少 id）
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrInvalidSignature webhook 签名校验失败
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// ConfigurationError 缺少集成前置配置
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) == 0 {
		return ErrNotConfigured.Error()
	}
	return fmt.Sprintf("%s (missing %s)", ErrNotConfigured.Error(), strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrNotConfigured
}

// APIError 远端接口错误
// StatusCode 为 StatusTransport 时表示连接失败或超时
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("woocommerce API error %d: %s", e.StatusCode, e.Detail)
}

// IsTransport 是否为传输层失败
func (e *APIError) IsTransport() bool {
	return e.StatusCode == StatusTransport
}

// AsAPIError errors.As 的简写
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
