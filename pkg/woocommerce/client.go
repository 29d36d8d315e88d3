package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ==================== 配置 ====================

// Config 商城接入配置
type Config struct {
	StoreURL       string
	ConsumerKey    string
	ConsumerSecret string
	APIVersion     string        // 默认 v3
	MaxRetries     int           // 最大尝试次数，至少 1
	RetryBackoff   time.Duration // 线性退避基数
	Timeout        time.Duration // 单次请求超时
}

// missing 返回缺失的必填项
func (c Config) missing() []string {
	var fields []string
	if strings.TrimSpace(c.StoreURL) == "" {
		fields = append(fields, "store url")
	}
	if c.ConsumerKey == "" {
		fields = append(fields, "consumer key")
	}
	if c.ConsumerSecret == "" {
		fields = append(fields, "consumer secret")
	}
	return fields
}

// Configured 是否具备发起请求的条件
func (c Config) Configured() bool {
	return len(c.missing()) == 0
}

// BaseURL {store}/wp-json/wc/{version}
func (c Config) BaseURL() string {
	version := strings.Trim(c.APIVersion, "/")
	if version == "" {
		version = "v3"
	}
	return strings.TrimRight(c.StoreURL, "/") + "/wp-json/wc/" + version
}

// ==================== Client ====================

// Sleeper 重试间的等待函数，ctx 取消时应提前返回
type Sleeper func(ctx context.Context, d time.Duration) error

// Client 带重试的商城 REST 客户端
// 只做网络调用，不触碰本地状态
type Client struct {
	cfg    Config
	http   *resty.Client
	sleep  Sleeper
	logger *zap.Logger
}

// Option 客户端选项
type Option func(*Client)

// WithSleeper 替换重试等待函数（测试用）
func WithSleeper(fn Sleeper) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithLogger 注入日志
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient 创建客户端
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	c := &Client{
		cfg: cfg,
		http: resty.New().
			SetTimeout(cfg.Timeout).
			SetBasicAuth(cfg.ConsumerKey, cfg.ConsumerSecret).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", "memshaheb-backend/1.0"),
		sleep:  sleepContext,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured 是否已配置
func (c *Client) Configured() bool {
	return c != nil && c.cfg.Configured()
}

// ==================== 请求 ====================

// Do 发起一次带重试的请求并返回解析后的 JSON 对象
func (c *Client) Do(ctx context.Context, method, path string, params map[string]string, body interface{}) (map[string]interface{}, error) {
	raw, err := c.do(ctx, method, path, params, body)
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return result, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		return nil, &APIError{StatusCode: 200, Detail: "invalid JSON response: " + err.Error()}
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, params map[string]string, body interface{}) ([]byte, error) {
	// 1. 未配置直接失败，不发起网络请求
	if c == nil {
		return nil, &ConfigurationError{}
	}
	if missing := c.cfg.missing(); len(missing) > 0 {
		return nil, &ConfigurationError{Missing: missing}
	}

	url := c.cfg.BaseURL() + "/" + strings.TrimLeft(path, "/")
	var lastErr *APIError

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		// 2. 单次请求
		req := c.http.R().SetContext(ctx)
		if len(params) > 0 {
			req.SetQueryParams(params)
		}
		if body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(body)
		}
		resp, err := req.Execute(method, url)

		status := 0
		if err == nil {
			status = resp.StatusCode()
		}

		// 3. 按策略表处理
		switch Classify(status, err) {
		case OutcomeSuccess:
			return resp.Body(), nil
		case OutcomeFail:
			return nil, &APIError{StatusCode: status, Detail: resp.String()}
		}

		if err != nil {
			lastErr = &APIError{StatusCode: StatusTransport, Detail: err.Error()}
		} else {
			lastErr = &APIError{StatusCode: status, Detail: resp.String()}
		}

		if ctx.Err() != nil {
			return nil, &APIError{StatusCode: StatusTransport, Detail: ctx.Err().Error()}
		}
		if attempt == c.cfg.MaxRetries {
			break
		}

		// 4. 线性退避
		wait := Backoff(c.cfg.RetryBackoff, attempt)
		c.logger.Warn("woocommerce 请求失败，准备重试",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Int("status", lastErr.StatusCode),
			zap.Duration("backoff", wait),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, &APIError{StatusCode: StatusTransport, Detail: err.Error()}
		}
	}

	return nil, lastErr
}

// ==================== 商品接口 ====================

// CreateProduct POST products
func (c *Client) CreateProduct(ctx context.Context, payload *ProductPayload) (*Product, error) {
	raw, err := c.do(ctx, "POST", "products", nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeProduct(raw)
}

// UpdateProduct PUT products/{id}
func (c *Client) UpdateProduct(ctx context.Context, id int64, payload *ProductPayload) (*Product, error) {
	raw, err := c.do(ctx, "PUT", "products/"+strconv.FormatInt(id, 10), nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeProduct(raw)
}

func decodeProduct(raw []byte) (*Product, error) {
	var p Product
	if len(bytes.TrimSpace(raw)) == 0 {
		return &p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &APIError{StatusCode: 200, Detail: fmt.Sprintf("invalid product response: %v", err)}
	}
	return &p, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
