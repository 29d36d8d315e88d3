package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ==================== 限流规则 ====================

// RateRule 形如 "60/minute" 的限流规则
type RateRule struct {
	Count  int
	Period time.Duration
}

// ParseRateLimit 解析 "N/second|minute|hour|day"
func ParseRateLimit(s string) (RateRule, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "/", 2)
	if len(parts) != 2 {
		return RateRule{}, fmt.Errorf("invalid rate limit %q", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || n <= 0 {
		return RateRule{}, fmt.Errorf("invalid rate limit count %q", parts[0])
	}

	var period time.Duration
	switch strings.ToLower(strings.TrimSpace(parts[1])) {
	case "second", "s":
		period = time.Second
	case "minute", "m":
		period = time.Minute
	case "hour", "h":
		period = time.Hour
	case "day", "d":
		period = 24 * time.Hour
	default:
		return RateRule{}, fmt.Errorf("invalid rate limit period %q", parts[1])
	}
	return RateRule{Count: n, Period: period}, nil
}

// ==================== IPRateLimiter ====================

// IPRateLimiter 按客户端 IP 的令牌桶
type IPRateLimiter struct {
	rule     RateRule
	limiters sync.Map // ip -> *limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

// NewIPRateLimiter 创建限流器
func NewIPRateLimiter(rule RateRule) *IPRateLimiter {
	return &IPRateLimiter{rule: rule}
}

// Allow 消耗 key 的一个令牌
func (l *IPRateLimiter) Allow(key string, now time.Time) bool {
	every := rate.Every(l.rule.Period / time.Duration(l.rule.Count))
	actual, _ := l.limiters.LoadOrStore(key, &limiterEntry{limiter: rate.NewLimiter(every, l.rule.Count)})
	entry := actual.(*limiterEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// Sweep 清理长时间未访问的条目
func (l *IPRateLimiter) Sweep(idle time.Duration, now time.Time) {
	l.limiters.Range(func(k, v interface{}) bool {
		entry := v.(*limiterEntry)
		entry.mu.Lock()
		stale := now.Sub(entry.lastSeen) > idle
		entry.mu.Unlock()
		if stale {
			l.limiters.Delete(k)
		}
		return true
	})
}

// Middleware gin 中间件，超限返回 429
func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Ceil((l.rule.Period / time.Duration(l.rule.Count)).Seconds())))
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP(), time.Now()) {
			c.Header("Retry-After", retryAfter)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": "Rate limit exceeded: " + l.rule.String(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r RateRule) String() string {
	unit := "second"
	switch r.Period {
	case time.Minute:
		unit = "minute"
	case time.Hour:
		unit = "hour"
	case 24 * time.Hour:
		unit = "day"
	}
	return fmt.Sprintf("%d per %s", r.Count, unit)
}
