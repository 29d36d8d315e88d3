package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== SyncCooldown 同步冷却 ====================

// SyncCooldown 手动触发的批量同步冷却，防止重复点击把远端打满
type SyncCooldown struct {
	locks sync.Map // key -> *lockEntry
	now   func() time.Time
}

type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// NewSyncCooldown 创建冷却器
func NewSyncCooldown() *SyncCooldown {
	return &SyncCooldown{now: time.Now}
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Check 冷却期外放行并记录本次时间
func (r *SyncCooldown) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	if elapsed := now.Sub(entry.lastTime); elapsed < interval {
		return CheckResult{Allowed: false, RetryAfter: interval - elapsed}
	}
	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key
func (r *SyncCooldown) Reset(key string) {
	r.locks.Delete(key)
}

// Middleware 冷却中返回 429
func (r *SyncCooldown) Middleware(key string, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := r.Check(key, interval)
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": int(result.RetryAfter.Seconds()),
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("Sync cooling down, retry in %d seconds", seconds)
	}
	return fmt.Sprintf("Sync cooling down, retry in %dm%ds", seconds/60, seconds%60)
}
