package task

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"memshaheb_backend/internal/service"
)

// LinkRetrier 批量重试 ERROR 链接
type LinkRetrier interface {
	RetryFailed(ctx context.Context, limit int) (service.RetrySummary, error)
}

// LinkRetryTask 定时把 ERROR 链接重新推送到商城
type LinkRetryTask struct {
	retrier  LinkRetrier
	cron     *cron.Cron
	schedule string
	batch    int
	timeout  time.Duration
	running  atomic.Bool
	logger   *zap.Logger
}

// NewLinkRetryTask schedule 为六段 cron 表达式（含秒）
func NewLinkRetryTask(retrier LinkRetrier, schedule string, batch int, logger *zap.Logger) *LinkRetryTask {
	if batch <= 0 {
		batch = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkRetryTask{
		retrier:  retrier,
		cron:     cron.New(cron.WithSeconds()),
		schedule: schedule,
		batch:    batch,
		timeout:  5 * time.Minute,
		logger:   logger.Named("link_retry"),
	}
}

// Start 注册并启动定时任务，表达式非法时返回错误
func (t *LinkRetryTask) Start() error {
	if _, err := t.cron.AddFunc(t.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		_, _ = t.RunNow(ctx)
	}); err != nil {
		return fmt.Errorf("invalid retry schedule %q: %w", t.schedule, err)
	}
	t.cron.Start()
	t.logger.Info("链接重试任务已启动", zap.String("schedule", t.schedule), zap.Int("batch", t.batch))
	return nil
}

// Stop 停止调度并等待正在执行的一轮结束
func (t *LinkRetryTask) Stop() {
	<-t.cron.Stop().Done()
	t.logger.Info("链接重试任务已停止")
}

// RunNow 立即执行一轮；上一轮未结束时直接跳过
func (t *LinkRetryTask) RunNow(ctx context.Context) (service.RetrySummary, error) {
	if !t.running.CompareAndSwap(false, true) {
		t.logger.Debug("上一轮重试仍在执行，跳过")
		return service.RetrySummary{}, ErrTaskBusy
	}
	defer t.running.Store(false)

	start := time.Now()
	summary, err := t.retrier.RetryFailed(ctx, t.batch)
	if err != nil {
		t.logger.Warn("链接重试失败", zap.Error(err))
		return summary, err
	}
	if summary.Attempted > 0 {
		t.logger.Info("链接重试完成",
			zap.Int("attempted", summary.Attempted),
			zap.Int("synced", summary.Synced),
			zap.Int("failed", summary.Failed),
			zap.Int("skipped", summary.Skipped),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return summary, nil
}
