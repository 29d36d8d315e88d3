package task

import (
	"context"

	"go.uber.org/zap"

	"memshaheb_backend/internal/service"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台定时任务
// 目前只有商品链接重试；未配置调度表达式时不启动
type TaskManager struct {
	retryTask *LinkRetryTask
	logger    *zap.Logger
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	RetrySchedule  string // 为空则不启用
	RetryBatchSize int
}

// NewTaskManager 创建任务管理器
func NewTaskManager(retrier LinkRetrier, cfg TaskManagerConfig, logger *zap.Logger) *TaskManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	tm := &TaskManager{logger: logger}
	if cfg.RetrySchedule != "" && retrier != nil {
		tm.retryTask = NewLinkRetryTask(retrier, cfg.RetrySchedule, cfg.RetryBatchSize, logger)
	}
	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有已启用的任务
func (tm *TaskManager) Start() error {
	if tm.retryTask == nil {
		tm.logger.Info("未配置 WC_RETRY_SCHEDULE，跳过定时重试")
		return nil
	}
	return tm.retryTask.Start()
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	if tm.retryTask != nil {
		tm.retryTask.Stop()
	}
}

// ==================== 手动触发接口 ====================

// TriggerRetry 立即执行一轮链接重试
func (tm *TaskManager) TriggerRetry(ctx context.Context) (service.RetrySummary, error) {
	if tm.retryTask == nil {
		return service.RetrySummary{}, ErrTaskDisabled
	}
	return tm.retryTask.RunNow(ctx)
}

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"link_retry": tm.retryTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
	ErrTaskBusy     TaskError = "task is already running"
)
