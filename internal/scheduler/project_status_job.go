package scheduler

import (
	"context"
	"time"

	"github.com/blues/helprojects/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// StatusReconciler 把已达到目标的项目标记为完成
type StatusReconciler interface {
	ReconcileStatuses(ctx context.Context) (int, error)
}

// ProjectStatusJob 项目状态更新任务
type ProjectStatusJob struct {
	target   StatusReconciler
	interval time.Duration
}

// NewProjectStatusJob 创建项目状态更新任务
func NewProjectStatusJob(target StatusReconciler, interval time.Duration) *ProjectStatusJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ProjectStatusJob{
		target:   target,
		interval: interval,
	}
}

// GetName 获取任务名称
func (j *ProjectStatusJob) GetName() string {
	return "project_status_reconciler"
}

// GetSchedule 获取调度配置
func (j *ProjectStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *ProjectStatusJob) Execute() {
	ctx, cancel := jobContext(30 * time.Second)
	defer cancel()

	updated, err := j.target.ReconcileStatuses(ctx)
	if err != nil {
		logger.Error("Failed to reconcile project statuses: %v", err)
		return
	}
	if updated > 0 {
		logger.Info("Project status update completed, marked %d projects as completed", updated)
	}
}
