package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// ActivitySimulator 产生一条模拟的平台动态
type ActivitySimulator interface {
	SimulateActivity(ctx context.Context)
}

// ActivityJob 模拟平台活动提示
type ActivityJob struct {
	target   ActivitySimulator
	interval time.Duration
}

func NewActivityJob(target ActivitySimulator, interval time.Duration) *ActivityJob {
	return &ActivityJob{target: target, interval: interval}
}

func (j *ActivityJob) GetName() string {
	return "simulated_activity"
}

func (j *ActivityJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

func (j *ActivityJob) Execute() {
	ctx, cancel := jobContext(10 * time.Second)
	defer cancel()
	j.target.SimulateActivity(ctx)
}
