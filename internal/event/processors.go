package event

import (
	"github.com/blues/helprojects/internal/logger"
	"github.com/blues/helprojects/internal/metrics"
)

// MetricsProcessor 把事件计入 prometheus
type MetricsProcessor struct{}

func NewMetricsProcessor() *MetricsProcessor {
	return &MetricsProcessor{}
}

func (p *MetricsProcessor) GetName() string { return "metrics" }

// Process 处理事件
func (p *MetricsProcessor) Process(e Event) error {
	metrics.ProjectEvents.WithLabelValues(string(e.Type)).Inc()
	if e.Type == ProjectSupported && e.Amount > 0 {
		metrics.DonationAmount.Add(float64(e.Amount))
	}
	return nil
}

// LogProcessor 记录事件日志
type LogProcessor struct{}

func NewLogProcessor() *LogProcessor {
	return &LogProcessor{}
}

func (p *LogProcessor) GetName() string { return "log" }

// Process 处理事件
func (p *LogProcessor) Process(e Event) error {
	switch e.Type {
	case ProjectSupported:
		logger.Info("Project %s supported with %d, collected %d/%d", e.Project.ID, e.Amount, e.Project.Collected, e.Project.Goal)
	case ProjectCompleted:
		logger.Info("Project %s reached its goal of %d", e.Project.ID, e.Project.Goal)
	default:
		logger.Info("Processed %s event for project %s", e.Type, e.Project.ID)
	}
	return nil
}
