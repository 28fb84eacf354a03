// Package event 项目领域事件的分发
package event

import (
	"sync"
	"time"

	"github.com/blues/helprojects/internal/logger"
	"github.com/blues/helprojects/internal/model"
)

// Type 事件类型
type Type string

const (
	ProjectCreated   Type = "project-created"
	ProjectUpdated   Type = "project-updated"
	ProjectDeleted   Type = "project-deleted"
	ProjectSupported Type = "project-supported"
	ProjectCompleted Type = "project-completed"
)

// Event 领域事件
type Event struct {
	Type    Type
	Project model.Project
	Amount  int64 // 仅 project-supported
	At      time.Time
}

// Processor 事件处理器
type Processor interface {
	Process(e Event) error
	GetName() string
}

// Dispatcher 事件分发器，同步调用所有处理器
type Dispatcher struct {
	mu         sync.RWMutex
	processors []Processor
}

// NewDispatcher 创建分发器
func NewDispatcher(processors ...Processor) *Dispatcher {
	d := &Dispatcher{}
	for _, p := range processors {
		d.Register(p)
	}
	return d
}

// Register 注册处理器
func (d *Dispatcher) Register(p Processor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processors = append(d.processors, p)
	logger.Debug("Registered event processor: %s", p.GetName())
}

// Dispatch 分发事件，处理器错误只记录日志；nil 分发器直接忽略
func (d *Dispatcher) Dispatch(e Event) {
	if d == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	d.mu.RLock()
	processors := append([]Processor(nil), d.processors...)
	d.mu.RUnlock()

	for _, p := range processors {
		if err := p.Process(e); err != nil {
			logger.Error("Event processor %s failed on %s for project %s: %v", p.GetName(), e.Type, e.Project.ID, err)
		}
	}
}
