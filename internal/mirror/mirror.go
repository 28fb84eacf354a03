// Package mirror 把本地项目变更异步写入远程存储
package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blues/helprojects/internal/logger"
	"github.com/blues/helprojects/internal/metrics"
	"github.com/blues/helprojects/internal/model"
	"github.com/blues/helprojects/internal/remote"
	"github.com/panjf2000/ants/v2"
)

// ErrDisabled 未配置远程存储
var ErrDisabled = errors.New("remote mirror disabled")

// 远程写入操作名
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpSupport = "support"
)

// FailureHandler 远程写入失败回调，在工作协程中调用
type FailureHandler func(op, projectID string, err error)

// Mirror 远程镜像；写入尽力而为，读取失败时由调用方回退到本地
type Mirror interface {
	ProjectCreated(p model.Project)
	ProjectUpdated(p model.Project)
	ProjectDeleted(id string)
	ProjectSupported(rec model.SupportRecord)
	FetchProjects(ctx context.Context) ([]model.Project, error)
	SetFailureHandler(h FailureHandler)
	Close()
}

// Nop 不做任何远程写入
type Nop struct{}

func (Nop) ProjectCreated(model.Project) {}
func (Nop) ProjectUpdated(model.Project) {}
func (Nop) ProjectDeleted(string) {}
func (Nop) ProjectSupported(model.SupportRecord) {}
func (Nop) SetFailureHandler(FailureHandler) {}
func (Nop) Close() {}
func (Nop) FetchProjects(context.Context) ([]model.Project, error) {
	return nil, ErrDisabled
}

// RemoteMirror 通过协程池异步写入远程存储
type RemoteMirror struct {
	client  remote.Client
	pool    *ants.Pool
	timeout time.Duration
	wg      sync.WaitGroup

	mu        sync.RWMutex
	onFailure FailureHandler
}

// New 创建远程镜像，poolSize 为并发写入协程数
func New(client remote.Client, poolSize int) (*RemoteMirror, error) {
	if poolSize <= 0 {
		poolSize = 4
	}
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("failed to create mirror pool: %w", err)
	}
	return &RemoteMirror{
		client:  client,
		pool:    pool,
		timeout: 10 * time.Second,
	}, nil
}

func (m *RemoteMirror) SetFailureHandler(h FailureHandler) {
	m.mu.Lock()
	m.onFailure = h
	m.mu.Unlock()
}

func (m *RemoteMirror) fail(op, projectID string, err error) {
	metrics.RemoteFailures.WithLabelValues(op).Inc()
	logger.Warn("Remote %s for project %s failed: %v", op, projectID, err)

	m.mu.RLock()
	h := m.onFailure
	m.mu.RUnlock()
	if h != nil {
		h(op, projectID, err)
	}
}

// submit 提交一次远程写入
func (m *RemoteMirror) submit(op, projectID string, fn func(ctx context.Context) error) {
	m.wg.Add(1)
	task := func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			m.fail(op, projectID, err)
			return
		}
		logger.Debug("Remote %s for project %s done", op, projectID)
	}
	if err := m.pool.Submit(task); err != nil {
		m.wg.Done()
		logger.Error("Failed to submit remote %s task to pool: %v", op, err)
		// 回调可能需要调用方持有的锁，放到独立协程
		go m.fail(op, projectID, err)
	}
}

func (m *RemoteMirror) ProjectCreated(p model.Project) {
	row := model.NewProjectModel(&p)
	m.submit(OpCreate, p.ID, func(ctx context.Context) error {
		return m.client.From(remote.TableProjects).Insert(ctx, &row)
	})
}

func (m *RemoteMirror) ProjectUpdated(p model.Project) {
	changes := ProjectChanges(p)
	m.submit(OpUpdate, p.ID, func(ctx context.Context) error {
		return m.client.From(remote.TableProjects).Update(ctx, "id", p.ID, changes)
	})
}

func (m *RemoteMirror) ProjectDeleted(id string) {
	m.submit(OpDelete, id, func(ctx context.Context) error {
		return m.client.From(remote.TableProjects).Delete(ctx, "id", id)
	})
}

func (m *RemoteMirror) ProjectSupported(rec model.SupportRecord) {
	row := model.NewDonationModel(&rec)
	m.submit(OpSupport, rec.ProjectID, func(ctx context.Context) error {
		if err := m.client.IncrementProjectAmount(ctx, rec.ProjectID, rec.EffectiveAmount); err != nil {
			return err
		}
		return m.client.From(remote.TableDonations).Insert(ctx, &row)
	})
}

// FetchProjects 同步读取远程项目列表
func (m *RemoteMirror) FetchProjects(ctx context.Context) ([]model.Project, error) {
	var rows []model.ProjectModel
	if err := m.client.From(remote.TableProjects).Select(ctx, "", nil, &rows); err != nil {
		return nil, err
	}
	projects := make([]model.Project, 0, len(rows))
	for i := range rows {
		projects = append(projects, rows[i].ToProject())
	}
	return projects, nil
}

// Wait 等待已提交的写入完成
func (m *RemoteMirror) Wait() {
	m.wg.Wait()
}

// Close 等待写入完成并释放协程池
func (m *RemoteMirror) Close() {
	m.wg.Wait()
	m.pool.Release()
}

// ProjectChanges 项目可变列
func ProjectChanges(p model.Project) map[string]any {
	changes := map[string]any{
		"title":          p.Title,
		"description":    p.Description,
		"category":       p.Category,
		"image_url":      p.Image,
		"deadline":       p.Deadline,
		"status":         string(p.Status),
		"current_amount": p.Collected,
		"donors":         p.Donors,
		"updated_at":     p.UpdatedAt,
	}
	if p.Rating != nil {
		changes["rating_total"] = p.Rating.Total
		changes["rating_count"] = p.Rating.Count
	}
	return changes
}
