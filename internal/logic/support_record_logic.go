package logic

import (
	"context"
	"fmt"
	"sync"

	"github.com/blues/helprojects/internal/model"
	"github.com/blues/helprojects/internal/storage"
)

// SupportRecordLogic 支持记录日志，只追加
type SupportRecordLogic struct {
	store storage.Store

	mu      sync.RWMutex
	records []model.SupportRecord
}

// NewSupportRecordLogic 创建支持记录日志
func NewSupportRecordLogic(store storage.Store) *SupportRecordLogic {
	return &SupportRecordLogic{store: store}
}

// Load 加载历史记录
func (l *SupportRecordLogic) Load(ctx context.Context) error {
	var records []model.SupportRecord
	if _, err := l.store.Get(ctx, storage.KeySupports, &records); err != nil {
		return fmt.Errorf("load supports: %w", err)
	}
	l.mu.Lock()
	l.records = records
	l.mu.Unlock()
	return nil
}

// Append 追加一条记录
func (l *SupportRecordLogic) Append(ctx context.Context, rec model.SupportRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	if err := l.store.Put(ctx, storage.KeySupports, l.records); err != nil {
		return persistenceWarning(storage.KeySupports, err)
	}
	return nil
}

// ByProject 项目的支持记录，按时间先后
func (l *SupportRecordLogic) ByProject(projectID string) []model.SupportRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []model.SupportRecord
	for _, r := range l.records {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out
}

// ByDonor 某个支持者的记录
func (l *SupportRecordLogic) ByDonor(donor string) []model.SupportRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []model.SupportRecord
	for _, r := range l.records {
		if r.Donor == donor {
			out = append(out, r)
		}
	}
	return out
}

// Count 记录总数
func (l *SupportRecordLogic) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
