package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore 内存存储，值以 JSON 保存，行为与持久化实现一致
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailWrites 非空时所有写入返回该错误，用于模拟配额不足
	FailWrites error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (s *MemoryStore) Get(_ context.Context, key string, dest any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	s.data[key] = raw
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites != nil {
		return s.FailWrites
	}
	delete(s.data, key)
	return nil
}

// SetFailWrites 切换写入失败模式
func (s *MemoryStore) SetFailWrites(err error) {
	s.mu.Lock()
	s.FailWrites = err
	s.mu.Unlock()
}

func (s *MemoryStore) Close() error { return nil }
