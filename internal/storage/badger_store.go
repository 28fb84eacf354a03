package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/blues/helprojects/internal/logger"
	"github.com/dgraph-io/badger/v4"
)

// BadgerOptions badger 配置
type BadgerOptions struct {
	Path     string
	InMemory bool // 测试用
}

// BadgerStore 基于 badger 的本地存储
type BadgerStore struct {
	db *badger.DB
}

// badgerLogger 把 badger 日志转到 logger，只保留警告和错误
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) { logger.Error(format, args...) }
func (badgerLogger) Warningf(format string, args ...interface{}) { logger.Warn(format, args...) }
func (badgerLogger) Infof(string, ...interface{}) {}
func (badgerLogger) Debugf(string, ...interface{}) {}

// OpenBadger 打开 badger 数据库
func OpenBadger(o BadgerOptions) (*BadgerStore, error) {
	var opts badger.Options
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if o.Path == "" {
			return nil, errors.New("badger path is required")
		}
		if err := os.MkdirAll(o.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create storage directory %s: %w", o.Path, err)
		}
		opts = badger.DefaultOptions(o.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Get(_ context.Context, key string, dest any) (bool, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *BadgerStore) Put(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	}); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) Delete(_ context.Context, key string) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
