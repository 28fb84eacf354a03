// Package storage 本地持久化：以 JSON 文档为值的键值存储，不含业务逻辑。
package storage

import (
	"context"
	"fmt"

	"github.com/blues/helprojects/internal/config"
)

// 存储键
const (
	KeyProjects = "helprojects_projects"
	KeyUsers    = "helprojects_users"
	KeySession  = "helprojects_user"
	KeyStats    = "helprojects_stats"
	KeySupports = "helprojects_supports"
	KeyComments = "helprojects_comments"
)

// Store JSON 文档键值存储
type Store interface {
	// Get 读取 key 并解码到 dest，key 不存在时返回 false
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Put 编码 value 并整体覆盖 key
	Put(ctx context.Context, key string, value any) error
	// Delete 删除 key，key 不存在时不报错
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open 按配置创建存储
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "badger":
		return OpenBadger(BadgerOptions{Path: cfg.Path})
	case "redis":
		return OpenRedis(cfg.Redis)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
