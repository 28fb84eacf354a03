// Package remote 可选的远程存储：认证加按列等值过滤的通用表接口
package remote

import (
	"context"
	"errors"

	"github.com/blues/helprojects/internal/model"
)

// 远程表名
const (
	TableProjects  = "projects"
	TableUsers     = "users"
	TableDonations = "donations"
)

var (
	ErrUnavailable        = errors.New("remote store unavailable")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUnknownTable       = errors.New("unknown remote table")
)

// Profile 注册时附带的用户资料
type Profile struct {
	FullName string `json:"full_name"`
	School   string `json:"school"`
	Class    string `json:"class"`
	Role     string `json:"role"`
}

// Table 通用表接口，过滤条件为 column = value
type Table interface {
	// Select 查询到 dest（切片指针），column 为空时返回全表
	Select(ctx context.Context, column string, value any, dest any) error
	Insert(ctx context.Context, row any) error
	Update(ctx context.Context, column string, value any, changes map[string]any) error
	Delete(ctx context.Context, column string, value any) error
}

// Client 远程存储客户端
type Client interface {
	Authenticate(ctx context.Context, email, password string) (*model.Session, error)
	Register(ctx context.Context, email, password string, profile Profile) (*model.Session, error)
	SignOut(ctx context.Context) error
	// GetSession 返回当前远程会话，没有时返回 nil
	GetSession(ctx context.Context) (*model.Session, error)
	// ResumeSession 用本地保存的会话恢复远程登录状态
	ResumeSession(s *model.Session) error
	From(table string) Table
	// IncrementProjectAmount 原子增加项目金额和支持人数
	IncrementProjectAmount(ctx context.Context, projectID string, amount int64) error
	Close() error
}
