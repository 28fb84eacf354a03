package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/blues/helprojects/internal/logger"
	"github.com/blues/helprojects/internal/model"
	"github.com/blues/helprojects/internal/remote"
	"github.com/blues/helprojects/internal/storage"
	"github.com/google/uuid"
)

// DefaultUserName 未填写名字时的默认值
const DefaultUserName = "Пользователь"

// LoginInput 登录表单，本地模式不校验密码
type LoginInput struct {
	Name     string `json:"name" form:"name" validate:"max=50"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password"`
}

// RegisterInput 注册表单
type RegisterInput struct {
	Name     string `json:"name" form:"name" validate:"max=50"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"omitempty,min=6"`
	School   string `json:"school" form:"school"`
	Class    string `json:"class" form:"class"`
}

func normalizeIdentity(name, email string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultUserName
	}
	return name, strings.ToLower(strings.TrimSpace(email))
}

// Authenticator 身份认证后端，启动时选定本地或远程实现
type Authenticator interface {
	Login(ctx context.Context, in LoginInput) (*model.Session, error)
	Register(ctx context.Context, in RegisterInput) (*model.Session, error)
	Logout(ctx context.Context) error
	// Resume 校验恢复出的会话是否仍然有效
	Resume(ctx context.Context, s *model.Session) error
}

// LocalAuthenticator 本地认证：不校验密码，用户列表保存在本地存储
type LocalAuthenticator struct {
	store storage.Store
	now   func() time.Time
}

// NewLocalAuthenticator 创建本地认证
func NewLocalAuthenticator(store storage.Store) *LocalAuthenticator {
	return &LocalAuthenticator{store: store, now: time.Now}
}

func (a *LocalAuthenticator) Login(ctx context.Context, in LoginInput) (*model.Session, error) {
	in.Name, in.Email = normalizeIdentity(in.Name, in.Email)
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	user, err := a.upsert(ctx, in.Name, in.Email, strings.TrimSpace(in.Name) != DefaultUserName)
	if err != nil {
		return &model.Session{User: user}, err
	}
	return &model.Session{User: user}, nil
}

func (a *LocalAuthenticator) Register(ctx context.Context, in RegisterInput) (*model.Session, error) {
	return a.Login(ctx, LoginInput{Name: in.Name, Email: in.Email})
}

// upsert 按邮箱新增或更新用户；rename 为 false 时保留已有名字
func (a *LocalAuthenticator) upsert(ctx context.Context, name, email string, rename bool) (model.User, error) {
	var users []model.User
	if _, err := a.store.Get(ctx, storage.KeyUsers, &users); err != nil {
		logger.Warn("Failed to read local users: %v", err)
	}

	var user model.User
	found := false
	for i := range users {
		if users[i].Email == email {
			if rename {
				users[i].Name = name
				users[i].Avatar = model.AvatarGlyph(name)
			}
			user = users[i]
			found = true
			break
		}
	}
	if !found {
		user = model.User{
			ID:        uuid.NewString(),
			Name:      name,
			Email:     email,
			Avatar:    model.AvatarGlyph(name),
			CreatedAt: a.now(),
		}
		users = append(users, user)
	}

	if err := a.store.Put(ctx, storage.KeyUsers, users); err != nil {
		return user, persistenceWarning(storage.KeyUsers, err)
	}
	return user, nil
}

func (a *LocalAuthenticator) Logout(context.Context) error { return nil }

func (a *LocalAuthenticator) Resume(context.Context, *model.Session) error { return nil }

// RemoteAuthenticator 远程认证，密码由远程存储校验
type RemoteAuthenticator struct {
	client remote.Client
}

// NewRemoteAuthenticator 创建远程认证
func NewRemoteAuthenticator(client remote.Client) *RemoteAuthenticator {
	return &RemoteAuthenticator{client: client}
}

func (a *RemoteAuthenticator) Login(ctx context.Context, in LoginInput) (*model.Session, error) {
	_, email := normalizeIdentity(in.Name, in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, newValidationError("password", "Введите пароль")
	}
	s, err := a.client.Authenticate(ctx, email, in.Password)
	if err != nil {
		return nil, remoteAuthError(err)
	}
	return s, nil
}

func (a *RemoteAuthenticator) Register(ctx context.Context, in RegisterInput) (*model.Session, error) {
	in.Name, in.Email = normalizeIdentity(in.Name, in.Email)
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(in.Password) < 6 {
		return nil, newValidationError("password", fieldMessages["password"])
	}
	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	s, err := a.client.Register(ctx, in.Email, in.Password, remote.Profile{
		FullName: in.Name,
		School:   strings.TrimSpace(in.School),
		Class:    strings.TrimSpace(in.Class),
	})
	if err != nil {
		return nil, remoteAuthError(err)
	}
	return s, nil
}

func (a *RemoteAuthenticator) Logout(ctx context.Context) error {
	return a.client.SignOut(ctx)
}

func (a *RemoteAuthenticator) Resume(_ context.Context, s *model.Session) error {
	return a.client.ResumeSession(s)
}

// remoteAuthError 转换为面向用户的错误
func remoteAuthError(err error) error {
	switch {
	case errors.Is(err, remote.ErrInvalidCredentials):
		return fmt.Errorf("%w: %w", ErrAuthRequired, err)
	case errors.Is(err, remote.ErrUserExists):
		return newValidationError("email", "Пользователь с таким email уже существует")
	default:
		return err
	}
}

// SessionLogic 当前会话，同一实例最多一个
type SessionLogic struct {
	store storage.Store
	auth  Authenticator

	mu      sync.RWMutex
	current *model.Session
}

// NewSessionLogic 创建会话逻辑
func NewSessionLogic(store storage.Store, auth Authenticator) *SessionLogic {
	return &SessionLogic{store: store, auth: auth}
}

// Current 当前会话，未登录时返回 nil
func (l *SessionLogic) Current() *model.Session {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.current == nil {
		return nil
	}
	s := *l.current
	return &s
}

// Login 登录并保存会话
func (l *SessionLogic) Login(ctx context.Context, in LoginInput) (*model.Session, error) {
	s, err := l.auth.Login(ctx, in)
	return l.begin(ctx, s, err)
}

// Register 注册并登录
func (l *SessionLogic) Register(ctx context.Context, in RegisterInput) (*model.Session, error) {
	s, err := l.auth.Register(ctx, in)
	return l.begin(ctx, s, err)
}

func (l *SessionLogic) begin(ctx context.Context, s *model.Session, err error) (*model.Session, error) {
	if err != nil && !IsWarning(err) {
		return nil, err
	}
	l.mu.Lock()
	l.current = s
	l.mu.Unlock()

	if perr := l.store.Put(ctx, storage.KeySession, s); perr != nil {
		return s, persistenceWarning(storage.KeySession, perr)
	}
	logger.Info("User %s signed in", s.User.Email)
	return s, err
}

// Logout 退出并删除保存的会话；远程退出失败只记录日志
func (l *SessionLogic) Logout(ctx context.Context) error {
	l.mu.Lock()
	l.current = nil
	l.mu.Unlock()

	if err := l.auth.Logout(ctx); err != nil {
		logger.Warn("Remote sign out failed: %v", err)
	}
	if err := l.store.Delete(ctx, storage.KeySession); err != nil {
		return persistenceWarning(storage.KeySession, err)
	}
	return nil
}

// Restore 启动时恢复会话，失效的远程会话会被丢弃
func (l *SessionLogic) Restore(ctx context.Context) (*model.Session, error) {
	var s model.Session
	found, err := l.store.Get(ctx, storage.KeySession, &s)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if !found || s.User.Email == "" {
		return nil, nil
	}
	if err := l.auth.Resume(ctx, &s); err != nil {
		logger.Info("Dropping stored session for %s: %v", s.User.Email, err)
		if derr := l.store.Delete(ctx, storage.KeySession); derr != nil {
			logger.Warn("Failed to delete stale session: %v", derr)
		}
		return nil, nil
	}
	l.mu.Lock()
	l.current = &s
	l.mu.Unlock()
	return &s, nil
}
