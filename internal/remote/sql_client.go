package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blues/helprojects/internal/logger"
	"github.com/blues/helprojects/internal/model"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tablePrototypes 已知的远程表
var tablePrototypes = map[string]func() any{
	TableProjects:  func() any { return &model.ProjectModel{} },
	TableUsers:     func() any { return &model.UserModel{} },
	TableDonations: func() any { return &model.DonationModel{} },
}

// SQLClient 基于 gorm 的远程存储实现
type SQLClient struct {
	db     *gorm.DB
	tokens *TokenIssuer

	mu      sync.Mutex
	session *model.Session
}

// NewSQLClient 创建远程客户端
func NewSQLClient(db *gorm.DB, tokens *TokenIssuer) *SQLClient {
	return &SQLClient{db: db, tokens: tokens}
}

// unavailable 把数据库错误统一包装为 ErrUnavailable
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

// Authenticate 校验邮箱和密码
func (c *SQLClient) Authenticate(ctx context.Context, email, password string) (*model.Session, error) {
	var user model.UserModel
	err := c.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, unavailable("authenticate", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return c.startSession(user)
}

// Register 注册新用户并登录
func (c *SQLClient) Register(ctx context.Context, email, password string, profile Profile) (*model.Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := profile.Role
	if role == "" {
		role = "student"
	}
	user := model.UserModel{
		Id:           uuid.NewString(),
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		FullName:     profile.FullName,
		School:       profile.School,
		Class:        profile.Class,
		Role:         role,
	}

	var count int64
	if err := c.db.WithContext(ctx).Model(&model.UserModel{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return nil, unavailable("register", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}
	if err := c.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, unavailable("register", err)
	}
	logger.Info("Registered remote user %s", user.Email)
	return c.startSession(user)
}

func (c *SQLClient) startSession(user model.UserModel) (*model.Session, error) {
	u := user.ToUser()
	token, expiresAt, err := c.tokens.Issue(u.ID, u.Email, u.Name)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	s := &model.Session{User: u, AccessToken: token, ExpiresAt: expiresAt, Remote: true}

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return s, nil
}

func (c *SQLClient) SignOut(_ context.Context) error {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	return nil
}

// GetSession 当前会话，令牌过期时视为未登录
func (c *SQLClient) GetSession(_ context.Context) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, nil
	}
	if _, err := c.tokens.Parse(c.session.AccessToken); err != nil {
		c.session = nil
		return nil, nil
	}
	s := *c.session
	return &s, nil
}

// ResumeSession 用已保存的令牌恢复会话
func (c *SQLClient) ResumeSession(s *model.Session) error {
	if s == nil || s.AccessToken == "" {
		return errors.New("no access token")
	}
	if _, err := c.tokens.Parse(s.AccessToken); err != nil {
		return fmt.Errorf("resume session: %w", err)
	}
	cp := *s
	c.mu.Lock()
	c.session = &cp
	c.mu.Unlock()
	return nil
}

// IncrementProjectAmount 在事务中累加金额，达到目标时置为 completed
func (c *SQLClient) IncrementProjectAmount(ctx context.Context, projectID string, amount int64) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ProjectModel{}).
			Where("id = ?", projectID).
			Updates(map[string]any{
				"current_amount": gorm.Expr("current_amount + ?", amount),
				"donors":         gorm.Expr("donors + 1"),
				"status": gorm.Expr("CASE WHEN current_amount + ? >= goal THEN ? ELSE status END",
					amount, string(model.ProjectStatusCompleted)),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return unavailable("increment project amount", err)
	}
	return nil
}

func (c *SQLClient) From(table string) Table {
	return &sqlTable{db: c.db, name: table}
}

func (c *SQLClient) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type sqlTable struct {
	db   *gorm.DB
	name string
}

func (t *sqlTable) prototype() (any, error) {
	newRow, ok := tablePrototypes[t.name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, t.name)
	}
	return newRow(), nil
}

func (t *sqlTable) scoped(ctx context.Context, column string, value any) *gorm.DB {
	q := t.db.WithContext(ctx).Table(t.name)
	if column != "" {
		q = q.Where(clause.Eq{Column: clause.Column{Name: column}, Value: value})
	}
	return q
}

func (t *sqlTable) Select(ctx context.Context, column string, value any, dest any) error {
	if _, err := t.prototype(); err != nil {
		return err
	}
	if err := t.scoped(ctx, column, value).Order("created_at DESC").Find(dest).Error; err != nil {
		return unavailable("select "+t.name, err)
	}
	return nil
}

func (t *sqlTable) Insert(ctx context.Context, row any) error {
	if _, err := t.prototype(); err != nil {
		return err
	}
	if err := t.db.WithContext(ctx).Table(t.name).Create(row).Error; err != nil {
		return unavailable("insert "+t.name, err)
	}
	return nil
}

func (t *sqlTable) Update(ctx context.Context, column string, value any, changes map[string]any) error {
	proto, err := t.prototype()
	if err != nil {
		return err
	}
	if column == "" {
		return errors.New("update requires a filter column")
	}
	if err := t.db.WithContext(ctx).Model(proto).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Updates(changes).Error; err != nil {
		return unavailable("update "+t.name, err)
	}
	return nil
}

func (t *sqlTable) Delete(ctx context.Context, column string, value any) error {
	proto, err := t.prototype()
	if err != nil {
		return err
	}
	if column == "" {
		return errors.New("delete requires a filter column")
	}
	if err := t.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Delete(proto).Error; err != nil {
		return unavailable("delete "+t.name, err)
	}
	return nil
}
