// Package remotetest 内存版远程存储，供测试使用
package remotetest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blues/helprojects/internal/model"
	"github.com/blues/helprojects/internal/remote"
	"github.com/google/uuid"
)

// Fake 内存远程存储
type Fake struct {
	mu        sync.Mutex
	err       error
	users     map[string]fakeUser
	session   *model.Session
	Projects  map[string]model.ProjectModel
	Donations []model.DonationModel
	Calls     []string
}

type fakeUser struct {
	user     model.User
	password string
}

// New 创建空的远程存储
func New() *Fake {
	return &Fake{
		users:    map[string]fakeUser{},
		Projects: map[string]model.ProjectModel{},
	}
}

// Fail 之后所有操作返回 ErrUnavailable，nil 恢复
func (f *Fake) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *Fake) check(call string) error {
	f.Calls = append(f.Calls, call)
	if f.err != nil {
		return fmt.Errorf("%s: %w: %v", call, remote.ErrUnavailable, f.err)
	}
	return nil
}

// CallLog 已发生的调用
func (f *Fake) CallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.Calls...)
}

// AddUser 预置用户
func (f *Fake) AddUser(name, email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(email)
	f.users[email] = fakeUser{
		user:     model.User{ID: uuid.NewString(), Name: name, Email: email, Avatar: model.AvatarGlyph(name), CreatedAt: time.Now()},
		password: password,
	}
}

func (f *Fake) Authenticate(_ context.Context, email, password string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("authenticate"); err != nil {
		return nil, err
	}
	u, ok := f.users[strings.ToLower(email)]
	if !ok || u.password != password {
		return nil, remote.ErrInvalidCredentials
	}
	f.session = &model.Session{User: u.user, AccessToken: "token-" + u.user.ID, ExpiresAt: time.Now().Add(time.Hour), Remote: true}
	s := *f.session
	return &s, nil
}

func (f *Fake) Register(_ context.Context, email, password string, profile remote.Profile) (*model.Session, error) {
	f.mu.Lock()
	if err := f.check("register"); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if _, exists := f.users[strings.ToLower(email)]; exists {
		f.mu.Unlock()
		return nil, remote.ErrUserExists
	}
	f.mu.Unlock()

	f.AddUser(profile.FullName, email, password)
	return f.Authenticate(context.Background(), email, password)
}

func (f *Fake) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("sign_out"); err != nil {
		return err
	}
	f.session = nil
	return nil
}

func (f *Fake) GetSession(context.Context) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil, nil
	}
	s := *f.session
	return &s, nil
}

func (f *Fake) ResumeSession(s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s == nil || s.AccessToken == "" || time.Now().After(s.ExpiresAt) {
		return errors.New("session expired")
	}
	cp := *s
	f.session = &cp
	return nil
}

func (f *Fake) IncrementProjectAmount(_ context.Context, id string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.check("increment"); err != nil {
		return err
	}
	row, ok := f.Projects[id]
	if !ok {
		return fmt.Errorf("project %s: %w", id, remote.ErrUnavailable)
	}
	row.CurrentAmount += amount
	row.Donors++
	if row.CurrentAmount >= row.Goal {
		row.Status = model.ProjectStatusCompleted
	}
	f.Projects[id] = row
	return nil
}

func (f *Fake) From(table string) remote.Table {
	return &fakeTable{f: f, name: table}
}

func (f *Fake) Close() error { return nil }

type fakeTable struct {
	f    *Fake
	name string
}

func (t *fakeTable) Select(_ context.Context, column string, value any, dest any) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.check("select " + t.name); err != nil {
		return err
	}
	rows, ok := dest.(*[]model.ProjectModel)
	if t.name != remote.TableProjects || !ok {
		return remote.ErrUnknownTable
	}
	*rows = (*rows)[:0]
	for _, row := range t.f.Projects {
		if column == "" || (column == "id" && row.Id == value) || (column == "author_email" && row.AuthorEmail == value) {
			*rows = append(*rows, row)
		}
	}
	return nil
}

func (t *fakeTable) Insert(_ context.Context, row any) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.check("insert " + t.name); err != nil {
		return err
	}
	switch r := row.(type) {
	case *model.ProjectModel:
		t.f.Projects[r.Id] = *r
	case *model.DonationModel:
		t.f.Donations = append(t.f.Donations, *r)
	default:
		return remote.ErrUnknownTable
	}
	return nil
}

func (t *fakeTable) Update(_ context.Context, column string, value any, changes map[string]any) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.check("update " + t.name); err != nil {
		return err
	}
	id, _ := value.(string)
	row, ok := t.f.Projects[id]
	if t.name != remote.TableProjects || column != "id" || !ok {
		return nil
	}
	if v, ok := changes["title"].(string); ok {
		row.Title = v
	}
	if v, ok := changes["description"].(string); ok {
		row.Description = v
	}
	if v, ok := changes["category"].(string); ok {
		row.Category = v
	}
	if v, ok := changes["status"].(string); ok {
		row.Status = model.ProjectStatus(v)
	}
	t.f.Projects[id] = row
	return nil
}

func (t *fakeTable) Delete(_ context.Context, column string, value any) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if err := t.f.check("delete " + t.name); err != nil {
		return err
	}
	if id, ok := value.(string); ok && column == "id" {
		delete(t.f.Projects, id)
	}
	return nil
}
