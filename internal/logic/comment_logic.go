package logic

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blues/helprojects/internal/model"
	"github.com/blues/helprojects/internal/storage"
	"github.com/google/uuid"
)

// CommentInput 评论表单
type CommentInput struct {
	Text string `json:"text" form:"text" validate:"required,max=500"`
}

// CommentLogic 项目评论，按项目 ID 分组保存
type CommentLogic struct {
	store storage.Store
	now   func() time.Time

	mu       sync.RWMutex
	comments map[string][]model.Comment
}

// NewCommentLogic 创建评论逻辑
func NewCommentLogic(store storage.Store) *CommentLogic {
	return &CommentLogic{store: store, now: time.Now, comments: map[string][]model.Comment{}}
}

// Load 加载评论
func (l *CommentLogic) Load(ctx context.Context) error {
	comments := map[string][]model.Comment{}
	if _, err := l.store.Get(ctx, storage.KeyComments, &comments); err != nil {
		return fmt.Errorf("load comments: %w", err)
	}
	l.mu.Lock()
	l.comments = comments
	l.mu.Unlock()
	return nil
}

// Add 添加评论，author 为空时记为匿名
func (l *CommentLogic) Add(ctx context.Context, projectID, author string, in CommentInput) (model.Comment, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := validateStruct(&in); err != nil {
		return model.Comment{}, err
	}
	if author == "" {
		author = AnonymousAuthor
	}
	c := model.Comment{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Author:    author,
		Text:      in.Text,
		CreatedAt: l.now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.comments[projectID] = append(l.comments[projectID], c)
	if err := l.store.Put(ctx, storage.KeyComments, l.comments); err != nil {
		return c, persistenceWarning(storage.KeyComments, err)
	}
	return c, nil
}

// List 项目评论，按时间先后
func (l *CommentLogic) List(projectID string) []model.Comment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]model.Comment(nil), l.comments[projectID]...)
}

// DeleteProject 删除项目的全部评论
func (l *CommentLogic) DeleteProject(ctx context.Context, projectID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.comments[projectID]; !ok {
		return nil
	}
	delete(l.comments, projectID)
	if err := l.store.Put(ctx, storage.KeyComments, l.comments); err != nil {
		return persistenceWarning(storage.KeyComments, err)
	}
	return nil
}
