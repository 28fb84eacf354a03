package logic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blues/helprojects/internal/event"
	"github.com/blues/helprojects/internal/logger"
	"github.com/blues/helprojects/internal/metrics"
	"github.com/blues/helprojects/internal/mirror"
	"github.com/blues/helprojects/internal/model"
	"github.com/blues/helprojects/internal/storage"
	"github.com/google/uuid"
)

// 默认值
const (
	DefaultDeadlineDays = 30
	AnonymousAuthor     = "Аноним"

	// MaxSupportAmount 单次支持上限，翻倍前
	MaxSupportAmount int64 = 10_000_000
)

// CreateProjectInput 创建项目表单
type CreateProjectInput struct {
	Title       string `json:"title" form:"title" validate:"required,max=100"`
	Description string `json:"description" form:"description" validate:"required,max=2000"`
	Goal        int64  `json:"goal" form:"goal" validate:"gt=0,lte=1000000"`
	Category    string `json:"category" form:"category" validate:"required,oneof=technology science art education ecology sport social other"`
	Deadline    int    `json:"deadline" form:"deadline" validate:"gte=0,lte=365"`
	Image       string `json:"image" form:"image" validate:"omitempty,url"`

	// 由会话填充
	Author      string `json:"-" form:"-"`
	AuthorEmail string `json:"-" form:"-"`
}

func (in *CreateProjectInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Image = strings.TrimSpace(in.Image)
	in.Author = strings.TrimSpace(in.Author)
}

// ProjectPatch 可更新字段，nil 表示不修改
type ProjectPatch struct {
	Title       *string `json:"title" form:"title"`
	Description *string `json:"description" form:"description"`
	Category    *string `json:"category" form:"category"`
	Image       *string `json:"image" form:"image"`
	Deadline    *int    `json:"deadline" form:"deadline"`
}

// Empty 没有任何字段
func (p ProjectPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil && p.Image == nil && p.Deadline == nil
}

// SupportInput 一次支持
type SupportInput struct {
	Amount int64
	Double bool   // 翻倍奖励
	Donor  string // 邮箱，空表示匿名
}

// ProjectLogic 项目仓库，项目集合的唯一修改者
type ProjectLogic struct {
	store  storage.Store
	mirror mirror.Mirror
	events *event.Dispatcher
	now    func() time.Time

	mu       sync.RWMutex
	projects []model.Project // 新项目在前
}

// NewProjectLogic 创建项目仓库，m 为 nil 时不做远程镜像
func NewProjectLogic(store storage.Store, m mirror.Mirror, events *event.Dispatcher) *ProjectLogic {
	if m == nil {
		m = mirror.Nop{}
	}
	return &ProjectLogic{
		store:  store,
		mirror: m,
		events: events,
		now:    time.Now,
	}
}

// Load 从本地存储加载项目
func (l *ProjectLogic) Load(ctx context.Context) error {
	var projects []model.Project
	if _, err := l.store.Get(ctx, storage.KeyProjects, &projects); err != nil {
		return fmt.Errorf("load projects: %w", err)
	}
	l.mu.Lock()
	l.projects = projects
	l.mu.Unlock()
	logger.Info("Loaded %d projects from local store", len(projects))
	return nil
}

// Reload 读取远程存储并与本地数据按 ID 合并，远程不可用时静默保留本地数据；
// 只存在于本地的项目保留并重新提交远程写入。返回是否使用了远程数据
func (l *ProjectLogic) Reload(ctx context.Context) (bool, error) {
	remoteProjects, err := l.mirror.FetchProjects(ctx)
	if err != nil {
		logger.Debug("Remote projects unavailable, using local store: %v", err)
		return false, nil
	}

	l.mu.Lock()
	local := make(map[string]model.Project, len(l.projects))
	for _, p := range l.projects {
		local[p.ID] = p
	}
	seen := make(map[string]bool, len(remoteProjects))
	merged := make([]model.Project, 0, len(remoteProjects)+len(l.projects))
	for _, p := range remoteProjects {
		if old, ok := local[p.ID]; ok {
			p.IsFavorite = old.IsFavorite
			// 金额和人数只增不减，完成状态不回退
			if old.Collected > p.Collected {
				p.Collected = old.Collected
			}
			if old.Donors > p.Donors {
				p.Donors = old.Donors
			}
			if old.Status == model.ProjectStatusCompleted {
				p.Status = model.ProjectStatusCompleted
			}
		}
		if p.GoalReached() {
			p.Status = model.ProjectStatusCompleted
		}
		seen[p.ID] = true
		merged = append(merged, p)
	}
	var localOnly []model.Project
	for _, p := range l.projects {
		if !seen[p.ID] {
			localOnly = append(localOnly, p)
			merged = append(merged, p)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	l.projects = merged
	warn := l.persistLocked(ctx)
	l.mu.Unlock()

	for _, p := range localOnly {
		l.mirror.ProjectCreated(p)
	}
	logger.Info("Reloaded %d projects from remote store, %d local-only resubmitted", len(remoteProjects), len(localOnly))
	return true, warn
}

// List 全部项目副本，新项目在前
func (l *ProjectLogic) List() []model.Project {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Project, len(l.projects))
	for i := range l.projects {
		out[i] = *l.projects[i].Clone()
	}
	return out
}

// GetByID 查询项目
func (l *ProjectLogic) GetByID(id string) (model.Project, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := l.indexLocked(id)
	if i < 0 {
		return model.Project{}, &NotFoundError{Kind: "project", ID: id}
	}
	return *l.projects[i].Clone(), nil
}

func (l *ProjectLogic) indexLocked(id string) int {
	for i := range l.projects {
		if l.projects[i].ID == id {
			return i
		}
	}
	return -1
}

// Create 创建项目并插入到列表头部
func (l *ProjectLogic) Create(ctx context.Context, in CreateProjectInput) (model.Project, error) {
	in.normalize()
	if err := validateStruct(&in); err != nil {
		return model.Project{}, err
	}
	if in.Deadline == 0 {
		in.Deadline = DefaultDeadlineDays
	}
	if in.Author == "" {
		in.Author = AnonymousAuthor
	}

	now := l.now()
	p := model.Project{
		ID:          newProjectID(now),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Image:       in.Image,
		Goal:        in.Goal,
		Collected:   0,
		Donors:      0,
		Deadline:    in.Deadline,
		Status:      model.ProjectStatusActive,
		Author:      in.Author,
		AuthorEmail: in.AuthorEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	l.mu.Lock()
	l.projects = append([]model.Project{p}, l.projects...)
	warn := l.persistLocked(ctx)
	l.mu.Unlock()

	l.mirror.ProjectCreated(p)
	l.events.Dispatch(event.Event{Type: event.ProjectCreated, Project: p, At: now})
	return p, warn
}

// newProjectID 毫秒时间戳加随机后缀
func newProjectID(now time.Time) string {
	return fmt.Sprintf("project_%d_%s", now.UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:9])
}

// Support 支持项目；Double 时计入金额翻倍
func (l *ProjectLogic) Support(ctx context.Context, id string, in SupportInput) (model.Project, model.SupportRecord, error) {
	if in.Amount <= 0 {
		return model.Project{}, model.SupportRecord{}, newValidationError("amount", "Сумма поддержки должна быть больше нуля")
	}
	if in.Amount > MaxSupportAmount {
		return model.Project{}, model.SupportRecord{}, newValidationError("amount", "Сумма поддержки слишком велика")
	}
	effective := in.Amount
	if in.Double {
		effective *= 2
	}
	donor := in.Donor
	if donor == "" {
		donor = model.AnonymousDonor
	}

	now := l.now()
	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		l.mu.Unlock()
		return model.Project{}, model.SupportRecord{}, &NotFoundError{Kind: "project", ID: id}
	}
	p := &l.projects[i]
	if p.Collected > math.MaxInt64-effective {
		l.mu.Unlock()
		return model.Project{}, model.SupportRecord{}, newValidationError("amount", "Сумма поддержки слишком велика")
	}
	wasCompleted := p.Status == model.ProjectStatusCompleted
	p.Collected += effective
	p.Donors++
	if p.GoalReached() {
		p.Status = model.ProjectStatusCompleted
	}
	p.UpdatedAt = now
	updated := *p.Clone()
	warn := l.persistLocked(ctx)
	l.mu.Unlock()

	rec := model.SupportRecord{
		ID:              uuid.NewString(),
		ProjectID:       id,
		Amount:          in.Amount,
		EffectiveAmount: effective,
		Donor:           donor,
		CreatedAt:       now,
	}
	l.mirror.ProjectSupported(rec)
	l.events.Dispatch(event.Event{Type: event.ProjectSupported, Project: updated, Amount: effective, At: now})
	if !wasCompleted && updated.Status == model.ProjectStatusCompleted {
		l.events.Dispatch(event.Event{Type: event.ProjectCompleted, Project: updated, At: now})
	}
	return updated, rec, warn
}

// Update 更新标题、描述、分类、图片、期限；不改变金额和状态
func (l *ProjectLogic) Update(ctx context.Context, id string, patch ProjectPatch) (model.Project, error) {
	if patch.Empty() {
		return model.Project{}, newValidationError("", "Нет полей для обновления")
	}

	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		l.mu.Unlock()
		return model.Project{}, &NotFoundError{Kind: "project", ID: id}
	}
	cur := l.projects[i]
	in := CreateProjectInput{
		Title: cur.Title, Description: cur.Description, Goal: cur.Goal,
		Category: cur.Category, Deadline: cur.Deadline, Image: cur.Image,
	}
	if patch.Title != nil {
		in.Title = *patch.Title
	}
	if patch.Description != nil {
		in.Description = *patch.Description
	}
	if patch.Category != nil {
		in.Category = *patch.Category
	}
	if patch.Image != nil {
		in.Image = *patch.Image
	}
	if patch.Deadline != nil {
		in.Deadline = *patch.Deadline
	}
	in.normalize()
	if err := validateStruct(&in); err != nil {
		l.mu.Unlock()
		return model.Project{}, err
	}

	p := &l.projects[i]
	p.Title, p.Description, p.Category, p.Image = in.Title, in.Description, in.Category, in.Image
	if in.Deadline > 0 {
		p.Deadline = in.Deadline
	}
	p.UpdatedAt = l.now()
	updated := *p.Clone()
	warn := l.persistLocked(ctx)
	l.mu.Unlock()

	l.mirror.ProjectUpdated(updated)
	l.events.Dispatch(event.Event{Type: event.ProjectUpdated, Project: updated})
	return updated, warn
}

// Delete 删除项目
func (l *ProjectLogic) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		l.mu.Unlock()
		return &NotFoundError{Kind: "project", ID: id}
	}
	removed := l.projects[i]
	l.projects = append(l.projects[:i:i], l.projects[i+1:]...)
	warn := l.persistLocked(ctx)
	l.mu.Unlock()

	l.mirror.ProjectDeleted(id)
	l.events.Dispatch(event.Event{Type: event.ProjectDeleted, Project: removed})
	return warn
}

// ToggleFavorite 切换收藏标记，只保存在本地
func (l *ProjectLogic) ToggleFavorite(ctx context.Context, id string) (model.Project, error) {
	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		l.mu.Unlock()
		return model.Project{}, &NotFoundError{Kind: "project", ID: id}
	}
	p := &l.projects[i]
	p.IsFavorite = !p.IsFavorite
	updated := *p.Clone()
	warn := l.persistLocked(ctx)
	l.mu.Unlock()

	l.events.Dispatch(event.Event{Type: event.ProjectUpdated, Project: updated})
	return updated, warn
}

// Rate 评分 1 到 5
func (l *ProjectLogic) Rate(ctx context.Context, id string, stars int) (model.Project, error) {
	if stars < 1 || stars > 5 {
		return model.Project{}, newValidationError("rating", "Оценка должна быть от 1 до 5")
	}

	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		l.mu.Unlock()
		return model.Project{}, &NotFoundError{Kind: "project", ID: id}
	}
	p := &l.projects[i]
	p.AddRating(stars)
	updated := *p.Clone()
	warn := l.persistLocked(ctx)
	l.mu.Unlock()

	l.mirror.ProjectUpdated(updated)
	l.events.Dispatch(event.Event{Type: event.ProjectUpdated, Project: updated})
	return updated, warn
}

// ReconcileStatuses 修复已达目标但仍为 active 的项目，返回修复数量
func (l *ProjectLogic) ReconcileStatuses(ctx context.Context) (int, error) {
	l.mu.Lock()
	var fixed []model.Project
	for i := range l.projects {
		p := &l.projects[i]
		if p.Status != model.ProjectStatusCompleted && p.GoalReached() {
			p.Status = model.ProjectStatusCompleted
			p.UpdatedAt = l.now()
			fixed = append(fixed, *p.Clone())
		}
	}
	var warn error
	if len(fixed) > 0 {
		warn = l.persistLocked(ctx)
	}
	l.mu.Unlock()

	for _, p := range fixed {
		l.mirror.ProjectUpdated(p)
		l.events.Dispatch(event.Event{Type: event.ProjectCompleted, Project: p})
	}
	return len(fixed), warn
}

// Search 关键字搜索
func (l *ProjectLogic) Search(query string) []model.Project {
	return Search(l.List(), query)
}

// FilterByCategory 按分类过滤
func (l *ProjectLogic) FilterByCategory(category string) []model.Project {
	return FilterByCategory(l.List(), category)
}

// SortBy 排序
func (l *ProjectLogic) SortBy(key SortKey) []model.Project {
	return SortBy(l.List(), key)
}

// ByAuthor 指定作者创建的项目
func (l *ProjectLogic) ByAuthor(email string) []model.Project {
	var out []model.Project
	for _, p := range l.List() {
		if email != "" && strings.EqualFold(p.AuthorEmail, email) {
			out = append(out, p)
		}
	}
	return out
}

// Active 进行中的项目
func (l *ProjectLogic) Active() []model.Project {
	var out []model.Project
	for _, p := range l.List() {
		if p.Status == model.ProjectStatusActive {
			out = append(out, p)
		}
	}
	return out
}

// persistLocked 整体写入项目集合，失败时返回 PersistenceWarning
func (l *ProjectLogic) persistLocked(ctx context.Context) error {
	if err := l.store.Put(ctx, storage.KeyProjects, l.projects); err != nil {
		return persistenceWarning(storage.KeyProjects, err)
	}
	return nil
}

func persistenceWarning(key string, err error) *PersistenceWarning {
	metrics.PersistenceWarnings.WithLabelValues(key).Inc()
	logger.Warn("Failed to persist %s: %v", key, err)
	return &PersistenceWarning{Key: key, Err: err}
}
