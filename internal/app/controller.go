// Package app 应用控制器：所有界面动作、定时回调和远程回调都在同一把锁下执行
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/blues/helprojects/internal/chat"
	"github.com/blues/helprojects/internal/event"
	"github.com/blues/helprojects/internal/logger"
	"github.com/blues/helprojects/internal/logic"
	"github.com/blues/helprojects/internal/mirror"
	"github.com/blues/helprojects/internal/model"
	"github.com/blues/helprojects/internal/router"
	"github.com/blues/helprojects/internal/storage"
	"github.com/blues/helprojects/internal/view"
	"github.com/google/uuid"
)

// ErrFeatureDisabled 功能模块未开启
var ErrFeatureDisabled = errors.New("feature disabled")

// maxNotices 同时显示的提示数量上限
const maxNotices = 5

// Timers 一次性定时器，cancel 可重复调用
type Timers interface {
	After(d time.Duration, name string, fn func()) (cancel func(), err error)
}

// Options 控制器依赖
type Options struct {
	Store     storage.Store
	Mirror    mirror.Mirror       // nil 表示只用本地存储
	Auth      logic.Authenticator // nil 表示本地登录
	Events    *event.Dispatcher
	Timers    Timers // nil 表示提示不会自动消失
	Bot       *chat.Bot
	Features  view.Features
	NoticeTTL time.Duration
}

// Controller 应用状态和全部动作
type Controller struct {
	mu sync.Mutex

	projects *logic.ProjectLogic
	supports *logic.SupportRecordLogic
	comments *logic.CommentLogic
	games    *logic.GameLogic
	sessions *logic.SessionLogic
	mirror   mirror.Mirror
	bot      *chat.Bot
	timers   Timers

	features  view.Features
	noticeTTL time.Duration
	now       func() time.Time
	pick      func(n int) int

	route   router.Route
	filter  logic.FilterConfig
	game    *model.GameStats
	notices []model.Notice
	cancels map[string]func()
	closed  bool
}

// New 创建控制器，调用 Restore 之前状态为空
func New(opts Options) *Controller {
	m := opts.Mirror
	if m == nil {
		m = mirror.Nop{}
	}
	auth := opts.Auth
	if auth == nil {
		auth = logic.NewLocalAuthenticator(opts.Store)
	}
	bot := opts.Bot
	if bot == nil {
		bot = chat.NewBot(nil)
	}
	ttl := opts.NoticeTTL
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	c := &Controller{
		projects:  logic.NewProjectLogic(opts.Store, m, opts.Events),
		supports:  logic.NewSupportRecordLogic(opts.Store),
		comments:  logic.NewCommentLogic(opts.Store),
		games:     logic.NewGameLogic(opts.Store),
		sessions:  logic.NewSessionLogic(opts.Store, auth),
		mirror:    m,
		bot:       bot,
		timers:    opts.Timers,
		features:  opts.Features,
		noticeTTL: ttl,
		now:       time.Now,
		pick:      rand.IntN,
		route:     router.Home(),
		cancels:   map[string]func(){},
	}
	m.SetFailureHandler(c.onMirrorFailure)
	return c
}

// Restore 启动时加载本地数据、尝试远程数据并恢复会话
func (c *Controller) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.projects.Load(ctx); err != nil {
		return err
	}
	if err := c.supports.Load(ctx); err != nil {
		return err
	}
	if err := c.comments.Load(ctx); err != nil {
		return err
	}
	if _, err := c.projects.Reload(ctx); err != nil {
		c.reportLocked(err)
	}

	s, err := c.sessions.Restore(ctx)
	if err != nil {
		logger.Warn("Failed to restore session: %v", err)
		return nil
	}
	if s != nil {
		c.loadGameLocked(ctx, s)
	}
	return nil
}

// Close 取消全部定时器
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	cancels := c.cancels
	c.cancels = map[string]func(){}
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// onMirrorFailure 远程写入失败，在工作协程中回调
func (c *Controller) onMirrorFailure(op, projectID string, err error) {
	logger.Warn("Remote %s for project %s failed: %v", op, projectID, err)
	go func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.noticeLocked(model.NoticeWarning, "⚠️ Не удалось синхронизировать изменения с сервером")
	}()
}

// ---- 状态读取 ----

// State 当前渲染状态
func (c *Controller) State() view.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() view.State {
	s := view.State{
		Route:    c.route,
		Filter:   c.filter,
		Projects: c.projects.List(),
		Session:  c.sessions.Current(),
		Notices:  append([]model.Notice(nil), c.notices...),
		Features: c.features,
		Now:      c.now(),
	}
	if c.gameActiveLocked() {
		g := *c.game
		g.Badges = append([]string(nil), c.game.Badges...)
		s.Game = &g
	}
	if c.route.View == router.ViewProjectDetail {
		s.Comments = c.comments.List(c.route.ProjectID)
		s.Supports = c.supports.ByProject(c.route.ProjectID)
	}
	return s
}

// Render 渲染当前页面
func (c *Controller) Render(ctx context.Context) (string, error) {
	return view.Render(ctx, c.State())
}

// Route 当前路由
func (c *Controller) Route() router.Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.route
}

// Projects 全部项目
func (c *Controller) Projects() []model.Project {
	return c.projects.List()
}

// Project 单个项目
func (c *Controller) Project(id string) (model.Project, error) {
	return c.projects.GetByID(id)
}

// Stats 平台统计
func (c *Controller) Stats() (logic.PlatformStats, []logic.CategoryStats) {
	projects := c.projects.List()
	return logic.ComputeStats(projects), logic.ComputeCategoryStats(projects)
}

// Comments 项目评论
func (c *Controller) Comments(projectID string) ([]model.Comment, error) {
	if _, err := c.projects.GetByID(projectID); err != nil {
		return nil, err
	}
	return c.comments.List(projectID), nil
}

// Session 当前会话
func (c *Controller) Session() *model.Session {
	return c.sessions.Current()
}

// Game 当前身份的游戏化状态
func (c *Controller) Game() (*model.GameStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireGameLocked(); err != nil {
		return nil, err
	}
	g := *c.game
	g.Badges = append([]string(nil), c.game.Badges...)
	return &g, nil
}

// Notices 当前提示
func (c *Controller) Notices() []model.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Notice(nil), c.notices...)
}

// ---- 导航与筛选 ----

// Navigate 应用内跳转
func (c *Controller) Navigate(to router.View, param string) router.Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.route = router.For(to, param)
	return c.route
}

// NavigateFragment 外部地址变化
func (c *Controller) NavigateFragment(fragment string) router.Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.route = router.Parse(fragment)
	return c.route
}

// ApplyFilters 更新筛选条件并返回结果
func (c *Controller) ApplyFilters(f logic.FilterConfig) []model.Project {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
	return logic.Apply(c.projects.List(), f)
}

// ---- 项目动作 ----

// CreateProject 创建项目，作者取自当前会话
func (c *Controller) CreateProject(ctx context.Context, in logic.CreateProjectInput) (model.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.sessions.Current(); s != nil {
		in.Author = s.User.Name
		in.AuthorEmail = s.User.Email
	} else {
		in.Author, in.AuthorEmail = "", ""
	}
	p, err := c.projects.Create(ctx, in)
	if err != nil && !logic.IsWarning(err) {
		return p, c.reportLocked(err)
	}
	c.noticeLocked(model.NoticeSuccess, "🎉 Проект успешно создан!")
	if c.gameActiveLocked() {
		c.applyGameLocked(ctx, logic.RewardCreate(c.game))
	}
	c.route = router.For(router.ViewProjectDetail, p.ID)
	return p, c.reportLocked(err)
}

// SupportResult 一次支持的结果
type SupportResult struct {
	Project model.Project       `json:"project"`
	Record  model.SupportRecord `json:"record"`
	Events  []logic.GameEvent   `json:"events,omitempty"`
}

// SupportProject 支持项目；有翻倍奖励时本次计入金额翻倍并清除奖励
func (c *Controller) SupportProject(ctx context.Context, id string, amount int64) (SupportResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	in := logic.SupportInput{Amount: amount}
	session := c.sessions.Current()
	if session != nil {
		in.Donor = session.User.Email
	}

	gameActive := c.gameActiveLocked()
	if gameActive && c.game.DoubleNextDonation && amount > 0 {
		if _, err := c.projects.GetByID(id); err == nil {
			in.Double = logic.ConsumeDoubleDonation(c.game)
		}
	}

	p, rec, err := c.projects.Support(ctx, id, in)
	if err != nil && !logic.IsWarning(err) {
		if in.Double {
			c.game.DoubleNextDonation = true
		}
		return SupportResult{}, c.reportLocked(err)
	}
	if aerr := c.supports.Append(ctx, rec); aerr != nil {
		c.reportLocked(aerr)
	}

	res := SupportResult{Project: p, Record: rec}
	c.noticeLocked(model.NoticeSuccess, fmt.Sprintf("🎉 Спасибо! Вы поддержали проект на %s. Собрано: %s из %s",
		view.Rubles(rec.EffectiveAmount), view.Rubles(p.Collected), view.Rubles(p.Goal)))
	if gameActive {
		res.Events = logic.RewardSupport(c.game, amount)
		c.applyGameLocked(ctx, res.Events)
	}
	return res, c.reportLocked(err)
}

// UpdateProject 修改项目信息
func (c *Controller) UpdateProject(ctx context.Context, id string, patch logic.ProjectPatch) (model.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, err := c.projects.Update(ctx, id, patch)
	if err != nil && !logic.IsWarning(err) {
		return p, c.reportLocked(err)
	}
	c.noticeLocked(model.NoticeSuccess, "✅ Проект обновлён")
	return p, c.reportLocked(err)
}

// DeleteProject 删除项目及其评论
func (c *Controller) DeleteProject(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.projects.Delete(ctx, id)
	if err != nil && !logic.IsWarning(err) {
		return c.reportLocked(err)
	}
	if cerr := c.comments.DeleteProject(ctx, id); cerr != nil {
		c.reportLocked(cerr)
	}
	if c.route.View == router.ViewProjectDetail && c.route.ProjectID == id {
		c.route = router.For(router.ViewProjects, "")
	}
	c.noticeLocked(model.NoticeInfo, "🗑️ Проект удалён")
	return c.reportLocked(err)
}

// ToggleFavorite 收藏或取消收藏，需要登录
func (c *Controller) ToggleFavorite(ctx context.Context, id string) (model.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireSessionLocked(); err != nil {
		return model.Project{}, err
	}
	p, err := c.projects.ToggleFavorite(ctx, id)
	if err != nil && !logic.IsWarning(err) {
		return p, c.reportLocked(err)
	}
	if p.IsFavorite {
		c.noticeLocked(model.NoticeSuccess, "⭐ Проект добавлен в избранное")
	} else {
		c.noticeLocked(model.NoticeSuccess, "📋 Проект удален из избранного")
	}
	return p, c.reportLocked(err)
}

// RateProject 评分，需要登录
func (c *Controller) RateProject(ctx context.Context, id string, stars int) (model.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireSessionLocked(); err != nil {
		return model.Project{}, err
	}
	p, err := c.projects.Rate(ctx, id, stars)
	if err != nil && !logic.IsWarning(err) {
		return p, c.reportLocked(err)
	}
	c.noticeLocked(model.NoticeSuccess, "⭐ Спасибо за вашу оценку!")
	return p, c.reportLocked(err)
}

// AddComment 添加评论，需要登录
func (c *Controller) AddComment(ctx context.Context, projectID string, in logic.CommentInput) (model.Comment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireSessionLocked(); err != nil {
		return model.Comment{}, err
	}
	if _, err := c.projects.GetByID(projectID); err != nil {
		return model.Comment{}, c.reportLocked(err)
	}
	cm, err := c.comments.Add(ctx, projectID, c.sessions.Current().User.Name, in)
	if err != nil && !logic.IsWarning(err) {
		return cm, c.reportLocked(err)
	}
	c.noticeLocked(model.NoticeSuccess, "💬 Комментарий добавлен")
	return cm, c.reportLocked(err)
}

// ReconcileStatuses 定时任务：修复项目状态
func (c *Controller) ReconcileStatuses(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.projects.ReconcileStatuses(ctx)
	if err != nil {
		c.reportLocked(err)
	}
	return n, err
}

// SimulateActivity 定时任务：随机展示一条平台动态
func (c *Controller) SimulateActivity(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	active := c.projects.Active()
	if len(active) == 0 {
		return
	}
	p := active[c.pick(len(active))]
	c.noticeLocked(model.NoticeInfo, fmt.Sprintf("🔔 Кто-то только что поддержал проект «%s»", p.Title))
}

// ---- 会话 ----

// Login 登录
func (c *Controller) Login(ctx context.Context, in logic.LoginInput) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.sessions.Login(ctx, in)
	return c.beginLocked(ctx, s, err)
}

// Register 注册并登录
func (c *Controller) Register(ctx context.Context, in logic.RegisterInput) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, err := c.sessions.Register(ctx, in)
	return c.beginLocked(ctx, s, err)
}

func (c *Controller) beginLocked(ctx context.Context, s *model.Session, err error) (*model.Session, error) {
	if err != nil && !logic.IsWarning(err) {
		return nil, c.reportLocked(err)
	}
	c.loadGameLocked(ctx, s)
	c.noticeLocked(model.NoticeSuccess, fmt.Sprintf("🎉 Добро пожаловать, %s!", s.User.Name))
	return s, c.reportLocked(err)
}

// Logout 退出
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.sessions.Logout(ctx)
	c.game = nil
	c.noticeLocked(model.NoticeInfo, "👋 Вы вышли из системы")
	return c.reportLocked(err)
}

// ---- 游戏化 ----

// BuyDoubleDonation 花 50 金币让下一次支持翻倍
func (c *Controller) BuyDoubleDonation(ctx context.Context) (*model.GameStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireGameLocked(); err != nil {
		return nil, err
	}
	if err := logic.BuyDoubleDonation(c.game); err != nil {
		return nil, c.reportLocked(err)
	}
	c.noticeLocked(model.NoticeSuccess, "✨ Следующая поддержка будет удвоена!")
	err := c.saveGameLocked(ctx)
	g := *c.game
	return &g, c.reportLocked(err)
}

func (c *Controller) gameActiveLocked() bool {
	return c.features.Gamification && c.game != nil && c.sessions.Current() != nil
}

func (c *Controller) requireGameLocked() error {
	if !c.features.Gamification {
		return ErrFeatureDisabled
	}
	if !c.gameActiveLocked() {
		return c.reportLocked(logic.ErrAuthRequired)
	}
	return nil
}

func (c *Controller) loadGameLocked(ctx context.Context, s *model.Session) {
	if !c.features.Gamification || s == nil {
		return
	}
	g, err := c.games.Load(ctx, s.User.Email)
	if err != nil {
		logger.Warn("Failed to load game stats for %s: %v", s.User.Email, err)
	}
	c.game = g
}

func (c *Controller) saveGameLocked(ctx context.Context) error {
	s := c.sessions.Current()
	if c.game == nil || s == nil {
		return nil
	}
	return c.games.Save(ctx, s.User.Email, c.game)
}

// applyGameLocked 展示等级和徽章事件并保存状态
func (c *Controller) applyGameLocked(ctx context.Context, events []logic.GameEvent) {
	for _, e := range events {
		switch e.Kind {
		case logic.GameEventLevelUp:
			c.noticeLocked(model.NoticeSuccess, fmt.Sprintf("⭐ Новый уровень: %d!", e.Level))
		case logic.GameEventBadge:
			c.noticeLocked(model.NoticeSuccess, fmt.Sprintf("🏆 Получен значок «%s» %s", e.Badge.Name, e.Badge.Icon))
		}
	}
	if err := c.saveGameLocked(ctx); err != nil {
		c.reportLocked(err)
	}
}

// ---- 聊天 ----

// Chat 助手回复
func (c *Controller) Chat(message string) (chat.Reply, error) {
	if !c.features.Chat {
		return chat.Reply{}, ErrFeatureDisabled
	}
	return c.bot.Reply(message, c.projects.List()), nil
}

// ChatGreeting 助手欢迎语
func (c *Controller) ChatGreeting() (chat.Reply, error) {
	if !c.features.Chat {
		return chat.Reply{}, ErrFeatureDisabled
	}
	return c.bot.Greeting(), nil
}

// ---- 提示 ----

// DismissNotice 手动关闭提示
func (c *Controller) DismissNotice(id string) bool {
	c.mu.Lock()
	removed := c.removeNoticeLocked(id)
	cancel := c.cancels[id]
	delete(c.cancels, id)
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return removed
}

// Report 把外部错误（如请求解析失败）转为提示
func (c *Controller) Report(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reportLocked(err)
}

func (c *Controller) requireSessionLocked() error {
	if c.sessions.Current() == nil {
		return c.reportLocked(logic.ErrAuthRequired)
	}
	return nil
}

// reportLocked 把错误转为提示，原样返回 err
func (c *Controller) reportLocked(err error) error {
	if err == nil {
		return nil
	}
	kind := model.NoticeError
	if logic.IsWarning(err) {
		kind = model.NoticeWarning
	} else {
		logger.Debug("Action failed: %v", err)
	}
	c.noticeLocked(kind, UserMessage(err))
	return err
}

func (c *Controller) noticeLocked(kind model.NoticeKind, text string) {
	if c.closed {
		return
	}
	n := model.Notice{ID: uuid.NewString(), Kind: kind, Text: text, CreatedAt: c.now()}
	c.notices = append(c.notices, n)
	for len(c.notices) > maxNotices {
		c.dropNoticeLocked(c.notices[0].ID)
	}
	if c.timers == nil {
		return
	}
	cancel, err := c.timers.After(c.noticeTTL, "notice_"+n.ID, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.removeNoticeLocked(n.ID)
		delete(c.cancels, n.ID)
	})
	if err != nil {
		logger.Warn("Failed to schedule notice dismissal: %v", err)
		return
	}
	c.cancels[n.ID] = cancel
}

// dropNoticeLocked 移除提示并取消其定时器；定时器取消不等待回调
func (c *Controller) dropNoticeLocked(id string) {
	c.removeNoticeLocked(id)
	if cancel, ok := c.cancels[id]; ok {
		delete(c.cancels, id)
		go cancel()
	}
}

func (c *Controller) removeNoticeLocked(id string) bool {
	for i, n := range c.notices {
		if n.ID == id {
			c.notices = append(c.notices[:i:i], c.notices[i+1:]...)
			return true
		}
	}
	return false
}
