package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blues/helprojects/internal/logic"
	"github.com/blues/helprojects/internal/mirror"
	"github.com/blues/helprojects/internal/model"
	"github.com/blues/helprojects/internal/remote/remotetest"
	"github.com/blues/helprojects/internal/router"
	"github.com/blues/helprojects/internal/storage"
	"github.com/blues/helprojects/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimers 手动触发的定时器
type fakeTimers struct {
	mu        sync.Mutex
	pending   map[string]func()
	cancelled []string
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{pending: map[string]func(){}}
}

func (f *fakeTimers) After(_ time.Duration, name string, fn func()) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[name] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.pending[name]; ok {
			delete(f.pending, name)
			f.cancelled = append(f.cancelled, name)
		}
	}, nil
}

func (f *fakeTimers) fire(name string) {
	f.mu.Lock()
	fn := f.pending[name]
	delete(f.pending, name)
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (f *fakeTimers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

type fixture struct {
	ctl    *Controller
	store  *storage.MemoryStore
	timers *fakeTimers
}

func newFixture(t *testing.T, features view.Features) *fixture {
	t.Helper()
	store := storage.NewMemoryStore()
	timers := newFakeTimers()
	ctl := New(Options{Store: store, Timers: timers, Features: features})
	require.NoError(t, ctl.Restore(context.Background()))
	t.Cleanup(ctl.Close)
	return &fixture{ctl: ctl, store: store, timers: timers}
}

func allFeatures() view.Features {
	return view.Features{Gamification: true, Chat: true}
}

func sportProject() logic.CreateProjectInput {
	return logic.CreateProjectInput{Title: "A", Description: "Спортивная площадка", Goal: 1000, Category: "sport"}
}

func lastNotice(t *testing.T, c *Controller) model.Notice {
	t.Helper()
	notices := c.Notices()
	require.NotEmpty(t, notices)
	return notices[len(notices)-1]
}

func login(t *testing.T, c *Controller) {
	t.Helper()
	_, err := c.Login(context.Background(), logic.LoginInput{Name: "Анна", Email: "anna@school.ru"})
	require.NoError(t, err)
}

func TestCreateThenSupportCompletes(t *testing.T) {
	f := newFixture(t, view.Features{})
	ctx := context.Background()

	p, err := f.ctl.CreateProject(ctx, sportProject())
	require.NoError(t, err)
	assert.Equal(t, logic.AnonymousAuthor, p.Author)
	assert.Equal(t, router.Route{View: router.ViewProjectDetail, ProjectID: p.ID}, f.ctl.Route())

	res, err := f.ctl.SupportProject(ctx, p.ID, 1500)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), res.Project.Collected)
	assert.Equal(t, 1, res.Project.Donors)
	assert.Equal(t, model.ProjectStatusCompleted, res.Project.Status)
	assert.Equal(t, model.AnonymousDonor, res.Record.Donor)

	n := lastNotice(t, f.ctl)
	assert.Equal(t, model.NoticeSuccess, n.Kind)
	assert.Contains(t, n.Text, "Спасибо")

	html, err := f.ctl.Render(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "🎯 Цель достигнута")
}

func TestSupportWithDoubleBonus(t *testing.T) {
	f := newFixture(t, allFeatures())
	ctx := context.Background()
	login(t, f.ctl)

	p, err := f.ctl.CreateProject(ctx, sportProject())
	require.NoError(t, err)
	assert.Equal(t, "Анна", p.Author)
	assert.Equal(t, "anna@school.ru", p.AuthorEmail)

	g, err := f.ctl.Game()
	require.NoError(t, err)
	assert.Equal(t, 140, g.Coins)
	assert.Equal(t, 80, g.XP)
	assert.True(t, g.HasBadge("creator"))

	g, err = f.ctl.BuyDoubleDonation(ctx)
	require.NoError(t, err)
	assert.Equal(t, 90, g.Coins)
	assert.True(t, g.DoubleNextDonation)

	res, err := f.ctl.SupportProject(ctx, p.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(400), res.Project.Collected)
	assert.Equal(t, int64(200), res.Record.Amount)
	assert.Equal(t, int64(400), res.Record.EffectiveAmount)

	g, err = f.ctl.Game()
	require.NoError(t, err)
	assert.False(t, g.DoubleNextDonation)
	assert.True(t, g.HasBadge("first_support"))
	// 80 + 12（支持）+ 20（徽章）= 112 xp，升到 2 级
	assert.Equal(t, 112, g.XP)
	assert.Equal(t, 2, g.Level)
	assert.Equal(t, 90+5+10+logic.LevelUpCoins, g.Coins)

	res, err = f.ctl.SupportProject(ctx, p.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(500), res.Project.Collected)
}

func TestFailedSupportKeepsDoubleBonus(t *testing.T) {
	f := newFixture(t, allFeatures())
	ctx := context.Background()
	login(t, f.ctl)
	_, err := f.ctl.BuyDoubleDonation(ctx)
	require.NoError(t, err)

	_, err = f.ctl.SupportProject(ctx, "missing", 100)
	assert.ErrorIs(t, err, logic.ErrNotFound)
	assert.Equal(t, model.NoticeError, lastNotice(t, f.ctl).Kind)

	p, err := f.ctl.CreateProject(ctx, sportProject())
	require.NoError(t, err)
	_, err = f.ctl.SupportProject(ctx, p.ID, 0)
	assert.ErrorIs(t, err, logic.ErrValidation)

	g, err := f.ctl.Game()
	require.NoError(t, err)
	assert.True(t, g.DoubleNextDonation)

	_, err = f.ctl.BuyDoubleDonation(ctx)
	assert.ErrorIs(t, err, logic.ErrValidation)
}

func TestInsufficientCoins(t *testing.T) {
	f := newFixture(t, allFeatures())
	login(t, f.ctl)
	f.ctl.game.Coins = logic.DoubleDonationCost - 1

	_, err := f.ctl.BuyDoubleDonation(context.Background())
	assert.ErrorIs(t, err, logic.ErrInsufficientCoins)
	assert.Equal(t, UserMessage(err), lastNotice(t, f.ctl).Text)

	g, err := f.ctl.Game()
	require.NoError(t, err)
	assert.Equal(t, logic.DoubleDonationCost-1, g.Coins)
	assert.False(t, g.DoubleNextDonation)
}

func TestSessionRequiredActions(t *testing.T) {
	f := newFixture(t, allFeatures())
	ctx := context.Background()
	p, err := f.ctl.CreateProject(ctx, sportProject())
	require.NoError(t, err)

	_, err = f.ctl.ToggleFavorite(ctx, p.ID)
	assert.ErrorIs(t, err, logic.ErrAuthRequired)
	_, err = f.ctl.RateProject(ctx, p.ID, 5)
	assert.ErrorIs(t, err, logic.ErrAuthRequired)
	_, err = f.ctl.AddComment(ctx, p.ID, logic.CommentInput{Text: "Класс"})
	assert.ErrorIs(t, err, logic.ErrAuthRequired)
	_, err = f.ctl.Game()
	assert.ErrorIs(t, err, logic.ErrAuthRequired)
	assert.Equal(t, model.NoticeError, lastNotice(t, f.ctl).Kind)

	login(t, f.ctl)
	fav, err := f.ctl.ToggleFavorite(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, fav.IsFavorite)
	assert.Equal(t, "⭐ Проект добавлен в избранное", lastNotice(t, f.ctl).Text)

	rated, err := f.ctl.RateProject(ctx, p.ID, 4)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, rated.AverageRating, 0.001)

	cm, err := f.ctl.AddComment(ctx, p.ID, logic.CommentInput{Text: "Класс"})
	require.NoError(t, err)
	assert.Equal(t, "Анна", cm.Author)

	comments, err := f.ctl.Comments(p.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestNoticesAutoDismissAndCancel(t *testing.T) {
	f := newFixture(t, view.Features{})
	f.ctl.SimulateActivity(context.Background())
	assert.Empty(t, f.ctl.Notices())

	_, err := f.ctl.CreateProject(context.Background(), sportProject())
	require.NoError(t, err)
	n := lastNotice(t, f.ctl)
	require.Equal(t, 1, f.timers.count())

	f.timers.fire("notice_" + n.ID)
	assert.Empty(t, f.ctl.Notices())

	f.ctl.pick = func(int) int { return 0 }
	f.ctl.SimulateActivity(context.Background())
	n = lastNotice(t, f.ctl)
	assert.Equal(t, model.NoticeInfo, n.Kind)
	assert.Contains(t, n.Text, "«A»")

	assert.True(t, f.ctl.DismissNotice(n.ID))
	assert.False(t, f.ctl.DismissNotice(n.ID))
	assert.Empty(t, f.ctl.Notices())
	assert.Equal(t, 0, f.timers.count())
	assert.Contains(t, f.timers.cancelled, "notice_"+n.ID)
}

func TestCloseCancelsTimers(t *testing.T) {
	f := newFixture(t, view.Features{})
	for i := 0; i < 3; i++ {
		_, err := f.ctl.RateProject(context.Background(), "x", 1)
		require.Error(t, err)
	}
	require.Equal(t, 3, f.timers.count())

	f.ctl.Close()
	assert.Equal(t, 0, f.timers.count())
	assert.Len(t, f.timers.cancelled, 3)
}

func TestNoticesAreCapped(t *testing.T) {
	f := newFixture(t, view.Features{})
	for i := 0; i < maxNotices+3; i++ {
		_, _ = f.ctl.ToggleFavorite(context.Background(), "x")
	}
	assert.Len(t, f.ctl.Notices(), maxNotices)
}

func TestPersistenceWarningKeepsProject(t *testing.T) {
	f := newFixture(t, view.Features{})
	f.store.SetFailWrites(errors.New("disk full"))

	p, err := f.ctl.CreateProject(context.Background(), sportProject())
	require.Error(t, err)
	assert.True(t, logic.IsWarning(err))
	assert.NotEmpty(t, p.ID)

	got, err := f.ctl.Project(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, model.NoticeWarning, lastNotice(t, f.ctl).Kind)
}

func TestNavigateToMissingProjectRendersNotFound(t *testing.T) {
	f := newFixture(t, view.Features{})
	_, err := f.ctl.CreateProject(context.Background(), sportProject())
	require.NoError(t, err)
	before := f.ctl.Projects()

	r := f.ctl.NavigateFragment("#/project/doesNotExist")
	assert.Equal(t, "doesNotExist", r.ProjectID)
	html, err := f.ctl.Render(context.Background())
	require.NoError(t, err)
	assert.Contains(t, html, "Проект не найден")
	assert.Equal(t, before, f.ctl.Projects())

	assert.Equal(t, router.Home(), f.ctl.Navigate(router.ViewProjectDetail, ""))
}

func TestApplyFilters(t *testing.T) {
	f := newFixture(t, view.Features{})
	ctx := context.Background()
	_, err := f.ctl.CreateProject(ctx, logic.CreateProjectInput{Title: "Школьный робот", Description: "Робот", Goal: 100, Category: "technology"})
	require.NoError(t, err)
	_, err = f.ctl.CreateProject(ctx, logic.CreateProjectInput{Title: "Сад", Description: "Деревья", Goal: 100, Category: "ecology"})
	require.NoError(t, err)

	got := f.ctl.ApplyFilters(logic.FilterConfig{Query: "робот"})
	require.Len(t, got, 1)
	assert.Equal(t, "Школьный робот", got[0].Title)
	assert.Equal(t, "робот", f.ctl.State().Filter.Query)
}

func TestDeleteProjectRemovesComments(t *testing.T) {
	f := newFixture(t, view.Features{})
	ctx := context.Background()
	login(t, f.ctl)
	p, err := f.ctl.CreateProject(ctx, sportProject())
	require.NoError(t, err)
	_, err = f.ctl.AddComment(ctx, p.ID, logic.CommentInput{Text: "Ура"})
	require.NoError(t, err)

	require.NoError(t, f.ctl.DeleteProject(ctx, p.ID))
	assert.Equal(t, router.ViewProjects, f.ctl.Route().View)
	_, err = f.ctl.Comments(p.ID)
	assert.ErrorIs(t, err, logic.ErrNotFound)
	assert.ErrorIs(t, f.ctl.DeleteProject(ctx, p.ID), logic.ErrNotFound)
}

func TestUpdateProject(t *testing.T) {
	f := newFixture(t, view.Features{})
	ctx := context.Background()
	p, err := f.ctl.CreateProject(ctx, sportProject())
	require.NoError(t, err)

	title := "Новая площадка"
	got, err := f.ctl.UpdateProject(ctx, p.ID, logic.ProjectPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, p.Goal, got.Goal)

	_, err = f.ctl.UpdateProject(ctx, p.ID, logic.ProjectPatch{})
	assert.ErrorIs(t, err, logic.ErrValidation)
}

func TestRestoreSessionAndGame(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()

	first := New(Options{Store: store, Features: allFeatures()})
	require.NoError(t, first.Restore(ctx))
	login(t, first)
	_, err := first.CreateProject(ctx, sportProject())
	require.NoError(t, err)
	first.Close()

	second := New(Options{Store: store, Features: allFeatures()})
	require.NoError(t, second.Restore(ctx))
	defer second.Close()

	s := second.Session()
	require.NotNil(t, s)
	assert.Equal(t, "anna@school.ru", s.User.Email)
	g, err := second.Game()
	require.NoError(t, err)
	assert.True(t, g.HasBadge("creator"))
	assert.Len(t, second.Projects(), 1)

	require.NoError(t, second.Logout(ctx))
	assert.Nil(t, second.Session())
	_, err = second.Game()
	assert.ErrorIs(t, err, logic.ErrAuthRequired)
}

func TestFeatureFlags(t *testing.T) {
	f := newFixture(t, view.Features{})
	_, err := f.ctl.Chat("привет")
	assert.ErrorIs(t, err, ErrFeatureDisabled)
	_, err = f.ctl.BuyDoubleDonation(context.Background())
	assert.ErrorIs(t, err, ErrFeatureDisabled)

	login(t, f.ctl)
	assert.Nil(t, f.ctl.State().Game)

	on := newFixture(t, allFeatures())
	reply, err := on.ctl.Chat("покажи статистику")
	require.NoError(t, err)
	assert.Equal(t, "stats", reply.Intent)
}

func TestReconcileStatuses(t *testing.T) {
	f := newFixture(t, view.Features{})
	ctx := context.Background()
	p, err := f.ctl.CreateProject(ctx, sportProject())
	require.NoError(t, err)
	_, err = f.ctl.SupportProject(ctx, p.ID, 100)
	require.NoError(t, err)

	n, err := f.ctl.ReconcileStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRemoteMirrorFailureBecomesWarning(t *testing.T) {
	fake := remotetest.New()
	fake.Fail(errors.New("connection refused"))
	m, err := mirror.New(fake, 2)
	require.NoError(t, err)
	defer m.Close()

	ctl := New(Options{Store: storage.NewMemoryStore(), Mirror: m})
	require.NoError(t, ctl.Restore(context.Background()))
	defer ctl.Close()

	_, err = ctl.CreateProject(context.Background(), sportProject())
	require.NoError(t, err)
	m.Wait()

	require.Eventually(t, func() bool {
		for _, n := range ctl.Notices() {
			if n.Kind == model.NoticeWarning && strings.Contains(n.Text, "синхронизировать") {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}
