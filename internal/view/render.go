// Package view 把应用状态渲染为 HTML，不产生任何副作用
package view

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/blues/helprojects/internal/logic"
	"github.com/blues/helprojects/internal/model"
	"github.com/blues/helprojects/internal/router"
)

// Features 可选功能模块
type Features struct {
	Gamification bool `json:"gamification"`
	Chat         bool `json:"chat"`
}

// State 渲染所需的全部状态
type State struct {
	Route    router.Route
	Filter   logic.FilterConfig
	Projects []model.Project
	Comments []model.Comment       // 详情页
	Supports []model.SupportRecord // 详情页
	Session  *model.Session
	Game     *model.GameStats // 未开启游戏化或未登录时为 nil
	Notices  []model.Notice
	Features Features
	Now      time.Time
}

func (s State) project(id string) (model.Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

func (s State) now() time.Time {
	if s.Now.IsZero() {
		return time.Now()
	}
	return s.Now
}

// Render 渲染完整页面
func Render(ctx context.Context, s State) (string, error) {
	var b strings.Builder
	if err := Page(s).Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Page 布局加当前页面
func Page(s State) templ.Component {
	return Layout(s, Body(s))
}

// Body 按路由选择页面
func Body(s State) templ.Component {
	switch s.Route.View {
	case router.ViewProjects:
		return ProjectsView(s)
	case router.ViewCreate:
		return CreateView(s)
	case router.ViewStats:
		return StatsView(s)
	case router.ViewProjectDetail:
		p, ok := s.project(s.Route.ProjectID)
		if !ok {
			return NotFoundView(s.Route.ProjectID)
		}
		return DetailView(s, p)
	default:
		return HomeView(s)
	}
}

func component(fn func(ctx context.Context, h *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &writer{w: w}
		fn(ctx, h)
		return h.err
	})
}
