package view

import (
	"context"

	"github.com/a-h/templ"
	"github.com/blues/helprojects/internal/logic"
	"github.com/blues/helprojects/internal/router"
)

var navItems = []struct {
	view  router.View
	label string
}{
	{router.ViewHome, "🏠 Главная"},
	{router.ViewProjects, "📋 Проекты"},
	{router.ViewCreate, "➕ Создать"},
	{router.ViewStats, "📊 Статистика"},
}

// Layout 页面框架：导航、用户面板、游戏面板、提示
func Layout(s State, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		h.raw(`<!DOCTYPE html><html lang="ru"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>HelProjects</title></head><body>`)

		h.raw(`<header class="header"><a class="logo" href="/">🤝 HelProjects</a><nav class="nav">`)
		for _, item := range navItems {
			h.raw(`<a`)
			h.url("href", router.Route{View: item.view}.Fragment())
			if s.Route.View == item.view {
				h.raw(` class="active"`)
			}
			h.raw(`>`)
			h.text(item.label)
			h.raw(`</a>`)
		}
		h.raw(`</nav>`)
		h.component(ctx, UserPanel(s))
		h.raw(`</header>`)

		if s.Features.Gamification && s.Game != nil {
			h.component(ctx, GamePanel(s))
		}
		h.component(ctx, Notices(s))

		h.raw(`<main class="main">`)
		h.component(ctx, body)
		h.raw(`</main>`)

		if s.Features.Chat {
			h.component(ctx, ChatWidget())
		}
		h.raw(`</body></html>`)
	})
}

// UserPanel 登录表单或当前用户
func UserPanel(s State) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		h.raw(`<div class="user-panel">`)
		if s.Session == nil {
			h.raw(`<form class="login-form" method="post" action="/api/v1/session">`)
			h.raw(`<input name="name" placeholder="Имя">`)
			h.raw(`<input name="email" type="email" placeholder="Email" required>`)
			h.raw(`<input name="password" type="password" placeholder="Пароль">`)
			h.raw(`<button type="submit">Войти</button></form>`)
		} else {
			u := s.Session.User
			h.raw(`<span class="avatar">`)
			h.text(u.Avatar)
			h.raw(`</span><span class="user-name">`)
			h.text(u.Name)
			h.raw(`</span><form method="post" action="/api/v1/session/logout"><button type="submit">Выйти</button></form>`)
		}
		h.raw(`</div>`)
	})
}

// GamePanel 金币、等级、经验和徽章
func GamePanel(s State) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		g := s.Game
		h.raw(`<section class="game-panel">`)
		h.rawf(`<span class="coins">🪙 %d</span>`, g.Coins)
		h.rawf(`<span class="level">⭐ Уровень %d</span>`, g.Level)
		h.rawf(`<span class="xp">%d XP</span>`, g.XP)
		if len(g.Badges) > 0 {
			h.raw(`<span class="badges">`)
			for _, id := range g.Badges {
				if b, ok := logic.LookupBadge(id); ok {
					h.raw(`<span class="badge"`)
					h.attr("title", b.Description)
					h.raw(`>`)
					h.text(b.Icon + " " + b.Name)
					h.raw(`</span>`)
				}
			}
			h.raw(`</span>`)
		}
		if g.DoubleNextDonation {
			h.raw(`<span class="bonus active">×2 на следующую поддержку</span>`)
		} else {
			h.rawf(`<form method="post" action="/api/v1/game/double-donation"><button type="submit">×2 за %d 🪙</button></form>`, logic.DoubleDonationCost)
		}
		h.raw(`</section>`)
	})
}

// Notices 临时提示
func Notices(s State) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		if len(s.Notices) == 0 {
			return
		}
		h.raw(`<div class="notifications">`)
		for _, n := range s.Notices {
			h.raw(`<div`)
			h.attr("class", "notification notification-"+string(n.Kind))
			h.attr("id", "notice-"+n.ID)
			h.raw(`>`)
			h.text(n.Text)
			h.raw(`<form method="post"`)
			h.url("action", "/api/v1/notices/"+n.ID+"/dismiss")
			h.raw(`><button type="submit">×</button></form></div>`)
		}
		h.raw(`</div>`)
	})
}

// ChatWidget 聊天窗口，消息通过 /ws/chat 或 /api/v1/chat 收发
func ChatWidget() templ.Component {
	return component(func(ctx context.Context, h *writer) {
		h.raw(`<aside class="chat" id="chat" data-ws="/ws/chat">`)
		h.raw(`<div class="chat-header">💬 Помощник</div><div class="chat-messages" id="chatMessages"></div>`)
		h.raw(`<form class="chat-form" method="post" action="/api/v1/chat">`)
		h.raw(`<input name="message" placeholder="Спросите что-нибудь..." autocomplete="off">`)
		h.raw(`<button type="submit">➤</button></form></aside>`)
	})
}
