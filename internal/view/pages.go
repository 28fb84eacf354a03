package view

import (
	"context"
	"fmt"
	"net/url"

	"github.com/a-h/templ"
	"github.com/blues/helprojects/internal/logic"
	"github.com/blues/helprojects/internal/model"
	"github.com/blues/helprojects/internal/router"
)

func detailHref(id string) string {
	return router.Route{View: router.ViewProjectDetail, ProjectID: id}.Fragment()
}

func actionURL(id, action string) string {
	return "/api/v1/projects/" + url.PathEscape(id) + "/" + action
}

// ProjectCard 列表中的项目卡片
func ProjectCard(p model.Project, s State) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		class := "project-card"
		if logic.Featured(p) {
			class += " featured"
		}
		h.raw(`<article`)
		h.attr("class", class)
		h.attr("data-id", p.ID)
		h.raw(`><a`)
		h.url("href", detailHref(p.ID))
		h.raw(`>`)
		if p.Image != "" {
			h.raw(`<img`)
			h.url("src", p.Image)
			h.attr("alt", p.Title)
			h.raw(`>`)
		}
		h.raw(`<h3>`)
		h.text(p.Title)
		h.raw(`</h3></a><div class="meta"><span class="category">`)
		h.text(model.CategoryIcon(p.Category) + " " + model.CategoryName(p.Category))
		h.raw(`</span><span class="author">`)
		h.text(p.Author)
		h.raw(`</span>`)
		if logic.Urgent(p, s.now()) {
			h.raw(`<span class="urgent">⏰ Скоро завершение</span>`)
		}
		if p.Status == model.ProjectStatusCompleted {
			h.raw(`<span class="status completed">✅ Завершён</span>`)
		}
		h.raw(`</div>`)
		h.component(ctx, ProgressBar(p))
		h.raw(`</article>`)
	})
}

// ProgressBar 进度条和金额
func ProgressBar(p model.Project) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		pct := Percent(p)
		h.rawf(`<div class="progress"><div class="progress-fill" style="width: %d%%"></div></div>`, pct)
		h.raw(`<div class="amounts"><span class="collected">`)
		h.text(Rubles(p.Collected))
		h.raw(`</span> из <span class="goal">`)
		h.text(Rubles(p.Goal))
		h.rawf(`</span> <span class="percent">%d%%</span>`, pct)
		h.rawf(` <span class="donors">👥 %d</span></div>`, p.Donors)
	})
}

func cardList(ctx context.Context, h *writer, s State, projects []model.Project, empty string) {
	if len(projects) == 0 {
		h.raw(`<p class="empty">`)
		h.text(empty)
		h.raw(`</p>`)
		return
	}
	h.raw(`<div class="projects-grid">`)
	for _, p := range projects {
		h.component(ctx, ProjectCard(p, s))
	}
	h.raw(`</div>`)
}

// HomeView 首页：平台数据、热门和推荐
func HomeView(s State) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		st := logic.ComputeStats(s.Projects)
		h.raw(`<section class="hero"><h1>Поддержи школьные проекты</h1>`)
		h.raw(`<p>Помогите ученикам воплотить идеи в жизнь</p>`)
		h.raw(`<a class="btn" href="/create">Создать проект</a></section>`)

		h.raw(`<section class="stats-summary">`)
		h.rawf(`<div class="stat"><b>%d</b> проектов</div>`, st.TotalProjects)
		h.raw(`<div class="stat"><b>`)
		h.text(Rubles(st.TotalCollected))
		h.raw(`</b> собрано</div>`)
		h.rawf(`<div class="stat"><b>%d</b> участников</div>`, st.TotalDonors)
		h.raw(`</section>`)

		h.raw(`<section class="popular"><h2>🔥 Популярные проекты</h2>`)
		cardList(ctx, h, s, logic.Popular(s.Projects), "Пока нет популярных проектов")
		h.raw(`</section>`)

		h.raw(`<section class="recommended"><h2>💡 Рекомендуем</h2>`)
		cardList(ctx, h, s, logic.Recommended(s.Projects, s.Session != nil), "Проектов пока нет")
		h.raw(`</section>`)
	})
}

func option(h *writer, value, label string, selected bool) {
	h.raw(`<option`)
	h.attr("value", value)
	if selected {
		h.raw(` selected`)
	}
	h.raw(`>`)
	h.text(label)
	h.raw(`</option>`)
}

var sortLabels = map[logic.SortKey]string{
	logic.SortNewest:     "Сначала новые",
	logic.SortPopular:    "Популярные",
	logic.SortAlmostDone: "Почти собраны",
	logic.SortMostFunded: "Больше всего собрано",
}

// ProjectsView 项目列表与筛选
func ProjectsView(s State) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		f := s.Filter
		h.raw(`<section class="projects"><h1>Все проекты</h1>`)
		h.raw(`<form class="filters" method="get" action="/projects">`)
		h.raw(`<input name="q" placeholder="Поиск проектов..."`)
		h.attr("value", f.Query)
		h.raw(`><select name="category">`)
		option(h, model.CategoryAll, "Все категории", f.Category == "" || f.Category == model.CategoryAll)
		for _, c := range model.Categories {
			option(h, c.ID, c.Icon+" "+c.Name, f.Category == c.ID)
		}
		h.raw(`</select><select name="sort">`)
		for _, k := range logic.SortKeys {
			option(h, string(k), sortLabels[k], f.Sort == k || (f.Sort == "" && k == logic.SortNewest))
		}
		h.raw(`</select><button type="submit">Применить</button></form>`)
		cardList(ctx, h, s, logic.Apply(s.Projects, f), "Проекты не найдены")
		h.raw(`</section>`)
	})
}

// CreateView 创建项目表单
func CreateView(s State) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		h.raw(`<section class="create"><h1>Создать проект</h1>`)
		if s.Session == nil {
			h.raw(`<p class="hint">Войдите, чтобы проект был подписан вашим именем</p>`)
		}
		h.raw(`<form class="create-form" method="post" action="/api/v1/projects">`)
		h.raw(`<label>Название<input name="title" maxlength="100" required></label>`)
		h.raw(`<label>Описание<textarea name="description" maxlength="2000" required></textarea></label>`)
		h.raw(`<label>Цель (₽)<input name="goal" type="number" min="1" max="1000000" required></label>`)
		h.raw(`<label>Категория<select name="category">`)
		for _, c := range model.Categories {
			option(h, c.ID, c.Icon+" "+c.Name, false)
		}
		h.rawf(`</select></label><label>Срок (дней)<input name="deadline" type="number" min="1" max="365" value="%d"></label>`, logic.DefaultDeadlineDays)
		h.raw(`<label>Изображение<input name="image" type="url" placeholder="https://"></label>`)
		h.raw(`<button type="submit">Создать</button></form></section>`)
	})
}

// StatsView 平台统计
func StatsView(s State) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		st := logic.ComputeStats(s.Projects)
		h.raw(`<section class="stats"><h1>Статистика платформы</h1><div class="stats-grid">`)
		h.rawf(`<div class="stat"><b>%d</b> всего проектов</div>`, st.TotalProjects)
		h.rawf(`<div class="stat"><b>%d</b> активных</div>`, st.ActiveProjects)
		h.rawf(`<div class="stat"><b>%d</b> завершённых</div>`, st.CompletedProjects)
		h.raw(`<div class="stat"><b>`)
		h.text(Rubles(st.TotalCollected))
		h.raw(`</b> собрано</div>`)
		h.rawf(`<div class="stat"><b>%d%%</b> успешных</div>`, st.SuccessRate)
		h.raw(`<div class="stat"><b>`)
		h.text(Rubles(st.AverageDonation))
		h.raw(`</b> средний вклад</div></div>`)

		h.raw(`<h2>По категориям</h2><div class="category-chart">`)
		for _, cs := range logic.ComputeCategoryStats(s.Projects) {
			h.raw(`<div class="category-row"><span class="label">`)
			h.text(cs.Category.Icon + " " + cs.Category.Name)
			h.rawf(`</span><div class="bar" style="width: %d%%"></div>`, int(cs.Share*100))
			h.rawf(`<span class="count">%d</span><span class="sum">`, cs.Count)
			h.text(Rubles(cs.Collected))
			h.raw(`</span></div>`)
		}
		h.raw(`</div><h2>📈 В тренде</h2><ol class="trending">`)
		for _, p := range logic.Trending(s.Projects) {
			h.raw(`<li><a`)
			h.url("href", detailHref(p.ID))
			h.raw(`>`)
			h.text(p.Title)
			h.raw(`</a> `)
			h.text(Rubles(p.Collected))
			h.raw(`</li>`)
		}
		h.raw(`</ol></section>`)
	})
}

// DetailView 项目详情
func DetailView(s State, p model.Project) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		now := s.now()
		h.raw(`<section class="project-detail"><a class="back" href="/projects">← Все проекты</a>`)
		if p.Image != "" {
			h.raw(`<img class="cover"`)
			h.url("src", p.Image)
			h.attr("alt", p.Title)
			h.raw(`>`)
		}
		h.raw(`<h1>`)
		h.text(p.Title)
		h.raw(`</h1><div class="meta"><span class="category">`)
		h.text(model.CategoryIcon(p.Category) + " " + model.CategoryName(p.Category))
		h.raw(`</span><span class="author">`)
		h.text(p.Author)
		h.raw(`</span><span class="date">`)
		h.text(FormatDate(p))
		h.raw(`</span>`)
		if p.Deadline > 0 {
			h.rawf(`<span class="days-left">Осталось дней: %d</span>`, logic.DaysLeft(p, now))
		}
		if p.AverageRating > 0 {
			h.rawf(`<span class="rating">★ %.1f</span>`, p.AverageRating)
		}
		h.raw(`</div>`)

		if achievements := logic.Achievements(p); len(achievements) > 0 {
			h.raw(`<div class="achievements">`)
			for _, a := range achievements {
				h.raw(`<span class="achievement"`)
				h.attr("data-id", a.ID)
				h.raw(`>`)
				h.text(a.Label)
				h.raw(`</span>`)
			}
			h.raw(`</div>`)
		}

		h.raw(`<p class="description">`)
		h.text(p.Description)
		h.raw(`</p>`)
		h.component(ctx, ProgressBar(p))

		est := logic.EstimateSuccess(p, now)
		h.raw(`<p class="estimate">`)
		h.text(fmt.Sprintf("%s: %d%%", est.Label, est.Percent))
		h.raw(`</p>`)

		h.component(ctx, SupportForm(s, p))
		h.component(ctx, InteractionBar(s, p))
		h.component(ctx, SupportList(s.Supports))
		h.component(ctx, CommentList(s, p))
		h.raw(`</section>`)
	})
}

var quickAmounts = []int64{100, 500, 1000}

// SupportForm 支持表单，未登录时以匿名身份提交
func SupportForm(s State, p model.Project) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		h.raw(`<form class="support-form" method="post"`)
		h.url("action", actionURL(p.ID, "support"))
		h.raw(`><h2>Поддержать проект</h2><div class="quick-amounts">`)
		for _, a := range quickAmounts {
			h.rawf(`<button type="submit" name="amount" value="%d">`, a)
			h.text(Rubles(a))
			h.raw(`</button>`)
		}
		h.raw(`</div><input name="amount" type="number" min="1" placeholder="Своя сумма">`)
		if s.Session == nil {
			h.raw(`<p class="hint">Поддержка будет анонимной</p>`)
		} else if s.Game != nil && s.Game.DoubleNextDonation {
			h.raw(`<p class="bonus">×2 эффект этой поддержки</p>`)
		}
		h.raw(`<button type="submit">Поддержать</button></form>`)
	})
}

// InteractionBar 收藏和评分，需要登录
func InteractionBar(s State, p model.Project) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		if s.Session == nil {
			return
		}
		h.raw(`<div class="interactions"><form method="post"`)
		h.url("action", actionURL(p.ID, "favorite"))
		if p.IsFavorite {
			h.raw(`><button type="submit" class="favorite active">❤️ В избранном</button></form>`)
		} else {
			h.raw(`><button type="submit" class="favorite">🤍 В избранное</button></form>`)
		}
		h.raw(`<form class="rate" method="post"`)
		h.url("action", actionURL(p.ID, "rate"))
		h.raw(`>`)
		for stars := 1; stars <= 5; stars++ {
			h.rawf(`<button type="submit" name="stars" value="%d">★</button>`, stars)
		}
		h.raw(`</form></div>`)
	})
}

// SupportList 最近的支持记录
func SupportList(records []model.SupportRecord) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		if len(records) == 0 {
			return
		}
		h.raw(`<h2>Поддержали</h2><ul class="supports">`)
		for _, r := range records {
			donor := r.Donor
			if donor == model.AnonymousDonor {
				donor = logic.AnonymousAuthor
			}
			h.raw(`<li><span class="donor">`)
			h.text(donor)
			h.raw(`</span> <span class="amount">`)
			h.text(Rubles(r.EffectiveAmount))
			h.raw(`</span></li>`)
		}
		h.raw(`</ul>`)
	})
}

// CommentList 评论列表与表单
func CommentList(s State, p model.Project) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		h.rawf(`<section class="comments"><h2>Комментарии (%d)</h2>`, len(s.Comments))
		for _, c := range s.Comments {
			h.raw(`<div class="comment"><b>`)
			h.text(c.Author)
			h.raw(`</b> <span class="date">`)
			h.text(c.CreatedAt.Format("02.01.2006 15:04"))
			h.raw(`</span><p>`)
			h.text(c.Text)
			h.raw(`</p></div>`)
		}
		if s.Session != nil {
			h.raw(`<form class="comment-form" method="post"`)
			h.url("action", actionURL(p.ID, "comments"))
			h.raw(`><textarea name="text" maxlength="500" required></textarea><button type="submit">Отправить</button></form>`)
		}
		h.raw(`</section>`)
	})
}

// NotFoundView 项目不存在
func NotFoundView(id string) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		h.raw(`<section class="not-found"><h1>Проект не найден</h1><p>Проект `)
		h.text(id)
		h.raw(` не существует или был удалён.</p><a href="/projects">← Вернуться к проектам</a></section>`)
	})
}
