package logic

import (
	"math"
	"sort"
	"time"

	"github.com/blues/helprojects/internal/model"
)

// PlatformStats 平台汇总
type PlatformStats struct {
	TotalProjects     int   `json:"totalProjects"`
	ActiveProjects    int   `json:"activeProjects"`
	CompletedProjects int   `json:"completedProjects"`
	TotalCollected    int64 `json:"totalCollected"`
	TotalGoal         int64 `json:"totalGoal"`
	TotalDonors       int   `json:"totalDonors"`
	SuccessRate       int   `json:"successRate"`     // 百分比
	AverageDonation   int64 `json:"averageDonation"` // 每位支持者
}

// CategoryStats 分类汇总
type CategoryStats struct {
	Category  model.Category `json:"category"`
	Count     int            `json:"count"`
	Collected int64          `json:"collected"`
	Goal      int64          `json:"goal"`
	Share     float64        `json:"share"` // 占项目总数比例
}

// ComputeStats 汇总平台数据
func ComputeStats(projects []model.Project) PlatformStats {
	var st PlatformStats
	st.TotalProjects = len(projects)
	successful := 0
	for i := range projects {
		p := &projects[i]
		st.TotalCollected += p.Collected
		st.TotalGoal += p.Goal
		st.TotalDonors += p.Donors
		if p.Status == model.ProjectStatusCompleted {
			st.CompletedProjects++
		} else {
			st.ActiveProjects++
		}
		if p.Collected >= p.Goal {
			successful++
		}
	}
	if st.TotalProjects > 0 {
		st.SuccessRate = int(math.Round(float64(successful) / float64(st.TotalProjects) * 100))
	}
	if st.TotalDonors > 0 {
		st.AverageDonation = int64(math.Round(float64(st.TotalCollected) / float64(st.TotalDonors)))
	}
	return st
}

// ComputeCategoryStats 按固定分类顺序汇总，跳过没有项目的分类
func ComputeCategoryStats(projects []model.Project) []CategoryStats {
	byID := map[string]*CategoryStats{}
	for _, c := range model.Categories {
		byID[c.ID] = &CategoryStats{Category: c}
	}
	for i := range projects {
		p := &projects[i]
		cs, ok := byID[p.Category]
		if !ok {
			cs = byID["other"]
		}
		cs.Count++
		cs.Collected += p.Collected
		cs.Goal += p.Goal
	}

	var out []CategoryStats
	for _, c := range model.Categories {
		cs := byID[c.ID]
		if cs.Count == 0 {
			continue
		}
		cs.Share = float64(cs.Count) / float64(len(projects))
		out = append(out, *cs)
	}
	return out
}

func averagePerDonor(p *model.Project) float64 {
	if p.Donors == 0 {
		return 0
	}
	return float64(p.Collected) / float64(p.Donors)
}

// Trending 人均支持金额最高的前 5 个项目
func Trending(projects []model.Project) []model.Project {
	var out []model.Project
	for _, p := range projects {
		if p.Donors > 0 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return averagePerDonor(&out[i]) > averagePerDonor(&out[j])
	})
	return head(out, 5)
}

// Popular 首页热门：支持者超过 10 人，取前 3
func Popular(projects []model.Project) []model.Project {
	var out []model.Project
	for _, p := range projects {
		if p.Donors > 10 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Donors > out[j].Donors })
	return head(out, 3)
}

// Recommended 根据收藏的分类推荐；未登录或没有收藏时返回前 3 个
func Recommended(projects []model.Project, signedIn bool) []model.Project {
	if !signedIn {
		return head(projects, 3)
	}
	favCategories := map[string]bool{}
	for _, p := range projects {
		if p.IsFavorite {
			favCategories[p.Category] = true
		}
	}
	if len(favCategories) == 0 {
		return head(projects, 3)
	}
	var out []model.Project
	for _, p := range projects {
		if favCategories[p.Category] && !p.IsFavorite && p.Status == model.ProjectStatusActive {
			out = append(out, p)
		}
	}
	return head(out, 3)
}

func head(projects []model.Project, n int) []model.Project {
	if len(projects) > n {
		projects = projects[:n]
	}
	return append([]model.Project(nil), projects...)
}

// Achievement 项目成就标签
type Achievement struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Achievements 项目的成就标签
func Achievements(p model.Project) []Achievement {
	var out []Achievement
	progress := p.Progress() * 100
	if p.GoalReached() {
		out = append(out, Achievement{ID: "goal_reached", Label: "🎯 Цель достигнута"})
	}
	if p.Donors >= 50 {
		out = append(out, Achievement{ID: "popular", Label: "👥 Популярный проект"})
	}
	if p.Goal > 0 && p.Collected >= p.Goal*2 {
		out = append(out, Achievement{ID: "overfunded", Label: "🚀 Превышение цели"})
	}
	if progress >= 90 && progress < 100 {
		out = append(out, Achievement{ID: "almost_there", Label: "⏰ Почти у цели"})
	}
	if p.Donors >= 100 {
		out = append(out, Achievement{ID: "mega_popular", Label: "🔥 Мега-популярный"})
	}
	return out
}

// DaysLeft 剩余天数，创建时的期限减去已过去的天数
func DaysLeft(p model.Project, now time.Time) int {
	if p.Deadline <= 0 {
		return 0
	}
	elapsed := int(now.Sub(p.CreatedAt).Hours() / 24)
	if left := p.Deadline - elapsed; left > 0 {
		return left
	}
	return 0
}

// Urgent 不到 7 天且未完成
func Urgent(p model.Project, now time.Time) bool {
	left := DaysLeft(p, now)
	return p.Deadline > 0 && left < 7 && !p.GoalReached()
}

// Featured 支持者超过 30 人或进度超过 80%
func Featured(p model.Project) bool {
	return p.Donors > 30 || p.Progress() > 0.8
}

// SuccessEstimate 粗略的成功估计，仅用于展示
type SuccessEstimate struct {
	Percent int    `json:"percent"`
	Label   string `json:"label"`
}

const estimateWindowDays = 30

// EstimateSuccess 按已筹速度线性外推到期限（默认 30 天窗口），结果只作展示
func EstimateSuccess(p model.Project, now time.Time) SuccessEstimate {
	const label = "Примерная оценка"
	if p.GoalReached() {
		return SuccessEstimate{Percent: 100, Label: label}
	}
	if p.Goal <= 0 {
		return SuccessEstimate{Label: label}
	}
	window := p.Deadline
	if window <= 0 {
		window = estimateWindowDays
	}
	elapsed := now.Sub(p.CreatedAt).Hours() / 24
	if elapsed < 1 {
		elapsed = 1
	}
	projected := float64(p.Collected) / elapsed * float64(window)
	pct := int(math.Round(projected / float64(p.Goal) * 100))
	if pct > 99 {
		pct = 99
	}
	if pct < 0 {
		pct = 0
	}
	return SuccessEstimate{Percent: pct, Label: label}
}
