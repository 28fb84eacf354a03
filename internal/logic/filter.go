package logic

import (
	"sort"
	"strings"

	"github.com/blues/helprojects/internal/model"
	"golang.org/x/text/cases"
)

// SortKey 排序方式
type SortKey string

const (
	SortNewest     SortKey = "newest"
	SortPopular    SortKey = "popular"
	SortAlmostDone SortKey = "almost-done"
	SortMostFunded SortKey = "most-funded"
)

// SortKeys 界面可选的排序
var SortKeys = []SortKey{SortNewest, SortPopular, SortAlmostDone, SortMostFunded}

// FilterConfig 当前筛选条件
type FilterConfig struct {
	Category string  `json:"category" form:"category"`
	Query    string  `json:"query" form:"q"`
	Sort     SortKey `json:"sort" form:"sort"`
}

// Apply 依次按分类、关键字过滤后稳定排序，不修改入参
func Apply(projects []model.Project, cfg FilterConfig) []model.Project {
	out := FilterByCategory(projects, cfg.Category)
	out = Search(out, cfg.Query)
	return SortBy(out, cfg.Sort)
}

// FilterByCategory 分类过滤，all 或空字符串不过滤
func FilterByCategory(projects []model.Project, category string) []model.Project {
	out := make([]model.Project, 0, len(projects))
	for _, p := range projects {
		if category == "" || category == model.CategoryAll || p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Search 在标题、描述、作者、分类中做不区分大小写的子串匹配
func Search(projects []model.Project, query string) []model.Project {
	query = strings.TrimSpace(query)
	out := make([]model.Project, 0, len(projects))
	if query == "" {
		return append(out, projects...)
	}

	fold := cases.Fold()
	needle := fold.String(query)
	for _, p := range projects {
		for _, field := range []string{p.Title, p.Description, p.Author, p.Category} {
			if strings.Contains(fold.String(field), needle) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// SortBy 稳定排序，未知的 key 保持原顺序
func SortBy(projects []model.Project, key SortKey) []model.Project {
	out := append([]model.Project(nil), projects...)

	var less func(a, b *model.Project) bool
	switch key {
	case SortNewest:
		less = func(a, b *model.Project) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortPopular:
		less = func(a, b *model.Project) bool { return a.Donors > b.Donors }
	case SortAlmostDone:
		less = func(a, b *model.Project) bool { return a.Progress() > b.Progress() }
	case SortMostFunded:
		less = func(a, b *model.Project) bool { return a.Collected > b.Collected }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out
}
