package logic

import (
	"testing"
	"time"

	"github.com/blues/helprojects/internal/model"
	"github.com/stretchr/testify/assert"
)

func ids(projects []model.Project) []string {
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.ID)
	}
	return out
}

func sample() []model.Project {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []model.Project{
		{ID: "a", Title: "Школьный робот", Category: "technology", Goal: 1000, Collected: 100, Donors: 3, CreatedAt: t0, Author: "Анна"},
		{ID: "b", Title: "Сад на крыше", Description: "Зелёный двор", Category: "ecology", Goal: 1000, Collected: 900, Donors: 12, CreatedAt: t0.Add(2 * time.Hour)},
		{ID: "c", Title: "Турнир", Category: "sport", Goal: 100, Collected: 50, Donors: 12, CreatedAt: t0.Add(time.Hour)},
		{ID: "d", Title: "Чистая река", Category: "ecology", Goal: 5000, Collected: 2000, Donors: 1, CreatedAt: t0.Add(time.Hour)},
	}
}

func TestSortNewestIsDescendingAndStable(t *testing.T) {
	got := SortBy(sample(), SortNewest)
	// c 和 d 创建时间相同，保持原顺序
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids(got))
}

func TestSortCriteria(t *testing.T) {
	assert.Equal(t, []string{"b", "c", "a", "d"}, ids(SortBy(sample(), SortPopular)))
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids(SortBy(sample(), SortAlmostDone)))
	assert.Equal(t, []string{"d", "b", "a", "c"}, ids(SortBy(sample(), SortMostFunded)))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(SortBy(sample(), "unknown")))
}

func TestFilterByCategoryPreservesOrder(t *testing.T) {
	assert.Equal(t, []string{"b", "d"}, ids(FilterByCategory(sample(), "ecology")))
	assert.Len(t, FilterByCategory(sample(), model.CategoryAll), 4)
	assert.Len(t, FilterByCategory(sample(), ""), 4)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, []string{"a"}, ids(Search(sample(), "робот")))
	assert.Equal(t, []string{"a"}, ids(Search(sample(), "РОБОТ")))
	assert.Equal(t, []string{"b"}, ids(Search(sample(), "зелёный")))
	assert.Equal(t, []string{"a"}, ids(Search(sample(), "анна")))
	assert.Equal(t, []string{"b", "d"}, ids(Search(sample(), "ECOLOGY")))
	assert.Len(t, Search(sample(), "  "), 4)
}

func TestApplyCombinesStages(t *testing.T) {
	got := Apply(sample(), FilterConfig{Category: "ecology", Query: "река", Sort: SortNewest})
	assert.Equal(t, []string{"d"}, ids(got))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := sample()
	_ = Apply(in, FilterConfig{Sort: SortMostFunded})
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(in))
}
