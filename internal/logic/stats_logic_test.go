package logic

import (
	"context"
	"testing"
	"time"

	"github.com/blues/helprojects/internal/model"
	"github.com/blues/helprojects/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	projects := []model.Project{
		{ID: "a", Goal: 1000, Collected: 1000, Donors: 4, Status: model.ProjectStatusCompleted, Category: "sport"},
		{ID: "b", Goal: 1000, Collected: 200, Donors: 1, Status: model.ProjectStatusActive, Category: "sport"},
		{ID: "c", Goal: 500, Collected: 0, Status: model.ProjectStatusActive, Category: "art"},
	}
	st := ComputeStats(projects)
	assert.Equal(t, 3, st.TotalProjects)
	assert.Equal(t, int64(1200), st.TotalCollected)
	assert.Equal(t, 5, st.TotalDonors)
	assert.Equal(t, 33, st.SuccessRate)
	assert.Equal(t, int64(240), st.AverageDonation)
	assert.Equal(t, 1, st.CompletedProjects)

	cats := ComputeCategoryStats(projects)
	require.Len(t, cats, 2)
	assert.Equal(t, "art", cats[0].Category.ID)
	assert.Equal(t, "sport", cats[1].Category.ID)
	assert.Equal(t, 2, cats[1].Count)
	assert.Equal(t, int64(1200), cats[1].Collected)

	assert.Equal(t, PlatformStats{}, ComputeStats(nil))
}

func TestTrendingAndPopular(t *testing.T) {
	projects := []model.Project{
		{ID: "a", Collected: 1000, Donors: 20},
		{ID: "b", Collected: 3000, Donors: 11},
		{ID: "c", Collected: 500, Donors: 0},
		{ID: "d", Collected: 900, Donors: 1},
	}
	assert.Equal(t, []string{"d", "b", "a"}, ids(Trending(projects)))
	assert.Equal(t, []string{"a", "b"}, ids(Popular(projects)))
}

func TestRecommended(t *testing.T) {
	projects := []model.Project{
		{ID: "fav", Category: "art", IsFavorite: true, Status: model.ProjectStatusActive},
		{ID: "x", Category: "sport", Status: model.ProjectStatusActive},
		{ID: "y", Category: "art", Status: model.ProjectStatusActive},
		{ID: "z", Category: "art", Status: model.ProjectStatusCompleted},
	}
	assert.Equal(t, []string{"fav", "x", "y"}, ids(Recommended(projects, false)))
	assert.Equal(t, []string{"y"}, ids(Recommended(projects, true)))
	assert.Equal(t, []string{"x", "y", "z"}, ids(Recommended(projects[1:], true)))
}

func TestAchievements(t *testing.T) {
	labels := func(p model.Project) []string {
		var out []string
		for _, a := range Achievements(p) {
			out = append(out, a.ID)
		}
		return out
	}
	assert.Empty(t, labels(model.Project{Goal: 1000, Collected: 10}))
	assert.Equal(t, []string{"almost_there"}, labels(model.Project{Goal: 1000, Collected: 950}))
	assert.Equal(t, []string{"goal_reached", "popular", "overfunded", "mega_popular"},
		labels(model.Project{Goal: 1000, Collected: 2000, Donors: 120}))
}

func TestDaysLeftAndEstimate(t *testing.T) {
	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	p := model.Project{Goal: 3000, Collected: 1000, Deadline: 30, CreatedAt: created}

	now := created.Add(10 * 24 * time.Hour)
	assert.Equal(t, 20, DaysLeft(p, now))
	assert.False(t, Urgent(p, now))
	assert.True(t, Urgent(p, created.Add(25*24*time.Hour)))

	est := EstimateSuccess(p, now)
	assert.Equal(t, 99, est.Percent)
	assert.NotEmpty(t, est.Label)

	slow := EstimateSuccess(model.Project{Goal: 3000, Collected: 100, Deadline: 30, CreatedAt: created}, now)
	assert.Equal(t, 10, slow.Percent)

	p.Collected = 3000
	assert.Equal(t, 100, EstimateSuccess(p, now).Percent)
}

func TestSupportAndCommentLogs(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	supports := NewSupportRecordLogic(store)
	require.NoError(t, supports.Append(ctx, model.SupportRecord{ID: "s1", ProjectID: "p1", Amount: 10, Donor: "a@b.c"}))
	require.NoError(t, supports.Append(ctx, model.SupportRecord{ID: "s2", ProjectID: "p2", Amount: 20, Donor: model.AnonymousDonor}))

	reloaded := NewSupportRecordLogic(store)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 2, reloaded.Count())
	assert.Len(t, reloaded.ByProject("p1"), 1)
	assert.Len(t, reloaded.ByDonor("a@b.c"), 1)

	comments := NewCommentLogic(store)
	_, err := comments.Add(ctx, "p1", "", CommentInput{Text: "   "})
	assert.ErrorIs(t, err, ErrValidation)
	c, err := comments.Add(ctx, "p1", "", CommentInput{Text: "Отличная идея!"})
	require.NoError(t, err)
	assert.Equal(t, AnonymousAuthor, c.Author)

	reloadedComments := NewCommentLogic(store)
	require.NoError(t, reloadedComments.Load(ctx))
	require.Len(t, reloadedComments.List("p1"), 1)
	assert.Equal(t, "Отличная идея!", reloadedComments.List("p1")[0].Text)

	require.NoError(t, reloadedComments.DeleteProject(ctx, "p1"))
	assert.Empty(t, reloadedComments.List("p1"))
}
