package chat

import (
	"testing"

	"github.com/blues/helprojects/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBot() *Bot {
	b := NewBot(nil)
	b.pick = func(int) int { return 0 }
	return b
}

func TestDefaultScriptLoads(t *testing.T) {
	s := DefaultScript()
	assert.NotEmpty(t, s.Greeting)
	assert.NotEmpty(t, s.Rules)
}

func TestLoadScriptRejectsIncompleteRules(t *testing.T) {
	_, err := LoadScript([]byte("fallback: [\"?\"]\nrules:\n  - intent: x\n"))
	require.Error(t, err)

	_, err = LoadScript([]byte("rules: []\n"))
	require.Error(t, err)
}

func TestReplyMatchesKeywordsCaseInsensitive(t *testing.T) {
	b := newTestBot()
	assert.Equal(t, IntentGreeting, b.Reply("ПРИВЕТ", nil).Intent)
	assert.Equal(t, "support", b.Reply("Как поддержать проект?", nil).Intent)
	assert.Equal(t, "thanks", b.Reply("спасибо!", nil).Intent)
	assert.Equal(t, IntentFallback, b.Reply("квантовая хромодинамика", nil).Intent)
	assert.Equal(t, IntentGreeting, b.Reply("   ", nil).Intent)
}

func TestStatsIntent(t *testing.T) {
	projects := []model.Project{
		{ID: "a", Goal: 1000, Collected: 300, Donors: 2},
		{ID: "b", Goal: 1000, Collected: 200, Donors: 3},
	}
	r := newTestBot().Reply("покажи статистику", projects)
	assert.Equal(t, IntentStats, r.Intent)
	assert.Contains(t, r.Text, "2 проектов")
	assert.Contains(t, r.Text, "500 ₽")
	assert.Contains(t, r.Text, "участников: 5")
}

func TestSuggestIntentSkipsCompleted(t *testing.T) {
	projects := []model.Project{
		{ID: "done", Title: "Готово", Goal: 10, Collected: 10, Status: model.ProjectStatusCompleted},
		{ID: "open", Title: "Школьный робот", Goal: 1000, Collected: 100, Status: model.ProjectStatusActive},
	}
	r := newTestBot().Reply("посоветуй что-нибудь", projects)
	assert.Equal(t, IntentSuggest, r.Intent)
	assert.Equal(t, "open", r.ProjectID)
	assert.Contains(t, r.Text, "«Школьный робот»")

	r = newTestBot().Reply("посоветуй", projects[:1])
	assert.Equal(t, IntentSuggest, r.Intent)
	assert.Empty(t, r.ProjectID)
}
