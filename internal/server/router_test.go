package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/blues/helprojects/internal/app"
	"github.com/blues/helprojects/internal/storage"
	"github.com/blues/helprojects/internal/view"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *app.Controller) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctl := app.New(app.Options{
		Store:    storage.NewMemoryStore(),
		Features: view.Features{Gamification: true, Chat: true},
	})
	require.NoError(t, ctl.Restore(context.Background()))
	t.Cleanup(ctl.Close)
	return NewRouter(ctl), ctl
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "helprojects")

	w = serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPagesRender(t *testing.T) {
	r, _ := newTestRouter(t)
	for _, path := range []string{"/", "/projects", "/create", "/stats", "/project/x", "/unknown/page"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "<nav", path)
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	r, _ := newTestRouter(t)
	w := serve(r, httptest.NewRequest(http.MethodPost, "/api/v1/nothing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)
	w := serve(r, httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func postForm(r *gin.Engine, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return serve(r, req)
}

func TestFormFlow(t *testing.T) {
	r, ctl := newTestRouter(t)

	w := postForm(r, "/api/v1/session/register", url.Values{"name": {"Анна"}, "email": {"anna@school.ru"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	require.NotNil(t, ctl.Session())

	w = postForm(r, "/api/v1/projects", url.Values{
		"title":       {"Школьный сад"},
		"description": {"Посадим деревья"},
		"goal":        {"1000"},
		"category":    {"ecology"},
		"deadline":    {"30"},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	projects := ctl.Projects()
	require.Len(t, projects, 1)
	id := projects[0].ID
	assert.Equal(t, "/project/"+id, w.Header().Get("Location"))
	assert.Equal(t, "Анна", projects[0].Author)

	w = postForm(r, "/api/v1/projects/"+id+"/comments", url.Values{"text": {"Отличная идея"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	comments, err := ctl.Comments(id)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	w = postForm(r, "/api/v1/projects/"+id+"/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/projects", w.Header().Get("Location"))
	assert.Empty(t, ctl.Projects())

	w = postForm(r, "/api/v1/session/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Nil(t, ctl.Session())
}

func TestGameEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/game", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session", strings.NewReader(`{"email":"anna@school.ru"}`))
	req.Header.Set("Content-Type", "application/json")
	w = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/game", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"coins":100`)
}
