package router

import (
	"net/url"
	"strings"
)

// View 页面
type View string

const (
	ViewHome          View = "home"
	ViewProjects      View = "projects"
	ViewCreate        View = "create"
	ViewStats         View = "stats"
	ViewProjectDetail View = "project-detail"
)

// Route 当前页面及参数
type Route struct {
	View      View   `json:"view"`
	ProjectID string `json:"projectId,omitempty"`
}

// Home 初始路由
func Home() Route { return Route{View: ViewHome} }

var exactRoutes = map[string]View{
	"/":         ViewHome,
	"/projects": ViewProjects,
	"/create":   ViewCreate,
	"/stats":    ViewStats,
}

const projectPrefix = "/project/"

// Parse 把地址片段解析为路由，无法识别的片段回到首页
func Parse(fragment string) Route {
	path := strings.TrimSpace(fragment)
	path = strings.TrimPrefix(path, "#")
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}

	if view, ok := exactRoutes[path]; ok {
		return Route{View: view}
	}
	if strings.HasPrefix(path, projectPrefix) {
		id := strings.TrimPrefix(path, projectPrefix)
		if i := strings.IndexByte(id, '/'); i >= 0 {
			id = id[:i]
		}
		if unescaped, err := url.PathUnescape(id); err == nil {
			id = unescaped
		}
		if id != "" {
			return Route{View: ViewProjectDetail, ProjectID: id}
		}
	}
	return Home()
}

// Fragment 路由对应的地址
func (r Route) Fragment() string {
	switch r.View {
	case ViewProjects:
		return "/projects"
	case ViewCreate:
		return "/create"
	case ViewStats:
		return "/stats"
	case ViewProjectDetail:
		if r.ProjectID != "" {
			return projectPrefix + url.PathEscape(r.ProjectID)
		}
	}
	return "/"
}

// For 应用内跳转：先生成地址，再走与外部地址相同的解析
func For(view View, param string) Route {
	return Parse(Route{View: view, ProjectID: param}.Fragment())
}
