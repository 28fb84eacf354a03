package handler

import (
	"net/http"

	"github.com/blues/helprojects/internal/app"
	"github.com/blues/helprojects/internal/logger"
	"github.com/blues/helprojects/internal/logic"
	"github.com/blues/helprojects/internal/router"
	"github.com/gin-gonic/gin"
)

type PageHandler struct {
	base
}

func NewPageHandler(ctl *app.Controller) *PageHandler {
	return &PageHandler{base{ctl: ctl}}
}

// Page 按请求路径渲染页面，未知路径显示首页
func (h *PageHandler) Page(c *gin.Context) {
	route := h.ctl.NavigateFragment(c.Request.URL.Path)
	if route.View == router.ViewProjects {
		var filter logic.FilterConfig
		if err := c.ShouldBindQuery(&filter); err == nil {
			h.ctl.ApplyFilters(filter)
		}
	}

	html, err := h.ctl.Render(c.Request.Context())
	if err != nil {
		logger.Error("Failed to render %s: %v", route.Fragment(), err)
		c.String(http.StatusInternalServerError, "Ошибка отображения страницы")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
