package handler

import (
	"net/http"

	"github.com/blues/helprojects/internal/app"
	"github.com/blues/helprojects/internal/router"
	"github.com/gin-gonic/gin"
)

type NoticeHandler struct {
	base
}

func NewNoticeHandler(ctl *app.Controller) *NoticeHandler {
	return &NoticeHandler{base{ctl: ctl}}
}

// GetNotices 当前提示
func (h *NoticeHandler) GetNotices(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "", h.ctl.Notices())
}

// DismissNotice 关闭提示
func (h *NoticeHandler) DismissNotice(c *gin.Context) {
	if !h.ctl.DismissNotice(c.Param("id")) && !isForm(c) {
		ErrorResponse(c, http.StatusNotFound, "Уведомление не найдено")
		return
	}
	h.respond(c, http.StatusOK, "", nil, nil)
}

// Navigate 应用内跳转，返回解析后的路由
func (h *NoticeHandler) Navigate(c *gin.Context) {
	route := h.ctl.Navigate(router.View(c.Query("to")), c.Query("param"))
	SuccessResponse(c, http.StatusOK, "", gin.H{
		"route":    route,
		"fragment": route.Fragment(),
	})
}
