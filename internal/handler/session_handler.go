package handler

import (
	"net/http"

	"github.com/blues/helprojects/internal/app"
	"github.com/blues/helprojects/internal/logic"
	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	base
}

func NewSessionHandler(ctl *app.Controller) *SessionHandler {
	return &SessionHandler{base{ctl: ctl}}
}

// Login 登录
func (h *SessionHandler) Login(c *gin.Context) {
	var in logic.LoginInput
	if err := c.ShouldBind(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	session, err := h.ctl.Login(c.Request.Context(), in)
	h.respond(c, http.StatusOK, "Добро пожаловать!", session, err)
}

// Register 注册
func (h *SessionHandler) Register(c *gin.Context) {
	var in logic.RegisterInput
	if err := c.ShouldBind(&in); err != nil {
		h.badRequest(c, err)
		return
	}

	session, err := h.ctl.Register(c.Request.Context(), in)
	h.respond(c, http.StatusCreated, "Регистрация завершена", session, err)
}

// Logout 退出
func (h *SessionHandler) Logout(c *gin.Context) {
	err := h.ctl.Logout(c.Request.Context())
	h.respond(c, http.StatusOK, "Вы вышли из системы", nil, err)
}

// Current 当前会话，未登录时 data 为 null
func (h *SessionHandler) Current(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "", h.ctl.Session())
}
