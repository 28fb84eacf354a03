package handler

import (
	"errors"
	"net/http"

	"github.com/blues/helprojects/internal/app"
	"github.com/blues/helprojects/internal/logic"
	"github.com/blues/helprojects/internal/remote"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// ErrorStatus 错误对应的 HTTP 状态码
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, logic.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, logic.ErrAuthRequired), errors.Is(err, remote.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, logic.ErrNotFound), errors.Is(err, app.ErrFeatureDisabled):
		return http.StatusNotFound
	case errors.Is(err, logic.ErrInsufficientCoins):
		return http.StatusConflict
	case errors.Is(err, remote.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// isForm 浏览器表单提交
func isForm(c *gin.Context) bool {
	switch c.ContentType() {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return true
	}
	return false
}

// base 各 handler 共用的控制器和响应逻辑
type base struct {
	ctl *app.Controller
}

// respond 表单提交重定向回当前页面，其余返回 JSON；持久化警告仍按成功处理
func (b base) respond(c *gin.Context, status int, message string, data interface{}, err error) {
	if isForm(c) {
		c.Redirect(http.StatusSeeOther, b.ctl.Route().Fragment())
		return
	}
	if err != nil && !logic.IsWarning(err) {
		ErrorResponse(c, ErrorStatus(err), app.UserMessage(err))
		return
	}
	resp := Response{Success: true, Message: message, Data: data}
	if err != nil {
		resp.Warning = app.UserMessage(err)
	}
	c.JSON(status, resp)
}

// badRequest 请求体无法解析
func (b base) badRequest(c *gin.Context, err error) {
	b.ctl.Report(&logic.ValidationError{Message: "Неверный формат данных"})
	if isForm(c) {
		c.Redirect(http.StatusSeeOther, b.ctl.Route().Fragment())
		return
	}
	ErrorResponse(c, http.StatusBadRequest, "Неверный формат запроса: "+err.Error())
}
