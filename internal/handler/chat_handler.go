package handler

import (
	"net/http"
	"time"

	"github.com/blues/helprojects/internal/app"
	"github.com/blues/helprojects/internal/chat"
	"github.com/blues/helprojects/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// 每个连接每秒最多一条消息，允许突发 5 条
const (
	chatRate  = rate.Limit(1)
	chatBurst = 5
)

type ChatHandler struct {
	base
}

func NewChatHandler(ctl *app.Controller) *ChatHandler {
	return &ChatHandler{base{ctl: ctl}}
}

func toChatResponse(r chat.Reply) ChatResponse {
	return ChatResponse{Intent: r.Intent, Text: r.Text, ProjectID: r.ProjectID}
}

// PostMessage 单条消息
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	reply, err := h.ctl.Chat(req.Message)
	if err != nil {
		ErrorResponse(c, ErrorStatus(err), app.UserMessage(err))
		return
	}
	SuccessResponse(c, http.StatusOK, "", toChatResponse(reply))
}

// WebSocket 聊天长连接，连接后先发送欢迎语
func (h *ChatHandler) WebSocket(c *gin.Context) {
	greeting, err := h.ctl.ChatGreeting()
	if err != nil {
		ErrorResponse(c, ErrorStatus(err), app.UserMessage(err))
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Failed to upgrade the websocket: %v", err)
		return
	}
	defer ws.Close()

	connID := uuid.NewString()
	logger.Info("Chat client %s connected", connID)
	if err := ws.WriteJSON(toChatResponse(greeting)); err != nil {
		return
	}

	limiter := rate.NewLimiter(chatRate, chatBurst)
	for {
		var req ChatRequest
		if err := ws.ReadJSON(&req); err != nil {
			logger.Info("Chat client %s disconnected: %v", connID, err)
			return
		}

		var resp ChatResponse
		if !limiter.Allow() {
			resp = ChatResponse{Error: "Слишком много сообщений, подождите немного"}
		} else if reply, err := h.ctl.Chat(req.Message); err != nil {
			resp = ChatResponse{Error: app.UserMessage(err)}
		} else {
			resp = toChatResponse(reply)
		}

		_ = ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := ws.WriteJSON(resp); err != nil {
			logger.Warn("Failed to write chat reply to %s: %v", connID, err)
			return
		}
	}
}
