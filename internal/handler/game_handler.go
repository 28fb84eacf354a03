package handler

import (
	"net/http"

	"github.com/blues/helprojects/internal/app"
	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	base
}

func NewGameHandler(ctl *app.Controller) *GameHandler {
	return &GameHandler{base{ctl: ctl}}
}

// GetStats 当前身份的金币、经验、等级和徽章
func (h *GameHandler) GetStats(c *gin.Context) {
	stats, err := h.ctl.Game()
	if err != nil {
		ErrorResponse(c, ErrorStatus(err), app.UserMessage(err))
		return
	}
	SuccessResponse(c, http.StatusOK, "", stats)
}

// BuyDoubleDonation 购买翻倍奖励
func (h *GameHandler) BuyDoubleDonation(c *gin.Context) {
	stats, err := h.ctl.BuyDoubleDonation(c.Request.Context())
	h.respond(c, http.StatusOK, "Следующая поддержка будет удвоена", stats, err)
}
