package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/withstudy/tutor/internal/chat"
	"github.com/withstudy/tutor/internal/common"
)

type submitTurnReq struct {
	Subject string                `json:"subject"`
	Prompt  string                `json:"prompt"`
	History []chat.HistoryMessage `json:"history"`
	Context string                `json:"context"`
}

func (h *Handler) SubmitChatTurn(c *gin.Context) {
	st, ok := h.student(c)
	if !ok {
		return
	}
	var req submitTurnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	res, err := h.ChatSvc.Submit(c.Request.Context(), chat.TurnRequest{
		Student: st,
		Subject: req.Subject,
		Prompt:  req.Prompt,
		History: req.History,
		Context: req.Context,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, gin.H{"reply": res.Reply})
}
