package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/withstudy/tutor/internal/common"
)

type saveContextReq struct {
	Content string `json:"content"`
}

func (h *Handler) GetContext(c *gin.Context) {
	st, ok := h.student(c)
	if !ok {
		return
	}
	content, err := h.Docs.Resolve(c.Request.Context(), st)
	if err != nil {
		h.fail(c, err)
		return
	}
	doc, err := h.Docs.Get(c.Request.Context(), st.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, gin.H{
		"content":        content,
		"is_manual_edit": doc.IsManualEdit,
		"updated_at":     doc.UpdatedAt,
	})
}

func (h *Handler) SaveContext(c *gin.Context) {
	st, ok := h.student(c)
	if !ok {
		return
	}
	var req saveContextReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if err := h.Docs.Save(c.Request.Context(), st, req.Content); err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, gin.H{"content": req.Content, "is_manual_edit": true})
}

func (h *Handler) RegenerateContext(c *gin.Context) {
	st, ok := h.student(c)
	if !ok {
		return
	}
	content, err := h.Docs.Regenerate(c.Request.Context(), st)
	if err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, gin.H{"content": content, "is_manual_edit": false})
}
