package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/withstudy/tutor/internal/common"
	"github.com/withstudy/tutor/internal/models"
	"github.com/withstudy/tutor/internal/students"
)

func profileView(st *models.Student) gin.H {
	return gin.H{
		"email":            st.Email,
		"grade":            st.Grade,
		"favorite_subject": st.FavoriteSubject,
		"mock_exam_score":  st.MockExamScore,
	}
}

func (h *Handler) GetProfile(c *gin.Context) {
	st, ok := h.student(c)
	if !ok {
		return
	}
	common.OK(c, profileView(st))
}

// UpdateProfile stores the new profile and reconciles the context document
// right away so the next turn already sees it.
func (h *Handler) UpdateProfile(c *gin.Context) {
	st, ok := h.student(c)
	if !ok {
		return
	}
	var req students.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	updated, err := h.Students.UpdateProfile(c.Request.Context(), st, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.Docs.Resolve(c.Request.Context(), updated); err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, profileView(updated))
}

func (h *Handler) ListSubjects(c *gin.Context) {
	common.OK(c, gin.H{"subjects": models.Subjects()})
}
