package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/withstudy/tutor/internal/common"
	"github.com/withstudy/tutor/internal/timeutil"
)

const recentSessionsLimit = 5

func (h *Handler) Dashboard(c *gin.Context) {
	st, ok := h.student(c)
	if !ok {
		return
	}
	today := timeutil.CalendarDay(h.Clock.Now(), h.Loc)

	d, err := h.Usage.Dashboard(c.Request.Context(), st.ID, today)
	if err != nil {
		h.fail(c, err)
		return
	}
	recent, err := h.Tracker.RecentSessions(c.Request.Context(), st.ID, recentSessionsLimit)
	if err != nil {
		h.fail(c, err)
		return
	}
	common.OK(c, gin.H{
		"summary":         d,
		"recent_sessions": recent,
	})
}
