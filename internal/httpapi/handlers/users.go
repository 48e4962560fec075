package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/withstudy/tutor/internal/auth"
	"github.com/withstudy/tutor/internal/common"
	"github.com/withstudy/tutor/internal/models"
)

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	st, err := h.Students.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.issueToken(c, st)
}

func (h *Handler) Login(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	st, err := h.Students.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	// bring the context document up to date before the first turn
	if _, err := h.Docs.Resolve(c.Request.Context(), st); err != nil {
		h.fail(c, err)
		return
	}
	h.issueToken(c, st)
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName, "", -1, "/", "", h.Cfg.CookieSecure, true)
	common.OK(c, nil)
}

func (h *Handler) issueToken(c *gin.Context, st *models.Student) {
	token, err := auth.SignJWT(st.ID, h.Cfg.JWTSecret, h.Cfg.JWTTTL)
	if err != nil {
		h.Log.WithError(err).Error("sign token")
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookieName, token, int(h.Cfg.JWTTTL.Seconds()), "/", "", h.Cfg.CookieSecure, true)
	common.OK(c, gin.H{
		"email": st.Email,
		"token": token,
	})
}
