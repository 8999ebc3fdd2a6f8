package handlers

import (
	"net/http"

	"streamgate/middleware"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	res, err := h.Auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": res.User.Profile(), "token": res.Token})
}

func (h *Handler) Signin(c *gin.Context) {
	var req credentialsRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	res, err := h.Auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": res.Token, "user": res.User.Profile()})
}

func (h *Handler) Profile(c *gin.Context) {
	p, _ := middleware.Principal(c)

	u, err := h.Auth.GetProfile(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u.Profile()})
}

// VerifyToken echoes the claims of a valid session token.
func (h *Handler) VerifyToken(c *gin.Context) {
	p, _ := middleware.Principal(c)
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": p})
}
