package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const uniformResetMessage = "if an account exists for this email, a reset link has been sent"

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	if h.Features.ResetUniformResponse {
		h.Reset.RequestResetInBackground(c.Request.Context(), req.Email)
		c.JSON(http.StatusOK, gin.H{"message": uniformResetMessage})
		return
	}

	res, err := h.Reset.RequestReset(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if !res.EmailSent {
		c.JSON(http.StatusOK, gin.H{
			"message":    "reset link created but the email could not be sent",
			"email_sent": false,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reset link sent", "email_sent": true})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	if err := h.Reset.RedeemReset(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
