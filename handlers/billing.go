package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type checkoutRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	if !h.Features.BillingEnabled {
		c.JSON(http.StatusNotFound, gin.H{"error": "billing not enabled"})
		return
	}

	var req checkoutRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	session, err := h.Checkout.CreateSession(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": session.URL})
}
