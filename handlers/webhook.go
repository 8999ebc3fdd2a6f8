package handlers

import (
	"io"
	"net/http"

	"streamgate/billing"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

// Webhook hands the raw body to the reconciler. The gateway is acknowledged
// once the notification is authenticated; the subscription update finishes
// in the background.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		respondError(c, h.Logger, billing.ErrInvalidPayload)
		return
	}

	ack, err := h.Reconciler.Handle(c.Request.Context(), payload, c.Request.Header)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "event_id": ack.EventID})
}
