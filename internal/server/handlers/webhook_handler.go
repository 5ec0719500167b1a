package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmboard/internal/domain/models"
	service "github.com/mamadbah2/farmboard/internal/service/whatsapp"
	client "github.com/mamadbah2/farmboard/pkg/clients/whatsapp"
)

const businessAccountObject = "whatsapp_business_account"

// WebhookHandler exposes WhatsApp quick entry over HTTP.
type WebhookHandler struct {
	messaging service.MessagingService
	logger    *zap.Logger
}

// NewWebhookHandler builds the quick-entry handler.
func NewWebhookHandler(messaging service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{messaging: messaging, logger: logger}
}

// Verify answers the subscription challenge with hub.challenge.
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, err := h.messaging.VerifyWebhookToken(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
	)
	if err != nil {
		h.logger.Warn("webhook subscription rejected", zap.String("mode", c.Query("hub.mode")), zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive runs the commands carried by a callback. A failure answers 500 so
// the callback is delivered again; handled message ids are skipped then.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("malformed webhook callback", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if payload.Object != "" && payload.Object != businessAccountObject {
		h.logger.Debug("ignoring webhook object", zap.String("object", payload.Object))
		c.Status(http.StatusOK)
		return
	}

	if err := h.messaging.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("quick entry failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process webhook"})
		return
	}
	c.Status(http.StatusOK)
}

// SendMessage pushes an operator message to a phone number. Recipients the
// Cloud API rejects are reported as 422, transport failures as 502.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to and message are required"})
		return
	}

	err := h.messaging.SendOutbound(c.Request.Context(), req)
	var apiErr *client.APIError
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"to": req.To})
	case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
		h.logger.Warn("message rejected", zap.String("to", req.To), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": apiErr.Message})
	default:
		h.logger.Error("message not sent", zap.String("to", req.To), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
	}
}
