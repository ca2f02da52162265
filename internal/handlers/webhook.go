package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RibasSu/zapnode/internal/relay"
)

// WebhookHandler receives Chatwoot webhook events and hands them to the
// outbound relay. Chatwoot must always see a success acknowledgment; relay
// failures stay in the logs.
type WebhookHandler struct {
	relay  *relay.OutboundRelay
	logger *slog.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(log *slog.Logger, r *relay.OutboundRelay) *WebhookHandler {
	return &WebhookHandler{
		relay:  r,
		logger: log.With(slog.String("handler", "webhook")),
	}
}

// Register mounts POST /webhook and a GET liveness probe on the same path.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhook", h.Receive)
	e.GET("/webhook", h.Probe)
}

// Receive acknowledges the event and relays it asynchronously.
func (h *WebhookHandler) Receive(c echo.Context) error {
	var payload relay.WebhookPayload
	if err := c.Bind(&payload); err != nil {
		h.logger.Warn("unreadable webhook body", slog.Any("error", err))
		return c.NoContent(http.StatusOK)
	}
	go h.relay.Handle(context.Background(), payload)
	return c.NoContent(http.StatusOK)
}

// Probe reports webhook liveness.
func (h *WebhookHandler) Probe(c echo.Context) error {
	return c.String(http.StatusOK, "Webhook is active")
}
