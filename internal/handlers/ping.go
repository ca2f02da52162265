// Package handlers contains the HTTP route handlers of the bridge.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// PingHandler serves the liveness probes.
type PingHandler struct {
	started time.Time
	logger  *slog.Logger
}

// NewPingHandler creates a ping handler.
func NewPingHandler(log *slog.Logger) *PingHandler {
	return &PingHandler{
		started: time.Now(),
		logger:  log.With(slog.String("handler", "ping")),
	}
}

// Register mounts GET /ping and HEAD /health on the Echo instance.
func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.HEAD("/health", h.Health)
}

// Ping reports liveness and uptime.
func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Health returns 200 No Content for external health checks.
func (h *PingHandler) Health(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
