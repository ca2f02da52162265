package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"github.com/RibasSu/zapnode/internal/media"
)

// MediaHandler serves stored inbound media files by name.
type MediaHandler struct {
	store  *media.Store
	logger *slog.Logger
}

// NewMediaHandler creates a media handler backed by the given store.
func NewMediaHandler(log *slog.Logger, store *media.Store) *MediaHandler {
	return &MediaHandler{
		store:  store,
		logger: log.With(slog.String("handler", "media")),
	}
}

// Register mounts GET /media/:filename on the Echo instance.
func (h *MediaHandler) Register(e *echo.Echo) {
	e.GET("/media/:filename", h.Serve)
}

// Serve streams a stored artifact, or 404 when it is missing or swept.
func (h *MediaHandler) Serve(c echo.Context) error {
	name := c.Param("filename")
	f, err := h.store.Open(name)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "file not found"})
		}
		h.logger.Error("media open failed", slog.String("name", name), slog.Any("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Stream(http.StatusOK, contentType, f)
}
