// Package media owns the scoped temporary-file lifecycle for inbound
// WhatsApp attachments.
package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store writes inbound media to a process-scoped directory and serves it
// back by filename. Files are swept by age; see StartSweeper.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates the media directory if absent and returns a store
// rooted at it.
func NewStore(log *slog.Logger, dir string) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Join(os.TempDir(), "whatsapp-media")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: log.With(slog.String("service", "media")),
	}, nil
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data under a collision-resistant generated filename with an
// extension inferred from the MIME type and returns the artifact.
func (s *Store) Save(data []byte, mime string) (Artifact, error) {
	if len(data) == 0 {
		return Artifact{}, fmt.Errorf("media payload is empty")
	}
	name := uuid.NewString() + extensionFromMime(mime)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Artifact{}, fmt.Errorf("write media file: %w", err)
	}
	s.logger.Debug("media stored",
		slog.String("name", name),
		slog.String("mime", mime),
		slog.Int("bytes", len(data)),
	)
	return Artifact{Name: name, Path: path, Mime: mime}, nil
}

// Open returns a reader for a previously stored artifact. The name is
// reduced to its base form so the read path cannot escape the store root.
func (s *Store) Open(name string) (io.ReadCloser, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, base))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open media file: %w", err)
	}
	return f, nil
}

// Sweep removes artifacts whose modification time is older than maxAge and
// returns how many were removed.
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read media dir: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			s.logger.Warn("sweep remove failed",
				slog.String("name", entry.Name()),
				slog.Any("error", err),
			)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("media swept", slog.Int("removed", removed))
	}
	return removed, nil
}

// StartSweeper runs Sweep on the given interval until ctx is done.
func (s *Store) StartSweeper(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Sweep(maxAge); err != nil {
					s.logger.Warn("media sweep failed", slog.Any("error", err))
				}
			}
		}
	}()
}

// PublicURL returns the externally reachable address of a stored artifact.
func PublicURL(base, name string) string {
	return strings.TrimSuffix(base, "/") + "/media/" + name
}

func extensionFromMime(mime string) string {
	normalized := strings.ToLower(strings.TrimSpace(mime))
	if idx := strings.IndexByte(normalized, ';'); idx >= 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	switch normalized {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	case "audio/wav":
		return ".wav"
	case "audio/mp4":
		return ".m4a"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}
