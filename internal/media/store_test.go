package media

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(nil, t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestSaveAndOpen(t *testing.T) {
	store := newTestStore(t)

	artifact, err := store.Save([]byte("payload"), "image/jpeg")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasSuffix(artifact.Name, ".jpg") {
		t.Fatalf("expected .jpg suffix, got %q", artifact.Name)
	}

	f, err := store.Open(artifact.Name)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("expected payload, got %q", data)
	}
}

func TestSaveEmptyPayload(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Save(nil, "image/jpeg"); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestOpenMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Open("nope.jpg"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenStripsDirectoryComponents(t *testing.T) {
	store := newTestStore(t)

	artifact, err := store.Save([]byte("payload"), "application/pdf")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	f, err := store.Open("../../" + artifact.Name)
	if err != nil {
		t.Fatalf("Open with traversal prefix failed: %v", err)
	}
	f.Close()

	if _, err := store.Open("../../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for escaped path, got %v", err)
	}
}

func TestSweepRemovesOnlyOldFiles(t *testing.T) {
	store := newTestStore(t)

	oldArtifact, err := store.Save([]byte("old"), "image/png")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	freshArtifact, err := store.Save([]byte("fresh"), "image/png")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(store.Dir(), oldArtifact.Name), past, past); err != nil {
		t.Fatalf("chtimes failed: %v", err)
	}

	removed, err := store.Sweep(time.Hour)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := store.Open(oldArtifact.Name); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected old artifact swept, got %v", err)
	}
	f, err := store.Open(freshArtifact.Name)
	if err != nil {
		t.Fatalf("expected fresh artifact kept, got %v", err)
	}
	f.Close()
}

func TestExtensionFromMime(t *testing.T) {
	cases := []struct {
		mime string
		want string
	}{
		{mime: "image/jpeg", want: ".jpg"},
		{mime: "image/png", want: ".png"},
		{mime: "audio/ogg; codecs=opus", want: ".ogg"},
		{mime: "video/mp4", want: ".mp4"},
		{mime: "application/pdf", want: ".pdf"},
		{mime: "application/x-unknown", want: ".bin"},
		{mime: "", want: ".bin"},
	}
	for _, tc := range cases {
		if got := extensionFromMime(tc.mime); got != tc.want {
			t.Fatalf("extensionFromMime(%q) got %q want %q", tc.mime, got, tc.want)
		}
	}
}

func TestPublicURL(t *testing.T) {
	got := PublicURL("http://localhost:3000/", "a.jpg")
	if got != "http://localhost:3000/media/a.jpg" {
		t.Fatalf("PublicURL got %q", got)
	}
}
