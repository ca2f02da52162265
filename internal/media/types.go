package media

import "errors"

// Artifact describes a stored inbound media file.
type Artifact struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Mime string `json:"mime"`
}

var (
	// ErrNotFound indicates the requested artifact does not exist.
	ErrNotFound = errors.New("media artifact not found")
)
