package whatsapp

import (
	"sync"

	"github.com/RibasSu/zapnode/internal/relay"
)

// Handle holds the live channel sender. Only the startup routine writes it;
// both relays read it concurrently.
type Handle struct {
	mu     sync.RWMutex
	sender relay.Sender
}

// NewHandle creates an empty handle.
func NewHandle() *Handle {
	return &Handle{}
}

// Set installs the sender. Single writer at startup.
func (h *Handle) Set(sender relay.Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sender = sender
}

// Acquire returns the current sender, or false when none is installed.
func (h *Handle) Acquire() (relay.Sender, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.sender == nil {
		return nil, false
	}
	return h.sender, true
}
