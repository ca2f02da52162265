// Package identity maps WhatsApp channel addresses to Chatwoot
// contact/conversation pairs.
package identity

import (
	"errors"
	"time"
)

// Record binds a canonical channel address to the Chatwoot contact and
// conversation created for it. Records are created once and never mutated.
type Record struct {
	ChannelAddress string    `json:"channel_address"`
	ContactID      string    `json:"contact_id"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

var (
	// ErrNotFound indicates no record exists for the address.
	ErrNotFound = errors.New("identity record not found")
	// ErrConflict indicates a record for the address already exists;
	// a concurrent creator won the insert race. Callers should re-resolve.
	ErrConflict = errors.New("identity record already exists")
)
