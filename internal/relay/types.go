// Package relay moves messages between the WhatsApp channel and Chatwoot:
// inbound (channel event -> Chatwoot message) and outbound (Chatwoot
// webhook -> channel message).
package relay

import "context"

// InboundEvent is a message event received from the channel client.
type InboundEvent struct {
	// SenderAddress is the canonical channel address of the sender
	// (E.164-style, leading +).
	SenderAddress string
	// Text is the message body or media caption.
	Text string
	// Media is set when the event carries a downloadable payload.
	Media *InboundMedia
}

// InboundMedia describes a downloadable attachment on an inbound event.
// Download is lazy; it is only invoked when the event is relayed.
type InboundMedia struct {
	Mime     string
	Download func(ctx context.Context) ([]byte, error)
}

// OutboundMedia is a fetched attachment to deliver to the channel.
type OutboundMedia struct {
	// Kind is one of image, audio, video, document, gif.
	Kind     string
	Mime     string
	FileName string
	Data     []byte
	// Caption is attached for visual kinds (image, video, gif).
	Caption string
}

// Sender is the channel-client capability consumed by the outbound relay.
type Sender interface {
	SetTyping(ctx context.Context, address string) error
	ClearTyping(ctx context.Context, address string) error
	SendText(ctx context.Context, address, text string) error
	SendMedia(ctx context.Context, address string, media OutboundMedia) error
}

// SenderSource yields the live channel sender, or false when no client
// session is currently available.
type SenderSource interface {
	Acquire() (Sender, bool)
}
