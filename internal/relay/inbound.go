package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RibasSu/zapnode/internal/identity"
	"github.com/RibasSu/zapnode/internal/media"
)

// IdentityStore resolves and creates channel-address identity records.
type IdentityStore interface {
	Resolve(ctx context.Context, channelAddress string) (identity.Record, error)
	Create(ctx context.Context, channelAddress, contactID, conversationID string) (identity.Record, error)
}

// ChatwootAPI is the Chatwoot surface the inbound relay needs.
type ChatwootAPI interface {
	CreateContact(ctx context.Context, channelAddress string) (string, error)
	CreateConversation(ctx context.Context, contactID, sourceID string) (string, error)
	CreateMessage(ctx context.Context, conversationID, content string) error
	CreateAttachmentMessage(ctx context.Context, conversationID, content, filePath, mimeType string) error
}

// MediaSink stores downloaded inbound media payloads.
type MediaSink interface {
	Save(data []byte, mime string) (media.Artifact, error)
}

// InboundRelay forwards channel message events into Chatwoot, creating the
// contact/conversation pair on first contact.
type InboundRelay struct {
	identities IdentityStore
	chatwoot   ChatwootAPI
	media      MediaSink
	publicBase string
	logger     *slog.Logger
}

// NewInboundRelay wires the inbound relay. publicBase is the externally
// reachable base URL under which stored media is served.
func NewInboundRelay(log *slog.Logger, identities IdentityStore, cw ChatwootAPI, sink MediaSink, publicBase string) *InboundRelay {
	if log == nil {
		log = slog.Default()
	}
	return &InboundRelay{
		identities: identities,
		chatwoot:   cw,
		media:      sink,
		publicBase: publicBase,
		logger:     log.With(slog.String("service", "inbound_relay")),
	}
}

// Handle relays one inbound event. Failures are returned so the caller can
// log and drop them; the channel is never blocked on Chatwoot.
func (r *InboundRelay) Handle(ctx context.Context, evt InboundEvent) error {
	if strings.TrimSpace(evt.SenderAddress) == "" {
		return fmt.Errorf("inbound event without sender address")
	}

	record, err := r.ensureIdentity(ctx, evt.SenderAddress)
	if err != nil {
		return err
	}

	if evt.Media != nil {
		return r.relayMedia(ctx, record, evt)
	}
	if strings.TrimSpace(evt.Text) == "" {
		return nil
	}
	if err := r.chatwoot.CreateMessage(ctx, record.ConversationID, evt.Text); err != nil {
		return fmt.Errorf("relay text: %w", err)
	}
	return nil
}

// ensureIdentity resolves the identity for the address, creating the
// Chatwoot contact and conversation on first contact. A concurrent creator
// may win the insert race; the loser re-resolves the winner's record.
func (r *InboundRelay) ensureIdentity(ctx context.Context, channelAddress string) (identity.Record, error) {
	record, err := r.identities.Resolve(ctx, channelAddress)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return identity.Record{}, err
	}

	contactID, err := r.chatwoot.CreateContact(ctx, channelAddress)
	if err != nil {
		return identity.Record{}, err
	}
	conversationID, err := r.chatwoot.CreateConversation(ctx, contactID, channelAddress)
	if err != nil {
		return identity.Record{}, err
	}

	record, err = r.identities.Create(ctx, channelAddress, contactID, conversationID)
	if err == nil {
		return record, nil
	}
	if errors.Is(err, identity.ErrConflict) {
		return r.identities.Resolve(ctx, channelAddress)
	}
	return identity.Record{}, err
}

func (r *InboundRelay) relayMedia(ctx context.Context, record identity.Record, evt InboundEvent) error {
	data, err := evt.Media.Download(ctx)
	if err != nil {
		r.logger.Warn("media download failed",
			slog.String("channel_address", evt.SenderAddress),
			slog.Any("error", err),
		)
		if strings.TrimSpace(evt.Text) == "" {
			return nil
		}
		if err := r.chatwoot.CreateMessage(ctx, record.ConversationID, evt.Text); err != nil {
			return fmt.Errorf("relay caption: %w", err)
		}
		return nil
	}

	artifact, err := r.media.Save(data, evt.Media.Mime)
	if err != nil {
		return fmt.Errorf("store inbound media: %w", err)
	}
	if err := r.chatwoot.CreateAttachmentMessage(ctx, record.ConversationID, evt.Text, artifact.Path, artifact.Mime); err != nil {
		return fmt.Errorf("relay media: %w", err)
	}
	r.logger.Debug("media relayed",
		slog.String("channel_address", evt.SenderAddress),
		slog.String("url", media.PublicURL(r.publicBase, artifact.Name)),
	)
	return nil
}
