package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"

	"github.com/RibasSu/zapnode/internal/relay"
)

// Sender sends messages and typing presence through a connected client.
// It implements relay.Sender.
type Sender struct {
	cli    *whatsmeow.Client
	logger *slog.Logger
}

// NewSender wraps a connected client.
func NewSender(log *slog.Logger, cli *whatsmeow.Client) *Sender {
	if log == nil {
		log = slog.Default()
	}
	return &Sender{
		cli:    cli,
		logger: log.With(slog.String("service", "whatsapp_sender")),
	}
}

// SetTyping marks the destination chat as "composing".
func (s *Sender) SetTyping(ctx context.Context, address string) error {
	return s.cli.SendChatPresence(ctx, ChatJID(address), types.ChatPresenceComposing, types.ChatPresenceMediaText)
}

// ClearTyping clears the typing state on the destination chat.
func (s *Sender) ClearTyping(ctx context.Context, address string) error {
	return s.cli.SendChatPresence(ctx, ChatJID(address), types.ChatPresencePaused, types.ChatPresenceMediaText)
}

// SendText delivers a plain text message.
func (s *Sender) SendText(ctx context.Context, address, text string) error {
	_, err := s.cli.SendMessage(ctx, ChatJID(address), &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	return nil
}

// SendMedia uploads the payload to WhatsApp servers and delivers the
// matching media message. Visual kinds carry the caption; audio and
// documents are sent without one.
func (s *Sender) SendMedia(ctx context.Context, address string, media relay.OutboundMedia) error {
	uploadType, err := uploadType(media.Kind)
	if err != nil {
		return err
	}
	uploaded, err := s.cli.Upload(ctx, media.Data, uploadType)
	if err != nil {
		return fmt.Errorf("upload media: %w", err)
	}

	msg := &waE2E.Message{}
	switch uploadType {
	case whatsmeow.MediaImage:
		msg.ImageMessage = &waE2E.ImageMessage{
			Caption:       captionOrNil(media.Caption),
			Mimetype:      proto.String(media.Mime),
			URL:           &uploaded.URL,
			DirectPath:    &uploaded.DirectPath,
			MediaKey:      uploaded.MediaKey,
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    &uploaded.FileLength,
		}
	case whatsmeow.MediaVideo:
		msg.VideoMessage = &waE2E.VideoMessage{
			Caption:       captionOrNil(media.Caption),
			Mimetype:      proto.String(media.Mime),
			URL:           &uploaded.URL,
			DirectPath:    &uploaded.DirectPath,
			MediaKey:      uploaded.MediaKey,
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    &uploaded.FileLength,
		}
	case whatsmeow.MediaAudio:
		msg.AudioMessage = &waE2E.AudioMessage{
			Mimetype:      proto.String(media.Mime),
			URL:           &uploaded.URL,
			DirectPath:    &uploaded.DirectPath,
			MediaKey:      uploaded.MediaKey,
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    &uploaded.FileLength,
		}
	case whatsmeow.MediaDocument:
		msg.DocumentMessage = &waE2E.DocumentMessage{
			Title:         proto.String(media.FileName),
			FileName:      proto.String(media.FileName),
			Mimetype:      proto.String(media.Mime),
			URL:           &uploaded.URL,
			DirectPath:    &uploaded.DirectPath,
			MediaKey:      uploaded.MediaKey,
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    &uploaded.FileLength,
		}
	}

	if _, err := s.cli.SendMessage(ctx, ChatJID(address), msg); err != nil {
		return fmt.Errorf("send media: %w", err)
	}
	return nil
}

func uploadType(kind string) (whatsmeow.MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "image", "gif":
		return whatsmeow.MediaImage, nil
	case "video":
		return whatsmeow.MediaVideo, nil
	case "audio":
		return whatsmeow.MediaAudio, nil
	case "document":
		return whatsmeow.MediaDocument, nil
	default:
		return "", fmt.Errorf("unsupported media kind: %s", kind)
	}
}

func captionOrNil(caption string) *string {
	if strings.TrimSpace(caption) == "" {
		return nil
	}
	return proto.String(caption)
}
