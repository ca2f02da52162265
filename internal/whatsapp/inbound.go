package whatsapp

import (
	"context"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/RibasSu/zapnode/internal/identity"
	"github.com/RibasSu/zapnode/internal/relay"
)

// inboundEvent converts a received message into a relay event. Returns
// false for events carrying neither text nor a supported media part.
func inboundEvent(cli *whatsmeow.Client, v *events.Message) (relay.InboundEvent, bool) {
	address := identity.CanonicalAddress(v.Info.Sender.User)
	if address == "" {
		return relay.InboundEvent{}, false
	}

	msg := v.Message
	evt := relay.InboundEvent{
		SenderAddress: address,
		Text:          msg.GetConversation(),
	}
	if evt.Text == "" {
		evt.Text = msg.GetExtendedTextMessage().GetText()
	}

	switch {
	case msg.GetImageMessage() != nil:
		part := msg.GetImageMessage()
		evt.Media = lazyMedia(cli, part, part.GetMimetype())
		if evt.Text == "" {
			evt.Text = part.GetCaption()
		}
	case msg.GetVideoMessage() != nil:
		part := msg.GetVideoMessage()
		evt.Media = lazyMedia(cli, part, part.GetMimetype())
		if evt.Text == "" {
			evt.Text = part.GetCaption()
		}
	case msg.GetAudioMessage() != nil:
		part := msg.GetAudioMessage()
		evt.Media = lazyMedia(cli, part, part.GetMimetype())
	case msg.GetDocumentMessage() != nil:
		part := msg.GetDocumentMessage()
		evt.Media = lazyMedia(cli, part, part.GetMimetype())
		if evt.Text == "" {
			evt.Text = part.GetCaption()
		}
	case msg.GetStickerMessage() != nil:
		part := msg.GetStickerMessage()
		evt.Media = lazyMedia(cli, part, part.GetMimetype())
	}

	if evt.Text == "" && evt.Media == nil {
		return relay.InboundEvent{}, false
	}
	return evt, true
}

func lazyMedia(cli *whatsmeow.Client, part whatsmeow.DownloadableMessage, mime string) *relay.InboundMedia {
	return &relay.InboundMedia{
		Mime: mime,
		Download: func(ctx context.Context) ([]byte, error) {
			return cli.Download(ctx, part)
		},
	}
}
