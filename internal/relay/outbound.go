package relay

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/RibasSu/zapnode/internal/identity"
)

// Notices mirrored to the end user on conversation status changes.
const (
	NoticeResolved     = "✅ Atendimento finalizado. Obrigado!"
	noticeAgentStarted = "👤 O agente *%s* iniciou o atendimento."
)

var supportedAttachmentKinds = map[string]bool{
	"image":    true,
	"audio":    true,
	"video":    true,
	"document": true,
	"gif":      true,
}

// OutboundRelay mirrors Chatwoot webhook events back to the channel:
// agent messages, attachments and conversation status notices.
type OutboundRelay struct {
	source        SenderSource
	fetcher       *resty.Client
	agentFallback string
	typingDelay   time.Duration
	sleep         func(time.Duration)
	logger        *slog.Logger
}

// NewOutboundRelay wires the outbound relay. The typing delay is held
// between setting presence and sending the payload.
func NewOutboundRelay(log *slog.Logger, source SenderSource, agentFallback string, typingDelay time.Duration) *OutboundRelay {
	if log == nil {
		log = slog.Default()
	}
	if strings.TrimSpace(agentFallback) == "" {
		agentFallback = "Atendente"
	}
	return &OutboundRelay{
		source:        source,
		fetcher:       resty.New(),
		agentFallback: agentFallback,
		typingDelay:   typingDelay,
		sleep:         time.Sleep,
		logger:        log.With(slog.String("service", "outbound_relay")),
	}
}

// Handle processes one webhook payload. All relay failures are logged and
// swallowed; the webhook must always be acknowledged.
func (r *OutboundRelay) Handle(ctx context.Context, payload WebhookPayload) {
	switch {
	case payload.IsOutgoingMessage():
		r.handleOutgoing(ctx, payload)
	case payload.IsStatusChange():
		r.handleStatusChange(ctx, payload)
	}
}

func (r *OutboundRelay) handleOutgoing(ctx context.Context, payload WebhookPayload) {
	address := identity.CanonicalAddress(payload.TargetAddress())
	if address == "" {
		r.logger.Warn("outgoing message without target address")
		return
	}

	agent := payload.AgentName(r.agentFallback)
	text := strings.TrimSpace(payload.Content)
	prefixed := ""
	if text != "" {
		prefixed = fmt.Sprintf("*%s:* %s", agent, text)
	}

	attachment, ok := selectAttachment(payload.Attachments)
	if !ok {
		if prefixed == "" {
			return
		}
		r.sendSequence(ctx, address, func(sender Sender) error {
			return sender.SendText(ctx, address, prefixed)
		})
		return
	}

	media, err := r.fetchAttachment(ctx, attachment)
	if err != nil {
		r.logger.Error("attachment fetch failed",
			slog.String("channel_address", address),
			slog.String("url", attachment.DataURL),
			slog.Any("error", err),
		)
		return
	}
	if isVisualKind(media.Kind) {
		media.Caption = prefixed
	}

	r.sendSequence(ctx, address, func(sender Sender) error {
		return sender.SendMedia(ctx, address, media)
	})
}

func (r *OutboundRelay) handleStatusChange(ctx context.Context, payload WebhookPayload) {
	address := identity.CanonicalAddress(payload.TargetAddress())
	if address == "" {
		return
	}

	var notice string
	switch payload.Status {
	case "resolved":
		notice = NoticeResolved
	case "open":
		assignee := strings.TrimSpace(payload.Meta.Assignee.Name)
		if assignee == "" {
			return
		}
		notice = fmt.Sprintf(noticeAgentStarted, assignee)
	default:
		return
	}

	r.sendSequence(ctx, address, func(sender Sender) error {
		return sender.SendText(ctx, address, notice)
	})
}

// sendSequence runs the typing choreography: set typing, hold the fixed
// delay, send, clear typing. Best effort end to end; a second sequence for
// the same chat may interleave and clear the first one's typing state.
func (r *OutboundRelay) sendSequence(ctx context.Context, address string, send func(Sender) error) {
	sender, ok := r.source.Acquire()
	if !ok {
		r.logger.Warn("channel client unavailable, skipping send",
			slog.String("channel_address", address),
		)
		return
	}

	if err := sender.SetTyping(ctx, address); err != nil {
		r.logger.Warn("set typing failed",
			slog.String("channel_address", address),
			slog.Any("error", err),
		)
	}
	r.sleep(r.typingDelay)
	if err := send(sender); err != nil {
		r.logger.Error("channel send failed",
			slog.String("channel_address", address),
			slog.Any("error", err),
		)
	}
	if err := sender.ClearTyping(ctx, address); err != nil {
		r.logger.Warn("clear typing failed",
			slog.String("channel_address", address),
			slog.Any("error", err),
		)
	}
}

// selectAttachment picks the first attachment of a supported kind.
func selectAttachment(attachments []WebhookAttachment) (WebhookAttachment, bool) {
	for _, attachment := range attachments {
		if supportedAttachmentKinds[strings.ToLower(attachment.FileType)] && strings.TrimSpace(attachment.DataURL) != "" {
			return attachment, true
		}
	}
	return WebhookAttachment{}, false
}

func (r *OutboundRelay) fetchAttachment(ctx context.Context, attachment WebhookAttachment) (OutboundMedia, error) {
	resp, err := r.fetcher.R().SetContext(ctx).Get(attachment.DataURL)
	if err != nil {
		return OutboundMedia{}, fmt.Errorf("fetch attachment: %w", err)
	}
	if resp.IsError() {
		return OutboundMedia{}, fmt.Errorf("fetch attachment: status %d", resp.StatusCode())
	}

	kind := strings.ToLower(attachment.FileType)
	mime := strings.TrimSpace(resp.Header().Get("Content-Type"))
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	if mime == "" {
		mime = defaultMime(kind)
	}

	name := path.Base(strings.TrimSuffix(attachment.DataURL, "/"))
	if name == "" || name == "." || name == "/" {
		name = "attachment"
	}

	return OutboundMedia{
		Kind:     kind,
		Mime:     mime,
		FileName: name,
		Data:     resp.Body(),
	}, nil
}

func isVisualKind(kind string) bool {
	switch kind {
	case "image", "video", "gif":
		return true
	}
	return false
}

func defaultMime(kind string) string {
	switch kind {
	case "image":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "audio":
		return "audio/mpeg"
	case "video":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
