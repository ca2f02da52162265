package relay

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type sentCall struct {
	kind    string
	address string
	text    string
	media   OutboundMedia
}

type fakeSender struct {
	mu    sync.Mutex
	calls []sentCall
}

func (s *fakeSender) record(call sentCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeSender) SetTyping(_ context.Context, address string) error {
	s.record(sentCall{kind: "typing", address: address})
	return nil
}

func (s *fakeSender) ClearTyping(_ context.Context, address string) error {
	s.record(sentCall{kind: "clear", address: address})
	return nil
}

func (s *fakeSender) SendText(_ context.Context, address, text string) error {
	s.record(sentCall{kind: "text", address: address, text: text})
	return nil
}

func (s *fakeSender) SendMedia(_ context.Context, address string, media OutboundMedia) error {
	s.record(sentCall{kind: "media", address: address, media: media})
	return nil
}

type fakeSource struct {
	sender *fakeSender
}

func (s *fakeSource) Acquire() (Sender, bool) {
	if s.sender == nil {
		return nil, false
	}
	return s.sender, true
}

func newTestRelay(sender *fakeSender) (*OutboundRelay, *[]time.Duration) {
	r := NewOutboundRelay(nil, &fakeSource{sender: sender}, "Atendente", 2*time.Second)
	slept := &[]time.Duration{}
	r.sleep = func(d time.Duration) {
		*slept = append(*slept, d)
	}
	return r, slept
}

func outgoingPayload(content string) WebhookPayload {
	return WebhookPayload{
		MessageType: "outgoing",
		Content:     content,
		Conversation: WebhookConversation{
			Meta: WebhookConversationMeta{
				Sender: WebhookContact{PhoneNumber: "+5511999999999"},
			},
		},
	}
}

func TestOutgoingTextSequence(t *testing.T) {
	sender := &fakeSender{}
	r, slept := newTestRelay(sender)

	payload := outgoingPayload("tudo certo")
	payload.Sender.Name = "Bruno"
	r.Handle(context.Background(), payload)

	if len(sender.calls) != 3 {
		t.Fatalf("expected typing/text/clear, got %v", sender.calls)
	}
	if sender.calls[0].kind != "typing" || sender.calls[1].kind != "text" || sender.calls[2].kind != "clear" {
		t.Fatalf("unexpected call order %v", sender.calls)
	}
	if sender.calls[1].address != "+5511999999999" {
		t.Fatalf("unexpected address %q", sender.calls[1].address)
	}
	if sender.calls[1].text != "*Bruno:* tudo certo" {
		t.Fatalf("unexpected text %q", sender.calls[1].text)
	}
	if len(*slept) != 1 || (*slept)[0] != 2*time.Second {
		t.Fatalf("expected one 2s hold, got %v", *slept)
	}
}

func TestOutgoingUsesAssigneeBeforeSender(t *testing.T) {
	sender := &fakeSender{}
	r, _ := newTestRelay(sender)

	payload := outgoingPayload("oi")
	payload.Meta.Assignee.Name = "Ana"
	payload.Sender.Name = "Bruno"
	r.Handle(context.Background(), payload)

	if sender.calls[1].text != "*Ana:* oi" {
		t.Fatalf("unexpected text %q", sender.calls[1].text)
	}
}

func TestOutgoingAttachmentSelection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		io.WriteString(w, "pngdata")
	}))
	defer srv.Close()

	sender := &fakeSender{}
	r, _ := newTestRelay(sender)

	payload := outgoingPayload("olha isso")
	payload.Sender.Name = "Ana"
	payload.Attachments = []WebhookAttachment{
		{FileType: "sticker", DataURL: srv.URL + "/sticker.webp"},
		{FileType: "image", DataURL: srv.URL + "/photo.png"},
	}
	r.Handle(context.Background(), payload)

	if len(sender.calls) != 3 || sender.calls[1].kind != "media" {
		t.Fatalf("expected media send, got %v", sender.calls)
	}
	got := sender.calls[1].media
	if got.Kind != "image" {
		t.Fatalf("expected first supported attachment (image), got %q", got.Kind)
	}
	if got.Caption != "*Ana:* olha isso" {
		t.Fatalf("expected agent-prefixed caption, got %q", got.Caption)
	}
	if got.Mime != "image/png" || string(got.Data) != "pngdata" {
		t.Fatalf("unexpected media %q %q", got.Mime, got.Data)
	}
	if got.FileName != "photo.png" {
		t.Fatalf("unexpected file name %q", got.FileName)
	}
}

func TestOutgoingNonVisualAttachmentHasNoCaption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/ogg")
		io.WriteString(w, "oggdata")
	}))
	defer srv.Close()

	sender := &fakeSender{}
	r, _ := newTestRelay(sender)

	payload := outgoingPayload("mensagem de voz")
	payload.Attachments = []WebhookAttachment{{FileType: "audio", DataURL: srv.URL + "/voice.ogg"}}
	r.Handle(context.Background(), payload)

	var mediaCalls, textCalls int
	for _, call := range sender.calls {
		switch call.kind {
		case "media":
			mediaCalls++
			if call.media.Caption != "" {
				t.Fatalf("expected no caption on audio, got %q", call.media.Caption)
			}
		case "text":
			textCalls++
		}
	}
	if mediaCalls != 1 || textCalls != 0 {
		t.Fatalf("expected one media send and no text, got %v", sender.calls)
	}
}

func TestOutgoingUnsupportedAttachmentFallsBackToText(t *testing.T) {
	sender := &fakeSender{}
	r, _ := newTestRelay(sender)

	payload := outgoingPayload("so figurinha")
	payload.Attachments = []WebhookAttachment{{FileType: "sticker", DataURL: "http://example.invalid/sticker.webp"}}
	r.Handle(context.Background(), payload)

	if len(sender.calls) != 3 || sender.calls[1].kind != "text" {
		t.Fatalf("expected text fallback, got %v", sender.calls)
	}
	if !strings.HasSuffix(sender.calls[1].text, "so figurinha") {
		t.Fatalf("unexpected text %q", sender.calls[1].text)
	}
}

func TestOutgoingAttachmentFetchFailureSendsNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sender := &fakeSender{}
	r, _ := newTestRelay(sender)

	payload := outgoingPayload("sumiu")
	payload.Attachments = []WebhookAttachment{{FileType: "image", DataURL: srv.URL + "/gone.png"}}
	r.Handle(context.Background(), payload)

	if len(sender.calls) != 0 {
		t.Fatalf("expected no sends after fetch failure, got %v", sender.calls)
	}
}

func TestStatusChangeNotices(t *testing.T) {
	cases := []struct {
		name     string
		status   string
		assignee string
		want     string
	}{
		{name: "resolved", status: "resolved", want: NoticeResolved},
		{name: "resolved ignores assignee", status: "resolved", assignee: "Ana", want: NoticeResolved},
		{name: "open with assignee", status: "open", assignee: "Ana", want: "👤 O agente *Ana* iniciou o atendimento."},
		{name: "open without assignee", status: "open", want: ""},
		{name: "other status", status: "pending", assignee: "Ana", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{}
			r, _ := newTestRelay(sender)
			payload := WebhookPayload{
				Event:        "conversation_status_changed",
				Status:       tc.status,
				ContactInbox: WebhookContactInbox{SourceID: "+5511999999999"},
			}
			payload.Meta.Assignee.Name = tc.assignee
			r.Handle(context.Background(), payload)

			if tc.want == "" {
				if len(sender.calls) != 0 {
					t.Fatalf("expected no sends, got %v", sender.calls)
				}
				return
			}
			if len(sender.calls) != 3 || sender.calls[1].kind != "text" {
				t.Fatalf("expected text notice, got %v", sender.calls)
			}
			if sender.calls[1].text != tc.want {
				t.Fatalf("notice got %q want %q", sender.calls[1].text, tc.want)
			}
		})
	}
}

func TestNoClientHandleSkipsSend(t *testing.T) {
	r := NewOutboundRelay(nil, &fakeSource{}, "Atendente", time.Second)
	r.sleep = func(time.Duration) {
		t.Fatalf("should not hold the delay when no client is available")
	}
	r.Handle(context.Background(), outgoingPayload("oi"))
}

func TestPrivateNoteIgnored(t *testing.T) {
	sender := &fakeSender{}
	r, _ := newTestRelay(sender)

	payload := outgoingPayload("nota interna")
	payload.Private = true
	r.Handle(context.Background(), payload)

	if len(sender.calls) != 0 {
		t.Fatalf("expected private note to be ignored, got %v", sender.calls)
	}
}
