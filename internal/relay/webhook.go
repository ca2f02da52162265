package relay

import "strings"

// WebhookPayload is the subset of the Chatwoot webhook body the outbound
// relay reads. Unknown fields are ignored.
type WebhookPayload struct {
	Event        string              `json:"event"`
	MessageType  string              `json:"message_type"`
	Private      bool                `json:"private"`
	Content      string              `json:"content"`
	Status       string              `json:"status"`
	Attachments  []WebhookAttachment `json:"attachments"`
	Conversation WebhookConversation `json:"conversation"`
	ContactInbox WebhookContactInbox `json:"contact_inbox"`
	Meta         WebhookMeta         `json:"meta"`
	Sender       WebhookAgent        `json:"sender"`
}

// WebhookAttachment is one attachment entry on an outgoing message event.
type WebhookAttachment struct {
	FileType string `json:"file_type"`
	DataURL  string `json:"data_url"`
}

type WebhookConversation struct {
	Meta WebhookConversationMeta `json:"meta"`
}

type WebhookConversationMeta struct {
	Sender WebhookContact `json:"sender"`
}

// WebhookContact carries the end-user identity on the conversation metadata.
type WebhookContact struct {
	PhoneNumber string `json:"phone_number"`
	Identifier  string `json:"identifier"`
}

type WebhookContactInbox struct {
	SourceID string `json:"source_id"`
}

type WebhookMeta struct {
	Assignee WebhookAgent `json:"assignee"`
}

// WebhookAgent names the acting agent (assignee or message sender).
type WebhookAgent struct {
	Name string `json:"name"`
}

// IsOutgoingMessage reports whether the payload is a public agent message.
func (p WebhookPayload) IsOutgoingMessage() bool {
	return p.MessageType == "outgoing" && !p.Private
}

// IsStatusChange reports whether the payload is a conversation status
// change with a known source.
func (p WebhookPayload) IsStatusChange() bool {
	return p.Event == "conversation_status_changed" && strings.TrimSpace(p.ContactInbox.SourceID) != ""
}

// TargetAddress returns the raw channel address of the end user: the
// conversation contact for messages, the contact-inbox source for status
// changes.
func (p WebhookPayload) TargetAddress() string {
	if addr := strings.TrimSpace(p.Conversation.Meta.Sender.PhoneNumber); addr != "" {
		return addr
	}
	if addr := strings.TrimSpace(p.Conversation.Meta.Sender.Identifier); addr != "" {
		return addr
	}
	return strings.TrimSpace(p.ContactInbox.SourceID)
}

// AgentName resolves the display name of the acting agent: assignee first,
// then message sender, then the configured fallback.
func (p WebhookPayload) AgentName(fallback string) string {
	if name := strings.TrimSpace(p.Meta.Assignee.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(p.Sender.Name); name != "" {
		return name
	}
	return fallback
}
