package chatwoot

// contactRequest mirrors the Chatwoot contact creation payload. The custom
// attribute marks the contact as bridged from WhatsApp.
type contactRequest struct {
	InboxID          string         `json:"inbox_id"`
	Name             string         `json:"name"`
	Identifier       string         `json:"identifier"`
	PhoneNumber      string         `json:"phone_number"`
	CustomAttributes map[string]any `json:"custom_attributes"`
}

type contactResponse struct {
	Payload struct {
		Contact struct {
			ID int `json:"id"`
		} `json:"contact"`
	} `json:"payload"`
	ID int `json:"id"`
}

type conversationRequest struct {
	SourceID  string `json:"source_id"`
	InboxID   string `json:"inbox_id"`
	ContactID string `json:"contact_id"`
}

type conversationResponse struct {
	ID      int `json:"id"`
	Payload struct {
		ID int `json:"id"`
	} `json:"payload"`
}

type messageRequest struct {
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
	Private     bool   `json:"private"`
}
