// Package chatwoot is a minimal client for the Chatwoot application API:
// contact creation, conversation creation, and message creation (JSON or
// multipart with one attachment).
package chatwoot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client calls a single Chatwoot account/inbox with a fixed API token.
type Client struct {
	rest      *resty.Client
	accountID string
	inboxID   string
	logger    *slog.Logger
}

// NewClient creates a Chatwoot client for the given base URL, account and
// inbox. The token is sent as api_access_token on every request.
func NewClient(log *slog.Logger, baseURL, accountID, inboxID, apiToken string, timeout time.Duration) *Client {
	if log == nil {
		log = slog.Default()
	}
	rest := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("api_access_token", apiToken).
		SetTimeout(timeout)
	return &Client{
		rest:      rest,
		accountID: accountID,
		inboxID:   inboxID,
		logger:    log.With(slog.String("service", "chatwoot")),
	}
}

// CreateContact creates a contact named after the channel address and
// returns its id.
func (c *Client) CreateContact(ctx context.Context, channelAddress string) (string, error) {
	var result contactResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(contactRequest{
			InboxID:          c.inboxID,
			Name:             channelAddress,
			Identifier:       channelAddress,
			PhoneNumber:      channelAddress,
			CustomAttributes: map[string]any{"whatsapp": true},
		}).
		SetResult(&result).
		Post(fmt.Sprintf("/api/v1/accounts/%s/contacts", c.accountID))
	if err != nil {
		return "", fmt.Errorf("create contact: %w", err)
	}
	if !created(resp.StatusCode()) {
		return "", fmt.Errorf("create contact: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	id := result.Payload.Contact.ID
	if id == 0 {
		id = result.ID
	}
	if id == 0 {
		return "", fmt.Errorf("create contact: response missing contact id")
	}
	return strconv.Itoa(id), nil
}

// CreateConversation opens a conversation for the contact in the configured
// inbox and returns its id. The source id is the channel address.
func (c *Client) CreateConversation(ctx context.Context, contactID, sourceID string) (string, error) {
	var result conversationResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(conversationRequest{
			SourceID:  sourceID,
			InboxID:   c.inboxID,
			ContactID: contactID,
		}).
		SetResult(&result).
		Post(fmt.Sprintf("/api/v1/accounts/%s/conversations", c.accountID))
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	if !created(resp.StatusCode()) {
		return "", fmt.Errorf("create conversation: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	id := result.ID
	if id == 0 {
		id = result.Payload.ID
	}
	if id == 0 {
		return "", fmt.Errorf("create conversation: response missing conversation id")
	}
	return strconv.Itoa(id), nil
}

// CreateMessage posts an incoming, non-private text message to the
// conversation.
func (c *Client) CreateMessage(ctx context.Context, conversationID, content string) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(messageRequest{
			Content:     content,
			MessageType: "incoming",
			Private:     false,
		}).
		Post(fmt.Sprintf("/api/v1/accounts/%s/conversations/%s/messages", c.accountID, conversationID))
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	if !created(resp.StatusCode()) {
		return fmt.Errorf("create message: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// CreateAttachmentMessage posts an incoming, non-private multipart message
// carrying the file at filePath with the given MIME type and optional
// caption text.
func (c *Client) CreateAttachmentMessage(ctx context.Context, conversationID, content, filePath, mimeType string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	req := c.rest.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"content":      content,
			"message_type": "incoming",
			"private":      "false",
		}).
		SetMultipartField("attachments[]", filepath.Base(filePath), mimeType, f)

	resp, err := req.Post(fmt.Sprintf("/api/v1/accounts/%s/conversations/%s/messages", c.accountID, conversationID))
	if err != nil {
		return fmt.Errorf("create attachment message: %w", err)
	}
	if !created(resp.StatusCode()) {
		return fmt.Errorf("create attachment message: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func created(status int) bool {
	return status == http.StatusOK || status == http.StatusCreated
}
