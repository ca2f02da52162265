package whatsapp

import (
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// ChatJID converts a canonical channel address (+5511999999999) into the
// WhatsApp user JID for the destination chat.
func ChatJID(channelAddress string) types.JID {
	user := strings.TrimPrefix(strings.TrimSpace(channelAddress), "+")
	return types.JID{User: user, Server: types.DefaultUserServer}
}
