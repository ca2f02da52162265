package whatsapp

import (
	"testing"

	"go.mau.fi/whatsmeow/types"
)

func TestChatJID(t *testing.T) {
	cases := []struct {
		name    string
		address string
		want    types.JID
	}{
		{
			name:    "canonical address",
			address: "+5511999999999",
			want:    types.JID{User: "5511999999999", Server: types.DefaultUserServer},
		},
		{
			name:    "bare number",
			address: "5511999999999",
			want:    types.JID{User: "5511999999999", Server: types.DefaultUserServer},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ChatJID(tc.address); got != tc.want {
				t.Fatalf("ChatJID(%q) got %v want %v", tc.address, got, tc.want)
			}
		})
	}
}

func TestUploadType(t *testing.T) {
	cases := []struct {
		kind    string
		wantErr bool
	}{
		{kind: "image"},
		{kind: "gif"},
		{kind: "video"},
		{kind: "audio"},
		{kind: "document"},
		{kind: "sticker", wantErr: true},
		{kind: "", wantErr: true},
	}
	for _, tc := range cases {
		_, err := uploadType(tc.kind)
		if (err != nil) != tc.wantErr {
			t.Fatalf("uploadType(%q) err=%v wantErr=%v", tc.kind, err, tc.wantErr)
		}
	}
}

func TestCaptionOrNil(t *testing.T) {
	if captionOrNil("  ") != nil {
		t.Fatalf("expected nil for blank caption")
	}
	got := captionOrNil("legenda")
	if got == nil || *got != "legenda" {
		t.Fatalf("expected caption pointer, got %v", got)
	}
}
