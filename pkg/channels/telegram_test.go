package channels

import (
	"testing"

	"github.com/mymmrac/telego"

	"relaybot/pkg/bus"
)

func TestConvertMessage(t *testing.T) {
	m := &telego.Message{
		From: &telego.User{ID: 42, FirstName: "Sam"},
		Chat: telego.Chat{ID: -100123, Type: telego.ChatTypeGroup},
		Text: "bot_name Hello",
		Date: 1700000000,
		ReplyToMessage: &telego.Message{
			From: &telego.User{ID: 1, IsBot: true, FirstName: "relaybot"},
		},
	}

	msg, ok := convertMessage(m)
	if !ok {
		t.Fatal("convertMessage() returned false")
	}
	if msg.Chat.Kind != bus.ChatGroup {
		t.Errorf("Kind = %q, want group", msg.Chat.Kind)
	}
	if msg.Sender.FirstName != "Sam" || msg.Text != "bot_name Hello" {
		t.Errorf("unexpected message: %+v", msg)
	}
	if msg.ReplyTo == nil || !msg.ReplyTo.Sender.IsBot {
		t.Error("reply-to bot flag lost in conversion")
	}
}

func TestConvertMessage_Service(t *testing.T) {
	if _, ok := convertMessage(&telego.Message{}); ok {
		t.Error("expected service message without sender to be skipped")
	}
	if _, ok := convertMessage(nil); ok {
		t.Error("expected nil message to be skipped")
	}
}

func TestBestPhoto(t *testing.T) {
	photos := []telego.PhotoSize{
		{FileID: "small", FileSize: 100},
		{FileID: "large", FileSize: 9000},
		{FileID: "medium", FileSize: 700},
	}
	if got := bestPhoto(photos); got != "large" {
		t.Errorf("bestPhoto() = %q, want large", got)
	}
	if got := bestPhoto(nil); got != "" {
		t.Errorf("bestPhoto(nil) = %q, want empty", got)
	}
}
