package bus

import "time"

const (
	ChatPrivate = "private"
	ChatGroup   = "group"
)

// Sender identifies the author of an inbound message.
type Sender struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	IsBot     bool   `json:"is_bot"`
}

// Chat identifies where a message came from and where replies go.
type Chat struct {
	ID   int64  `json:"id"`
	Kind string `json:"kind"` // ChatPrivate or ChatGroup
}

// ReplyTo carries the bits of the quoted parent message the router needs.
type ReplyTo struct {
	Sender Sender `json:"sender"`
}

// InboundMessage is one user message as received from a chat channel.
// It is immutable once published; the processing pipeline owns it for
// exactly one cycle.
type InboundMessage struct {
	Channel     string    `json:"channel"`
	Sender      Sender    `json:"sender"`
	Chat        Chat      `json:"chat"`
	Text        string    `json:"text,omitempty"`
	Caption     string    `json:"caption,omitempty"`
	PhotoFileID string    `json:"photo_file_id,omitempty"`
	ReplyTo     *ReplyTo  `json:"reply_to,omitempty"`
	Date        time.Time `json:"date"`
}

// IsPrivate reports whether the message arrived in a one-on-one chat.
func (m InboundMessage) IsPrivate() bool {
	return m.Chat.Kind == ChatPrivate
}

// Body returns the user-written text of the message. Photo messages
// carry it in Caption rather than Text.
func (m InboundMessage) Body() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}
