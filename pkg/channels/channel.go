// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

// Package channels connects the bot to chat platforms. Each channel
// listens for inbound messages, publishing them on the bus, and
// implements ChatTransport for outbound delivery.
package channels

import (
	"context"
	"fmt"
)

// Markup selects how the platform should render outbound text.
type Markup string

const (
	MarkupNone       Markup = ""
	MarkupMarkdownV2 Markup = "MarkdownV2"
)

// ChatTransport is the outbound side of a chat platform. All methods
// retry transient failures internally with bounded backoff before
// returning an error. Markup reports the richest mode the platform
// accepts; Deliver downgrades requests the platform cannot render.
type ChatTransport interface {
	Markup() Markup
	SendText(ctx context.Context, chatID int64, text string, markup Markup) error
	SendImage(ctx context.Context, chatID int64, imageURL string) error
	SendVoice(ctx context.Context, chatID int64, audio []byte) error
	ResolveFileURL(ctx context.Context, fileID string) (string, error)
	LeaveChat(ctx context.Context, chatID int64) error
}

// Channel is a running platform connection: inbound listener plus transport.
type Channel interface {
	ChatTransport
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// DeliveryError reports that outbound text could not be delivered even
// after chunk shrinking and transport-level retries.
type DeliveryError struct {
	ChatID int64
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to chat %d failed: %v", e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
