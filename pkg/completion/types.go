// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

package completion

import (
	"context"
	"errors"
)

// Mode selects the model tier for a text request.
type Mode int

const (
	ModeFast Mode = iota
	ModeSmart
)

func (m Mode) String() string {
	if m == ModeSmart {
		return "smart"
	}
	return "fast"
}

// ErrUnsupported is returned by backends that cannot serve a given
// operation, such as image generation on a text-only backend.
var ErrUnsupported = errors.New("operation not supported by this backend")

// Service is the remote completion backend. userKey identifies the
// conversation whose history the reply should continue.
type Service interface {
	// CompleteText continues the keyed conversation with prompt and
	// returns the assistant reply.
	CompleteText(ctx context.Context, userKey, prompt string, mode Mode) (string, error)

	// GenerateImage renders prompt and returns a fetchable image URL.
	GenerateImage(ctx context.Context, prompt string) (string, error)

	// DescribeImage answers caption about the image at imageURL within
	// the keyed conversation.
	DescribeImage(ctx context.Context, userKey, caption, imageURL string, mode Mode) (string, error)

	// SynthesizeVoice renders text to spoken audio (OGG/Opus bytes).
	SynthesizeVoice(ctx context.Context, text string) ([]byte, error)
}
