// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

package channels

import (
	"context"
	"strings"
	"unicode/utf8"

	"relaybot/pkg/logger"
)

// MaxMessageRunes is the per-message size limit of the chat surface
// (Telegram caps sendMessage at 4096 characters).
const MaxMessageRunes = 4096

// shrinkRunes is how much a rejected chunk is cut back before the single
// retry. The rejection is assumed to come from a markup sequence broken
// at the chunk boundary.
const shrinkRunes = 16

// escapeSet holds the MarkdownV2 symbols that are escaped unconditionally.
// The emphasis marker '*' is handled separately: see Escape.
var escapeSet = map[rune]bool{
	'_': true, '[': true, ']': true, '(': true, ')': true, '~': true,
	'>': true, '#': true, '+': true, '-': true, '=': true, '|': true,
	'\\': true, '{': true, '}': true, '.': true, '!': true,
}

// Escape backslash-escapes reserved MarkdownV2 symbols in one pass.
// Symbols from escapeSet are always escaped. A '*' is escaped only when it
// is not directly adjacent to another '*': adjacent pairs are taken to be
// intentional emphasis and are passed through unchanged.
func Escape(text string) string {
	runes := []rune(text)

	var b strings.Builder
	b.Grow(len(text) + len(text)/4)

	for i, r := range runes {
		switch {
		case r == '*':
			prevStar := i > 0 && runes[i-1] == '*'
			nextStar := i+1 < len(runes) && runes[i+1] == '*'
			if !prevStar && !nextStar {
				b.WriteByte('\\')
			}
		case escapeSet[r]:
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}

	return b.String()
}

// SplitChunks splits text into pieces of at most maxRunes codepoints.
// Boundaries always fall between codepoints, never inside a multi-byte
// encoding. Order is preserved.
func SplitChunks(text string, maxRunes int) []string {
	if maxRunes <= 0 || text == "" {
		return []string{text}
	}

	var chunks []string
	for utf8.RuneCountInString(text) > maxRunes {
		cut := headRunes(text, maxRunes)
		chunks = append(chunks, cut)
		text = text[len(cut):]
	}
	return append(chunks, text)
}

// headRunes returns the prefix of s holding at most n codepoints.
func headRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Deliver escapes text for the requested markup and sends it to chatID,
// chunked to the transport's message limit. Chunks go out sequentially so
// they arrive in order. A rejected chunk is shrunk by a few trailing
// codepoints and retried once; the trimmed tail is carried into the next
// chunk. A failure after that surfaces as a DeliveryError.
//
// MarkdownV2 escaping only makes sense on platforms that parse it, so a
// MarkupMarkdownV2 request is downgraded to plain text when the transport
// does not speak that dialect.
func Deliver(ctx context.Context, t ChatTransport, chatID int64, text string, markup Markup) error {
	if markup == MarkupMarkdownV2 && t.Markup() != MarkupMarkdownV2 {
		markup = MarkupNone
	}
	if markup == MarkupMarkdownV2 {
		text = Escape(text)
	}

	remaining := text
	for len(remaining) > 0 {
		chunk := headRunes(remaining, MaxMessageRunes)

		if err := t.SendText(ctx, chatID, chunk, markup); err != nil {
			shrunk := headRunes(chunk, utf8.RuneCountInString(chunk)-shrinkRunes)
			if shrunk == "" {
				return &DeliveryError{ChatID: chatID, Err: err}
			}

			logger.WarnCF("channels", "Chunk rejected, shrinking and retrying once", map[string]any{
				"chat_id": chatID,
				"error":   err.Error(),
			})
			if err := t.SendText(ctx, chatID, shrunk, markup); err != nil {
				return &DeliveryError{ChatID: chatID, Err: err}
			}
			chunk = shrunk
		}

		remaining = remaining[len(chunk):]
	}

	return nil
}
