package channels

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello world", "Hello world"},
		{"lone stars escaped", "Hello *world*!", "Hello \\*world\\*\\!"},
		{"paired stars preserved", "Hello **world**!", "Hello **world**\\!"},
		{"unary set", "a_b[c](d)~e", "a\\_b\\[c\\]\\(d\\)\\~e"},
		{"dots and dashes", "v1.2-rc", "v1\\.2\\-rc"},
		{"backslash", `a\b`, `a\\b`},
		{"cyrillic untouched", "привет, мир", "привет, мир"},
		{"empty", "", ""},
		{"single star", "*", "\\*"},
		{"triple star run kept", "***", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.in); got != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitChunks(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		chunks := SplitChunks("hello", 10)
		if len(chunks) != 1 || chunks[0] != "hello" {
			t.Errorf("chunks = %v", chunks)
		}
	})

	t.Run("splits on rune count", func(t *testing.T) {
		chunks := SplitChunks(strings.Repeat("a", 25), 10)
		if len(chunks) != 3 {
			t.Fatalf("got %d chunks, want 3", len(chunks))
		}
		if len(chunks[2]) != 5 {
			t.Errorf("last chunk len = %d, want 5", len(chunks[2]))
		}
	})

	t.Run("never splits a codepoint", func(t *testing.T) {
		// Cyrillic letters are two bytes each; emoji four.
		for _, text := range []string{
			strings.Repeat("ж", 100),
			strings.Repeat("🦞", 50),
			strings.Repeat("aж🦞", 40),
		} {
			for _, limit := range []int{1, 3, 7, 10, 33} {
				var rebuilt strings.Builder
				for _, chunk := range SplitChunks(text, limit) {
					if !utf8.ValidString(chunk) {
						t.Fatalf("invalid UTF-8 chunk with limit %d", limit)
					}
					if utf8.RuneCountInString(chunk) > limit {
						t.Fatalf("chunk over limit %d: %d runes", limit, utf8.RuneCountInString(chunk))
					}
					rebuilt.WriteString(chunk)
				}
				if rebuilt.String() != text {
					t.Fatalf("chunks do not reassemble with limit %d", limit)
				}
			}
		}
	})
}

// sendRecorder is a ChatTransport test double recording SendText calls and
// failing the first n of them.
type sendRecorder struct {
	sent      []string
	markups   []Markup
	plainOnly bool
	failFirst int
	calls     int
}

func (r *sendRecorder) Markup() Markup {
	if r.plainOnly {
		return MarkupNone
	}
	return MarkupMarkdownV2
}

func (r *sendRecorder) SendText(_ context.Context, _ int64, text string, markup Markup) error {
	r.calls++
	if r.calls <= r.failFirst {
		return errors.New("rejected")
	}
	r.sent = append(r.sent, text)
	r.markups = append(r.markups, markup)
	return nil
}

func (r *sendRecorder) SendImage(context.Context, int64, string) error        { return nil }
func (r *sendRecorder) SendVoice(context.Context, int64, []byte) error        { return nil }
func (r *sendRecorder) ResolveFileURL(context.Context, string) (string, error) { return "", nil }
func (r *sendRecorder) LeaveChat(context.Context, int64) error                { return nil }

func TestDeliver_Short(t *testing.T) {
	rec := &sendRecorder{}
	if err := Deliver(context.Background(), rec, 1, "Hello Sir", MarkupMarkdownV2); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if len(rec.sent) != 1 || rec.sent[0] != "Hello Sir" {
		t.Errorf("sent = %v", rec.sent)
	}
}

func TestDeliver_EscapesOnceForMarkdown(t *testing.T) {
	rec := &sendRecorder{}
	if err := Deliver(context.Background(), rec, 1, "done!", MarkupMarkdownV2); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if rec.sent[0] != "done\\!" {
		t.Errorf("sent = %q, want %q", rec.sent[0], "done\\!")
	}

	rec = &sendRecorder{}
	if err := Deliver(context.Background(), rec, 1, "done!", MarkupNone); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if rec.sent[0] != "done!" {
		t.Errorf("plain markup must not escape, sent = %q", rec.sent[0])
	}
}

func TestDeliver_DowngradesForPlainTransport(t *testing.T) {
	// The transport does not render MarkdownV2 (Discord parses its own
	// dialect), so the text must go out untouched and as plain markup.
	rec := &sendRecorder{plainOnly: true}
	if err := Deliver(context.Background(), rec, 1, "v1.2-rc (done!)", MarkupMarkdownV2); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if rec.sent[0] != "v1.2-rc (done!)" {
		t.Errorf("sent = %q, want unescaped text", rec.sent[0])
	}
	if rec.markups[0] != MarkupNone {
		t.Errorf("markup = %q, want MarkupNone", rec.markups[0])
	}
}

func TestDeliver_ChunksInOrder(t *testing.T) {
	rec := &sendRecorder{}
	text := strings.Repeat("a", MaxMessageRunes) + strings.Repeat("b", 100)

	if err := Deliver(context.Background(), rec, 1, text, MarkupNone); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if len(rec.sent) != 2 {
		t.Fatalf("got %d chunks, want 2", len(rec.sent))
	}
	if strings.Join(rec.sent, "") != text {
		t.Error("chunks do not reassemble in order")
	}
}

func TestDeliver_ShrinkAndRetry(t *testing.T) {
	rec := &sendRecorder{failFirst: 1}
	text := strings.Repeat("x", 200)

	if err := Deliver(context.Background(), rec, 1, text, MarkupNone); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	// First send rejected; retry went out shrunk, tail carried over.
	if len(rec.sent) != 2 {
		t.Fatalf("got %d sends, want 2", len(rec.sent))
	}
	if utf8.RuneCountInString(rec.sent[0]) != 200-shrinkRunes {
		t.Errorf("retried chunk has %d runes, want %d", utf8.RuneCountInString(rec.sent[0]), 200-shrinkRunes)
	}
	if strings.Join(rec.sent, "") != text {
		t.Error("content lost across shrink and retry")
	}
}

func TestDeliver_FailureAfterRetryPropagates(t *testing.T) {
	rec := &sendRecorder{failFirst: 2}

	err := Deliver(context.Background(), rec, 7, strings.Repeat("x", 100), MarkupNone)
	if err == nil {
		t.Fatal("expected delivery error")
	}
	var dErr *DeliveryError
	if !errors.As(err, &dErr) {
		t.Fatalf("error type = %T, want *DeliveryError", err)
	}
	if dErr.ChatID != 7 {
		t.Errorf("ChatID = %d, want 7", dErr.ChatID)
	}
}
