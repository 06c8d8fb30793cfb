// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

package bot

import (
	"strings"

	"relaybot/pkg/bus"
	"relaybot/pkg/completion"
	"relaybot/pkg/config"
	"relaybot/pkg/textmatch"
)

const linkMarker = "https://"

// DecisionKind tags the response path chosen for an inbound message.
type DecisionKind int

const (
	DecisionIgnore DecisionKind = iota
	DecisionDummyReaction
	DecisionImageGeneration
	DecisionImageUnderstanding
	DecisionTextCompletion
	DecisionVoiceReply
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionDummyReaction:
		return "dummy_reaction"
	case DecisionImageGeneration:
		return "image_generation"
	case DecisionImageUnderstanding:
		return "image_understanding"
	case DecisionTextCompletion:
		return "text_completion"
	case DecisionVoiceReply:
		return "voice_reply"
	default:
		return "ignore"
	}
}

// RouteDecision is the single classification produced for one inbound
// message. Which fields are meaningful depends on Kind.
type RouteDecision struct {
	Kind    DecisionKind
	Prompt  string          // image generation, text completion, voice reply
	Caption string          // image understanding
	FileID  string          // image understanding
	Mode    completion.Mode // text completion
}

// Route classifies one inbound message. It is a pure function of the
// message and the bot configuration.
//
// Order of the rules matters: an attached photo wins over everything,
// a link in the text wins over the answer gate, and the gate itself is
// checked before the keyword routes.
func Route(msg bus.InboundMessage, cfg config.BotConfig) RouteDecision {
	if msg.PhotoFileID != "" {
		if !shouldAnswer(msg, cfg) {
			return RouteDecision{Kind: DecisionIgnore}
		}
		caption := stripTrigger(msg.Caption, cfg.Names)
		if caption == "" {
			caption = cfg.Phrases.DefaultCaption
		}
		return RouteDecision{Kind: DecisionImageUnderstanding, Caption: caption, FileID: msg.PhotoFileID}
	}

	if strings.Contains(msg.Text, linkMarker) {
		return RouteDecision{Kind: DecisionDummyReaction}
	}

	if !shouldAnswer(msg, cfg) {
		return RouteDecision{Kind: DecisionIgnore}
	}

	text := stripTrigger(msg.Text, cfg.Names)

	if prompt, ok := keywordRemainder(text, cfg.DrawKeyword); ok {
		return RouteDecision{Kind: DecisionImageGeneration, Prompt: prompt}
	}

	if prompt, ok := keywordRemainder(text, cfg.SayKeyword); ok {
		return RouteDecision{Kind: DecisionVoiceReply, Prompt: withPreamble(prompt, msg, cfg)}
	}

	mode := completion.ModeFast
	if msg.IsPrivate() && cfg.ThinkKeyword != "" && textmatch.ContainsFold(text, cfg.ThinkKeyword) {
		mode = completion.ModeSmart
	}
	return RouteDecision{Kind: DecisionTextCompletion, Prompt: withPreamble(text, msg, cfg), Mode: mode}
}

// shouldAnswer is the gate: the chat must be allow-listed, and the
// message must be private, start with a trigger name, or reply to the
// bot's own message. Photo messages carry their text in the caption,
// so the trigger check runs on Body, not Text.
func shouldAnswer(msg bus.InboundMessage, cfg config.BotConfig) bool {
	if !chatAllowed(msg.Chat.ID, cfg.AllowChats) {
		return false
	}
	if msg.IsPrivate() {
		return true
	}
	body := msg.Body()
	for _, name := range cfg.Names {
		if name != "" && strings.HasPrefix(body, name) {
			return true
		}
	}
	return msg.ReplyTo != nil && msg.ReplyTo.Sender.IsBot
}

func chatAllowed(chatID int64, allow []int64) bool {
	for _, id := range allow {
		if id == chatID {
			return true
		}
	}
	return false
}

// stripTrigger removes a leading trigger name plus any separating
// punctuation from the text.
func stripTrigger(text string, names []string) string {
	for _, name := range names {
		if name == "" || !strings.HasPrefix(text, name) {
			continue
		}
		rest := strings.TrimPrefix(text, name)
		return strings.TrimLeft(rest, " ,:")
	}
	return text
}

// keywordRemainder looks for keyword as a plain substring of the
// lowercased text and returns everything after it. Lowercasing is not
// byte-length preserving for every script, so the remainder is taken
// from the original text only when the lengths line up.
func keywordRemainder(text, keyword string) (string, bool) {
	if keyword == "" {
		return "", false
	}
	lowered := strings.ToLower(text)
	idx := strings.Index(lowered, keyword)
	if idx < 0 {
		return "", false
	}
	end := idx + len(keyword)
	if len(lowered) == len(text) {
		return text[end:], true
	}
	return lowered[end:], true
}

// withPreamble prepends the persona preamble for group chats. The "{}"
// placeholder is filled with the sender's display name after the
// name-remapping table is applied.
func withPreamble(prompt string, msg bus.InboundMessage, cfg config.BotConfig) string {
	if msg.IsPrivate() || cfg.Preamble == "" {
		return prompt
	}
	name := msg.Sender.FirstName
	if mapped, ok := cfg.NameMap[name]; ok {
		name = mapped
	}
	return strings.ReplaceAll(cfg.Preamble, "{}", name) + prompt
}
