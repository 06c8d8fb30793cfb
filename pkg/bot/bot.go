// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"relaybot/pkg/bus"
	"relaybot/pkg/channels"
	"relaybot/pkg/completion"
	"relaybot/pkg/config"
	"relaybot/pkg/heartbeat"
	"relaybot/pkg/logger"
)

const dummyReactionOdds = 0.3

// Processor drives one inbound message through classification, the
// remote call under heartbeat supervision, and delivery.
type Processor struct {
	cfg       config.BotConfig
	transport channels.ChatTransport
	svc       completion.Service

	// overridable in tests
	coin func() bool
	pick func(n int) int
}

func NewProcessor(cfg config.BotConfig, transport channels.ChatTransport, svc completion.Service) *Processor {
	return &Processor{
		cfg:       cfg,
		transport: transport,
		svc:       svc,
		coin:      func() bool { return rand.Float64() < dummyReactionOdds },
		pick:      rand.Intn,
	}
}

// Process classifies and answers one message. A nil return covers both
// a delivered answer and an intentional skip; only delivery failures
// come back as errors.
func (p *Processor) Process(ctx context.Context, msg bus.InboundMessage) error {
	return p.Execute(ctx, msg, Route(msg, p.cfg))
}

func (p *Processor) Execute(ctx context.Context, msg bus.InboundMessage, decision RouteDecision) error {
	logger.DebugCF("bot", "routed message", map[string]any{
		"chat_id":  msg.Chat.ID,
		"decision": decision.Kind.String(),
	})

	switch decision.Kind {
	case DecisionDummyReaction:
		return p.dummyReact(ctx, msg)
	case DecisionImageGeneration:
		return p.generateImage(ctx, msg, decision.Prompt)
	case DecisionImageUnderstanding:
		return p.describeImage(ctx, msg, decision)
	case DecisionVoiceReply:
		return p.voiceReply(ctx, msg, decision.Prompt)
	case DecisionTextCompletion:
		return p.completeText(ctx, msg, decision)
	default:
		return p.skip(ctx, msg)
	}
}

func (p *Processor) skip(ctx context.Context, msg bus.InboundMessage) error {
	if p.cfg.LeaveUnknownChats && !msg.IsPrivate() && !chatAllowed(msg.Chat.ID, p.cfg.AllowChats) {
		if err := p.transport.LeaveChat(ctx, msg.Chat.ID); err != nil {
			logger.WarnCF("bot", "failed to leave unknown chat", map[string]any{
				"chat_id": msg.Chat.ID,
				"error":   err.Error(),
			})
		}
	}
	return nil
}

func (p *Processor) dummyReact(ctx context.Context, msg bus.InboundMessage) error {
	if len(p.cfg.DummyAnswers) == 0 || !p.coin() {
		return nil
	}
	phrase := p.cfg.DummyAnswers[p.pick(len(p.cfg.DummyAnswers))]
	return channels.Deliver(ctx, p.transport, msg.Chat.ID, phrase, channels.MarkupNone)
}

func (p *Processor) completeText(ctx context.Context, msg bus.InboundMessage, decision RouteDecision) error {
	reply, err := p.supervised(ctx, msg.Chat.ID, func(ctx context.Context) (string, error) {
		return p.svc.CompleteText(ctx, userKey(msg), decision.Prompt, decision.Mode)
	})
	if err != nil {
		return p.apologize(ctx, msg, err)
	}
	return channels.Deliver(ctx, p.transport, msg.Chat.ID, reply, channels.MarkupMarkdownV2)
}

func (p *Processor) generateImage(ctx context.Context, msg bus.InboundMessage, prompt string) error {
	url, err := p.supervised(ctx, msg.Chat.ID, func(ctx context.Context) (string, error) {
		return p.svc.GenerateImage(ctx, prompt)
	})
	if err != nil {
		logger.WarnCF("bot", "image generation failed", map[string]any{
			"chat_id": msg.Chat.ID,
			"error":   err.Error(),
		})
		return channels.Deliver(ctx, p.transport, msg.Chat.ID, p.cfg.Phrases.DrawFailure, channels.MarkupNone)
	}
	if err := p.transport.SendImage(ctx, msg.Chat.ID, url); err != nil {
		return &channels.DeliveryError{ChatID: msg.Chat.ID, Err: fmt.Errorf("sending image: %w", err)}
	}
	return nil
}

func (p *Processor) describeImage(ctx context.Context, msg bus.InboundMessage, decision RouteDecision) error {
	imageURL, err := p.transport.ResolveFileURL(ctx, decision.FileID)
	if err != nil {
		return p.apologize(ctx, msg, fmt.Errorf("resolving image: %w", err))
	}
	reply, err := p.supervised(ctx, msg.Chat.ID, func(ctx context.Context) (string, error) {
		return p.svc.DescribeImage(ctx, userKey(msg), decision.Caption, imageURL, decision.Mode)
	})
	if err != nil {
		return p.apologize(ctx, msg, err)
	}
	return channels.Deliver(ctx, p.transport, msg.Chat.ID, reply, channels.MarkupMarkdownV2)
}

func (p *Processor) voiceReply(ctx context.Context, msg bus.InboundMessage, prompt string) error {
	reply, err := p.supervised(ctx, msg.Chat.ID, func(ctx context.Context) (string, error) {
		return p.svc.CompleteText(ctx, userKey(msg), prompt, completion.ModeFast)
	})
	if err != nil {
		return p.apologize(ctx, msg, err)
	}

	audio, err := p.svc.SynthesizeVoice(ctx, reply)
	if err != nil {
		if !errors.Is(err, completion.ErrUnsupported) {
			logger.WarnCF("bot", "voice synthesis failed, falling back to text", map[string]any{
				"chat_id": msg.Chat.ID,
				"error":   err.Error(),
			})
		}
		return channels.Deliver(ctx, p.transport, msg.Chat.ID, reply, channels.MarkupMarkdownV2)
	}
	if err := p.transport.SendVoice(ctx, msg.Chat.ID, audio); err != nil {
		return &channels.DeliveryError{ChatID: msg.Chat.ID, Err: fmt.Errorf("sending voice: %w", err)}
	}
	return nil
}

// supervised runs a remote call under the heartbeat supervisor, with
// both notice kinds delivered to the same chat as the eventual answer.
func (p *Processor) supervised(ctx context.Context, chatID int64, work func(ctx context.Context) (string, error)) (string, error) {
	notices := heartbeat.Notices{
		StillWorking: func(ctx context.Context) error {
			return p.transport.SendText(ctx, chatID, p.cfg.Phrases.StillWorking, channels.MarkupNone)
		},
		GiveUp: func(ctx context.Context) error {
			return p.transport.SendText(ctx, chatID, p.cfg.Phrases.GiveUp, channels.MarkupNone)
		},
	}
	return heartbeat.Supervise(ctx, p.cfg.HeartbeatInterval(), notices, work)
}

// apologize turns a remote-call failure into a user-facing phrase. In
// private chats the raw error is echoed back instead, which makes the
// bot debuggable from the chat itself.
func (p *Processor) apologize(ctx context.Context, msg bus.InboundMessage, cause error) error {
	logger.WarnCF("bot", "remote call failed", map[string]any{
		"chat_id": msg.Chat.ID,
		"error":   cause.Error(),
	})
	text := p.cfg.Phrases.CompletionFailure
	if msg.IsPrivate() {
		text = cause.Error()
	}
	return channels.Deliver(ctx, p.transport, msg.Chat.ID, text, channels.MarkupNone)
}

// userKey scopes conversation history by sender and chat privacy, so
// the same person gets separate private and group histories.
func userKey(msg bus.InboundMessage) string {
	return fmt.Sprintf("%d/%s", msg.Sender.ID, msg.Chat.Kind)
}
