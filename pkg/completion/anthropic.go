// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

package completion

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"relaybot/pkg/config"
)

const anthropicMaxTokens = 4096

// AnthropicService serves text and vision requests through the Anthropic
// API. Image generation and voice synthesis are not offered there, so the
// corresponding operations return ErrUnsupported.
type AnthropicService struct {
	client  *anthropic.Client
	cfg     config.ProviderConfig
	history *HistoryStore
}

func NewAnthropicService(cfg config.ProviderConfig) *AnthropicService {
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &AnthropicService{
		client:  &client,
		cfg:     cfg,
		history: NewHistoryStore(),
	}
}

func (s *AnthropicService) modelFor(mode Mode) string {
	if mode == ModeSmart {
		return s.cfg.SmartModel
	}
	return s.cfg.FastModel
}

func (s *AnthropicService) baseMessages(history []Message) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, m := range history {
		if m.Role == RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			continue
		}
		msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}
	return msgs
}

func (s *AnthropicService) complete(ctx context.Context, model string, msgs []anthropic.MessageParam) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		Messages:  msgs,
		MaxTokens: anthropicMaxTokens,
	}
	if s.cfg.Rules != "" {
		params.System = []anthropic.TextBlockParam{{Text: s.cfg.Rules}}
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.AsText().Text
		}
	}
	if content == "" {
		return "", errors.New("anthropic completion: empty response")
	}
	return content, nil
}

func (s *AnthropicService) CompleteText(ctx context.Context, userKey, prompt string, mode Mode) (string, error) {
	model := s.modelFor(mode)
	return s.history.Converse(userKey, prompt, func(history []Message) (string, error) {
		msgs := append(s.baseMessages(history), anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))
		return s.complete(ctx, model, msgs)
	})
}

func (s *AnthropicService) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return "", ErrUnsupported
}

func (s *AnthropicService) DescribeImage(ctx context.Context, userKey, caption, imageURL string, mode Mode) (string, error) {
	model := s.modelFor(mode)
	return s.history.Converse(userKey, caption, func(history []Message) (string, error) {
		msgs := append(s.baseMessages(history), anthropic.NewUserMessage(
			anthropic.NewTextBlock(caption),
			anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: imageURL}),
		))
		return s.complete(ctx, model, msgs)
	})
}

func (s *AnthropicService) SynthesizeVoice(ctx context.Context, text string) ([]byte, error) {
	return nil, ErrUnsupported
}
