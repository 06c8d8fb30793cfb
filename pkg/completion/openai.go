// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

package completion

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"relaybot/pkg/config"
)

// OpenAIService talks to the OpenAI API for all four operations.
type OpenAIService struct {
	client  *openai.Client
	cfg     config.ProviderConfig
	history *HistoryStore
}

func NewOpenAIService(cfg config.ProviderConfig) *OpenAIService {
	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &OpenAIService{
		client:  &client,
		cfg:     cfg,
		history: NewHistoryStore(),
	}
}

func (s *OpenAIService) modelFor(mode Mode) string {
	if mode == ModeSmart {
		return s.cfg.SmartModel
	}
	return s.cfg.FastModel
}

func (s *OpenAIService) baseMessages(history []Message) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if s.cfg.Rules != "" {
		msgs = append(msgs, openai.SystemMessage(s.cfg.Rules))
	}
	for _, m := range history {
		if m.Role == RoleAssistant {
			msgs = append(msgs, openai.AssistantMessage(m.Content))
			continue
		}
		msgs = append(msgs, openai.UserMessage(m.Content))
	}
	return msgs
}

func (s *OpenAIService) complete(ctx context.Context, model string, msgs []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *OpenAIService) CompleteText(ctx context.Context, userKey, prompt string, mode Mode) (string, error) {
	model := s.modelFor(mode)
	return s.history.Converse(userKey, prompt, func(history []Message) (string, error) {
		msgs := append(s.baseMessages(history), openai.UserMessage(prompt))
		return s.complete(ctx, model, msgs)
	})
}

func (s *OpenAIService) GenerateImage(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(s.cfg.ImageModel),
		N:      openai.Int(1),
	})
	if err != nil {
		return "", fmt.Errorf("image generation: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", errors.New("image generation: no image in response")
	}
	return resp.Data[0].URL, nil
}

func (s *OpenAIService) DescribeImage(ctx context.Context, userKey, caption, imageURL string, mode Mode) (string, error) {
	model := s.modelFor(mode)
	return s.history.Converse(userKey, caption, func(history []Message) (string, error) {
		parts := []openai.ChatCompletionContentPartUnionParam{
			{OfText: &openai.ChatCompletionContentPartTextParam{Text: caption}},
			{OfImageURL: &openai.ChatCompletionContentPartImageParam{
				ImageURL: openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL},
			}},
		}
		msgs := append(s.baseMessages(history), openai.ChatCompletionMessageParamUnion{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: parts,
				},
			},
		})
		return s.complete(ctx, model, msgs)
	})
}

func (s *OpenAIService) SynthesizeVoice(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(s.cfg.VoiceModel),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoiceAlloy,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatOpus,
	})
	if err != nil {
		return nil, fmt.Errorf("voice synthesis: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("voice synthesis: reading audio: %w", err)
	}
	return audio, nil
}
