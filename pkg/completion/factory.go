// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

package completion

import (
	"fmt"

	"relaybot/pkg/config"
)

// CreateService builds the completion backend named by the configuration.
func CreateService(cfg config.ProviderConfig) (Service, error) {
	switch cfg.Backend {
	case "", "openai":
		return NewOpenAIService(cfg), nil
	case "anthropic":
		return NewAnthropicService(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider backend %q", cfg.Backend)
	}
}
