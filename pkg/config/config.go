// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	LogLevel string         `json:"log_level" env:"LOG_LEVEL"`
	Channel  string         `json:"channel" env:"BOT_CHANNEL"`
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
	Provider ProviderConfig `json:"provider"`
	Bot      BotConfig      `json:"bot"`
}

type TelegramConfig struct {
	Token string `json:"token" env:"TG_TOKEN"`
}

type DiscordConfig struct {
	Token string `json:"token" env:"DISCORD_TOKEN"`
}

// ProviderConfig selects and configures the completion backend.
type ProviderConfig struct {
	Backend    string `json:"backend" env:"GPT_BACKEND"`
	APIKey     string `json:"api_key" env:"GPT_TOKEN"`
	FastModel  string `json:"fast_model" env:"GPT_MODEL"`
	SmartModel string `json:"smart_model" env:"GPT_SMART_MODEL"`
	ImageModel string `json:"image_model" env:"GPT_IMAGE_MODEL"`
	VoiceModel string `json:"voice_model" env:"GPT_VOICE_MODEL"`
	Rules      string `json:"rules" env:"GPT_RULES"`
}

// BotConfig is the routing configuration: who the bot answers, what it is
// called, and the canned phrases it uses.
type BotConfig struct {
	AllowChats        []int64           `json:"allow_chats" env:"TG_ALLOW_CHATS"`
	Names             []string          `json:"names" env:"BOT_ALIAS"`
	NameMap           map[string]string `json:"name_map"`
	Preamble          string            `json:"preamble" env:"GPT_PREAMBLE"`
	DummyAnswers      []string          `json:"dummy_answers"`
	HeartbeatSeconds  int               `json:"heartbeat_seconds" env:"BOT_HEARTBEAT_SECONDS"`
	DrawKeyword       string            `json:"draw_keyword"`
	ThinkKeyword      string            `json:"think_keyword"`
	SayKeyword        string            `json:"say_keyword"`
	LeaveUnknownChats bool              `json:"leave_unknown_chats"`
	Phrases           Phrases           `json:"phrases"`
}

// Phrases are the fixed user-facing fallback texts.
type Phrases struct {
	StillWorking      string `json:"still_working"`
	GiveUp            string `json:"give_up"`
	DrawFailure       string `json:"draw_failure"`
	CompletionFailure string `json:"completion_failure"`
	DefaultCaption    string `json:"default_caption"`
}

// HeartbeatInterval returns the configured heartbeat interval as a duration.
func (b BotConfig) HeartbeatInterval() time.Duration {
	return time.Duration(b.HeartbeatSeconds) * time.Second
}

// LoadConfig reads the JSON config file if present, applies defaults, and
// finally lets environment variables override individual fields.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Env-only configuration is fine.
		default:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns a config with every non-credential field filled in.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Channel:  "telegram",
		Provider: ProviderConfig{
			Backend:    "openai",
			FastModel:  "gpt-4o-mini",
			SmartModel: "gpt-4o",
			ImageModel: "dall-e-3",
			VoiceModel: "tts-1",
		},
		Bot: BotConfig{
			Preamble:         "Отвечает {}. ",
			DummyAnswers:     []string{"боян", "прикол", "ну такое", "было уже"},
			HeartbeatSeconds: 5,
			DrawKeyword:      "нарисуй",
			ThinkKeyword:     "подумай",
			SayKeyword:       "скажи",
			Phrases: Phrases{
				StillWorking:      "Погоди, надо еще подумать",
				GiveUp:            "Я не знаю что на это ответить",
				DrawFailure:       "Сейчас я такое не могу нарисовать",
				CompletionFailure: "Прости, я задумался. Можешь повторить?",
				DefaultCaption:    "Что на картинке?",
			},
		},
	}
}

// Validate checks the fields without which the process cannot run at all.
func (c *Config) Validate() error {
	switch c.Channel {
	case "telegram":
		if c.Telegram.Token == "" {
			return fmt.Errorf("telegram token is required (TG_TOKEN)")
		}
	case "discord":
		if c.Discord.Token == "" {
			return fmt.Errorf("discord token is required (DISCORD_TOKEN)")
		}
	default:
		return fmt.Errorf("unknown channel %q", c.Channel)
	}

	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider api key is required (GPT_TOKEN)")
	}
	if c.Bot.HeartbeatSeconds <= 0 {
		return fmt.Errorf("heartbeat_seconds must be positive")
	}
	return nil
}
