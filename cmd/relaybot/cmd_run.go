// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"relaybot/pkg/bot"
	"relaybot/pkg/bus"
	"relaybot/pkg/channels"
	"relaybot/pkg/completion"
	"relaybot/pkg/config"
	"relaybot/pkg/gateway"
	"relaybot/pkg/logger"
)

func runCmd(args []string) {
	configPath := "config.json"
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--debug", "-d":
			logger.SetLevel(logger.LevelDebug)
		case "--config", "-c":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	msgBus := bus.NewMessageBus()

	channel, err := buildChannel(cfg, msgBus)
	if err != nil {
		fmt.Printf("Error creating channel: %v\n", err)
		os.Exit(1)
	}

	svc, err := completion.CreateService(cfg.Provider)
	if err != nil {
		fmt.Printf("Error creating completion service: %v\n", err)
		os.Exit(1)
	}

	processor := bot.NewProcessor(cfg.Bot, channel, svc)
	gw := gateway.NewGateway(msgBus, processor)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := channel.Start(ctx); err != nil {
		fmt.Printf("Error starting channel: %v\n", err)
		os.Exit(1)
	}
	logger.InfoCF("main", "relaybot started", map[string]any{
		"channel": channel.Name(),
		"backend": cfg.Provider.Backend,
	})

	if err := gw.Run(ctx); err != nil && ctx.Err() == nil {
		logger.ErrorCF("main", "gateway stopped", map[string]any{"error": err.Error()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), channels.StopTimeout)
	defer cancel()
	if err := channel.Stop(shutdownCtx); err != nil {
		logger.WarnCF("main", "channel stop failed", map[string]any{"error": err.Error()})
	}
	msgBus.Close()
	logger.InfoC("main", "relaybot stopped")
}

func buildChannel(cfg *config.Config, b *bus.MessageBus) (channels.Channel, error) {
	switch cfg.Channel {
	case "telegram":
		return channels.NewTelegramChannel(cfg.Telegram, b)
	case "discord":
		return channels.NewDiscordChannel(cfg.Discord, b)
	default:
		return nil, fmt.Errorf("unknown channel %q", cfg.Channel)
	}
}
