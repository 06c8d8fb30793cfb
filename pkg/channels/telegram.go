// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

package channels

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"relaybot/pkg/bus"
	"relaybot/pkg/config"
	"relaybot/pkg/logger"
	"relaybot/pkg/utils"
)

type TelegramChannel struct {
	*BaseChannel
	bot     *telego.Bot
	handler *th.BotHandler
	retry   retrier
}

func NewTelegramChannel(cfg config.TelegramConfig, b *bus.MessageBus) (*TelegramChannel, error) {
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramChannel{
		BaseChannel: NewBaseChannel("telegram", b),
		bot:         bot,
		retry:       newRetrier(telegramTransient),
	}, nil
}

func (c *TelegramChannel) Start(ctx context.Context) error {
	logger.InfoC("telegram", "Starting Telegram bot (polling mode)...")

	updates, err := c.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: 30,
	})
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	bh, err := th.NewBotHandler(c.bot, updates)
	if err != nil {
		return fmt.Errorf("failed to create bot handler: %w", err)
	}
	c.handler = bh

	bh.HandleMessage(func(hctx *th.Context, message telego.Message) error {
		c.handleMessage(&message)
		return nil
	}, th.Or(th.AnyMessageWithText(), th.AnyMessageWithCaption(), th.AnyMessageWithMedia()))

	c.setRunning(true)
	logger.InfoCF("telegram", "Telegram bot connected", map[string]any{
		"username": c.bot.Username(),
	})

	go bh.Start()

	go func() {
		<-ctx.Done()
		bh.Stop()
	}()

	return nil
}

func (c *TelegramChannel) Stop(ctx context.Context) error {
	logger.InfoC("telegram", "Stopping Telegram bot...")
	c.setRunning(false)
	if c.handler != nil {
		c.handler.Stop()
	}
	return nil
}

func (c *TelegramChannel) handleMessage(message *telego.Message) {
	msg, ok := convertMessage(message)
	if !ok {
		return
	}

	logger.DebugCF("telegram", "Received message", map[string]any{
		"sender_id": msg.Sender.ID,
		"chat_id":   msg.Chat.ID,
		"preview":   utils.Truncate(msg.Text, 50),
	})

	c.publish(msg)
}

// convertMessage maps a Telegram message onto the bus type. Messages
// without a sender are service updates and are skipped.
func convertMessage(m *telego.Message) (bus.InboundMessage, bool) {
	if m == nil || m.From == nil {
		return bus.InboundMessage{}, false
	}

	kind := bus.ChatGroup
	if m.Chat.Type == telego.ChatTypePrivate {
		kind = bus.ChatPrivate
	}

	msg := bus.InboundMessage{
		Sender: bus.Sender{
			ID:        m.From.ID,
			FirstName: m.From.FirstName,
			IsBot:     m.From.IsBot,
		},
		Chat:        bus.Chat{ID: m.Chat.ID, Kind: kind},
		Text:        m.Text,
		Caption:     m.Caption,
		PhotoFileID: bestPhoto(m.Photo),
		Date:        time.Unix(m.Date, 0),
	}

	if m.ReplyToMessage != nil && m.ReplyToMessage.From != nil {
		msg.ReplyTo = &bus.ReplyTo{
			Sender: bus.Sender{
				ID:        m.ReplyToMessage.From.ID,
				FirstName: m.ReplyToMessage.From.FirstName,
				IsBot:     m.ReplyToMessage.From.IsBot,
			},
		}
	}

	return msg, true
}

// bestPhoto picks the largest size variant Telegram offers for a photo.
func bestPhoto(photos []telego.PhotoSize) string {
	fileID := ""
	var best int64 = -1
	for _, p := range photos {
		if size := int64(p.FileSize); size > best {
			best = size
			fileID = p.FileID
		}
	}
	return fileID
}

// Markup reports that Telegram renders MarkdownV2.
func (c *TelegramChannel) Markup() Markup {
	return MarkupMarkdownV2
}

func (c *TelegramChannel) SendText(ctx context.Context, chatID int64, text string, markup Markup) error {
	return c.retry.do(ctx, "telegram", "sendMessage", func() error {
		_, err := c.bot.SendMessage(ctx, &telego.SendMessageParams{
			ChatID:    tu.ID(chatID),
			Text:      text,
			ParseMode: string(markup),
		})
		return err
	})
}

func (c *TelegramChannel) SendImage(ctx context.Context, chatID int64, imageURL string) error {
	return c.retry.do(ctx, "telegram", "sendPhoto", func() error {
		_, err := c.bot.SendPhoto(ctx, &telego.SendPhotoParams{
			ChatID: tu.ID(chatID),
			Photo:  tu.FileFromURL(imageURL),
		})
		return err
	})
}

func (c *TelegramChannel) SendVoice(ctx context.Context, chatID int64, audio []byte) error {
	return c.retry.do(ctx, "telegram", "sendVoice", func() error {
		_, err := c.bot.SendVoice(ctx, &telego.SendVoiceParams{
			ChatID: tu.ID(chatID),
			Voice:  tu.File(tu.NameReader(bytes.NewReader(audio), "voice.ogg")),
		})
		return err
	})
}

func (c *TelegramChannel) ResolveFileURL(ctx context.Context, fileID string) (string, error) {
	var url string
	err := c.retry.do(ctx, "telegram", "getFile", func() error {
		file, err := c.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
		if err != nil {
			return err
		}
		url = c.bot.FileDownloadURL(file.FilePath)
		return nil
	})
	return url, err
}

func (c *TelegramChannel) LeaveChat(ctx context.Context, chatID int64) error {
	return c.retry.do(ctx, "telegram", "leaveChat", func() error {
		return c.bot.LeaveChat(ctx, &telego.LeaveChatParams{ChatID: tu.ID(chatID)})
	})
}

// telegramTransient reports whether a Bot API failure is worth retrying:
// rate limits, server-side errors and plain network failures are; other
// 4xx responses are not.
func telegramTransient(err error) bool {
	var apiErr *telegoapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode == 429 {
			return true
		}
		return apiErr.ErrorCode >= 500
	}
	return true
}
