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
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"relaybot/pkg/bus"
	"relaybot/pkg/config"
	"relaybot/pkg/logger"
)

type DiscordChannel struct {
	*BaseChannel
	session   *discordgo.Session
	retry     retrier
	botUserID string
}

func NewDiscordChannel(cfg config.DiscordConfig, b *bus.MessageBus) (*DiscordChannel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	return &DiscordChannel{
		BaseChannel: NewBaseChannel("discord", b),
		session:     session,
		retry:       newRetrier(discordTransient),
	}, nil
}

func (c *DiscordChannel) Start(ctx context.Context) error {
	logger.InfoC("discord", "Starting Discord bot")

	botUser, err := c.session.User("@me")
	if err != nil {
		return fmt.Errorf("failed to get bot user: %w", err)
	}
	c.botUserID = botUser.ID

	c.session.AddHandler(c.handleMessage)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	c.setRunning(true)
	logger.InfoCF("discord", "Discord bot connected", map[string]any{
		"username": botUser.Username,
		"user_id":  botUser.ID,
	})

	go func() {
		<-ctx.Done()
		c.session.Close()
	}()

	return nil
}

func (c *DiscordChannel) Stop(ctx context.Context) error {
	logger.InfoC("discord", "Stopping Discord bot")
	c.setRunning(false)
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

func (c *DiscordChannel) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == c.botUserID {
		return
	}

	senderID, err := strconv.ParseInt(m.Author.ID, 10, 64)
	if err != nil {
		return
	}
	chatID, err := strconv.ParseInt(m.ChannelID, 10, 64)
	if err != nil {
		return
	}

	kind := bus.ChatGroup
	if m.GuildID == "" {
		kind = bus.ChatPrivate
	}

	msg := bus.InboundMessage{
		Sender: bus.Sender{
			ID:        senderID,
			FirstName: m.Author.Username,
			IsBot:     m.Author.Bot,
		},
		Chat: bus.Chat{ID: chatID, Kind: kind},
		Text: strings.TrimSpace(m.Content),
		Date: m.Timestamp,
	}

	// Discord attachment URLs are already resolvable; carry the URL as the
	// file ID so ResolveFileURL stays an identity lookup.
	for _, att := range m.Attachments {
		if strings.HasPrefix(att.ContentType, "image/") {
			msg.PhotoFileID = att.URL
			msg.Caption = msg.Text
			break
		}
	}

	if m.ReferencedMessage != nil && m.ReferencedMessage.Author != nil {
		msg.ReplyTo = &bus.ReplyTo{
			Sender: bus.Sender{IsBot: m.ReferencedMessage.Author.Bot},
		}
	}

	c.publish(msg)
}

// Markup reports plain text: Discord parses its own markdown dialect,
// so Deliver must not apply MarkdownV2 escaping for this channel.
func (c *DiscordChannel) Markup() Markup {
	return MarkupNone
}

func (c *DiscordChannel) SendText(ctx context.Context, chatID int64, text string, markup Markup) error {
	channelID := strconv.FormatInt(chatID, 10)
	return c.retry.do(ctx, "discord", "sendMessage", func() error {
		_, err := c.session.ChannelMessageSend(channelID, text)
		return err
	})
}

func (c *DiscordChannel) SendImage(ctx context.Context, chatID int64, imageURL string) error {
	channelID := strconv.FormatInt(chatID, 10)
	return c.retry.do(ctx, "discord", "sendEmbed", func() error {
		_, err := c.session.ChannelMessageSendEmbed(channelID, &discordgo.MessageEmbed{
			Image: &discordgo.MessageEmbedImage{URL: imageURL},
		})
		return err
	})
}

func (c *DiscordChannel) SendVoice(ctx context.Context, chatID int64, audio []byte) error {
	channelID := strconv.FormatInt(chatID, 10)
	return c.retry.do(ctx, "discord", "sendFile", func() error {
		_, err := c.session.ChannelFileSend(channelID, "voice.ogg", bytes.NewReader(audio))
		return err
	})
}

func (c *DiscordChannel) ResolveFileURL(ctx context.Context, fileID string) (string, error) {
	// Inbound attachments carry absolute URLs already.
	return fileID, nil
}

func (c *DiscordChannel) LeaveChat(ctx context.Context, chatID int64) error {
	channelID := strconv.FormatInt(chatID, 10)
	return c.retry.do(ctx, "discord", "leaveGuild", func() error {
		ch, err := c.session.Channel(channelID)
		if err != nil {
			return err
		}
		if ch.GuildID == "" {
			return nil // DMs cannot be left
		}
		return c.session.GuildLeave(ch.GuildID)
	})
}

func discordTransient(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		if restErr.Response.StatusCode == 429 {
			return true
		}
		return restErr.Response.StatusCode >= 500
	}
	return true
}
