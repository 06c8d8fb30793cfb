// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"relaybot/pkg/bus"
	"relaybot/pkg/logger"
)

// maxMessageAge drops messages that sat in the platform's queue too
// long, e.g. while the process was down. Answering them hours later
// only confuses the chat.
const maxMessageAge = 10 * time.Minute

// Handler answers one inbound message.
type Handler interface {
	Process(ctx context.Context, msg bus.InboundMessage) error
}

// Gateway consumes the bus and dispatches each message to the handler
// on its own goroutine. Messages are independent; nothing is shared
// between dispatches except the handler itself.
type Gateway struct {
	bus     *bus.MessageBus
	handler Handler
	wg      sync.WaitGroup

	now func() time.Time
}

func NewGateway(b *bus.MessageBus, handler Handler) *Gateway {
	return &Gateway{
		bus:     b,
		handler: handler,
		now:     time.Now,
	}
}

// Run consumes until the context is cancelled or the bus closes, then
// waits for in-flight dispatches to finish.
func (g *Gateway) Run(ctx context.Context) error {
	defer g.wg.Wait()

	for {
		msg, ok := g.bus.ConsumeInbound(ctx)
		if !ok {
			return ctx.Err()
		}
		g.dispatch(ctx, msg)
	}
}

func (g *Gateway) dispatch(ctx context.Context, msg bus.InboundMessage) {
	id := uuid.NewString()

	if age := g.now().Sub(msg.Date); age > maxMessageAge {
		logger.InfoCF("gateway", "dropping stale message", map[string]any{
			"message_id": id,
			"chat_id":    msg.Chat.ID,
			"age":        age.String(),
		})
		return
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		logger.DebugCF("gateway", "processing message", map[string]any{
			"message_id": id,
			"channel":    msg.Channel,
			"chat_id":    msg.Chat.ID,
		})
		if err := g.handler.Process(ctx, msg); err != nil {
			logger.ErrorCF("gateway", "message processing failed", map[string]any{
				"message_id": id,
				"chat_id":    msg.Chat.ID,
				"error":      err.Error(),
			})
		}
	}()
}
