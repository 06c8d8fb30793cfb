package channels

import (
	"sync/atomic"
	"time"

	"relaybot/pkg/bus"
)

// StopTimeout bounds how long a channel gets to shut down cleanly.
const StopTimeout = 10 * time.Second

// BaseChannel carries the state shared by every channel implementation.
type BaseChannel struct {
	name    string
	bus     *bus.MessageBus
	running atomic.Bool
}

func NewBaseChannel(name string, b *bus.MessageBus) *BaseChannel {
	return &BaseChannel{name: name, bus: b}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

func (c *BaseChannel) setRunning(v bool) {
	c.running.Store(v)
}

func (c *BaseChannel) publish(msg bus.InboundMessage) {
	msg.Channel = c.name
	c.bus.PublishInbound(msg)
}
