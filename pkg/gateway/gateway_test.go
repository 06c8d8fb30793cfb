package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"relaybot/pkg/bus"
)

type recordingHandler struct {
	mu   sync.Mutex
	seen []bus.InboundMessage
	done chan struct{}
	want int
}

func (h *recordingHandler) Process(_ context.Context, msg bus.InboundMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, msg)
	if len(h.seen) == h.want {
		close(h.done)
	}
	return nil
}

func freshMsg(chatID int64, text string) bus.InboundMessage {
	return bus.InboundMessage{
		Chat: bus.Chat{ID: chatID, Kind: bus.ChatPrivate},
		Text: text,
		Date: time.Now(),
	}
}

func TestRunDispatchesEachMessage(t *testing.T) {
	b := bus.NewMessageBus()
	h := &recordingHandler{done: make(chan struct{}), want: 3}
	g := NewGateway(b, h)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		_ = g.Run(ctx)
		close(runDone)
	}()

	b.PublishInbound(freshMsg(1, "a"))
	b.PublishInbound(freshMsg(2, "b"))
	b.PublishInbound(freshMsg(3, "c"))

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not see all messages")
	}

	cancel()
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunDropsStaleMessages(t *testing.T) {
	b := bus.NewMessageBus()
	h := &recordingHandler{done: make(chan struct{}), want: 1}
	g := NewGateway(b, h)

	stale := freshMsg(1, "old")
	stale.Date = time.Now().Add(-maxMessageAge - time.Minute)
	b.PublishInbound(stale)
	b.PublishInbound(freshMsg(2, "new"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = g.Run(ctx) }()

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("fresh message was not processed")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.seen) != 1 || h.seen[0].Chat.ID != 2 {
		t.Errorf("seen = %v, want only the fresh message", h.seen)
	}
}

func TestRunWaitsForInflightWork(t *testing.T) {
	b := bus.NewMessageBus()
	started := make(chan struct{})
	finished := make(chan struct{})
	h := &blockingHandler{started: started, release: make(chan struct{}), finished: finished}
	g := NewGateway(b, h)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		_ = g.Run(ctx)
		close(runDone)
	}()

	b.PublishInbound(freshMsg(1, "slow"))
	<-started
	cancel()

	select {
	case <-runDone:
		t.Fatal("Run returned while the handler was still working")
	case <-time.After(50 * time.Millisecond):
	}

	close(h.release)
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the handler finished")
	}
	<-finished
}

type blockingHandler struct {
	started  chan struct{}
	release  chan struct{}
	finished chan struct{}
}

func (h *blockingHandler) Process(context.Context, bus.InboundMessage) error {
	close(h.started)
	<-h.release
	close(h.finished)
	return nil
}
