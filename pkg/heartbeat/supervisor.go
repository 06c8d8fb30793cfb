// relaybot - Telegram/Discord to GPT relay bot
// License: MIT
//
// Copyright (c) 2026 relaybot contributors

// Package heartbeat races a slow unit of work against user-facing
// "still working" notices so a chat never goes silent during a long
// remote call.
package heartbeat

import (
	"context"
	"sync"
	"time"

	"relaybot/pkg/logger"
)

// giveUpTicks is the total timeout, expressed as a multiple of the
// heartbeat interval, after which the notifier sends its final notice.
const giveUpTicks = 10

// Notices are the side-effect callbacks of the supervisor. StillWorking
// is attempted once per interval tick until one attempt succeeds; GiveUp
// fires once if the total timeout elapses first. They are never both
// delivered in one invocation.
type Notices struct {
	StillWorking func(ctx context.Context) error
	GiveUp       func(ctx context.Context) error
}

// Supervise runs work while a notifier watches the clock, and returns the
// work's result. The notifier waits one interval, then tries to send a
// single "still working" notice, retrying on later ticks only while no
// attempt has succeeded. At interval×10 it gives up with a final notice
// instead. Whenever the work finishes first, the notifier is cancelled
// and emits nothing further. Both activities have settled by the time
// Supervise returns; cancelling ctx cancels them both.
func Supervise[T any](ctx context.Context, interval time.Duration, notices Notices, work func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		notify(ctx, interval, notices, done)
	}()

	result, err := work(ctx)

	close(done)
	wg.Wait()

	return result, err
}

func notify(ctx context.Context, interval time.Duration, n Notices, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	deadline := time.NewTimer(giveUpTicks * interval)
	defer deadline.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-deadline.C:
			if settled(ctx, done) {
				return
			}
			if n.GiveUp != nil {
				if err := n.GiveUp(ctx); err != nil {
					logger.ErrorCF("heartbeat", "Give-up notice failed", map[string]any{
						"error": err.Error(),
					})
				}
			}
			return
		case <-ticker.C:
			if settled(ctx, done) {
				return
			}
			if n.StillWorking == nil {
				return
			}
			if err := n.StillWorking(ctx); err != nil {
				// Retried on the next tick; never escalated.
				logger.WarnCF("heartbeat", "Still-working notice failed, will retry", map[string]any{
					"error": err.Error(),
				})
				continue
			}
			return
		}
	}
}

// settled reports whether the worker already finished or the supervisor
// was cancelled. The extra check keeps a tick that raced the worker's
// completion from producing a late notice.
func settled(ctx context.Context, done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
