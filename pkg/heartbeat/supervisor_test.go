package heartbeat

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type noticeCounter struct {
	stillWorking atomic.Int32
	giveUp       atomic.Int32
	stillErr     error
	failFirst    int32
}

func (c *noticeCounter) notices() Notices {
	return Notices{
		StillWorking: func(context.Context) error {
			n := c.stillWorking.Add(1)
			if c.stillErr != nil && n <= c.failFirst {
				return c.stillErr
			}
			return nil
		},
		GiveUp: func(context.Context) error {
			c.giveUp.Add(1)
			return nil
		},
	}
}

func TestSupervise_FastWorkerSendsNothing(t *testing.T) {
	c := &noticeCounter{}

	got, err := Supervise(context.Background(), 50*time.Millisecond, c.notices(), func(context.Context) (string, error) {
		return "done", nil
	})
	if err != nil {
		t.Fatalf("Supervise() error = %v", err)
	}
	if got != "done" {
		t.Errorf("result = %q", got)
	}
	if n := c.stillWorking.Load(); n != 0 {
		t.Errorf("still-working notices = %d, want 0", n)
	}
	if n := c.giveUp.Load(); n != 0 {
		t.Errorf("give-up notices = %d, want 0", n)
	}
}

func TestSupervise_SlowWorkerGetsOneNotice(t *testing.T) {
	c := &noticeCounter{}

	_, err := Supervise(context.Background(), 20*time.Millisecond, c.notices(), func(ctx context.Context) (string, error) {
		select {
		case <-time.After(110 * time.Millisecond):
		case <-ctx.Done():
		}
		return "slow", nil
	})
	if err != nil {
		t.Fatalf("Supervise() error = %v", err)
	}
	// Worker outlived several ticks; the first successful send must stop
	// the notifier permanently.
	if n := c.stillWorking.Load(); n != 1 {
		t.Errorf("still-working notices = %d, want exactly 1", n)
	}
	if n := c.giveUp.Load(); n != 0 {
		t.Errorf("give-up notices = %d, want 0", n)
	}
}

func TestSupervise_FailedNoticeRetriedNextTick(t *testing.T) {
	c := &noticeCounter{stillErr: errors.New("send failed"), failFirst: 2}

	_, err := Supervise(context.Background(), 20*time.Millisecond, c.notices(), func(ctx context.Context) (string, error) {
		select {
		case <-time.After(110 * time.Millisecond):
		case <-ctx.Done():
		}
		return "slow", nil
	})
	if err != nil {
		t.Fatalf("Supervise() error = %v", err)
	}
	// Two failed attempts, then one success, then silence.
	if n := c.stillWorking.Load(); n != 3 {
		t.Errorf("still-working attempts = %d, want 3", n)
	}
	if n := c.giveUp.Load(); n != 0 {
		t.Errorf("give-up notices = %d, want 0", n)
	}
}

func TestSupervise_TimeoutSendsGiveUpOnly(t *testing.T) {
	// Every still-working attempt fails, so the deadline wins.
	c := &noticeCounter{stillErr: errors.New("send failed"), failFirst: 1 << 30}

	_, err := Supervise(context.Background(), 5*time.Millisecond, c.notices(), func(ctx context.Context) (string, error) {
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
		}
		return "late", nil
	})
	if err != nil {
		t.Fatalf("Supervise() error = %v", err)
	}
	if n := c.giveUp.Load(); n != 1 {
		t.Errorf("give-up notices = %d, want exactly 1", n)
	}
}

func TestSupervise_WorkerErrorPropagates(t *testing.T) {
	c := &noticeCounter{}
	sentinel := errors.New("remote failed")

	_, err := Supervise(context.Background(), time.Hour, c.notices(), func(context.Context) (string, error) {
		return "", sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want %v", err, sentinel)
	}
	if n := c.giveUp.Load(); n != 0 {
		t.Errorf("worker failure must bypass the give-up path, notices = %d", n)
	}
}

func TestSupervise_CancelStopsBoth(t *testing.T) {
	c := &noticeCounter{}
	ctx, cancel := context.WithCancel(context.Background())

	workerSawCancel := atomic.Bool{}
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Supervise(ctx, time.Hour, c.notices(), func(ctx context.Context) (string, error) {
		<-ctx.Done()
		workerSawCancel.Store(true)
		return "", ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if !workerSawCancel.Load() {
		t.Error("worker did not observe cancellation")
	}
}

func TestSupervise_ReturnsWorkerResultNotNoticeState(t *testing.T) {
	c := &noticeCounter{}

	got, err := Supervise(context.Background(), 10*time.Millisecond, c.notices(), func(ctx context.Context) (int, error) {
		select {
		case <-time.After(35 * time.Millisecond):
		case <-ctx.Done():
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Supervise() error = %v", err)
	}
	if got != 42 {
		t.Errorf("result = %d, want 42", got)
	}
}
