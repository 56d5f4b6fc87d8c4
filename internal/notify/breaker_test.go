package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type flaky struct {
	calls int
	err   error
}

func (f *flaky) Send(context.Context, Message) error {
	f.calls++
	return f.err
}

func TestBreaker_OpensAfterFailuresAndRecovers(t *testing.T) {
	inner := &flaky{err: errors.New("webhook 500")}
	b := NewBreaker(zap.NewNop(), "slack", inner, 2, 30*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := b.Send(ctx, Message{Title: "x"}); err == nil {
			t.Fatal("want inner error")
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("want open, got %s", b.State())
	}

	if err := b.Send(ctx, Message{Title: "x"}); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("want ErrOpenState, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("open breaker must not call notifier, calls=%d", inner.calls)
	}

	time.Sleep(50 * time.Millisecond)
	inner.err = nil
	if err := b.Send(ctx, Message{Title: "x"}); err != nil {
		t.Fatalf("half-open probe should pass: %v", err)
	}
	if b.State() != gobreaker.StateClosed {
		t.Fatalf("want closed after success, got %s", b.State())
	}
}
