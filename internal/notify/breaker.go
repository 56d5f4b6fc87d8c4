package notify

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Breaker stops calling a failing notifier for a while instead of waiting
// out its timeout on every alert.
type Breaker struct {
	inner Notifier
	cb    *gobreaker.CircuitBreaker
}

// NewBreaker opens after failures consecutive errors and probes again after cooldown.
func NewBreaker(logger *zap.Logger, name string, inner Notifier, failures uint32, cooldown time.Duration) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if failures == 0 {
		failures = 3
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("notifier_breaker",
				zap.String("notifier", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &Breaker{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Send returns gobreaker.ErrOpenState without calling the notifier while open.
func (b *Breaker) Send(ctx context.Context, msg Message) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.Send(ctx, msg)
	})
	return err
}

func (b *Breaker) State() gobreaker.State { return b.cb.State() }
