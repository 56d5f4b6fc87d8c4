// internal/probe/retrychecker.go
package probe

import (
	"context"
	"time"

	"github.com/hamed0406/terminalmonitor/internal/domain"
)

// StatusChecker answers "is this server reachable right now".
type StatusChecker interface {
	Check(ctx context.Context, baseAddress string) domain.ConnectionStatus
}

// RetryChecker repeats a whole check. Probes never retry on their own, so
// callers that want retries (the one-shot CLI) wrap the Checker in this.
type RetryChecker struct {
	Inner    StatusChecker
	Attempts int
	Backoff  time.Duration
}

func (r *RetryChecker) Check(ctx context.Context, baseAddress string) domain.ConnectionStatus {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last domain.ConnectionStatus
	for i := 0; i < attempts; i++ {
		last = r.Inner.Check(ctx, baseAddress)
		// nothing to retry when there is no address
		if last.Connected || last.Kind() == domain.ErrNotConfigured {
			return last
		}
		if i < attempts-1 {
			t := time.NewTimer(r.Backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return last
			case <-t.C:
			}
		}
	}
	return last
}
