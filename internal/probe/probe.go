package probe

import (
	"context"
	"time"

	"github.com/hamed0406/terminalmonitor/internal/domain"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 5 * time.Second

// DefaultHealthPaths are tried, in order, after the base address itself.
var DefaultHealthPaths = []string{"/health", "/api/health", "/status"}

// Outcome classifies a single probe.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	// OutcomeSoftFailure is a 404 on a non-root path: the endpoint is simply
	// not offered by this server.
	OutcomeSoftFailure
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSoftFailure:
		return "soft_failure"
	default:
		return "failure"
	}
}

// Result is the unified result of a single probe.
//
// Fields:
//   - StatusCode: HTTP status code when available; 0 for timeout/transport errors.
//   - Latency: set only on OutcomeSuccess.
//   - Err: nil only on OutcomeSuccess.
//   - Cause: the underlying transport error, for logs only.
type Result struct {
	Target     string
	Path       string
	Outcome    Outcome
	StatusCode int
	Latency    time.Duration
	Err        *domain.CheckError
	Cause      error
}

// Prober performs one bounded-time reachability check of baseAddress+path.
// Implementations never return Go errors; every failure maps to a Result.
type Prober interface {
	Probe(ctx context.Context, baseAddress, path string, timeout time.Duration) Result
}
