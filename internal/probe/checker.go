package probe

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/terminalmonitor/internal/domain"
)

// Checker decides whether a server is reachable by probing candidate paths
// one at a time. It remembers the last path that worked and tries it first.
type Checker struct {
	Logger      *zap.Logger
	Prober      Prober
	HealthPaths []string
	Timeout     time.Duration

	now func() time.Time

	mu        sync.Mutex
	cached    string
	cachedFor string // base address the cached path was learned on
	hasCached bool
}

func NewChecker(logger *zap.Logger, prober Prober, healthPaths []string, timeout time.Duration) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(healthPaths) == 0 {
		healthPaths = DefaultHealthPaths
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checker{
		Logger:      logger,
		Prober:      prober,
		HealthPaths: healthPaths,
		Timeout:     timeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// LastWorkingPath returns the cached path, if any.
func (c *Checker) LastWorkingPath() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cached, c.hasCached
}

// LastWorkingPathFor returns the cached path only when it was learned on
// baseAddress, i.e. when the next Check of baseAddress will try it first.
func (c *Checker) LastWorkingPathFor(baseAddress string) (string, bool) {
	base := strings.TrimSpace(baseAddress)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasCached || base == "" || c.cachedFor != base {
		return "", false
	}
	return c.cached, true
}

// ResetCache forgets the last working path. Call it whenever the server
// address changes.
func (c *Checker) ResetCache() {
	c.mu.Lock()
	c.cached, c.cachedFor, c.hasCached = "", "", false
	c.mu.Unlock()
	c.Logger.Info("probe_cache_reset")
}

// Candidates returns the ordered, de-duplicated list of paths the next Check
// of baseAddress will try. A path cached for another address is ignored.
func (c *Checker) Candidates(baseAddress string) []string {
	base := strings.TrimSpace(baseAddress)
	c.mu.Lock()
	cached, ok := c.cached, c.hasCached && c.cachedFor == base
	c.mu.Unlock()
	return candidatePaths(cached, ok, c.HealthPaths)
}

func candidatePaths(cached string, hasCached bool, healthPaths []string) []string {
	out := make([]string, 0, len(healthPaths)+2)
	seen := make(map[string]bool, len(healthPaths)+2)
	add := func(p string) {
		if seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}
	if hasCached {
		add(cached)
	}
	add("")
	for _, p := range healthPaths {
		add(p)
	}
	return out
}

// Check probes the candidates strictly in order and stops at the first success.
func (c *Checker) Check(ctx context.Context, baseAddress string) domain.ConnectionStatus {
	base := strings.TrimSpace(baseAddress)
	if base == "" {
		return domain.Disconnected("", &domain.CheckError{Kind: domain.ErrNotConfigured}, c.now())
	}

	var worst *Result
	for _, path := range c.Candidates(base) {
		res := c.Prober.Probe(ctx, base, path, c.Timeout)
		c.Logger.Debug("probe_result",
			zap.String("target", res.Target),
			zap.String("outcome", res.Outcome.String()),
			zap.Int("status", res.StatusCode),
			zap.Duration("latency", res.Latency),
			zap.Error(res.Cause),
		)

		if res.Outcome == OutcomeSuccess {
			c.mu.Lock()
			c.cached, c.cachedFor, c.hasCached = path, base, true
			c.mu.Unlock()
			return domain.Connected(base, path, res.Latency, c.now())
		}
		if worst == nil || moreSpecific(res.Err, worst.Err) {
			r := res
			worst = &r
		}
	}

	c.Logger.Info("no_candidate_reachable",
		zap.String("server", base),
		zap.String("error", worst.Err.Error()),
		zap.Error(worst.Cause),
	)
	return domain.Disconnected(base, worst.Err, c.now())
}

// specificity ranks failure kinds; the highest one observed is surfaced.
func specificity(k domain.ErrorKind) int {
	switch k {
	case domain.ErrUnexpectedStatus:
		return 3
	case domain.ErrTimeout:
		return 2
	case domain.ErrUnreachable:
		return 1
	default:
		return 0
	}
}

// moreSpecific reports whether next should replace cur as the surfaced failure.
// Ties go to the later observation.
func moreSpecific(next, cur *domain.CheckError) bool {
	return specificity(next.Kind) >= specificity(cur.Kind)
}
