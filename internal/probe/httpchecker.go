package probe

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hamed0406/terminalmonitor/internal/domain"
)

// HTTPProbe issues a single GET per probe.
type HTTPProbe struct {
	Client *http.Client
}

func NewHTTPProbe() *HTTPProbe {
	// Per-probe deadlines come from the context, so the client itself has none.
	return &HTTPProbe{
		Client: &http.Client{},
	}
}

// JoinTarget builds the probe URL: base without trailing slashes, then path.
func JoinTarget(baseAddress, path string) string {
	return strings.TrimRight(strings.TrimSpace(baseAddress), "/") + path
}

func (h *HTTPProbe) Probe(ctx context.Context, baseAddress, path string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	target := JoinTarget(baseAddress, path)
	res := Result{Target: target, Path: path, Outcome: OutcomeFailure}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		res.Err = &domain.CheckError{Kind: domain.ErrUnreachable, Path: path}
		res.Cause = err
		return res
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	start := time.Now()
	resp, err := h.Client.Do(req)
	latency := time.Since(start)
	if err != nil {
		res.Err = &domain.CheckError{Kind: classifyTransportError(ctx, err), Path: path}
		res.Cause = err
		return res
	}
	defer resp.Body.Close()
	// drain a little so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	res.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		res.Outcome = OutcomeSuccess
		res.Latency = latency
	case resp.StatusCode == http.StatusNotFound && path != "":
		res.Outcome = OutcomeSoftFailure
		res.Err = &domain.CheckError{Kind: domain.ErrSoftNotFound, StatusCode: resp.StatusCode, Path: path}
	default:
		res.Err = &domain.CheckError{Kind: domain.ErrUnexpectedStatus, StatusCode: resp.StatusCode, Path: path}
	}
	return res
}

func classifyTransportError(ctx context.Context, err error) domain.ErrorKind {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.ErrTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.ErrTimeout
	}
	return domain.ErrUnreachable
}
