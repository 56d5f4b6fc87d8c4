package notify

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/terminalmonitor/internal/domain"
)

// DefaultAutoHide is how long a success banner stays up.
const DefaultAutoHide = 3 * time.Second

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Banner is the single notification the terminal UI renders.
// AutoHide of zero means it stays until dismissed.
type Banner struct {
	ID       uint64        `json:"id"`
	Level    Level         `json:"level"`
	Message  string        `json:"message"`
	AutoHide time.Duration `json:"-"`
	HideMS   int64         `json:"auto_hide_ms"`
	ShownAt  time.Time     `json:"shown_at"`
}

// BannerFor maps a status transition to a banner. It returns false when no
// banner should be shown: no connectivity flip, or no server configured yet.
func BannerFor(prev *domain.ConnectionStatus, cur domain.ConnectionStatus, autoHide time.Duration) (Banner, bool) {
	if prev != nil && prev.Connected == cur.Connected {
		return Banner{}, false
	}
	if cur.Kind() == domain.ErrNotConfigured {
		return Banner{}, false
	}
	if cur.Connected {
		return Banner{
			Level:    LevelSuccess,
			Message:  fmt.Sprintf("Connected to server (%.0f ms)", *cur.LatencyMS),
			AutoHide: autoHide,
		}, true
	}
	return Banner{
		Level:   LevelError,
		Message: "No connection: " + cur.Err.Reason(),
	}, true
}

// NotConfiguredBanner is shown at startup until the terminal is set up.
func NotConfiguredBanner() Banner {
	return Banner{Level: LevelWarning, Message: "Terminal not configured. Configure it now for full operation."}
}

// Presenter holds the one visible banner. A new banner replaces the current
// one and cancels its auto-hide timer.
type Presenter struct {
	Logger   *zap.Logger
	AutoHide time.Duration

	mu      sync.Mutex
	seq     uint64
	current *Banner
	timer   *time.Timer
}

func NewPresenter(logger *zap.Logger, autoHide time.Duration) *Presenter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if autoHide <= 0 {
		autoHide = DefaultAutoHide
	}
	return &Presenter{Logger: logger, AutoHide: autoHide}
}

// OnStatusChange shows the banner for a transition, if any.
func (p *Presenter) OnStatusChange(prev *domain.ConnectionStatus, cur domain.ConnectionStatus) {
	if b, ok := BannerFor(prev, cur, p.AutoHide); ok {
		p.Show(b)
	}
}

// Show replaces the visible banner and returns it with its id set.
func (p *Presenter) Show(b Banner) Banner {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.seq++
	b.ID = p.seq
	b.ShownAt = time.Now().UTC()
	b.HideMS = b.AutoHide.Milliseconds()
	p.current = &b

	if b.AutoHide > 0 {
		id := b.ID
		p.timer = time.AfterFunc(b.AutoHide, func() { p.expire(id) })
	}
	p.Logger.Info("banner_shown",
		zap.Uint64("id", b.ID),
		zap.String("level", string(b.Level)),
		zap.String("message", b.Message),
	)
	return b
}

func (p *Presenter) Current() (Banner, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Banner{}, false
	}
	return *p.current, true
}

// Dismiss hides the banner if it is still the visible one.
func (p *Presenter) Dismiss(id uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.ID != id {
		return false
	}
	p.clearLocked()
	p.Logger.Info("banner_dismissed", zap.Uint64("id", id))
	return true
}

// Close stops any pending auto-hide timer.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Presenter) expire(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// a replaced banner's timer may still fire
	if p.current == nil || p.current.ID != id {
		return
	}
	p.clearLocked()
}

func (p *Presenter) clearLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.current = nil
}
