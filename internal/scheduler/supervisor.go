package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/terminalmonitor/internal/domain"
)

// DefaultInterval is the polling period when Start is given none.
const DefaultInterval = 30 * time.Second

// Checker is the part of probe.Checker the supervisor drives.
type Checker interface {
	Check(ctx context.Context, baseAddress string) domain.ConnectionStatus
	ResetCache()
}

type State int

const (
	StateStopped State = iota
	StateIdle
	StateChecking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	default:
		return "stopped"
	}
}

type EventKind string

const (
	// EventCheck follows every completed check.
	EventCheck EventKind = "check"
	// EventChange follows the first check after Start and every connectivity flip.
	EventChange EventKind = "change"
)

type Event struct {
	Kind     EventKind                `json:"kind"`
	Previous *domain.ConnectionStatus `json:"previous"`
	Current  domain.ConnectionStatus  `json:"current"`
}

// Listener is called synchronously on the goroutine that ran the check.
type Listener func(Event)

// Supervisor polls a single server address on a fixed interval and keeps the
// latest ConnectionStatus. At most one check runs at a time; triggers that
// arrive while one is in flight are dropped.
type Supervisor struct {
	Logger  *zap.Logger
	Checker Checker

	mu       sync.Mutex
	state    State
	base     string
	interval time.Duration
	gen      uint64 // bumped by Start and Stop; stale results are discarded
	ticker   *time.Ticker
	stopCh   chan struct{}
	current  *domain.ConnectionStatus

	listeners []subscription
	nextSub   int
}

type subscription struct {
	id int
	fn Listener
}

func NewSupervisor(logger *zap.Logger, checker Checker) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{Logger: logger, Checker: checker}
}

// Start begins polling baseAddress. Calling it while running restarts the
// loop; a changed address also clears the checker's cached path.
func (s *Supervisor) Start(baseAddress string, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	s.mu.Lock()
	if s.state != StateStopped {
		s.stopLocked()
	}
	changed := s.base != baseAddress
	s.base = baseAddress
	s.interval = interval
	s.current = nil
	s.gen++
	gen := s.gen
	s.state = StateIdle
	s.ticker = time.NewTicker(interval)
	s.stopCh = make(chan struct{})
	ticker, stopCh := s.ticker, s.stopCh
	s.mu.Unlock()

	if changed {
		s.Checker.ResetCache()
	}
	s.Logger.Info("supervisor_started",
		zap.String("server", baseAddress),
		zap.Duration("interval", interval),
		zap.Bool("address_changed", changed),
	)

	go s.loop(gen, ticker.C, stopCh)
}

// Stop cancels the timer before returning. A check already in flight finishes
// but its result is dropped.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	s.stopLocked()
	s.mu.Unlock()
	s.Logger.Info("supervisor_stopped")
}

func (s *Supervisor) stopLocked() {
	s.ticker.Stop()
	close(s.stopCh)
	s.ticker, s.stopCh = nil, nil
	s.state = StateStopped
	s.gen++
}

// Unconfigure stops polling and records a NotConfigured status so callers
// no longer see the last result of the old address.
func (s *Supervisor) Unconfigure() {
	s.mu.Lock()
	if s.state != StateStopped {
		s.stopLocked()
	}
	st := domain.Disconnected("", &domain.CheckError{Kind: domain.ErrNotConfigured}, time.Now().UTC())
	prev := s.current
	s.current = &st
	s.base = ""
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.Logger.Info("supervisor_unconfigured")
	s.emit(listeners, prev, st)
}

// CheckNow runs a check immediately. ok is false when the supervisor is
// stopped or a check is already in flight.
func (s *Supervisor) CheckNow(ctx context.Context) (st domain.ConnectionStatus, ok bool) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	// the caller going away must not turn the check into a timeout
	return s.run(context.WithoutCancel(ctx), gen)
}

// ResetCache forgets the cached working path.
func (s *Supervisor) ResetCache() {
	s.Checker.ResetCache()
}

// Status returns the latest completed status since the last Start, or the
// NotConfigured status after Unconfigure.
func (s *Supervisor) Status() (domain.ConnectionStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.ConnectionStatus{}, false
	}
	return *s.current, true
}

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Address returns the address passed to the last Start.
func (s *Supervisor) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

// Subscribe registers fn for every event and returns a function that removes it.
func (s *Supervisor) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Supervisor) loop(gen uint64, tick <-chan time.Time, stopCh <-chan struct{}) {
	ctx := context.Background()

	// immediate pass
	s.run(ctx, gen)

	for {
		select {
		case <-stopCh:
			return
		case <-tick:
			s.run(ctx, gen)
		}
	}
}

func (s *Supervisor) run(ctx context.Context, gen uint64) (domain.ConnectionStatus, bool) {
	s.mu.Lock()
	if s.gen != gen || s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		s.Logger.Debug("check_skipped", zap.Stringer("state", state))
		return domain.ConnectionStatus{}, false
	}
	s.state = StateChecking
	base := s.base
	s.mu.Unlock()

	st := s.Checker.Check(ctx, base)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.Logger.Debug("check_discarded", zap.String("server", base))
		return st, false
	}
	prev := s.current
	s.current = &st
	s.state = StateIdle
	listeners := s.listenersLocked()
	s.mu.Unlock()

	fields := []zap.Field{
		zap.String("server", base),
		zap.Bool("connected", st.Connected),
		zap.String("via_path", st.ViaPath),
	}
	if st.LatencyMS != nil {
		fields = append(fields, zap.Float64("latency_ms", *st.LatencyMS))
	}
	if st.Err != nil {
		fields = append(fields, zap.String("error", st.Err.Error()))
	}
	s.Logger.Info("connectivity_check", fields...)

	s.emit(listeners, prev, st)
	return st, true
}

func (s *Supervisor) listenersLocked() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l.fn)
	}
	return out
}

func (s *Supervisor) emit(listeners []Listener, prev *domain.ConnectionStatus, st domain.ConnectionStatus) {
	events := []Event{{Kind: EventCheck, Previous: prev, Current: st}}
	if prev == nil || prev.Connected != st.Connected {
		events = append(events, Event{Kind: EventChange, Previous: prev, Current: st})
		s.Logger.Info("connectivity_changed",
			zap.String("server", st.ServerBase),
			zap.Bool("connected", st.Connected),
		)
	}
	for _, ev := range events {
		for _, fn := range listeners {
			fn(ev)
		}
	}
}
