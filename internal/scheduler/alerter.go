package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/terminalmonitor/internal/domain"
	"github.com/hamed0406/terminalmonitor/internal/notify"
	"github.com/hamed0406/terminalmonitor/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	// TerminalID keys the persisted alert state.
	TerminalID string
	// Terminal names the terminal in alert text.
	Terminal string
	// SendTimeout bounds a single notifier call.
	SendTimeout time.Duration
}

// Alerter forwards connectivity flips to operators. It consumes supervisor
// events through Handle and delivers them from Run.
type Alerter struct {
	logger   *zap.Logger
	alertDB  repo.AlertStore // optional
	notifier notify.Notifier
	cfg      AlerterConfig
	events   chan Event

	// owned by Run
	lastUp     *bool
	lastSentAt time.Time
	now        func() time.Time
}

func NewAlerter(logger *zap.Logger, alertDB repo.AlertStore, notifier notify.Notifier, cfg AlerterConfig) *Alerter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	return &Alerter{
		logger:   logger,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
		events:   make(chan Event, 16),
		now:      time.Now,
	}
}

// Handle is a supervisor Listener. It never blocks the check goroutine; when
// the queue is full the event is dropped.
func (a *Alerter) Handle(ev Event) {
	if ev.Kind != EventChange {
		return
	}
	select {
	case a.events <- ev:
	default:
		a.logger.Warn("alert_dropped", zap.Bool("connected", ev.Current.Connected))
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	a.restore(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-a.events:
			msg, ok := a.decide(ev.Current)
			a.persist(ctx)
			if !ok {
				continue
			}
			sendCtx, cancel := context.WithTimeout(ctx, a.cfg.SendTimeout)
			if err := a.notifier.Send(sendCtx, msg); err != nil {
				// best effort
				a.logger.Warn("alert_send_failed", zap.String("title", msg.Title), zap.Error(err))
			} else {
				a.logger.Info("alert_sent", zap.String("title", msg.Title))
			}
			cancel()
		}
	}
}

func (a *Alerter) restore(ctx context.Context) {
	if a.alertDB == nil || a.cfg.TerminalID == "" {
		return
	}
	rec, err := a.alertDB.Get(ctx, a.cfg.TerminalID)
	if err != nil {
		a.logger.Warn("alert_state_load_failed", zap.Error(err))
		return
	}
	if rec == nil {
		return
	}
	last := rec.LastState
	a.lastUp = &last
	if rec.LastSentAt != nil {
		a.lastSentAt = *rec.LastSentAt
	}
}

func (a *Alerter) persist(ctx context.Context) {
	if a.alertDB == nil || a.cfg.TerminalID == "" || a.lastUp == nil {
		return
	}
	if err := a.alertDB.Set(ctx, a.cfg.TerminalID, *a.lastUp, a.lastSentAt); err != nil {
		a.logger.Warn("alert_state_save_failed", zap.Error(err))
	}
}

func (a *Alerter) decide(st domain.ConnectionStatus) (notify.Message, bool) {
	if st.Kind() == domain.ErrNotConfigured {
		return notify.Message{}, false
	}
	now := a.now()
	wasKnown := a.lastUp != nil
	stateChanged := !wasKnown || *a.lastUp != st.Connected
	up := st.Connected
	a.lastUp = &up
	if !stateChanged {
		return notify.Message{}, false
	}

	// cooldown only applies to offline alerts
	cooled := a.lastSentAt.IsZero() || now.Sub(a.lastSentAt) >= a.cfg.Cooldown
	downAlert := !st.Connected && cooled
	// a terminal that comes up healthy has nothing to recover from
	recoveryAlert := st.Connected && wasKnown && a.cfg.AlertOnRecovery

	if !downAlert && !recoveryAlert {
		return notify.Message{}, false
	}
	if downAlert {
		a.lastSentAt = now
	}
	return formatAlert(a.cfg.Terminal, st), true
}

func formatAlert(terminal string, st domain.ConnectionStatus) notify.Message {
	msg := notify.Message{Title: "🔴 Terminal OFFLINE", Severity: notify.SeverityCritical}
	if st.Connected {
		msg = notify.Message{Title: "🟢 Terminal RECOVERED", Severity: notify.SeverityInfo}
	}

	via := st.ViaPath
	if via == "" {
		via = "/"
	}
	latencyTxt := "n/a"
	if st.LatencyMS != nil {
		latencyTxt = fmt.Sprintf("%.0f ms", *st.LatencyMS)
	}
	reason := "-"
	if st.Err != nil {
		reason = st.Err.Reason()
	}
	if terminal == "" {
		terminal = "unnamed"
	}

	msg.Text = fmt.Sprintf(
		"Terminal: %s\nServer: %s\nVia: %s\nLatency: %s\nReason: %s\nChecked: %s",
		terminal, st.ServerBase, via, latencyTxt, reason, st.CheckedAt.Format(time.RFC3339),
	)
	return msg
}
