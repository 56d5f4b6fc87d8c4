package repo

import (
	"context"
	"time"
)

// AlertRecord is the last connectivity state an operator was told about and
// when the last offline alert went out (used for cooldown).
type AlertRecord struct {
	TerminalID string
	LastState  bool
	LastSentAt *time.Time
}

// AlertStore keeps alert state across restarts so a reboot does not re-page.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, terminalID string) (*AlertRecord, error)
	// Set upserts the record. If sentAt.IsZero() no send time is stored.
	Set(ctx context.Context, terminalID string, lastState bool, sentAt time.Time) error
}
