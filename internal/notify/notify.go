package notify

import (
	"context"

	"go.uber.org/multierr"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityCritical Severity = "critical"
)

// Message is an operator-facing notification.
type Message struct {
	Title    string
	Text     string
	Severity Severity
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

type Multi []Notifier

// Send delivers to every notifier and reports all failures together.
func (m Multi) Send(ctx context.Context, msg Message) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, msg))
	}
	return err
}
