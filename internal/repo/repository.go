package repo

import (
	"context"

	"github.com/hamed0406/terminalmonitor/internal/domain"
)

// Ports implemented by the memory, file and postgres adapters.
type SettingsStore interface {
	// Load returns nil, nil before the first Save.
	Load(ctx context.Context) (*domain.TerminalSettings, error)
	Save(ctx context.Context, s *domain.TerminalSettings) error
}
