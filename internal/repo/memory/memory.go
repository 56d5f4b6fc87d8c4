package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/terminalmonitor/internal/domain"
	"github.com/hamed0406/terminalmonitor/internal/repo"
)

// Store keeps settings and alert state for the life of the process.
type Store struct {
	mu       sync.RWMutex
	settings *domain.TerminalSettings
	alerts   map[string]repo.AlertRecord
}

func New() *Store {
	return &Store{alerts: make(map[string]repo.AlertRecord)}
}

func (m *Store) Load(ctx context.Context) (*domain.TerminalSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return nil, nil
	}
	cp := *m.settings
	return &cp, nil
}

func (m *Store) Save(ctx context.Context, s *domain.TerminalSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Normalize()
	cp := *s
	m.settings = &cp
	return nil
}

func (m *Store) Get(ctx context.Context, terminalID string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.alerts[terminalID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Store) Set(ctx context.Context, terminalID string, lastState bool, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	m.alerts[terminalID] = repo.AlertRecord{TerminalID: terminalID, LastState: lastState, LastSentAt: ts}
	return nil
}
