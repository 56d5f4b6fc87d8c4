// Package file stores terminal settings as a YAML document on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/terminalmonitor/internal/domain"
	"github.com/hamed0406/terminalmonitor/internal/repo"
)

var _ repo.SettingsStore = (*Store)(nil)

type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("settings file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	return &Store{path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load(ctx context.Context) (*domain.TerminalSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	var out domain.TerminalSettings
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", s.path, err)
	}
	return &out, nil
}

// Save replaces the file atomically.
func (s *Store) Save(ctx context.Context, ts *domain.TerminalSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts.Normalize()
	raw, err := yaml.Marshal(ts)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp settings: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}
