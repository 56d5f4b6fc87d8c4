package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/terminalmonitor/internal/domain"
	"github.com/hamed0406/terminalmonitor/internal/repo"
)

var _ repo.SettingsStore = (*Store)(nil)
var _ repo.AlertStore = (*Store)(nil)

// Schema is applied by Migrate; every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS terminal_settings (
  id            TEXT PRIMARY KEY,
  name          TEXT NOT NULL DEFAULT '',
  location      TEXT NOT NULL DEFAULT '',
  server_url    TEXT NOT NULL DEFAULT '',
  is_configured BOOLEAN NOT NULL DEFAULT false,
  updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS alerts (
  terminal_id  TEXT PRIMARY KEY,
  last_state   BOOLEAN NOT NULL,
  last_sent_at TIMESTAMPTZ NULL
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.log.Info("schema_ready")
	return nil
}

// ---- SettingsStore ----

// Load returns the most recently saved terminal settings row.
func (s *Store) Load(ctx context.Context) (*domain.TerminalSettings, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, location, server_url, is_configured, updated_at
		   FROM terminal_settings
		  ORDER BY updated_at DESC
		  LIMIT 1`)
	var ts domain.TerminalSettings
	err := row.Scan(&ts.ID, &ts.Name, &ts.Location, &ts.ServerURL, &ts.IsConfigured, &ts.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	ts.UpdatedAt = ts.UpdatedAt.UTC()
	return &ts, nil
}

func (s *Store) Save(ctx context.Context, ts *domain.TerminalSettings) error {
	ts.Normalize()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO terminal_settings (id, name, location, server_url, is_configured, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		    SET name=EXCLUDED.name, location=EXCLUDED.location, server_url=EXCLUDED.server_url,
		        is_configured=EXCLUDED.is_configured, updated_at=EXCLUDED.updated_at`,
		ts.ID, ts.Name, ts.Location, ts.ServerURL, ts.IsConfigured, ts.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// ---- AlertStore ----

func (s *Store) Get(ctx context.Context, terminalID string) (*repo.AlertRecord, error) {
	const q = `SELECT last_state, last_sent_at FROM alerts WHERE terminal_id=$1`
	r := repo.AlertRecord{TerminalID: terminalID}
	err := s.pool.QueryRow(ctx, q, terminalID).Scan(&r.LastState, &r.LastSentAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return &r, nil
}

func (s *Store) Set(ctx context.Context, terminalID string, lastState bool, sentAt time.Time) error {
	const q = `
		INSERT INTO alerts (terminal_id, last_state, last_sent_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (terminal_id)
		DO UPDATE SET last_state=EXCLUDED.last_state, last_sent_at=EXCLUDED.last_sent_at
	`
	var ts *time.Time
	if !sentAt.IsZero() {
		ts = &sentAt
	}
	if _, err := s.pool.Exec(ctx, q, terminalID, lastState, ts); err != nil {
		return fmt.Errorf("set alert: %w", err)
	}
	return nil
}
