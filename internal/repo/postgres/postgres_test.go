package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/terminalmonitor/internal/domain"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := New(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestPostgresStore_SettingsUpsert(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id := domain.NewTerminalID()
	t.Cleanup(func() { _, _ = s.pool.Exec(context.Background(), `DELETE FROM terminal_settings WHERE id=$1`, id) })

	in := &domain.TerminalSettings{ID: id, Name: "Gate 3", ServerURL: "http://10.0.0.5:3333", IsConfigured: true}
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	in.ServerURL = "http://10.0.0.6:3333"
	in.UpdatedAt = time.Now().UTC().Add(time.Hour) // newest row wins Load
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil || got == nil {
		t.Fatalf("load: %+v err=%v", got, err)
	}
	if got.ID != id || got.ServerURL != "http://10.0.0.6:3333" || !got.IsConfigured {
		t.Fatalf("unexpected settings %+v", got)
	}
}

func TestPostgresStore_AlertsCRUD(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id := domain.NewTerminalID()
	t.Cleanup(func() { _, _ = s.pool.Exec(context.Background(), `DELETE FROM alerts WHERE terminal_id=$1`, id) })

	// none yet
	rec, err := s.Get(ctx, id)
	if err != nil || rec != nil {
		t.Fatalf("expected nil, got %+v err=%v", rec, err)
	}

	// set (no sent time)
	if err := s.Set(ctx, id, false, time.Time{}); err != nil {
		t.Fatalf("set: %v", err)
	}
	rec, err = s.Get(ctx, id)
	if err != nil || rec == nil || rec.LastSentAt != nil || rec.LastState {
		t.Fatalf("unexpected: %+v err=%v", rec, err)
	}

	// set with sent time
	if err := s.Set(ctx, id, true, time.Now()); err != nil {
		t.Fatalf("set2: %v", err)
	}
	rec, err = s.Get(ctx, id)
	if err != nil || rec == nil || rec.LastSentAt == nil || !rec.LastState {
		t.Fatalf("unexpected2: %+v err=%v", rec, err)
	}
}
