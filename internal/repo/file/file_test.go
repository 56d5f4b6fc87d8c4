package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hamed0406/terminalmonitor/internal/domain"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "settings.yaml")
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(ctx)
	if err != nil || got != nil {
		t.Fatalf("missing file should load as nil, got %+v err=%v", got, err)
	}

	in := &domain.TerminalSettings{Name: "Gate 3", Location: "Lobby", ServerURL: "http://10.0.0.5:3333", IsConfigured: true}
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "server_url: http://10.0.0.5:3333") {
		t.Fatalf("unexpected yaml:\n%s", raw)
	}

	got, err = s.Load(ctx)
	if err != nil || got == nil {
		t.Fatalf("Load: %+v err=%v", got, err)
	}
	if got.ID != in.ID || got.Location != "Lobby" || !got.IsConfigured || !got.UpdatedAt.Equal(in.UpdatedAt) {
		t.Fatalf("round trip mismatch: in=%+v out=%+v", in, got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("name: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, _ := New(path)
	if _, err := s.Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNew_EmptyPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error")
	}
}
