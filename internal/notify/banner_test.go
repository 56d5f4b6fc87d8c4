package notify

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/terminalmonitor/internal/domain"
)

func connected(ms int) domain.ConnectionStatus {
	return domain.Connected("http://srv", "", time.Duration(ms)*time.Millisecond, time.Now().UTC())
}

func disconnected(kind domain.ErrorKind, code int) domain.ConnectionStatus {
	return domain.Disconnected("http://srv", &domain.CheckError{Kind: kind, StatusCode: code}, time.Now().UTC())
}

func TestBannerFor(t *testing.T) {
	up := connected(42)
	dn := disconnected(domain.ErrUnexpectedStatus, 503)
	nc := domain.Disconnected("", &domain.CheckError{Kind: domain.ErrNotConfigured}, time.Now().UTC())

	cases := []struct {
		name  string
		prev  *domain.ConnectionStatus
		cur   domain.ConnectionStatus
		show  bool
		level Level
		text  string
	}{
		{"first connected", nil, up, true, LevelSuccess, "Connected to server (42 ms)"},
		{"first disconnected", nil, dn, true, LevelError, "No connection: server returned status 503"},
		{"up to down", &up, dn, true, LevelError, "503"},
		{"down to up", &dn, up, true, LevelSuccess, "Connected"},
		{"still up", &up, up, false, "", ""},
		{"still down", &dn, dn, false, "", ""},
		{"not configured suppressed", nil, nc, false, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, ok := BannerFor(tc.prev, tc.cur, time.Second)
			if ok != tc.show {
				t.Fatalf("show=%v want %v", ok, tc.show)
			}
			if !ok {
				return
			}
			if b.Level != tc.level || !strings.Contains(b.Message, tc.text) {
				t.Fatalf("unexpected banner %+v", b)
			}
			if tc.level == LevelSuccess && b.AutoHide != time.Second {
				t.Fatalf("success banner must auto-hide, got %v", b.AutoHide)
			}
			if tc.level == LevelError && b.AutoHide != 0 {
				t.Fatalf("error banner must persist, got %v", b.AutoHide)
			}
		})
	}
}

func TestPresenter_SuccessAutoHides(t *testing.T) {
	p := NewPresenter(zap.NewNop(), 20*time.Millisecond)
	defer p.Close()

	p.OnStatusChange(nil, connected(5))
	b, ok := p.Current()
	if !ok || b.Level != LevelSuccess || b.HideMS != 20 {
		t.Fatalf("unexpected banner %+v ok=%v", b, ok)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := p.Current(); !ok {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("success banner was not hidden")
}

func TestPresenter_ErrorPersistsAndReplaces(t *testing.T) {
	p := NewPresenter(zap.NewNop(), 20*time.Millisecond)
	defer p.Close()

	up := connected(5)
	p.OnStatusChange(nil, up)
	first, _ := p.Current()

	// replacing the success banner must cancel its timer
	p.OnStatusChange(&up, disconnected(domain.ErrTimeout, 0))
	time.Sleep(60 * time.Millisecond)

	b, ok := p.Current()
	if !ok || b.Level != LevelError || b.ID == first.ID {
		t.Fatalf("error banner should stay visible: %+v ok=%v", b, ok)
	}
	if !strings.Contains(b.Message, "did not respond") {
		t.Fatalf("unexpected message %q", b.Message)
	}
}

func TestPresenter_Dismiss(t *testing.T) {
	p := NewPresenter(zap.NewNop(), time.Hour)
	defer p.Close()

	first := p.Show(NotConfiguredBanner())
	second := p.Show(Banner{Level: LevelError, Message: "No connection: server unreachable"})

	if p.Dismiss(first.ID) {
		t.Fatal("dismissing a replaced banner must be a no-op")
	}
	if _, ok := p.Current(); !ok {
		t.Fatal("current banner should survive stale dismiss")
	}
	if !p.Dismiss(second.ID) {
		t.Fatal("want dismiss of visible banner")
	}
	if _, ok := p.Current(); ok {
		t.Fatal("banner should be gone")
	}
}

func TestBanner_JSON(t *testing.T) {
	p := NewPresenter(zap.NewNop(), 3*time.Second)
	defer p.Close()
	b := p.Show(Banner{Level: LevelSuccess, Message: "ok", AutoHide: 3 * time.Second})

	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	if m["level"] != "success" || m["auto_hide_ms"] != float64(3000) {
		t.Fatalf("unexpected json %s", raw)
	}
	if _, ok := m["AutoHide"]; ok {
		t.Fatalf("duration must not leak into json: %s", raw)
	}
}
