package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func cliEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SETTINGS_FILE", "")
	t.Setenv("SERVER_URL", "")
	t.Setenv("RETRY_BACKOFF_MS", "0")
}

func TestRun_ConnectedExitsZero(t *testing.T) {
	cliEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var out, errOut bytes.Buffer
	code := run([]string{"-server", srv.URL, "-attempts", "1", "-v"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("want exit 0, got %d: %s", code, out.String())
	}
	if !strings.HasPrefix(out.String(), "✔ connected to "+srv.URL) {
		t.Fatalf("unexpected output %q", out.String())
	}
	if !strings.Contains(errOut.String(), "probe_result") {
		t.Fatalf("verbose probe log missing from stderr: %q", errOut.String())
	}
}

func TestRun_OfflineExitsOneAfterLogging(t *testing.T) {
	cliEnv(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	var out, errOut bytes.Buffer
	code := run([]string{"-server", addr, "-attempts", "1", "-v"}, &out, &errOut)
	if code != 1 {
		t.Fatalf("want exit 1, got %d", code)
	}
	if !strings.Contains(out.String(), "✖ no connection: server unreachable") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if !strings.Contains(out.String(), "dns: LITERAL_IP") {
		t.Fatalf("want dns class for unreachable server, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "probe_result") {
		t.Fatalf("probe logs must be written before the exit code is returned: %q", errOut.String())
	}
}

func TestRun_BadFlagExitsTwo(t *testing.T) {
	cliEnv(t)
	var out, errOut bytes.Buffer
	if code := run([]string{"-nope"}, &out, &errOut); code != 2 {
		t.Fatalf("want exit 2, got %d", code)
	}
}
