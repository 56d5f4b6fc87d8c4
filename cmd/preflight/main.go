// cmd/preflight/main.go
package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

func main() {
	failed := false
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))
	apiAddr := strings.TrimSpace(os.Getenv("API_ADDR"))
	server := strings.TrimSpace(os.Getenv("SERVER_URL"))
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	settingsFile := strings.TrimSpace(os.Getenv("SETTINGS_FILE"))
	allowed := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS"))

	if admin == "" {
		warn("ADMIN_API_KEYS is empty (admin routes are open).")
	}
	if pub == "" {
		warn("PUBLIC_API_KEYS is empty (read routes are open).")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if apiAddr == "" {
		warn("API_ADDR is empty; default 127.0.0.1:8080 will be used.")
	} else {
		ok("API_ADDR=" + apiAddr)
	}

	if server == "" {
		warn("SERVER_URL empty; the terminal stays unconfigured until settings are saved.")
	} else if u, err := url.Parse(server); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		fail("SERVER_URL must be an http(s) URL, got " + server)
	} else {
		ok("SERVER_URL=" + server)
	}

	for _, key := range []string{"CHECK_INTERVAL_MS", "PROBE_TIMEOUT_MS", "BANNER_AUTOHIDE_MS"} {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err != nil || n <= 0 {
			fail(key + " must be a positive number of milliseconds")
		}
	}

	switch {
	case db != "":
		ok("DATABASE_URL present")
	case settingsFile != "":
		ok("SETTINGS_FILE=" + settingsFile)
	default:
		warn("DATABASE_URL and SETTINGS_FILE empty; settings live in memory and are lost on restart.")
	}

	if allowed == "" {
		warn("ALLOWED_ORIGINS empty; CORS allows every origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + allowed)
	}

	if failed {
		os.Exit(1)
	}
	ok("preflight passed")
}
