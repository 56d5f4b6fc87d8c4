package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hamed0406/terminalmonitor/internal/config"
	"github.com/hamed0406/terminalmonitor/internal/domain"
	"github.com/hamed0406/terminalmonitor/internal/probe"
	"github.com/hamed0406/terminalmonitor/internal/repo/file"
)

// One-shot connectivity check. Exit code 1 means the server is not reachable,
// 2 means the configuration could not be read.
func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 2
	}

	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", cfg.ServerURL, "server base address, e.g. http://10.0.0.5:3333")
	timeout := fs.Duration("timeout", cfg.ProbeTimeout, "per-probe timeout")
	attempts := fs.Int("attempts", cfg.RetryAttempts, "whole-check attempts")
	asJSON := fs.Bool("json", false, "print the status as JSON")
	verbose := fs.Bool("v", false, "log every probe to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *server == "" && cfg.SettingsFile != "" {
		if store, err := file.New(cfg.SettingsFile); err == nil {
			if ts, err := store.Load(context.Background()); err == nil && ts != nil {
				*server = ts.ServerURL
			}
		}
	}

	logger := zap.NewNop()
	if *verbose {
		logger = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(stderr),
			zap.DebugLevel,
		))
	}
	defer logger.Sync()

	checker := &probe.RetryChecker{
		Inner:    probe.NewChecker(logger, probe.NewHTTPProbe(), cfg.HealthPaths, *timeout),
		Attempts: *attempts,
		Backoff:  cfg.RetryBackoff,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	st := checker.Check(ctx, *server)

	var dns *probe.DNSStatus
	if st.Kind() == domain.ErrUnreachable {
		d := probe.Diagnose(ctx, *server)
		dns = &d
	}

	if *asJSON {
		_ = json.NewEncoder(stdout).Encode(map[string]any{"status": st, "dns": dns})
	} else {
		printStatus(stdout, st, dns)
	}
	if !st.Connected {
		return 1
	}
	return 0
}

func printStatus(w io.Writer, st domain.ConnectionStatus, dns *probe.DNSStatus) {
	if st.Connected {
		via := st.ViaPath
		if via == "" {
			via = "/"
		}
		fmt.Fprintf(w, "✔ connected to %s via %s in %.0f ms\n", st.ServerBase, via, *st.LatencyMS)
		return
	}
	fmt.Fprintf(w, "✖ no connection: %s\n", st.Err.Reason())
	if st.Err.Path != "" {
		fmt.Fprintf(w, "  last path: %s\n", st.Err.Path)
	}
	if dns != nil {
		line := "  dns: " + dns.Class
		if dns.ResolverError != "" {
			line += " (" + dns.ResolverError + ")"
		}
		if len(dns.Nameservers) > 0 {
			line += " ns=" + strings.Join(dns.Nameservers, ",")
		}
		fmt.Fprintln(w, line)
	}
}
