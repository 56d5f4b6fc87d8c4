package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/terminalmonitor/internal/config"
	"github.com/hamed0406/terminalmonitor/internal/domain"
	"github.com/hamed0406/terminalmonitor/internal/httpapi"
	apimw "github.com/hamed0406/terminalmonitor/internal/httpapi/middleware"
	"github.com/hamed0406/terminalmonitor/internal/logging"
	"github.com/hamed0406/terminalmonitor/internal/notify"
	"github.com/hamed0406/terminalmonitor/internal/probe"
	"github.com/hamed0406/terminalmonitor/internal/repo"
	"github.com/hamed0406/terminalmonitor/internal/repo/file"
	"github.com/hamed0406/terminalmonitor/internal/repo/memory"
	"github.com/hamed0406/terminalmonitor/internal/repo/postgres"
	"github.com/hamed0406/terminalmonitor/internal/scheduler"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settingsStore, alertStore, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store_open_failed", zap.Error(err))
	}
	defer closeStores()

	settings, err := loadSettings(ctx, cfg, settingsStore)
	if err != nil {
		logger.Fatal("settings_load_failed", zap.Error(err))
	}
	logger.Info("terminal_settings",
		zap.String("terminal_id", settings.ID),
		zap.String("name", settings.Name),
		zap.String("server", settings.ServerURL),
		zap.Bool("configured", settings.IsConfigured),
	)

	checker := probe.NewChecker(logger, probe.NewHTTPProbe(), cfg.HealthPaths, cfg.ProbeTimeout)
	sup := scheduler.NewSupervisor(logger, checker)
	defer sup.Stop()

	pres := notify.NewPresenter(logger, cfg.BannerAutoHide)
	defer pres.Close()
	sup.Subscribe(func(ev scheduler.Event) {
		if ev.Kind != scheduler.EventChange {
			return
		}
		pres.OnStatusChange(ev.Previous, ev.Current)
		if ev.Current.Kind() == domain.ErrUnreachable {
			go logDNS(ctx, logger, ev.Current.ServerBase)
		}
	})

	if slack := notify.NewSlack(cfg.SlackWebhook, settings.Name); slack != nil {
		notifiers := notify.Multi{notify.NewBreaker(logger, "slack", slack, 3, time.Minute)}
		alerter := scheduler.NewAlerter(logger, alertStore, notifiers, scheduler.AlerterConfig{
			AlertOnRecovery: cfg.AlertOnRecovery,
			Cooldown:        cfg.AlertCooldown,
			TerminalID:      settings.ID,
			Terminal:        settings.Name,
		})
		sup.Subscribe(alerter.Handle)
		go func() { _ = alerter.Run(ctx) }()
		logger.Info("alerts_enabled", zap.Duration("cooldown", cfg.AlertCooldown))
	}

	api := httpapi.NewServer(logger, sup, checker, pres, settingsStore, cfg.CheckInterval)
	defer api.Close()
	api.ApplySettings(*settings)

	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_listen_failed", zap.Error(err))
	}
	logger.Info("api_stopped")
}

// openStores picks Postgres when DATABASE_URL is set, then a settings file,
// then memory.
func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.SettingsStore, repo.AlertStore, func(), error) {
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, nil, err
		}
		logger.Info("store", zap.String("kind", "postgres"))
		return pg, pg, pg.Close, nil
	}

	mem := memory.New()
	if cfg.SettingsFile != "" {
		fs, err := file.New(cfg.SettingsFile)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("store", zap.String("kind", "file"), zap.String("path", fs.Path()))
		return fs, mem, func() {}, nil
	}
	logger.Info("store", zap.String("kind", "memory"))
	return mem, mem, func() {}, nil
}

// loadSettings returns the stored settings with environment overrides applied
// and persists them so the terminal id stays stable.
func loadSettings(ctx context.Context, cfg config.Config, store repo.SettingsStore) (*domain.TerminalSettings, error) {
	ts, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		ts = &domain.TerminalSettings{}
	}
	if cfg.ServerURL != "" {
		ts.ServerURL = cfg.ServerURL
		ts.IsConfigured = true
	}
	if cfg.TerminalName != "" {
		ts.Name = cfg.TerminalName
	}
	if cfg.TerminalLocation != "" {
		ts.Location = cfg.TerminalLocation
	}
	if err := store.Save(ctx, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

func logDNS(ctx context.Context, logger *zap.Logger, base string) {
	dns := probe.Diagnose(ctx, base)
	logger.Info("dns_check",
		zap.String("host", dns.Host),
		zap.String("class", dns.Class),
		zap.Int("ips", len(dns.IPs)),
		zap.Strings("nameservers", dns.Nameservers),
		zap.String("cname", dns.CNAME),
		zap.String("resolver_error", dns.ResolverError),
	)
}
