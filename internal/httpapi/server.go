package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/terminalmonitor/internal/domain"
	apimw "github.com/hamed0406/terminalmonitor/internal/httpapi/middleware"
	"github.com/hamed0406/terminalmonitor/internal/notify"
	"github.com/hamed0406/terminalmonitor/internal/repo"
	"github.com/hamed0406/terminalmonitor/internal/scheduler"
)

// Supervisor is the part of scheduler.Supervisor the API drives.
type Supervisor interface {
	Start(baseAddress string, interval time.Duration)
	Stop()
	Unconfigure()
	CheckNow(ctx context.Context) (domain.ConnectionStatus, bool)
	ResetCache()
	Status() (domain.ConnectionStatus, bool)
	State() scheduler.State
	Address() string
	Subscribe(fn scheduler.Listener) func()
}

// PathCache exposes the checker's last working path for an address.
type PathCache interface {
	LastWorkingPathFor(baseAddress string) (string, bool)
}

type Server struct {
	Logger     *zap.Logger
	Supervisor Supervisor
	Paths      PathCache // optional
	Presenter  *notify.Presenter
	Settings   repo.SettingsStore
	Interval   time.Duration

	hub            *hub
	unsubscribe    func()
	allowedOrigins []string
}

func NewServer(l *zap.Logger, sup Supervisor, paths PathCache, pres *notify.Presenter, settings repo.SettingsStore, interval time.Duration) *Server {
	s := &Server{
		Logger:     l,
		Supervisor: sup,
		Paths:      paths,
		Presenter:  pres,
		Settings:   settings,
		Interval:   interval,
		hub:        newHub(),
	}
	s.unsubscribe = sup.Subscribe(s.hub.publish)
	return s
}

// Close detaches the event stream from the supervisor.
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.closeAll()
}

func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	s.allowedOrigins = allowedOrigins

	r := chi.NewRouter()
	if len(allowedOrigins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(pubRPM, pubBurst))
		r.Use(apimw.RequireAny(keys))

		r.Get("/api/status", s.handleStatus)
		r.Post("/api/status/check", s.handleCheckNow)
		r.Get("/api/banner", s.handleBanner)
		r.Post("/api/banner/{id}/dismiss", s.handleDismiss)
		r.Get("/api/settings", s.handleGetSettings)
		r.Get("/api/events", s.handleEvents)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(admRPM, admBurst))
		r.Use(apimw.RequireAdmin(keys))

		r.Post("/api/status/cache/reset", s.handleResetCache)
		r.Put("/api/settings", s.handlePutSettings)
	})

	return r
}

type statusResponse struct {
	State  string                   `json:"state"`
	Server string                   `json:"server"`
	Status *domain.ConnectionStatus `json:"status"`
	// ActionEnabled gates the terminal's primary action.
	ActionEnabled bool    `json:"action_enabled"`
	CachedPath    *string `json:"cached_path"`
}

func (s *Server) snapshot() statusResponse {
	out := statusResponse{
		State:  s.Supervisor.State().String(),
		Server: s.Supervisor.Address(),
	}
	if st, ok := s.Supervisor.Status(); ok {
		out.Status = &st
		out.ActionEnabled = st.Connected
	}
	if s.Paths != nil && out.Server != "" {
		if p, ok := s.Paths.LastWorkingPathFor(out.Server); ok {
			out.CachedPath = &p
		}
	}
	return out
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleCheckNow(w http.ResponseWriter, r *http.Request) {
	st, ok := s.Supervisor.CheckNow(r.Context())
	if !ok {
		writeError(w, http.StatusConflict, "check already running or monitor stopped")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleResetCache(w http.ResponseWriter, r *http.Request) {
	s.Supervisor.ResetCache()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	b, ok := s.Presenter.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad banner id")
		return
	}
	if !s.Presenter.Dismiss(id) {
		writeError(w, http.StatusNotFound, "banner not visible")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Settings.Load(r.Context())
	if err != nil {
		s.Logger.Error("settings_load_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load settings")
		return
	}
	if ts == nil {
		ts = &domain.TerminalSettings{}
	}
	writeJSON(w, http.StatusOK, ts)
}

type settingsPayload struct {
	Name      *string `json:"name"`
	Location  *string `json:"location"`
	ServerURL *string `json:"server_url"`
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var p settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}

	prev, err := s.Settings.Load(r.Context())
	if err != nil {
		s.Logger.Error("settings_load_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load settings")
		return
	}
	next := domain.TerminalSettings{}
	if prev != nil {
		next = *prev
	}
	if p.Name != nil {
		next.Name = *p.Name
	}
	if p.Location != nil {
		next.Location = *p.Location
	}
	if p.ServerURL != nil {
		u := strings.TrimSpace(*p.ServerURL)
		if u != "" {
			if !isValidHTTPURL(u) {
				writeError(w, http.StatusBadRequest, "server_url must be an http(s) URL")
				return
			}
			u = normalizeHTTPURL(u)
		}
		next.ServerURL = u
	}
	next.IsConfigured = strings.TrimSpace(next.ServerURL) != ""
	next.UpdatedAt = time.Now().UTC()

	if err := s.Settings.Save(r.Context(), &next); err != nil {
		s.Logger.Error("settings_save_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not save settings")
		return
	}
	s.Logger.Info("settings_updated",
		zap.String("terminal_id", next.ID),
		zap.String("server", next.ServerURL),
	)
	s.ApplySettings(next)
	writeJSON(w, http.StatusOK, next)
}

// ApplySettings points the supervisor at the configured server. An empty
// address stops polling and reports NotConfigured. An unconfigured terminal
// gets a warning banner.
func (s *Server) ApplySettings(ts domain.TerminalSettings) {
	if ts.ServerURL == "" {
		s.Supervisor.Unconfigure()
		s.Presenter.Show(notify.NotConfiguredBanner())
		return
	}
	if !ts.IsConfigured {
		s.Presenter.Show(notify.NotConfiguredBanner())
	}
	if s.Supervisor.State() == scheduler.StateStopped || s.Supervisor.Address() != ts.ServerURL {
		s.Supervisor.Start(ts.ServerURL, s.Interval)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func isValidHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != "" && u.Hostname() != ""
}

// normalizeHTTPURL lowercases scheme and host, drops default ports and a bare
// trailing slash.
func normalizeHTTPURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	switch {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}
	if u.Path == "/" {
		u.Path = ""
	}
	return u.String()
}
