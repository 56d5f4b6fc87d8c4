package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// Role is the access level an API key grants.
type Role int

const (
	RoleNone Role = iota
	// RoleViewer is the kiosk UI: status, manual checks, banners, events.
	RoleViewer
	// RoleAdmin is the technician: settings and the path cache.
	RoleAdmin
)

// Keys holds the configured API keys. Admin keys also grant viewer access.
type Keys struct {
	Public []string
	Admin  []string
}

func (k Keys) roleOf(key string) Role {
	switch {
	case key == "":
		return RoleNone
	case matches(key, k.Admin):
		return RoleAdmin
	case matches(key, k.Public):
		return RoleViewer
	}
	return RoleNone
}

// enforced is false when no key could grant min, which leaves the routes
// open for a terminal set up without keys.
func (k Keys) enforced(min Role) bool {
	if min == RoleAdmin {
		return len(k.Admin) > 0
	}
	return len(k.Public) > 0 || len(k.Admin) > 0
}

func matches(given string, set []string) bool {
	for _, k := range set {
		if subtle.ConstantTimeCompare([]byte(k), []byte(given)) == 1 {
			return true
		}
	}
	return false
}

// credential reads the key from "Authorization: Bearer", then X-API-Key.
// A websocket handshake from the kiosk browser cannot set headers, so it may
// pass the key as ?api_key= instead.
func credential(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if k := strings.TrimSpace(r.Header.Get("X-API-Key")); k != "" {
		return k
	}
	if websocket.IsWebSocketUpgrade(r) {
		return strings.TrimSpace(r.URL.Query().Get("api_key"))
	}
	return ""
}

// RequireAny admits the kiosk and technicians.
func RequireAny(keys Keys) func(http.Handler) http.Handler {
	return require(keys, RoleViewer)
}

// RequireAdmin admits technicians only. A valid kiosk key gets 403.
func RequireAdmin(keys Keys) func(http.Handler) http.Handler {
	return require(keys, RoleAdmin)
}

func require(keys Keys, min Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !keys.enforced(min) {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch role := keys.roleOf(credential(r)); {
			case role >= min:
				next.ServeHTTP(w, r)
			case role == RoleNone:
				deny(w, http.StatusUnauthorized, "unauthorized")
			default:
				deny(w, http.StatusForbidden, "forbidden")
			}
		})
	}
}

func deny(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
