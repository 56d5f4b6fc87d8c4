package domain

import (
	"fmt"
	"time"
)

// ErrorKind classifies why a connectivity check did not succeed.
type ErrorKind string

const (
	ErrNotConfigured    ErrorKind = "not_configured"
	ErrTimeout          ErrorKind = "timeout"
	ErrUnreachable      ErrorKind = "unreachable"
	ErrUnexpectedStatus ErrorKind = "unexpected_status"
	ErrSoftNotFound     ErrorKind = "soft_not_found"
)

// CheckError is the failure half of a ConnectionStatus.
// StatusCode is set only for ErrUnexpectedStatus and ErrSoftNotFound.
type CheckError struct {
	Kind       ErrorKind `json:"kind"`
	StatusCode int       `json:"status_code,omitempty"`
	Path       string    `json:"path"`
}

func (e *CheckError) Error() string {
	switch e.Kind {
	case ErrUnexpectedStatus:
		return fmt.Sprintf("%s(%d)", e.Kind, e.StatusCode)
	case ErrSoftNotFound:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Path)
	default:
		return string(e.Kind)
	}
}

// Reason is the human-readable text shown to terminal users.
// Raw transport errors never reach it.
func (e *CheckError) Reason() string {
	switch e.Kind {
	case ErrNotConfigured:
		return "server address not configured"
	case ErrTimeout:
		return "server did not respond in time"
	case ErrUnreachable:
		return "server unreachable"
	case ErrUnexpectedStatus:
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	case ErrSoftNotFound:
		return fmt.Sprintf("endpoint %s not available", e.Path)
	default:
		return "unknown error"
	}
}

// ConnectionStatus is recreated on every check.
//
// Connected is true iff Err is nil iff LatencyMS is non-nil.
type ConnectionStatus struct {
	Connected  bool        `json:"connected"`
	ServerBase string      `json:"server_base,omitempty"` // empty when not configured
	LatencyMS  *float64    `json:"latency_ms"`            // pointer to allow nil
	Err        *CheckError `json:"error"`
	CheckedAt  time.Time   `json:"checked_at"`
	ViaPath    string      `json:"via_path"` // "" is the base address itself
}

// Kind returns the error kind, or "" when connected.
func (s ConnectionStatus) Kind() ErrorKind {
	if s.Err == nil {
		return ""
	}
	return s.Err.Kind
}

func Connected(base, path string, latency time.Duration, at time.Time) ConnectionStatus {
	ms := float64(latency) / float64(time.Millisecond)
	return ConnectionStatus{
		Connected:  true,
		ServerBase: base,
		LatencyMS:  &ms,
		CheckedAt:  at,
		ViaPath:    path,
	}
}

func Disconnected(base string, err *CheckError, at time.Time) ConnectionStatus {
	return ConnectionStatus{
		ServerBase: base,
		Err:        err,
		CheckedAt:  at,
		ViaPath:    err.Path,
	}
}
