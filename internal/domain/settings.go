package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TerminalSettings is the locally stored terminal configuration.
// ServerURL is mutable at runtime; empty means "not configured yet".
type TerminalSettings struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Location     string    `json:"location" yaml:"location"`
	ServerURL    string    `json:"server_url" yaml:"server_url"`
	IsConfigured bool      `json:"is_configured" yaml:"is_configured"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}

// NewTerminalID returns an id of the form TERMINAL_1A2B3C4D.
func NewTerminalID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TERMINAL_" + strings.ToUpper(raw[:8])
}

// Normalize trims user input and fills the id when missing.
func (s *TerminalSettings) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Location = strings.TrimSpace(s.Location)
	s.ServerURL = strings.TrimSpace(s.ServerURL)
	if s.ID == "" {
		s.ID = NewTerminalID()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
}
