package repo_test

import (
	"testing"

	"github.com/hamed0406/terminalmonitor/internal/repo"
	"github.com/hamed0406/terminalmonitor/internal/repo/file"
	"github.com/hamed0406/terminalmonitor/internal/repo/memory"
	pg "github.com/hamed0406/terminalmonitor/internal/repo/postgres"
)

// Compile-time interface satisfaction checks.
// Using external test package avoids import cycle.
func TestInterfaceSatisfaction(t *testing.T) {
	var _ repo.SettingsStore = memory.New()
	var _ repo.AlertStore = memory.New()
	var _ repo.SettingsStore = (*file.Store)(nil)

	// Postgres store types compile against the interfaces, too.
	var _ repo.SettingsStore = (*pg.Store)(nil)
	var _ repo.AlertStore = (*pg.Store)(nil)
}
