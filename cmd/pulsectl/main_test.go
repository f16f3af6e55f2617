package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func writeConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`database:
  driver: sqlite
  dsn: %s
auth:
  bcrypt_cost: 4
log:
  level: error
`, filepath.Join(dir, "pulse.db")+"?_foreign_keys=on")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// mustRun executes cmd and checks its output mentions want.
func mustRun(t *testing.T, cmd *cobra.Command, want string, args ...string) {
	t.Helper()
	out, err := run(t, cmd, args...)
	if err != nil {
		t.Fatalf("%s %v: %v", cmd.Name(), args, err)
	}
	if !strings.Contains(out, want) {
		t.Errorf("%s output = %q, expected it to contain %q", cmd.Name(), out, want)
	}
}

func TestMigrateAndCreateAdmin(t *testing.T) {
	writeConfig(t)

	mustRun(t, migrateCmd(), "Migrated sqlite database")
	mustRun(t, createAdminCmd(), `Created admin "ops"`,
		"--username", "ops", "--password", "Ops#Pass1", "--email", "ops@gmail.com")

	_, err := run(t, createAdminCmd(), "--username", "ops", "--password", "Ops#Pass1", "--email", "ops@gmail.com")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second create-admin error = %v, expected already exists", err)
	}
}

func TestCreateAdminRequiresFlags(t *testing.T) {
	writeConfig(t)

	_, err := run(t, createAdminCmd(), "--username", "ops")
	if err == nil || !strings.Contains(err.Error(), "required flag") {
		t.Errorf("error = %v, expected required flag", err)
	}
}

func TestInstallGuards(t *testing.T) {
	writeConfig(t)

	mustRun(t, migrateCmd(), "Migrated")
	mustRun(t, installGuardsCmd(), "delete guarded: true", "--guard-delete")
	mustRun(t, installGuardsCmd(), "delete guarded: false")
}
