package testsupport

import (
	"testing"

	"pulse/internal/adapters/config"
	"pulse/internal/adapters/postgres"
)

// NewTestPostgres opens a client against the database configured in the
// environment (or .env). Integration tests are skipped when no database is
// configured or reachable, and in -short mode.
func NewTestPostgres(t *testing.T) *postgres.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Skipf("Postgres not configured: %v", err)
	}

	client, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		t.Skipf("Postgres not reachable: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}
