package postgres

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrationNames lists the schema migrations in order. The slice index
// plus one is the version recorded in schema_migrations; append here to
// add a migration.
var migrationNames = []string{
	"001_create_probe_runs.sql",
}

// migrate applies pending schema migrations. The first migration creates
// the schema_migrations table, so the version lookup is allowed to fail
// before it has run.
func (s *Store) migrate(ctx context.Context) error {
	for i, name := range migrationNames {
		version := i + 1

		var exists bool
		err := s.pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			version,
		).Scan(&exists)
		if err != nil {
			exists = false
		}
		if exists {
			continue
		}

		content, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		slog.Info("applying migration", "file", name, "version", version)

		if _, err := s.pool.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx,
			"INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING",
			version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}
