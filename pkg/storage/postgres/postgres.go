// Package postgres provides a PostgreSQL implementation of storage.RunStore.
// It uses pgx/v5 for connection pooling and JSONB for logprob storage.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/probelab/logprobe/pkg/api"
	"github.com/probelab/logprobe/pkg/storage"
)

// Store is a PostgreSQL-backed RunStore.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.RunStore at compile time.
var _ storage.RunStore = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// SaveRun persists a probe run.
func (s *Store) SaveRun(ctx context.Context, run *storage.ProbeRun) error {
	var failuresJSON []byte
	if len(run.Failures) > 0 {
		b, err := json.Marshal(run.Failures)
		if err != nil {
			return fmt.Errorf("marshaling failures: %w", err)
		}
		failuresJSON = b
	}

	var logprobsJSON []byte
	if len(run.Logprobs) > 0 {
		b, err := json.Marshal(run.Logprobs)
		if err != nil {
			return fmt.Errorf("marshaling logprobs: %w", err)
		}
		logprobsJSON = b
	}

	var usageIn, usageOut, usageTotal int
	if run.Usage != nil {
		usageIn = run.Usage.InputTokens
		usageOut = run.Usage.OutputTokens
		usageTotal = run.Usage.TotalTokens
	}

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO probe_runs (
			id, mode, model, base_url, response_id,
			passed, failures, output_text,
			token_count, mean_logprob, perplexity, logprobs,
			usage_input_tokens, usage_output_tokens, usage_total_tokens,
			duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		run.ID, run.Mode, run.Model, run.BaseURL, nullString(run.ResponseID),
		run.Passed, nullJSON(failuresJSON), run.OutputText,
		run.TokenCount, run.MeanLogprob, run.Perplexity, nullJSON(logprobsJSON),
		usageIn, usageOut, usageTotal,
		run.DurationMs, createdAt,
	)

	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting probe run: %w", err)
	}

	return nil
}

// GetRun retrieves a probe run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*storage.ProbeRun, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, mode, model, base_url, response_id,
		       passed, failures, output_text,
		       token_count, mean_logprob, perplexity, logprobs,
		       usage_input_tokens, usage_output_tokens, usage_total_tokens,
		       duration_ms, created_at
		FROM probe_runs
		WHERE id = $1
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying probe run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs matching the options, newest first.
func (s *Store) ListRuns(ctx context.Context, opts storage.ListOptions) ([]*storage.ProbeRun, error) {
	query := `
		SELECT id, mode, model, base_url, response_id,
		       passed, failures, output_text,
		       token_count, mean_logprob, perplexity, logprobs,
		       usage_input_tokens, usage_output_tokens, usage_total_tokens,
		       duration_ms, created_at
		FROM probe_runs
	`
	var conds []string
	var args []any

	if opts.Model != "" {
		args = append(args, opts.Model)
		conds = append(conds, fmt.Sprintf("model = $%d", len(args)))
	}
	if opts.Mode != "" {
		args = append(args, opts.Mode)
		conds = append(conds, fmt.Sprintf("mode = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	args = append(args, storage.ClampLimit(opts.Limit))
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing probe runs: %w", err)
	}
	defer rows.Close()

	runs := []*storage.ProbeRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning probe run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating probe runs: %w", err)
	}

	return runs, nil
}

// DeleteRun removes a probe run.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM probe_runs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting probe run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// scanRun reads one probe_runs row into a ProbeRun.
func scanRun(row pgx.Row) (*storage.ProbeRun, error) {
	var run storage.ProbeRun
	var responseID *string
	var failuresJSON, logprobsJSON *[]byte
	var usageIn, usageOut, usageTotal int

	err := row.Scan(
		&run.ID, &run.Mode, &run.Model, &run.BaseURL, &responseID,
		&run.Passed, &failuresJSON, &run.OutputText,
		&run.TokenCount, &run.MeanLogprob, &run.Perplexity, &logprobsJSON,
		&usageIn, &usageOut, &usageTotal,
		&run.DurationMs, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if responseID != nil {
		run.ResponseID = *responseID
	}
	if failuresJSON != nil {
		if err := json.Unmarshal(*failuresJSON, &run.Failures); err != nil {
			return nil, fmt.Errorf("unmarshaling failures: %w", err)
		}
	}
	if logprobsJSON != nil {
		if err := json.Unmarshal(*logprobsJSON, &run.Logprobs); err != nil {
			return nil, fmt.Errorf("unmarshaling logprobs: %w", err)
		}
	}
	if usageIn != 0 || usageOut != 0 || usageTotal != 0 {
		run.Usage = &api.Usage{
			InputTokens:  usageIn,
			OutputTokens: usageOut,
			TotalTokens:  usageTotal,
		}
	}

	return &run, nil
}

// nullString converts an empty string to nil for nullable TEXT columns.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullJSON converts nil/empty byte slices to nil for nullable JSONB columns.
func nullJSON(b []byte) *[]byte {
	if len(b) == 0 {
		return nil
	}
	return &b
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
