// Package sqlitehistory persists run records in SQLite through the pure-Go
// modernc.org/sqlite driver, so the binary needs no cgo.
package sqlitehistory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/leofalp/uigen/core/retry"
	"github.com/leofalp/uigen/providers/history"
)

const defaultTableName = "uigen_runs"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store is a history.Provider backed by one SQLite table.
type Store struct {
	db        *sql.DB
	tableName string
	ownsDB    bool
}

var _ history.Provider = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithTableName overrides the table name. Only letters, digits and
// underscores are accepted since the name is interpolated into SQL.
func WithTableName(name string) Option {
	return func(s *Store) error {
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("sqlitehistory: invalid table name %q", name)
		}
		s.tableName = name
		return nil
	}
}

// Open opens (creating when needed) the database at path and ensures the
// schema. Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlitehistory: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitehistory: open database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlitehistory: set pragma: %w", err)
		}
	}

	store, err := New(ctx, db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.ownsDB = true
	return store, nil
}

// New wraps an existing database handle and ensures the schema. Close does
// not close a handle passed to New.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	store := &Store{db: db, tableName: defaultTableName}
	for _, opt := range opts {
		if err := opt(store); err != nil {
			return nil, err
		}
	}
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the table and its index when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			run_id     TEXT PRIMARY KEY,
			task       TEXT NOT NULL,
			prompt_key TEXT NOT NULL DEFAULT '',
			succeeded  INTEGER NOT NULL,
			state      TEXT NOT NULL,
			attempts   INTEGER NOT NULL,
			fix_rate   REAL,
			elapsed_ns INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			result     TEXT NOT NULL DEFAULT '{}'
		)`, s.tableName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_created ON %s (created_at DESC)`, s.tableName, s.tableName),
	}
	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("sqlitehistory: ensure schema: %w", err)
		}
	}
	return nil
}

// Close closes the database when the Store opened it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, record history.Record) error {
	if record.RunID == "" {
		return errors.New("sqlitehistory: save: empty run id")
	}

	result := []byte("{}")
	if record.Result != nil {
		encoded, err := json.Marshal(record.Result)
		if err != nil {
			return fmt.Errorf("sqlitehistory: encode result: %w", err)
		}
		result = encoded
	}

	var fixRate sql.NullFloat64
	if record.FixRate != nil {
		fixRate = sql.NullFloat64{Float64: *record.FixRate, Valid: true}
	}

	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s
		(run_id, task, prompt_key, succeeded, state, attempts, fix_rate, elapsed_ns, created_at, result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.tableName)
	_, err := s.db.ExecContext(ctx, query,
		record.RunID,
		record.Task,
		record.PromptKey,
		record.Succeeded,
		string(record.State),
		record.Attempts,
		fixRate,
		int64(record.Elapsed),
		record.CreatedAt.UnixNano(),
		string(result),
	)
	if err != nil {
		return fmt.Errorf("sqlitehistory: save %s: %w", record.RunID, err)
	}
	return nil
}

const selectColumns = `run_id, task, prompt_key, succeeded, state, attempts, fix_rate, elapsed_ns, created_at, result`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (history.Record, error) {
	var (
		record    history.Record
		state     string
		fixRate   sql.NullFloat64
		elapsed   int64
		createdAt int64
		result    string
	)
	if err := row.Scan(&record.RunID, &record.Task, &record.PromptKey, &record.Succeeded,
		&state, &record.Attempts, &fixRate, &elapsed, &createdAt, &result); err != nil {
		return history.Record{}, err
	}

	record.State = retry.State(state)
	record.Elapsed = time.Duration(elapsed)
	record.CreatedAt = time.Unix(0, createdAt).UTC()
	if fixRate.Valid {
		value := fixRate.Float64
		record.FixRate = &value
	}
	if result != "" && result != "{}" {
		var decoded retry.Result
		if err := json.Unmarshal([]byte(result), &decoded); err != nil {
			return history.Record{}, fmt.Errorf("decode result: %w", err)
		}
		record.Result = &decoded
	}
	return record, nil
}

func (s *Store) Get(ctx context.Context, runID string) (*history.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE run_id = ?`, selectColumns, s.tableName)
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", history.ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlitehistory: get %s: %w", runID, err)
	}
	return &record, nil
}

// List returns matching records newest first, ties broken by run id.
func (s *Store) List(ctx context.Context, filter history.Filter) ([]history.Record, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Succeeded != nil {
		conditions = append(conditions, "succeeded = ?")
		args = append(args, *filter.Succeeded)
	}
	if filter.State != "" {
		conditions = append(conditions, "state = ?")
		args = append(args, string(filter.State))
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, selectColumns, s.tableName)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, run_id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitehistory: list: %w", err)
	}
	defer rows.Close()

	records := []history.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlitehistory: list: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitehistory: list: %w", err)
	}
	return records, nil
}

// Stats aggregates in SQL. AVG skips NULL fix rates.
func (s *Store) Stats(ctx context.Context) (history.Stats, error) {
	query := fmt.Sprintf(`SELECT COUNT(*), COALESCE(SUM(succeeded), 0), COALESCE(AVG(attempts), 0), AVG(fix_rate) FROM %s`, s.tableName)

	var (
		stats   history.Stats
		fixRate sql.NullFloat64
	)
	if err := s.db.QueryRowContext(ctx, query).Scan(&stats.Runs, &stats.Succeeded, &stats.AverageAttempts, &fixRate); err != nil {
		return history.Stats{}, fmt.Errorf("sqlitehistory: stats: %w", err)
	}
	if fixRate.Valid {
		value := fixRate.Float64
		stats.AverageFixRate = &value
	}
	return stats, nil
}
