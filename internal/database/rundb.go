package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dcxsea/fieldreport/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "fieldreport.db"

// timeLayout stores start times with fixed width so that text order is
// time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// RunDB stores report runs and their deliveries.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the run database in dbDir.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

func (rdb *RunDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dataset TEXT NOT NULL,
		title TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		succeeded INTEGER NOT NULL,
		failed_steps INTEGER NOT NULL,
		findings INTEGER NOT NULL,
		run_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	CREATE TABLE IF NOT EXISTS deliveries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		channel TEXT NOT NULL,
		target TEXT NOT NULL,
		file TEXT NOT NULL,
		sent INTEGER NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_deliveries_run ON deliveries(run_id);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a finished run and its deliveries and returns the run ID.
func (rdb *RunDB) SaveRun(ctx context.Context, run *model.Run) (int64, error) {
	runJSON, err := json.Marshal(run)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize run: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after Commit

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (dataset, title, started_at, succeeded, failed_steps, findings, run_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.Dataset.Label,
		run.Dataset.Title,
		run.StartedAt.UTC().Format(timeLayout),
		run.Succeeded(),
		len(run.Failed()),
		len(run.Findings),
		string(runJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for _, d := range run.Deliveries {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO deliveries (run_id, channel, target, file, sent, error)
		VALUES (?, ?, ?, ?, ?, ?)
		`, id, d.Channel, d.Target, d.File, d.Sent, d.Error)
		if err != nil {
			return 0, fmt.Errorf("failed to save delivery: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// RunSummary is one row of the run history.
type RunSummary struct {
	ID          int64
	Dataset     string
	Title       string
	StartedAt   time.Time
	Succeeded   bool
	FailedSteps int
	Findings    int
}

// ListRuns returns the summaries of the runs of a dataset, newest first.
// An empty label returns runs of every dataset.
func (rdb *RunDB) ListRuns(ctx context.Context, dataset string, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, dataset, title, started_at, succeeded, failed_steps, findings
	FROM runs
	WHERE (? = '' OR dataset = ?)
	ORDER BY started_at DESC, id DESC
	`
	args := []any{dataset, dataset}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var started string
		if err := rows.Scan(&s.ID, &s.Dataset, &s.Title, &started, &s.Succeeded, &s.FailedSteps, &s.Findings); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.StartedAt = parseTimestamp(started)
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetRun returns the stored run with the given ID.
func (rdb *RunDB) GetRun(ctx context.Context, id int64) (*model.Run, error) {
	var runJSON string
	err := rdb.db.QueryRowContext(ctx, `SELECT run_json FROM runs WHERE id = ?`, id).Scan(&runJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return decodeRun(runJSON)
}

// LatestRun returns the most recent run of a dataset, or ErrRunNotFound.
func (rdb *RunDB) LatestRun(ctx context.Context, dataset string) (*model.Run, error) {
	var runJSON string
	err := rdb.db.QueryRowContext(ctx, `
	SELECT run_json FROM runs
	WHERE dataset = ?
	ORDER BY started_at DESC, id DESC
	LIMIT 1
	`, dataset).Scan(&runJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, dataset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return decodeRun(runJSON)
}

// ListDatasets returns the labels of every dataset with stored runs.
func (rdb *RunDB) ListDatasets(ctx context.Context) ([]string, error) {
	rows, err := rdb.db.QueryContext(ctx, `SELECT DISTINCT dataset FROM runs ORDER BY dataset`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// Deliveries returns the delivery attempts of a run in the order made.
func (rdb *RunDB) Deliveries(ctx context.Context, runID int64) ([]model.Delivery, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT channel, target, file, sent, COALESCE(error, '')
	FROM deliveries
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	defer rows.Close()

	var out []model.Delivery
	for rows.Next() {
		var d model.Delivery
		if err := rows.Scan(&d.Channel, &d.Target, &d.File, &d.Sent, &d.Error); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func decodeRun(runJSON string) (*model.Run, error) {
	var run model.Run
	if err := json.Unmarshal([]byte(runJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	if run.Digests == nil {
		run.Digests = make(map[string]string)
	}
	return &run, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses s with the first matching format. It returns the
// zero time when nothing matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
