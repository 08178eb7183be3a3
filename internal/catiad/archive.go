package catiad

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/GoSim-25-26J-441/catia-bridge/pkg/models"
)

// Archive persists finished evaluations to a sqlite file so history
// survives daemon restarts. The in-memory store stays authoritative
// for live records; the archive only sees terminal ones.
type Archive struct {
	db *sql.DB
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS evaluations (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL,
	inputs      TEXT NOT NULL,
	outputs     TEXT NOT NULL,
	error       TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	duration_ms REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at);
`

// OpenArchive opens or creates the archive database at path
func OpenArchive(path string) (*Archive, error) {
	if path == "" {
		return nil, errors.New("archive path is required")
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save upserts one evaluation. Timestamps are stored as unix
// milliseconds; a zero time stores as 0.
func (a *Archive) Save(ctx context.Context, ev *models.Evaluation) error {
	if ev == nil || ev.ID == "" {
		return errors.New("evaluation id is required")
	}

	inputs, err := json.Marshal(ev.Inputs)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}
	outputs, err := json.Marshal(ev.Outputs)
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}

	query := `
INSERT INTO evaluations (id, status, inputs, outputs, error, created_at, started_at, finished_at, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	status = excluded.status,
	inputs = excluded.inputs,
	outputs = excluded.outputs,
	error = excluded.error,
	created_at = excluded.created_at,
	started_at = excluded.started_at,
	finished_at = excluded.finished_at,
	duration_ms = excluded.duration_ms`

	_, err = a.db.ExecContext(ctx, query,
		ev.ID,
		string(ev.Status),
		string(inputs),
		string(outputs),
		ev.Error,
		toMillis(ev.CreatedAt),
		toMillis(ev.StartedAt),
		toMillis(ev.FinishedAt),
		ev.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("save evaluation %s: %w", ev.ID, err)
	}
	return nil
}

// Recent returns the newest archived evaluations. A non-positive limit
// means the default of 50.
func (a *Archive) Recent(ctx context.Context, limit int) ([]*models.Evaluation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
SELECT id, status, inputs, outputs, error, created_at, started_at, finished_at, duration_ms
FROM evaluations
ORDER BY created_at DESC, id DESC
LIMIT ?`

	rows, err := a.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	var out []*models.Evaluation
	for rows.Next() {
		ev, err := scanEvaluation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive: %w", err)
	}
	return out, nil
}

type scanner func(dest ...any) error

func scanEvaluation(scan scanner) (*models.Evaluation, error) {
	var (
		ev         models.Evaluation
		status     string
		inputs     string
		outputs    string
		createdMs  int64
		startedMs  int64
		finishedMs int64
	)
	err := scan(&ev.ID, &status, &inputs, &outputs, &ev.Error, &createdMs, &startedMs, &finishedMs, &ev.DurationMS)
	if err != nil {
		return nil, fmt.Errorf("scan evaluation: %w", err)
	}

	ev.Status = models.EvalStatus(status)
	if err := json.Unmarshal([]byte(inputs), &ev.Inputs); err != nil {
		return nil, fmt.Errorf("unmarshal inputs for %s: %w", ev.ID, err)
	}
	if err := json.Unmarshal([]byte(outputs), &ev.Outputs); err != nil {
		return nil, fmt.Errorf("unmarshal outputs for %s: %w", ev.ID, err)
	}
	ev.CreatedAt = fromMillis(createdMs)
	ev.StartedAt = fromMillis(startedMs)
	ev.FinishedAt = fromMillis(finishedMs)
	return &ev, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
