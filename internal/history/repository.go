package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Brad-K99/EventCounterForRC/internal/scanner"
)

// timeLayout sorts lexically in the same order as the times it encodes.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Page size bounds for List.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// Run is one recorded scan.
type Run struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"device_id"`
	LogPath    string    `json:"log_path"`
	Status     string    `json:"status"`
	Count      int       `json:"count"`
	Lines      int       `json:"lines"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// FromResult converts a scan result into a Run.
func FromResult(res scanner.Result) Run {
	run := Run{
		ID:         res.RunID,
		DeviceID:   res.DeviceID,
		LogPath:    res.Path,
		Status:     res.Status(),
		Count:      res.Count,
		Lines:      res.Lines,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	if res.Err != nil {
		run.Error = res.Err.Error()
	}
	return run
}

// Filter controls which runs List returns.
type Filter struct {
	DeviceID string // optional
	Status   string // optional: ok, failed, aborted
	Limit    int    // default 50, max 200
	Offset   int
}

// ListResult contains a page of runs, most recent first.
type ListResult struct {
	Runs   []Run `json:"runs"`
	Total  int   `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// Repository defines the scan history operations.
type Repository interface {
	Create(ctx context.Context, run *Run) error
	GetByID(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores scan runs in the scan_runs table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new scan history repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts run. FinishedAt defaults to now and StartedAt to FinishedAt.
func (r *SQLiteRepository) Create(ctx context.Context, run *Run) error {
	if run.ID == "" {
		return ErrMissingID
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scan_runs (id, device_id, log_path, status, count, lines, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.DeviceID, run.LogPath, run.Status,
		run.Count, run.Lines, nullableString(run.Error),
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting scan run: %w", err)
	}
	return nil
}

// HandleResult records a finished scan.
func (r *SQLiteRepository) HandleResult(ctx context.Context, res scanner.Result) error {
	run := FromResult(res)
	return r.Create(ctx, &run)
}

// nullableString returns nil for empty strings so the column stores NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

const selectColumns = "id, device_id, log_path, status, count, lines, error, started_at, finished_at"

// GetByID returns one run or ErrRunNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM scan_runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns runs matching filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.DeviceID != "" {
		conditions = append(conditions, "device_id = ?")
		args = append(args, filter.DeviceID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM scan_runs " + where //nolint:gosec // WHERE built from parameterised conditions
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting scan runs: %w", err)
	}

	query := "SELECT " + selectColumns + " FROM scan_runs " + where + //nolint:gosec // WHERE built from parameterised conditions
		" ORDER BY started_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scan runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scan runs: %w", err)
	}

	return &ListResult{
		Runs:   runs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var errText sql.NullString
	var startedAt, finishedAt string

	if err := row.Scan(&run.ID, &run.DeviceID, &run.LogPath, &run.Status,
		&run.Count, &run.Lines, &errText, &startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning scan run: %w", err)
	}

	if errText.Valid {
		run.Error = errText.String
	}

	var err error
	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
		return nil, fmt.Errorf("parsing finished_at %q: %w", finishedAt, err)
	}

	return &run, nil
}
