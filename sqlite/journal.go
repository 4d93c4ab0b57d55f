package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/locmirror"
	"github.com/google/uuid"
)

// DefaultJournalBuffer is the number of attempts queued before new ones are discarded.
const DefaultJournalBuffer = 4096

// Compile-time interface verification.
var _ locmirror.AttemptObserver = (*Journal)(nil)

// Run is one recorded mirror run.
type Run struct {
	ID        string
	RootURL   string
	StartedAt time.Time
}

// AttemptRecord is one stored gate attempt.
type AttemptRecord struct {
	RunID       string
	URL         string
	Kind        string
	Number      int
	Outcome     string
	StatusCode  int
	Error       string
	ContentHash string
	Bytes       int
	StartedAt   time.Time
	Duration    time.Duration
}

// AttemptFilter selects stored attempts. Zero fields match everything.
type AttemptFilter struct {
	RunID   string
	URL     string
	Outcome string
	Limit   int
	Offset  int
}

// Journal records every gate attempt of one run.
//
// ObserveAttempt only queues the attempt; a single writer goroutine inserts
// queued attempts in order. When the queue is full the attempt is discarded
// and counted in Discarded, so the gate never waits on the database.
// The journal is write-only from the mirror's point of view.
type Journal struct {
	db  *DB
	run Run

	mu     sync.RWMutex
	closed bool
	queue  chan locmirror.Attempt
	done   chan struct{}

	discarded atomic.Int64
	err       error
}

// NewJournal records a new run for rootURL and starts the writer.
func NewJournal(ctx context.Context, db *DB, rootURL string) (*Journal, error) {
	if rootURL == "" {
		return nil, locmirror.Errorf(locmirror.EINVALID, "root URL required")
	}

	run := Run{
		ID:        uuid.New().String(),
		RootURL:   rootURL,
		StartedAt: time.Now().UTC(),
	}
	if _, err := db.ExecContext(ctx, `
		INSERT INTO runs (id, root_url, started_at)
		VALUES (?, ?, ?)
	`, run.ID, run.RootURL, run.StartedAt.Format(timeFormat)); err != nil {
		return nil, err
	}

	j := &Journal{
		db:    db,
		run:   run,
		queue: make(chan locmirror.Attempt, DefaultJournalBuffer),
		done:  make(chan struct{}),
	}
	go j.write()
	return j, nil
}

// RunID returns the identifier of the journal's run.
func (j *Journal) RunID() string {
	return j.run.ID
}

// ObserveAttempt queues a for writing.
func (j *Journal) ObserveAttempt(a locmirror.Attempt) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return
	}
	select {
	case j.queue <- a:
	default:
		j.discarded.Add(1)
	}
}

// Discarded returns the number of attempts dropped because the queue was full.
func (j *Journal) Discarded() int64 {
	return j.discarded.Load()
}

// Close stops accepting attempts, waits for queued ones to be written,
// and returns the first write error.
func (j *Journal) Close() error {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.queue)
	}
	j.mu.Unlock()

	<-j.done
	return j.err
}

func (j *Journal) write() {
	defer close(j.done)
	for a := range j.queue {
		if err := j.insert(context.Background(), a); err != nil && j.err == nil {
			j.err = err
		}
	}
}

func (j *Journal) insert(ctx context.Context, a locmirror.Attempt) error {
	var errText, hash string
	if a.Err != nil {
		errText = a.Err.Error()
	}
	if a.Outcome == locmirror.OutcomeSuccess {
		hash = hashContent(a.Body)
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO attempts (run_id, url, kind, number, outcome, status_code, error, content_hash, bytes, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.run.ID, a.Target.URL, a.Target.Kind.String(), a.Number, a.Outcome.String(), a.StatusCode,
		errText, hash, len(a.Body), a.Started.UTC().Format(timeFormat), a.Duration.Milliseconds())
	return err
}

// FindRunByID retrieves a run by ID.
func FindRunByID(ctx context.Context, db *DB, id string) (*Run, error) {
	var run Run
	var startedAt string

	err := db.QueryRowContext(ctx, `
		SELECT id, root_url, started_at
		FROM runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.RootURL, &startedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, locmirror.Errorf(locmirror.ENOTFOUND, "run not found")
	}
	if err != nil {
		return nil, err
	}

	run.StartedAt, err = parseTime(startedAt, "started_at")
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// FindAttempts retrieves stored attempts matching filter in insertion order.
func FindAttempts(ctx context.Context, db *DB, filter AttemptFilter) ([]*AttemptRecord, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`
		SELECT run_id, url, kind, number, outcome, status_code, error, content_hash, bytes, started_at, duration_ms
		FROM attempts
		WHERE 1=1
	`)
	if filter.RunID != "" {
		query.WriteString(" AND run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.URL != "" {
		query.WriteString(" AND url = ?")
		args = append(args, filter.URL)
	}
	if filter.Outcome != "" {
		query.WriteString(" AND outcome = ?")
		args = append(args, filter.Outcome)
	}
	query.WriteString(" ORDER BY id")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*AttemptRecord
	for rows.Next() {
		var r AttemptRecord
		var startedAt string
		var durationMS int64
		if err := rows.Scan(&r.RunID, &r.URL, &r.Kind, &r.Number, &r.Outcome, &r.StatusCode,
			&r.Error, &r.ContentHash, &r.Bytes, &startedAt, &durationMS); err != nil {
			return nil, err
		}
		if r.StartedAt, err = parseTime(startedAt, "started_at"); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, &r)
	}
	return records, rows.Err()
}
