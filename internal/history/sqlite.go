package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/tra-booker/internal/reservation"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the default journal: one local file in WAL mode.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// tsLayout is fixed-width so text order is time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		account     TEXT NOT NULL,
		origin      TEXT NOT NULL,
		destination TEXT NOT NULL,
		travel_date TEXT NOT NULL,
		train_no    TEXT NOT NULL,
		criteria    TEXT NOT NULL,
		started_at  TEXT NOT NULL,
		finished_at TEXT,
		result      TEXT NOT NULL DEFAULT 'running',
		seat        TEXT NOT NULL DEFAULT '',
		attempts    INTEGER NOT NULL DEFAULT 0,
		error       TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS attempts (
		run_id         TEXT NOT NULL REFERENCES runs(id),
		seq            INTEGER NOT NULL,
		outcome        TEXT NOT NULL,
		car            TEXT NOT NULL DEFAULT '',
		seat           INTEGER NOT NULL DEFAULT 0,
		reservation_id TEXT NOT NULL DEFAULT '',
		accepted       INTEGER NOT NULL DEFAULT 0,
		error          TEXT NOT NULL DEFAULT '',
		at             TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`)
	return err
}

func (s *SQLiteStore) StartRun(ctx context.Context, r Run) error {
	return retryOp(ctx, defaultRetryConfig, func() error {
		_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, account, origin, destination, travel_date, train_no, criteria, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Account, r.Origin, r.Destination, r.Date, r.TrainNo, r.Criteria, r.StartedAt.UTC().Format(tsLayout))
		return err
	})
}

func (s *SQLiteStore) RecordAttempt(ctx context.Context, a Attempt) error {
	return retryOp(ctx, defaultRetryConfig, func() error {
		_, err := s.db.ExecContext(ctx, `
		INSERT INTO attempts (run_id, seq, outcome, car, seat, reservation_id, accepted, error, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, seq) DO UPDATE SET
			outcome = excluded.outcome, car = excluded.car, seat = excluded.seat,
			reservation_id = excluded.reservation_id, accepted = excluded.accepted,
			error = excluded.error, at = excluded.at`,
			a.RunID, a.Seq, a.Outcome, a.Car, a.Seat, a.ReservationID, a.Accepted, a.Error, a.At.UTC().Format(tsLayout))
		return err
	})
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, res reservation.Result, at time.Time) error {
	return retryOp(ctx, defaultRetryConfig, func() error {
		r, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, result = ?, seat = ?, attempts = ?, error = ? WHERE id = ?`,
			at.UTC().Format(tsLayout), res.Kind.String(), seatText(res), res.Attempts, errText(res.Err), runID)
		if err != nil {
			return err
		}
		if n, _ := r.RowsAffected(); n == 0 {
			return fmt.Errorf("finish run %s: %w", runID, ErrUnknownRun)
		}
		return nil
	})
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, account, origin, destination, travel_date, train_no, criteria, started_at, finished_at,
	       result, seat, attempts, error
	FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Account, &r.Origin, &r.Destination, &r.Date, &r.TrainNo, &r.Criteria,
			&started, &finished, &r.Result, &r.Seat, &r.Attempts, &r.Error); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(tsLayout, started); err != nil {
			return nil, fmt.Errorf("run %s started_at: %w", r.ID, err)
		}
		if finished.Valid {
			ft, err := time.Parse(tsLayout, finished.String)
			if err != nil {
				return nil, fmt.Errorf("run %s finished_at: %w", r.ID, err)
			}
			r.FinishedAt = &ft
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
