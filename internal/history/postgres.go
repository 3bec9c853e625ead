package history

import (
	"context"
	"fmt"
	"time"

	"github.com/example/tra-booker/internal/db"
	"github.com/example/tra-booker/internal/migrate"
	"github.com/example/tra-booker/internal/reservation"
)

// PostgresStore journals into a shared database so runs from several hosts
// can be listed together.
type PostgresStore struct {
	db *db.DB
}

func OpenPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	d, err := db.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := migrate.Up(ctx, d); err != nil {
		d.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &PostgresStore{db: d}, nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PostgresStore) StartRun(ctx context.Context, r Run) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO runs(id,account,origin,destination,travel_date,train_no,criteria,started_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID, r.Account, r.Origin, r.Destination, r.Date, r.TrainNo, r.Criteria, r.StartedAt)
	return db.WrapNotFound(err)
}

func (s *PostgresStore) RecordAttempt(ctx context.Context, a Attempt) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO attempts(run_id,seq,outcome,car,seat,reservation_id,accepted,error,at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (run_id,seq) DO UPDATE SET
  outcome=EXCLUDED.outcome, car=EXCLUDED.car, seat=EXCLUDED.seat,
  reservation_id=EXCLUDED.reservation_id, accepted=EXCLUDED.accepted,
  error=EXCLUDED.error, at=EXCLUDED.at`,
		a.RunID, a.Seq, a.Outcome, a.Car, a.Seat, a.ReservationID, a.Accepted, a.Error, a.At)
	return db.WrapNotFound(err)
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, res reservation.Result, at time.Time) error {
	n, err := s.db.Exec(ctx, `
UPDATE runs SET finished_at=$1, result=$2, seat=$3, attempts=$4, error=$5 WHERE id=$6`,
		at, res.Kind.String(), seatText(res), res.Attempts, errText(res.Err), runID)
	if err != nil {
		return db.WrapNotFound(err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrUnknownRun)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.Query(ctx, `
SELECT id,account,origin,destination,travel_date,train_no,criteria,started_at,finished_at,result,seat,attempts,error
FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, db.WrapNotFound(err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Account, &r.Origin, &r.Destination, &r.Date, &r.TrainNo, &r.Criteria,
			&r.StartedAt, &r.FinishedAt, &r.Result, &r.Seat, &r.Attempts, &r.Error); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
