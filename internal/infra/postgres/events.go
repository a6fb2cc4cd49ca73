package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

const pgUniqueViolation = "23505"

// EventStore is the Postgres-backed event log.
type EventStore struct {
	db *sql.DB
}

// NewEventStore returns an EventStore on the given pool.
func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) Load(ctx context.Context, at eventlog.AggregateType, id eventlog.ID, afterSeq eventlog.Seq) ([]eventlog.Envelope, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, event_type, payload, recorded_at
		   FROM events
		  WHERE aggregate_type = $1 AND aggregate_id = $2 AND seq > $3
		  ORDER BY seq ASC`,
		string(at), string(id), uint64(afterSeq),
	)
	if err != nil {
		return nil, eventlog.StorageErr{Underlying: err}
	}
	defer rows.Close()

	var envs []eventlog.Envelope
	for rows.Next() {
		env := eventlog.Envelope{AggregateType: at, AggregateID: id}
		var seq uint64
		if err := rows.Scan(&seq, &env.EventType, &env.Payload, &env.RecordedAt); err != nil {
			return nil, eventlog.StorageErr{Underlying: err}
		}
		env.Seq = eventlog.Seq(seq)
		envs = append(envs, env)
	}
	if err := rows.Err(); err != nil {
		return nil, eventlog.StorageErr{Underlying: err}
	}
	return envs, nil
}

// Append writes all events in one transaction. The stored version is
// re-read inside the transaction to catch a stale expected version; the
// primary key on (aggregate_type, aggregate_id, seq) turns the
// remaining write races into unique violations, which surface as
// ConcurrencyConflict.
func (s *EventStore) Append(ctx context.Context, at eventlog.AggregateType, id eventlog.ID, expected eventlog.Seq, events []eventlog.Envelope) (eventlog.Seq, error) {
	if len(events) == 0 {
		return expected, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eventlog.StorageErr{Underlying: err}
	}

	var current uint64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM events
		  WHERE aggregate_type = $1 AND aggregate_id = $2`,
		string(at), string(id),
	).Scan(&current)
	if err != nil {
		return 0, rollback(tx, eventlog.StorageErr{Underlying: err})
	}
	if eventlog.Seq(current) != expected {
		return 0, rollback(tx, eventlog.ConcurrencyConflict{AggregateType: at, AggregateID: id, Expected: expected})
	}

	for _, env := range events {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO events (aggregate_type, aggregate_id, seq, event_type, payload, recorded_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			string(at), string(id), uint64(env.Seq), env.EventType, []byte(env.Payload), env.RecordedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, rollback(tx, eventlog.ConcurrencyConflict{AggregateType: at, AggregateID: id, Expected: expected})
			}
			return 0, rollback(tx, eventlog.StorageErr{Underlying: err})
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return 0, eventlog.ConcurrencyConflict{AggregateType: at, AggregateID: id, Expected: expected}
		}
		return 0, eventlog.StorageErr{Underlying: err}
	}
	return events[len(events)-1].Seq, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
