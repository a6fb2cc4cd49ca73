package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

// SnapshotStore keeps at most one snapshot per aggregate, never
// replacing a newer one with an older one.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore returns a SnapshotStore on the given pool.
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snap eventlog.Snapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (aggregate_type, aggregate_id, seq, state, taken_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (aggregate_type, aggregate_id) DO UPDATE
		    SET seq = EXCLUDED.seq, state = EXCLUDED.state, taken_at = EXCLUDED.taken_at
		  WHERE snapshots.seq < EXCLUDED.seq`,
		string(snap.AggregateType), string(snap.AggregateID), uint64(snap.Seq), []byte(snap.State), snap.TakenAt,
	)
	if err != nil {
		return eventlog.StorageErr{Underlying: err}
	}
	return nil
}

func (s *SnapshotStore) LoadSnapshot(ctx context.Context, at eventlog.AggregateType, id eventlog.ID) (eventlog.Snapshot, bool, error) {
	snap := eventlog.Snapshot{AggregateType: at, AggregateID: id}
	var seq uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT seq, state, taken_at FROM snapshots
		  WHERE aggregate_type = $1 AND aggregate_id = $2`,
		string(at), string(id),
	).Scan(&seq, &snap.State, &snap.TakenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return eventlog.Snapshot{}, false, nil
	}
	if err != nil {
		return eventlog.Snapshot{}, false, eventlog.StorageErr{Underlying: err}
	}
	snap.Seq = eventlog.Seq(seq)
	return snap, true, nil
}
