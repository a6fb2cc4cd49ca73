package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

// ViewStore persists read-model rows with a compare-and-set on the
// last folded sequence number.
type ViewStore struct {
	db *sql.DB
}

// NewViewStore returns a ViewStore on the given pool.
func NewViewStore(db *sql.DB) *ViewStore {
	return &ViewStore{db: db}
}

func (s *ViewStore) LoadView(ctx context.Context, view string, id eventlog.ID) (eventlog.ViewRecord, error) {
	rec := eventlog.ViewRecord{ID: id}
	var lastSeq uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_seq, payload, modified_at FROM views
		  WHERE view_name = $1 AND aggregate_id = $2`,
		view, string(id),
	).Scan(&lastSeq, &rec.Payload, &rec.ModifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return eventlog.ViewRecord{}, eventlog.NotFound{View: view, ID: id}
	}
	if err != nil {
		return eventlog.ViewRecord{}, eventlog.StorageErr{Underlying: err}
	}
	rec.LastSeq = eventlog.Seq(lastSeq)
	return rec, nil
}

// SaveView upserts when expectedLastSeq is 0, otherwise updates the
// existing row. Either way the write only lands if the stored last_seq
// still equals expectedLastSeq; a lost race surfaces as
// ConcurrencyConflict for the projector to retry.
func (s *ViewStore) SaveView(ctx context.Context, view string, rec eventlog.ViewRecord, expectedLastSeq eventlog.Seq) error {
	var (
		result sql.Result
		err    error
	)
	if expectedLastSeq == 0 {
		result, err = s.db.ExecContext(ctx,
			`INSERT INTO views (view_name, aggregate_id, last_seq, payload, modified_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (view_name, aggregate_id) DO UPDATE
			    SET last_seq = EXCLUDED.last_seq, payload = EXCLUDED.payload, modified_at = EXCLUDED.modified_at
			  WHERE views.last_seq = 0`,
			view, string(rec.ID), uint64(rec.LastSeq), []byte(rec.Payload), rec.ModifiedAt,
		)
	} else {
		result, err = s.db.ExecContext(ctx,
			`UPDATE views
			    SET last_seq = $3, payload = $4, modified_at = $5
			  WHERE view_name = $1 AND aggregate_id = $2 AND last_seq = $6`,
			view, string(rec.ID), uint64(rec.LastSeq), []byte(rec.Payload), rec.ModifiedAt, uint64(expectedLastSeq),
		)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return eventlog.ConcurrencyConflict{AggregateID: rec.ID, Expected: expectedLastSeq}
		}
		return eventlog.StorageErr{Underlying: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return eventlog.StorageErr{Underlying: err}
	}
	if affected == 0 {
		return eventlog.ConcurrencyConflict{AggregateID: rec.ID, Expected: expectedLastSeq}
	}
	return nil
}

// StaleViews lists aggregates whose view row is behind the head of the
// event log, up to limit. The reconciler uses it to sweep lagging
// projections.
func (s *ViewStore) StaleViews(ctx context.Context, view string, at eventlog.AggregateType, limit uint) ([]eventlog.ID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.aggregate_id
		   FROM (SELECT aggregate_id, MAX(seq) AS head
		           FROM events
		          WHERE aggregate_type = $1
		          GROUP BY aggregate_id) e
		   LEFT JOIN views v
		     ON v.view_name = $2 AND v.aggregate_id = e.aggregate_id
		  WHERE COALESCE(v.last_seq, 0) < e.head
		  LIMIT $3`,
		string(at), view, limit,
	)
	if err != nil {
		return nil, eventlog.StorageErr{Underlying: err}
	}
	defer rows.Close()

	var ids []eventlog.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eventlog.StorageErr{Underlying: err}
		}
		ids = append(ids, eventlog.ID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, eventlog.StorageErr{Underlying: err}
	}
	return ids, nil
}
