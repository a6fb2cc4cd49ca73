package eventlog

import (
	"context"
	"encoding/json"
	"time"
)

// EventStore is the durable, ordered, per-aggregate event log. It is the
// sole source of truth for the whole system.
type EventStore interface {
	// Load returns the events for one aggregate with Seq > afterSeq, in
	// ascending Seq order. An empty result is not an error. A gap or
	// duplicate observed on read must be reported as Corruption.
	Load(ctx context.Context, at AggregateType, id ID, afterSeq Seq) ([]Envelope, error)

	// Append durably records the given events with consecutive sequence
	// numbers starting at expected+1, atomically: either every event is
	// committed or none are. If the stored version of the aggregate does
	// not equal expected at commit time it returns ConcurrencyConflict
	// and writes nothing. Returns the new current version on success.
	//
	// Retrying after a conflict is the caller's job, not the store's.
	Append(ctx context.Context, at AggregateType, id ID, expected Seq, events []Envelope) (Seq, error)
}

// SnapshotStore persists best-effort state snapshots. Implementations
// must never let snapshot state override the event log: a failed or
// missing snapshot degrades to a full replay.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	// LoadSnapshot returns the latest snapshot for the aggregate and
	// whether one exists.
	LoadSnapshot(ctx context.Context, at AggregateType, id ID) (Snapshot, bool, error)
}

// ViewRecord is one denormalized read-model row. LastSeq is the Seq of
// the last event folded into Payload and is what makes projection
// idempotent under redelivery.
type ViewRecord struct {
	ID         ID
	LastSeq    Seq
	Payload    json.RawMessage
	ModifiedAt time.Time
}

// ViewStore persists read-model rows, keyed by view name and aggregate
// id. SaveView is conflict-checked on LastSeq so that two projectors
// catching up the same view cannot clobber each other.
type ViewStore interface {
	// LoadView returns NotFound when no row exists.
	LoadView(ctx context.Context, view string, id ID) (ViewRecord, error)

	// SaveView upserts the row if its stored LastSeq still equals
	// expectedLastSeq (0 for a new row); otherwise it returns
	// ConcurrencyConflict and changes nothing.
	SaveView(ctx context.Context, view string, rec ViewRecord, expectedLastSeq Seq) error
}
