// eventlog contains the event-sourcing core: the contracts for durable,
// ordered, conflict-checked event logs, plus the replayer and command
// executor that turn pure aggregate state machines into a running service.
//
// Storage backends live under infra and implement the interfaces declared
// here; nothing in this package performs I/O on its own.
package eventlog

import (
	"encoding/json"
	"time"
)

// AggregateType names a bounded context, e.g. "account". Events for
// different aggregate types never share a stream.
type AggregateType string

// ID identifies one aggregate instance. Immutable once assigned; every
// event for an instance carries the same ID.
type ID string

// Seq is a per-aggregate sequence number. Starts at 1 and increases by
// exactly 1 per committed event; the current version of an aggregate is
// the Seq of its last committed event (0 when no events exist).
type Seq uint64

// Envelope is the persisted representation of a single event: the typed
// payload serialized as self-describing JSON, plus the metadata needed
// for ordered, conflict-checked storage.
type Envelope struct {
	AggregateType AggregateType
	AggregateID   ID
	Seq           Seq
	EventType     string
	Payload       json.RawMessage
	RecordedAt    time.Time
}

// Snapshot is a best-effort materialization of aggregate state up to a
// given Seq. The event log remains authoritative; a missing or stale
// snapshot only costs replay time.
type Snapshot struct {
	AggregateType AggregateType
	AggregateID   ID
	Seq           Seq
	State         json.RawMessage
	TakenAt       time.Time
}

// Behavior is the pure state machine of one bounded context.
//
// Transition and Apply must be deterministic and free of side effects so
// that replay is reproducible. Transition enforces business invariants
// and returns a domain error when a command is not valid in the current
// state. Apply must be total over every event type the context has ever
// emitted: it drives replay and is never allowed to fail.
type Behavior[S, C, E any] interface {
	AggregateType() AggregateType

	// Initial returns the zero state for an instance that has no events.
	Initial(id ID) S

	Transition(current S, command C) ([]E, error)

	Apply(current S, event E) S
}

// EventCodec serializes the closed event union of a context. Event types
// are tagged by name so that old events remain decodable indefinitely.
type EventCodec[E any] interface {
	EventType(event E) string
	MarshalEvent(event E) (json.RawMessage, error)
	UnmarshalEvent(eventType string, payload json.RawMessage) (E, error)
}

// SnapshotCodec serializes aggregate state for snapshots.
type SnapshotCodec[S any] interface {
	MarshalState(state S) (json.RawMessage, error)
	UnmarshalState(id ID, data json.RawMessage) (S, error)
}
