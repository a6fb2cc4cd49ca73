package eventlog

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Repository rebuilds current aggregate state by folding the stored
// event stream through the context's Apply function, optionally starting
// from the latest snapshot instead of the beginning of the stream.
//
// Replay is strict: an out-of-order or missing event aborts with
// Corruption rather than being skipped.
type Repository[S, C, E any] struct {
	behavior  Behavior[S, C, E]
	codec     EventCodec[E]
	events    EventStore
	snapshots SnapshotStore
	snapCodec SnapshotCodec[S]
}

// NewRepository builds a Repository. snapshots and snapCodec may be nil
// together, which disables the snapshot fast path; presence of snapshots
// is invisible to callers of Load.
func NewRepository[S, C, E any](
	behavior Behavior[S, C, E],
	codec EventCodec[E],
	events EventStore,
	snapshots SnapshotStore,
	snapCodec SnapshotCodec[S],
) *Repository[S, C, E] {
	return &Repository[S, C, E]{
		behavior:  behavior,
		codec:     codec,
		events:    events,
		snapshots: snapshots,
		snapCodec: snapCodec,
	}
}

// Load returns the current state of the aggregate and its version (the
// Seq of the last committed event, 0 if none exist).
func (r *Repository[S, C, E]) Load(ctx context.Context, id ID) (S, Seq, error) {
	at := r.behavior.AggregateType()
	state, from := r.loadBase(ctx, id)

	envs, err := r.events.Load(ctx, at, id, from)
	if err != nil {
		var zero S
		return zero, 0, err
	}

	version := from
	for _, env := range envs {
		if env.Seq != version+1 {
			var zero S
			return zero, 0, Corruption{
				AggregateType: at,
				AggregateID:   id,
				Seq:           env.Seq,
				Reason:        "sequence gap during replay",
			}
		}
		event, err := r.codec.UnmarshalEvent(env.EventType, env.Payload)
		if err != nil {
			var zero S
			return zero, 0, Corruption{
				AggregateType: at,
				AggregateID:   id,
				Seq:           env.Seq,
				Reason:        "undecodable event: " + err.Error(),
			}
		}
		state = r.behavior.Apply(state, event)
		version = env.Seq
	}
	return state, version, nil
}

// loadBase returns the replay starting point: the decoded latest
// snapshot when one is usable, the initial state otherwise. Snapshot
// problems are logged and degrade to a full replay, never to an error.
func (r *Repository[S, C, E]) loadBase(ctx context.Context, id ID) (S, Seq) {
	initial := r.behavior.Initial(id)
	if r.snapshots == nil || r.snapCodec == nil {
		return initial, 0
	}
	snap, found, err := r.snapshots.LoadSnapshot(ctx, r.behavior.AggregateType(), id)
	if err != nil {
		log.Warn().
			Err(err).
			Str("aggregate_type", string(r.behavior.AggregateType())).
			Str("aggregate_id", string(id)).
			Msg("Could not read snapshot, replaying from scratch")
		return initial, 0
	}
	if !found {
		return initial, 0
	}
	state, err := r.snapCodec.UnmarshalState(id, snap.State)
	if err != nil {
		log.Warn().
			Err(err).
			Str("aggregate_type", string(r.behavior.AggregateType())).
			Str("aggregate_id", string(id)).
			Uint64("snapshot_seq", uint64(snap.Seq)).
			Msg("Could not decode snapshot, replaying from scratch")
		return initial, 0
	}
	return state, snap.Seq
}
