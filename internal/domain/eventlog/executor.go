package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Settings are the knobs of a single Executor.
type Settings struct {
	// ConflictRetryTimes is how many times a command is re-run after a
	// concurrency conflict before giving up with ContentionExceeded.
	ConflictRetryTimes uint
	// SnapshotEvery takes a best-effort snapshot whenever the stream
	// crosses a multiple of this many events. 0 disables snapshotting.
	SnapshotEvery uint
}

// Result is the outcome of a successfully executed command.
type Result struct {
	// Version is the aggregate version after the command: the Seq of the
	// last committed event.
	Version Seq
	// Appended is how many events the command committed (0 when the
	// command was a valid no-op).
	Appended uint
	// ProjectionLagging is true when the events were durably committed
	// but one or more views could not be updated; the read model will
	// catch up on the next event or reconciliation pass.
	ProjectionLagging bool
}

// Executor orchestrates one command end-to-end: load state, run the pure
// transition, append the produced events with the loaded version as the
// concurrency check, and fold the committed events into the read models.
//
// Per-aggregate ordering comes entirely from the expected-version check
// in Append; no in-process lock is held across I/O, so multiple service
// instances can safely share one store.
type Executor[S, C, E any] struct {
	behavior   Behavior[S, C, E]
	codec      EventCodec[E]
	repo       *Repository[S, C, E]
	events     EventStore
	snapshots  SnapshotStore
	snapCodec  SnapshotCodec[S]
	projectors []Projector
	settings   Settings
	getUTC     func() time.Time // for mocking
}

// NewExecutor wires an Executor for one bounded context. snapshots and
// snapCodec may be nil together to disable snapshotting regardless of
// settings.
func NewExecutor[S, C, E any](
	behavior Behavior[S, C, E],
	codec EventCodec[E],
	events EventStore,
	snapshots SnapshotStore,
	snapCodec SnapshotCodec[S],
	projectors []Projector,
	settings Settings,
) *Executor[S, C, E] {
	return &Executor[S, C, E]{
		behavior:   behavior,
		codec:      codec,
		repo:       NewRepository(behavior, codec, events, snapshots, snapCodec),
		events:     events,
		snapshots:  snapshots,
		snapCodec:  snapCodec,
		projectors: projectors,
		settings:   settings,
		getUTC: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// For testing
func (e *Executor[S, C, E]) SetUTCGetter(getter func() time.Time) {
	e.getUTC = getter
}

// Repository exposes the loader used by this executor, for callers that
// need current state without issuing a command.
func (e *Executor[S, C, E]) Repository() *Repository[S, C, E] {
	return e.repo
}

// Load rebuilds the aggregate's current state and version.
func (e *Executor[S, C, E]) Load(ctx context.Context, id ID) (S, Seq, error) {
	return e.repo.Load(ctx, id)
}

// Execute runs one command against the aggregate identified by id.
//
// Domain errors from the transition are returned to the caller
// unchanged, with nothing appended. Concurrency conflicts are retried
// internally up to ConflictRetryTimes; exhaustion surfaces as
// ContentionExceeded. Once Append has committed, the command is a
// success: projection failures only degrade the Result, they never fail
// the command, because the durable facts already exist.
func (e *Executor[S, C, E]) Execute(ctx context.Context, id ID, command C) (*Result, error) {
	at := e.behavior.AggregateType()
	attempts := e.settings.ConflictRetryTimes + 1
	for attempt := uint(0); attempt < attempts; attempt++ {
		state, version, err := e.repo.Load(ctx, id)
		if err != nil {
			return nil, err
		}

		produced, err := e.behavior.Transition(state, command)
		if err != nil {
			return nil, err
		}
		if len(produced) == 0 {
			return &Result{Version: version}, nil
		}

		envs, err := e.seal(id, version, produced)
		if err != nil {
			return nil, err
		}

		newVersion, err := e.events.Append(ctx, at, id, version, envs)
		if IsConflict(err) {
			log.Debug().
				Str("aggregate_type", string(at)).
				Str("aggregate_id", string(id)).
				Uint("attempt", attempt+1).
				Msg("Concurrent write detected, reloading and retrying")
			continue
		}
		if err != nil {
			return nil, err
		}

		for _, event := range produced {
			state = e.behavior.Apply(state, event)
		}
		e.maybeSnapshot(ctx, id, state, version, newVersion)

		lagging := false
		for _, p := range e.projectors {
			if err := p.CatchUp(ctx, id); err != nil {
				lagging = true
				log.Error().
					Err(err).
					Str("aggregate_type", string(at)).
					Str("aggregate_id", string(id)).
					Str("view", p.View()).
					Msg("View projection failed after commit; read model will lag")
			}
		}

		return &Result{
			Version:           newVersion,
			Appended:          uint(len(produced)),
			ProjectionLagging: lagging,
		}, nil
	}
	return nil, ContentionExceeded{AggregateType: at, AggregateID: id, Attempts: attempts}
}

// seal serializes produced events into envelopes with consecutive
// sequence numbers starting right after the loaded version.
func (e *Executor[S, C, E]) seal(id ID, version Seq, produced []E) ([]Envelope, error) {
	now := e.getUTC()
	envs := make([]Envelope, 0, len(produced))
	for i, event := range produced {
		payload, err := e.codec.MarshalEvent(event)
		if err != nil {
			return nil, fmt.Errorf("could not serialize produced event: %w", err)
		}
		envs = append(envs, Envelope{
			AggregateType: e.behavior.AggregateType(),
			AggregateID:   id,
			Seq:           version + Seq(i) + 1,
			EventType:     e.codec.EventType(event),
			Payload:       payload,
			RecordedAt:    now,
		})
	}
	return envs, nil
}

// maybeSnapshot persists a snapshot when the stream crossed a multiple
// of SnapshotEvery with this append. Failures are logged and swallowed:
// snapshots are an optimization, never a source of truth.
func (e *Executor[S, C, E]) maybeSnapshot(ctx context.Context, id ID, state S, oldVersion, newVersion Seq) {
	every := Seq(e.settings.SnapshotEvery)
	if every == 0 || e.snapshots == nil || e.snapCodec == nil {
		return
	}
	if oldVersion/every == newVersion/every {
		return
	}
	data, err := e.snapCodec.MarshalState(state)
	if err != nil {
		log.Warn().Err(err).Str("aggregate_id", string(id)).Msg("Could not serialize snapshot state")
		return
	}
	snap := Snapshot{
		AggregateType: e.behavior.AggregateType(),
		AggregateID:   id,
		Seq:           newVersion,
		State:         data,
		TakenAt:       e.getUTC(),
	}
	if err := e.snapshots.SaveSnapshot(ctx, snap); err != nil {
		log.Warn().Err(err).Str("aggregate_id", string(id)).Msg("Could not persist snapshot")
	}
}
