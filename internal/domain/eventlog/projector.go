package eventlog

import (
	"context"
	"encoding/json"
	"time"
)

// Projector folds committed events into one read model. Implementations
// must be idempotent under duplicate delivery: a crash between event
// commit and projection commit means events can be replayed into the
// view later.
type Projector interface {
	// View names the read model this projector maintains.
	View() string
	// CatchUp folds every event the view has not seen yet.
	CatchUp(ctx context.Context, id ID) error
}

// ViewProjector is the standard Projector: it keeps one JSON view row
// per aggregate, tracking the last applied Seq so replayed events are
// no-ops, and catches the view up to the head of the event stream.
type ViewProjector[V, E any] struct {
	view    string
	at      AggregateType
	events  EventStore
	views   ViewStore
	codec   EventCodec[E]
	initial func(id ID) V
	update  func(view V, env Envelope, event E) V
	getUTC  func() time.Time // for mocking
}

// NewViewProjector builds a ViewProjector. initial returns the empty
// view, update folds one event into it; both must be pure.
func NewViewProjector[V, E any](
	view string,
	at AggregateType,
	events EventStore,
	views ViewStore,
	codec EventCodec[E],
	initial func(id ID) V,
	update func(view V, env Envelope, event E) V,
) *ViewProjector[V, E] {
	return &ViewProjector[V, E]{
		view:    view,
		at:      at,
		events:  events,
		views:   views,
		codec:   codec,
		initial: initial,
		update:  update,
		getUTC: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// For testing
func (p *ViewProjector[V, E]) SetUTCGetter(getter func() time.Time) {
	p.getUTC = getter
}

func (p *ViewProjector[V, E]) View() string {
	return p.view
}

// CatchUp re-reads the event stream past the view's LastSeq and folds
// the tail in, saving with a LastSeq conflict check. A save conflict
// means another projector advanced the same view concurrently, in which
// case we reload and re-check rather than clobber.
func (p *ViewProjector[V, E]) CatchUp(ctx context.Context, id ID) error {
	// Two passes are enough: a conflicting writer has by definition
	// already folded the events we lost the race over.
	for attempt := 0; attempt < 2; attempt++ {
		view, last, err := p.load(ctx, id)
		if err != nil {
			return err
		}

		envs, err := p.events.Load(ctx, p.at, id, last)
		if err != nil {
			return err
		}
		if len(envs) == 0 {
			return nil
		}

		for _, env := range envs {
			if env.Seq != last+1 {
				return Corruption{
					AggregateType: p.at,
					AggregateID:   id,
					Seq:           env.Seq,
					Reason:        "sequence gap during projection",
				}
			}
			event, err := p.codec.UnmarshalEvent(env.EventType, env.Payload)
			if err != nil {
				return Corruption{
					AggregateType: p.at,
					AggregateID:   id,
					Seq:           env.Seq,
					Reason:        "undecodable event: " + err.Error(),
				}
			}
			view = p.update(view, env, event)
			last = env.Seq
		}

		payload, err := json.Marshal(view)
		if err != nil {
			return err
		}
		rec := ViewRecord{
			ID:         id,
			LastSeq:    last,
			Payload:    payload,
			ModifiedAt: p.getUTC(),
		}
		err = p.views.SaveView(ctx, p.view, rec, envs[0].Seq-1)
		if !IsConflict(err) {
			return err
		}
	}
	return nil
}

func (p *ViewProjector[V, E]) load(ctx context.Context, id ID) (V, Seq, error) {
	rec, err := p.views.LoadView(ctx, p.view, id)
	if err != nil {
		if IsNotFound(err) {
			return p.initial(id), 0, nil
		}
		var zero V
		return zero, 0, err
	}
	var view V
	if err := json.Unmarshal(rec.Payload, &view); err != nil {
		var zero V
		return zero, 0, Corruption{
			AggregateType: p.at,
			AggregateID:   id,
			Seq:           rec.LastSeq,
			Reason:        "undecodable view row: " + err.Error(),
		}
	}
	return view, rec.LastSeq, nil
}
