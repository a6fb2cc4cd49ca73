package eventlog

import (
	"context"
	"encoding/json"
)

// LoadView is the query side: it reads one projected view row and
// decodes it into V. It never reconstructs state from the event log;
// a missing row is NotFound, even if events exist for the aggregate.
func LoadView[V any](ctx context.Context, store ViewStore, view string, id ID) (V, Seq, error) {
	var zero V
	rec, err := store.LoadView(ctx, view, id)
	if err != nil {
		return zero, 0, err
	}
	var v V
	if err := json.Unmarshal(rec.Payload, &v); err != nil {
		return zero, 0, Corruption{
			AggregateID: id,
			Seq:         rec.LastSeq,
			Reason:      "undecodable view row: " + err.Error(),
		}
	}
	return v, rec.LastSeq, nil
}
