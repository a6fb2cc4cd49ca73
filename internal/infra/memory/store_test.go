package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/banques/internal/domain/eventlog"
)

func envelope(seq eventlog.Seq) eventlog.Envelope {
	return eventlog.Envelope{
		AggregateType: "account",
		AggregateID:   "a",
		Seq:           seq,
		EventType:     "Deposited",
		Payload:       json.RawMessage(`{}`),
		RecordedAt:    time.Now().UTC(),
	}
}

func TestStore_Append_ChecksExpectedVersion(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	version, err := store.Append(ctx, "account", "a", 0, []eventlog.Envelope{envelope(1), envelope(2)})
	assert.NoError(t, err)
	assert.EqualValues(t, 2, version)

	// stale expected version is rejected, nothing written
	_, err = store.Append(ctx, "account", "a", 1, []eventlog.Envelope{envelope(2)})
	assert.True(t, eventlog.IsConflict(err))
	envs, err := store.Load(ctx, "account", "a", 0)
	assert.NoError(t, err)
	assert.Len(t, envs, 2)

	// so is an expected version ahead of the stream
	_, err = store.Append(ctx, "account", "a", 5, []eventlog.Envelope{envelope(6)})
	assert.True(t, eventlog.IsConflict(err))
}

func TestStore_Load_AfterSeq(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_, err := store.Append(ctx, "account", "a", 0, []eventlog.Envelope{envelope(1), envelope(2), envelope(3)})
	assert.NoError(t, err)

	envs, err := store.Load(ctx, "account", "a", 2)
	assert.NoError(t, err)
	if assert.Len(t, envs, 1) {
		assert.EqualValues(t, 3, envs[0].Seq)
	}

	// streams are partitioned by aggregate type and id
	envs, err = store.Load(ctx, "transfer", "a", 0)
	assert.NoError(t, err)
	assert.Empty(t, envs)
}

func TestStore_SaveSnapshot_KeepsNewest(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	newer := eventlog.Snapshot{AggregateType: "account", AggregateID: "a", Seq: 10, State: []byte(`{}`)}
	older := eventlog.Snapshot{AggregateType: "account", AggregateID: "a", Seq: 5, State: []byte(`{}`)}
	assert.NoError(t, store.SaveSnapshot(ctx, newer))
	assert.NoError(t, store.SaveSnapshot(ctx, older))

	snap, found, err := store.LoadSnapshot(ctx, "account", "a")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.EqualValues(t, 10, snap.Seq)
}

func TestStore_SaveView_CompareAndSet(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	rec := eventlog.ViewRecord{ID: "a", LastSeq: 2, Payload: []byte(`{}`)}
	assert.NoError(t, store.SaveView(ctx, "account", rec, 0))

	// a writer with a stale expectation loses
	stale := eventlog.ViewRecord{ID: "a", LastSeq: 3, Payload: []byte(`{}`)}
	err := store.SaveView(ctx, "account", stale, 0)
	assert.True(t, eventlog.IsConflict(err))

	// the current expectation wins
	assert.NoError(t, store.SaveView(ctx, "account", stale, 2))
	loaded, err := store.LoadView(ctx, "account", "a")
	assert.NoError(t, err)
	assert.EqualValues(t, 3, loaded.LastSeq)
}

func TestStore_StaleViews(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_, err := store.Append(ctx, "account", "a", 0, []eventlog.Envelope{envelope(1), envelope(2)})
	assert.NoError(t, err)

	// no view row yet: stale
	ids, err := store.StaleViews(ctx, "account", "account", 10)
	assert.NoError(t, err)
	assert.EqualValues(t, []eventlog.ID{"a"}, ids)

	// caught-up view row: not stale
	assert.NoError(t, store.SaveView(ctx, "account", eventlog.ViewRecord{ID: "a", LastSeq: 2, Payload: []byte(`{}`)}, 0))
	ids, err = store.StaleViews(ctx, "account", "account", 10)
	assert.NoError(t, err)
	assert.Empty(t, ids)
}
