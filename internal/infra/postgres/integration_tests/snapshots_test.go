//go:build integration
// +build integration

package integration_tests

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/banques/internal/domain/eventlog"
	"github.com/lloydmeta/banques/internal/infra/postgres"
)

func Test_SnapshotStore_SaveAndLoad(t *testing.T) {
	store := postgres.NewSnapshotStore(db)
	id := freshId()

	err := store.SaveSnapshot(ctx, eventlog.Snapshot{
		AggregateType: testAggregateType,
		AggregateID:   id,
		Seq:           3,
		State:         json.RawMessage(`{"balance":100}`),
		TakenAt:       time.Now().UTC(),
	})
	assert.NoError(t, err)

	snap, found, err := store.LoadSnapshot(ctx, testAggregateType, id)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.EqualValues(t, 3, snap.Seq)
	assert.JSONEq(t, `{"balance":100}`, string(snap.State))
}

func Test_SnapshotStore_Load_missing(t *testing.T) {
	store := postgres.NewSnapshotStore(db)
	_, found, err := store.LoadSnapshot(ctx, testAggregateType, freshId())
	assert.NoError(t, err)
	assert.False(t, found)
}

func Test_SnapshotStore_newestWins(t *testing.T) {
	store := postgres.NewSnapshotStore(db)
	id := freshId()

	save := func(seq eventlog.Seq, state string) error {
		return store.SaveSnapshot(ctx, eventlog.Snapshot{
			AggregateType: testAggregateType,
			AggregateID:   id,
			Seq:           seq,
			State:         json.RawMessage(state),
			TakenAt:       time.Now().UTC(),
		})
	}

	assert.NoError(t, save(5, `{"balance":500}`))
	// a laggard writer with an older snapshot must not clobber
	assert.NoError(t, save(2, `{"balance":200}`))

	snap, found, err := store.LoadSnapshot(ctx, testAggregateType, id)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.EqualValues(t, 5, snap.Seq)
	assert.JSONEq(t, `{"balance":500}`, string(snap.State))

	assert.NoError(t, save(8, `{"balance":800}`))
	snap, _, err = store.LoadSnapshot(ctx, testAggregateType, id)
	assert.NoError(t, err)
	assert.EqualValues(t, 8, snap.Seq)
}
