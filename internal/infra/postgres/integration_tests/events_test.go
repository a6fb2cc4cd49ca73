//go:build integration
// +build integration

package integration_tests

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/banques/internal/domain/eventlog"
	"github.com/lloydmeta/banques/internal/infra/postgres"
)

const testAggregateType eventlog.AggregateType = "itest-account"

func freshId() eventlog.ID {
	return eventlog.ID(uuid.New().String())
}

func envelopes(at eventlog.AggregateType, id eventlog.ID, fromSeq eventlog.Seq, count int) []eventlog.Envelope {
	envs := make([]eventlog.Envelope, 0, count)
	for i := 0; i < count; i++ {
		seq := fromSeq + eventlog.Seq(i)
		envs = append(envs, eventlog.Envelope{
			AggregateType: at,
			AggregateID:   id,
			Seq:           seq,
			EventType:     "SomethingHappened",
			Payload:       json.RawMessage(fmt.Sprintf(`{"seq":%d}`, seq)),
			RecordedAt:    time.Now().UTC(),
		})
	}
	return envs
}

func Test_EventStore_AppendAndLoad(t *testing.T) {
	store := postgres.NewEventStore(db)
	id := freshId()

	newSeq, err := store.Append(ctx, testAggregateType, id, 0, envelopes(testAggregateType, id, 1, 2))
	assert.NoError(t, err)
	assert.EqualValues(t, 2, newSeq)

	loaded, err := store.Load(ctx, testAggregateType, id, 0)
	assert.NoError(t, err)
	if assert.Len(t, loaded, 2) {
		assert.EqualValues(t, 1, loaded[0].Seq)
		assert.EqualValues(t, 2, loaded[1].Seq)
		assert.EqualValues(t, "SomethingHappened", loaded[0].EventType)
		assert.JSONEq(t, `{"seq":1}`, string(loaded[0].Payload))
	}

	tail, err := store.Load(ctx, testAggregateType, id, 1)
	assert.NoError(t, err)
	if assert.Len(t, tail, 1) {
		assert.EqualValues(t, 2, tail[0].Seq)
	}
}

func Test_EventStore_Load_emptyStream(t *testing.T) {
	store := postgres.NewEventStore(db)
	loaded, err := store.Load(ctx, testAggregateType, freshId(), 0)
	assert.NoError(t, err)
	assert.Empty(t, loaded)
}

func Test_EventStore_Append_staleExpectedConflicts(t *testing.T) {
	store := postgres.NewEventStore(db)
	id := freshId()

	_, err := store.Append(ctx, testAggregateType, id, 0, envelopes(testAggregateType, id, 1, 2))
	assert.NoError(t, err)

	_, err = store.Append(ctx, testAggregateType, id, 1, envelopes(testAggregateType, id, 2, 1))
	assert.IsType(t, eventlog.ConcurrencyConflict{}, err)

	// the losing batch must not have landed
	loaded, err := store.Load(ctx, testAggregateType, id, 0)
	assert.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func Test_EventStore_Append_aheadExpectedConflicts(t *testing.T) {
	store := postgres.NewEventStore(db)
	id := freshId()

	_, err := store.Append(ctx, testAggregateType, id, 5, envelopes(testAggregateType, id, 6, 1))
	assert.IsType(t, eventlog.ConcurrencyConflict{}, err)

	loaded, err := store.Load(ctx, testAggregateType, id, 0)
	assert.NoError(t, err)
	assert.Empty(t, loaded)
}

func Test_EventStore_Append_racingWritersOnlyOneWins(t *testing.T) {
	store := postgres.NewEventStore(db)
	id := freshId()
	writers := 8

	var wg sync.WaitGroup
	conflicts := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Append(ctx, testAggregateType, id, 0, envelopes(testAggregateType, id, 1, 1)); err != nil {
				conflicts <- err
			}
		}()
	}
	wg.Wait()
	close(conflicts)

	failed := 0
	for err := range conflicts {
		assert.IsType(t, eventlog.ConcurrencyConflict{}, err)
		failed++
	}
	assert.EqualValues(t, writers-1, failed)

	loaded, err := store.Load(ctx, testAggregateType, id, 0)
	assert.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func Test_EventStore_streamsArePartitionedByAggregateType(t *testing.T) {
	store := postgres.NewEventStore(db)
	id := freshId()
	otherType := eventlog.AggregateType("itest-transfer")

	_, err := store.Append(ctx, testAggregateType, id, 0, envelopes(testAggregateType, id, 1, 1))
	assert.NoError(t, err)
	_, err = store.Append(ctx, otherType, id, 0, envelopes(otherType, id, 1, 2))
	assert.NoError(t, err)

	accountEvents, err := store.Load(ctx, testAggregateType, id, 0)
	assert.NoError(t, err)
	assert.Len(t, accountEvents, 1)

	transferEvents, err := store.Load(ctx, otherType, id, 0)
	assert.NoError(t, err)
	assert.Len(t, transferEvents, 2)
}
