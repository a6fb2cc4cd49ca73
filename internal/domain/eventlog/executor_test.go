package eventlog_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/banques/internal/domain/account"
	"github.com/lloydmeta/banques/internal/domain/eventlog"
	"github.com/lloydmeta/banques/internal/infra/memory"
)

func newAccountExecutor(store *memory.Store, settings eventlog.Settings, projectors ...eventlog.Projector) *eventlog.Executor[account.Account, account.Command, account.Event] {
	return eventlog.NewExecutor[account.Account, account.Command, account.Event](
		account.Behavior{},
		account.Codec{},
		store,
		store,
		account.StateCodec{},
		projectors,
		settings,
	)
}

func TestExecutor_Execute_AppendsAndVersions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	executor := newAccountExecutor(store, eventlog.Settings{ConflictRetryTimes: 3})

	result, err := executor.Execute(ctx, "a", account.Open{AccountID: "a"})
	assert.NoError(t, err)
	assert.EqualValues(t, 1, result.Version)
	assert.EqualValues(t, 1, result.Appended)

	result, err = executor.Execute(ctx, "a", account.Deposit{TxID: "t1", Timestamp: 100, Asset: "USD", Amount: 100})
	assert.NoError(t, err)
	assert.EqualValues(t, 2, result.Version)

	state, version, err := executor.Load(ctx, "a")
	assert.NoError(t, err)
	assert.EqualValues(t, 2, version)
	assert.EqualValues(t, account.IN_SERVICE, state.Status)
}

func TestExecutor_Execute_DomainErrorAppendsNothing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	executor := newAccountExecutor(store, eventlog.Settings{ConflictRetryTimes: 3})

	_, err := executor.Execute(ctx, "a", account.Open{AccountID: "a"})
	assert.NoError(t, err)
	_, err = executor.Execute(ctx, "a", account.Deposit{TxID: "t1", Timestamp: 100, Asset: "USD", Amount: 100})
	assert.NoError(t, err)

	_, err = executor.Execute(ctx, "a", account.Withdraw{TxID: "t2", Timestamp: 101, Asset: "USD", Amount: 150})
	assert.EqualValues(t, account.InsufficientFunds{ID: "a", Asset: "USD"}, err)

	envs, err := store.Load(ctx, account.AggregateType, "a", 0)
	assert.NoError(t, err)
	assert.Len(t, envs, 2)
}

func TestExecutor_Execute_EnvelopesAreSealedInOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	executor := newAccountExecutor(store, eventlog.Settings{})

	_, err := executor.Execute(ctx, "a", account.Open{AccountID: "a"})
	assert.NoError(t, err)
	_, err = executor.Execute(ctx, "a", account.Deposit{TxID: "t1", Timestamp: 100, Asset: "USD", Amount: 100})
	assert.NoError(t, err)

	envs, err := store.Load(ctx, account.AggregateType, "a", 0)
	assert.NoError(t, err)
	if assert.Len(t, envs, 2) {
		assert.EqualValues(t, 1, envs[0].Seq)
		assert.EqualValues(t, account.TypeAccountOpened, envs[0].EventType)
		assert.EqualValues(t, 2, envs[1].Seq)
		assert.EqualValues(t, account.TypeDeposited, envs[1].EventType)
	}
}

// conflictingStore fails every Append with a concurrency conflict.
type conflictingStore struct {
	*memory.Store
	appendCalled uint
}

func (s *conflictingStore) Append(ctx context.Context, at eventlog.AggregateType, id eventlog.ID, expected eventlog.Seq, events []eventlog.Envelope) (eventlog.Seq, error) {
	s.appendCalled++
	return 0, eventlog.ConcurrencyConflict{AggregateType: at, AggregateID: id, Expected: expected}
}

func TestExecutor_Execute_ContentionExhaustsRetries(t *testing.T) {
	ctx := context.Background()
	store := &conflictingStore{Store: memory.NewStore()}
	executor := eventlog.NewExecutor[account.Account, account.Command, account.Event](
		account.Behavior{},
		account.Codec{},
		store,
		nil,
		nil,
		nil,
		eventlog.Settings{ConflictRetryTimes: 2},
	)

	_, err := executor.Execute(ctx, "a", account.Open{AccountID: "a"})
	assert.EqualValues(t, eventlog.ContentionExceeded{AggregateType: account.AggregateType, AggregateID: "a", Attempts: 3}, err)
	assert.EqualValues(t, 3, store.appendCalled)
}

func TestExecutor_Execute_ConcurrentWritersAllLand(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	executor := newAccountExecutor(store, eventlog.Settings{ConflictRetryTimes: 50})

	_, err := executor.Execute(ctx, "a", account.Open{AccountID: "a"})
	assert.NoError(t, err)

	writers := 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = executor.Execute(ctx, "a", account.Deposit{
				TxID:      account.TxID(string(rune('a' + n))),
				Timestamp: account.Timestamp(100 + n),
				Asset:     "USD",
				Amount:    10,
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	state, version, err := executor.Load(ctx, "a")
	assert.NoError(t, err)
	assert.EqualValues(t, writers+1, version)
	assert.EqualValues(t, account.Amount(uint64(writers)*10), state.Balances["USD"])
}

func TestExecutor_Execute_ProjectsViews(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	projector := account.NewProjector(store, store)
	executor := newAccountExecutor(store, eventlog.Settings{}, projector)

	_, err := executor.Execute(ctx, "a", account.Open{AccountID: "a"})
	assert.NoError(t, err)
	result, err := executor.Execute(ctx, "a", account.Deposit{TxID: "t1", Timestamp: 100, Asset: "USD", Amount: 100})
	assert.NoError(t, err)
	assert.False(t, result.ProjectionLagging)

	view, last, err := eventlog.LoadView[account.View](ctx, store, account.ViewName, "a")
	assert.NoError(t, err)
	assert.EqualValues(t, 2, last)
	assert.EqualValues(t, account.Amount(100), view.Balances["USD"])

	// replaying catch-up on an up-to-date view changes nothing
	assert.NoError(t, projector.CatchUp(ctx, "a"))
	again, last, err := eventlog.LoadView[account.View](ctx, store, account.ViewName, "a")
	assert.NoError(t, err)
	assert.EqualValues(t, 2, last)
	assert.EqualValues(t, view, again)
}

// failingViewStore reads through but refuses every save.
type failingViewStore struct {
	*memory.Store
}

func (s *failingViewStore) SaveView(ctx context.Context, view string, rec eventlog.ViewRecord, expectedLastSeq eventlog.Seq) error {
	return eventlog.StorageErr{Underlying: assert.AnError}
}

func TestExecutor_Execute_ProjectionFailureDegradesNotFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	projector := account.NewProjector(store, &failingViewStore{Store: store})
	executor := newAccountExecutor(store, eventlog.Settings{}, projector)

	result, err := executor.Execute(ctx, "a", account.Open{AccountID: "a"})
	assert.NoError(t, err)
	assert.True(t, result.ProjectionLagging)

	// the events landed regardless
	envs, err := store.Load(ctx, account.AggregateType, "a", 0)
	assert.NoError(t, err)
	assert.Len(t, envs, 1)
}

func TestExecutor_Execute_SnapshotsAndLoadsFromThem(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	executor := newAccountExecutor(store, eventlog.Settings{SnapshotEvery: 2})

	_, err := executor.Execute(ctx, "a", account.Open{AccountID: "a"})
	assert.NoError(t, err)
	_, err = executor.Execute(ctx, "a", account.Deposit{TxID: "t1", Timestamp: 100, Asset: "USD", Amount: 100})
	assert.NoError(t, err)

	snap, found, err := store.LoadSnapshot(ctx, account.AggregateType, "a")
	assert.NoError(t, err)
	if assert.True(t, found) {
		assert.EqualValues(t, 2, snap.Seq)
	}

	// state loaded via the snapshot matches a full replay
	state, version, err := executor.Load(ctx, "a")
	assert.NoError(t, err)
	assert.EqualValues(t, 2, version)
	assert.EqualValues(t, account.Amount(100), state.Balances["USD"])
}

// corruptSnapshotStore serves snapshots that do not decode.
type corruptSnapshotStore struct {
	*memory.Store
}

func (s *corruptSnapshotStore) LoadSnapshot(ctx context.Context, at eventlog.AggregateType, id eventlog.ID) (eventlog.Snapshot, bool, error) {
	return eventlog.Snapshot{AggregateType: at, AggregateID: id, Seq: 99, State: []byte("{{{")}, true, nil
}

func TestRepository_Load_BadSnapshotFallsBackToReplay(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := eventlog.NewRepository[account.Account, account.Command, account.Event](
		account.Behavior{},
		account.Codec{},
		store,
		&corruptSnapshotStore{Store: store},
		account.StateCodec{},
	)

	seed := newAccountExecutor(store, eventlog.Settings{})
	_, err := seed.Execute(ctx, "a", account.Open{AccountID: "a"})
	assert.NoError(t, err)

	state, version, err := repo.Load(ctx, "a")
	assert.NoError(t, err)
	assert.EqualValues(t, 1, version)
	assert.EqualValues(t, account.IN_SERVICE, state.Status)
}

// gappyStore drops the first event of every load, leaving a gap.
type gappyStore struct {
	*memory.Store
}

func (s *gappyStore) Load(ctx context.Context, at eventlog.AggregateType, id eventlog.ID, afterSeq eventlog.Seq) ([]eventlog.Envelope, error) {
	envs, err := s.Store.Load(ctx, at, id, afterSeq)
	if err != nil || len(envs) < 2 {
		return envs, err
	}
	return envs[1:], nil
}

func TestRepository_Load_SequenceGapIsCorruption(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	seed := newAccountExecutor(store, eventlog.Settings{})
	_, err := seed.Execute(ctx, "a", account.Open{AccountID: "a"})
	assert.NoError(t, err)
	_, err = seed.Execute(ctx, "a", account.Deposit{TxID: "t1", Timestamp: 100, Asset: "USD", Amount: 100})
	assert.NoError(t, err)

	repo := eventlog.NewRepository[account.Account, account.Command, account.Event](
		account.Behavior{},
		account.Codec{},
		&gappyStore{Store: store},
		nil,
		nil,
	)
	_, _, err = repo.Load(ctx, "a")
	corruption, isCorruption := err.(eventlog.Corruption)
	if assert.True(t, isCorruption) {
		assert.EqualValues(t, 2, corruption.Seq)
	}
}

func TestLoadView_MissingRowIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	_, _, err := eventlog.LoadView[account.View](ctx, store, account.ViewName, "nope")
	assert.True(t, eventlog.IsNotFound(err))
}
