// reconcile periodically re-projects views that have fallen behind the
// event log, covering for projection failures at command time.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/banques/internal/domain/eventlog"
	"github.com/lloydmeta/banques/internal/domain/tracing"
)

// StaleLister finds aggregates whose view row is behind the head of
// their event stream.
type StaleLister interface {
	StaleViews(ctx context.Context, view string, at eventlog.AggregateType, limit uint) ([]eventlog.ID, error)
}

// Lane pairs one projector with the aggregate type whose streams feed
// it.
type Lane struct {
	AggregateType eventlog.AggregateType
	Projector     eventlog.Projector
}

type sweeperImpl struct {
	cron *cron.Cron

	lister StaleLister

	lanes []Lane

	tracer tracing.Tracer

	interval time.Duration

	chunkSize uint

	mu sync.Mutex
}

// Sweeper periodically catches up lagging views.
type Sweeper interface {
	Start()
	Stop()
}

// NewSweeper returns a Sweeper that delegates scheduling to the
// standard robfig/cron
func NewSweeper(lister StaleLister, lanes []Lane, tracer tracing.Tracer, interval time.Duration, chunkSize uint) Sweeper {
	return &sweeperImpl{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		lister:    lister,
		lanes:     lanes,
		tracer:    tracer,
		interval:  interval,
		chunkSize: chunkSize,
		mu:        sync.Mutex{},
	}
}

func (i *sweeperImpl) Start() {
	i.mu.Lock()
	defer i.mu.Unlock()

	job := cron.NewChain(
		cron.Recover(zeroLogCronLogger{}),
		cron.SkipIfStillRunning(zeroLogCronLogger{}),
	).Then(cron.FuncJob(i.sweep))

	i.cron.Schedule(cron.Every(i.interval), job)
	i.cron.Start()

	log.Info().
		Dur("interval", i.interval).
		Msg("Started view reconciliation sweeps")
}

func (i *sweeperImpl) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cron.Stop()
}

func (i *sweeperImpl) sweep() {
	tx := i.tracer.BackgroundTx("view-reconciliation-sweep")
	defer tx.End()
	ctx := tx.Context()

	for _, lane := range i.lanes {
		view := lane.Projector.View()
		ids, err := i.lister.StaleViews(ctx, view, lane.AggregateType, i.chunkSize)
		if err != nil {
			log.Error().
				Err(err).
				Str("view", view).
				Msg("Failed to list stale views, skipping lane")
			continue
		}
		if len(ids) == 0 {
			continue
		}
		if log.Debug().Enabled() {
			log.Debug().
				Str("view", view).
				Int("stale", len(ids)).
				Msg("Reconciling lagging views")
		}
		for _, id := range ids {
			if err := lane.Projector.CatchUp(ctx, id); err != nil {
				log.Error().
					Err(err).
					Str("view", view).
					Str("aggregate_id", string(id)).
					Msg("Failed to reconcile view")
			}
		}
	}
}

type zeroLogCronLogger struct {
}

func (z zeroLogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	if log.Info().Enabled() {
		formatted := formatTimeValues(keysAndValues)
		log.Info().Fields(formatted).Msg(msg)
	}
}

func (z zeroLogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	if log.Error().Enabled() {
		formatted := formatTimeValues(keysAndValues)
		log.Error().Err(err).Fields(formatted).Msg(msg)
	}
}

// formatTimeValues formats any time.Time values as RFC3339 *and*
// returns the even-odd idx key-value pair slice as a map
func formatTimeValues(keysAndValues []interface{}) map[string]interface{} {
	formattedArgs := make(map[string]interface{}, len(keysAndValues)/2)
	for idx := 0; idx < len(keysAndValues); idx += 2 {
		var key string
		if s, ok := keysAndValues[idx].(string); ok {
			key = s
		} else {
			key = fmt.Sprint(keysAndValues[idx])
		}
		valueIdx := idx + 1
		if len(keysAndValues) > valueIdx {
			value := keysAndValues[valueIdx]
			if t, ok := value.(time.Time); ok {
				value = t.Format(time.RFC3339)
			}
			formattedArgs[key] = value
		}
	}
	return formattedArgs
}
