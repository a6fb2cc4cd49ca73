package server

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	ginzerolog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.elastic.co/apm/module/apmgin"

	accountController "github.com/lloydmeta/banques/internal/api/controllers/account"
	transferController "github.com/lloydmeta/banques/internal/api/controllers/transfer"
	"github.com/lloydmeta/banques/internal/config"
	"github.com/lloydmeta/banques/internal/domain/account"
	"github.com/lloydmeta/banques/internal/domain/eventlog"
	"github.com/lloydmeta/banques/internal/domain/transfer"
	apmTracing "github.com/lloydmeta/banques/internal/infra/apm/tracing"
	"github.com/lloydmeta/banques/internal/infra/cron/reconcile"
	"github.com/lloydmeta/banques/internal/infra/postgres"
	"github.com/lloydmeta/banques/internal/infra/server/binding/validation"
	"github.com/lloydmeta/banques/internal/infra/server/routing"
)

// Fallbacks for settings left at zero in the config file.
const (
	defaultConflictRetryTimes = uint(3)
	defaultSnapshotEvery      = uint(100)
	defaultSweepInterval      = 30 * time.Second
	defaultSweepChunkSize     = uint(100)
)

type RoutesHandler interface {
	RegisterRoutes(engine *gin.Engine)
}

// Components holds the fully wired application: storage, executors,
// projectors, controllers, routes and the reconciliation sweeper.
type Components struct {
	appConfig *config.App

	db *sql.DB

	ginEngine *gin.Engine

	sweeper reconcile.Sweeper

	AccountsExecutor  *eventlog.Executor[account.Account, account.Command, account.Event]
	TransfersExecutor *eventlog.Executor[transfer.Transfer, transfer.Command, transfer.Event]
	TransfersProcess  *transfer.Process
}

// NewComponents wires everything together based on the given config.
func NewComponents(appConfig *config.App) (*Components, error) {
	db, err := postgres.NewClient(appConfig.Postgres)
	if err != nil {
		return nil, err
	}

	eventStore := postgres.NewEventStore(db)
	snapshotStore := postgres.NewSnapshotStore(db)
	viewStore := postgres.NewViewStore(db)

	accountProjector := account.NewProjector(eventStore, viewStore)
	transferProjector := transfer.NewProjector(eventStore, viewStore)

	accountsExecutor := eventlog.NewExecutor[account.Account, account.Command, account.Event](
		account.Behavior{DedupTTL: account.Timestamp(appConfig.Accounts.DedupTransactionTtl)},
		account.Codec{},
		eventStore,
		snapshotStore,
		account.StateCodec{},
		[]eventlog.Projector{accountProjector},
		executorSettings(appConfig.Accounts.Defaults),
	)
	transfersExecutor := eventlog.NewExecutor[transfer.Transfer, transfer.Command, transfer.Event](
		transfer.Behavior{},
		transfer.Codec{},
		eventStore,
		snapshotStore,
		transfer.StateCodec{},
		[]eventlog.Projector{transferProjector},
		executorSettings(appConfig.Transfers.Defaults),
	)
	transfersProcess := transfer.NewProcess(accountsExecutor, transfersExecutor)

	sweepInterval := appConfig.Reconciler.RunInterval
	if sweepInterval == 0 {
		sweepInterval = defaultSweepInterval
	}
	sweepChunkSize := appConfig.Reconciler.ScanChunkSize
	if sweepChunkSize == 0 {
		sweepChunkSize = defaultSweepChunkSize
	}
	sweeper := reconcile.NewSweeper(
		viewStore,
		[]reconcile.Lane{
			{AggregateType: account.AggregateType, Projector: accountProjector},
			{AggregateType: transfer.AggregateType, Projector: transferProjector},
		},
		apmTracing.NewTracer(),
		sweepInterval,
		sweepChunkSize,
	)

	routesHandlers := []RoutesHandler{
		&routing.AccountsRoutesHandler{
			AuthSettings: appConfig.Auth,
			Controller:   accountController.New(accountsExecutor, viewStore),
		},
		&routing.TransfersRoutesHandler{
			AuthSettings: appConfig.Auth,
			Controller:   transferController.New(transfersProcess, transfersExecutor, viewStore),
		},
		&routing.HealthRoutesHandler{Pinger: db},
	}

	ginEngine := buildGinEngine(routesHandlers)

	return &Components{
		appConfig:         appConfig,
		db:                db,
		ginEngine:         ginEngine,
		sweeper:           sweeper,
		AccountsExecutor:  accountsExecutor,
		TransfersExecutor: transfersExecutor,
		TransfersProcess:  transfersProcess,
	}, nil
}

// Run starts the reconciliation sweeps and the HTTP server, blocking
// until a termination signal arrives, then shuts down gracefully.
func (c *Components) Run() {
	c.sweeper.Start()

	srv := &http.Server{
		Addr:    c.appConfig.BindAddress,
		Handler: c.ginEngine,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start up")
		}
	}()
	log.Info().Str("address", c.appConfig.BindAddress).Msg("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutdown signal received, draining")

	c.sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), c.appConfig.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shut down")
	}
	if err := c.db.Close(); err != nil {
		log.Error().Err(err).Msg("Could not close the database pool")
	}
	log.Info().Msg("Server exited")
}

// Db exposes the underlying pool, for the setup command.
func (c *Components) Db() *sql.DB {
	return c.db
}

func executorSettings(defaults config.StreamDefaults) eventlog.Settings {
	settings := eventlog.Settings{
		ConflictRetryTimes: defaults.ConflictRetryTimes,
		SnapshotEvery:      defaults.SnapshotEvery,
	}
	if settings.ConflictRetryTimes == 0 {
		settings.ConflictRetryTimes = defaultConflictRetryTimes
	}
	if settings.SnapshotEvery == 0 {
		settings.SnapshotEvery = defaultSnapshotEvery
	}
	return settings
}

func buildGinEngine(routesHandlers []RoutesHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	validation.SetUpValidators()
	ginEngine := gin.New()
	ginEngine.Use(ginzerolog.SetLogger())
	ginEngine.Use(gin.Recovery())
	ginEngine.Use(gzip.Gzip(gzip.DefaultCompression))
	ginEngine.Use(apmgin.Middleware(ginEngine))

	ginEngine.NoRoute(routing.NoRoute)
	ginEngine.NoMethod(routing.NoMethod)

	for _, handler := range routesHandlers {
		handler.RegisterRoutes(ginEngine)
	}
	return ginEngine
}
