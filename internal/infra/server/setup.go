package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/lloydmeta/banques/internal/infra/postgres"
)

// Setup abstracts away:
//
// 1. Setting up the environment for running banques
// 2. Checking that things are set up
type Setup interface {

	// Check returns an error if all the necessary setup is not complete
	Check(ctx context.Context) error

	// RunIfNeeded attempts to run the subroutines necessary, no more no less
	RunIfNeeded(ctx context.Context) error
}

type setupImpl struct {
	db *sql.DB
}

// NewSetup returns a Setup implementation
func NewSetup(db *sql.DB) Setup {
	return &setupImpl{db: db}
}

var requiredTables = []string{"events", "snapshots", "views"}

func (i *setupImpl) Check(ctx context.Context) error {
	if err := i.db.PingContext(ctx); err != nil {
		return err
	}
	for _, table := range requiredTables {
		var regclass sql.NullString
		err := i.db.QueryRowContext(ctx, `SELECT to_regclass($1)`, table).Scan(&regclass)
		if err != nil {
			return err
		}
		if !regclass.Valid {
			return TablesNotInstalled{Missing: table}
		}
	}
	return nil
}

func (i *setupImpl) RunIfNeeded(ctx context.Context) error {
	if err := i.Check(ctx); err != nil {
		if _, tablesMissing := err.(TablesNotInstalled); !tablesMissing {
			return err
		}
		log.Info().Msg("Setting up the event log schema")
		if err := postgres.SetUp(ctx, i.db); err != nil {
			log.Error().Err(err).Msg("Could not set up the event log schema")
			return err
		}
	}
	log.Info().Msg("Setup complete")
	return nil
}

// TablesNotInstalled is returned when the event log schema has not been
// applied yet.
type TablesNotInstalled struct {
	Missing string
}

func (t TablesNotInstalled) Error() string {
	return fmt.Sprintf("Table [%s] does not exist; run setup", t.Missing)
}
