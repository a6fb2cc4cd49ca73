package postgres

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog/log"
)

// The event log is three tables. events is the source of truth; its
// composite primary key is what turns concurrent appends into unique
// violations. snapshots and views are both rebuildable from events.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		aggregate_type TEXT        NOT NULL,
		aggregate_id   TEXT        NOT NULL,
		seq            BIGINT      NOT NULL CHECK (seq > 0),
		event_type     TEXT        NOT NULL,
		payload        JSONB       NOT NULL,
		recorded_at    TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (aggregate_type, aggregate_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		aggregate_type TEXT        NOT NULL,
		aggregate_id   TEXT        NOT NULL,
		seq            BIGINT      NOT NULL,
		state          JSONB       NOT NULL,
		taken_at       TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (aggregate_type, aggregate_id)
	)`,
	`CREATE TABLE IF NOT EXISTS views (
		view_name    TEXT        NOT NULL,
		aggregate_id TEXT        NOT NULL,
		last_seq     BIGINT      NOT NULL,
		payload      JSONB       NOT NULL,
		modified_at  TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (view_name, aggregate_id)
	)`,
}

// SetUp creates the event log tables if they do not exist. It is safe
// to run on every boot and is what the setup command invokes.
func SetUp(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	log.Info().Msg("Event log schema is in place")
	return nil
}
