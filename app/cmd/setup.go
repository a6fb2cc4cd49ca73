package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lloydmeta/banques/internal/infra/postgres"
	"github.com/lloydmeta/banques/internal/infra/server"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run banques setup",
	Long:  "Applies the event log schema to the configured Postgres database",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		db, err := postgres.NewClient(appConfig.Postgres)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not set up the Postgres client")
		}
		defer func() {
			_ = db.Close()
		}()

		if err := server.NewSetup(db).RunIfNeeded(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply the event log schema")
		}
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
