package main

import (
	"errors"

	"github.com/cwrk-planet/meeting-service/config"
	"github.com/cwrk-planet/meeting-service/internal/postgres"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded Postgres schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, done, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer done()

			if cfg.Storage.Driver != config.DriverPostgres {
				return errors.New("migrate: storage.driver is not postgres")
			}
			db, err := openPostgres(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			return postgres.Migrate(cmd.Context(), db)
		},
	}
}
