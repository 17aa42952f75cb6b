package main

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/warehouse/internal/config"
	"github.com/JonMunkholm/warehouse/internal/store"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply bronze, silver and load log schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.RequireDatabase(); err != nil {
				return withCode(exitFatal, err)
			}
			return withCode(exitFatal, store.Migrate(cfg.Database.URL))
		},
	}
}
