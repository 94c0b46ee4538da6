package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jorgelunams/contratospoc/internal/services"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded schema migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Database.AutoMigrate = true
		db, err := services.OpenDB(cmd.Context(), cfg.Database, logger)
		if err != nil {
			return err
		}
		db.Close(logger)
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}
