package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jorgelunams/contratospoc/internal/services"
)

var dbhealthCmd = &cobra.Command{
	Use:   "dbhealth",
	Short: "Ping the database and count persisted contracts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Database.AutoMigrate = false
		app, err := services.Build(cmd.Context(), cfg, logger, services.DatabaseOnly())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Health(cmd.Context()); err != nil {
			return fmt.Errorf("DB health: FAIL (%w)", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "DB health: OK")

		rows, err := app.Repo.List(cmd.Context(), 5)
		if err != nil {
			return fmt.Errorf("listing contracts: %w", err)
		}
		fmt.Fprintf(out, "latest contracts: %d\n", len(rows))
		for _, r := range rows {
			fmt.Fprintf(out, "- [%d] %s (%s)\n", r.ID, r.Contract.Kind, r.Company.Name)
		}
		return nil
	},
}
