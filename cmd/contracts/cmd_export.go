package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jorgelunams/contratospoc/internal/services"
)

var exportFlags struct {
	out   string
	limit int
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write persisted contracts and fines to an XLSX workbook",
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportFlags.out, "output", "o", "contratos.xlsx", "Output file")
	f.IntVar(&exportFlags.limit, "limit", 0, "Most recent N contracts (0 = all)")
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := services.Build(cmd.Context(), cfg, logger, services.DatabaseOnly())
	if err != nil {
		return err
	}
	defer app.Close()

	data, err := app.Export.ContractsXLSX(cmd.Context(), exportFlags.limit)
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportFlags.out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", exportFlags.out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", exportFlags.out, len(data))
	return nil
}
