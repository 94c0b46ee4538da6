package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jorgelunams/contratospoc/constants"
	"github.com/jorgelunams/contratospoc/internal/pipeline"
	"github.com/jorgelunams/contratospoc/internal/services"
)

var processFlags struct {
	event     string
	useMarker bool
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run one event end to end and print the result",
	RunE:  runProcess,
}

func init() {
	f := processCmd.Flags()
	f.StringVar(&processFlags.event, "event", "", "Path to an event JSON file, or - for stdin (required)")
	f.BoolVar(&processFlags.useMarker, "mark", false, "Claim the event id in the marker bucket instead of in memory")
	_ = processCmd.MarkFlagRequired("event")
}

func readEvent(stdin io.Reader, path string) (pipeline.Event, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return pipeline.Event{}, fmt.Errorf("read event: %w", err)
	}
	var ev pipeline.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return pipeline.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}

func runProcess(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	ev, err := readEvent(cmd.InOrStdin(), processFlags.event)
	if err != nil {
		return err
	}

	var opts []services.Option
	if !processFlags.useMarker {
		opts = append(opts, services.WithMemoryMarkers())
	}
	app, err := services.Build(cmd.Context(), cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	res := app.Processor.Process(cmd.Context(), ev)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if res.Status == constants.StatusError {
		return fmt.Errorf("event %s failed: %s", res.EventID, res.Reason)
	}
	return nil
}
