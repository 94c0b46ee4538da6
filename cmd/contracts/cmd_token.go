package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jorgelunams/contratospoc/internal/server"
)

var tokenFlags struct {
	source string
	ttl    time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for POST /events",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Server.JWTSecret == "" {
			return errors.New("SERVER_JWT_SECRET is not set")
		}
		tok, exp, err := server.IssueToken(tokenFlags.source, cfg.Server.JWTSecret, tokenFlags.ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.Format(time.RFC3339))
		return nil
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenFlags.source, "source", "eventgrid", "Source recorded in the token")
	f.DurationVar(&tokenFlags.ttl, "ttl", 24*time.Hour, "Token lifetime")
}
