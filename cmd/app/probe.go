package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"telegram-storefront/internal/infra/logging"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check the state store and the commerce credentials, then exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := logging.New(cfg.Log, cfg.Runtime.Dev)

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		in, err := buildInfra(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer in.Close()

		out := cmd.OutOrStdout()
		failed := false

		if err := in.states.Ping(ctx); err != nil {
			failed = true
			fmt.Fprintf(out, "state store (%s): FAIL %v\n", cfg.State.Backend, err)
		} else {
			fmt.Fprintf(out, "state store (%s): ok\n", cfg.State.Backend)
		}

		if _, err := in.tokens.AccessToken(ctx); err != nil {
			failed = true
			fmt.Fprintf(out, "commerce token (%s): FAIL %v\n", cfg.Commerce.BaseURL, err)
		} else {
			fmt.Fprintf(out, "commerce token (%s): ok\n", cfg.Commerce.BaseURL)
		}

		if failed {
			return fmt.Errorf("probe failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
