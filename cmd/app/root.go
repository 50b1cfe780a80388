package main

import (
	"github.com/spf13/cobra"

	"telegram-storefront/internal/config"
)

var rootCmd = &cobra.Command{
	Use:          "storefront",
	Short:        "Telegram storefront bot",
	Long:         `Runs the conversational shop: catalog browsing, cart and e-mail checkout over Telegram.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.yaml", "path to YAML config file")
	rootCmd.PersistentFlags().Bool("dev", false, "developer mode: console logs, panic on transition config errors")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	dev, _ := cmd.Flags().GetBool("dev")
	return config.LoadConfig(path, dev)
}
