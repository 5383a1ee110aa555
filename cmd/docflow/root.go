package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lablia/docflow/internal/config"
	"github.com/lablia/docflow/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "docflow",
	Short: "Docflow is an agent pipeline engine for document extraction",
	Long: `Docflow orchestrates model agents that read identity documents and
fiscal invoices, extract structured data and answer about it in chat.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
}

// mustSetup loads configuration and builds a logger, exiting on failure.
// Server commands log JSON, the chat command overrides this with a
// stderr text logger.
func mustSetup(cmd *cobra.Command, jsonLogs bool) (config.Config, *slog.Logger) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	level := logging.ParseLevel(cfg.App.LogLevel)
	if jsonLogs {
		return cfg, logging.NewJSON(level)
	}
	return cfg, logging.New(level)
}
