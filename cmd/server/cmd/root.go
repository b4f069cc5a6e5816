package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/terrastories/server/internal/config"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logFormat  string

	rootCmd = &cobra.Command{
		Use:   "server",
		Short: "Terrastories server - community storytelling backend",
		Long: `Terrastories server is the backend for a place-based storytelling
platform. Communities own their stories, speakers, and places; members
access them according to their role, and communities that opt in expose
their published stories publicly.`,
		// With no subcommand, run the server.
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmd.RunE(cmd, args)
		},
	}
)

// Execute runs the root command; called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (optional, uses env vars by default)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console) (default: json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(healthcheckCmd)
}

func loadConfig() (cfg config.Config, err error) {
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}
