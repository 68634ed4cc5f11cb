package main

import (
	"context"
	"fmt"
	"os"

	"github.com/artpar/typeforge/config"
	"github.com/artpar/typeforge/core/storage"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration before deployment",
	Long: `Validate the typeforge configuration file.

Checks:
  - YAML syntax is valid
  - Values are within range
  - Database is writable (optional)

Examples:
  typeforge config check
  typeforge config check --config /etc/typeforge/config.yaml --check-database`,
	Args: cobra.NoArgs,
	RunE: runConfigCheck,
}

var checkDatabase bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)

	configCheckCmd.Flags().BoolVar(&checkDatabase, "check-database", false, "check if the database is writable")
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	fmt.Fprintf(out, "  %s Database: %s (%s)\n", checkMark, cfg.Database.DSN, cfg.Database.Driver)
	if cfg.Server.Enabled {
		fmt.Fprintf(out, "  %s Diagnostics: %s\n", checkMark, cfg.Server.Addr())
	} else {
		fmt.Fprintf(out, "  %s Diagnostics: disabled\n", checkMark)
	}
	fmt.Fprintf(out, "  %s Log level: %s (%s)\n", checkMark, cfg.Logging.Level, cfg.Logging.Format)
	fmt.Fprintf(out, "  %s Default locale: %s\n", checkMark, cfg.I18n.DefaultLocale)

	if checkDatabase && cfg.Database.Driver == "sqlite" {
		if err := checkDatabaseWritable(cmd.Context(), cfg.Database.DSN); err != nil {
			fmt.Fprintf(out, "  %s Database writable\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s Database writable\n", checkMark)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func checkDatabaseWritable(ctx context.Context, dsn string) error {
	store, err := storage.NewSQLiteStore(dsn)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Ping(ctx)
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
