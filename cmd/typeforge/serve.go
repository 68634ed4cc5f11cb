package main

import (
	"context"
	"fmt"
	"os"

	"github.com/artpar/typeforge/bootstrap"
	"github.com/artpar/typeforge/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Boot the runtime and serve diagnostics",
	Long: `Boot the typeforge runtime.

The server will:
  - Load configuration from typeforge.yaml (or --config)
  - Or load configuration from TYPEFORGE_* environment variables
  - Open the descriptor store
  - Compile every stored descriptor into a live type
  - Serve the read-only diagnostics API and /metrics

Environment variables:
  TYPEFORGE_DATABASE_DRIVER   - sqlite or memory (default: sqlite)
  TYPEFORGE_DATABASE_DSN      - Database path (default: typeforge.db)
  TYPEFORGE_SERVER_PORT       - Server port (default: 8080)
  TYPEFORGE_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  typeforge serve
  typeforge serve --config /etc/typeforge/config.yaml
  typeforge serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	hasConfigFile := false
	if _, err := os.Stat(cfgFile); err == nil {
		hasConfigFile = true
	}

	var (
		app *bootstrap.App
		err error
	)

	if hasConfigFile && hotReload {
		// Hot reload only works with a config file
		holder, herr := config.NewHolder(cfgFile, zerolog.New(os.Stderr).With().Timestamp().Logger())
		if herr != nil {
			return fmt.Errorf("error loading config: %w", herr)
		}
		app, err = bootstrap.New(holder.Get(), bootstrap.Options{Holder: holder})
	} else {
		cfg, loadErr := config.LoadWithFallback(cfgFile)
		if loadErr != nil {
			return fmt.Errorf("error loading config: %w", loadErr)
		}
		if !hasConfigFile {
			fmt.Fprintln(cmd.ErrOrStderr(), "Running with environment variables (no config file)")
		}
		app, err = bootstrap.New(cfg, bootstrap.Options{})
	}
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run blocks until shutdown
	return app.Run(context.Background())
}
