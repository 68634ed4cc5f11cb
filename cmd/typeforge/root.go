package main

import (
	"fmt"
	"os"

	"github.com/artpar/typeforge/core/formatter"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile      string
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "typeforge",
	Short: "Compile stored schema descriptors into live runtime types",
	Long: `typeforge compiles declarative schema descriptors into runtime types.

Descriptors are kept in the configured store. At startup every stored
descriptor is compiled and installed in the type registry; records of a
type are scoped to the descriptor that declares it.

Quick start:
  typeforge lint schemas/*.yaml   # Check descriptor files
  typeforge serve                 # Boot and serve diagnostics

Inspection:
  typeforge types                 # List live types
  typeforge config check          # Validate configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "typeforge.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: "+fmt.Sprint(formatter.DefaultRegistry.List()))
}

// outputFormatter returns the formatter selected by --output.
func outputFormatter() (formatter.Formatter, error) {
	return formatter.Lookup(outputFormat)
}
