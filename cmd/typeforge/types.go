package main

import (
	"fmt"
	"strings"

	"github.com/artpar/typeforge/bootstrap"
	"github.com/artpar/typeforge/config"
	"github.com/artpar/typeforge/core/formatter"
	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the live types",
	Long: `Boot the runtime from the configured store and list the types
installed in the registry.

Examples:
  typeforge types
  typeforge types -o yaml`,
	Args: cobra.NoArgs,
	RunE: runTypes,
}

var describeCmd = &cobra.Command{
	Use:   "describe <element-id>",
	Short: "Show a stored descriptor with its record count",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

var atomsCmd = &cobra.Command{
	Use:   "atoms <type>",
	Short: "List the records of a live type",
	Long: `List the records of a live type, restricted to the records of its
declaring descriptor. Only public attributes are shown; --csv prints the
csv projection instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runAtoms,
}

var (
	describeOnly   []string
	describeExcept []string
	atomsCSV       bool
)

func init() {
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(atomsCmd)

	describeCmd.Flags().StringSliceVar(&describeOnly, "only", nil, "keys to keep")
	describeCmd.Flags().StringSliceVar(&describeExcept, "except", nil, "keys to drop")
	atomsCmd.Flags().BoolVar(&atomsCSV, "csv", false, "print the csv projection")
}

// bootApp opens the configured store and compiles every descriptor.
// Only errors are logged, to stderr.
func bootApp(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	cfg.Logging.Level = "error"
	cfg.Logging.Format = "console"

	app, err := bootstrap.New(cfg, bootstrap.Options{Output: cmd.ErrOrStderr()})
	if err != nil {
		return nil, fmt.Errorf("error initializing: %w", err)
	}
	if err := app.Boot(cmd.Context()); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func runTypes(cmd *cobra.Command, args []string) error {
	f, err := outputFormatter()
	if err != nil {
		return err
	}
	app, err := bootApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	handles := app.Runtime.Registry().List()
	rows := make([]formatter.Row, 0, len(handles))
	for _, h := range handles {
		shape := h.Shape()
		rows = append(rows, formatter.Row{
			{Key: "name", Value: h.Name()},
			{Key: "owner", Value: h.Owner()},
			{Key: "group", Value: shape.Group},
			{Key: "primary_key", Value: shape.PrimaryKey},
			{Key: "fields", Value: h.Fields()},
			{Key: "stubs", Value: h.Stubs()},
			{Key: "bindings", Value: len(h.Bindings())},
			{Key: "static", Value: shape.Static},
			{Key: "generation", Value: h.Generation()},
		})
	}

	return f.FormatList(cmd.OutOrStdout(), "types", rows, formatter.FormatOptions{})
}

func runDescribe(cmd *cobra.Command, args []string) error {
	f, err := outputFormatter()
	if err != nil {
		return err
	}
	app, err := bootApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	view, err := app.Runtime.Describe(cmd.Context(), args[0], describeOnly, describeExcept)
	if err != nil {
		return fmt.Errorf("describe %s: %w", args[0], err)
	}
	return f.FormatRecord(cmd.OutOrStdout(), "element", view, formatter.FormatOptions{})
}

func runAtoms(cmd *cobra.Command, args []string) error {
	app, err := bootApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	records, err := app.Runtime.Atoms(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if atomsCSV {
		for _, rec := range records {
			line, err := rec.CSV()
			if err != nil {
				return err
			}
			fmt.Fprint(out, line)
		}
		return nil
	}

	f, err := outputFormatter()
	if err != nil {
		return err
	}
	rows := make([]formatter.Row, 0, len(records))
	for _, rec := range records {
		public, err := rec.Public()
		if err != nil {
			return err
		}
		rows = append(rows, append(formatter.Row{{Key: "id", Value: rec.ID}}, public...))
	}
	return f.FormatList(cmd.OutOrStdout(), strings.ToLower(args[0])+" records", rows, formatter.FormatOptions{})
}
