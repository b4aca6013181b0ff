// Package cli implements the searchq command tree: compiling, highlighting,
// and executing search strings against a field schema.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"searchquery/internal/logging"
	"searchquery/internal/schema"
	"searchquery/internal/searchlang"
)

// NewRootCommand returns the searchq root command with all subcommands
// wired in.
func NewRootCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "searchq",
		Short:         "Compile and run free-text search strings",
		Long:          "Compile free-text search strings (age>30 date>\"2 weeks ago\" michael) against a field schema and run them against JSON records or SQL tables.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("schema", "s", "schema.json", "path to the field schema file")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().String("log-format", "text", "log format: text or json")

	cmd.AddCommand(
		newCheckCmd(),
		newHighlightCmd(),
		newMatchCmd(),
		newQueryCmd(),
		newSchemaCmd(),
	)

	return cmd
}

// loggerFromCmd builds the base logger from the persistent flags on cmd.
func loggerFromCmd(cmd *cobra.Command) *slog.Logger {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	var level slog.Level
	switch strings.ToLower(levelName) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return logging.New(os.Stderr, format, level)
}

// registryFromCmd loads the field registry named by the --schema flag.
func registryFromCmd(cmd *cobra.Command) (*searchlang.Registry, error) {
	path, _ := cmd.Flags().GetString("schema")
	return schema.Load(path)
}

// compileArgs joins the positional arguments into one search string and
// compiles it.
func compileArgs(cmd *cobra.Command, args []string) (*searchlang.Search, error) {
	reg, err := registryFromCmd(cmd)
	if err != nil {
		return nil, err
	}
	return searchlang.Compile(strings.Join(args, " "), reg, nil)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportCompileError prints a caret diagnostic for position-carrying errors.
func reportCompileError(query string, err error) {
	fmt.Fprintln(os.Stderr, query)
	if pos, ok := errorPosition(err); ok && pos <= len(query) {
		fmt.Fprintln(os.Stderr, strings.Repeat(" ", pos)+"^")
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
}

func errorPosition(err error) (int, bool) {
	var pe *searchlang.ParseError
	if errors.As(err, &pe) {
		return pe.Pos, true
	}
	var ce *searchlang.CompileError
	if errors.As(err, &ce) {
		return ce.Pos, true
	}
	return 0, false
}
