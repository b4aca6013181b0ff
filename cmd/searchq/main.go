// Command searchq compiles free-text search strings against a field schema
// and runs them against records or SQL tables.
//
// Logging:
//   - Base logger is built from the --log-level and --log-format flags
//   - Logger is passed to components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
package main

import (
	"fmt"
	"os"

	"searchquery/cmd/searchq/cli"
)

var version = "dev"

func main() {
	root := cli.NewRootCommand(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
