package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"searchquery/internal/searchlang"
	"searchquery/internal/sink/pgsink"
	"searchquery/internal/sink/sqlsink"
)

// selector is the common surface of the SQL sinks.
type selector interface {
	Select(ctx context.Context, table string, search *searchlang.Search) ([]searchlang.Record, error)
	Close() error
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <query>...",
		Short: "Run a search string against a SQL table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			s, err := compileArgs(cmd, args)
			if err != nil {
				reportCompileError(query, err)
				return err
			}

			table, _ := cmd.Flags().GetString("table")
			logger := loggerFromCmd(cmd)

			store, err := openStore(cmd, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.Select(cmd.Context(), table, s)
			if err != nil {
				return err
			}
			for _, r := range recs {
				if err := printJSON(r); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d row(s)\n", len(recs))
			return nil
		},
	}

	cmd.Flags().String("db", "", "SQLite database path")
	cmd.Flags().String("pg", "", "PostgreSQL DSN (overrides --db)")
	cmd.Flags().String("table", "", "table to search")
	cmd.MarkFlagRequired("table")

	return cmd
}

// openStore picks the sink from the --pg and --db flags.
func openStore(cmd *cobra.Command, logger *slog.Logger) (selector, error) {
	if dsn, _ := cmd.Flags().GetString("pg"); dsn != "" {
		return pgsink.Connect(cmd.Context(), dsn, logger)
	}
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		return sqlsink.Open(path, logger)
	}
	return nil, fmt.Errorf("either --db or --pg is required")
}
