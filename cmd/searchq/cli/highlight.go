package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"searchquery/internal/searchlang"
)

// ansiColors maps span roles to ANSI SGR codes for terminal output.
var ansiColors = map[searchlang.SpanRole]string{
	searchlang.RoleKey:      "36", // cyan
	searchlang.RoleOperator: "33", // yellow
	searchlang.RoleValue:    "32", // green
	searchlang.RoleQuoted:   "32",
	searchlang.RoleKeyword:  "35", // magenta
	searchlang.RoleNeg:      "31", // red
	searchlang.RoleError:    "41", // red background
}

func newHighlightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "highlight <query>...",
		Short: "Tokenize a search string into styled spans",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spans := searchlang.Highlight(strings.Join(args, " "))

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return printJSON(spans)
			}

			for _, s := range spans {
				if code, ok := ansiColors[s.Role]; ok {
					fmt.Printf("\x1b[%sm%s\x1b[0m", code, s.Text)
				} else {
					fmt.Print(s.Text)
				}
			}
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print spans as JSON")
	return cmd
}
