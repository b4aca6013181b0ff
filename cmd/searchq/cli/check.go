package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <query>...",
		Short: "Compile a search string and show what it resolved to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			s, err := compileArgs(cmd, args)
			if err != nil {
				reportCompileError(query, err)
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return printJSON(s.Meta())
			}

			if s.Expr != nil {
				fmt.Println("expr:", s.Expr)
			} else {
				fmt.Println("expr: (match all)")
			}
			if len(s.Keys) > 0 {
				fmt.Println("keys:", strings.Join(s.Keys, ", "))
			}
			for _, k := range s.Order {
				dir := "asc"
				if k.Desc {
					dir = "desc"
				}
				fmt.Printf("order: %s %s\n", k.Field.Key, dir)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print search metadata as JSON")
	return cmd
}
