package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"searchquery/internal/searchlang"
)

func newMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <query>...",
		Short: "Filter JSON records from stdin with a search string",
		Long:  "Read one JSON object per line from stdin and write back the lines the compiled search matches.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			s, err := compileArgs(cmd, args)
			if err != nil {
				reportCompileError(query, err)
				return err
			}
			logger := loggerFromCmd(cmd)

			in, matched := 0, 0
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
			for scanner.Scan() {
				line := scanner.Bytes()
				if len(line) == 0 {
					continue
				}
				in++

				var rec searchlang.Record
				if err := json.Unmarshal(line, &rec); err != nil {
					return fmt.Errorf("line %d: %w", in, err)
				}
				if s.Match(rec) {
					matched++
					fmt.Println(string(line))
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}

			logger.Debug("match finished", "records", in, "matched", matched)
			return nil
		},
	}
}
