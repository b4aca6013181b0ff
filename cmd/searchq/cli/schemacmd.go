package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"searchquery/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the field schema file",
	}
	cmd.AddCommand(
		newSchemaInitCmd(),
		newSchemaShowCmd(),
	)
	return cmd
}

func newSchemaInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter schema file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("schema")

			starter := schema.Schema{
				PartialKeys: true,
				Fields: []schema.FieldSpec{
					{Key: "name", Type: "string", Desc: "Full name", Generic: true},
					{Key: "age", Type: "number"},
					{Key: "date", Column: "created_at", Type: "date", Desc: "Creation time"},
					{Key: "active", Type: "bool"},
				},
			}
			if err := schema.Save(path, starter); err != nil {
				return err
			}

			loggerFromCmd(cmd).Info("schema written", "path", path)
			return nil
		},
	}
}

func newSchemaShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List the searchable fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registryFromCmd(cmd)
			if err != nil {
				return err
			}
			for _, f := range reg.Fields() {
				generic := ""
				if f.Generic {
					generic = " (free-text)"
				}
				fmt.Printf("%-12s %-8s %s%s\n", f.Key, f.Type, f.Desc, generic)
			}
			return nil
		},
	}
}
