package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/enrich-cli/internal/alias"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List recognized input column names and their aliases",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, canonical := range alias.Canonicals() {
			fmt.Printf("%-18s %s\n", canonical, strings.Join(alias.AliasesFor(canonical), ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
