package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/confmode/confmode/pkg/cli"
	"github.com/confmode/confmode/pkg/schema"
	"github.com/confmode/confmode/pkg/util"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configuration scripts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bases, err := schema.Bases()
		if err != nil {
			return err
		}

		t := cli.NewTable(os.Stdout, "SCRIPT", "SUBTREE", "DEFAULTS", "DESCRIPTION")
		for _, s := range scripts() {
			defaults := "-"
			if util.ContainsString(bases, s.BasePath()) {
				defaults = "yes"
			}
			t.Row(s.Name, s.BasePath(), defaults, s.Short)
		}
		t.Flush()
		return nil
	},
}
