package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/confmode/confmode/pkg/cli"
	"github.com/confmode/confmode/pkg/configtree"
	"github.com/confmode/confmode/pkg/schema"
)

var showDefaults bool

var showCmd = &cobra.Command{
	Use:   "show <script>",
	Short: "Print the configuration a script would render",
	Long: `Run a script's extract, verify and generate stages and print the
rendered text. Nothing is applied.

With --defaults, print the schema defaults of the script's subtree instead.

Examples:
  confmode -c config.yaml show rip
  confmode show radius --defaults`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := findScript(args[0])
		if err != nil {
			return err
		}

		if showDefaults {
			return printDefaults(s.Base)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		text, err := s.Render(ctx, sess.env)
		if err != nil {
			return err
		}
		if text == "" {
			fmt.Fprintln(os.Stderr, cli.Dim(fmt.Sprintf("# %s: nothing to render", s.Name)))
			return nil
		}
		fmt.Print(text)
		return nil
	},
}

func printDefaults(base []string) error {
	d, err := schema.Defaults(base...)
	if err != nil {
		return err
	}
	tree := configtree.New()
	if err := tree.Set(d, base...); err != nil {
		return err
	}
	data, err := configtree.MarshalYAML(tree)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func init() {
	showCmd.Flags().BoolVar(&showDefaults, "defaults", false, "Print the subtree defaults")
}
