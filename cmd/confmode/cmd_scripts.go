package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/confmode/confmode/pkg/audit"
	"github.com/confmode/confmode/pkg/cli"
	"github.com/confmode/confmode/pkg/confmode"
	"github.com/confmode/confmode/pkg/confmode/radius"
	"github.com/confmode/confmode/pkg/confmode/rip"
	"github.com/confmode/confmode/pkg/confmode/segmentrouting"
	"github.com/confmode/confmode/pkg/util"
)

// scripts lists every configuration script, in help order.
func scripts() []confmode.Script {
	return []confmode.Script{
		rip.Script(),
		radius.Script(),
		segmentrouting.Script(),
	}
}

func findScript(name string) (confmode.Script, error) {
	var names []string
	for _, s := range scripts() {
		if s.Name == name {
			return s, nil
		}
		names = append(names, s.Name)
	}
	return confmode.Script{}, fmt.Errorf("unknown script %q (valid: %v)", name, names)
}

func scriptCommand(s confmode.Script) *cobra.Command {
	return &cobra.Command{
		Use:   s.Name,
		Short: s.Short,
		Long: fmt.Sprintf(`Apply the %q subtree.

Without -x the script prints what it would change: the FRR diff, the files
it would write and the commands it would run.`, s.BasePath()),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd.Context(), s)
		},
	}
}

// runScript runs s against the configured stores and records the run in
// the audit log.
func runScript(ctx context.Context, s confmode.Script) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	event := audit.NewEvent(currentUser(), s.Name, s.BasePath()).
		WithHost(frrHost).
		WithExecute(executeMode)

	err := func() error {
		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := s.Run(ctx, sess.env); err != nil {
			return err
		}
		if saveMode {
			if err := sess.save(ctx, s.Base); err != nil {
				return err
			}
			event.WithSaved(true)
		}
		return nil
	}()

	event.WithResult(err).WithDuration(time.Since(start))
	if lerr := audit.Log(event); lerr != nil {
		util.Warnf("audit: %v", lerr)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, cli.DotPad(s.Name, 24)+" "+cli.Status(nil, executeMode))
	printDryRunNotice()
	return nil
}

// Helper to print dry-run notice
func printDryRunNotice() {
	if !executeMode {
		fmt.Fprintln(os.Stderr, "\n"+cli.Yellow("DRY-RUN: No changes applied. Use -x to execute."))
	}
}
