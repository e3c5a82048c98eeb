package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/goibis/goibis"
	"github.com/goibis/goibis/cmd/internal/cliutil"
	"github.com/goibis/goibis/ibis"
)

func (c *cli) checkCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Parse files and report diagnostics",
		Long: `Parse each file and print its diagnostics.

Exit status is 1 when a file fails to parse and 2 when files fail only
because advisories were escalated by --strict or the fail_at setting.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options()
			if err != nil {
				return err
			}
			return c.check(cmd.Context(), cmd, args, quiet, opts)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print failures only")
	return cmd
}

func (c *cli) check(ctx context.Context, cmd *cobra.Command, files []string, quiet bool, opts []goibis.Option) error {
	out := cmd.OutOrStdout()
	code := exitOK
	for _, path := range files {
		doc, err := goibis.ParseFile(ctx, path, opts...)
		if err != nil {
			cliutil.PrintFailure(out, path, err)
			switch {
			case !errors.Is(err, ibis.ErrEscalated):
				code = exitError
			case code == exitOK:
				code = exitStrictViolation
			}
			continue
		}
		if quiet {
			continue
		}
		for _, d := range doc.Diagnostics {
			cliutil.PrintDiagnostic(out, d)
		}
		if len(doc.Diagnostics) == 0 {
			cliutil.OK(out, path)
		}
	}
	if code != exitOK {
		return &exitCodeError{code: code}
	}
	return nil
}
