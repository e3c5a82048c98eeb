package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goibis/goibis"
	"github.com/goibis/goibis/cmd/internal/cliutil"
)

func (c *cli) formatCmd() *cobra.Command {
	var output string
	var inPlace bool
	cmd := &cobra.Command{
		Use:   "format FILE",
		Short: "Rewrite a file in normalized form",
		Long: `Parse FILE and write it back in normalized form: keywords in grammar
order, one space between columns and comments dropped.

Entries derived while reading, such as default thresholds, are not
written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inPlace && output != "" {
				return fmt.Errorf("--in-place and --output are mutually exclusive")
			}
			opts, err := c.options()
			if err != nil {
				return err
			}
			path := args[0]
			doc, err := goibis.ParseFile(cmd.Context(), path, opts...)
			if err != nil {
				cliutil.PrintFailure(cmd.ErrOrStderr(), path, err)
				return &exitCodeError{code: exitError}
			}
			var buf bytes.Buffer
			if err := goibis.Write(&buf, doc, opts...); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if inPlace {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				return os.WriteFile(path, buf.Bytes(), info.Mode().Perm())
			}
			out, cleanup, err := cliutil.GetOutput(output)
			if err != nil {
				return err
			}
			defer cleanup()
			_, err = out.Write(buf.Bytes())
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVarP(&inPlace, "in-place", "w", false, "overwrite FILE")
	return cmd
}
