package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/dialect"
	"github.com/goibis/goibis/internal/grammar"
	"github.com/goibis/goibis/internal/types"
)

func (c *cli) keywordsCmd() *cobra.Command {
	var name string
	var depth int
	var codes bool
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "List the keywords a dialect accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if codes {
				for _, info := range types.AllDiagnosticCodes() {
					fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", info.Code, info.Phase)
				}
				return nil
			}
			d, err := ibis.ParseDialect(name)
			if err != nil {
				return err
			}
			g, err := dialect.For(d)
			if err != nil {
				return err
			}
			printRules(cmd.OutOrStdout(), g.Root.Children(), 0, depth, map[grammar.Rule]bool{})
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "dialect", "ibs", "dialect: ibs, pkg or ebd")
	cmd.Flags().IntVar(&depth, "depth", 0, "maximum nesting depth (0 = unlimited)")
	cmd.Flags().BoolVar(&codes, "diagnostics", false, "list the advisory codes usable in ignore and overrides instead")
	return cmd
}

func printRules(w io.Writer, rules []grammar.Rule, level, depth int, seen map[grammar.Rule]bool) {
	if depth > 0 && level >= depth {
		return
	}
	for _, r := range rules {
		if _, ok := r.(*grammar.CommentChar); ok {
			continue
		}
		b := r.Spec()
		var attrs []string
		if b.IsRequired() {
			attrs = append(attrs, "required")
		}
		if b.IsLabeled() {
			attrs = append(attrs, "labeled")
		}
		if b.IsListMerge() {
			attrs = append(attrs, "repeated")
		}
		if _, ok := b.DefaultValue(); ok {
			attrs = append(attrs, "default")
		}
		label := ruleLabel(r)
		if len(attrs) > 0 {
			label += " (" + strings.Join(attrs, ", ") + ")"
		}
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", level), label)

		// Rules shared between sections are expanded once per path.
		if seen[r] {
			continue
		}
		seen[r] = true
		printRules(w, b.Children(), level+1, depth, seen)
		delete(seen, r)
	}
}

func ruleLabel(r grammar.Rule) string {
	key := r.Spec().Key()
	switch r := r.(type) {
	case *grammar.Group:
		return key + ":"
	case *grammar.Param:
		if d := r.Delim(); d != "" {
			return key + " " + d
		}
		return key
	case *grammar.End:
		return "[" + key + "]"
	case *grammar.Table:
		return "[" + key + "] " + strings.Join(r.Headers(), " ")
	}
	return "[" + key + "]"
}
