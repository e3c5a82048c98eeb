package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goibis/goibis"
	"github.com/goibis/goibis/cmd/internal/cliutil"
	"github.com/goibis/goibis/ibis"
)

type dumpFlags struct {
	format     string
	output     string
	compact    bool
	withDiags  bool
	sectionKey string
}

// dumpDoc is the serialized form of a document.
type dumpDoc struct {
	Name        string           `json:"name" yaml:"name"`
	Dialect     string           `json:"dialect" yaml:"dialect"`
	Diagnostics []dumpDiagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Root        any              `json:"root" yaml:"root"`
}

type dumpDiagnostic struct {
	Severity string `json:"severity" yaml:"severity"`
	Code     string `json:"code" yaml:"code"`
	Message  string `json:"message" yaml:"message"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty"`
}

func (c *cli) dumpCmd() *cobra.Command {
	var f dumpFlags
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the parsed document tree",
		Long: `Parse FILE and print its document tree as JSON or YAML.

Keys are written in canonical form and in file order. --section limits
the output to one top-level keyword, such as "Model" or "Component".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options()
			if err != nil {
				return err
			}
			doc, err := goibis.ParseFile(cmd.Context(), args[0], opts...)
			if err != nil {
				cliutil.PrintFailure(cmd.ErrOrStderr(), args[0], err)
				return &exitCodeError{code: exitError}
			}
			out, cleanup, err := cliutil.GetOutput(f.output)
			if err != nil {
				return err
			}
			defer cleanup()
			return dump(out, doc, f)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.format, "format", "json", "output format: json or yaml")
	flags.StringVarP(&f.output, "output", "o", "", "output file (default: stdout)")
	flags.BoolVar(&f.compact, "compact", false, "compact JSON without indentation")
	flags.BoolVar(&f.withDiags, "diagnostics", false, "include diagnostics")
	flags.StringVar(&f.sectionKey, "section", "", "dump only this top-level keyword")
	return cmd
}

func dump(w io.Writer, doc *ibis.Document, f dumpFlags) error {
	out := dumpDoc{
		Name:    doc.Name,
		Dialect: doc.Dialect.String(),
		Root:    doc.Root,
	}
	if f.sectionKey != "" {
		v, ok := doc.Root.Get(f.sectionKey)
		if !ok {
			return fmt.Errorf("%s: no [%s] entry", doc.Name, f.sectionKey)
		}
		out.Root = v
	}
	if f.withDiags {
		for _, d := range doc.Diagnostics {
			out.Diagnostics = append(out.Diagnostics, dumpDiagnostic{
				Severity: d.Severity.String(),
				Code:     d.Code,
				Message:  d.Message,
				Line:     d.Line,
			})
		}
	}

	switch f.format {
	case "json":
		var data []byte
		var err error
		if f.compact {
			data, err = json.Marshal(out)
		} else {
			data, err = json.MarshalIndent(out, "", "  ")
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", f.format)
	}
}
