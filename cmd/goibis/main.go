// Command goibis checks, dumps and reformats IBIS, PKG and EBD files.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/goibis/goibis"
	"github.com/goibis/goibis/cmd/internal/cliutil"
	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/config"
)

// Exit codes.
const (
	exitOK              = 0 // success
	exitError           = 1 // user error or parse failure
	exitStrictViolation = 2 // an advisory was escalated to a failure
)

type cli struct {
	verbose    int
	trace      bool
	configPath string
	noColor    bool
	strict     bool

	cfg *config.Config
}

// exitCodeError carries a process exit code through cobra.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	c := &cli{}
	root := c.rootCmd()
	root.SetArgs(args)
	err := root.Execute()
	var ec *exitCodeError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ec):
		return ec.code
	default:
		printError("%v", err)
		return exitError
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "goibis",
		Short: "IBIS file parser and checker",
		Long: `goibis parses IBIS component (.ibs), package (.pkg) and board (.ebd)
files, reports problems and prints the parsed document tree.

The dialect follows the file extension; the [extensions] table of the
config file adds more.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c.noColor {
				cliutil.DisableColor()
			}
			return c.loadConfig()
		},
	}
	flags := root.PersistentFlags()
	flags.CountVarP(&c.verbose, "verbose", "v", "enable debug logging (repeat for trace)")
	flags.BoolVar(&c.trace, "trace", false, "enable trace logging")
	flags.StringVar(&c.configPath, "config", "", "config file (default: ./goibis.toml or $"+config.EnvVar+")")
	flags.BoolVar(&c.noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&c.strict, "strict", false, "fail on warnings")

	root.AddCommand(c.checkCmd(), c.dumpCmd(), c.formatCmd(), c.keywordsCmd(), versionCmd())
	return root
}

func (c *cli) loadConfig() error {
	path := config.Find(c.configPath, ".")
	if path == "" {
		return nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func (c *cli) setupLogger() *slog.Logger {
	if c.verbose == 0 && !c.trace {
		return nil
	}
	level := slog.LevelDebug
	if c.trace || c.verbose >= 2 {
		level = goibis.LevelTrace
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// options returns the parse options implied by flags and config.
func (c *cli) options() ([]goibis.Option, error) {
	diag, err := c.cfg.DiagnosticConfig()
	if err != nil {
		return nil, err
	}
	if c.strict {
		diag.FailAt = max(diag.FailAt, ibis.SeverityWarning)
	}
	exts, err := c.cfg.ExtensionMap(goibis.DefaultExtensions)
	if err != nil {
		return nil, err
	}
	opts := []goibis.Option{
		goibis.WithDiagnosticConfig(diag),
		goibis.WithExtensions(exts),
	}
	if logger := c.setupLogger(); logger != nil {
		opts = append(opts, goibis.WithLogger(logger))
	}
	return opts, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			version := "(devel)"
			if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
				version = info.Main.Version
			}
			fmt.Fprintf(cmd.OutOrStdout(), "goibis %s\n", version)
		},
	}
}

func printError(format string, args ...any) {
	cliutil.PrintError(format, args...)
}
