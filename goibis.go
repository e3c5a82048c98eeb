package goibis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/dialect"
	"github.com/goibis/goibis/internal/emit"
	"github.com/goibis/goibis/internal/parser"
	"github.com/goibis/goibis/internal/types"
)

// ErrNoSources is returned when ParseAll is called without a source.
var ErrNoSources = errors.New("no IBIS sources provided")

// LevelTrace is a custom log level more verbose than Debug.
// Use for per-line logging (keyword open, close and finish).
// Enable with: &slog.HandlerOptions{Level: slog.Level(-8)}
const LevelTrace = types.LevelTrace

// Option configures Parse and its variants.
type Option func(*config)

type config struct {
	logger      *slog.Logger
	diagConfig  ibis.DiagnosticConfig
	dialect     ibis.Dialect
	dialectSet  bool
	name        string
	extensions  map[string]ibis.Dialect
	noHeuristic bool
}

func newConfig(opts []Option) config {
	cfg := config{
		diagConfig: ibis.DefaultConfig(),
		extensions: DefaultExtensions,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithLogger sets the logger for debug/trace output.
// If not set, no logging occurs (zero overhead).
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithDiagnosticConfig sets advisory filtering and escalation.
func WithDiagnosticConfig(cfg ibis.DiagnosticConfig) Option {
	return func(c *config) { c.diagConfig = cfg }
}

// WithStrictness promotes every warning to a parse failure.
func WithStrictness() Option {
	return func(c *config) { c.diagConfig.FailAt = ibis.SeverityWarning }
}

// WithDialect selects the grammar, overriding detection by extension.
func WithDialect(d ibis.Dialect) Option {
	return func(c *config) {
		c.dialect = d
		c.dialectSet = true
	}
}

// WithName sets the source name reported in diagnostics and errors.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithExtensions replaces the extension to dialect mapping used by
// ParseFile, ParseFS and ParseAll.
func WithExtensions(exts map[string]ibis.Dialect) Option {
	return func(c *config) { c.extensions = exts }
}

// WithNoHeuristic makes ParseAll parse every listed file, even ones
// that do not look like IBIS text.
func WithNoHeuristic() Option {
	return func(c *config) { c.noHeuristic = true }
}

// Parse reads one document from r. The dialect defaults to IBS unless
// WithDialect is given.
//
// Example:
//
//	doc, err := goibis.Parse(ctx, f,
//	    goibis.WithDialect(ibis.DialectPKG),
//	    goibis.WithLogger(slog.Default()),
//	)
func Parse(ctx context.Context, r io.Reader, opts ...Option) (*ibis.Document, error) {
	cfg := newConfig(opts)
	return cfg.parse(ctx, r, nil)
}

// ParseFile opens and parses path, choosing the dialect from its
// extension. An unknown extension is parsed as IBS with an advisory.
func ParseFile(ctx context.Context, path string, opts ...Option) (*ibis.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg := newConfig(opts)
	if cfg.name == "" {
		cfg.name = path
	}
	pre, err := cfg.detect(path)
	if err != nil {
		return nil, err
	}
	return cfg.parse(ctx, f, pre)
}

// ParseFS is ParseFile over an fs.FS such as embed.FS.
func ParseFS(ctx context.Context, fsys fs.FS, name string, opts ...Option) (*ibis.Document, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg := newConfig(opts)
	if cfg.name == "" {
		cfg.name = name
	}
	pre, err := cfg.detect(name)
	if err != nil {
		return nil, err
	}
	return cfg.parse(ctx, f, pre)
}

// Write renders doc as IBIS text in its dialect. Parsing the output
// yields a document equal to doc.
func Write(w io.Writer, doc *ibis.Document, opts ...Option) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ibis.ErrUnsupported)
	}
	cfg := newConfig(opts)
	g, err := dialect.For(doc.Dialect)
	if err != nil {
		return err
	}
	return emit.New(g, cfg.logger).Write(w, doc.Root)
}

// detect picks the dialect of path unless one was given. It returns the
// advisory raised for an unknown extension, if any.
func (c *config) detect(path string) (*ibis.Diagnostic, error) {
	if c.dialectSet {
		return nil, nil
	}
	d, ok := DialectFromPath(path, c.extensions)
	c.dialect = d
	if ok || !c.diagConfig.ShouldReport(types.DiagUnknownExtension) {
		return nil, nil
	}
	sev := c.diagConfig.Effective(types.DiagUnknownExtension, ibis.SeverityWarning)
	diag := &ibis.Diagnostic{
		Severity: sev,
		Code:     types.DiagUnknownExtension,
		Message:  fmt.Sprintf("unrecognized file extension, parsing as %s", d),
		Source:   c.name,
	}
	if c.diagConfig.ShouldFail(sev) {
		return nil, &ibis.Error{Kind: ibis.KindSemantic, Msg: diag.Code + ": " + diag.Message, Err: ibis.ErrEscalated}
	}
	return diag, nil
}

func (c *config) parse(ctx context.Context, r io.Reader, pre *ibis.Diagnostic) (*ibis.Document, error) {
	g, err := dialect.For(c.dialect)
	if err != nil {
		return nil, err
	}
	logger := c.logger
	if logger != nil && c.name != "" {
		logger = logger.With(slog.String("source", c.name))
	}
	p := parser.New(g, c.name, logger, c.diagConfig)
	root, err := p.Parse(ctx, r)
	if err != nil {
		return nil, err
	}
	doc := &ibis.Document{Dialect: c.dialect, Name: c.name, Root: root}
	if pre != nil {
		doc.Diagnostics = append(doc.Diagnostics, *pre)
	}
	doc.Diagnostics = append(doc.Diagnostics, p.Diagnostics()...)
	if logger != nil {
		logger.LogAttrs(ctx, slog.LevelInfo, "document parsed",
			slog.String("dialect", c.dialect.String()),
			slog.Int("diagnostics", len(doc.Diagnostics)))
	}
	return doc, nil
}
