// Package parser drives a dialect grammar over IBIS source text.
//
// Input is read line by line. Each line is split at the active comment
// character and offered first to the children of the innermost open
// section, then to the globals. A line no child opens is fed to the open
// section as a continuation; a line it rejects closes the section and is
// retried one level up. Any failure aborts the parse with a single
// *ibis.Error carrying the line number and the open sections.
package parser

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/grammar"
	"github.com/goibis/goibis/internal/types"
)

// maxLine bounds the length of a single input line.
const maxLine = 1 << 20

// Parser runs one grammar over one source.
type Parser struct {
	g     *grammar.Grammar
	ctx   *grammar.Context
	stack []*grammar.Instance
	done  bool
	types.Logger
}

// New returns a Parser for source (a name used in diagnostics).
// Pass nil for logger to disable logging.
func New(g *grammar.Grammar, source string, logger *slog.Logger, diagConfig ibis.DiagnosticConfig) *Parser {
	p := &Parser{
		g:      g,
		ctx:    grammar.NewContext(source, diagConfig, logger),
		Logger: types.NewLogger(logger, "parser"),
	}
	root := p.ctx.New(g.Root, -1)
	header := p.ctx.New(g.Header, root.ID)
	// Neither open can fail: groups only fill defaults.
	_ = g.Root.Open(p.ctx, root, "", "")
	_ = g.Header.Open(p.ctx, header, "", "")
	p.stack = []*grammar.Instance{root, header}
	p.Log(slog.LevelDebug, "parser initialized", slog.String("dialect", g.Dialect.String()))
	return p
}

// Diagnostics returns the advisories raised while parsing.
func (p *Parser) Diagnostics() []ibis.Diagnostic { return p.ctx.Diagnostics() }

// Parse consumes r and returns the document tree.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*ibis.Node, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	var root *ibis.Node
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.ctx.SetLine(lineNo)
		wasDone := p.done
		if err := p.line(sc.Text()); err != nil {
			p.Log(slog.LevelDebug, "parse failed", slog.Int("line", lineNo), slog.String("error", err.Error()))
			return nil, err
		}
		if p.done && !wasDone {
			root, _ = p.ctx.Root().Value.(*ibis.Node)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !p.done {
		return nil, &ibis.Error{
			Kind:  ibis.KindStructure,
			Line:  lineNo,
			Trail: p.ctx.Trail(p.ctx.Enclosing(p.top())),
			Msg:   "no [End] keyword",
			Err:   ibis.ErrMissingEnd,
		}
	}
	p.Log(slog.LevelDebug, "parse complete",
		slog.Int("lines", lineNo),
		slog.Int("diagnostics", len(p.Diagnostics())))
	return root, nil
}

func (p *Parser) top() *grammar.Instance {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *Parser) pop() error {
	in := p.top()
	p.stack = p.stack[:len(p.stack)-1]
	if err := p.ctx.Finish(in); err != nil {
		return p.wrap(err, in)
	}
	return nil
}

// splitComment splits raw at the first occurrence of the comment
// character.
func splitComment(raw string, ch byte) (text, comment string) {
	text, comment, _ = strings.Cut(raw, string(ch))
	return strings.TrimSpace(text), strings.TrimSpace(comment)
}

func (p *Parser) line(raw string) error {
	text, comment := splitComment(raw, p.ctx.CommentChar)
	if p.done {
		if text != "" {
			return &ibis.Error{Kind: ibis.KindStructure, Line: p.ctx.Line(), Msg: "garbage past end of file", Err: ibis.ErrTrailingContent}
		}
		return nil
	}
	start := p.top()
	for {
		top := p.top()
		if child := p.g.Find(top.Rule, text); child != nil {
			if _, ok := child.(*grammar.End); ok {
				if p.TraceEnabled() {
					p.Trace("close", slog.String("keyword", top.Rule.Spec().Key()))
				}
				if err := p.pop(); err != nil {
					return err
				}
				p.done = len(p.stack) == 0
				return nil
			}
			in := p.ctx.New(child, top.ID)
			if p.TraceEnabled() {
				p.Trace("open", slog.String("keyword", child.Spec().Key()), slog.Int("line", in.Line))
			}
			if err := child.Open(p.ctx, in, text, comment); err != nil {
				return p.wrap(err, in)
			}
			p.stack = append(p.stack, in)
			return nil
		}
		if !strings.HasPrefix(text, "[") {
			ok, err := top.Rule.Feed(p.ctx, top, text, comment)
			if err != nil {
				return p.wrap(err, top)
			}
			if ok {
				return nil
			}
		}
		if len(p.stack) == 1 {
			at := p.ctx.Enclosing(start)
			return &ibis.Error{
				Kind:    ibis.KindStructure,
				Line:    p.ctx.Line(),
				Trail:   p.ctx.Trail(at),
				Keyword: keyword(at),
				Msg:     "unexpected text '" + text + "'",
				Err:     ibis.ErrUnexpectedContent,
			}
		}
		if err := p.pop(); err != nil {
			return err
		}
	}
}

// wrap attaches position information to err. Errors that are not
// already *ibis.Error come from value parsers.
func (p *Parser) wrap(err error, in *grammar.Instance) error {
	var e *ibis.Error
	if errors.As(err, &e) {
		if e.Line == 0 {
			e.Line = p.ctx.Line()
		}
		if e.Trail == nil {
			e.Trail = p.ctx.Trail(in)
		}
		if e.Keyword == "" {
			e.Keyword = keyword(in)
		}
		return e
	}
	return &ibis.Error{
		Kind:    ibis.KindFormat,
		Line:    p.ctx.Line(),
		Trail:   p.ctx.Trail(in),
		Keyword: keyword(in),
		Msg:     err.Error(),
		Err:     err,
	}
}

// keyword names in for error reports. Groups have no keyword.
func keyword(in *grammar.Instance) string {
	if in == nil {
		return ""
	}
	if _, ok := in.Rule.(*grammar.Group); ok {
		return ""
	}
	return in.Rule.Spec().Key()
}
