package grammar

import (
	"strings"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/value"
)

// Bracket is the common part of every rule opened by "[Keyword]".
type Bracket struct {
	Base
}

// Match reports whether text is "[key] ...".
func (b *Bracket) Match(text string) bool {
	name, _, ok := splitBracket(text)
	return ok && ibis.Canonical(name) == b.canon
}

// Open records the text after the closing bracket as the label.
func (b *Bracket) Open(c *Context, in *Instance, text, comment string) error {
	if err := b.Base.Open(c, in, text, comment); err != nil {
		return err
	}
	_, in.Label, _ = splitBracket(text)
	return nil
}

// Keyword is "[Keyword] value" on a single line.
type Keyword struct {
	Bracket
	parse value.Parser
}

// NewKeyword returns a keyword rule whose text is read by parse, or kept
// as trimmed text when parse is nil.
func NewKeyword(key string, parse value.Parser, opts ...Option) *Keyword {
	if parse == nil {
		parse = value.Text()
	}
	return &Keyword{Bracket: Bracket{newBase(key, opts)}, parse: parse}
}

func (k *Keyword) Open(c *Context, in *Instance, text, comment string) error {
	if err := k.Bracket.Open(c, in, text, comment); err != nil {
		return err
	}
	if in.Label == "" {
		return ibis.NewError(ibis.ErrFormat, "expected text after '[%s]'", k.key)
	}
	v, err := k.parse(in.Label)
	if err != nil {
		return err
	}
	in.Value = v
	return nil
}

// Text is a free-form block. With comments enabled, comment text on its
// lines is kept as part of the block.
type Text struct {
	Bracket
	comments bool
}

// NewText returns a text-block rule.
func NewText(key string, comments bool, opts ...Option) *Text {
	return &Text{Bracket: Bracket{newBase(key, opts)}, comments: comments}
}

// KeepsComments reports whether comment text is captured.
func (t *Text) KeepsComments() bool { return t.comments }

func (t *Text) Open(c *Context, in *Instance, text, comment string) error {
	if err := t.Bracket.Open(c, in, text, comment); err != nil {
		return err
	}
	_, err := t.Feed(c, in, in.Label, comment)
	return err
}

func (t *Text) Feed(_ *Context, in *Instance, text, comment string) (bool, error) {
	if t.comments && comment != "" {
		if text != "" {
			text += " "
		}
		text += comment
	}
	in.lines = append(in.lines, text)
	return true, nil
}

// Seal joins the lines and drops leading and trailing blank lines.
func (t *Text) Seal(_ *Context, in *Instance) error {
	lines := in.lines
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	in.Value = strings.Join(lines, "\n")
	return nil
}

// Merge joins repeated blocks with a newline.
func (t *Text) Merge(cur any, had bool, in *Instance) (any, error) {
	s, _ := in.Value.(string)
	if prev, ok := cur.(string); had && ok && prev != "" {
		return prev + "\n" + s, nil
	}
	return s, nil
}

// End closes its parent section.
type End struct {
	Bracket
}

// NewEnd returns an end marker such as "[End]" or "[End Model Data]".
func NewEnd(key string) *End {
	return &End{Bracket{newBase(key, nil)}}
}

// CommentChar is the global "[Comment Char] <c>_char" directive.
type CommentChar struct {
	Bracket
}

// NewCommentChar returns the comment-character directive.
func NewCommentChar() *CommentChar {
	return &CommentChar{Bracket{newBase("Comment Char", nil)}}
}

// commentChars are the characters allowed as comment markers.
const commentChars = "!\"#$%&'()*,:;<>?@\\^`{|}~"

func (cc *CommentChar) Open(c *Context, in *Instance, text, comment string) error {
	if err := cc.Bracket.Open(c, in, text, comment); err != nil {
		return err
	}
	arg := in.Label
	if arg == "" {
		// The argument was itself split off as a comment.
		return nil
	}
	if len(arg) < 2 || !strings.HasPrefix(strings.ToLower(arg[1:]), "_char") {
		return ibis.NewError(ibis.ErrFormat, "invalid format, expected '<char>_char'")
	}
	if !strings.ContainsRune(commentChars, rune(arg[0])) {
		return ibis.NewError(ibis.ErrFormat, "invalid comment char, '%c'", arg[0])
	}
	return c.SetCommentChar(arg[0])
}

// Group is a rule without a keyword of its own: the document root and
// the implicit file header.
type Group struct {
	Base
}

// NewGroup returns a keyword-less rule.
func NewGroup(key string, opts ...Option) *Group {
	return &Group{newBase(key, opts)}
}
