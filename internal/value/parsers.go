package value

import (
	"strings"

	"github.com/goibis/goibis/ibis"
)

// A Parser turns the text following a keyword, parameter or key into a
// value.
type Parser func(text string) (any, error)

// A Token parses a single whitespace-free token, such as a table cell.
type Token func(tok string) (any, error)

// RealTok parses a real and applies checks.
func RealTok(checks ...Check) Token {
	return func(tok string) (any, error) {
		v, err := ParseReal(tok)
		if err != nil {
			return nil, err
		}
		if err := runChecks(v, checks); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// NARealTok is RealTok that maps NA to nil.
func NARealTok(checks ...Check) Token {
	parse := RealTok(checks...)
	return func(tok string) (any, error) {
		if IsNA(tok) {
			return nil, nil
		}
		return parse(tok)
	}
}

// IntTok parses an integer and applies checks.
func IntTok(checks ...Check) Token {
	return func(tok string) (any, error) {
		v, err := ParseInt(tok)
		if err != nil {
			return nil, err
		}
		if err := runChecks(float64(v), checks); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// WordTok returns the token unchanged.
func WordTok(tok string) (any, error) { return tok, nil }

// OneOfTok accepts one of the space-separated words, ignoring case, and
// returns it in lower case.
func OneOfTok(words string) Token {
	allowed := strings.Fields(strings.ToLower(words))
	return func(tok string) (any, error) {
		lt := strings.ToLower(tok)
		for _, w := range allowed {
			if lt == w {
				return lt, nil
			}
		}
		return nil, &FormatError{Token: tok, Want: "one of " + strings.Join(allowed, ", ")}
	}
}

// Single adapts a Token into a Parser that requires exactly one token.
func Single(t Token) Parser {
	return func(text string) (any, error) {
		toks := strings.Fields(text)
		switch len(toks) {
		case 0:
			return nil, &FormatError{Want: "a value"}
		case 1:
			return t(toks[0])
		}
		return nil, &FormatError{Token: strings.Join(toks[1:], " "), Want: "end of line"}
	}
}

// Real parses exactly one real.
func Real(checks ...Check) Parser { return Single(RealTok(checks...)) }

// NAReal parses exactly one real or NA.
func NAReal(checks ...Check) Parser { return Single(NARealTok(checks...)) }

// Int parses exactly one integer.
func Int(checks ...Check) Parser { return Single(IntTok(checks...)) }

// Word parses exactly one token.
func Word() Parser { return Single(WordTok) }

// OneOf parses exactly one of the space-separated words.
func OneOf(words string) Parser { return Single(OneOfTok(words)) }

// Text returns the trimmed text.
func Text() Parser {
	return func(text string) (any, error) { return strings.TrimSpace(text), nil }
}

// Range parses a typ [min [max]] group with NA allowed for min and max.
func Range(checks ...Check) Parser {
	return func(text string) (any, error) {
		r, err := RealRange(text, 3, checks...)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// Ramp parses a dV/dt triple.
func Ramp() Parser {
	return func(text string) (any, error) {
		r, err := ParseRamp(text)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// Words returns the whitespace-separated tokens as a list. most < 0
// means unlimited.
func Words(least, most int) Parser {
	return func(text string) (any, error) {
		toks := strings.Fields(text)
		if len(toks) < least {
			return nil, &FormatError{Token: text, Want: "more words"}
		}
		if most >= 0 && len(toks) > most {
			return nil, &FormatError{Token: strings.Join(toks[most:], " "), Want: "end of line"}
		}
		out := make([]any, len(toks))
		for i, t := range toks {
			out[i] = t
		}
		return out, nil
	}
}

// List parses every token with t.
func List(t Token) Parser {
	return func(text string) (any, error) {
		toks := strings.Fields(text)
		out := make([]any, 0, len(toks))
		for _, tok := range toks {
			v, err := t(tok)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
}

// Field is one named position of a Fields record.
type Field struct {
	Name     string
	Tok      Token
	Optional bool // may be missing at the end of the line
	Rest     bool // takes the rest of the line as text
}

// F returns a required field.
func F(name string, t Token) Field { return Field{Name: name, Tok: t} }

// Opt returns an optional trailing field.
func Opt(name string, t Token) Field { return Field{Name: name, Tok: t, Optional: true} }

// Rest returns a field holding the remainder of the line.
func Rest(name string) Field { return Field{Name: name, Rest: true} }

// Fields parses a fixed sequence of tokens into a record node.
func Fields(fields ...Field) Parser {
	return func(text string) (any, error) {
		rec := ibis.NewNode()
		rest := strings.TrimSpace(text)
		for _, f := range fields {
			if f.Rest {
				rec.Set(f.Name, rest)
				rest = ""
				continue
			}
			if rest == "" {
				if f.Optional {
					continue
				}
				return nil, &FormatError{Want: f.Name}
			}
			tok, tail := nextToken(rest)
			v, err := f.Tok(tok)
			if err != nil {
				return nil, err
			}
			rec.Set(f.Name, v)
			rest = tail
		}
		if rest != "" {
			return nil, &FormatError{Token: rest, Want: "end of line"}
		}
		return rec, nil
	}
}

// SplitFirst returns the first whitespace-separated token of text and the
// trimmed remainder.
func SplitFirst(text string) (string, string) {
	return nextToken(strings.TrimSpace(text))
}

func nextToken(s string) (string, string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
