package dialect

import (
	"regexp"
	"strings"

	"github.com/goibis/goibis/ibis"
	"github.com/goibis/goibis/internal/value"
)

var eqSpace = regexp.MustCompile(`\s*=\s*`)

// pathTokens splits path text into tokens, joining "Len = 1" into
// "Len=1" and separating the "/" that ends a stub.
func pathTokens(text string) []string {
	text = eqSpace.ReplaceAllString(text, "=")
	return strings.Fields(strings.ReplaceAll(text, "/", " / "))
}

// pathScanner reads the items of a path description or of a stub-style
// [Pin Numbers] entry.
type pathScanner struct {
	toks []string
	pos  int
	refs bool // Pin and Node items are allowed
}

func (s *pathScanner) items(depth int) ([]ibis.PathItem, error) {
	var out []ibis.PathItem
	for s.pos < len(s.toks) {
		tok := s.toks[s.pos]
		switch {
		case strings.EqualFold(tok, "Endfork"):
			if depth == 0 {
				return nil, &value.FormatError{Token: tok, Want: "a path item"}
			}
			s.pos++
			return out, nil
		case strings.EqualFold(tok, "Fork"):
			s.pos++
			sub, err := s.items(depth + 1)
			if err != nil {
				return nil, err
			}
			out = append(out, ibis.PathItem{Kind: ibis.PathFork, Fork: sub})
		case s.refs && (strings.EqualFold(tok, "Pin") || strings.EqualFold(tok, "Node")):
			if s.pos+1 >= len(s.toks) {
				return nil, &value.FormatError{Token: tok, Want: "a name"}
			}
			kind := ibis.PathPin
			if strings.EqualFold(tok, "Node") {
				kind = ibis.PathNode
			}
			out = append(out, ibis.PathItem{Kind: kind, Name: s.toks[s.pos+1]})
			s.pos += 2
		default:
			st, err := s.stub()
			if err != nil {
				return nil, err
			}
			out = append(out, st)
		}
	}
	if depth > 0 {
		return nil, &value.FormatError{Want: "Endfork"}
	}
	return out, nil
}

// stub reads "Len=x [L=x] [R=x] [C=x] /".
func (s *pathScanner) stub() (ibis.PathItem, error) {
	item := ibis.PathItem{Kind: ibis.PathStub}
	seen := map[string]bool{}
	for s.pos < len(s.toks) {
		tok := s.toks[s.pos]
		s.pos++
		if tok == "/" {
			if len(seen) == 0 {
				return item, &value.FormatError{Token: tok, Want: "Len="}
			}
			return item, nil
		}
		name, text, ok := strings.Cut(tok, "=")
		name = strings.ToLower(name)
		if !ok || (len(seen) == 0 && name != "len") {
			return item, &value.FormatError{Token: tok, Want: "Len="}
		}
		if seen[name] {
			return item, ibis.NewError(ibis.ErrDuplicate, "stub repeats '%s'", name)
		}
		seen[name] = true
		v, err := value.ParseReal(text)
		if err != nil {
			return item, err
		}
		if err := value.Positive(v); err != nil {
			return item, err
		}
		switch name {
		case "len":
			item.Len = v
		case "l":
			item.L = v
		case "r":
			item.R = v
		case "c":
			item.C = v
		default:
			return item, &value.FormatError{Token: tok, Want: "one of Len, L, R, C"}
		}
	}
	return item, &value.FormatError{Want: "'/' ending the stub"}
}

// ParsePath reads a [Path Description] body. The first item must be a pin.
func ParsePath(text string) ([]ibis.PathItem, error) {
	s := &pathScanner{toks: pathTokens(text), refs: true}
	items, err := s.items(0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 || items[0].Kind != ibis.PathPin {
		return nil, ibis.NewError(ibis.ErrFormat, "first item in path is not Pin")
	}
	return items, nil
}
