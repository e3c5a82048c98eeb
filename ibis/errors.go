package ibis

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors; every *Error unwraps to one of these.
var (
	ErrMissingEnd        = errors.New("no [End] keyword")
	ErrTrailingContent   = errors.New("garbage past end of file")
	ErrUnexpectedContent = errors.New("unexpected text")
	ErrFormat            = errors.New("malformed value")
	ErrRange             = errors.New("value out of range")
	ErrDuplicate         = errors.New("duplicate entry")
	ErrMissingRequired   = errors.New("missing required entry")
	ErrDisallowed        = errors.New("entry not allowed")
	ErrUnresolved        = errors.New("unresolved reference")
	ErrNotMonotonic      = errors.New("index not monotonic")
	ErrDimension         = errors.New("dimension mismatch")
	ErrUnknownDialect    = errors.New("unknown dialect")
	ErrUnsupported       = errors.New("unsupported by writer")
	ErrEscalated         = errors.New("advisory escalated to failure")
)

// ErrorKind groups failures by the phase that detected them.
type ErrorKind int

const (
	// KindStructure covers keyword placement: missing [End], content
	// after [End], text no open section accepts.
	KindStructure ErrorKind = iota
	// KindFormat covers tokens that do not parse as the expected value.
	KindFormat
	// KindSemantic covers cross-field and cross-section rules.
	KindSemantic
)

func (k ErrorKind) String() string {
	switch k {
	case KindStructure:
		return "structure"
	case KindFormat:
		return "format"
	case KindSemantic:
		return "semantic"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a parse failure with its source position and the chain of
// sections open when it was found.
type Error struct {
	Kind    ErrorKind
	Line    int      // 1-based, 0 when not tied to a line
	Trail   []string // open sections, outermost first
	Keyword string   // keyword being processed, if any
	Msg     string
	Err     error
}

// NewError returns an error wrapping sentinel, with its kind derived
// from the sentinel.
func NewError(sentinel error, format string, args ...any) *Error {
	kind := KindSemantic
	switch sentinel {
	case ErrFormat, ErrRange:
		kind = KindFormat
	case ErrMissingEnd, ErrTrailingContent, ErrUnexpectedContent:
		kind = KindStructure
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: sentinel}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if len(e.Trail) > 0 {
		b.WriteString("in ")
		b.WriteString(strings.Join(e.Trail, " > "))
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
