package ibis

import "strings"

// Canonical returns the lookup form of a keyword or column name:
// lower case, with space and '/' mapped to '_', '+' to 'p' and '-' to 'n'.
// Keywords that differ only in these characters address the same entry.
func Canonical(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == ' ' || c == '/':
			b.WriteByte('_')
		case c == '+':
			b.WriteByte('p')
		case c == '-':
			b.WriteByte('n')
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
