package profile

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Anchors reports whether pattern matches line at position 0.
//
// The pattern is a literal. When it ends in a word character (letter,
// digit or underscore) the character following it must not be one, so
// "for" matches "for i in x" but not "format(x)". Patterns ending in a
// symbol, such as "int main()", need no boundary.
func Anchors(pattern, line string) bool {
	if pattern == "" || !strings.HasPrefix(line, pattern) {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(pattern)
	if !isWordRune(last) {
		return true
	}
	rest := line[len(pattern):]
	if rest == "" {
		return true
	}
	next, _ := utf8.DecodeRuneInString(rest)
	return !isWordRune(next)
}

// Match returns the first entry whose pattern anchors on line.
func (p *Profile) Match(line string) (Entry, bool) {
	for _, e := range p.entries {
		if Anchors(e.Pattern, line) {
			return e, true
		}
	}
	return Entry{}, false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
