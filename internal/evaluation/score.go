package evaluation

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize reduces an answer to its comparable form: NFC, trimmed,
// upper-cased, with "(B)", "B." and "B)" reduced to "B".
func Normalize(answer string) string {
	s := strings.ToUpper(strings.TrimSpace(norm.NFC.String(answer)))
	switch {
	case len(s) >= 3 && s[0] == '(' && s[2] == ')' && isLetter(s[1]):
		return s[1:2]
	case len(s) >= 2 && isLetter(s[0]) && (s[1] == '.' || s[1] == ')'):
		return s[:1]
	}
	return s
}

// Match reports whether answer equals target after normalization.
func Match(answer, target string) bool {
	a := Normalize(answer)
	return a != "" && a == Normalize(target)
}

func isLetter(b byte) bool {
	return b >= 'A' && b <= 'Z'
}
