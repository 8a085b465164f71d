package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Text trims a label cell and folds it to NFC so the same Vietnamese name
// typed with combining or precomposed diacritics compares equal. Null-like
// markers become "".
func Text(s string) string {
	s = strings.TrimSpace(s)
	if IsNullLike(s) {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
