package dialogue

import (
	"strings"
	"unicode"
)

var apostrophes = strings.NewReplacer("'", "", "’", "", "ʼ", "", "`", "")

// Normalize folds text for fuzzy matching: lowercase, apostrophes
// removed, every run of non-letter/non-digit characters collapsed to a
// single space, surrounding space trimmed. Applied identically to
// queries and catalog keys so substring containment is symmetric.
// Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	lower := apostrophes.Replace(strings.ToLower(text))

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
