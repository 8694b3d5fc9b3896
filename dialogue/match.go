package dialogue

import "strings"

// Match resolves a free-text query against catalog keys. The query and
// keys are compared in normalized form. Two passes: first the query
// containing a key as a substring, then a key containing the query
// (partial-name lookups). Within a pass the first key in catalog order
// wins; that order-dependent tie-break is deliberate and callers rely
// on it. Returns the original (un-normalized) key.
func Match(query string, keys []string) (string, bool) {
	q := Normalize(query)
	if q == "" {
		return "", false
	}

	for _, key := range keys {
		nk := Normalize(key)
		if nk != "" && strings.Contains(q, nk) {
			return key, true
		}
	}
	for _, key := range keys {
		nk := Normalize(key)
		if nk != "" && strings.Contains(nk, q) {
			return key, true
		}
	}
	return "", false
}

// containsWholeWord reports whether the normalized haystack contains the
// normalized needle on word boundaries. Used by the fallback re-link so
// "gin" does not match inside "original".
func containsWholeWord(haystack, needle string) bool {
	h := " " + Normalize(haystack) + " "
	n := Normalize(needle)
	if n == "" {
		return false
	}
	return strings.Contains(h, " "+n+" ")
}
