package dialogue

import "regexp"

// Sub-intent predicates, consulted only after entity matching fails.
// Whole-word boundaries keep false positives out ("yesterday" is not a
// yes); false negatives just fall through to the oracle.
var (
	affirmativeRe = regexp.MustCompile(`(?i)\b(yes|yep|yup|yeah|sure|ok|okay|please|show\s+me|do\s+it)\b`)
	quizRe        = regexp.MustCompile(`(?i)\bquiz(\s+(me|knowledge))?\b`)
)

// IsAffirmative reports whether text reads as a yes.
func IsAffirmative(text string) bool {
	return affirmativeRe.MatchString(text)
}

// IsQuizRequest reports whether text asks for a quiz.
func IsQuizRequest(text string) bool {
	return quizRe.MatchString(text)
}
