package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAffirmative(t *testing.T) {
	yes := []string{"yes", "Yes please", "yep", "yup", "yeah", "sure", "ok", "OKAY", "show me", "do it", "sure, why not"}
	for _, q := range yes {
		assert.True(t, IsAffirmative(q), "expected affirmative: %q", q)
	}

	no := []string{"yesterday", "nope", "okra recipes", "surely not a word match? surelynot", "what is a yuzu"}
	for _, q := range no {
		assert.False(t, IsAffirmative(q), "expected not affirmative: %q", q)
	}
}

func TestIsQuizRequest(t *testing.T) {
	assert.True(t, IsQuizRequest("quiz me"))
	assert.True(t, IsQuizRequest("quiz"))
	assert.True(t, IsQuizRequest("Quiz my knowledge"))
	assert.True(t, IsQuizRequest("ok, quiz me!"))

	assert.False(t, IsQuizRequest("quizzical look"))
	assert.False(t, IsQuizRequest("what's on the menu"))
}
