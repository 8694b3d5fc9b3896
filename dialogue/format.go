package dialogue

import (
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mike-mirabal/barback/catalog"
)

// Bubble building blocks. Output is HTML destined for chat bubbles, so
// lines join on <br> rather than newlines and all catalog text is
// escaped before styling is applied.
const (
	bulletGlyph = "• "
	lineBreak   = "<br>"
)

const (
	singleBuildPrompt = "Want to see the single build? Just say yes."
	quizOffer         = "Want to test yourself on this one? Say \"quiz me\"."
	noBatchNote       = "No batch on this one. It's built to order:"
	genericCharacter  = "A house favorite. Balanced, approachable, and easy to love."
)

func header(name, price string) string {
	h := fmt.Sprintf(`<span class="accent">%s</span>`, html.EscapeString(name))
	if price != "" {
		h += fmt.Sprintf(" (%s)", html.EscapeString(price))
	}
	return h
}

func bullets(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, bulletGlyph+html.EscapeString(line))
	}
	return out
}

func joinBubble(parts []string) string {
	return strings.Join(parts, lineBreak)
}

func glassGarnishLines(ck catalog.Cocktail) []string {
	var lines []string
	if ck.Glass != "" {
		lines = append(lines, "Glass: "+html.EscapeString(ck.Glass))
	}
	if len(ck.Garnish) > 0 {
		lines = append(lines, "Garnish: "+html.EscapeString(strings.Join(ck.Garnish, ", ")))
	}
	return lines
}

// StaffCocktail renders the first staff-mode reference to a cocktail:
// batch build preferred, single build next, bare ingredients last. The
// returned flag is true only when a batch was shown, meaning the next
// affirmative from this caller should reveal the single build.
func StaffCocktail(ck catalog.Cocktail) ([]string, bool) {
	parts := []string{header(ck.Name, ck.Price)}

	awaiting := false
	switch {
	case len(ck.BatchBuild) > 0:
		parts = append(parts, bullets(ck.BatchBuild)...)
		awaiting = true
	case len(ck.SingleBuild) > 0:
		parts = append(parts, noBatchNote)
		parts = append(parts, bullets(ck.SingleBuild)...)
	default:
		parts = append(parts, bullets(ck.Ingredients)...)
	}
	parts = append(parts, glassGarnishLines(ck)...)

	second := quizOffer
	if awaiting {
		second = singleBuildPrompt
	}
	return []string{joinBubble(parts), second}, awaiting
}

// StaffSingleBuild renders the confirmed single-build reply.
func StaffSingleBuild(ck catalog.Cocktail) []string {
	parts := []string{header(ck.Name, ck.Price)}
	if len(ck.SingleBuild) > 0 {
		parts = append(parts, bullets(ck.SingleBuild)...)
	} else {
		parts = append(parts, bullets(ck.Ingredients)...)
	}
	parts = append(parts, glassGarnishLines(ck)...)
	return []string{joinBubble(parts), quizOffer}
}

// StaffQuiz renders one quiz question about the cocktail, chosen by the
// supplied picker from whichever of glass, garnish and first build line
// exist. pick receives the candidate count and returns an index.
func StaffQuiz(ck catalog.Cocktail, pick func(n int) int) string {
	name := html.EscapeString(ck.Name)

	var questions []string
	if ck.Glass != "" {
		questions = append(questions, fmt.Sprintf("What glass does the %s go in?", name))
	}
	if len(ck.Garnish) > 0 {
		questions = append(questions, fmt.Sprintf("What's the garnish on the %s?", name))
	}
	if first := firstBuildLine(ck); first != "" {
		questions = append(questions, fmt.Sprintf("What's the first step when you build a %s?", name))
	}
	if len(questions) == 0 {
		return fmt.Sprintf("Name every ingredient in the %s. Go!", name)
	}
	return questions[pick(len(questions))]
}

func firstBuildLine(ck catalog.Cocktail) string {
	if len(ck.BatchBuild) > 0 {
		return ck.BatchBuild[0]
	}
	if len(ck.SingleBuild) > 0 {
		return ck.SingleBuild[0]
	}
	return ""
}

// GuestCocktail renders the public-facing cocktail reply: a descriptor
// and a quantity-free ingredient list, then an upsell. Builds, glass and
// garnish are never disclosed in guest mode.
func GuestCocktail(ck catalog.Cocktail) []string {
	parts := []string{header(ck.Name, ck.Price)}

	descriptor := ck.Character
	if descriptor == "" {
		descriptor = genericCharacter
	}
	parts = append(parts, html.EscapeString(sentence(descriptor)))

	if names := ingredientNames(ck.Ingredients); len(names) > 0 {
		parts = append(parts, html.EscapeString(strings.Join(names, ", ")))
	}

	upsell := fmt.Sprintf("Sounds good? Ask your bartender for a %s and find out.", html.EscapeString(ck.Name))
	return []string{joinBubble(parts), upsell}
}

// sentence makes sure free-text descriptors read as one sentence.
func sentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	r := []rune(text)
	r[0] = unicode.ToUpper(r[0])
	text = string(r)
	last, _ := utf8.DecodeLastRuneInString(text)
	if !strings.ContainsRune(".!?…", last) {
		text += "."
	}
	return text
}

// Measurement tokens stripped off the front of ingredient lines for
// guest replies, so "2 oz blanco tequila" reads as "blanco tequila".
var quantityTokens = map[string]bool{
	"oz": true, "ml": true, "cl": true, "dash": true, "dashes": true,
	"drop": true, "drops": true, "barspoon": true, "barspoons": true,
	"tsp": true, "tbsp": true, "part": true, "parts": true,
	"splash": true, "splashes": true, "cube": true, "cubes": true,
	"of": true,
}

func ingredientNames(ingredients []string) []string {
	names := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if name := stripQuantity(ing); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func stripQuantity(line string) string {
	fields := strings.Fields(line)
	i := 0
	for i < len(fields) {
		token := strings.ToLower(fields[i])
		if isAmount(token) || quantityTokens[token] {
			i++
			continue
		}
		break
	}
	return strings.Join(fields[i:], " ")
}

func isAmount(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if !unicode.IsDigit(r) && r != '.' && r != '/' && r != '-' &&
			r != '½' && r != '¼' && r != '¾' && r != '⅓' && r != '⅔' {
			return false
		}
	}
	return true
}

// Preferred spirit attribute order. Keys are compared with the same
// normalization as entity matching, so "tastingNotes", "tasting_notes"
// and "Tasting Notes" all land on the same row.
var spiritFieldOrder = []struct {
	key   string
	label string
}{
	{"type", "Type"},
	{"base ingredient", "Base Ingredient"},
	{"region", "Region"},
	{"tasting notes", "Tasting Notes"},
	{"production notes", "Production Notes"},
	{"brand identity", "Brand Identity"},
	{"fun fact", "Fun Fact"},
	{"reviews", "Reviews"},
}

// SpiritReply renders the single spirit bubble: header, then one bullet
// per attribute in preferred order, then any leftover attributes with
// humanized labels. Price never appears as an attribute bullet.
func SpiritReply(sp catalog.Spirit) string {
	parts := []string{header(sp.Name, sp.Price)}

	used := make(map[string]bool, len(sp.Attributes))
	byNorm := make(map[string]string, len(sp.Attributes))
	for key := range sp.Attributes {
		byNorm[normalizeLabel(key)] = key
	}

	for _, field := range spiritFieldOrder {
		key, ok := byNorm[field.key]
		if !ok {
			continue
		}
		used[key] = true
		parts = append(parts, attributeBullet(field.label, sp.Attributes[key]))
	}
	for _, key := range catalog.SortedAttributeKeys(sp.Attributes) {
		if used[key] || normalizeLabel(key) == "price" {
			continue
		}
		parts = append(parts, attributeBullet(HumanizeLabel(key), sp.Attributes[key]))
	}

	return joinBubble(parts)
}

func attributeBullet(label, value string) string {
	return bulletGlyph + html.EscapeString(label) + ": " + html.EscapeString(value)
}

func normalizeLabel(key string) string {
	return Normalize(strings.Join(splitLabelWords(key), " "))
}

// HumanizeLabel turns a camelCase or snake_case attribute key into a
// title-cased display label: "funFact" -> "Fun Fact".
func HumanizeLabel(key string) string {
	words := splitLabelWords(key)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		if len(r) > 0 {
			r[0] = unicode.ToUpper(r[0])
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func splitLabelWords(key string) []string {
	var words []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = nil
		}
	}
	for _, r := range key {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r) && len(current) > 0 && !unicode.IsUpper(current[len(current)-1]):
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()
	return words
}
