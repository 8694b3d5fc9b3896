package dialogue

import (
	"strings"

	"github.com/mike-mirabal/barback/catalog"
)

const promptIdentity = `## Identity & Role

You are the house chatbot for a cocktail bar. You answer questions about
the bar's cocktails and spirits using ONLY the catalog below. You are
warm, quick, and never wordy.

## Output Contract

Reply with a JSON object of the form {"bubbles": ["...", "..."]} where
each bubble is one short chat message. Never send more than two bubbles.
If you cannot express the answer from the catalog, say so honestly in a
single bubble. Do not wrap the JSON in markdown fences.
`

const guestDirectives = `## Guest Mode Rules

- Bubble 1: the drink or bottle, a one-sentence description, and (for
  cocktails) its ingredients WITHOUT any measurements.
- Bubble 2: a short friendly upsell inviting the guest to order it or
  ask about something else on the list.
- NEVER reveal builds, specs, measurements, batch recipes, glassware,
  or garnish details. Those are for staff only.
`

const staffDirectives = `## Staff Mode Rules

- Bubble 1: the batch build first, one step per line, with glass and
  garnish. If there is no batch, say so explicitly and give the single
  build instead.
- Bubble 2: ask whether they want to see the single build next.
- Keep measurements exact. Staff are training from your answers.
`

// BuildSystemPrompt assembles the oracle's system instruction: identity,
// the full catalog as structured text, and the directive block for the
// caller's mode.
func BuildSystemPrompt(cat *catalog.Catalog, mode Mode) string {
	var b strings.Builder
	b.WriteString(promptIdentity)
	b.WriteString("\n## Catalog\n")

	b.WriteString("\n### Cocktails\n")
	for _, name := range cat.CocktailNames() {
		ck, _ := cat.Cocktail(name)
		writeCocktail(&b, ck)
	}

	b.WriteString("\n### Spirits\n")
	for _, name := range cat.SpiritNames() {
		sp, _ := cat.Spirit(name)
		writeSpirit(&b, sp)
	}

	b.WriteString("\n")
	if mode == ModeStaff {
		b.WriteString(staffDirectives)
	} else {
		b.WriteString(guestDirectives)
	}
	return b.String()
}

func writeCocktail(b *strings.Builder, ck catalog.Cocktail) {
	b.WriteString("\n#### " + ck.Name + "\n")
	if ck.Price != "" {
		b.WriteString("- Price: " + ck.Price + "\n")
	}
	writeList(b, "Batch build", ck.BatchBuild)
	writeList(b, "Single build", ck.SingleBuild)
	writeList(b, "Ingredients", ck.Ingredients)
	if ck.Glass != "" {
		b.WriteString("- Glass: " + ck.Glass + "\n")
	}
	if len(ck.Garnish) > 0 {
		b.WriteString("- Garnish: " + strings.Join(ck.Garnish, ", ") + "\n")
	}
	if ck.Character != "" {
		b.WriteString("- Character: " + ck.Character + "\n")
	}
}

func writeSpirit(b *strings.Builder, sp catalog.Spirit) {
	b.WriteString("\n#### " + sp.Name + "\n")
	if sp.Price != "" {
		b.WriteString("- Price: " + sp.Price + "\n")
	}
	for _, key := range catalog.SortedAttributeKeys(sp.Attributes) {
		b.WriteString("- " + HumanizeLabel(key) + ": " + sp.Attributes[key] + "\n")
	}
}

func writeList(b *strings.Builder, label string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("- " + label + ": " + strings.Join(lines, " / ") + "\n")
}
