package dialogue

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"github.com/mike-mirabal/barback/catalog"
	"github.com/mike-mirabal/barback/session"
)

// Mode is the caller's access level. Guests get descriptions and
// upsells; staff get builds and specs.
type Mode string

const (
	ModeGuest Mode = "guest"
	ModeStaff Mode = "staff"
)

// Item types stored in session state.
const (
	ItemCocktail = "cocktail"
	ItemSpirit   = "spirit"
)

// ErrEmptyQuery rejects a request whose query is empty after trimming.
// It is the only engine error a caller should ever surface as their own.
var ErrEmptyQuery = errors.New("query is empty")

// FallbackBubble is the terminal reply when nothing matched and the
// oracle could not help.
const FallbackBubble = "Sorry, I don't have this answer yet. I'm still learning..."

// Request is one inbound turn.
type Request struct {
	Query    string
	Mode     Mode
	Identity string
}

// Reply is the ordered bubble list plus the flattened answer.
type Reply struct {
	Bubbles []string
	Answer  string
}

// Oracle is the generative fallback: one system instruction, one user
// utterance, bubbles back. It may fail or time out; the engine recovers.
type Oracle interface {
	Complete(ctx context.Context, system, user string) ([]string, error)
}

// TranscriptSink receives a flattened transcript after a turn completes.
// Delivery is best-effort and must never affect the reply.
type TranscriptSink interface {
	Record(ctx context.Context, identity, mode, query, answer string)
}

// Engine resolves one turn at a time: match the catalog, consult session
// state for follow-ups, fall back to the oracle, then commit state.
type Engine struct {
	catalog    *catalog.Catalog
	sessions   session.Registry
	oracle     Oracle
	transcript TranscriptSink
	log        *zap.SugaredLogger
}

// NewEngine wires the engine. oracle may be nil; the fallback path then
// degrades straight to the terminal bubble.
func NewEngine(cat *catalog.Catalog, sessions session.Registry, oracle Oracle, log *zap.SugaredLogger) *Engine {
	return &Engine{
		catalog:  cat,
		sessions: sessions,
		oracle:   oracle,
		log:      log,
	}
}

// WithTranscript attaches a transcript sink.
func (e *Engine) WithTranscript(sink TranscriptSink) *Engine {
	e.transcript = sink
	return e
}

// Respond resolves one turn. The only error it returns for bad input is
// ErrEmptyQuery; oracle and catalog trouble degrade to well-formed
// bubbles. A cancelled context aborts without committing session state.
func (e *Engine) Respond(ctx context.Context, req Request) (*Reply, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	mode := req.Mode
	if mode != ModeStaff {
		mode = ModeGuest
	}

	state := e.sessions.Get(req.Identity)
	wasAwaiting := state.AwaitingSingleBuild
	// The confirmation window is a single turn wide.
	state.AwaitingSingleBuild = false

	bubbles := e.resolve(query, mode, wasAwaiting, &state)
	if len(bubbles) == 0 {
		bubbles = e.fallback(ctx, query, mode, &state)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	state.LastMode = string(mode)
	e.sessions.Touch(req.Identity, state)

	answer := strings.Join(bubbles, "\n\n")
	if e.transcript != nil {
		e.transcript.Record(ctx, req.Identity, string(mode), query, answer)
	}
	return &Reply{Bubbles: bubbles, Answer: answer}, nil
}

// resolve runs the structured stages: direct entity match, then the
// session-dependent sub-intents. Empty result means "ask the oracle".
func (e *Engine) resolve(query string, mode Mode, wasAwaiting bool, state *session.State) []string {
	// Cocktails before spirits; a cocktail hit suppresses spirit matching.
	if name, ok := Match(query, e.catalog.CocktailNames()); ok {
		ck, _ := e.catalog.Cocktail(name)
		state.LastItem = name
		state.LastItemType = ItemCocktail
		if mode == ModeStaff {
			bubbles, awaiting := StaffCocktail(ck)
			state.AwaitingSingleBuild = awaiting
			e.log.Infof("🍸 Matched cocktail %q (staff)", name)
			return bubbles
		}
		e.log.Infof("🍸 Matched cocktail %q (guest)", name)
		return GuestCocktail(ck)
	}

	if name, ok := Match(query, e.catalog.SpiritNames()); ok {
		sp, _ := e.catalog.Spirit(name)
		state.LastItem = name
		state.LastItemType = ItemSpirit
		e.log.Infof("🥃 Matched spirit %q", name)
		return []string{SpiritReply(sp)}
	}

	if mode == ModeStaff && state.LastItemType == ItemCocktail {
		if wasAwaiting && IsAffirmative(query) {
			if ck, ok := e.catalog.Cocktail(state.LastItem); ok {
				e.log.Infof("👍 Single build confirmed for %q", state.LastItem)
				return StaffSingleBuild(ck)
			}
		}
		if IsQuizRequest(query) {
			if ck, ok := e.catalog.Cocktail(state.LastItem); ok {
				e.log.Infof("🎓 Quiz requested on %q", state.LastItem)
				// The top-level generator is goroutine-safe; a per-engine
				// rand.Rand would race across concurrent turns.
				return []string{StaffQuiz(ck, rand.Intn)}
			}
		}
	}

	return nil
}

// fallback delegates to the oracle and best-effort re-links its output
// to a catalog entity so follow-up turns stay coherent.
func (e *Engine) fallback(ctx context.Context, query string, mode Mode, state *session.State) []string {
	if e.oracle == nil {
		return []string{FallbackBubble}
	}

	system := BuildSystemPrompt(e.catalog, mode)
	bubbles, err := e.oracle.Complete(ctx, system, query)
	if err != nil || len(bubbles) == 0 {
		if err != nil {
			e.log.Warnf("⚠️ Oracle fallback failed: %v", err)
		}
		return []string{FallbackBubble}
	}

	e.relink(bubbles, mode, state)
	return bubbles
}

// relink scans oracle output for catalog names as whole words and, on a
// hit, updates session state exactly as a direct match would have. It
// is never required for the bubbles themselves, only for continuity.
func (e *Engine) relink(bubbles []string, mode Mode, state *session.State) {
	text := strings.Join(bubbles, " ")

	for _, name := range e.catalog.CocktailNames() {
		if !containsWholeWord(text, name) {
			continue
		}
		state.LastItem = name
		state.LastItemType = ItemCocktail
		if mode == ModeStaff {
			if ck, ok := e.catalog.Cocktail(name); ok && len(ck.BatchBuild) > 0 {
				state.AwaitingSingleBuild = true
			}
		}
		e.log.Infof("🔗 Oracle reply re-linked to cocktail %q", name)
		return
	}
	for _, name := range e.catalog.SpiritNames() {
		if containsWholeWord(text, name) {
			state.LastItem = name
			state.LastItemType = ItemSpirit
			e.log.Infof("🔗 Oracle reply re-linked to spirit %q", name)
			return
		}
	}
}
