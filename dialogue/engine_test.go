package dialogue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mike-mirabal/barback/catalog"
	"github.com/mike-mirabal/barback/session"
)

type fakeOracle struct {
	bubbles []string
	err     error
	calls   int
	system  string
	user    string
}

func (f *fakeOracle) Complete(_ context.Context, system, user string) ([]string, error) {
	f.calls++
	f.system = system
	f.user = user
	return f.bubbles, f.err
}

func testCatalog() *catalog.Catalog {
	return catalog.New(
		[]catalog.Cocktail{
			{
				Name:        "Margarita",
				Price:       "$12",
				BatchBuild:  []string{"22 oz blanco tequila", "Stir and bottle"},
				SingleBuild: []string{"2 oz blanco tequila", "Shake hard"},
				Ingredients: []string{"2 oz blanco tequila", "1 oz lime juice"},
				Glass:       "Rocks",
				Garnish:     []string{"Lime wheel"},
				Character:   "bright, citrus, balanced",
			},
			{
				Name:        "Old Fashioned",
				SingleBuild: []string{"2 oz bourbon", "Stir over a big rock"},
			},
		},
		[]catalog.Spirit{
			{
				Name:       "Espolòn Blanco",
				Price:      "$9",
				Attributes: map[string]string{"type": "Tequila"},
			},
			// A spirit that shadows a cocktail name fragment.
			{
				Name:       "Margarita Mixto",
				Attributes: map[string]string{"type": "Mixto"},
			},
		},
	)
}

func newTestEngine(oracle Oracle) (*Engine, *session.Memory) {
	reg := session.NewMemory(20*time.Minute, zap.NewNop().Sugar())
	return NewEngine(testCatalog(), reg, oracle, zap.NewNop().Sugar()), reg
}

func TestRespondEmptyQuery(t *testing.T) {
	engine, _ := newTestEngine(nil)

	_, err := engine.Respond(context.Background(), Request{Query: "   ", Identity: "a"})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestRespondStaffBatchThenAffirmative(t *testing.T) {
	engine, reg := newTestEngine(nil)
	req := Request{Query: "how do I build a margarita", Mode: ModeStaff, Identity: "bartender"}

	reply, err := engine.Respond(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, reply.Bubbles, 2)
	assert.Contains(t, reply.Bubbles[0], "• 22 oz blanco tequila")

	state := reg.Get("bartender")
	assert.Equal(t, "Margarita", state.LastItem)
	assert.Equal(t, ItemCocktail, state.LastItemType)
	assert.True(t, state.AwaitingSingleBuild)

	reply, err = engine.Respond(context.Background(), Request{Query: "yes", Mode: ModeStaff, Identity: "bartender"})
	require.NoError(t, err)
	require.Len(t, reply.Bubbles, 2)
	assert.Contains(t, reply.Bubbles[0], "• Shake hard")
	assert.False(t, reg.Get("bartender").AwaitingSingleBuild, "confirmation clears the flag")
}

func TestRespondAffirmativeWindowIsOneTurn(t *testing.T) {
	engine, reg := newTestEngine(nil)

	_, err := engine.Respond(context.Background(), Request{Query: "margarita", Mode: ModeStaff, Identity: "b"})
	require.NoError(t, err)
	require.True(t, reg.Get("b").AwaitingSingleBuild)

	// An unrelated turn in between clears the pending confirmation.
	_, err = engine.Respond(context.Background(), Request{Query: "espolon blanco", Mode: ModeStaff, Identity: "b"})
	require.NoError(t, err)
	assert.False(t, reg.Get("b").AwaitingSingleBuild)
}

func TestRespondQuizRequest(t *testing.T) {
	engine, _ := newTestEngine(nil)

	_, err := engine.Respond(context.Background(), Request{Query: "margarita", Mode: ModeStaff, Identity: "q"})
	require.NoError(t, err)

	reply, err := engine.Respond(context.Background(), Request{Query: "quiz me", Mode: ModeStaff, Identity: "q"})
	require.NoError(t, err)
	require.Len(t, reply.Bubbles, 1)
	assert.Contains(t, reply.Bubbles[0], "Margarita")
}

func TestRespondConcurrentQuizTurns(t *testing.T) {
	engine, _ := newTestEngine(nil)

	// One shared engine, many simultaneous quiz turns. Run with -race:
	// the question picker must not share mutable generator state.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(identity string) {
			defer wg.Done()
			_, err := engine.Respond(context.Background(), Request{Query: "margarita", Mode: ModeStaff, Identity: identity})
			assert.NoError(t, err)
			for j := 0; j < 200; j++ {
				reply, err := engine.Respond(context.Background(), Request{Query: "quiz me", Mode: ModeStaff, Identity: identity})
				if !assert.NoError(t, err) {
					return
				}
				assert.Contains(t, reply.Bubbles[0], "Margarita")
			}
		}(fmt.Sprintf("bartender-%d", i))
	}
	wg.Wait()
}

func TestRespondGuestNeverLeaksSpecs(t *testing.T) {
	engine, _ := newTestEngine(nil)

	reply, err := engine.Respond(context.Background(), Request{Query: "tell me about the margarita", Identity: "g"})
	require.NoError(t, err)
	require.Len(t, reply.Bubbles, 2)
	assert.NotContains(t, reply.Answer, "oz")
	assert.NotContains(t, reply.Answer, "Rocks")
	assert.NotContains(t, reply.Answer, "Lime wheel")
	assert.Contains(t, reply.Bubbles[0], "($12)")
}

func TestRespondCocktailBeatsSpirit(t *testing.T) {
	engine, reg := newTestEngine(nil)

	// "margarita mixto" contains both the cocktail and the spirit name;
	// the cocktail must win.
	_, err := engine.Respond(context.Background(), Request{Query: "margarita mixto", Mode: ModeStaff, Identity: "c"})
	require.NoError(t, err)
	assert.Equal(t, ItemCocktail, reg.Get("c").LastItemType)
	assert.Equal(t, "Margarita", reg.Get("c").LastItem)
}

func TestRespondSpiritSingleBubble(t *testing.T) {
	engine, _ := newTestEngine(nil)

	reply, err := engine.Respond(context.Background(), Request{Query: "pour me an espolòn blanco", Identity: "s"})
	require.NoError(t, err)
	require.Len(t, reply.Bubbles, 1)
	assert.Contains(t, reply.Bubbles[0], "• Type: Tequila")
}

func TestRespondFallbackOracleUnavailable(t *testing.T) {
	engine, _ := newTestEngine(&fakeOracle{err: errors.New("dial timeout")})

	reply, err := engine.Respond(context.Background(), Request{Query: "do you have wifi", Identity: "f"})
	require.NoError(t, err)
	require.Len(t, reply.Bubbles, 1)
	assert.Equal(t, FallbackBubble, reply.Bubbles[0])
}

func TestRespondFallbackWithoutOracle(t *testing.T) {
	engine, _ := newTestEngine(nil)

	reply, err := engine.Respond(context.Background(), Request{Query: "do you have wifi", Identity: "f"})
	require.NoError(t, err)
	assert.Equal(t, []string{FallbackBubble}, reply.Bubbles)
}

func TestRespondFallbackRelinksSession(t *testing.T) {
	oracle := &fakeOracle{bubbles: []string{
		"You should try the Margarita, it fits what you described.",
		"Want the batch on it?",
	}}
	engine, reg := newTestEngine(oracle)

	reply, err := engine.Respond(context.Background(), Request{Query: "something citrusy for a hot day", Mode: ModeStaff, Identity: "r"})
	require.NoError(t, err)
	assert.Len(t, reply.Bubbles, 2)
	assert.Equal(t, 1, oracle.calls)
	assert.Equal(t, "something citrusy for a hot day", oracle.user)
	assert.Contains(t, oracle.system, "Margarita")

	state := reg.Get("r")
	assert.Equal(t, "Margarita", state.LastItem)
	assert.Equal(t, ItemCocktail, state.LastItemType)
	assert.True(t, state.AwaitingSingleBuild, "staff re-link to a batched cocktail arms the confirmation")

	// The armed confirmation now resolves like a direct match would.
	reply, err = engine.Respond(context.Background(), Request{Query: "yes", Mode: ModeStaff, Identity: "r"})
	require.NoError(t, err)
	assert.Contains(t, reply.Bubbles[0], "• Shake hard")
}

func TestRespondFallbackRelinkGuestDoesNotArm(t *testing.T) {
	oracle := &fakeOracle{bubbles: []string{"Try the Margarita!"}}
	engine, reg := newTestEngine(oracle)

	_, err := engine.Respond(context.Background(), Request{Query: "something citrusy", Identity: "g2"})
	require.NoError(t, err)
	assert.False(t, reg.Get("g2").AwaitingSingleBuild)
	assert.Equal(t, "Margarita", reg.Get("g2").LastItem)
}

func TestRespondCancelledContextSkipsCommit(t *testing.T) {
	oracle := &fakeOracle{bubbles: []string{"Try the Margarita!"}}
	engine, reg := newTestEngine(oracle)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Respond(ctx, Request{Query: "something citrusy", Identity: "x"})
	assert.Error(t, err)
	assert.Empty(t, reg.Get("x").LastItem, "cancelled turn must not commit state")
}

func TestRespondAnswerJoinsBubbles(t *testing.T) {
	engine, _ := newTestEngine(nil)

	reply, err := engine.Respond(context.Background(), Request{Query: "margarita", Mode: ModeStaff, Identity: "j"})
	require.NoError(t, err)
	assert.Equal(t, reply.Bubbles[0]+"\n\n"+reply.Bubbles[1], reply.Answer)
}

func TestRespondUnknownModeDefaultsToGuest(t *testing.T) {
	engine, reg := newTestEngine(nil)

	reply, err := engine.Respond(context.Background(), Request{Query: "margarita", Mode: "admin", Identity: "m"})
	require.NoError(t, err)
	assert.NotContains(t, reply.Answer, "oz")
	assert.Equal(t, string(ModeGuest), reg.Get("m").LastMode)
}
