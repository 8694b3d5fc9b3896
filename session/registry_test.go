package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestRegistry(ttl time.Duration) (*Memory, *time.Time) {
	now := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	reg := NewMemory(ttl, zap.NewNop().Sugar()).WithClock(func() time.Time { return now })
	// Disable the probabilistic sweep so tests drive it explicitly.
	reg.roll = func() float64 { return 1 }
	return reg, &now
}

func TestGetCreatesDefaultState(t *testing.T) {
	reg, _ := newTestRegistry(20 * time.Minute)

	s := reg.Get("new-caller")
	assert.Empty(t, s.LastItem)
	assert.Empty(t, s.LastItemType)
	assert.False(t, s.AwaitingSingleBuild)
	assert.Equal(t, 1, reg.Count())
}

func TestTouchUpserts(t *testing.T) {
	reg, now := newTestRegistry(20 * time.Minute)

	reg.Touch("caller", State{LastItem: "Margarita", LastItemType: "cocktail", LastMode: "staff"})

	s := reg.Get("caller")
	assert.Equal(t, "Margarita", s.LastItem)
	assert.Equal(t, *now, s.UpdatedAt)

	reg.Touch("caller", State{LastItem: "Old Fashioned", LastItemType: "cocktail"})
	assert.Equal(t, "Old Fashioned", reg.Get("caller").LastItem, "last writer wins")
}

func TestSweepEvictsOnlyIdleEntries(t *testing.T) {
	reg, now := newTestRegistry(20 * time.Minute)

	reg.Touch("old", State{LastItem: "Margarita"})

	*now = now.Add(15 * time.Minute)
	reg.Touch("fresh", State{LastItem: "Old Fashioned"})

	// "old" is now 21 minutes idle, "fresh" only 6.
	*now = now.Add(6 * time.Minute)
	reg.Sweep(*now)

	assert.Equal(t, 1, reg.Count())
	assert.Empty(t, reg.Get("old").LastItem, "idle entry must be evicted")
	assert.Equal(t, "Old Fashioned", reg.Get("fresh").LastItem, "young entry must survive")
}

func TestSweepKeepsEntriesAtBoundary(t *testing.T) {
	reg, now := newTestRegistry(20 * time.Minute)

	reg.Touch("edge", State{LastItem: "Margarita"})

	// Exactly the TTL is not "past" it.
	reg.Sweep(now.Add(20 * time.Minute))
	assert.Equal(t, "Margarita", reg.Get("edge").LastItem)

	reg.Sweep(now.Add(20*time.Minute + time.Second))
	assert.Empty(t, reg.Get("edge").LastItem)
}

func TestProbabilisticSweepFromTouch(t *testing.T) {
	reg, now := newTestRegistry(20 * time.Minute)

	reg.Touch("old", State{LastItem: "Margarita"})
	*now = now.Add(30 * time.Minute)

	// Roll above the threshold: no sweep piggybacks on Touch.
	reg.roll = func() float64 { return 0.99 }
	reg.Touch("other", State{})
	assert.Equal(t, 2, reg.Count())

	// Roll below the threshold: the idle entry goes.
	reg.roll = func() float64 { return 0 }
	reg.Touch("other", State{})
	assert.Equal(t, 1, reg.Count())
}
