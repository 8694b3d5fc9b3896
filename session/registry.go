package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// State is one caller's conversational state. It only exists to make
// follow-up turns ("yes", "quiz me") resolve against the last thing the
// caller asked about.
type State struct {
	LastItem            string
	LastItemType        string // "cocktail" or "spirit", empty until set
	LastMode            string // "guest" or "staff", empty until set
	AwaitingSingleBuild bool
	UpdatedAt           time.Time
}

// Registry owns all session state. Get never fails, Touch is
// last-writer-wins, and Sweep reclaims idle entries.
type Registry interface {
	Get(id string) State
	Touch(id string, s State)
	Sweep(now time.Time)
}

const (
	// Chance that a Touch also runs a sweep. Keeps amortized cost low;
	// an idle entry can outlive the TTL under low traffic, which is fine
	// because session identity carries nothing security-sensitive.
	sweepChance = 0.1

	redisOpTimeout = 2 * time.Second
)

// Memory is the process-wide in-memory registry, optionally mirrored to
// Redis for observability. The mirror is best-effort: a missing or dead
// Redis never affects dialogue behavior.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]State

	ttl   time.Duration
	clock func() time.Time
	roll  func() float64

	redis *redis.Client
	log   *zap.SugaredLogger
}

// NewMemory creates a registry with the given idle TTL.
func NewMemory(ttl time.Duration, log *zap.SugaredLogger) *Memory {
	return &Memory{
		entries: make(map[string]State),
		ttl:     ttl,
		clock:   time.Now,
		roll:    rand.Float64,
		log:     log,
	}
}

// WithClock overrides the time source. Tests use this to drive the TTL.
func (m *Memory) WithClock(clock func() time.Time) *Memory {
	m.clock = clock
	return m
}

// WithRedis attaches a best-effort state mirror. A nil client disables it.
func (m *Memory) WithRedis(client *redis.Client) *Memory {
	m.redis = client
	return m
}

// Get returns the caller's state, creating a default entry on first
// access.
func (m *Memory) Get(id string) State {
	m.mu.RLock()
	s, ok := m.entries[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	s = State{UpdatedAt: m.clock()}
	m.mu.Lock()
	if existing, raced := m.entries[id]; raced {
		s = existing
	} else {
		m.entries[id] = s
	}
	m.mu.Unlock()
	return s
}

// Touch upserts the caller's state and stamps it with the current time.
// Concurrent touches for the same identity are last-writer-wins.
func (m *Memory) Touch(id string, s State) {
	now := m.clock()
	s.UpdatedAt = now

	m.mu.Lock()
	m.entries[id] = s
	m.mu.Unlock()

	m.mirror(id, s)

	if m.roll() < sweepChance {
		m.Sweep(now)
	}
}

// Sweep removes entries idle past the TTL.
func (m *Memory) Sweep(now time.Time) {
	var expired []string

	m.mu.Lock()
	for id, s := range m.entries {
		if now.Sub(s.UpdatedAt) > m.ttl {
			delete(m.entries, id)
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	if len(expired) == 0 {
		return
	}
	if m.log != nil {
		m.log.Infof("🧹 Swept %d idle session(s)", len(expired))
	}
	if m.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		defer cancel()
		for _, id := range expired {
			m.redis.Del(ctx, "session:"+id)
		}
	}
}

// Count returns the number of live sessions.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) mirror(id string, s State) {
	if m.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	err := m.redis.HSet(ctx, "session:"+id, map[string]interface{}{
		"last_item":      s.LastItem,
		"last_item_type": s.LastItemType,
		"last_mode":      s.LastMode,
		"awaiting_build": s.AwaitingSingleBuild,
		"updated_at":     s.UpdatedAt.Format(time.RFC3339),
	}).Err()
	if err == nil {
		err = m.redis.Expire(ctx, "session:"+id, m.ttl).Err()
	}
	if err != nil && m.log != nil {
		m.log.Debugf("Redis session mirror failed: %v", err)
	}
}

// ConnectRedis dials Redis and returns nil if it is unreachable, so
// callers can run without the mirror.
func ConnectRedis(addr, password string, log *zap.SugaredLogger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if log != nil {
			log.Warnf("⚠️ Redis unavailable at %s, continuing without it: %v", addr, err)
		}
		_ = client.Close()
		return nil
	}
	return client
}
