// Package engine holds the agent's affective and motivational state machines.
//
// Every engine owns one persisted document, guards it with its own mutex and
// saves it after every mutation. Engines never call the text generator or
// the hardware; callers snapshot state, release the engine, talk to the
// collaborator and come back to record the outcome. The only outbound call is
// the optional embedder behind SemanticRetriever, made outside any lock.
package engine

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/storage"
)

// Clock abstracts wall time so tests can move it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Rand is the injected random source for every coin flip in the core.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// lockedRand makes a math/rand/v2 generator safe for concurrent use.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a goroutine-safe source seeded with seed.
func NewRand(seed uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// Deps are the collaborators shared by every engine.
type Deps struct {
	Store  storage.DocumentStore
	Tuning config.Tuning
	Clock  Clock
	Rand   Rand
	Logger zerolog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Rand == nil {
		d.Rand = NewRand(uint64(time.Now().UnixNano()))
	}
	return d
}

// binding ties one engine's state to its document key.
type binding[T any] struct {
	store  storage.DocumentStore
	key    string
	logger zerolog.Logger
}

func newBinding[T any](deps Deps, key string) binding[T] {
	return binding[T]{
		store:  deps.Store,
		key:    key,
		logger: deps.Logger.With().Str("component", "engine."+key).Logger(),
	}
}

// load returns the stored state, or fallback() when the document is missing,
// unreadable or written by a newer schema. normalize runs on loaded state so
// hand-edited or old documents come back inside their invariants.
func (b binding[T]) load(ctx context.Context, fallback func() T, normalize func(*T)) T {
	if b.store == nil {
		return fallback()
	}
	doc, err := b.store.Load(ctx, b.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			b.logger.Warn().Err(err).Msg("failed to load state, using defaults")
		}
		return fallback()
	}
	v := fallback()
	if err := doc.Decode(&v); err != nil {
		b.logger.Warn().Err(err).Msg("failed to decode state, using defaults")
		return fallback()
	}
	if normalize != nil {
		normalize(&v)
	}
	return v
}

// save persists v. Failures are logged and returned; in-memory state stays.
func (b binding[T]) save(ctx context.Context, v T) error {
	if b.store == nil {
		return nil
	}
	doc, err := storage.NewDocument(b.key, v)
	if err == nil {
		err = b.store.Save(ctx, doc)
	}
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to persist state")
	}
	return err
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

// chance reports whether a draw from r lands under p.
func chance(r Rand, p float64) bool {
	return r.Float64() < p
}

// trimFront keeps the newest n entries.
func trimFront[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return append([]T(nil), s[len(s)-n:]...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
