package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/animus/internal/config"
	"github.com/scrypster/animus/internal/storage"
	"github.com/scrypster/animus/internal/storage/sqlite"
)

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// seqRand replays fixed draws; the last value repeats forever.
type seqRand struct {
	mu    sync.Mutex
	vals  []float64
	draws int
}

func newSeqRand(vals ...float64) *seqRand {
	return &seqRand{vals: vals}
}

func (r *seqRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draws++
	if len(r.vals) == 0 {
		return 0.5
	}
	v := r.vals[0]
	if len(r.vals) > 1 {
		r.vals = r.vals[1:]
	}
	return v
}

func (r *seqRand) IntN(n int) int {
	return int(r.Float64() * float64(n))
}

// failingStore rejects every call.
type failingStore struct{}

var errDiskGone = errors.New("disk gone")

func (failingStore) Load(context.Context, string) (*storage.Document, error) { return nil, errDiskGone }
func (failingStore) Save(context.Context, *storage.Document) error            { return errDiskGone }
func (failingStore) Keys(context.Context) ([]string, error)                   { return nil, errDiskGone }
func (failingStore) Close() error                                             { return nil }

func newMemoryStore(t *testing.T) *sqlite.DocumentStore {
	t.Helper()
	store, err := sqlite.NewDocumentStore(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestDeps(t *testing.T) (Deps, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	return Deps{
		Store:  newMemoryStore(t),
		Tuning: config.DefaultTuning(),
		Clock:  clock,
		Rand:   NewRand(42),
		Logger: zerolog.Nop(),
	}, clock
}
