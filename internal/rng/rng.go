// Package rng keeps combat randomness replayable: one
// seeded generator at world bootstrap, split into independent per-system
// substreams so two systems rolling dice the same tick never perturb each
// other's sequence regardless of scheduler worker interleaving. Streams
// are seeded deterministically from the world seed plus a per-system salt
// via math/rand/v2's PCG source.
package rng

import (
	"math/rand/v2"
	"sync"
)

// Stream is one system's independent draw sequence. Not safe for
// concurrent use by more than one goroutine; a system that shards its own
// work across workers must own one Stream per worker (one Root.Stream call
// with a distinct name per worker).
type Stream struct {
	r     *rand.Rand
	draws uint64
}

func newStream(seed uint64, salt uint64) *Stream {
	return &Stream{r: rand.New(rand.NewPCG(seed, salt))}
}

// Float64 returns a draw in [0,1), matching math/rand/v2's own semantics,
// and counts it for Draws.
func (s *Stream) Float64() float64 {
	s.draws++
	return s.r.Float64()
}

// IntN returns a draw in [0,n) and counts it for Draws.
func (s *Stream) IntN(n int) int {
	s.draws++
	return s.r.IntN(n)
}

// Draws reports how many values this stream has produced since bootstrap.
// The server does not log it; only the root seed is logged, at startup.
func (s *Stream) Draws() uint64 { return s.draws }

// systemSalts assigns each named system a stable, distinct salt so the same
// world seed always reproduces the same per-system substreams regardless
// of registration order.
var systemSalts = map[string]uint64{
	"skill.proc":    1,
	"hero.attack":   2,
	"creep.attack":  3,
	"tower.attack":  4,
	"wave.spawn":    5,
	"vision.cache":  6,
}

// Root owns the world seed and lazily hands out one Stream per named
// system, memoized so repeated calls for the same name return the same
// Stream rather than re-deriving it.
type Root struct {
	seed    uint64
	mu      sync.Mutex
	streams map[string]*Stream
}

// NewRoot seeds the whole simulation's RNG tree. Bootstrap code should log
// seed once, at startup, so a replay can pass the same value back in.
func NewRoot(seed uint64) *Root {
	return &Root{seed: seed, streams: make(map[string]*Stream)}
}

func (r *Root) Seed() uint64 { return r.seed }

// Stream returns the named system's substream, creating it on first use.
// An unregistered name still works (falls back to a salt derived from the
// name itself) so a new system never needs a code change here to get a
// reproducible stream, only a stable name.
func (r *Root) Stream(name string) *Stream {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.streams[name]; ok {
		return s
	}
	salt, ok := systemSalts[name]
	if !ok {
		salt = fnv1a(name)
	}
	s := newStream(r.seed, salt)
	r.streams[name] = s
	return s
}

func fnv1a(s string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}
