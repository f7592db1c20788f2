package numeric

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the random source used by every stochastic code path in
// decisiond (exploration picks, Thompson draws, EXP3 sampling, k-means
// initialization, weight initialization). Injecting it keeps the
// algorithmic core free of ambient global RNG calls and lets tests pin
// a seed for deterministic assertions.
type Source interface {
	// Float64 returns a uniform draw from [0, 1).
	Float64() float64

	// Intn returns a uniform draw from [0, n).
	Intn(n int) int

	// NormFloat64 returns a standard normal draw.
	NormFloat64() float64

	// Perm returns a random permutation of [0, n).
	Perm(n int) []int
}

// NewSource returns a Source seeded with the given value.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// NewTimeSource returns a Source seeded from the wall clock, for
// production use where determinism is not wanted.
func NewTimeSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Locked wraps a Source with a mutex. rand.Rand is not safe for
// concurrent use, and selection paths draw under a read lock.
func Locked(src Source) Source {
	return &lockedSource{src: src}
}

type lockedSource struct {
	mu  sync.Mutex
	src Source
}

func (l *lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

func (l *lockedSource) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}

func (l *lockedSource) NormFloat64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.NormFloat64()
}

func (l *lockedSource) Perm(n int) []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Perm(n)
}
