package sim

import (
	mathrand "math/rand"
	"sync"
)

// Rand is the only source of randomness the core consults.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// LockedRand is a seedable Rand safe for use from several goroutines.
type LockedRand struct {
	mu  sync.Mutex
	src *mathrand.Rand
}

func NewRand(seed int64) *LockedRand {
	return &LockedRand{src: mathrand.New(mathrand.NewSource(seed))}
}

func (r *LockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}

func (r *LockedRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Intn(n)
}

func pick[T any](rng Rand, items []T) T {
	return items[rng.Intn(len(items))]
}
