package streambalancer

import (
	"math/rand"
	"sync"
)

// Picker chooses the consumer which takes over a reclaimed entry. active is never empty.
type Picker func(active []string) string

// RandomPicker picks uniformly at random
func RandomPicker(active []string) string {
	return active[rand.Intn(len(active))]
}

// NewSeededPicker returns a reproducible Picker, safe for concurrent use
func NewSeededPicker(seed int64) Picker {
	var mu sync.Mutex
	rnd := rand.New(rand.NewSource(seed))
	return func(active []string) string {
		mu.Lock()
		defer mu.Unlock()
		return active[rnd.Intn(len(active))]
	}
}
