package llm

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// breakerRegistry hands out one gobreaker.CircuitBreaker per model id so a
// broken provider can't blow its budget out retrying a dead endpoint while
// other models keep dispatching normally.
type breakerRegistry struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func newBreakerRegistry() *breakerRegistry {
	return &breakerRegistry{breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

func (r *breakerRegistry) forModel(modelID string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[modelID]; ok {
		return b
	}

	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        modelID,
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	r.breakers[modelID] = b
	return b
}
