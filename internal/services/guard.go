package services

import "sync"

// opGuard deduplicates in-flight mutations keyed by operation kind plus
// booking identity. Remote writes cannot be cancelled once issued, so a
// second identical request (a double-click, a retried form post) must be
// rejected rather than replayed.
type opGuard struct {
	mu   sync.Mutex
	busy map[string]bool
}

func newOpGuard() *opGuard {
	return &opGuard{busy: map[string]bool{}}
}

func (g *opGuard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy[key] {
		return false
	}
	g.busy[key] = true
	return true
}

func (g *opGuard) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, key)
}
