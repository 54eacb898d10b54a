package pipeline

import (
	"fmt"
	"sync"
)

// Guard tracks in-flight requests by key.
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewGuard returns an empty Guard.
func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]struct{})}
}

// Acquire claims key. It returns ErrBusy while another holder has not yet
// called the returned release func.
func (g *Guard) Acquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.inflight[key]; held {
		return nil, fmt.Errorf("%s: %w", key, ErrBusy)
	}
	g.inflight[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, nil
}

func guardKey(op, actor, subject string) string {
	return op + "|" + actor + "|" + subject
}
