package webui

import (
	"context"
	"sync"
)

// runGuard keeps at most one ingestion per job in flight.
type runGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock marks job as running; false if it already is.
func (g *runGuard) TryLock(job string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[job]; ok {
		return false
	}
	g.running[job] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases job. Call only after a successful TryLock.
func (g *runGuard) Unlock(job string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, job)
	g.wg.Done()
}

// WaitAll blocks until in-flight runs finish or ctx is done.
func (g *runGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
