package fanout

import "sync"

// corkState is the engine's replication barrier (spec §4.5 / §9). While
// corked, Broadcast blocks every caller until Uncork is called, giving a
// coordinator (e.g. a snapshot upload) a moment where no peer observes a
// partial batch of operations.
type corkState struct {
	mu     sync.Mutex
	cond   *sync.Cond
	corked bool
}

func newCorkState() *corkState {
	c := &corkState{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Cork transitions into the corked state. Corking an already-corked engine
// is a no-op: the spec treats duplicate CORK commands as idempotent rather
// than as an error. It reports whether the state actually changed.
func (c *corkState) Cork() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := !c.corked
	c.corked = true
	return changed
}

// Uncork releases every Broadcast call currently waiting on the barrier.
// Like Cork, uncorking an already-uncorked engine is a no-op. It reports
// whether the state actually changed.
func (c *corkState) Uncork() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.corked
	c.corked = false
	c.cond.Broadcast()
	return changed
}

// wait blocks the calling goroutine while the engine is corked.
func (c *corkState) wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.corked {
		c.cond.Wait()
	}
}

// Corked reports whether the barrier is currently engaged.
func (c *corkState) Corked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.corked
}
