package watcher

import (
	"sync"
	"time"
)

// ChangeKind classifies a coalesced change.
type ChangeKind int

const (
	ChangeWrite ChangeKind = iota
	ChangeRemove
)

// String returns the metric label for k.
func (k ChangeKind) String() string {
	if k == ChangeRemove {
		return "remove"
	}
	return "write"
}

// Change is one settled change to a path.
type Change struct {
	Path string
	Kind ChangeKind
	At   time.Time
}

// Coalescer holds changes per path until the path has been quiet for the
// debounce window, then emits a single Change for it.
type Coalescer struct {
	window time.Duration

	mu      sync.Mutex
	pending map[string]*pendingChange
	out     chan Change
	stopCh  chan struct{}
	stopped bool
	sending sync.WaitGroup
}

type pendingChange struct {
	change Change
	timer  *time.Timer
}

// NewCoalescer creates a Coalescer with the given debounce window.
func NewCoalescer(window time.Duration) *Coalescer {
	return &Coalescer{
		window:  window,
		pending: make(map[string]*pendingChange),
		out:     make(chan Change, 256),
		stopCh:  make(chan struct{}),
	}
}

// Add records a change and restarts the path's timer.
//
// A write after a remove settles as a write since the file was replaced. A
// remove after a write settles as a remove.
func (c *Coalescer) Add(ch Change) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}

	if pc, ok := c.pending[ch.Path]; ok {
		pc.timer.Stop()
	}
	pc := &pendingChange{change: ch}
	pc.timer = time.AfterFunc(c.window, func() { c.emit(pc) })
	c.pending[ch.Path] = pc
}

// Changes returns the channel of settled changes. It is closed by Stop.
func (c *Coalescer) Changes() <-chan Change {
	return c.out
}

// Stop discards pending changes and closes the Changes channel.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	for path, pc := range c.pending {
		pc.timer.Stop()
		delete(c.pending, path)
	}
	c.mu.Unlock()

	close(c.stopCh)
	c.sending.Wait()
	close(c.out)
}

// Pending returns the number of paths waiting to settle.
func (c *Coalescer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// emit sends a settled change. A timer that fires after its change was
// replaced or stopped no longer owns the pending slot and returns.
func (c *Coalescer) emit(pc *pendingChange) {
	c.mu.Lock()
	path := pc.change.Path
	if c.stopped || c.pending[path] != pc {
		c.mu.Unlock()
		return
	}
	delete(c.pending, path)
	c.sending.Add(1)
	c.mu.Unlock()
	defer c.sending.Done()

	select {
	case c.out <- pc.change:
	case <-c.stopCh:
	}
}
