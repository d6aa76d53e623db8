package registry

import (
	"sync"

	"rpg/internal/brick"
)

// Handle is the lock-guarded container for one graph and its running flag
type Handle struct {
	mu      sync.RWMutex
	graph   *brick.Graph
	running bool
	fault   error
	done    chan struct{}
}

func newHandle(name string) *Handle {
	return &Handle{
		graph:   brick.NewGraph(name),
		running: true,
		done:    make(chan struct{}),
	}
}

// Name returns the graph name
func (h *Handle) Name() string {
	return h.graph.Name()
}

// View runs fn with the graph under the read lock. fn must not keep the
// graph or any brick after returning.
func (h *Handle) View(fn func(g *brick.Graph) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.fault != nil {
		return h.fault
	}
	return fn(h.graph)
}

// Update runs fn with the graph under the write lock
func (h *Handle) Update(fn func(g *brick.Graph) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fault != nil {
		return h.fault
	}
	return fn(h.graph)
}

// Running reports whether the driver has been told to keep polling
func (h *Handle) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Fault returns the error that stopped the driver, if any
func (h *Handle) Fault() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.fault
}

// Done is closed once the driver has exited
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.running = false
}
