package registry

import (
	"fmt"
	"runtime"
	"time"

	"rpg/internal/domain"
)

// drive polls the graph until its running flag is cleared or a poll
// panics, then closes every brick and signals Done.
func (r *Registry) drive(h *Handle) {
	defer close(h.done)

	name := h.Name()
	polled := r.observer.DriverStarted(name)
	r.logger.Debug("driver started", "graph", name)

	var iterations uint64
	for r.step(h) {
		iterations++
		polled()

		if r.driver.YieldEvery > 0 && iterations%uint64(r.driver.YieldEvery) == 0 {
			runtime.Gosched()
		}
		if r.driver.PollInterval > 0 {
			time.Sleep(r.driver.PollInterval)
		}
	}

	fault := r.shutdown(h)
	if fault != nil {
		r.logger.Error("driver faulted", "graph", name, "iterations", iterations, "error", fault)
	} else {
		r.logger.Debug("driver stopped", "graph", name, "iterations", iterations)
	}
	r.observer.DriverStopped(name, iterations, fault)
}

// step runs one poll pass under the write lock. It returns false once the
// graph has been stopped or the pass panicked.
func (r *Registry) step(h *Handle) (again bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return false
	}

	defer func() {
		if p := recover(); p != nil {
			h.fault = domain.NewError(domain.ErrInternal,
				fmt.Sprintf("graph %s stopped: poll panicked: %v", h.graph.Name(), p))
			h.running = false
			again = false
		}
	}()

	h.graph.Poll()
	return true
}

func (r *Registry) shutdown(h *Handle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.running = false
	if err := h.graph.Close(); err != nil {
		r.logger.Warn("closing bricks", "graph", h.graph.Name(), "error", err)
	}
	return h.fault
}
