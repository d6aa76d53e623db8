package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"rpg/internal/brick"
	"rpg/internal/domain"
)

// DriverConfig tunes the per-graph poll loop. The zero value is a tight
// loop that never yields explicitly.
type DriverConfig struct {
	// YieldEvery calls runtime.Gosched after every N iterations (0 = never)
	YieldEvery int
	// PollInterval sleeps between iterations, outside the lock (0 = never)
	PollInterval time.Duration
}

// Observer is notified of driver lifecycle events
type Observer interface {
	// DriverStarted is called once when a graph's driver starts. The
	// returned function is called after every poll iteration.
	DriverStarted(graph string) (polled func())
	// DriverStopped is called once after the driver has exited
	DriverStopped(graph string, iterations uint64, fault error)
}

type nopObserver struct{}

func (nopObserver) DriverStarted(string) func()         { return func() {} }
func (nopObserver) DriverStopped(string, uint64, error) {}

// Options configures a Registry
type Options struct {
	Logger   *slog.Logger
	Devices  brick.DeviceProvider
	Driver   DriverConfig
	Observer Observer
}

// Registry maps graph names to handles and is the entry point for every
// control operation
type Registry struct {
	mu     sync.RWMutex
	graphs map[string]*Handle

	logger   *slog.Logger
	devices  brick.DeviceProvider
	driver   DriverConfig
	observer Observer
}

// New creates an empty registry
func New(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Devices == nil {
		opts.Devices = brick.NewDevices(0, nil)
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Registry{
		graphs:   make(map[string]*Handle),
		logger:   opts.Logger,
		devices:  opts.Devices,
		driver:   opts.Driver,
		observer: opts.Observer,
	}
}

// Create registers an empty graph and starts its driver
func (r *Registry) Create(name string) error {
	_, err := r.CreateHandle(name)
	return err
}

// CreateHandle is Create returning the new graph's handle, for callers
// that later need DeleteHandle
func (r *Registry) CreateHandle(name string) (*Handle, error) {
	if name == "" {
		return nil, domain.NewError(domain.ErrInvalidArgument, "graph name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.graphs[name]; exists {
		return nil, domain.NewError(domain.ErrAlreadyExists, "graph already exists")
	}

	h := newHandle(name)
	r.graphs[name] = h
	go r.drive(h)

	r.logger.Info("graph created", "graph", name)
	return h, nil
}

// List returns the registered graph names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.graphs))
	for name := range r.graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the handle of a graph
func (r *Registry) Get(name string) (*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.graphs[name]
	if !ok {
		return nil, graphNotFound(name)
	}
	return h, nil
}

// Delete unregisters a graph and tells its driver to stop. The returned
// channel is closed once the driver has exited and released every brick.
func (r *Registry) Delete(name string) (<-chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.graphs[name]
	if !ok {
		return nil, graphNotFound(name)
	}
	return r.remove(h), nil
}

// DeleteHandle deletes the graph only while h is still the one registered
// under its name. A graph deleted and recreated by someone else in the
// meantime is left alone and reported as not found.
func (r *Registry) DeleteHandle(h *Handle) (<-chan struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.graphs[h.Name()]; !ok || cur != h {
		return nil, graphNotFound(h.Name())
	}
	return r.remove(h), nil
}

// remove must be called with r.mu held
func (r *Registry) remove(h *Handle) <-chan struct{} {
	delete(r.graphs, h.Name())
	h.stop()

	r.logger.Info("graph deleted", "graph", h.Name())
	return h.Done()
}

// Close deletes every graph and waits for their drivers to exit or for
// ctx to end
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	handles := make([]*Handle, 0, len(r.graphs))
	for name, h := range r.graphs {
		handles = append(handles, h)
		delete(r.graphs, name)
	}
	r.mu.Unlock()

	for _, h := range handles {
		h.stop()
	}
	for _, h := range handles {
		select {
		case <-h.Done():
		case <-ctx.Done():
			return fmt.Errorf("waiting for graph drivers: %w", ctx.Err())
		}
	}
	return nil
}

func graphNotFound(name string) error {
	return domain.NewError(domain.ErrNotFound, fmt.Sprintf("graph %s not found", name))
}

func brickNotFound(name string) error {
	return domain.NewError(domain.ErrNotFound, fmt.Sprintf("brick %s not found", name))
}
