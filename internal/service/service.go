package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"rpg/internal/codec"
	"rpg/internal/ctxlog"
	"rpg/internal/domain"
	"rpg/internal/registry"
	"rpg/internal/render"
	"rpg/internal/repository"
)

// Recorder receives the outcome of every control operation and every
// published event
type Recorder interface {
	RecordOperation(operation, status string, duration time.Duration)
	RecordEvent(eventType string)
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(string, string, time.Duration) {}
func (nopRecorder) RecordEvent(string)                            {}

// Options configures a GraphService. Registry and Events are required.
type Options struct {
	Registry *registry.Registry
	Events   *EventBus
	Journal  repository.Journal
	Recorder Recorder
	SVG      render.SVG
	Logger   *slog.Logger
}

// GraphService provides the control operations on top of the registry and
// records what happened
type GraphService struct {
	reg      *registry.Registry
	eventBus *EventBus
	journal  repository.Journal
	recorder Recorder
	svg      render.SVG
	logger   *slog.Logger
}

// NewGraphService creates a new graph service
func NewGraphService(opts Options) *GraphService {
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Events == nil {
		opts.Events = NewEventBus()
	}
	return &GraphService{
		reg:      opts.Registry,
		eventBus: opts.Events,
		journal:  opts.Journal,
		recorder: opts.Recorder,
		svg:      opts.SVG,
		logger:   opts.Logger,
	}
}

// ListGraphs returns the names of every graph
func (s *GraphService) ListGraphs(ctx context.Context) []string {
	return s.reg.List()
}

// CreateGraph registers a new graph and starts its driver
func (s *GraphService) CreateGraph(ctx context.Context, name string) error {
	return s.do(ctx, domain.OpCreateGraph, name, "", EventGraphCreated, func() error {
		return s.reg.Create(name)
	})
}

// GetGraph returns a graph's name and brick names
func (s *GraphService) GetGraph(ctx context.Context, name string) (domain.GraphDescription, error) {
	return s.reg.DescribeGraph(name)
}

// DeleteGraph stops and removes a graph. With wait it returns only once
// the driver has released every brick, or ctx ends.
func (s *GraphService) DeleteGraph(ctx context.Context, name string, wait bool) error {
	var done <-chan struct{}
	err := s.do(ctx, domain.OpDeleteGraph, name, "", EventGraphDeleted, func() error {
		var err error
		done, err = s.reg.Delete(name)
		return err
	})
	if err != nil || !wait {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for graph %s to stop: %w", name, ctx.Err())
	}
}

// GetBrick returns a brick's name and type
func (s *GraphService) GetBrick(ctx context.Context, graph, name string) (domain.BrickDescription, error) {
	return s.reg.GetBrick(graph, name)
}

// BrickDetail returns a brick's full configuration
func (s *GraphService) BrickDetail(ctx context.Context, graph, name string) (domain.BrickDetail, error) {
	return s.reg.BrickDetail(graph, name)
}

// CreateBrick adds a brick to a graph
func (s *GraphService) CreateBrick(ctx context.Context, graph string, spec registry.BrickSpec) error {
	return s.do(ctx, domain.OpCreateBrick, graph, spec.Name, EventBrickCreated, func() error {
		return s.reg.CreateBrick(graph, spec)
	})
}

// DeleteBrick detaches and removes a brick
func (s *GraphService) DeleteBrick(ctx context.Context, graph, name string) error {
	return s.do(ctx, domain.OpDeleteBrick, graph, name, EventBrickDeleted, func() error {
		return s.reg.DeleteBrick(graph, name)
	})
}

// Link connects west to east
func (s *GraphService) Link(ctx context.Context, graph, west, east string) error {
	return s.doPair(ctx, domain.OpLink, graph, west, east, EventLinked, s.reg.Link)
}

// UnlinkPair disconnects west from east
func (s *GraphService) UnlinkPair(ctx context.Context, graph, west, east string) error {
	return s.doPair(ctx, domain.OpUnlinkPair, graph, west, east, EventUnlinked, s.reg.UnlinkPair)
}

// UnlinkOne disconnects a brick from all its peers
func (s *GraphService) UnlinkOne(ctx context.Context, graph, name string) error {
	return s.do(ctx, domain.OpUnlinkOne, graph, name, EventBrickUnlinked, func() error {
		return s.reg.UnlinkOne(graph, name)
	})
}

// FirewallRuleAdd stages a filter on a firewall brick
func (s *GraphService) FirewallRuleAdd(ctx context.Context, graph, name, filter, side string) error {
	return s.do(ctx, domain.OpFirewallAdd, graph, name, EventFirewallChanged, func() error {
		return s.reg.FirewallRuleAdd(graph, name, filter, side)
	})
}

// FirewallFlush drops the staged rules of a firewall brick
func (s *GraphService) FirewallFlush(ctx context.Context, graph, name string) error {
	return s.do(ctx, domain.OpFirewallFlush, graph, name, EventFirewallChanged, func() error {
		return s.reg.FirewallFlush(graph, name)
	})
}

// FirewallReload activates the staged rules of a firewall brick
func (s *GraphService) FirewallReload(ctx context.Context, graph, name string) error {
	return s.do(ctx, domain.OpFirewallReload, graph, name, EventFirewallChanged, func() error {
		return s.reg.FirewallReload(graph, name)
	})
}

// Topology returns the bricks and links of a graph
func (s *GraphService) Topology(ctx context.Context, graph string) (domain.Topology, error) {
	return s.reg.Topology(graph)
}

// Stats returns how many processing steps each brick of a graph has run
func (s *GraphService) Stats(ctx context.Context, graph string) (map[string]uint64, error) {
	return s.reg.Stats(graph)
}

// FirewallRules returns a firewall's staged and active rule sets
func (s *GraphService) FirewallRules(ctx context.Context, graph, name string) (staged, active []domain.Rule, err error) {
	return s.reg.FirewallRules(graph, name)
}

// RenderDot returns the DOT text of a graph. Failures other than a
// missing graph yield empty text.
func (s *GraphService) RenderDot(ctx context.Context, graph string) (string, error) {
	topo, err := s.reg.Topology(graph)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		s.log(ctx).Warn("rendering dot", "graph", graph, "error", err)
		return "", nil
	}
	return render.DOT(topo), nil
}

// RenderSVG returns the graph drawn by graphviz
func (s *GraphService) RenderSVG(ctx context.Context, graph string) ([]byte, error) {
	topo, err := s.reg.Topology(graph)
	if err != nil {
		return nil, err
	}
	out, err := s.svg.Render(ctx, render.DOT(topo))
	if err != nil {
		s.log(ctx).Warn("rendering svg", "graph", graph, "error", err)
		return nil, domain.NewError(domain.ErrNotFound, fmt.Sprintf("svg for graph %s unavailable", graph))
	}
	return out, nil
}

// RenderVis returns the graph as vis-network nodes and edges
func (s *GraphService) RenderVis(ctx context.Context, graph string) (render.VisNetwork, error) {
	topo, err := s.reg.Topology(graph)
	if err != nil {
		return render.VisNetwork{}, err
	}
	return render.Vis(topo), nil
}

// Export serializes a graph's topology; it returns the data and its
// content type
func (s *GraphService) Export(ctx context.Context, graph, format string) ([]byte, string, error) {
	c, err := codec.ForFormat(format)
	if err != nil {
		return nil, "", err
	}
	topo, err := s.reg.Topology(graph)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := c.Export(&topo, &buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), c.ContentType(), nil
}

// Import parses a topology and builds it as a new graph
func (s *GraphService) Import(ctx context.Context, format string, r io.Reader) (*domain.Topology, error) {
	c, err := codec.ForFormat(format)
	if err != nil {
		return nil, err
	}
	topo, err := c.Parse(r)
	if err != nil {
		return nil, domain.NewError(domain.ErrInvalidArgument, err.Error())
	}
	if err := s.ApplyTopology(ctx, topo); err != nil {
		return nil, err
	}
	return topo, nil
}

// Journal lists recorded operations, newest first
func (s *GraphService) Journal(ctx context.Context, filter domain.JournalFilter) ([]domain.JournalEntry, error) {
	if s.journal == nil {
		return []domain.JournalEntry{}, nil
	}
	return s.journal.List(ctx, filter)
}

// Events returns the bus on which mutations are published
func (s *GraphService) Events() *EventBus {
	return s.eventBus
}

func (s *GraphService) doPair(ctx context.Context, op, graph, west, east string, eventType EventType,
	fn func(graph, west, east string) error) error {
	start := time.Now()
	err := fn(graph, west, east)
	s.finish(ctx, op, graph, west+"->"+east, start, err)
	if err == nil {
		s.publish(Event{
			Type:    eventType,
			Payload: map[string]string{"graph": graph, "west": west, "east": east},
		})
	}
	return err
}

func (s *GraphService) do(ctx context.Context, op, graph, brick string, eventType EventType, fn func() error) error {
	start := time.Now()
	err := fn()
	s.finish(ctx, op, graph, brick, start, err)
	if err == nil {
		payload := map[string]string{"graph": graph}
		if brick != "" {
			payload["brick"] = brick
		}
		s.publish(Event{Type: eventType, Payload: payload})
	}
	return err
}

// finish records the outcome of an operation in metrics, the journal and
// the log
func (s *GraphService) finish(ctx context.Context, op, graph, brick string, start time.Time, err error) {
	result := domain.ResultFromError(err)
	s.recorder.RecordOperation(op, result.Status, time.Since(start))

	logger := s.log(ctx).With("op", op, "graph", graph)
	if brick != "" {
		logger = logger.With("brick", brick)
	}
	if err != nil {
		logger.Info("operation failed", "class", domain.Classify(err).String(), "description", result.Description)
	} else {
		logger.Debug("operation done")
	}

	if s.journal == nil {
		return
	}
	entry := &domain.JournalEntry{
		RequestID:   ctxlog.RequestID(ctx),
		Operation:   op,
		Graph:       graph,
		Brick:       brick,
		Status:      result.Status,
		Description: result.Description,
	}
	if jerr := s.journal.Record(context.WithoutCancel(ctx), entry); jerr != nil {
		logger.Warn("failed to record journal entry", "error", jerr)
	}
}

func (s *GraphService) publish(event Event) {
	s.recorder.RecordEvent(string(event.Type))
	s.eventBus.Publish(event)
}

func (s *GraphService) log(ctx context.Context) *slog.Logger {
	return ctxlog.FromContext(ctx, s.logger)
}
