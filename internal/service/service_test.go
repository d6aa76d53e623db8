package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpg/internal/brick"
	"rpg/internal/ctxlog"
	"rpg/internal/domain"
	"rpg/internal/registry"
	"rpg/internal/render"
	"rpg/internal/repository/sqlite"
)

type fakeRecorder struct {
	mu     sync.Mutex
	ops    map[string]int
	events []string
}

func (r *fakeRecorder) RecordOperation(operation, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ops == nil {
		r.ops = make(map[string]int)
	}
	r.ops[operation+"/"+status]++
}

func (r *fakeRecorder) RecordEvent(eventType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

type fixture struct {
	svc      *GraphService
	journal  *sqlite.Repository
	recorder *fakeRecorder
	events   chan Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := registry.New(registry.Options{
		Logger:  logger,
		Devices: brick.NewDevices(2, nil),
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, reg.Close(ctx))
	})

	journal, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	f := &fixture{
		journal:  journal,
		recorder: &fakeRecorder{},
		events:   make(chan Event, 64),
	}
	bus := NewEventBus()
	bus.Subscribe(f.events)

	f.svc = NewGraphService(Options{
		Registry: reg,
		Events:   bus,
		Journal:  journal,
		Recorder: f.recorder,
		SVG:      render.SVG{Binary: "rpg-no-such-dot-binary"},
		Logger:   logger,
	})
	return f
}

func (f *fixture) drain() []EventType {
	var types []EventType
	for {
		select {
		case e := <-f.events:
			types = append(types, e.Type)
		default:
			return types
		}
	}
}

func TestCreateGraphJournalsAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := ctxlog.WithRequestID(context.Background(), "req-1")

	require.NoError(t, f.svc.CreateGraph(ctx, "g"))
	err := f.svc.CreateGraph(ctx, "g")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyExists))

	assert.Equal(t, []EventType{EventGraphCreated}, f.drain(), "failed operations publish nothing")
	assert.Equal(t, []string{"g"}, f.svc.ListGraphs(ctx))

	entries, err := f.svc.Journal(ctx, domain.JournalFilter{Graph: "g"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.StatusError, entries[0].Status)
	assert.Equal(t, "graph already exists", entries[0].Description)
	assert.Equal(t, domain.StatusOK, entries[1].Status)
	assert.Equal(t, "req-1", entries[1].RequestID)

	assert.Equal(t, 1, f.recorder.ops["create_graph/ok"])
	assert.Equal(t, 1, f.recorder.ops["create_graph/error"])
	assert.Equal(t, []string{"graph_created"}, f.recorder.events)
}

func TestEndToEndThroughService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.CreateGraph(ctx, "g"))
	require.NoError(t, f.svc.CreateBrick(ctx, "g", registry.BrickSpec{Kind: domain.KindTap, Name: "t1"}))
	require.NoError(t, f.svc.CreateBrick(ctx, "g", registry.BrickSpec{
		Kind: domain.KindSwitch, Name: "s1", WestPorts: 2, EastPorts: 2, Side: "west",
	}))
	require.NoError(t, f.svc.Link(ctx, "g", "t1", "s1"))

	desc, err := f.svc.GetGraph(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "t1"}, desc.Bricks)

	b, err := f.svc.GetBrick(ctx, "g", "s1")
	require.NoError(t, err)
	assert.Equal(t, "switch", b.TypeName)

	require.NoError(t, f.svc.UnlinkPair(ctx, "g", "t1", "s1"))
	require.NoError(t, f.svc.UnlinkOne(ctx, "g", "s1"))
	require.NoError(t, f.svc.DeleteBrick(ctx, "g", "t1"))
	require.NoError(t, f.svc.DeleteGraph(ctx, "g", true))

	assert.Equal(t, []EventType{
		EventGraphCreated, EventBrickCreated, EventBrickCreated, EventLinked,
		EventUnlinked, EventBrickUnlinked, EventBrickDeleted, EventGraphDeleted,
	}, f.drain())

	entries, err := f.svc.Journal(ctx, domain.JournalFilter{Operation: domain.OpLink})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "t1->s1", entries[0].Brick)

	_, err = f.svc.GetGraph(ctx, "g")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDeleteGraphWaitHonorsContext(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.CreateGraph(context.Background(), "g"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// the driver may or may not have stopped yet; either outcome is valid
	err := f.svc.DeleteGraph(ctx, "g", true)
	if err != nil {
		assert.True(t, errors.Is(err, context.Canceled))
	}
	assert.Empty(t, f.svc.ListGraphs(context.Background()))

	err = f.svc.DeleteGraph(context.Background(), "g", false)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFirewallThroughService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.CreateGraph(ctx, "g"))
	require.NoError(t, f.svc.CreateBrick(ctx, "g", registry.BrickSpec{Kind: domain.KindFirewall, Name: "fw"}))
	require.NoError(t, f.svc.FirewallRuleAdd(ctx, "g", "fw", "udp", "east"))
	require.NoError(t, f.svc.FirewallReload(ctx, "g", "fw"))
	require.NoError(t, f.svc.FirewallFlush(ctx, "g", "fw"))

	err := f.svc.FirewallRuleAdd(ctx, "g", "fw", "udp", "north")
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	detail, err := f.svc.BrickDetail(ctx, "g", "fw")
	require.NoError(t, err)
	assert.Empty(t, detail.Rules)
}

func TestRenderDot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RenderDot(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, f.svc.CreateGraph(ctx, "g"))
	require.NoError(t, f.svc.CreateBrick(ctx, "g", registry.BrickSpec{Kind: domain.KindNop, Name: "n"}))
	dot, err := f.svc.RenderDot(ctx, "g")
	require.NoError(t, err)
	assert.Contains(t, dot, `digraph "g"`)
	assert.Contains(t, dot, `"n" [shape=box`)
}

func TestRenderSVGUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.CreateGraph(ctx, "g"))

	_, err := f.svc.RenderSVG(ctx, "g")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRenderVis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.CreateGraph(ctx, "g"))
	require.NoError(t, f.svc.CreateBrick(ctx, "g", registry.BrickSpec{Kind: domain.KindNop, Name: "a"}))
	require.NoError(t, f.svc.CreateBrick(ctx, "g", registry.BrickSpec{Kind: domain.KindNop, Name: "b"}))
	require.NoError(t, f.svc.Link(ctx, "g", "a", "b"))

	network, err := f.svc.RenderVis(ctx, "g")
	require.NoError(t, err)
	assert.Len(t, network.Nodes, 2)
	assert.Equal(t, []render.VisEdge{{From: "a", To: "b", Arrows: "to"}}, network.Edges)
}

func TestExportImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.CreateGraph(ctx, "g"))
	require.NoError(t, f.svc.CreateBrick(ctx, "g", registry.BrickSpec{Kind: domain.KindHub, Name: "h", WestPorts: 1, EastPorts: 2}))
	require.NoError(t, f.svc.CreateBrick(ctx, "g", registry.BrickSpec{Kind: domain.KindFirewall, Name: "fw"}))
	require.NoError(t, f.svc.FirewallRuleAdd(ctx, "g", "fw", "tcp port 80", "west"))
	require.NoError(t, f.svc.Link(ctx, "g", "fw", "h"))

	data, contentType, err := f.svc.Export(ctx, "g", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "application/yaml", contentType)

	doc := strings.Replace(string(data), "name: g\n", "name: copy\n", 1)
	topo, err := f.svc.Import(ctx, "yaml", strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "copy", topo.Name)

	original, err := f.svc.Topology(ctx, "g")
	require.NoError(t, err)
	copied, err := f.svc.Topology(ctx, "copy")
	require.NoError(t, err)
	assert.Equal(t, original.Links, copied.Links)
	assert.Equal(t, original.Bricks, copied.Bricks)

	_, _, err = f.svc.Export(ctx, "g", "xml")
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	_, _, err = f.svc.Export(ctx, "missing", "json")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.svc.Import(ctx, "json", bytes.NewReader([]byte("{")))
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestApplyTopologyRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	topo := &domain.Topology{
		Name: "lab",
		Bricks: []domain.BrickDetail{
			{BrickDescription: domain.BrickDescription{Name: "a", TypeName: "nop"}},
		},
		Links: []domain.Link{{West: "a", East: "zz"}},
	}
	err := f.svc.ApplyTopology(ctx, topo)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, "link a -> zz: east brick not found", domain.Describe(err))
	assert.Empty(t, f.svc.ListGraphs(ctx))

	bad := &domain.Topology{
		Name: "lab",
		Bricks: []domain.BrickDetail{
			{BrickDescription: domain.BrickDescription{Name: "s", TypeName: "switch"}, Side: "up"},
		},
	}
	err = f.svc.ApplyTopology(ctx, bad)
	assert.Equal(t, "brick s: choose west or east for side parameter", domain.Describe(err))
	assert.Empty(t, f.svc.ListGraphs(ctx))

	err = f.svc.ApplyTopology(ctx, &domain.Topology{})
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	entries, err := f.svc.Journal(ctx, domain.JournalFilter{Operation: domain.OpApplyTopology})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestApplyTopologyActivatesRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	topo := &domain.Topology{
		Name: "lab",
		Bricks: []domain.BrickDetail{
			{BrickDescription: domain.BrickDescription{Name: "fw", TypeName: "firewall"},
				Rules: []domain.Rule{{Filter: "icmp", Side: domain.SideEast}}},
		},
	}
	require.NoError(t, f.svc.ApplyTopology(ctx, topo))
	assert.Contains(t, f.drain(), EventTopologyImported)

	_, active, err := f.svc.reg.FirewallRules("lab", "fw")
	require.NoError(t, err)
	assert.Equal(t, []domain.Rule{{Filter: "icmp", Side: domain.SideEast}}, active)
}

func TestJournalDisabled(t *testing.T) {
	svc := NewGraphService(Options{Registry: registry.New(registry.Options{})})
	entries, err := svc.Journal(context.Background(), domain.JournalFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	fast := make(chan Event, 1)
	slow := make(chan Event)
	bus.Subscribe(fast)
	bus.Subscribe(slow)

	// a subscriber that cannot receive is skipped, not waited on
	bus.Publish(Event{Type: EventGraphCreated})
	assert.Equal(t, EventGraphCreated, (<-fast).Type)

	bus.Unsubscribe(fast)
	bus.Publish(Event{Type: EventGraphDeleted})
	select {
	case e := <-fast:
		t.Fatalf("unsubscribed channel received %v", e)
	default:
	}
}
