package brick

import (
	"errors"
	"fmt"
	"sort"

	"rpg/internal/domain"
)

// Graph is a named collection of bricks. It is not safe for concurrent
// use; callers serialize access through the owning handle's lock.
type Graph struct {
	name   string
	bricks map[string]Brick
}

// NewGraph creates an empty graph
func NewGraph(name string) *Graph {
	return &Graph{
		name:   name,
		bricks: make(map[string]Brick),
	}
}

// Name returns the graph name
func (g *Graph) Name() string { return g.name }

// Len returns the number of bricks
func (g *Graph) Len() int { return len(g.bricks) }

// Get returns the brick registered under name
func (g *Graph) Get(name string) (Brick, bool) {
	b, ok := g.bricks[name]
	return b, ok
}

// Has reports whether a brick is registered under name
func (g *Graph) Has(name string) bool {
	_, ok := g.bricks[name]
	return ok
}

// Insert registers b under name, replacing any previous entry
func (g *Graph) Insert(name string, b Brick) {
	g.bricks[name] = b
}

// Take removes the brick registered under name and returns it
func (g *Graph) Take(name string) (Brick, bool) {
	b, ok := g.bricks[name]
	if ok {
		delete(g.bricks, name)
	}
	return b, ok
}

// Names returns the brick names in sorted order
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.bricks))
	for name := range g.bricks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Poll runs one processing step on every brick
func (g *Graph) Poll() {
	for _, b := range g.bricks {
		b.Poll()
	}
}

// Close detaches and closes every brick and empties the graph
func (g *Graph) Close() error {
	var errs []error
	for name, b := range g.bricks {
		b.Unlink()
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		delete(g.bricks, name)
	}
	return errors.Join(errs...)
}

// Describe returns the name and sorted brick names
func (g *Graph) Describe() domain.GraphDescription {
	return domain.GraphDescription{Name: g.name, Bricks: g.Names()}
}

// Topology returns the bricks and their links, sorted by name
func (g *Graph) Topology() domain.Topology {
	topo := domain.Topology{
		Name:   g.name,
		Bricks: make([]domain.BrickDetail, 0, len(g.bricks)),
		Links:  []domain.Link{},
	}
	for _, name := range g.Names() {
		b := g.bricks[name]
		topo.Bricks = append(topo.Bricks, b.Detail())

		east := b.Peers(domain.SideEast)
		sort.Slice(east, func(i, j int) bool { return east[i].Name() < east[j].Name() })
		for _, peer := range east {
			topo.Links = append(topo.Links, domain.Link{West: b.Name(), East: peer.Name()})
		}
	}
	return topo
}
