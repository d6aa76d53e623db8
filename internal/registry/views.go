package registry

import (
	"rpg/internal/brick"
	"rpg/internal/domain"
)

// DescribeGraph returns a graph's name and brick names
func (r *Registry) DescribeGraph(name string) (domain.GraphDescription, error) {
	var desc domain.GraphDescription
	h, err := r.Get(name)
	if err != nil {
		return desc, err
	}
	err = h.View(func(g *brick.Graph) error {
		desc = g.Describe()
		return nil
	})
	return desc, err
}

// Topology returns every brick of a graph with its configuration and the
// links between them
func (r *Registry) Topology(name string) (domain.Topology, error) {
	var topo domain.Topology
	h, err := r.Get(name)
	if err != nil {
		return topo, err
	}
	err = h.View(func(g *brick.Graph) error {
		topo = g.Topology()
		return nil
	})
	return topo, err
}

// Stats reports the poll count of every brick in a graph
func (r *Registry) Stats(name string) (map[string]uint64, error) {
	h, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	stats := make(map[string]uint64)
	err = h.View(func(g *brick.Graph) error {
		for _, n := range g.Names() {
			b, _ := g.Get(n)
			stats[n] = b.Polls()
		}
		return nil
	})
	return stats, err
}
