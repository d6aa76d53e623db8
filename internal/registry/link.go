package registry

import (
	"rpg/internal/brick"
	"rpg/internal/domain"
)

// Link connects the east side of west to the west side of east
func (r *Registry) Link(graph, west, east string) error {
	h, err := r.Get(graph)
	if err != nil {
		return err
	}
	err = h.Update(func(g *brick.Graph) error {
		return withPair(g, west, east, brick.Brick.Link)
	})
	if err == nil {
		r.logger.Debug("bricks linked", "graph", graph, "west", west, "east", east)
	}
	return err
}

// UnlinkPair removes the link between west and east
func (r *Registry) UnlinkPair(graph, west, east string) error {
	h, err := r.Get(graph)
	if err != nil {
		return err
	}
	err = h.Update(func(g *brick.Graph) error {
		return withPair(g, west, east, brick.Brick.UnlinkFrom)
	})
	if err == nil {
		r.logger.Debug("bricks unlinked", "graph", graph, "west", west, "east", east)
	}
	return err
}

// UnlinkOne removes every link of a brick
func (r *Registry) UnlinkOne(graph, name string) error {
	h, err := r.Get(graph)
	if err != nil {
		return err
	}
	return h.Update(func(g *brick.Graph) error {
		b, ok := g.Get(name)
		if !ok {
			return brickNotFound(name)
		}
		b.Unlink()
		return nil
	})
}

// withPair takes both bricks out of g, runs op on them when both exist and
// puts back whatever was taken under its original name.
func withPair(g *brick.Graph, westName, eastName string, op func(west, east brick.Brick) error) error {
	west, westOK := g.Take(westName)
	east, eastOK := g.Take(eastName)
	defer func() {
		if westOK {
			g.Insert(westName, west)
		}
		if eastOK {
			g.Insert(eastName, east)
		}
	}()

	switch {
	case westOK && eastOK:
		return op(west, east)
	case !westOK && !eastOK:
		return domain.NewError(domain.ErrNotFound, "west and east bricks not found")
	case !westOK:
		return domain.NewError(domain.ErrNotFound, "west brick not found")
	default:
		return domain.NewError(domain.ErrNotFound, "east brick not found")
	}
}
