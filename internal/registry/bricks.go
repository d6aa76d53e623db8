package registry

import (
	"fmt"

	"rpg/internal/brick"
	"rpg/internal/domain"
)

// BrickSpec describes a brick to add to a graph. Which fields matter
// depends on Kind.
type BrickSpec struct {
	Kind      domain.Kind
	Name      string
	WestPorts int
	EastPorts int
	// Side is the switch's output side
	Side string
	Vdev string
	Port *int
}

// validate checks everything that does not need the graph or a device
func (s BrickSpec) validate() (domain.Side, error) {
	if s.Name == "" {
		return "", domain.NewError(domain.ErrInvalidArgument, "brick name is required")
	}
	kind, err := domain.ParseKind(string(s.Kind))
	if err != nil {
		return "", err
	}

	var side domain.Side
	switch kind {
	case domain.KindHub, domain.KindSwitch:
		if s.WestPorts < 0 || s.EastPorts < 0 {
			return "", domain.NewError(domain.ErrInvalidArgument, "port counts must be non-negative")
		}
		if kind == domain.KindSwitch {
			parsed, err := domain.ParseSide(s.Side)
			if err != nil {
				return "", err
			}
			side = parsed
		}
	case domain.KindNic:
		if (s.Vdev == "") == (s.Port == nil) {
			return "", domain.NewError(domain.ErrInvalidArgument, "must specify either 'port' or 'vdev'")
		}
	}
	return side, nil
}

func (r *Registry) build(s BrickSpec, side domain.Side) (brick.Brick, error) {
	switch s.Kind {
	case domain.KindNop:
		return brick.NewNop(s.Name), nil
	case domain.KindTap:
		return brick.NewTap(s.Name), nil
	case domain.KindHub:
		return brick.NewHub(s.Name, s.WestPorts, s.EastPorts)
	case domain.KindSwitch:
		return brick.NewSwitch(s.Name, s.WestPorts, s.EastPorts, side)
	case domain.KindNic:
		return brick.NewNic(s.Name, brick.NicParams{Vdev: s.Vdev, Port: s.Port}, r.devices)
	case domain.KindFirewall:
		return brick.NewFirewall(s.Name), nil
	default:
		return nil, domain.NewError(domain.ErrInvalidArgument, fmt.Sprintf("unknown brick kind %q", s.Kind))
	}
}

// CreateBrick constructs a brick and adds it to a graph
func (r *Registry) CreateBrick(graph string, spec BrickSpec) error {
	if kind, err := domain.ParseKind(string(spec.Kind)); err == nil {
		spec.Kind = kind
	}
	side, err := spec.validate()
	if err != nil {
		return err
	}

	h, err := r.Get(graph)
	if err != nil {
		return err
	}
	err = h.Update(func(g *brick.Graph) error {
		if g.Has(spec.Name) {
			return domain.NewError(domain.ErrAlreadyExists, "brick already exists")
		}
		b, err := r.build(spec, side)
		if err != nil {
			return err
		}
		g.Insert(spec.Name, b)
		return nil
	})
	if err == nil {
		r.logger.Debug("brick created", "graph", graph, "brick", spec.Name, "kind", spec.Kind)
	}
	return err
}

// DeleteBrick unlinks a brick, removes it from its graph and releases what
// it holds
func (r *Registry) DeleteBrick(graph, name string) error {
	h, err := r.Get(graph)
	if err != nil {
		return err
	}
	return h.Update(func(g *brick.Graph) error {
		b, ok := g.Take(name)
		if !ok {
			return brickNotFound(name)
		}
		b.Unlink()
		if err := b.Close(); err != nil {
			r.logger.Warn("closing brick", "graph", graph, "brick", name, "error", err)
		}
		return nil
	})
}

// GetBrick returns the name and type of one brick
func (r *Registry) GetBrick(graph, name string) (domain.BrickDescription, error) {
	var desc domain.BrickDescription
	h, err := r.Get(graph)
	if err != nil {
		return desc, err
	}
	err = h.View(func(g *brick.Graph) error {
		b, ok := g.Get(name)
		if !ok {
			return brickNotFound(name)
		}
		desc = brick.Describe(b)
		return nil
	})
	return desc, err
}

// BrickDetail returns the full configuration of one brick
func (r *Registry) BrickDetail(graph, name string) (domain.BrickDetail, error) {
	var detail domain.BrickDetail
	h, err := r.Get(graph)
	if err != nil {
		return detail, err
	}
	err = h.View(func(g *brick.Graph) error {
		b, ok := g.Get(name)
		if !ok {
			return brickNotFound(name)
		}
		detail = b.Detail()
		return nil
	})
	return detail, err
}
