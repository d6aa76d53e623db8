package service

import (
	"context"
	"fmt"
	"time"

	"rpg/internal/domain"
	"rpg/internal/registry"
)

// ApplyTopology builds topo as a new graph: bricks first, then firewall
// rules (staged and reloaded), then links. If any step fails the graph is
// deleted again and the error names the failing brick or link.
func (s *GraphService) ApplyTopology(ctx context.Context, topo *domain.Topology) error {
	start := time.Now()
	err := s.apply(ctx, topo)
	s.finish(ctx, domain.OpApplyTopology, topo.Name, "", start, err)
	if err != nil {
		return err
	}

	s.publish(Event{
		Type: EventTopologyImported,
		Payload: map[string]any{
			"graph":  topo.Name,
			"bricks": len(topo.Bricks),
			"links":  len(topo.Links),
		},
	})
	return nil
}

func (s *GraphService) apply(ctx context.Context, topo *domain.Topology) error {
	if topo.Name == "" {
		return domain.NewError(domain.ErrInvalidArgument, "topology name is required")
	}
	h, err := s.reg.CreateHandle(topo.Name)
	if err != nil {
		return err
	}

	err = s.build(topo)
	if err == nil {
		return nil
	}
	// a concurrent delete-and-recreate of the same name is not ours to undo
	if done, derr := s.reg.DeleteHandle(h); derr == nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return err
}

func (s *GraphService) build(topo *domain.Topology) error {
	for _, b := range topo.Bricks {
		spec := registry.BrickSpec{
			Kind:      domain.Kind(b.TypeName),
			Name:      b.Name,
			WestPorts: b.WestPorts,
			EastPorts: b.EastPorts,
			Side:      string(b.Side),
			Vdev:      b.Vdev,
			Port:      b.Port,
		}
		if err := s.reg.CreateBrick(topo.Name, spec); err != nil {
			return domain.Prefix("brick "+b.Name, err)
		}

		if len(b.Rules) == 0 {
			continue
		}
		for _, rule := range b.Rules {
			if err := s.reg.FirewallRuleAdd(topo.Name, b.Name, rule.Filter, string(rule.Side)); err != nil {
				return domain.Prefix("brick "+b.Name, err)
			}
		}
		if err := s.reg.FirewallReload(topo.Name, b.Name); err != nil {
			return domain.Prefix("brick "+b.Name, err)
		}
	}

	for _, l := range topo.Links {
		if err := s.reg.Link(topo.Name, l.West, l.East); err != nil {
			return domain.Prefix(fmt.Sprintf("link %s -> %s", l.West, l.East), err)
		}
	}
	return nil
}
