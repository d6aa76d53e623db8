package registry

import (
	"rpg/internal/brick"
	"rpg/internal/domain"
)

// FirewallRuleAdd stages a filter on one side of a firewall brick
func (r *Registry) FirewallRuleAdd(graph, name, filter, side string) error {
	return r.withFirewall(graph, name, func(fw *brick.Firewall) error {
		s, err := domain.ParseSide(side)
		if err != nil {
			return err
		}
		return fw.RuleAdd(filter, s)
	})
}

// FirewallFlush drops every staged and active rule of a firewall brick
func (r *Registry) FirewallFlush(graph, name string) error {
	return r.withFirewall(graph, name, func(fw *brick.Firewall) error {
		fw.Flush()
		return nil
	})
}

// FirewallReload makes the staged rules of a firewall brick active
func (r *Registry) FirewallReload(graph, name string) error {
	return r.withFirewall(graph, name, func(fw *brick.Firewall) error {
		return fw.Reload()
	})
}

// FirewallRules returns the staged and active rules of a firewall brick
func (r *Registry) FirewallRules(graph, name string) (staged, active []domain.Rule, err error) {
	h, err := r.Get(graph)
	if err != nil {
		return nil, nil, err
	}
	err = h.View(func(g *brick.Graph) error {
		fw, err := lookupFirewall(g, name)
		if err != nil {
			return err
		}
		staged, active = fw.Rules(), fw.ActiveRules()
		return nil
	})
	return staged, active, err
}

func (r *Registry) withFirewall(graph, name string, fn func(fw *brick.Firewall) error) error {
	h, err := r.Get(graph)
	if err != nil {
		return err
	}
	return h.Update(func(g *brick.Graph) error {
		fw, err := lookupFirewall(g, name)
		if err != nil {
			return err
		}
		return fn(fw)
	})
}

func lookupFirewall(g *brick.Graph, name string) (*brick.Firewall, error) {
	b, ok := g.Get(name)
	if !ok {
		return nil, brickNotFound(name)
	}
	return brick.AsFirewall(b)
}
