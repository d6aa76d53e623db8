package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"rpg/internal/domain"
)

type hclFile struct {
	Graphs []*hclGraph `hcl:"graph,block"`
}

type hclGraph struct {
	Name   string      `hcl:"name,label"`
	Bricks []*hclBrick `hcl:"brick,block"`
	Links  []*hclLink  `hcl:"link,block"`
}

type hclBrick struct {
	Name      string     `hcl:"name,label"`
	Kind      string     `hcl:"kind"`
	WestPorts *int       `hcl:"west_ports,optional"`
	EastPorts *int       `hcl:"east_ports,optional"`
	Side      *string    `hcl:"side,optional"`
	Vdev      *string    `hcl:"vdev,optional"`
	Port      *int       `hcl:"port,optional"`
	Rules     []*hclRule `hcl:"rule,block"`
}

type hclRule struct {
	Filter string `hcl:"filter"`
	Side   string `hcl:"side"`
}

type hclLink struct {
	West string `hcl:"west"`
	East string `hcl:"east"`
}

func (l *Loader) loadHCL(path string) ([]*domain.Topology, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, diags
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, l.evalContext(), &parsed); diags.HasErrors() {
		return nil, diags
	}

	topos := make([]*domain.Topology, 0, len(parsed.Graphs))
	for _, g := range parsed.Graphs {
		topos = append(topos, g.topology())
	}
	return topos, nil
}

// evalContext exposes the environment as the env object
func (l *Loader) evalContext() *hcl.EvalContext {
	env := l.Env
	if env == nil {
		env = make(map[string]string)
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
				env[k] = v
			}
		}
	}

	vals := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vals[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vals)},
	}
}

func (g *hclGraph) topology() *domain.Topology {
	topo := &domain.Topology{
		Name:   g.Name,
		Bricks: make([]domain.BrickDetail, 0, len(g.Bricks)),
		Links:  make([]domain.Link, 0, len(g.Links)),
	}

	for _, b := range g.Bricks {
		d := domain.BrickDetail{
			BrickDescription: domain.BrickDescription{Name: b.Name, TypeName: b.Kind},
			WestPorts:        deref(b.WestPorts),
			EastPorts:        deref(b.EastPorts),
			Side:             domain.Side(deref(b.Side)),
			Vdev:             deref(b.Vdev),
			Port:             b.Port,
		}
		for _, r := range b.Rules {
			d.Rules = append(d.Rules, domain.Rule{Filter: r.Filter, Side: domain.Side(r.Side)})
		}
		topo.Bricks = append(topo.Bricks, d)
	}

	for _, l := range g.Links {
		topo.Links = append(topo.Links, domain.Link{West: l.West, East: l.East})
	}
	return topo
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
