package brick

import (
	"fmt"

	"rpg/internal/domain"
)

// MaxRulesPerSide bounds the rule set a firewall can load on one side
const MaxRulesPerSide = 512

type rule struct {
	filter string
	side   domain.Side
	expr   Expr
}

// Firewall filters traffic with per-side rule sets. Rules are staged by
// RuleAdd and become active on Reload.
type Firewall struct {
	base
	staged []rule
	active []rule
}

// NewFirewall creates a firewall brick with no rules
func NewFirewall(name string) *Firewall {
	return &Firewall{base: newBase(name, domain.KindFirewall, dipole())}
}

// RuleAdd compiles filter and stages it for side
func (f *Firewall) RuleAdd(filter string, side domain.Side) error {
	if !side.Valid() {
		return domain.NewError(domain.ErrInvalidArgument, "choose west or east for side parameter")
	}
	expr, err := Compile(filter)
	if err != nil {
		return domain.NewError(domain.ErrCapability, err.Error())
	}
	f.staged = append(f.staged, rule{filter: filter, side: side, expr: expr})
	return nil
}

// Flush drops every staged and active rule
func (f *Firewall) Flush() {
	f.staged = nil
	f.active = nil
}

// Reload recompiles the staged rules and makes them the active set.
// The active set is left untouched when any rule fails.
func (f *Firewall) Reload() error {
	perSide := map[domain.Side]int{}
	next := make([]rule, 0, len(f.staged))
	for _, r := range f.staged {
		expr, err := Compile(r.filter)
		if err != nil {
			return domain.NewError(domain.ErrCapability, err.Error())
		}
		perSide[r.side]++
		if perSide[r.side] > MaxRulesPerSide {
			return domain.NewError(domain.ErrCapability,
				fmt.Sprintf("too many rules on %s side (max %d)", r.side, MaxRulesPerSide))
		}
		next = append(next, rule{filter: r.filter, side: r.side, expr: expr})
	}
	f.active = next
	return nil
}

// Rules returns the staged rules
func (f *Firewall) Rules() []domain.Rule {
	return toRules(f.staged)
}

// ActiveRules returns the rules applied by the last Reload
func (f *Firewall) ActiveRules() []domain.Rule {
	return toRules(f.active)
}

// Detail describes the firewall and its staged rules
func (f *Firewall) Detail() domain.BrickDetail {
	d := f.base.Detail()
	d.Rules = f.Rules()
	return d
}

func toRules(rs []rule) []domain.Rule {
	if len(rs) == 0 {
		return nil
	}
	out := make([]domain.Rule, 0, len(rs))
	for _, r := range rs {
		out = append(out, domain.Rule{Filter: r.filter, Side: r.side})
	}
	return out
}
