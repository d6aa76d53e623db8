package brick

import "rpg/internal/domain"

// portSet tracks the peers linked on each side of a brick.
// A zero total means the per-side limits are the only bound.
type portSet struct {
	westCap, eastCap int
	total            int
	west, east       []Brick
}

func dipole() portSet { return portSet{westCap: 1, eastCap: 1} }

func monopole() portSet { return portSet{westCap: 1, eastCap: 1, total: 1} }

func multipole(westPorts, eastPorts int) portSet {
	return portSet{westCap: westPorts, eastCap: eastPorts}
}

func (p *portSet) side(s domain.Side) *[]Brick {
	if s == domain.SideWest {
		return &p.west
	}
	return &p.east
}

func (p *portSet) capacity(s domain.Side) int {
	if s == domain.SideWest {
		return p.westCap
	}
	return p.eastCap
}

func (p *portSet) free(s domain.Side) bool {
	if len(*p.side(s)) >= p.capacity(s) {
		return false
	}
	if p.total > 0 && len(p.west)+len(p.east) >= p.total {
		return false
	}
	return true
}

func (p *portSet) has(s domain.Side, peer Brick) bool {
	for _, b := range *p.side(s) {
		if b == peer {
			return true
		}
	}
	return false
}

func (p *portSet) attach(s domain.Side, peer Brick) {
	slots := p.side(s)
	*slots = append(*slots, peer)
}

func (p *portSet) detach(s domain.Side, peer Brick) bool {
	slots := p.side(s)
	for i, b := range *slots {
		if b == peer {
			*slots = append((*slots)[:i], (*slots)[i+1:]...)
			return true
		}
	}
	return false
}

func (p *portSet) peers(s domain.Side) []Brick {
	slots := *p.side(s)
	out := make([]Brick, len(slots))
	copy(out, slots)
	return out
}

func (p *portSet) clear() {
	p.west = nil
	p.east = nil
}
