package brick

import "rpg/internal/domain"

// Nop forwards everything it receives; one port per side
type Nop struct {
	base
}

// NewNop creates a nop brick
func NewNop(name string) *Nop {
	return &Nop{base: newBase(name, domain.KindNop, dipole())}
}

// Tap exchanges packets with a kernel tap interface; single port
type Tap struct {
	base
}

// NewTap creates a tap brick
func NewTap(name string) *Tap {
	return &Tap{base: newBase(name, domain.KindTap, monopole())}
}

// Hub repeats packets to every port; configurable port counts
type Hub struct {
	base
	westPorts, eastPorts int
}

// NewHub creates a hub brick with the given number of ports per side
func NewHub(name string, westPorts, eastPorts int) (*Hub, error) {
	if err := checkPorts(westPorts, eastPorts); err != nil {
		return nil, err
	}
	return &Hub{
		base:      newBase(name, domain.KindHub, multipole(westPorts, eastPorts)),
		westPorts: westPorts,
		eastPorts: eastPorts,
	}, nil
}

// Detail describes the hub and its port counts
func (h *Hub) Detail() domain.BrickDetail {
	d := h.base.Detail()
	d.WestPorts = h.westPorts
	d.EastPorts = h.eastPorts
	return d
}

// Switch is a learning switch; side selects the uplink side
type Switch struct {
	base
	westPorts, eastPorts int
	side                 domain.Side
}

// NewSwitch creates a switch brick
func NewSwitch(name string, westPorts, eastPorts int, side domain.Side) (*Switch, error) {
	if err := checkPorts(westPorts, eastPorts); err != nil {
		return nil, err
	}
	if !side.Valid() {
		return nil, domain.NewError(domain.ErrInvalidArgument, "choose west or east for side parameter")
	}
	return &Switch{
		base:      newBase(name, domain.KindSwitch, multipole(westPorts, eastPorts)),
		westPorts: westPorts,
		eastPorts: eastPorts,
		side:      side,
	}, nil
}

// Side returns the uplink side of the switch
func (s *Switch) Side() domain.Side { return s.side }

// Detail describes the switch and its configuration
func (s *Switch) Detail() domain.BrickDetail {
	d := s.base.Detail()
	d.WestPorts = s.westPorts
	d.EastPorts = s.eastPorts
	d.Side = s.side
	return d
}

func checkPorts(westPorts, eastPorts int) error {
	if westPorts < 0 || eastPorts < 0 {
		return domain.NewError(domain.ErrInvalidArgument, "port counts must be non-negative")
	}
	return nil
}
