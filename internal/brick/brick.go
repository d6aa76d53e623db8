package brick

import (
	"fmt"

	"rpg/internal/domain"
)

// Brick is a named packet-processing unit
type Brick interface {
	// Name returns the brick name, unique within its graph
	Name() string

	// Kind returns the variant tag
	Kind() domain.Kind

	// Poll runs one processing step
	Poll()

	// Polls returns the number of processing steps run so far
	Polls() uint64

	// Link connects this brick's east side to the west side of east
	Link(east Brick) error

	// UnlinkFrom removes the link from this brick's east side to east
	UnlinkFrom(east Brick) error

	// Unlink detaches the brick from every peer on both sides
	Unlink()

	// Peers returns the bricks linked on the given side
	Peers(side domain.Side) []Brick

	// Detail describes the brick and its configuration
	Detail() domain.BrickDetail

	// Close releases resources held by the brick
	Close() error

	ports() *portSet
}

// base carries the state shared by every variant
type base struct {
	name  string
	kind  domain.Kind
	polls uint64
	slots portSet
}

func newBase(name string, kind domain.Kind, slots portSet) base {
	return base{name: name, kind: kind, slots: slots}
}

func (b *base) Name() string      { return b.name }
func (b *base) Kind() domain.Kind { return b.kind }
func (b *base) Polls() uint64     { return b.polls }
func (b *base) Poll()             { b.polls++ }
func (b *base) Close() error      { return nil }
func (b *base) ports() *portSet   { return &b.slots }

func (b *base) Peers(side domain.Side) []Brick {
	return b.slots.peers(side)
}

func (b *base) Detail() domain.BrickDetail {
	return domain.BrickDetail{
		BrickDescription: domain.BrickDescription{Name: b.name, TypeName: string(b.kind)},
	}
}

// Describe returns the name and kind of b
func Describe(b Brick) domain.BrickDescription {
	return domain.BrickDescription{Name: b.Name(), TypeName: string(b.Kind())}
}

// link records west -> east in both bricks. Capacity and duplicates are
// checked on both sides before either brick is touched.
func link(west, east Brick) error {
	if west == east {
		return domain.NewError(domain.ErrCapability,
			fmt.Sprintf("cannot link %s to itself", west.Name()))
	}

	wp, ep := west.ports(), east.ports()
	if wp.has(domain.SideEast, east) {
		return domain.NewError(domain.ErrCapability,
			fmt.Sprintf("%s is already linked to %s", west.Name(), east.Name()))
	}
	if !wp.free(domain.SideEast) {
		return domain.NewError(domain.ErrCapability,
			fmt.Sprintf("%s: no free port on east side", west.Name()))
	}
	if !ep.free(domain.SideWest) {
		return domain.NewError(domain.ErrCapability,
			fmt.Sprintf("%s: no free port on west side", east.Name()))
	}

	wp.attach(domain.SideEast, east)
	ep.attach(domain.SideWest, west)
	return nil
}

func unlinkFrom(west, east Brick) error {
	wp, ep := west.ports(), east.ports()
	if !wp.has(domain.SideEast, east) {
		return domain.NewError(domain.ErrCapability,
			fmt.Sprintf("%s is not linked to %s", west.Name(), east.Name()))
	}
	wp.detach(domain.SideEast, east)
	ep.detach(domain.SideWest, west)
	return nil
}

func unlinkAll(b Brick) {
	p := b.ports()
	for _, peer := range p.peers(domain.SideWest) {
		peer.ports().detach(domain.SideEast, b)
	}
	for _, peer := range p.peers(domain.SideEast) {
		peer.ports().detach(domain.SideWest, b)
	}
	p.clear()
}

// Each variant embeds base and gets the link capabilities through these
// wrappers so the receiver passed along is the outer brick, not base.

func (n *Nop) Link(east Brick) error       { return link(n, east) }
func (n *Nop) UnlinkFrom(east Brick) error { return unlinkFrom(n, east) }
func (n *Nop) Unlink()                     { unlinkAll(n) }

func (t *Tap) Link(east Brick) error       { return link(t, east) }
func (t *Tap) UnlinkFrom(east Brick) error { return unlinkFrom(t, east) }
func (t *Tap) Unlink()                     { unlinkAll(t) }

func (h *Hub) Link(east Brick) error       { return link(h, east) }
func (h *Hub) UnlinkFrom(east Brick) error { return unlinkFrom(h, east) }
func (h *Hub) Unlink()                     { unlinkAll(h) }

func (s *Switch) Link(east Brick) error       { return link(s, east) }
func (s *Switch) UnlinkFrom(east Brick) error { return unlinkFrom(s, east) }
func (s *Switch) Unlink()                     { unlinkAll(s) }

func (n *Nic) Link(east Brick) error       { return link(n, east) }
func (n *Nic) UnlinkFrom(east Brick) error { return unlinkFrom(n, east) }
func (n *Nic) Unlink()                     { unlinkAll(n) }

func (f *Firewall) Link(east Brick) error       { return link(f, east) }
func (f *Firewall) UnlinkFrom(east Brick) error { return unlinkFrom(f, east) }
func (f *Firewall) Unlink()                     { unlinkAll(f) }

// AsFirewall narrows b to a Firewall
func AsFirewall(b Brick) (*Firewall, error) {
	fw, ok := b.(*Firewall)
	if !ok {
		return nil, domain.NewError(domain.ErrWrongBrickKind,
			fmt.Sprintf("brick %s is a %s, not a firewall", b.Name(), b.Kind()))
	}
	return fw, nil
}
