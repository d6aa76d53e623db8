package brick

import (
	"fmt"
	"strings"
	"sync"

	"rpg/internal/domain"
)

// Device is a network device held by a Nic brick
type Device interface {
	Name() string
	Release()
}

// DeviceProvider hands out devices to Nic bricks
type DeviceProvider interface {
	AcquireVdev(spec string) (Device, error)
	AcquirePort(index int) (Device, error)
}

// Nic exchanges packets with a physical port or a virtual device
type Nic struct {
	base
	vdev string
	port *int
	dev  Device
}

// NicParams selects the device of a nic; exactly one field must be set
type NicParams struct {
	Vdev string
	Port *int
}

// NewNic acquires the requested device from provider and creates the brick
func NewNic(name string, params NicParams, provider DeviceProvider) (*Nic, error) {
	hasVdev := params.Vdev != ""
	hasPort := params.Port != nil
	if hasVdev == hasPort {
		return nil, domain.NewError(domain.ErrInvalidArgument, "must specify either 'port' or 'vdev'")
	}

	var (
		dev Device
		err error
	)
	if hasVdev {
		dev, err = provider.AcquireVdev(params.Vdev)
	} else {
		dev, err = provider.AcquirePort(*params.Port)
	}
	if err != nil {
		return nil, domain.NewError(domain.ErrCapability, fmt.Sprintf("cannot create nic: %v", err))
	}

	n := &Nic{
		base: newBase(name, domain.KindNic, monopole()),
		vdev: params.Vdev,
		dev:  dev,
	}
	if hasPort {
		p := *params.Port
		n.port = &p
	}
	return n, nil
}

// Device returns the name of the device held by the nic
func (n *Nic) Device() string {
	if n.dev == nil {
		return ""
	}
	return n.dev.Name()
}

// Detail describes the nic and its device
func (n *Nic) Detail() domain.BrickDetail {
	d := n.base.Detail()
	d.Vdev = n.vdev
	if n.port != nil {
		p := *n.port
		d.Port = &p
	}
	return d
}

// Close releases the device. Safe to call more than once.
func (n *Nic) Close() error {
	if n.dev != nil {
		n.dev.Release()
		n.dev = nil
	}
	return nil
}

// VdevPrefixes are the virtual device driver prefixes accepted by default
var VdevPrefixes = []string{"net_", "eth_"}

// Devices is a DeviceProvider over a fixed number of physical ports and
// any number of virtual devices. Each port index and each vdev name can be
// held by one nic at a time.
type Devices struct {
	mu       sync.Mutex
	ports    int
	prefixes []string
	held     map[string]struct{}
}

// NewDevices creates a provider exposing ports physical ports
func NewDevices(ports int, prefixes []string) *Devices {
	if len(prefixes) == 0 {
		prefixes = VdevPrefixes
	}
	return &Devices{
		ports:    ports,
		prefixes: prefixes,
		held:     make(map[string]struct{}),
	}
}

// AcquireVdev reserves a virtual device. spec follows the DPDK form
// "driver_name0,key=value,..."; only the part before the first comma names
// the device.
func (d *Devices) AcquireVdev(spec string) (Device, error) {
	name, _, _ := strings.Cut(spec, ",")
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty vdev")
	}

	known := false
	for _, p := range d.prefixes {
		if strings.HasPrefix(name, p) && len(name) > len(p) {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("unknown virtual device driver %q", name)
	}
	return d.reserve("vdev:" + name)
}

// AcquirePort reserves a physical port by index
func (d *Devices) AcquirePort(index int) (Device, error) {
	if index < 0 || index >= d.ports {
		return nil, fmt.Errorf("port %d does not exist (%d available)", index, d.ports)
	}
	return d.reserve(fmt.Sprintf("port:%d", index))
}

// InUse returns the number of devices currently held
func (d *Devices) InUse() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.held)
}

func (d *Devices) reserve(key string) (Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, busy := d.held[key]; busy {
		return nil, fmt.Errorf("device %s is busy", key)
	}
	d.held[key] = struct{}{}
	return &heldDevice{key: key, owner: d}, nil
}

func (d *Devices) release(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.held, key)
}

type heldDevice struct {
	key   string
	owner *Devices
	once  sync.Once
}

func (h *heldDevice) Name() string { return h.key }

func (h *heldDevice) Release() {
	h.once.Do(func() { h.owner.release(h.key) })
}
