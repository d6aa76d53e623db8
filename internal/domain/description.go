package domain

// GraphDescription is the read-only view of a graph
type GraphDescription struct {
	Name   string   `json:"name" yaml:"name"`
	Bricks []string `json:"bricks" yaml:"bricks"`
}

// BrickDescription is the read-only view of a brick
type BrickDescription struct {
	Name     string `json:"name" yaml:"name"`
	TypeName string `json:"type_name" yaml:"type"`
}

// BrickDetail extends BrickDescription with the configuration a brick was
// created with. Zero values are omitted.
type BrickDetail struct {
	BrickDescription `yaml:",inline"`
	WestPorts        int    `json:"west_ports,omitempty" yaml:"west_ports,omitempty"`
	EastPorts        int    `json:"east_ports,omitempty" yaml:"east_ports,omitempty"`
	Side             Side   `json:"side,omitempty" yaml:"side,omitempty"`
	Vdev             string `json:"vdev,omitempty" yaml:"vdev,omitempty"`
	Port             *int   `json:"port,omitempty" yaml:"port,omitempty"`
	Rules            []Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// Rule is a firewall filter bound to a side
type Rule struct {
	Filter string `json:"filter" yaml:"filter"`
	Side   Side   `json:"side" yaml:"side"`
}

// Link is a directional west to east pairing between two bricks
type Link struct {
	West string `json:"west" yaml:"west"`
	East string `json:"east" yaml:"east"`
}

// Topology is the complete description of a graph: its bricks and the
// links recorded inside them
type Topology struct {
	Name   string        `json:"name" yaml:"name"`
	Bricks []BrickDetail `json:"bricks" yaml:"bricks"`
	Links  []Link        `json:"links" yaml:"links"`
}

// BrickNames returns the names of all bricks in the topology
func (t *Topology) BrickNames() []string {
	names := make([]string, 0, len(t.Bricks))
	for _, b := range t.Bricks {
		names = append(names, b.Name)
	}
	return names
}

// Result is the ok/error envelope returned by mutating operations
type Result struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// OK returns a successful result
func OK() Result {
	return Result{Status: StatusOK, Description: ""}
}

// ResultFromError returns the envelope for err; nil yields OK
func ResultFromError(err error) Result {
	if err == nil {
		return OK()
	}
	return Result{Status: StatusError, Description: Describe(err)}
}
