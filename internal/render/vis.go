package render

import "rpg/internal/domain"

type nodeShape string

const (
	ShapeBox     nodeShape = "box"
	ShapeEllipse nodeShape = "ellipse"
	ShapeDiamond nodeShape = "diamond"
)

type highlight struct {
	Background string `json:"background"`
}

type color struct {
	Background string    `json:"background"`
	Highlight  highlight `json:"highlight"`
}

var (
	colorDevice   = color{Background: "#6ef091", Highlight: highlight{Background: "#ccffda"}}
	colorFirewall = color{Background: "#f0906e", Highlight: highlight{Background: "#ffd9cc"}}
	colorFabric   = color{Background: "#97c2fc", Highlight: highlight{Background: "#d2e5ff"}}
)

// VisNode is a vis-network node
type VisNode struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Shape nodeShape `json:"shape"`
	Color color     `json:"color"`
	Type  string    `json:"type"`
	Title string    `json:"title,omitempty"`
}

// VisEdge is a vis-network edge, always pointing east
type VisEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Arrows string `json:"arrows"`
}

// VisNetwork is the data set handed to new vis.Network
type VisNetwork struct {
	Nodes []VisNode `json:"nodes"`
	Edges []VisEdge `json:"edges"`
}

// Vis converts a topology into vis-network nodes and edges
func Vis(topo domain.Topology) VisNetwork {
	network := VisNetwork{
		Nodes: make([]VisNode, 0, len(topo.Bricks)),
		Edges: make([]VisEdge, 0, len(topo.Links)),
	}

	for _, br := range topo.Bricks {
		node := VisNode{
			ID:    br.Name,
			Label: br.Name,
			Shape: ShapeBox,
			Type:  br.TypeName,
			Title: label(br),
		}
		switch br.TypeName {
		case string(domain.KindTap), string(domain.KindNic):
			node.Shape = ShapeEllipse
			node.Color = colorDevice
		case string(domain.KindFirewall):
			node.Color = colorFirewall
		case string(domain.KindHub), string(domain.KindSwitch):
			node.Shape = ShapeDiamond
			node.Color = colorFabric
		}
		network.Nodes = append(network.Nodes, node)
	}

	for _, l := range topo.Links {
		network.Edges = append(network.Edges, VisEdge{From: l.West, To: l.East, Arrows: "to"})
	}
	return network
}
