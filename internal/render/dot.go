package render

import (
	"fmt"
	"strings"

	"rpg/internal/domain"
)

var dotShapes = map[string]string{
	string(domain.KindNop):      "box",
	string(domain.KindTap):      "invhouse",
	string(domain.KindHub):      "circle",
	string(domain.KindSwitch):   "diamond",
	string(domain.KindNic):      "house",
	string(domain.KindFirewall): "octagon",
}

// DOT writes the topology as a left-to-right graphviz digraph
func DOT(topo domain.Topology) string {
	var b strings.Builder

	fmt.Fprintf(&b, "digraph %s {\n", quote(topo.Name))
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [fontname=\"monospace\"];\n")

	for _, br := range topo.Bricks {
		shape, ok := dotShapes[br.TypeName]
		if !ok {
			shape = "box"
		}
		fmt.Fprintf(&b, "  %s [shape=%s label=%s];\n",
			quote(br.Name), shape, quote(br.Name+"\\n"+label(br)))
	}
	for _, l := range topo.Links {
		fmt.Fprintf(&b, "  %s -> %s;\n", quote(l.West), quote(l.East))
	}

	b.WriteString("}\n")
	return b.String()
}

// label summarizes a brick's configuration on one line
func label(br domain.BrickDetail) string {
	switch br.TypeName {
	case string(domain.KindHub):
		return fmt.Sprintf("hub %d/%d", br.WestPorts, br.EastPorts)
	case string(domain.KindSwitch):
		return fmt.Sprintf("switch %d/%d %s", br.WestPorts, br.EastPorts, br.Side)
	case string(domain.KindNic):
		if br.Port != nil {
			return fmt.Sprintf("nic port %d", *br.Port)
		}
		return "nic " + br.Vdev
	case string(domain.KindFirewall):
		return fmt.Sprintf("firewall (%d rules)", len(br.Rules))
	default:
		return br.TypeName
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
