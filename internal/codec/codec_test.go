package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpg/internal/domain"
)

func sampleTopology() *domain.Topology {
	port := 0
	return &domain.Topology{
		Name: "lab",
		Bricks: []domain.BrickDetail{
			{BrickDescription: domain.BrickDescription{Name: "fw", TypeName: "firewall"},
				Rules: []domain.Rule{{Filter: "tcp port 22", Side: domain.SideWest}}},
			{BrickDescription: domain.BrickDescription{Name: "nic0", TypeName: "nic"}, Port: &port},
			{BrickDescription: domain.BrickDescription{Name: "sw", TypeName: "switch"},
				WestPorts: 1, EastPorts: 4, Side: domain.SideEast},
		},
		Links: []domain.Link{{West: "nic0", East: "fw"}, {West: "fw", East: "sw"}},
	}
}

func TestForFormat(t *testing.T) {
	for _, format := range []string{"", "yaml", "YML"} {
		c, err := ForFormat(format)
		require.NoError(t, err)
		assert.Equal(t, "yaml", c.Format())
	}

	c, err := ForFormat("json")
	require.NoError(t, err)
	assert.Equal(t, "json", c.Format())
	assert.Equal(t, "application/json", c.ContentType())

	_, err = ForFormat("toml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestYAMLExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLCodec().Export(sampleTopology(), &buf))

	out := buf.String()
	assert.Contains(t, out, "name: lab")
	assert.Contains(t, out, "type: switch")
	assert.Contains(t, out, "west_ports: 1")
	assert.Contains(t, out, "port: 0")
	assert.Contains(t, out, "filter: tcp port 22")
	assert.NotContains(t, out, "vdev", "empty fields are omitted")
}

func TestYAMLParse(t *testing.T) {
	doc := `
name: lab
bricks:
  - name: t1
    type: tap
  - name: s1
    type: switch
    west_ports: 2
    east_ports: 2
    side: west
links:
  - west: t1
    east: s1
`
	topo, err := NewYAMLCodec().Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "lab", topo.Name)
	assert.Equal(t, []string{"t1", "s1"}, topo.BrickNames())
	assert.Equal(t, "switch", topo.Bricks[1].TypeName)
	assert.Equal(t, domain.SideWest, topo.Bricks[1].Side)
	assert.Equal(t, []domain.Link{{West: "t1", East: "s1"}}, topo.Links)
}

func TestYAMLParseRejectsUnknownFields(t *testing.T) {
	_, err := NewYAMLCodec().Parse(strings.NewReader("name: lab\nnodes: []\n"))
	assert.Error(t, err)
}

func TestJSONExportFlattensBrick(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONCodec().Export(sampleTopology(), &buf))

	out := buf.String()
	assert.Contains(t, out, `"type_name": "switch"`)
	assert.Contains(t, out, `"east_ports": 4`)
	assert.Contains(t, out, `"port": 0`)
	assert.NotContains(t, out, "BrickDescription")
}

func TestJSONParse(t *testing.T) {
	doc := `{"name":"g","bricks":[{"name":"n","type_name":"nic","vdev":"eth_pcap0"}],"links":[]}`
	topo, err := NewJSONCodec().Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, topo.Bricks, 1)
	assert.Equal(t, "eth_pcap0", topo.Bricks[0].Vdev)
	assert.Nil(t, topo.Bricks[0].Port)

	_, err = NewJSONCodec().Parse(strings.NewReader(`{"name":`))
	assert.Error(t, err)
}
