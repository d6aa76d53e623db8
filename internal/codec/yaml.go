package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"rpg/internal/domain"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the HTTP content type of the format
func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

// Parse reads a topology from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Topology, error) {
	var topo domain.Topology
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&topo); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &topo, nil
}

// Export writes a topology as YAML
func (c *YAMLCodec) Export(topo *domain.Topology, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(topo); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
