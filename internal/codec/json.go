package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"rpg/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the HTTP content type of the format
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Parse reads a topology from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Topology, error) {
	var topo domain.Topology
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&topo); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &topo, nil
}

// Export writes a topology as indented JSON
func (c *JSONCodec) Export(topo *domain.Topology, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(topo); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
