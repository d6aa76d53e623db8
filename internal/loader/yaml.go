package loader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"rpg/internal/domain"
)

// loadYAML reads every document of a YAML seed file. Each document is one
// topology in the same shape the export endpoint produces.
func loadYAML(path string) ([]*domain.Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file %s: %w", path, err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)

	var topos []*domain.Topology
	for i := 0; ; i++ {
		var topo domain.Topology
		err := decoder.Decode(&topo)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("seed file %s: document %d: %w", path, i, err)
		}
		if topo.Name == "" {
			return nil, fmt.Errorf("seed file %s: document %d: graph name is required", path, i)
		}
		topos = append(topos, &topo)
	}
	return topos, nil
}
