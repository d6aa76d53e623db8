package codec

import (
	"fmt"
	"io"
	"strings"

	"rpg/internal/domain"
)

// Importer reads a topology from a serialized form
type Importer interface {
	Parse(r io.Reader) (*domain.Topology, error)
	Format() string
}

// Exporter writes a topology in a serialized form
type Exporter interface {
	Export(topo *domain.Topology, w io.Writer) error
	Format() string
}

// Codec both reads and writes one format
type Codec interface {
	Importer
	Exporter
	ContentType() string
}

// ForFormat returns the codec for a format name; "" means yaml
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		return NewYAMLCodec(), nil
	case "json":
		return NewJSONCodec(), nil
	default:
		return nil, domain.NewError(domain.ErrInvalidArgument,
			fmt.Sprintf("unsupported format %q, must be 'yaml' or 'json'", format))
	}
}
