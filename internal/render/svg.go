package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrNoGraphviz is returned when the dot binary cannot be found
	ErrNoGraphviz = errors.New("graphviz dot binary not found")
	// ErrDisabled is returned by a disabled renderer
	ErrDisabled = errors.New("svg rendering disabled")
)

// SVG pipes DOT text through "dot -Tsvg"
type SVG struct {
	// Binary is the dot executable; empty means "dot" from PATH
	Binary   string
	Disabled bool
}

// Render returns the SVG document for dot
func (s SVG) Render(ctx context.Context, dot string) ([]byte, error) {
	if s.Disabled {
		return nil, ErrDisabled
	}
	bin := s.Binary
	if bin == "" {
		bin = "dot"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGraphviz, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-Tsvg")
	cmd.Stdin = strings.NewReader(dot)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("dot -Tsvg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
