package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rpg/internal/codec"
	"rpg/internal/ctxlog"
	"rpg/internal/domain"
)

// Applier builds a topology as a running graph
type Applier interface {
	ApplyTopology(ctx context.Context, topo *domain.Topology) error
}

// Seed is one topology and the file it came from
type Seed struct {
	Path     string
	Topology *domain.Topology
}

// Loader reads seed files
type Loader struct {
	// Env is exposed to HCL expressions as the env object. Nil means the
	// process environment.
	Env map[string]string
}

// NewLoader creates a loader reading the process environment
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads every seed file under paths. Paths that do not exist are
// skipped.
func (l *Loader) Load(ctx context.Context, paths ...string) ([]Seed, error) {
	logger := ctxlog.FromContext(ctx, nil)

	files, err := findSeedFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("discovered seed files", "count", len(files))

	var seeds []Seed
	for _, file := range files {
		topos, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		for _, t := range topos {
			seeds = append(seeds, Seed{Path: file, Topology: t})
		}
	}

	logger.Debug("seed loading complete", "graphs", len(seeds))
	return seeds, nil
}

// Apply builds every seed through a. A failing seed does not stop the
// others; all failures are returned together.
func Apply(ctx context.Context, a Applier, seeds []Seed) error {
	logger := ctxlog.FromContext(ctx, nil)

	var errs []error
	for _, s := range seeds {
		if err := a.ApplyTopology(ctx, s.Topology); err != nil {
			errs = append(errs, fmt.Errorf("%s: graph %s: %s", s.Path, s.Topology.Name, domain.Describe(err)))
			continue
		}
		logger.Info("seed applied", "graph", s.Topology.Name, "file", s.Path,
			"bricks", len(s.Topology.Bricks), "links", len(s.Topology.Links))
	}
	return errors.Join(errs...)
}

// Replacer rebuilds graphs from changed seeds
type Replacer interface {
	Applier
	DeleteGraph(ctx context.Context, name string, wait bool) error
}

// Reload rereads one seed file and rebuilds each graph it declares. A graph
// that already exists is deleted first and its driver awaited.
func (l *Loader) Reload(ctx context.Context, r Replacer, path string) error {
	topos, err := l.loadFile(path)
	if err != nil {
		return err
	}

	seeds := make([]Seed, 0, len(topos))
	for _, t := range topos {
		err := r.DeleteGraph(ctx, t.Name, true)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%s: graph %s: %s", path, t.Name, domain.Describe(err))
		}
		seeds = append(seeds, Seed{Path: path, Topology: t})
	}
	return Apply(ctx, r, seeds)
}

// IsSeedFile reports whether path has an extension the loader reads
func IsSeedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl", ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func (l *Loader) loadFile(path string) ([]*domain.Topology, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return l.loadHCL(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open seed file %s: %w", path, err)
		}
		defer f.Close()
		topo, err := codec.NewJSONCodec().Parse(f)
		if err != nil {
			return nil, fmt.Errorf("seed file %s: %w", path, err)
		}
		return []*domain.Topology{topo}, nil
	default:
		return nil, fmt.Errorf("seed file %s: unsupported extension", path)
	}
}

// findSeedFiles walks all given paths and returns a flat list of seed
// files, each listed once, directories in lexical order
func findSeedFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			add(path)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsSeedFile(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return allFiles, nil
}
