package solgraph

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// Index holds any number of frozen builds keyed by build id and answers
// navigation queries against them. Loading registers builds; everything
// after that is read-only, so queries from any number of goroutines may
// interleave freely with further loads.
type Index struct {
	mu     sync.RWMutex
	builds map[string]*Build
	order  []string

	strict   bool
	parallel bool
}

// Option configures an Index.
type Option func(*Index)

// WithStrict makes loading fail on the first per-file problem instead of
// skipping the file and continuing.
func WithStrict(strict bool) Option {
	return func(x *Index) {
		x.strict = strict
	}
}

// WithParallel toggles concurrent parsing of independent source documents.
// On by default.
func WithParallel(parallel bool) Option {
	return func(x *Index) {
		x.parallel = parallel
	}
}

// NewIndex creates an empty index. The default configuration is partial
// loading with parallel parsing.
func NewIndex(opts ...Option) *Index {
	x := &Index{
		builds:   make(map[string]*Build),
		parallel: true,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

func (x *Index) parseOptions() ParseOptions {
	return ParseOptions{Strict: x.strict, Parallel: x.parallel}
}

// AddBuild registers a build. Registering an id the index already holds
// replaces the old build; loading fresh output for the same build id is a
// reload, not a conflict.
func (x *Index) AddBuild(b *Build) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.builds[b.ID()]; !ok {
		x.order = append(x.order, b.ID())
	}
	x.builds[b.ID()] = b
}

// Remove discards a build. Queries holding the *Build keep a consistent
// frozen snapshot; the index just stops handing it out.
func (x *Index) Remove(buildID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.builds[buildID]; !ok {
		return
	}
	delete(x.builds, buildID)
	for i, id := range x.order {
		if id == buildID {
			x.order = append(x.order[:i], x.order[i+1:]...)
			break
		}
	}
}

// Build returns the build with the given id.
func (x *Index) Build(buildID string) (*Build, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	b, ok := x.builds[buildID]
	if !ok {
		return nil, errors.Errorf("%w: %s", ErrUnknownBuild, buildID)
	}
	return b, nil
}

// Builds lists registered builds in registration order.
func (x *Index) Builds() []*Build {
	x.mu.RLock()
	defer x.mu.RUnlock()
	builds := make([]*Build, 0, len(x.order))
	for _, id := range x.order {
		builds = append(builds, x.builds[id])
	}
	return builds
}

// LoadCombined parses direct compiler output and registers the resulting
// build.
func (x *Index) LoadCombined(ctx context.Context, data []byte) (*Build, error) {
	b, err := ParseCombined(ctx, data, x.parseOptions())
	if err != nil {
		return nil, err
	}
	x.AddBuild(b)
	return b, nil
}

// LoadBuildOutput parses build-tool output and registers every build it
// yields.
func (x *Index) LoadBuildOutput(ctx context.Context, data []byte) ([]*Build, error) {
	builds, err := ParseBuildOutput(ctx, data, x.parseOptions())
	if err != nil {
		return nil, err
	}
	for _, b := range builds {
		x.AddBuild(b)
	}
	return builds, nil
}

// LoadFile reads one document, sniffs its format, and loads it through the
// matching adapter.
func (x *Index) LoadFile(ctx context.Context, path string) ([]*Build, error) {
	ctx = slogctx.With(ctx, "load.path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("solgraph: load %s: %w", path, err)
	}
	format, err := DetectFormat(data)
	if err != nil {
		return nil, errors.Errorf("solgraph: load %s: %w", path, err)
	}
	switch format {
	case FormatCombined:
		b, err := x.LoadCombined(ctx, data)
		if err != nil {
			return nil, err
		}
		return []*Build{b}, nil
	default:
		return x.LoadBuildOutput(ctx, data)
	}
}

// LoadDirectory loads every .json document under a directory, the layout
// build tools leave behind in their build-info output dirs. Documents parse
// concurrently when the index is parallel; registration stays in sorted
// path order so repeated loads register builds identically.
func (x *Index) LoadDirectory(ctx context.Context, dir string) ([]*Build, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".json" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("solgraph: load directory %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("solgraph: load directory %s: no .json documents", dir)
	}
	sort.Strings(paths)

	// Parse first, register after: a failing document must not leave half
	// its builds registered.
	parsed := make([][]*Build, len(paths))
	opts := x.parseOptions()
	parseOne := func(i int, o ParseOptions) error {
		data, err := os.ReadFile(paths[i])
		if err != nil {
			return errors.Errorf("solgraph: load %s: %w", paths[i], err)
		}
		format, err := DetectFormat(data)
		if err != nil {
			return errors.Errorf("solgraph: load %s: %w", paths[i], err)
		}
		pctx := slogctx.With(ctx, "load.path", paths[i])
		switch format {
		case FormatCombined:
			b, err := ParseCombined(pctx, data, o)
			if err != nil {
				return err
			}
			parsed[i] = []*Build{b}
		default:
			builds, err := ParseBuildOutput(pctx, data, o)
			if err != nil {
				return err
			}
			parsed[i] = builds
		}
		return nil
	}
	if opts.Parallel && len(paths) > 1 {
		// Documents fan out; each document's own adapter runs serially so
		// one limit bounds the worker count.
		docOpts := opts
		docOpts.Parallel = false
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(runtime.NumCPU(), len(paths)))
		for i := range paths {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return parseOne(i, docOpts)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := parseOne(i, opts); err != nil {
				return nil, err
			}
		}
	}

	var all []*Build
	for _, builds := range parsed {
		for _, b := range builds {
			x.AddBuild(b)
			all = append(all, b)
		}
	}
	slog.InfoContext(ctx, "directory loaded", "load.dir", dir, "load.documents", len(paths), "load.builds", len(all))
	return all, nil
}
