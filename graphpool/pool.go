// Package graphpool manages the per-time-bin fast routing engines. The
// pool owns an artifact directory on disk; a rebuild wipes it, builds one
// engine per bin in parallel against the current travel-time model and
// publishes the new set atomically. Route calculations already running keep
// the engine values they captured; published engines are never mutated.
package graphpool

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/trip-router/routing"
	"github.com/theoremus-urban-solutions/trip-router/traveltime"
)

// Builder produces one routing engine specialized to a single time bin.
// driveSec carries the model's drive seconds per link sampled at that bin.
// Artifacts belong under outDir; the pool deletes them on the next rebuild.
type Builder interface {
	Build(ctx context.Context, bin int, driveSec map[string]float64, outDir string) (routing.Engine, error)
}

// Pool holds the built per-bin engines. One instance in static mode, one
// per bin otherwise.
type Pool struct {
	builder        Builder
	dir            string
	binDurationSec int
	bins           int
	static         bool
	buildTimeout   time.Duration

	published atomic.Pointer[[]routing.Engine]
}

// New creates an unbuilt pool. Call Rebuild before InstanceFor.
func New(builder Builder, dir string, binDurationSec, bins int, static bool, buildTimeout time.Duration) *Pool {
	return &Pool{
		builder:        builder,
		dir:            dir,
		binDurationSec: binDurationSec,
		bins:           bins,
		static:         static,
		buildTimeout:   buildTimeout,
	}
}

// Rebuild replaces every instance. The artifact directory is cleared
// first, then all bins build in parallel under the pool's build timeout.
// The new set is published only once every bin has built; until then any
// previously published instances keep serving. Any build error or timeout
// fails the whole rebuild and leaves the pool unbuilt.
func (p *Pool) Rebuild(ctx context.Context, model *traveltime.Model) (err error) {
	defer func() {
		if err != nil {
			p.published.Store(nil)
		}
	}()
	if err := os.RemoveAll(p.dir); err != nil {
		return fmt.Errorf("clear graph dir: %w", err)
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("create graph dir: %w", err)
	}

	bins := p.bins
	if p.static {
		bins = 1
	}
	instances := make([]routing.Engine, bins)

	ctx, cancel := context.WithTimeout(ctx, p.buildTimeout)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	for bin := 0; bin < bins; bin++ {
		g.Go(func() error {
			eng, err := p.builder.Build(ctx, bin, model.SampleBin(bin), p.dir)
			if err != nil {
				return fmt.Errorf("bin %d: %w", bin, err)
			}
			instances[bin] = eng
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("graph pool rebuild: %w", err)
	}
	p.published.Store(&instances)
	return nil
}

// Built reports whether the pool currently holds instances.
func (p *Pool) Built() bool { return p.published.Load() != nil }

// InstanceFor returns the engine for a bin. Asking an unbuilt pool or for
// a bin outside the built range is a programming error and panics.
func (p *Pool) InstanceFor(bin int) routing.Engine {
	inst := p.published.Load()
	if inst == nil {
		panic("graphpool: InstanceFor called before Rebuild")
	}
	if bin < 0 || bin >= len(*inst) {
		panic(fmt.Sprintf("graphpool: no instance for bin %d, pool holds %d", bin, len(*inst)))
	}
	return (*inst)[bin]
}

// BinFor maps a departure time to the bin serving it. Departures past the
// horizon clamp to the last bin; a static pool always answers bin 0.
func (p *Pool) BinFor(departTimeSec int) int {
	if p.static {
		return 0
	}
	if departTimeSec < 0 {
		departTimeSec = 0
	}
	bin := departTimeSec / p.binDurationSec
	if bin >= p.bins {
		bin = p.bins - 1
	}
	return bin
}

// BinCount returns the number of instances a rebuild produces.
func (p *Pool) BinCount() int {
	if p.static {
		return 1
	}
	return p.bins
}

// Dir exposes the artifact directory.
func (p *Pool) Dir() string { return p.dir }
