package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/splitdelegation/pkg/cache"
	"github.com/matzehuels/splitdelegation/pkg/errors"
	"github.com/matzehuels/splitdelegation/pkg/io"
	"github.com/matzehuels/splitdelegation/pkg/observability"
	"github.com/matzehuels/splitdelegation/pkg/power"
	"github.com/matzehuels/splitdelegation/pkg/source"
	"github.com/matzehuels/splitdelegation/pkg/storage"
)

// DefaultConcurrency bounds ExecuteAll.
const DefaultConcurrency = 4

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for its collaborators: it doesn't store
// pipeline results itself. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Source source.Loader
	Cache  cache.Cache
	Keyer  cache.Keyer
	// Store persists every computed result when set.
	Store  storage.Store
	Logger *log.Logger
}

// NewRunner creates a runner with the given source, cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(src source.Loader, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Source: src,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute loads the snapshot of opts.Space and computes its voting power.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	start := time.Now()
	snap, err := r.Load(ctx, opts.Space)
	if err != nil {
		return nil, err
	}
	res, err := r.Compute(ctx, snap, opts)
	if err != nil {
		return nil, err
	}
	res.Stats.LoadTime = time.Since(start) - res.Stats.ComputeTime
	return res, nil
}

// Load fetches a snapshot from the runner's source.
func (r *Runner) Load(ctx context.Context, space string) (*io.Snapshot, error) {
	if r.Source == nil {
		return nil, errors.New(errors.ErrCodeInternal, "runner has no snapshot source")
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, space, r.Source.Name())
	start := time.Now()

	snap, err := r.Source.Load(ctx, space)
	n := 0
	if snap != nil {
		n = len(snap.Actions)
	}
	hooks.OnLoadComplete(ctx, space, n, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", space, err)
	}

	r.Logger.Debug("loaded snapshot",
		"space", space,
		"source", r.Source.Name(),
		"actions", n,
		"scores", len(snap.Scores),
		"duration", time.Since(start))
	return snap, nil
}

// Compute builds the delegation graph of snap and computes voting power,
// consulting the cache first unless opts.Refresh is set.
func (r *Runner) Compute(ctx context.Context, snap *io.Snapshot, opts Options) (*Result, error) {
	if opts.Space == "" {
		opts.Space = snap.Space
	}
	g, err := snap.Graph()
	if err != nil {
		return nil, err
	}
	hash, err := snap.Hash()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash snapshot")
	}

	voters := opts.ComputeVoters()
	res := &Result{
		Snapshot:     snap,
		SnapshotHash: hash,
		Graph:        g,
		Voters:       voters,
		Stats:        Stats{NodeCount: g.NodeCount(), EdgeCount: g.EdgeCount()},
	}

	key := r.Keyer.ResultKey(opts.Space, hash, cache.ResultKeyOpts{Voters: voters})
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached power.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "result")
				res.Power = &cached
				res.CacheInfo.ResultHit = true
				r.Logger.Debug("result cache hit", "space", opts.Space, "hash", hash[:12])
				return res, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "result")
	}

	hooks := observability.Pipeline()
	hooks.OnComputeStart(ctx, opts.Space, g.NodeCount())
	start := time.Now()
	pw, err := power.Compute(g, snap.Scores, power.Options{Voters: voters})
	res.Stats.ComputeTime = time.Since(start)
	hooks.OnComputeComplete(ctx, opts.Space, res.Stats.ComputeTime, err)
	if err != nil {
		if errors.Is(err, errors.ErrCodeCycleDetected) {
			r.Logger.Error("cycle survived normalization", "space", opts.Space, "hash", hash, "err", err)
		}
		return nil, err
	}
	res.Power = pw

	r.Logger.Info("computed voting power",
		"space", opts.Space,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"cycle_edges", pw.Stats.CycleEdges,
		"pruned", pw.Stats.Pruned,
		"duration", res.Stats.ComputeTime)

	if data, err := json.Marshal(pw); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLResult); err != nil {
			r.Logger.Warn("cache write failed", "space", opts.Space, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "result", len(data))
		}
	}

	if r.Store != nil {
		rec, err := storage.NewRecord(opts.Space, hash, snap.When, pw)
		if err == nil {
			err = r.Store.Save(ctx, rec)
		}
		if err != nil {
			r.Logger.Warn("storing result failed", "space", opts.Space, "err", err)
		}
	}
	return res, nil
}

// ExecuteAll runs Execute for every space with bounded concurrency. It
// stops at the first failure and returns that error.
func (r *Runner) ExecuteAll(ctx context.Context, spaces []string, opts Options, concurrency int) (map[string]*Result, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	results := make([]*Result, len(spaces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, space := range spaces {
		g.Go(func() error {
			o := opts
			o.Space = space
			res, err := r.Execute(gctx, o)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*Result, len(spaces))
	for i, space := range spaces {
		out[space] = results[i]
	}
	return out, nil
}

// Close releases resources held by the runner (cache and store).
func (r *Runner) Close() error {
	var result *multierror.Error
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close cache: %w", err))
		}
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close store: %w", err))
		}
	}
	return result.ErrorOrNil()
}
