package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/modelir/pkg/cache"
	"github.com/matzehuels/modelir/pkg/errors"
	modelio "github.com/matzehuels/modelir/pkg/io"
	"github.com/matzehuels/modelir/pkg/ir"
	"github.com/matzehuels/modelir/pkg/ir/rewrite"
	"github.com/matzehuels/modelir/pkg/observability"
	"github.com/matzehuels/modelir/pkg/render/nodelink"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeResult   = "result"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If logger is nil, log output is discarded.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete decode → rewrite → sort → encode pipeline with
// caching.
//
// Errors carry codes from pkg/errors: INVALID_PASS for a bad pass list,
// INVALID_FORMAT for an undecodable document, and CYCLE when the rewritten
// graph cannot be sorted. A canceled context is returned as is.
func (r *Runner) Execute(ctx context.Context, data []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     uuid.New(),
		InputHash: cache.Hash(data),
	}
	logger := opts.Logger.With("run", result.RunID.String())
	cacheKey := r.Keyer.ResultKey(result.InputHash, opts.ResultKeyOpts())

	if !opts.Refresh {
		if m, encoded, ok := r.cachedResult(ctx, cacheKey); ok {
			result.Model = m
			result.Encoded = encoded
			result.CacheHit = true
			result.Stats.NodesAfter = m.Graph.NodeCount()
			result.Stats.InitializersAfter = len(m.Graph.Initializers())
			logger.Debug("cache hit", "key", cacheKey)
			return result, nil
		}
	}

	// Stage 1: Decode
	decodeStart := time.Now()
	m, err := modelio.Decode(data)
	observability.Pipeline().OnDecodeComplete(ctx, nodeCount(m), time.Since(decodeStart), err)
	if err != nil {
		return nil, err
	}
	result.Model = m
	result.Stats.NodesBefore = m.Graph.NodeCount()
	result.Stats.InitializersBefore = len(m.Graph.Initializers())

	logger.Info("decoded model",
		"graph", m.Graph.Name,
		"nodes", result.Stats.NodesBefore,
		"initializers", result.Stats.InitializersBefore)

	// Stage 2: Rewrite
	for _, name := range opts.Passes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stat := RunPass(ctx, m.Graph, name)
		result.Passes = append(result.Passes, stat)
		logger.Debug("ran pass",
			"pass", stat.Name,
			"changed", stat.Result.Changed(),
			"duration", stat.Duration)
	}

	// Stage 3: Sort
	sortStart := time.Now()
	err = m.Graph.TopologicalSort()
	observability.Pipeline().OnSortComplete(ctx, m.Graph.NodeCount(), time.Since(sortStart), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCycle, err, "sort graph %q", m.Graph.Name)
	}

	// Stage 4: Encode
	encodeStart := time.Now()
	encoded, err := modelio.Encode(m)
	observability.Pipeline().OnEncodeComplete(ctx, len(encoded), time.Since(encodeStart), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode model")
	}
	result.Encoded = encoded
	result.Stats.NodesAfter = m.Graph.NodeCount()
	result.Stats.InitializersAfter = len(m.Graph.Initializers())

	if err := r.Cache.Set(ctx, cacheKey, encoded, opts.CacheTTL); err != nil {
		logger.Warn("cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, keyTypeResult, len(encoded))
	}

	logger.Info("optimized model",
		"nodes", result.Stats.NodesAfter,
		"initializers", result.Stats.InitializersAfter)

	return result, nil
}

// RunPass runs the named pass on g with pipeline hooks and timing.
// The name must already be validated; an unknown name is a no-op.
func RunPass(ctx context.Context, g *ir.Graph, name string) PassStat {
	stat := PassStat{Name: name}
	p, ok := rewrite.Lookup(name)
	if !ok {
		return stat
	}

	observability.Pipeline().OnPassStart(ctx, name, g.NodeCount())
	start := time.Now()
	stat.Result = p.Run(g)
	stat.Duration = time.Since(start)
	observability.Pipeline().OnPassComplete(ctx, name, stat.Result.Total(), stat.Duration)
	return stat
}

// cachedResult decodes a cached document. A corrupt entry counts as a miss.
func (r *Runner) cachedResult(ctx context.Context, key string) (*ir.Model, []byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyTypeResult)
		return nil, nil, false
	}
	m, err := modelio.Decode(data)
	if err != nil {
		r.Logger.Warn("discarding corrupt cache entry", "key", key, "error", err)
		observability.Cache().OnCacheMiss(ctx, keyTypeResult)
		return nil, nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyTypeResult)
	return m, data, true
}

// Render draws the model graph in the requested format, with caching.
// The cache key is derived from the model's canonical encoding, so equal
// models share an entry regardless of where they came from.
func (r *Runner) Render(ctx context.Context, m *ir.Model, opts RenderOptions) ([]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if m == nil || m.Graph == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "model has no graph")
	}

	dot := nodelink.ToDOT(m.Graph, opts.NodelinkOptions())
	if opts.Format == FormatDOT {
		return []byte(dot), nil
	}

	encoded, err := modelio.Encode(m)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode model for cache key")
	}
	cacheKey := r.Keyer.ArtifactKey(cache.Hash(encoded), opts.ArtifactKeyOpts())

	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)

	var data []byte
	switch opts.Format {
	case FormatSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		data, err = nodelink.RenderPNG(ctx, dot)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", opts.Format)
	}

	if err := r.Cache.Set(ctx, cacheKey, data, cache.ArtifactTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
	}
	return data, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func nodeCount(m *ir.Model) int {
	if m == nil || m.Graph == nil {
		return 0
	}
	return m.Graph.NodeCount()
}
