// Package pipeline provides the core optimization pipeline for modelir.
//
// This package implements the complete decode → rewrite → sort → encode
// pipeline that is used by both the CLI and the HTTP API. By centralizing this
// logic, every entry point runs the same passes in the same order and shares
// one result cache.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Decode: Parse the JSON model document into a [ir.Model]
//  2. Rewrite: Run the selected passes from [rewrite.Passes] in order
//  3. Sort: Topologically sort the graph; a cycle fails the run
//  4. Encode: Serialize the optimized model back to JSON
//
// Results are cached by the hash of the input document and the pass list,
// so re-optimizing an unchanged model is a single cache read.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, data, pipeline.Options{
//	    Passes: []string{"lower-gemm"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Stats.NodesAfter)
//
// Render a model diagram with caching:
//
//	svg, err := runner.Render(ctx, result.Model, pipeline.RenderOptions{Format: "svg"})
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/modelir/pkg/cache"
	"github.com/matzehuels/modelir/pkg/errors"
	"github.com/matzehuels/modelir/pkg/ir"
	"github.com/matzehuels/modelir/pkg/ir/rewrite"
	"github.com/matzehuels/modelir/pkg/render/nodelink"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for an optimization run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Passes lists the rewrite passes to run, in order. Empty means
	// rewrite.DefaultPassNames.
	Passes []string `json:"passes,omitempty"`

	// Refresh skips the cache lookup. The fresh result is still stored.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger   `json:"-"`
	CacheTTL time.Duration `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and API responses.
	RunID uuid.UUID

	// InputHash is the content hash of the input document.
	InputHash string

	// Model is the optimized, sorted model.
	Model *ir.Model

	// Encoded is the JSON encoding of Model.
	Encoded []byte

	// Stats contains size information.
	Stats Stats

	// Passes reports each pass that ran, in order. It is empty on a cache hit.
	Passes []PassStat

	// CacheHit is true when the result was read from the cache.
	CacheHit bool
}

// Stats contains pipeline size statistics.
type Stats struct {
	NodesBefore        int `json:"nodes_before"`
	NodesAfter         int `json:"nodes_after"`
	InitializersBefore int `json:"initializers_before"`
	InitializersAfter  int `json:"initializers_after"`
}

// PassStat reports one pass execution.
type PassStat struct {
	Name     string         `json:"name"`
	Result   rewrite.Result `json:"result"`
	Duration time.Duration  `json:"duration"`
}

// Format constants for rendered diagrams.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatDOT = "dot"
)

// ValidFormats is the set of supported diagram formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
	FormatDOT: true,
}

// RenderOptions configures [Runner.Render].
type RenderOptions struct {
	Format       string
	RankDir      string
	Initializers bool
	Detailed     bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidatePasses checks that every name is a well-formed, registered pass.
func ValidatePasses(names []string) error {
	for _, name := range names {
		if err := errors.ValidatePassName(name); err != nil {
			return err
		}
		if _, ok := rewrite.Lookup(name); !ok {
			return errors.New(errors.ErrCodeInvalidPass, "unknown pass %q", name)
		}
	}
	return nil
}

// ValidateFormat checks that a diagram format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: svg, png, dot)", format)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the pass list and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Passes) == 0 {
		o.Passes = rewrite.DefaultPassNames()
	}
	if err := ValidatePasses(o.Passes); err != nil {
		return err
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = cache.ResultTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ResultKeyOpts returns cache key options for an optimized model.
func (o *Options) ResultKeyOpts() cache.ResultKeyOpts {
	return cache.ResultKeyOpts{Passes: o.Passes}
}

// ValidateAndSetDefaults checks the format and rank direction.
// An empty format means svg.
func (o *RenderOptions) ValidateAndSetDefaults() error {
	if o.Format == "" {
		o.Format = FormatSVG
	}
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if !nodelink.ValidRankDir(o.RankDir) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid rankdir: %q (must be TB or LR)", o.RankDir)
	}
	return nil
}

// ArtifactKeyOpts returns cache key options for a rendered diagram.
func (o *RenderOptions) ArtifactKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:       o.Format,
		RankDir:      o.RankDir,
		Initializers: o.Initializers,
		Detailed:     o.Detailed,
	}
}

// NodelinkOptions converts to the diagram generator options.
func (o *RenderOptions) NodelinkOptions() nodelink.Options {
	return nodelink.Options{
		RankDir:      o.RankDir,
		Initializers: o.Initializers,
		Detailed:     o.Detailed,
	}
}
