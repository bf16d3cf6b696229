package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/neurite/pkg/cache"
	morphio "github.com/matzehuels/neurite/pkg/io"
	"github.com/matzehuels/neurite/pkg/morpho"
	"github.com/matzehuels/neurite/pkg/observability"
	"github.com/matzehuels/neurite/pkg/render"
	"github.com/matzehuels/neurite/pkg/swc"
)

// Runner encapsulates pipeline execution with caching.
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
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
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
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → optimize → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := r.logger(opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Parse
	parseStart := time.Now()
	m, parseHit, err := r.ParseWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Morphology = m
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.BranchCount = len(m.Branches())
	result.CacheInfo.ParseHit = parseHit

	logger.Info("parsed morphology",
		"source", opts.Source,
		"branches", result.Stats.BranchCount,
		"cached", parseHit,
		"duration", result.Stats.ParseTime)

	// Stage 2: Optimize
	optStart := time.Now()
	observability.Pipeline().OnOptimizeStart(ctx, opts.Source, result.Stats.BranchCount)
	m.Optimize(false)
	result.Stats.OptimizeTime = time.Since(optStart)
	result.Stats.PointCount = m.Len()
	observability.Pipeline().OnOptimizeComplete(ctx, opts.Source, result.Stats.PointCount, result.Stats.OptimizeTime, nil)

	// The document hash identifies the parse result for render cache keys.
	doc, err := morphio.MarshalJSON(m)
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	result.DocHash = cache.Hash(doc)

	logger.Info("optimized morphology",
		"points", result.Stats.PointCount,
		"duration", result.Stats.OptimizeTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, m, result.DocHash, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ParseWithCacheInfo parses the SWC source with caching and reports whether
// the cache served the result.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, opts Options) (*morpho.Morphology, bool, error) {
	raw, err := os.ReadFile(opts.Source)
	if err != nil {
		observability.Pipeline().OnParseComplete(ctx, opts.Source, 0, 0, err)
		return nil, false, fmt.Errorf("read %s: %w", opts.Source, err)
	}

	tags, tagHash, err := r.loadTagMap(opts)
	if err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.ParseKey(cache.Hash(raw), cache.ParseKeyOpts{TagMapHash: tagHash})

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if m, err := morphio.UnmarshalJSON(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "parse")
				return m, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "parse")
	}
	if opts.NoReparse {
		return nil, false, fmt.Errorf("no cached parse for %s and reparsing is disabled", opts.Source)
	}

	// Parse
	start := time.Now()
	observability.Pipeline().OnParseStart(ctx, opts.Source)
	m, err := swc.ParseFile(opts.Source, tags)
	observability.Pipeline().OnParseComplete(ctx, opts.Source, branchCount(m), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := morphio.MarshalJSON(m); err == nil {
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLParse) == nil {
			observability.Cache().OnCacheSet(ctx, "parse", len(data))
		}
	}

	return m, false, nil
}

// Parse is a convenience wrapper that discards the cache hit info.
func (r *Runner) Parse(ctx context.Context, opts Options) (*morpho.Morphology, error) {
	m, _, err := r.ParseWithCacheInfo(ctx, opts)
	return m, err
}

// RenderWithCacheInfo renders the requested formats with per-format caching.
// docHash identifies the morphology content; doc carries its serialized
// form for the JSON format.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, m *morpho.Morphology, docHash string, doc []byte, opts Options) (map[string][]byte, bool, error) {
	artifacts := make(map[string][]byte)

	// Try to get all formats from cache
	allCached := true
	for _, format := range opts.Formats {
		cacheKey := r.renderKey(docHash, format, opts)
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "render")
			artifacts[format] = data
		} else {
			observability.Cache().OnCacheMiss(ctx, "render")
			allCached = false
			break
		}
	}
	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil
	}

	// Render all formats
	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	rendered, err := renderFormats(m, doc, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.renderKey(docHash, format, opts)
		if r.Cache.Set(ctx, cacheKey, data, cache.TTLRender) == nil {
			observability.Cache().OnCacheSet(ctx, "render", len(data))
		}
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, m *morpho.Morphology, docHash string, doc []byte, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, m, docHash, doc, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) renderKey(docHash, format string, opts Options) string {
	style := "plain"
	if opts.Detailed {
		style = "detailed"
	}
	return r.Keyer.RenderKey(docHash, cache.RenderKeyOpts{Format: format, Style: style})
}

// loadTagMap resolves the tag map in effect and a stable hash of it for
// parse cache keys.
func (r *Runner) loadTagMap(opts Options) (swc.TagMap, string, error) {
	if opts.TagMap == "" {
		return nil, "default", nil
	}
	raw, err := os.ReadFile(opts.TagMap)
	if err != nil {
		return nil, "", fmt.Errorf("read tag map %s: %w", opts.TagMap, err)
	}
	tags, err := swc.LoadTagMap(opts.TagMap)
	if err != nil {
		return nil, "", err
	}
	return tags, cache.Hash(raw), nil
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}

// renderFormats produces each requested artifact from one shared DOT string.
func renderFormats(m *morpho.Morphology, doc []byte, opts Options) (map[string][]byte, error) {
	dot := render.ToDOT(m, render.Options{Detailed: opts.Detailed})
	out := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		switch format {
		case FormatDOT:
			out[format] = []byte(dot)
		case FormatJSON:
			out[format] = doc
		case FormatSVG:
			svg, err := render.RenderSVG(dot)
			if err != nil {
				return nil, err
			}
			out[format] = svg
		case FormatPNG:
			png, err := render.RenderPNG(dot, opts.Scale)
			if err != nil {
				return nil, err
			}
			out[format] = png
		case FormatPDF:
			pdf, err := render.RenderPDF(dot)
			if err != nil {
				return nil, err
			}
			out[format] = pdf
		default:
			return nil, fmt.Errorf("unsupported format %q", format)
		}
	}
	return out, nil
}

func branchCount(m *morpho.Morphology) int {
	if m == nil {
		return 0
	}
	return len(m.Branches())
}
