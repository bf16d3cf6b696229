// Package pipeline provides the core processing pipeline for Neurite.
//
// This package implements the complete parse → optimize → render pipeline
// that both the CLI and embedding applications use. By centralizing this
// logic, behavior stays consistent across entry points.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: Read an SWC reconstruction into a branch forest
//  2. Optimize: Flatten the forest into its canonical shared representation
//  3. Render: Generate output in various formats (DOT, SVG, PNG, PDF, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
// Parse results and rendered artifacts are cached by content hash.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source:  "cell.swc",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/neurite/pkg/errors"
	"github.com/matzehuels/neurite/pkg/morpho"
)

// Default values shared by CLI and embedding applications.
const (
	// DefaultScale is the default PNG resolution multiplier.
	DefaultScale = 2.0

	// DefaultFormat is the output format used when none is requested.
	DefaultFormat = FormatSVG
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// Options contains all configuration for the processing pipeline.
type Options struct {
	// Parse options
	Source    string // path to the SWC input file
	TagMap    string // optional path to a TOML tag map
	Refresh   bool   // bypass the parse cache
	NoReparse bool   // fail instead of parsing when the cache misses

	// Render options
	Formats  []string // output formats to produce
	Detailed bool     // include per-branch morphometry in node labels
	Scale    float64  // PNG resolution multiplier

	// Logger overrides the runner's logger for this invocation.
	Logger *log.Logger
}

// ValidateAndSetDefaults checks the options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Source == "" {
		return errors.New(errors.ErrCodeInvalidInput, "source file is required")
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	for _, f := range o.Formats {
		if !ValidFormats[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", f)
		}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive")
	}
	return nil
}

// Stats captures per-stage timing and size information.
type Stats struct {
	ParseTime    time.Duration
	OptimizeTime time.Duration
	RenderTime   time.Duration
	BranchCount  int
	PointCount   int
}

// CacheInfo reports which stages were served from cache.
type CacheInfo struct {
	ParseHit  bool
	RenderHit bool
}

// Result is the output of a pipeline execution.
type Result struct {
	// Morphology is the parsed and optimized branch forest.
	Morphology *morpho.Morphology

	// DocHash is the content hash of the serialized morphology, usable as
	// a stable identifier for the parse result.
	DocHash string

	// Artifacts maps each requested format to its rendered bytes.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}
