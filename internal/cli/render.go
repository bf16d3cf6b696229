package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/neurite/pkg/cache"
	"github.com/matzehuels/neurite/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (or base path for multiple formats)
	formats  []string // output formats: "dot", "svg", "pdf", "png", "json"
	detailed bool     // include per-branch morphometry in node labels
	tagMap   string   // optional TOML tag map path
	refresh  bool     // bypass the parse cache
	noCache  bool     // disable caching entirely
	scale    float64  // PNG resolution multiplier
}

// newRenderCmd creates the render command for generating topology diagrams.
// It parses an SWC reconstruction through the cached pipeline and writes one
// output file per requested format.
//
// Default settings:
//   - format: svg
//   - scale: 2.0 (PNG only)
//   - caching: enabled, under the XDG cache directory
func newRenderCmd() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render <file.swc>",
		Short: "Render a neuron reconstruction to diagram file(s)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, json, pdf, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include per-branch morphometry in node labels")
	cmd.Flags().StringVar(&opts.tagMap, "tag-map", "", "TOML file mapping SWC tags to label names")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the parse cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG resolution multiplier")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to the pipeline's default format.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	return strings.Split(s, ",")
}

// runRender executes the pipeline for input and writes each artifact to disk.
func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	runner, err := newRunner(logger, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	result, err := runner.Execute(ctx, pipeline.Options{
		Source:   input,
		TagMap:   opts.tagMap,
		Refresh:  opts.refresh,
		Formats:  opts.formats,
		Detailed: opts.detailed,
		Scale:    opts.scale,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	base := basePath(opts.output, input)
	for _, format := range opts.formats {
		path := opts.output
		if path == "" || len(opts.formats) > 1 {
			path = base + "." + format
		}
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}

	printStats(result.Stats.BranchCount, result.Stats.PointCount,
		result.CacheInfo.ParseHit && result.CacheInfo.RenderHit)
	prog.done(fmt.Sprintf("Rendered %s", input))
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .dot, etc.), it strips that extension.
// This is used when generating multiple files (e.g., cell.svg, cell.png).
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// newRunner creates a pipeline runner backed by the XDG cache directory.
// A cache setup failure degrades to no caching rather than failing the command.
func newRunner(logger *log.Logger, noCache bool) (*pipeline.Runner, error) {
	c, err := newCache(noCache)
	if err != nil {
		logger.Warnf("Caching disabled: %v", err)
		c = cache.NewNullCache()
	}
	return pipeline.NewRunner(c, nil, logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return cache.NewFileCache(dir)
}
