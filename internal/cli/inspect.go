package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/neurite/pkg/morpho"
	"github.com/matzehuels/neurite/pkg/swc"
)

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	tagMap   string // optional TOML tag map path
	branches bool   // print a per-branch breakdown
}

// newInspectCmd creates the inspect command. It parses an SWC reconstruction
// and prints its structure, labelling, and basic morphometry to stdout.
func newInspectCmd() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect <file.swc>",
		Short: "Show structure and morphometry for a reconstruction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.tagMap, "tag-map", "", "TOML file mapping SWC tags to label names")
	cmd.Flags().BoolVar(&opts.branches, "branches", false, "print a per-branch breakdown")

	return cmd
}

func runInspect(ctx context.Context, input string, opts *inspectOpts) error {
	logger := loggerFromContext(ctx)

	var tags swc.TagMap
	if opts.tagMap != "" {
		var err error
		if tags, err = swc.LoadTagMap(opts.tagMap); err != nil {
			return err
		}
	}

	m, err := swc.ParseFile(input, tags)
	if err != nil {
		return err
	}
	logger.Debugf("Parsed %s", input)
	m.Optimize(false)

	branches := m.Branches()
	terminals := 0
	for _, b := range branches {
		if b.IsTerminal() {
			terminals++
		}
	}

	printKeyValue("file", input)
	printKeyValue("branches", fmt.Sprintf("%d", len(branches)))
	printKeyValue("terminals", fmt.Sprintf("%d", terminals))
	printKeyValue("points", fmt.Sprintf("%d", m.Len()))
	printKeyValue("path length", fmt.Sprintf("%.2f", totalPathLength(branches)))

	for _, name := range labelNames(m) {
		printKeyValue(name, fmt.Sprintf("%d points", len(m.PointsLabelled(name))))
	}

	if opts.branches {
		printNewline()
		for i, b := range branches {
			printBranch(i, b)
		}
	}
	return nil
}

// totalPathLength sums the path distance of every branch. Branches too short
// to measure contribute nothing.
func totalPathLength(branches []*morpho.Branch) float64 {
	var total float64
	for _, b := range branches {
		if d, err := b.PathDist(); err == nil {
			total += d
		}
	}
	return total
}

// labelNames collects every label name used anywhere in the morphology,
// sorted for stable output.
func labelNames(m *morpho.Morphology) []string {
	seen := map[string]bool{}
	for _, b := range m.Branches() {
		labels := b.Labels()
		for _, code := range labels.Codes() {
			for _, name := range labels.Set(code) {
				seen[name] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func printBranch(i int, b *morpho.Branch) {
	kind := "fork"
	if b.IsTerminal() {
		kind = "terminal"
	}
	line := fmt.Sprintf("branch %d: %d points, %s", i, b.Len(), kind)
	if d, err := b.PathDist(); err == nil {
		line += fmt.Sprintf(", path %.2f", d)
	}
	printDetail("%s", line)
}
