package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/neurite/pkg/morpho"
)

// Options configures topology diagram rendering.
type Options struct {
	// Detailed includes per-branch morphometry (point count, path length)
	// in node labels. When false, only the branch index and labels are shown.
	Detailed bool
}

// fillColors maps structure labels to node fill colors. The first label of
// a branch's dominant set that appears here wins.
var fillColors = map[string]string{
	"soma":      "lightcoral",
	"axon":      "lightskyblue",
	"dendrites": "palegreen",
}

// ToDOT converts a morphology's branch tree to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF],
// or [RenderPNG].
//
// Each branch becomes one node, each attachment one edge. Terminal branches
// are drawn with a bold outline.
func ToDOT(m *morpho.Morphology, opts Options) string {
	branches := m.Branches()
	index := make(map[*morpho.Branch]int, len(branches))
	for i, b := range branches {
		index[b] = i
	}

	var buf bytes.Buffer
	buf.WriteString("digraph morphology {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for i, b := range branches {
		label := fmtLabel(i, b, opts.Detailed)
		attrs := fmtAttrs(b, label)
		fmt.Fprintf(&buf, "  %d [%s];\n", i, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for i, b := range branches {
		for _, child := range b.Children() {
			fmt.Fprintf(&buf, "  %d -> %d;\n", i, index[child])
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(i int, b *morpho.Branch, detailed bool) string {
	parts := []string{fmt.Sprintf("branch %d", i)}
	if names := branchLabels(b); len(names) > 0 {
		parts = append(parts, strings.Join(names, ", "))
	}
	if detailed {
		parts = append(parts, fmt.Sprintf("points: %d", b.Len()))
		if dist, err := b.PathDist(); err == nil {
			parts = append(parts, fmt.Sprintf("path: %.2f", dist))
		}
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(b *morpho.Branch, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	for _, name := range branchLabels(b) {
		if color, ok := fillColors[name]; ok {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%s", color))
			break
		}
	}
	if b.IsTerminal() {
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

// branchLabels returns the label set carried by the majority of the
// branch's points, which stands in for the branch's structure type.
func branchLabels(b *morpho.Branch) []string {
	labels := b.Labels()
	counts := map[int]int{}
	best, bestCount := 0, 0
	for _, code := range labels.Codes() {
		if code == 0 {
			continue
		}
		counts[code]++
		if counts[code] > bestCount {
			best, bestCount = code, counts[code]
		}
	}
	if best == 0 {
		return nil
	}
	return labels.Set(best)
}
