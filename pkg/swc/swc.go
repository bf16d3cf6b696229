// Package swc reads and writes SWC morphology reconstructions.
//
// SWC is the de-facto interchange format for reconstructed neuron
// morphologies: one sample per line with an integer ID, a type tag, xyz
// coordinates, a radius, and a parent sample ID (-1 for roots).
//
// Parsing translates the sample graph into a branch forest. Sample chains
// split at branch points, and the junction sample is duplicated into each
// child branch so that every branch owns its own copy of the fork point -
// sibling branches never alias geometry. Point tags are mapped to label
// names through a [TagMap].
package swc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/neurite/pkg/geom"
	"github.com/matzehuels/neurite/pkg/morpho"
)

// sample is one SWC record.
type sample struct {
	id     int
	tag    int
	pos    geom.Vec
	radius float64
	parent int
}

// Parse reads SWC data and returns the reconstructed morphology.
// The tag map may be nil, in which case [DefaultTagMap] applies.
func Parse(r io.Reader, tags TagMap) (*morpho.Morphology, error) {
	if tags == nil {
		tags = DefaultTagMap()
	}

	samples, order, err := readSamples(r)
	if err != nil {
		return nil, err
	}

	children := map[int][]int{}
	var roots []int
	for _, id := range order {
		s := samples[id]
		if s.parent < 0 {
			roots = append(roots, id)
			continue
		}
		if _, ok := samples[s.parent]; !ok {
			return nil, fmt.Errorf("sample %d references unknown parent %d", id, s.parent)
		}
		children[s.parent] = append(children[s.parent], id)
	}
	if len(order) > 0 && len(roots) == 0 {
		return nil, fmt.Errorf("no root sample (parent -1) found")
	}

	var rootBranches []*morpho.Branch
	for _, root := range roots {
		b, err := buildBranch(samples, children, tags, nil, root)
		if err != nil {
			return nil, err
		}
		rootBranches = append(rootBranches, b)
	}
	return morpho.NewMorphology(rootBranches...), nil
}

// ParseFile reads an SWC file from disk.
func ParseFile(path string, tags TagMap) (*morpho.Morphology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := Parse(f, tags)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

func readSamples(r io.Reader) (map[int]sample, []int, error) {
	samples := map[int]sample{}
	var order []int

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 7 {
			return nil, nil, fmt.Errorf("line %d: expected 7 fields, got %d", lineNo, len(fields))
		}

		var (
			s    sample
			errs [7]error
		)
		s.id, errs[0] = strconv.Atoi(fields[0])
		s.tag, errs[1] = strconv.Atoi(fields[1])
		s.pos[0], errs[2] = strconv.ParseFloat(fields[2], 64)
		s.pos[1], errs[3] = strconv.ParseFloat(fields[3], 64)
		s.pos[2], errs[4] = strconv.ParseFloat(fields[4], 64)
		s.radius, errs[5] = strconv.ParseFloat(fields[5], 64)
		s.parent, errs[6] = strconv.Atoi(fields[6])
		for _, err := range errs {
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		}

		if _, dup := samples[s.id]; dup {
			return nil, nil, fmt.Errorf("line %d: duplicate sample ID %d", lineNo, s.id)
		}
		samples[s.id] = s
		order = append(order, s.id)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return samples, order, nil
}

// buildBranch assembles the branch starting at sample start, recursing into
// child branches at every fork. junction carries the duplicated fork sample
// when the branch continues a parent branch; it is nil for roots.
func buildBranch(samples map[int]sample, children map[int][]int, tags TagMap, junction *sample, start int) (*morpho.Branch, error) {
	var chain []sample
	if junction != nil {
		chain = append(chain, *junction)
	}
	cur := start
	for {
		chain = append(chain, samples[cur])
		kids := children[cur]
		if len(kids) == 1 {
			cur = kids[0]
			continue
		}

		b, err := makeBranch(chain, tags)
		if err != nil {
			return nil, err
		}
		fork := samples[cur]
		for _, kid := range kids {
			child, err := buildBranch(samples, children, tags, &fork, kid)
			if err != nil {
				return nil, err
			}
			b.AttachChild(child)
		}
		return b, nil
	}
}

func makeBranch(chain []sample, tags TagMap) (*morpho.Branch, error) {
	points := make([]geom.Vec, len(chain))
	radii := make([]float64, len(chain))
	pointTags := make([]int, len(chain))
	for i, s := range chain {
		points[i] = s.pos
		radii[i] = s.radius
		pointTags[i] = s.tag
	}

	b, err := morpho.NewBranch(points, radii)
	if err != nil {
		return nil, err
	}
	if err := b.SetTags(pointTags); err != nil {
		return nil, err
	}

	byTag := map[int][]int{}
	for i, tag := range pointTags {
		byTag[tag] = append(byTag[tag], i)
	}
	for tag, idx := range byTag {
		if names := tags[tag]; len(names) > 0 {
			b.Label(idx, names...)
		}
	}
	return b, nil
}

// Write emits the morphology as SWC to w in canonical traversal order.
// Duplicated junction points at branch starts are skipped so a parse/write
// round trip reproduces the original sample count.
func Write(w io.Writer, m *morpho.Morphology) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# generated by neurite")

	nextID := 1
	lastID := map[*morpho.Branch]int{}
	for _, b := range m.Branches() {
		start := 0
		parentID := -1
		if b.Parent() != nil {
			// Skip the duplicated junction sample.
			start = 1
			parentID = lastID[b.Parent()]
		}
		points, radii, tags := b.Points(), b.Radii(), b.Tags()
		for i := start; i < b.Len(); i++ {
			fmt.Fprintf(bw, "%d %d %g %g %g %g %d\n",
				nextID, tags[i], points[i][0], points[i][1], points[i][2], radii[i], parentID)
			parentID = nextID
			nextID++
		}
		lastID[b] = parentID
	}
	return bw.Flush()
}

// WriteFile writes the morphology to an SWC file with 0644 permissions.
func WriteFile(path string, m *morpho.Morphology) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(f, m)
}
