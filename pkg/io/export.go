package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/matzehuels/neurite/pkg/geom"
	"github.com/matzehuels/neurite/pkg/morpho"
)

type document struct {
	Branches []branchRecord `json:"branches"`
}

type branchRecord struct {
	Parent     int                  `json:"parent"`
	Points     []geom.Vec           `json:"points"`
	Radii      []float64            `json:"radii"`
	Tags       []int                `json:"tags,omitempty"`
	Labels     []labelGroup         `json:"labels,omitempty"`
	Properties map[string][]float64 `json:"properties,omitempty"`
}

type labelGroup struct {
	Points []int    `json:"points"`
	Names  []string `json:"names"`
}

// encodeDocument flattens a morphology into its wire representation.
// Branches appear in depth-first order with parent indices into that order.
func encodeDocument(m *morpho.Morphology) document {
	branches := m.Branches()
	index := make(map[*morpho.Branch]int, len(branches))
	for i, b := range branches {
		index[b] = i
	}

	out := document{Branches: make([]branchRecord, len(branches))}
	for i, b := range branches {
		rec := branchRecord{
			Parent: -1,
			Points: b.Points(),
			Radii:  b.Radii(),
		}
		if p := b.Parent(); p != nil {
			rec.Parent = index[p]
		}
		if tags := b.Tags(); anyNonZero(tags) {
			rec.Tags = tags
		}
		rec.Labels = labelGroups(b)
		if names := b.PropertyNames(); len(names) > 0 {
			rec.Properties = make(map[string][]float64, len(names))
			for _, name := range names {
				if vals, ok := b.Property(name); ok {
					rec.Properties[name] = vals
				}
			}
		}
		out.Branches[i] = rec
	}
	return out
}

// WriteJSON encodes a morphology as indented JSON and writes it to w.
// This format can be re-imported with [ReadJSON].
func WriteJSON(m *morpho.Morphology, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(encodeDocument(m)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalJSON encodes a morphology to a compact JSON byte slice.
// This is the form the storage backends persist.
func MarshalJSON(m *morpho.Morphology) ([]byte, error) {
	data, err := json.Marshal(encodeDocument(m))
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return data, nil
}

// ExportJSON writes a morphology to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(m *morpho.Morphology, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(m, f)
}

// labelGroups collects the labelled point groups of a branch. Points that
// carry no labels are omitted.
func labelGroups(b *morpho.Branch) []labelGroup {
	labels := b.Labels()
	byCode := map[int][]int{}
	for i, code := range labels.Codes() {
		if code != 0 {
			byCode[code] = append(byCode[code], i)
		}
	}
	if len(byCode) == 0 {
		return nil
	}

	groups := make([]labelGroup, 0, len(byCode))
	for code, points := range byCode {
		groups = append(groups, labelGroup{Points: points, Names: labels.Set(code)})
	}
	// Deterministic output ordering.
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Points[0] < groups[j].Points[0]
	})
	return groups
}

func anyNonZero(vals []int) bool {
	for _, v := range vals {
		if v != 0 {
			return true
		}
	}
	return false
}
