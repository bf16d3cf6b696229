package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/neurite/pkg/morpho"
)

// ReadJSON decodes a JSON morphology document from r.
//
// The input must be a JSON object with a "branches" array in depth-first
// order. Each branch must have "parent", "points" and "radii" fields; tags,
// labels and properties are optional.
//
// ReadJSON returns an error if:
//   - The JSON is malformed or invalid
//   - A parent index does not reference an earlier branch
//   - An array length does not match the branch's point count
//   - A label group references a point outside the branch
//
// Errors are wrapped with the index of the branch that caused the problem.
//
// The returned morphology is independent of r and can be modified safely
// after ReadJSON returns. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*morpho.Morphology, error) {
	var data document
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return decodeDocument(data)
}

// UnmarshalJSON decodes a morphology from a JSON byte slice.
// This is the counterpart of [MarshalJSON].
func UnmarshalJSON(data []byte) (*morpho.Morphology, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return decodeDocument(doc)
}

// ImportJSON reads a JSON file at path and returns the decoded morphology.
//
// ImportJSON opens the file, decodes it using [ReadJSON], and closes the
// file. Errors wrap the underlying cause with the file path for context.
func ImportJSON(path string) (*morpho.Morphology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

func decodeDocument(data document) (*morpho.Morphology, error) {
	branches := make([]*morpho.Branch, len(data.Branches))
	var roots []*morpho.Branch

	for i, rec := range data.Branches {
		b, err := decodeBranch(rec)
		if err != nil {
			return nil, fmt.Errorf("branch %d: %w", i, err)
		}
		branches[i] = b

		switch {
		case rec.Parent < 0:
			roots = append(roots, b)
		case rec.Parent >= i:
			return nil, fmt.Errorf("branch %d: parent %d does not precede it", i, rec.Parent)
		default:
			branches[rec.Parent].AttachChild(b)
		}
	}

	return morpho.NewMorphology(roots...), nil
}

func decodeBranch(rec branchRecord) (*morpho.Branch, error) {
	b, err := morpho.NewBranch(rec.Points, rec.Radii)
	if err != nil {
		return nil, err
	}

	if rec.Tags != nil {
		if err := b.SetTags(rec.Tags); err != nil {
			return nil, err
		}
	}

	for _, group := range rec.Labels {
		for _, p := range group.Points {
			if p < 0 || p >= b.Len() {
				return nil, fmt.Errorf("label group references point %d, branch has %d points", p, b.Len())
			}
		}
		b.Label(group.Points, group.Names...)
	}

	if len(rec.Properties) > 0 {
		if err := b.SetProperties(rec.Properties); err != nil {
			return nil, err
		}
	}
	return b, nil
}
