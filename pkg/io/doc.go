// Package io provides JSON import and export for morphologies.
//
// # Overview
//
// This package enables serialization of branch forests to and from a simple
// JSON format. The format is designed for:
//
//   - Exchange with external analysis tools
//   - Persistent storage of reconstructed morphologies
//   - Round-trip preservation: import, transform, export, and re-import
//
// # JSON Format
//
// A document holds branches in depth-first order. Each branch records the
// index of its parent within that order (-1 for roots), its geometry, and
// its annotations:
//
//	{
//	  "branches": [
//	    {
//	      "parent": -1,
//	      "points": [[0, 0, 0], [0, 1, 0]],
//	      "radii": [1, 1],
//	      "tags": [1, 1],
//	      "labels": [{"points": [0, 1], "names": ["soma"]}],
//	      "properties": {"smth": [0.5, 0.5]}
//	    }
//	  ]
//	}
//
// # Branch Fields
//
// Required:
//   - parent: index of the parent branch, or -1 for roots
//   - points: per-point xyz coordinates
//   - radii: per-point radii (same length as points)
//
// Optional:
//   - tags: per-point structure tags
//   - labels: groups of point indices with their label names
//   - properties: named per-point value arrays
//
// # Import and Export
//
// Use [ImportJSON] / [ReadJSON] to decode and [ExportJSON] / [WriteJSON] to
// encode. Both directions validate array lengths against the point count so
// a malformed document is rejected before any branch is half-built.
//
// Label codes are not persisted; labels round-trip by content, so a
// re-imported morphology compares equal under content-based comparison even
// though its internal code assignment may differ.
package io
