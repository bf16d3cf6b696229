// Package render provides visualization rendering for morphologies.
//
// # Overview
//
// This package transforms branch forests into visual outputs. It provides:
//
//   - Branch-topology diagrams in Graphviz DOT format
//   - SVG rendering of DOT via Graphviz
//   - Generic format conversion (SVG to PDF/PNG)
//
// # Topology Diagrams
//
// [ToDOT] renders the branch tree: one node per branch, one edge per
// attachment. Nodes are colored by the dominant structure label (soma,
// axon, dendrites) so the neurite composition is visible at a glance.
//
//	dot := render.ToDOT(m, render.Options{})
//	svg, err := render.RenderSVG(dot)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
package render
