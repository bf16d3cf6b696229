// Package pkg provides the core libraries for Neurite morphology processing.
//
// # Overview
//
// Neurite parses neuron reconstructions into branch trees and renders their
// topology as diagrams. The pkg directory is organized into five main areas:
//
//  1. [morpho] - Domain model (branches, labels, morphologies, sets)
//  2. [swc] - SWC reconstruction parsing and writing
//  3. [storage] - Named morphology persistence (files, Badger)
//  4. [render] - Topology diagram generation (DOT, SVG, PDF, PNG)
//  5. [pipeline] - Orchestration (parse → optimize → render)
//
// # Architecture
//
// The typical data flow through Neurite:
//
//	SWC reconstruction file
//	         ↓
//	    [swc] package (parse samples into branches)
//	         ↓
//	    [morpho] package (branch tree + labels + morphometry)
//	         ↓
//	    [render] package (topology diagrams)
//	         ↓
//	    SVG/PDF/PNG/DOT/JSON output
//
// # Quick Start
//
// Parse a reconstruction and render its topology:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/neurite/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    Source:  "cell.swc",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Supporting packages cover caching ([cache]), persistence ([storage]),
// wire serialization ([io]), structured errors ([errors]), and process
// instrumentation ([observability]).
package pkg
