// Package pkg provides the core libraries for Maskforge mask generation.
//
// # Overview
//
// Maskforge turns parametric device descriptions into lithographic mask
// layouts. A device template declares a parameter schema and a generator;
// running an instance produces polygon geometry that is cached by content
// hash and assembled into a GDSII cell hierarchy. The pkg directory is
// organized into these areas:
//
//  1. [device] - Templates, parameter schemas, instances, content hashing
//  2. [geom] - Polygons, groups, transforms, structure references
//  3. [sequencer] - The path-routing command language for waveguides
//  4. [pool] - Write-once registries for cells, boxes, and device state
//  5. [baselib] - The built-in device library (couplers, gratings, marks)
//  6. [layout] - Mask assembly, placement, and port connection
//  7. [gds] - GDSII stream writer
//  8. [tech] - Technology files (units, layers, routing defaults)
//  9. [render] - PNG previews and cell-hierarchy diagrams
//  10. [pipeline] - Orchestration (generate → assemble → export)
//
// # Architecture
//
// The typical data flow through Maskforge:
//
//	Template + Parameters
//	         ↓
//	    [device] package (hash, cache lookup, generate)
//	         ↓
//	    [pool] package (cell, bounding box, local state)
//	         ↓
//	    [layout] package (placement + connection)
//	         ↓
//	    GDSII/PNG/SVG output
//
// # Quick Start
//
// Generate a device and export it as a mask:
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/lithoforge/maskforge/pkg/baselib"
//	    "github.com/lithoforge/maskforge/pkg/pipeline"
//	)
//
//	lib, err := baselib.NewLibrary()
//	if err != nil {
//	    return err
//	}
//	runner := pipeline.NewRunner(lib, nil)
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    Devices: []pipeline.DeviceRequest{
//	        {Template: "dcoupler", Params: map[string]any{"length": 30.0}},
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	f, err := os.Create("mask.gds")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//	return runner.Export(result, f)
//
// Lower-level control is available by using the packages directly: build
// an instance with [device.Build], run it against a [pool.Registry], and
// place it into a [layout.Mask].
package pkg
