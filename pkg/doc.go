// Package pkg provides the core libraries for negflo residual smoothing.
//
// # Overview
//
// A residual is observed (gauged) flow minus modelled flow. Where the model
// overestimates, the residual goes negative; negflo removes those negative
// runs by taking their volume from neighbouring flows above a flow limit.
// The pkg directory is organized into:
//
//  1. [negflo] - The smoothing engine, its modes, and reports
//  2. [timeseries] - Dated columnar tables and their CSV form
//  3. [config] - Run files (TOML, YAML, and the legacy line format)
//  4. [pipeline] - Orchestration (load → smooth → write) with caching
//  5. [cache], [errors], [observability], [buildinfo] - Infrastructure
//
// # Architecture
//
//	observed.csv, modelled.csv  (or residual.csv)
//	         ↓
//	    [timeseries] package (read, align, subtract, crop)
//	         ↓
//	    [negflo] package (smooth every column in one or more modes)
//	         ↓
//	    <name>.<mode> CSV artifacts, JSON reports, run log
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/hydrokit/negflo/pkg/negflo"
//	    "github.com/hydrokit/negflo/pkg/timeseries"
//	)
//
//	residual, _ := timeseries.ReadCSV("residual.csv", nil)
//	engine := negflo.New(residual, 0.5)
//	if err := engine.Apply(context.Background(), negflo.ModeBackward); err != nil {
//	    log.Fatal(err)
//	}
//	for _, col := range engine.Overflow().Unresolved() {
//	    fmt.Println("negative volume left in", col)
//	}
//	engine.ToFile("")
//
// For the full load → smooth → write flow with caching, use [pipeline.Runner].
package pkg
