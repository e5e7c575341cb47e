// Package core implements process-wide initialization and teardown
// (init/finish), the resource-reservation bitset that guards thread-local
// node fields, and the concurrent multi-graph pipeline driver.
package core

import (
	"fmt"

	"golang.org/x/mod/semver"

	"ssair/internal/irg"
	"ssair/internal/tr"
)

// Params configures Init, mirroring SPEC_FULL.md §6's init(params) contract.
type Params struct {
	// Size is a semver-formatted version string ("v1.0.0") recorded for
	// forward compatibility checks against serialized snapshots.
	Size string

	// EnableStatistics is a bitmask controlling which statistics hook
	// groups are active; see internal/stats.
	EnableStatistics StatisticsMask

	// InitializeLocalFunc is the SSA builder callback invoked on reads of
	// never-defined locals; plumbed through to construct.Builder.
	InitializeLocalFunc func(pos int, mode interface{}) interface{}
}

// StatisticsMask selects which statistics hook groups run.
type StatisticsMask int

const (
	StatsNone       StatisticsMask = 0
	StatsOptimizer  StatisticsMask = 1 << iota
	StatsLoadStore
	StatsBackend
)

// Program is the process-wide program object (`irp`): the set of graphs
// and the global/TLS/frame-suffix types every front-end shares.
type Program struct {
	Params    Params
	GlobType  *tr.Type
	TLSType   *tr.Type
	Graphs    []*irg.Graph
	finished  bool
}

var current *Program

// Init constructs the mode registry (already process-global via package
// init in internal/mode), the tarval module, and one empty Program,
// matching the ordering SPEC_FULL.md §6 requires: modes and tarvals before
// any type is created, and the backend module (left to the caller — this
// function only prepares the front-end-agnostic core) before any
// front-end module runs.
func Init(p Params) (*Program, error) {
	if p.Size != "" && !semver.IsValid(p.Size) {
		return nil, fmt.Errorf("core: Init: Size %q is not a valid semver version", p.Size)
	}
	if current != nil && !current.finished {
		return nil, fmt.Errorf("core: Init called twice without an intervening Finish")
	}
	prog := &Program{
		Params:   p,
		GlobType: tr.NewClass("glob_type"),
		TLSType:  tr.NewStruct("tls_type"),
	}
	if err := prog.GlobType.FixLayout(0, 1); err != nil {
		return nil, fmt.Errorf("core: Init: fixing glob_type layout: %w", err)
	}
	if err := prog.TLSType.FixLayout(0, 1); err != nil {
		return nil, fmt.Errorf("core: Init: fixing tls_type layout: %w", err)
	}
	current = prog
	return prog, nil
}

// NewGraph registers and returns a fresh graph for entity, recorded on the
// program so Finish can tear graphs down in reverse order.
func (p *Program) NewGraph(entity interface{}, frame interface{}, nLoc int) *irg.Graph {
	g := irg.NewGraph(entity, frame, nLoc)
	p.Graphs = append(p.Graphs, g)
	return g
}

// Finish tears down graphs in reverse creation order. Types, tarvals, and
// modes are process-global and outlive any single Program, so they are not
// released here (matching SPEC_FULL.md §6: the core's finish() frees
// entities/types/tarvals/modes, which in this Go rendition are reclaimed by
// the garbage collector once the Program and its graphs are unreferenced).
func (p *Program) Finish() {
	for i := len(p.Graphs) - 1; i >= 0; i-- {
		p.Graphs[i] = nil
	}
	p.Graphs = nil
	p.finished = true
}
