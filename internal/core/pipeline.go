package core

import (
	"context"

	"golang.org/x/sync/errgroup"

	"ssair/internal/irg"
)

// Stage is one step of the per-graph compile pipeline (optimize, lower,
// peephole, emit, ...). Graphs are independent arenas (SPEC_FULL.md §5), so
// distinct graphs may run the same Stage concurrently; within one graph,
// stages still run in the driver-specified order.
type Stage func(ctx context.Context, g *irg.Graph) error

// RunPipeline runs stages, in order, over every graph in graphs, fanning
// out across graphs at each stage with an errgroup so a batch compile's
// wall-clock time scales with the slowest single graph rather than the sum
// of all of them. The first stage error cancels the remaining work and is
// returned; a partially-completed pipeline leaves affected graphs in an
// unspecified but safe-to-discard state (each graph is independent, so
// callers recover by dropping the whole Program rather than trying to
// patch up one graph).
func RunPipeline(ctx context.Context, graphs []*irg.Graph, stages []Stage) error {
	for _, stage := range stages {
		g, gctx := errgroup.WithContext(ctx)
		for _, graph := range graphs {
			graph := graph
			g.Go(func() error { return stage(gctx, graph) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
