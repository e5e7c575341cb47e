package core

import (
	"context"
	"sync"
	"testing"

	"ssair/internal/irg"
)

func TestInitRejectsInvalidSemver(t *testing.T) {
	if _, err := Init(Params{Size: "not-a-version"}); err == nil {
		t.Fatal("Init accepted an invalid semver Size")
	}
}

func TestInitFinishRoundtrip(t *testing.T) {
	prog, err := Init(Params{Size: "v1.0.0"})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if prog.GlobType == nil || prog.TLSType == nil {
		t.Fatal("Init did not populate GlobType/TLSType")
	}
	prog.Finish()
}

func TestInitRejectsDoubleInitWithoutFinish(t *testing.T) {
	prog, err := Init(Params{})
	if err != nil {
		t.Fatalf("first Init: %v", err)
	}
	defer prog.Finish()

	if _, err := Init(Params{}); err == nil {
		t.Fatal("second Init without an intervening Finish should fail")
	}
}

func TestNewGraphRegistersAndFinishClears(t *testing.T) {
	prog, err := Init(Params{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	g := prog.NewGraph("entity", nil, 2)
	if len(prog.Graphs) != 1 || prog.Graphs[0] != g {
		t.Fatal("NewGraph did not register the graph on the program")
	}
	prog.Finish()
	if prog.Graphs != nil {
		t.Error("Finish should clear the program's graph list")
	}
}

func TestRunPipelineRunsStagesOverEveryGraph(t *testing.T) {
	g1 := irg.NewGraph("a", nil, 1)
	g2 := irg.NewGraph("b", nil, 1)

	var visited []string
	var mu sync.Mutex
	stage := Stage(func(ctx context.Context, g *irg.Graph) error {
		mu.Lock()
		visited = append(visited, entityName(g))
		mu.Unlock()
		return nil
	})

	if err := RunPipeline(context.Background(), []*irg.Graph{g1, g2}, []Stage{stage}); err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if len(visited) != 2 {
		t.Fatalf("stage ran %d times, want 2 (once per graph)", len(visited))
	}
}

func TestRunPipelinePropagatesStageError(t *testing.T) {
	g1 := irg.NewGraph("a", nil, 1)
	boom := errFixed("stage failed")
	stage := Stage(func(ctx context.Context, g *irg.Graph) error { return boom })

	if err := RunPipeline(context.Background(), []*irg.Graph{g1}, []Stage{stage}); err != boom {
		t.Fatalf("RunPipeline error = %v, want %v", err, boom)
	}
}

func TestReserveResourcesPanicsOnDoubleReservation(t *testing.T) {
	g := irg.NewGraph("e", nil, 1)
	ReserveResources(g, ResourceVisited)
	defer FreeResources(g, ResourceVisited)

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic reserving an already-held resource")
		}
	}()
	ReserveResources(g, ResourceVisited)
}

func TestFreeResourcesAllowsReReservation(t *testing.T) {
	g := irg.NewGraph("e", nil, 1)
	ReserveResources(g, ResourceLink)
	FreeResources(g, ResourceLink)
	ReserveResources(g, ResourceLink) // must not panic: freed first.
	FreeResources(g, ResourceLink)
}

func entityName(g *irg.Graph) string {
	if s, ok := g.Entity.(string); ok {
		return s
	}
	return ""
}

type errFixed string

func (e errFixed) Error() string { return string(e) }
