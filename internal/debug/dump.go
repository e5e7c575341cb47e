// Package debug implements the supplemented irdumptxt-style textual node
// dump: a compact, one-line-per-node summary of a graph, plus structured
// pretty-printing of attribute payloads for interactive debugging.
package debug

import (
	"fmt"
	"io"
	"sort"

	"github.com/kr/pretty"

	"ssair/internal/irg"
)

// NodeSummary renders a single line describing n: its index, opcode, mode,
// predecessor indices, and a pretty-printed attribute payload when present
// — the Go equivalent of libFirm's irdumptxt.c one-line node text.
func NodeSummary(index map[*irg.Node]int, n *irg.Node) string {
	preds := make([]string, n.Arity())
	for i := 0; i < n.Arity(); i++ {
		p := n.In(i)
		preds[i] = fmt.Sprintf("%d", index[p])
	}
	blockIdx := -1
	if n.Block() != nil {
		blockIdx = index[n.Block()]
	}
	line := fmt.Sprintf("%4d: %-10s %-4s blk=%-3d preds=%v", index[n], n.Opcode(), n.Mode(), blockIdx, preds)
	if attrs := n.Attrs(); attrs != nil {
		line += "  " + pretty.Sprint(attrs)
	}
	return line
}

// DumpGraph writes a full textual dump of g's nodes in a stable
// (allocation) order to w, one NodeSummary line per node.
func DumpGraph(w io.Writer, g *irg.Graph) error {
	nodes := g.AllNodes()
	index := make(map[*irg.Node]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}
	fmt.Fprintf(w, "graph (%d nodes):\n", len(nodes))
	for _, n := range nodes {
		if _, err := fmt.Fprintln(w, NodeSummary(index, n)); err != nil {
			return err
		}
	}
	return nil
}

// Histogram summarizes a graph's opcode distribution, sorted by descending
// count, for quick eyeballing of where a pass spends its node budget.
func Histogram(g *irg.Graph) []OpcodeCount {
	counts := map[irg.Opcode]int{}
	for _, n := range g.AllNodes() {
		counts[n.Opcode()]++
	}
	out := make([]OpcodeCount, 0, len(counts))
	for op, c := range counts {
		out = append(out, OpcodeCount{Opcode: op, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// OpcodeCount is one row of a Histogram.
type OpcodeCount struct {
	Opcode irg.Opcode
	Count  int
}
