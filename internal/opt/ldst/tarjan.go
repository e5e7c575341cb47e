package ldst

import "ssair/internal/irg"

// tarjanSCC computes the strongly connected components of the block
// control-flow graph (blocks as vertices, Jmp/Cond-Proj predecessors as
// reversed edges), used to find natural loops for phase 2's loop-invariant
// load motion.
func tarjanSCC(g *irg.Graph) [][]*irg.Node {
	blocks := collectBlocks(g)
	succ := blockSuccessors(g, blocks)

	index := map[*irg.Node]int{}
	low := map[*irg.Node]int{}
	onStack := map[*irg.Node]bool{}
	var stack []*irg.Node
	counter := 0
	var sccs [][]*irg.Node

	var strongConnect func(v *irg.Node)
	strongConnect = func(v *irg.Node) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range succ[v] {
			if _, seen := index[w]; !seen {
				strongConnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] {
				if index[w] < low[v] {
					low[v] = index[w]
				}
			}
		}

		if low[v] == index[v] {
			var scc []*irg.Node
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, b := range blocks {
		if _, seen := index[b]; !seen {
			strongConnect(b)
		}
	}
	return sccs
}

func collectBlocks(g *irg.Graph) []*irg.Node {
	var out []*irg.Node
	seen := map[*irg.Node]bool{}
	for _, n := range g.AllNodes() {
		if n.IsBlock() && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func blockSuccessors(g *irg.Graph, blocks []*irg.Node) map[*irg.Node][]*irg.Node {
	succ := map[*irg.Node][]*irg.Node{}
	for _, b := range blocks {
		succ[b] = nil
	}
	for _, b := range blocks {
		for i := 0; i < b.Arity(); i++ {
			pred := skipProj(b.In(i)).Block()
			if pred != nil {
				succ[pred] = append(succ[pred], b)
			}
		}
	}
	return succ
}
