package irg

// CreateGraphCopy clones g in its entirety: every node reachable from the
// Anchor is allocated fresh with null predecessors, predecessors are wired
// in a second pass via each original node's link field, and finally the
// copy's Anchor is rebuilt from the originals' mapped images. This allocate-then-wire
// shape (not a naive recursive clone) is what makes the algorithm safe for
// graphs containing cycles (Phis feeding back through loop headers).
func CreateGraphCopy(g *Graph) *Graph {
	cp := &Graph{Entity: g.Entity, Frame: g.Frame, NLoc: g.NLoc, Pin: g.Pin}

	reachable := reachableFromAnchor(g)

	// Pass 1: allocate copies with nil predecessors, stash the copy in the
	// original's link field so pass 2 can find it.
	orig := make([]*Node, 0, len(reachable))
	for _, n := range reachable {
		c := &Node{graph: cp, opcode: n.opcode, mode: n.mode, attrs: n.attrs, debug: n.debug}
		c.in = make([]*Node, len(n.in))
		n.link = c
		cp.nodes = append(cp.nodes, c)
		orig = append(orig, n)
	}

	// Pass 2: wire predecessors and block from the link field.
	for _, n := range orig {
		c := n.link.(*Node)
		if n.block != nil {
			c.block = n.block.link.(*Node)
		}
		for i, p := range n.in {
			if p == nil {
				continue
			}
			c.SetIn(i, p.link.(*Node))
		}
	}

	// Pass 3: rebuild the anchor from the original's mapped slots.
	cp.anchor = g.anchor.link.(*Node)

	for _, n := range orig {
		n.link = nil
	}
	return cp
}

// reachableFromAnchor performs a deterministic post-order walk from the
// Anchor node, following predecessors and (for Block) recursively visiting
// each node's block, so that every node the Anchor can reach — including
// ones only referenced via a keepalive edge on End — is included exactly
// once.
func reachableFromAnchor(g *Graph) []*Node {
	visited := map[*Node]bool{}
	var order []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		if n.block != nil {
			walk(n.block)
		}
		for _, p := range n.in {
			walk(p)
		}
		order = append(order, n)
	}
	walk(g.anchor)
	return order
}
