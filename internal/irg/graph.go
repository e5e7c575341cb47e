package irg

import (
	"ssair/internal/mode"
)

// AnchorSlot indexes the Anchor node's 10 distinguished inputs.
type AnchorSlot int

const (
	AnchorStart AnchorSlot = iota
	AnchorEnd
	AnchorStartBlock
	AnchorEndBlock
	AnchorBad
	AnchorNoMem
	AnchorInitialMem
	AnchorArgs
	AnchorFrame
	AnchorTLS
	anchorSlotCount
)

// PinState tracks whether a graph's nodes are pinned to their Block (the
// default) or allowed to float, set by optimize_node step 3 when a rewrite
// moves a node out of its original block.
type PinState int

const (
	PinPinned PinState = iota
	PinFloats
)

// Graph holds one procedure's IR: its obstack-backed node arena, the Anchor
// node, the builder's current_block cursor, and the SSA value table's
// column count (n_loc).
type Graph struct {
	Entity  interface{} // *tr.Entity
	Frame   interface{} // *tr.Type

	nodes  []*Node // obstack: append-only, index is identity
	anchor *Node

	CurrentBlock *Node
	NLoc         int

	Pin           PinState
	OutEdgesValid bool
	DominanceValid bool

	visitedCounter uint64
}

// NewGraph allocates a fresh graph with its Start/End/StartBlock/EndBlock/
// Bad/NoMem/InitialMem/Args/Frame/TLS anchor slots populated.
func NewGraph(entity, frame interface{}, nLoc int) *Graph {
	g := &Graph{Entity: entity, Frame: frame, NLoc: nLoc}

	startBlock := g.allocRaw(OpBlock, mode.BB, nil)
	endBlock := g.allocRaw(OpBlock, mode.BB, nil)
	start := g.allocRaw(OpStart, mode.T, []*Node{})
	start.block = startBlock
	end := g.allocRaw(OpEnd, mode.X, []*Node{})
	end.block = endBlock
	bad := g.allocRaw(OpBad, mode.BAD, nil)
	noMem := g.allocRaw(OpNoMem, mode.M, nil)
	initialMem := g.allocRaw(OpProj, mode.M, []*Node{start})
	initialMem.block = startBlock
	args := g.allocRaw(OpProj, mode.T, []*Node{start})
	args.block = startBlock
	frameNode := g.allocRaw(OpProj, mode.P, []*Node{start})
	frameNode.block = startBlock
	tls := g.allocRaw(OpProj, mode.P, []*Node{start})
	tls.block = startBlock

	anchor := g.allocRaw(OpAnchor, mode.ANY, make([]*Node, anchorSlotCount))
	anchor.SetIn(int(AnchorStart), start)
	anchor.SetIn(int(AnchorEnd), end)
	anchor.SetIn(int(AnchorStartBlock), startBlock)
	anchor.SetIn(int(AnchorEndBlock), endBlock)
	anchor.SetIn(int(AnchorBad), bad)
	anchor.SetIn(int(AnchorNoMem), noMem)
	anchor.SetIn(int(AnchorInitialMem), initialMem)
	anchor.SetIn(int(AnchorArgs), args)
	anchor.SetIn(int(AnchorFrame), frameNode)
	anchor.SetIn(int(AnchorTLS), tls)
	g.anchor = anchor
	g.CurrentBlock = startBlock
	return g
}

// allocRaw appends a node to the obstack without wiring def-use edges for
// its initial predecessors (callers that need out-edges call SetIn/AppendIn
// afterwards); used only for the anchor bootstrap where predecessors are
// finished piecemeal.
func (g *Graph) allocRaw(op Opcode, m *mode.Mode, in []*Node) *Node {
	n := &Node{graph: g, opcode: op, mode: m, in: append([]*Node(nil), in...)}
	g.nodes = append(g.nodes, n)
	return n
}

// NewNode is the obstack allocator front-ends and the optimizer use to
// create ordinary nodes with fully-wired predecessors and block.
func (g *Graph) NewNode(block *Node, op Opcode, m *mode.Mode, in []*Node, attrs Attrs) *Node {
	n := &Node{graph: g, opcode: op, mode: m, block: block, attrs: attrs}
	n.in = make([]*Node, len(in))
	for i, p := range in {
		n.SetIn(i, p)
	}
	g.nodes = append(g.nodes, n)
	return n
}

func (g *Graph) indexOf(n *Node) int {
	for i, c := range g.nodes {
		if c == n {
			return i
		}
	}
	return -1
}

func (g *Graph) anchorSlot(s AnchorSlot) *Node { return g.anchor.in[s] }

func (g *Graph) Start() *Node       { return g.anchorSlot(AnchorStart) }
func (g *Graph) End() *Node         { return g.anchorSlot(AnchorEnd) }
func (g *Graph) StartBlock() *Node  { return g.anchorSlot(AnchorStartBlock) }
func (g *Graph) EndBlock() *Node    { return g.anchorSlot(AnchorEndBlock) }
func (g *Graph) Bad() *Node         { return g.anchorSlot(AnchorBad) }
func (g *Graph) NoMem() *Node       { return g.anchorSlot(AnchorNoMem) }
func (g *Graph) InitialMem() *Node  { return g.anchorSlot(AnchorInitialMem) }
func (g *Graph) Args() *Node        { return g.anchorSlot(AnchorArgs) }
func (g *Graph) FrameNode() *Node   { return g.anchorSlot(AnchorFrame) }
func (g *Graph) TLS() *Node         { return g.anchorSlot(AnchorTLS) }
func (g *Graph) Anchor() *Node      { return g.anchor }

// AllNodes returns every node currently live on the obstack, in allocation
// order. Used by walkers that don't need reachability, e.g. the graph-copy
// algorithm's first pass.
func (g *Graph) AllNodes() []*Node { return g.nodes }

// NextVisited returns a fresh monotonic visited stamp, used by walkers that
// need to distinguish "this run" from any prior run without clearing every
// node's counter.
func (g *Graph) NextVisited() uint64 {
	g.visitedCounter++
	return g.visitedCounter
}

// AddKeepAlive appends n to End's keepalive predecessor list, used for
// memory-φs in loops and for volatile side effects that must survive to
// the end of the procedure even though nothing else reads them.
func (g *Graph) AddKeepAlive(n *Node) {
	end := g.End()
	end.AppendIn(n)
}
