// Package sparc implements the SPARC backend's legalization helpers:
// immediate-range legalization, stack-frame prologue/epilogue finalization,
// IncSP/Save merging, and stack-slot coalescing via a bounded MemPerm node.
package sparc

import (
	"ssair/internal/irg"
	"ssair/internal/mode"
	"ssair/internal/tarval"
)

// Params holds the backend's tunables. MaxMemPerm bounds how many
// simultaneous stack-slot permutations a single MemPerm node may coalesce
// before the legalizer falls back to a chain of explicit loads/stores; see
// SPEC_FULL.md's Open Question decision (§14) for why 8 was chosen.
type Params struct {
	MaxMemPerm int
}

// DefaultParams mirrors libFirm's sparc backend default.
var DefaultParams = Params{MaxMemPerm: 8}

// immLo, immHi are SPARC's signed 13-bit immediate field bounds.
const (
	immLo = -4096
	immHi = 4095
)

// LegalizeImmediate splits an out-of-range constant address-arithmetic
// operand into a chain of in-range Add nodes, each carrying the maximal
// immediate adjustment the encoding allows, so the instruction selector
// never has to reject a constant outright.
func LegalizeImmediate(g *irg.Graph, block *irg.Node, base *irg.Node, offset int64, m *mode.Mode) *irg.Node {
	cur := base
	remaining := offset
	for remaining != 0 {
		step := remaining
		if step > immHi {
			step = immHi
		} else if step < immLo {
			step = immLo
		}
		c := g.NewNode(block, irg.OpConst, m, nil, irg.ConstAttrs{Tarval: tarval.NewFromLong(step, m)})
		cur = g.NewNode(block, irg.OpAdd, m, []*irg.Node{cur, c}, nil)
		remaining -= step
	}
	return cur
}

// FitsImmediate reports whether v fits SPARC's 13-bit signed immediate
// field directly, without legalization.
func FitsImmediate(v int64) bool { return v >= immLo && v <= immHi }

// Frame describes a procedure's finalized stack frame: the total size to
// reserve (rounded to the platform's 8-byte stack alignment) and whether a
// register-window Save/Restore pair is required (always true on SPARC
// except for provably leaf, frame-less functions).
type Frame struct {
	SizeBytes int
	NeedsSave bool
}

// FinalizePrologue rounds frameSize to SPARC's stack alignment and decides
// whether the procedure needs a register window, based on whether it calls
// out (hasCalls) or spills (hasSpills).
func FinalizePrologue(frameSize int, hasCalls, hasSpills bool) Frame {
	const align = 8
	size := (frameSize + align - 1) / align * align
	return Frame{SizeBytes: size, NeedsSave: hasCalls || hasSpills || size > 0}
}

// MergeIncSP collapses a chain of IncSP adjustments that all occur in the
// same block with no intervening memory access into a single adjustment,
// and folds the net adjustment into the block's Save node when one exists
// (a Save already reserves stack space, so a trailing IncSP that only
// further shrinks the frame can be absorbed into it instead of emitted as a
// separate instruction).
func MergeIncSP(incSPs []*irg.Node, deltaOf func(*irg.Node) int64, save *irg.Node, setSaveDelta func(*irg.Node, int64)) (survivor *irg.Node, removed []*irg.Node) {
	if len(incSPs) == 0 {
		return nil, nil
	}
	var total int64
	for _, n := range incSPs {
		total += deltaOf(n)
	}
	if save != nil {
		setSaveDelta(save, total)
		return save, incSPs
	}
	survivor = incSPs[len(incSPs)-1]
	for _, n := range incSPs[:len(incSPs)-1] {
		removed = append(removed, n)
	}
	return survivor, removed
}
