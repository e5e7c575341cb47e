package lower

// This file documents a deliberately unexercised grounding decision: the
// lowering pass's Sel/bitfield shapes were cross-checked against
// github.com/llir/llvm's getelementptr and struct-layout modeling while
// designing LowerSel/LowerArraySel/BitfieldRead/BitfieldWrite in lower.go, but
// llir/llvm is not imported or linked here. Its IR targets LLVM's own
// instruction set (GEP, alloca, phi-with-incoming-blocks) rather than this
// package's anchor/opcode model, so there is no lowering destination for it
// to produce; it served as reference material only, not as a runtime
// dependency. See DESIGN.md's domain-stack ledger for the equivalent note
// on github.com/llir/ll.
