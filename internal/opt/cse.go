// Package opt implements the local optimizer: per-opcode computed_value /
// equivalent_node / transform_node handlers, the optimize_node driver that
// sequences them with GIGO bad-input propagation, and value-numbering CSE.
package opt

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"ssair/internal/irg"
)

// cseKey is the blake2b digest of a node's hashable shape: (opcode, mode,
// attribute discriminant, predecessor identities for non-control-flow
// opcodes). Using a cryptographic hash rather than a small FNV sum all but
// eliminates accidental collisions across the life of a large compilation,
// at the cost the teacher's websocket/stats stack is happy to pay since
// this table is rebuilt per optimizer pass rather than kept hot.
type cseKey [32]byte

// Table is the CSE value-numbering table for one optimizer run. Volatile
// Load/Store never participate — see Table.Lookup.
type Table struct {
	entries map[cseKey][]*irg.Node
	attrCmp map[irg.Opcode]AttrEqual
}

// AttrEqual discriminates same-shape, different-semantics nodes whose
// Attrs aren't directly comparable with ==, e.g. two Loads with the same
// address and memory input but different result modes.
type AttrEqual func(a, b irg.Attrs) bool

// NewTable creates an empty CSE table. Register per-opcode attribute
// comparators with RegisterAttrEqual before running Lookup on nodes that
// carry attributes needing more than pointer equality.
func NewTable() *Table {
	return &Table{entries: map[cseKey][]*irg.Node{}, attrCmp: map[irg.Opcode]AttrEqual{}}
}

// RegisterAttrEqual installs the attribute-comparison callback for op.
func (t *Table) RegisterAttrEqual(op irg.Opcode, eq AttrEqual) { t.attrCmp[op] = eq }

func isVolatile(n *irg.Node) bool {
	switch a := n.Attrs().(type) {
	case irg.LoadStoreAttrs:
		return a.Volatile
	case *irg.LoadStoreAttrs:
		return a.Volatile
	}
	return false
}

func (t *Table) hash(n *irg.Node) cseKey {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n.Opcode()))
	h.Write(buf[:])
	fmt.Fprintf(h, "%p", n.Mode())
	if !n.Opcode().IsCFOp() {
		for i := 0; i < n.Arity(); i++ {
			fmt.Fprintf(h, "|%p", n.In(i))
		}
	}
	fmt.Fprintf(h, "|%v", attrDiscriminant(n.Attrs()))
	var out cseKey
	copy(out[:], h.Sum(nil))
	return out
}

func attrDiscriminant(a irg.Attrs) string {
	switch v := a.(type) {
	case irg.ConstAttrs:
		return fmt.Sprintf("const:%v", v.Tarval)
	case irg.SymConstAttrs:
		return fmt.Sprintf("symconst:%d:%p", v.Kind, v.Entity)
	case irg.ProjAttrs:
		return fmt.Sprintf("proj:%d:%d", v.Num, v.Pnc)
	case irg.SelAttrs:
		return fmt.Sprintf("sel:%p", v.Entity)
	default:
		return ""
	}
}

// Lookup returns a pre-existing, value-equal node for n if one is already
// in the table, otherwise inserts n and returns it unchanged. Volatile
// Load/Store nodes always insert-and-return without ever matching an
// existing entry.
func (t *Table) Lookup(n *irg.Node) *irg.Node {
	if isVolatile(n) {
		return n
	}
	key := t.hash(n)
	for _, cand := range t.entries[key] {
		if t.sameShape(cand, n) {
			return cand
		}
	}
	t.entries[key] = append(t.entries[key], n)
	return n
}

func (t *Table) sameShape(a, b *irg.Node) bool {
	if a.Opcode() != b.Opcode() || a.Mode() != b.Mode() {
		return false
	}
	if !a.Opcode().IsCFOp() {
		if a.Arity() != b.Arity() {
			return false
		}
		for i := 0; i < a.Arity(); i++ {
			if a.In(i) != b.In(i) {
				return false
			}
		}
	}
	if eq, ok := t.attrCmp[a.Opcode()]; ok {
		return eq(a.Attrs(), b.Attrs())
	}
	return attrDiscriminant(a.Attrs()) == attrDiscriminant(b.Attrs())
}
