// Package tr implements the type and entity model: class/struct/union/
// method/array/pointer/primitive/enumeration/id types, their owned
// entities, and the inheritance override graph between class members.
package tr

import (
	"fmt"

	"ssair/internal/mode"
)

// Kind discriminates the type variants of SPEC_FULL.md §3's Type entry.
type Kind int

const (
	KindClass Kind = iota
	KindStruct
	KindUnion
	KindMethod
	KindArray
	KindPointer
	KindPrimitive
	KindEnumeration
	KindID // forwarding tombstone, see exchange_types
)

// Peculiarity distinguishes a class type's relationship to its runtime
// representation.
type Peculiarity int

const (
	PeculiarityExistent Peculiarity = iota
	PeculiarityDescription
	PeculiarityInherited
)

// LayoutState tracks a type's monotonic progression toward a fixed layout.
type LayoutState int

const (
	LayoutUndefined LayoutState = iota
	LayoutFixed
)

// CallingConvention captures the method-type ABI bits.
type CallingConvention int

const (
	CCDefault CallingConvention = iota
	CCCDecl
	CCStdCall
	CCFastCall
)

// MethodProperty flags additional guarantees a method type (or entity)
// carries.
type MethodProperty int

const (
	PropConst MethodProperty = 1 << iota
	PropPure
	PropNoReturn
	PropNoThrow
	PropNaked
)

// Type is an opaque, mutable type handle. All field access must go through
// skip (the skip_tid equivalent) so exchange is transparent to holders of a
// stale *Type.
type Type struct {
	kind   Kind
	name   string
	mode   *mode.Mode // only meaningful for KindPrimitive
	bits   int
	align  int
	layout LayoutState

	// forwarding payload, valid only when kind == KindID.
	forward *Type

	// class-only
	members     []*Entity
	supertypes  []*Type
	subtypes    []*Type
	peculiarity Peculiarity

	// method-only
	params   []*Type
	results  []*Type
	variadic bool
	cc       CallingConvention
	props    MethodProperty

	// array-only
	elem       *Type
	dims       []int // 0 means unknown/flexible
	elemOffset int

	// pointer-only
	pointsTo *Type

	// enumeration-only
	enumerators []string
}

// skip resolves forwarding tombstones, the skip_tid equivalent. Every
// exported accessor below calls this first so a stale handle kept across an
// ExchangeTypes call still reads the merged type's data.
func skip(t *Type) *Type {
	for t.kind == KindID {
		t = t.forward
	}
	return t
}

// ExchangeTypes turns old into a forwarding id type whose payload is new.
// Every subsequent access to old (via skip) observes new's data instead.
// This must run in amortized O(1) and must never be undone.
func ExchangeTypes(old, new *Type) {
	new = skip(new)
	old.kind = KindID
	old.forward = new
}

func (t *Type) Kind() Kind               { return skip(t).kind }
func (t *Type) Name() string             { return skip(t).name }
func (t *Type) Mode() *mode.Mode         { return skip(t).mode }
func (t *Type) SizeBits() int            { return skip(t).bits }
func (t *Type) AlignBits() int           { return skip(t).align }
func (t *Type) Layout() LayoutState      { return skip(t).layout }
func (t *Type) Members() []*Entity       { return skip(t).members }
func (t *Type) Supertypes() []*Type      { return skip(t).supertypes }
func (t *Type) Subtypes() []*Type        { return skip(t).subtypes }
func (t *Type) Peculiarity() Peculiarity { return skip(t).peculiarity }
func (t *Type) Params() []*Type          { return skip(t).params }
func (t *Type) Results() []*Type         { return skip(t).results }
func (t *Type) Variadic() bool           { return skip(t).variadic }
func (t *Type) Properties() MethodProperty { return skip(t).props }
func (t *Type) ElemType() *Type          { return skip(t).elem }
func (t *Type) PointsTo() *Type          { return skip(t).pointsTo }
func (t *Type) Enumerators() []string    { return skip(t).enumerators }

func (t *Type) String() string {
	t = skip(t)
	if t.name != "" {
		return t.name
	}
	return fmt.Sprintf("<anon %d>", t.kind)
}

// NewPrimitive creates a primitive type whose layout is immediately fixed
// from its mode's width (primitives have no internal structure to lay out).
func NewPrimitive(name string, m *mode.Mode) *Type {
	return &Type{kind: KindPrimitive, name: name, mode: m, bits: m.SizeBits(), align: m.SizeBits(), layout: LayoutFixed}
}

// NewClass creates an undefined-layout class type with peculiarity
// "existent"; peculiarity may be changed before the layout is fixed.
func NewClass(name string) *Type {
	return &Type{kind: KindClass, name: name, layout: LayoutUndefined, peculiarity: PeculiarityExistent}
}

// NewStruct, NewUnion mirror NewClass for the corresponding aggregate kinds.
func NewStruct(name string) *Type { return &Type{kind: KindStruct, name: name, layout: LayoutUndefined} }
func NewUnion(name string) *Type  { return &Type{kind: KindUnion, name: name, layout: LayoutUndefined} }

// NewMethod creates a method type from parameter and result type lists.
func NewMethod(name string, params, results []*Type, variadic bool, cc CallingConvention) *Type {
	return &Type{kind: KindMethod, name: name, params: params, results: results, variadic: variadic, cc: cc, layout: LayoutFixed}
}

// NewPointer creates a pointer-to-elem type, fixed-layout (mode_P's width).
func NewPointer(elem *Type, m *mode.Mode) *Type {
	return &Type{kind: KindPointer, name: "*" + elem.String(), pointsTo: elem, mode: m, bits: m.SizeBits(), align: m.SizeBits(), layout: LayoutFixed}
}

// NewArray creates an array-of-elem type with the given dimension extents
// (0 entries denote an unknown/flexible bound). Layout is fixed only once
// elem's layout and all dims are known; call FixArrayLayout explicitly.
func NewArray(name string, elem *Type, dims []int) *Type {
	return &Type{kind: KindArray, name: name, elem: elem, dims: dims, layout: LayoutUndefined}
}

// NewEnumeration creates an enumeration type over the given constant names.
func NewEnumeration(name string, enumerators []string, m *mode.Mode) *Type {
	return &Type{kind: KindEnumeration, name: name, enumerators: enumerators, mode: m, bits: m.SizeBits(), align: m.SizeBits(), layout: LayoutFixed}
}

// AddSupertype wires a class's direct inheritance edge in both directions:
// super is appended to t's supertypes and t to super's subtypes (mirrors
// add_entity_overwrites' atomic bidirectional update discipline, applied
// here to types).
func (t *Type) AddSupertype(super *Type) {
	t = skip(t)
	t.supertypes = append(t.supertypes, skip(super))
	super = skip(super)
	super.subtypes = append(super.subtypes, t)
}

// FixLayout transitions a class/struct/union type from undefined to fixed
// layout, validating that bits/align were already computed (by the caller's
// layout algorithm) and are internally consistent.
func (t *Type) FixLayout(bits, align int) error {
	t = skip(t)
	if t.layout == LayoutFixed {
		return fmt.Errorf("tr: type %s layout already fixed", t.name)
	}
	if bits < 0 || align <= 0 || bits%align != 0 && bits != 0 {
		return fmt.Errorf("tr: type %s: inconsistent layout bits=%d align=%d", t.name, bits, align)
	}
	for _, m := range t.members {
		if m.offset < 0 || (bits > 0 && m.offset+m.typ.SizeBits() > bits) {
			return fmt.Errorf("tr: type %s: member %s offset %d exceeds fixed size %d", t.name, m.name, m.offset, bits)
		}
	}
	t.bits, t.align, t.layout = bits, align, LayoutFixed
	return nil
}

// SetPeculiarity changes a class type's peculiarity; only valid before
// layout is fixed.
func (t *Type) SetPeculiarity(p Peculiarity) {
	t = skip(t)
	t.peculiarity = p
}

// FixArrayLayout resolves an array type's total size from its element size
// and declared dimensions, once all dimensions are concrete.
func (t *Type) FixArrayLayout() error {
	t = skip(t)
	if t.kind != KindArray {
		return fmt.Errorf("tr: FixArrayLayout on non-array type %s", t.name)
	}
	total := t.elem.SizeBits()
	for _, d := range t.dims {
		if d == 0 {
			return fmt.Errorf("tr: array type %s has an unresolved dimension", t.name)
		}
		total *= d
	}
	t.bits, t.align, t.layout = total, t.elem.AlignBits(), LayoutFixed
	return nil
}
