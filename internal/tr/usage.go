package tr

// UsageFlags records how an entity is referenced by the graphs that survive
// into the backend, supplementing the base entity model with an analysis
// libFirm's field_temperature.h groups under "entity usage": which entities
// are ever loaded from, stored to, or whose address is taken, so that later
// passes (constant propagation of never-written fields, mangling-free
// internal linkage for never-address-taken statics) can act on it.
type UsageFlags int

const (
	UsageRead UsageFlags = 1 << iota
	UsageWritten
	UsageAddressTaken
)

// Usage is a read-modify accumulator attached to an entity's analysis
// scratch space, kept external to Entity itself so the usage pass can be
// skipped entirely for front-ends that never call it.
type Usage struct {
	flags map[*Entity]UsageFlags
}

// NewUsage creates an empty usage table.
func NewUsage() *Usage { return &Usage{flags: map[*Entity]UsageFlags{}} }

// Mark adds flags to e's accumulated usage.
func (u *Usage) Mark(e *Entity, flags UsageFlags) { u.flags[e] |= flags }

// Flags returns e's accumulated usage flags (zero if never marked, meaning
// the entity is unreferenced from the graphs this table was built over).
func (u *Usage) Flags(e *Entity) UsageFlags { return u.flags[e] }

// NeverWritten reports whether e was never stored to (true also for an
// entity that was never marked), making its initializer (if constant) safe
// to propagate at every load site.
func (u *Usage) NeverWritten(e *Entity) bool {
	return u.flags[e]&UsageWritten == 0
}

// AddressNeverTaken reports whether e can be placed in a register or
// dropped entirely rather than given a stable memory address, because no
// surviving graph ever took its address.
func (u *Usage) AddressNeverTaken(e *Entity) bool {
	return u.flags[e]&UsageAddressTaken == 0
}
