package core

import (
	"fmt"
	"sync"

	"ssair/internal/irg"
)

// ResourceMask names the thread-local node fields a pass may need
// exclusive use of.
type ResourceMask int

const (
	ResourceVisited ResourceMask = 1 << iota
	ResourceLink
	ResourcePhiList
)

var (
	reservedMu sync.Mutex
	reserved   = map[*irg.Graph]ResourceMask{}
)

// ReserveResources claims mask's fields on g for the calling pass. A
// double reservation of any bit already held panics, matching the debug
// build's fail-fast posture for what is otherwise a silent data race
// between two passes that both assume they own, say, the visited counter.
func ReserveResources(g *irg.Graph, mask ResourceMask) {
	reservedMu.Lock()
	defer reservedMu.Unlock()
	have := reserved[g]
	if have&mask != 0 {
		panic(fmt.Sprintf("core: resource mask %b already reserved on graph (held %b, requested %b)", mask&have, have, mask))
	}
	reserved[g] = have | mask
}

// FreeResources releases mask's fields on g, making them available for the
// next pass to reserve.
func FreeResources(g *irg.Graph, mask ResourceMask) {
	reservedMu.Lock()
	defer reservedMu.Unlock()
	reserved[g] &^= mask
}
