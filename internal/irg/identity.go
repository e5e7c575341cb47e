package irg

import "github.com/google/uuid"

// identities assigns a stable UUID to each graph on first request, used by
// the snapshot store and the stats streamer to key a graph across process
// restarts without depending on pointer identity or an entity's mangled
// name staying unique forever (two graphs for the same entity can briefly
// coexist across create_irg_copy during inlining).
var identities = map[*Graph]uuid.UUID{}

// Identity returns g's stable identifier, generating one on first call.
func (g *Graph) Identity() uuid.UUID {
	if id, ok := identities[g]; ok {
		return id
	}
	id := uuid.New()
	identities[g] = id
	return id
}
