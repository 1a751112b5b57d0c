package ws

import (
	"sort"

	"github.com/google/uuid"
)

// presence is the connected-user set. It is owned by the hub goroutine:
// initialized empty, mutated only on connect/disconnect, cleared on
// teardown. Single process only; restarting the server resets it and
// clients re-announce on reconnect.
type presence struct {
	// conns counts live connections per user; a user is online while any
	// of their connections remain.
	conns map[uuid.UUID]int
}

func newPresence() *presence {
	return &presence{conns: make(map[uuid.UUID]int)}
}

func (p *presence) add(userID uuid.UUID) {
	p.conns[userID]++
}

func (p *presence) remove(userID uuid.UUID) {
	if n := p.conns[userID]; n <= 1 {
		delete(p.conns, userID)
	} else {
		p.conns[userID] = n - 1
	}
}

func (p *presence) list() []string {
	ids := make([]string, 0, len(p.conns))
	for id := range p.conns {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	return ids
}

func (p *presence) clear() {
	p.conns = make(map[uuid.UUID]int)
}
