// Package server implements the realtime messaging core: room membership,
// event fan-out, and the per-connection session lifecycle over WebSocket.
package server

import "sync"

// Member is the delivery endpoint the registry fans events out to. Deliver
// must not block; it reports false when the member could not accept the
// payload (full queue or closed connection).
type Member interface {
	Deliver(payload []byte) bool
}

// room holds the member set for one room name. Its mutex serializes
// membership changes and broadcasts for that room only, so traffic in one
// room never contends with another.
type room struct {
	mu      sync.Mutex
	members map[Member]struct{}
}

// Registry tracks which members are subscribed to which rooms. Rooms exist
// implicitly: an entry is created on first join and dropped when its member
// set empties. A Registry is constructed per process (or per test) and
// shared by every session; all membership state lives here and nowhere else.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*room)}
}

// Join adds m to the named room, creating the room if needed. It reports
// whether the membership is new; joining a room twice is a no-op.
func (r *Registry) Join(name string, m Member) bool {
	r.mu.Lock()
	rm, ok := r.rooms[name]
	if !ok {
		rm = &room{members: make(map[Member]struct{})}
		r.rooms[name] = rm
	}
	rm.mu.Lock()
	r.mu.Unlock()
	defer rm.mu.Unlock()

	if _, exists := rm.members[m]; exists {
		return false
	}
	rm.members[m] = struct{}{}
	return true
}

// Leave removes m from the named room, dropping the room entry once empty.
// It reports whether m was a member; leaving a room never joined is a no-op.
func (r *Registry) Leave(name string, m Member) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[name]
	if !ok {
		return false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, exists := rm.members[m]; !exists {
		return false
	}
	delete(rm.members, m)
	if len(rm.members) == 0 {
		delete(r.rooms, name)
	}
	return true
}

// Broadcast delivers payload to every current member of the named room and
// returns how many members accepted it. Delivery is an independent
// non-blocking handoff per member; a slow or closed member never stalls the
// rest. The room lock is held across the fan-out, so broadcasts to one room
// reach all members in a single total order.
func (r *Registry) Broadcast(name string, payload []byte) int {
	r.mu.RLock()
	rm, ok := r.rooms[name]
	r.mu.RUnlock()
	if !ok {
		return 0
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	delivered := 0
	for m := range rm.members {
		if m.Deliver(payload) {
			delivered++
		}
	}
	return delivered
}

// LeaveAll removes m from every room it belongs to and returns the names of
// the rooms it was actually in, so the caller can announce the departures.
func (r *Registry) LeaveAll(m Member) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var left []string
	for name, rm := range r.rooms {
		rm.mu.Lock()
		if _, exists := rm.members[m]; exists {
			delete(rm.members, m)
			left = append(left, name)
			if len(rm.members) == 0 {
				delete(r.rooms, name)
			}
		}
		rm.mu.Unlock()
	}
	return left
}

// MemberCount returns the current size of the named room's member set.
func (r *Registry) MemberCount(name string) int {
	r.mu.RLock()
	rm, ok := r.rooms[name]
	r.mu.RUnlock()
	if !ok {
		return 0
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.members)
}
