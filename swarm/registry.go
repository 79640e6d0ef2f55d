// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package swarm implements the dispatch plane: the Did → Transport
// registry, outbound send, the per-transport inbound dispatch loop, and the
// pluggable callback registry. Locking follows a single RWMutex over a map
// (writers exclusive, readers shared), with the registry holding live
// Transports rather than cached sessions.
package swarm

import (
	"sync"

	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/transport"
)

// Registry maps a peer's Did to the Transport currently open to it.
// Mutations are announcements, not transactions: other subsystems (the
// stabilizer, the dispatch loop) observe registry state and react on their
// own next cycle rather than being notified synchronously.
type Registry struct {
	mu    sync.RWMutex
	peers map[identifier.Did]transport.Transport
}

// NewRegistry creates an empty transport registry.
func NewRegistry() *Registry {
	return &Registry{peers: make(map[identifier.Did]transport.Transport)}
}

// Put registers (or replaces) the Transport for did.
func (r *Registry) Put(did identifier.Did, t transport.Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[did] = t
}

// Get returns the Transport registered for did, if any.
func (r *Registry) Get(did identifier.Did) (transport.Transport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.peers[did]
	return t, ok
}

// Remove drops did from the registry, e.g. after a transport closes.
func (r *Registry) Remove(did identifier.Did) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, did)
}

// Dids returns a snapshot of every peer currently registered.
func (r *Registry) Dids() []identifier.Did {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]identifier.Did, 0, len(r.peers))
	for did := range r.peers {
		out = append(out, did)
	}
	return out
}

// IsAlive reports whether did has a registered, connected Transport —
// the liveness check the stabilizer uses to evict dead successors.
func (r *Registry) IsAlive(did identifier.Did) bool {
	t, ok := r.Get(did)
	return ok && t.IsConnected()
}
