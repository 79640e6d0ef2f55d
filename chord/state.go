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

// Package chord implements the Chord ring held by a single node: successor
// list, predecessor, finger table, lookup routing and successor-list
// maintenance. One exclusive lock guards the whole mutable struct; no lock
// is held across a suspension point except where the stabilizer documents
// it.
package chord

import (
	"sort"
	"sync"

	"github.com/sage-x-project/ringmesh/identifier"
)

// K is the default bound on the successor list length, used when New is
// called with a non-positive successorListSize.
const K = 3

// FingerBits is the number of finger-table entries, one per ring bit.
const FingerBits = identifier.Bits

// LookupResult is returned by FindSuccessor: either a resolved successor, or
// a remote node to forward the query to next.
type LookupResult struct {
	// Resolved is true when Successor is the final answer.
	Resolved  bool
	Successor identifier.Did

	// Otherwise the caller must forward target to NextHop.
	NextHop identifier.Did
	Target  identifier.Did
}

// State is the mutable Chord state for one node, keyed by its own did. All
// reads and writes go through the embedded mutex; fix_finger computes its
// query outside the lock and only re-acquires it to store the reply.
type State struct {
	mu sync.Mutex

	did         identifier.Did
	successors  []identifier.Did
	predecessor *identifier.Did
	finger      [FingerBits]*identifier.Did

	storage map[identifier.Did]*VirtualNode

	fingerCursor      int
	successorListSize int
}

// New creates an empty Chord state for did, the node's own identifier.
// successorListSize bounds the successor list maintained by
// ReconcileSuccessors; a non-positive value selects the default, K.
func New(did identifier.Did, successorListSize int) *State {
	if successorListSize <= 0 {
		successorListSize = K
	}
	return &State{
		did:               did,
		storage:           make(map[identifier.Did]*VirtualNode),
		successorListSize: successorListSize,
	}
}

// Did returns this node's own identifier.
func (s *State) Did() identifier.Did {
	return s.did
}

// Successors returns a copy of the current successor list, nearest first.
func (s *State) Successors() []identifier.Did {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]identifier.Did, len(s.successors))
	copy(out, s.successors)
	return out
}

// Predecessor returns the current predecessor, if any.
func (s *State) Predecessor() (identifier.Did, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.predecessor == nil {
		return identifier.Did{}, false
	}
	return *s.predecessor, true
}

// Finger returns finger[i], if known.
func (s *State) Finger(i int) (identifier.Did, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finger[i] == nil {
		return identifier.Did{}, false
	}
	return *s.finger[i], true
}

// StoreFinger records the result of a fix_finger(i) query. Called after the
// query itself, which runs outside the lock.
func (s *State) StoreFinger(i int, found identifier.Did) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finger[i] = &found
}

// NextFingerIndex returns the next index to refresh in the stabilizer's
// round-robin fix_finger schedule, advancing the cursor.
func (s *State) NextFingerIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.fingerCursor
	s.fingerCursor = (s.fingerCursor + 1) % FingerBits
	return i
}

// Join resets this node's ring membership to a single seed successor,
// clearing the predecessor and finger table; stabilization fills the rest.
func (s *State) Join(seed identifier.Did) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successors = []identifier.Did{seed}
	s.predecessor = nil
	for i := range s.finger {
		s.finger[i] = nil
	}
}

// Notify records candidate as the predecessor if it's a better fit than
// whatever is currently recorded; idempotent under repeated identical calls.
func (s *State) Notify(candidate identifier.Did) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.predecessor == nil || identifier.Between(*s.predecessor, candidate, s.did) {
		c := candidate
		s.predecessor = &c
	}
}

// ClosestPrecedingNode scans the finger table (high bit first) and the
// successor list for the largest known Did strictly between self and
// target, falling back to self when nothing qualifies.
func (s *State) ClosestPrecedingNode(target identifier.Did) identifier.Did {
	s.mu.Lock()
	defer s.mu.Unlock()

	best := s.did
	consider := func(candidate identifier.Did) {
		if identifier.Between(s.did, candidate, target) {
			if best == s.did || identifier.Between(best, candidate, target) {
				best = candidate
			}
		}
	}
	for i := FingerBits - 1; i >= 0; i-- {
		if s.finger[i] != nil {
			consider(*s.finger[i])
		}
	}
	for _, succ := range s.successors {
		consider(succ)
	}
	return best
}

// FindSuccessor resolves target locally when it falls within the first
// successor's arc, otherwise returns a remote-lookup request naming the
// closest preceding node to forward to.
func (s *State) FindSuccessor(target identifier.Did) LookupResult {
	s.mu.Lock()
	if len(s.successors) == 0 {
		s.mu.Unlock()
		return LookupResult{Resolved: true, Successor: s.did}
	}
	head := s.successors[0]
	s.mu.Unlock()

	if identifier.Between(s.did, target, head) || target == head {
		return LookupResult{Resolved: true, Successor: head}
	}
	return LookupResult{
		Resolved: false,
		NextHop:  s.ClosestPrecedingNode(target),
		Target:   target,
	}
}

// ReconcileSuccessors applies one stabilization round's worth of
// information: x is the reported predecessor of the current head (if any),
// learned is the head's own successor list (for appending beyond x), and
// dead marks successors whose transport has failed since the last tick.
// Entries equal to self are skipped; the result is deduped and truncated
// to this State's successor-list size.
func (s *State) ReconcileSuccessors(x *identifier.Did, learned []identifier.Did, dead map[identifier.Did]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]identifier.Did, 0, len(s.successors)+len(learned)+1)
	if x != nil && *x != s.did && identifier.Between(s.did, *x, headOr(s.successors, s.did)) {
		merged = append(merged, *x)
	}
	merged = append(merged, s.successors...)
	merged = append(merged, learned...)

	seen := make(map[identifier.Did]bool, len(merged))
	unique := make([]identifier.Did, 0, len(merged))
	for _, d := range merged {
		if d == s.did || seen[d] || dead[d] {
			continue
		}
		seen[d] = true
		unique = append(unique, d)
	}

	sort.Slice(unique, func(i, j int) bool {
		return identifier.Distance(s.did, unique[i]).Cmp(identifier.Distance(s.did, unique[j])) < 0
	})
	if len(unique) > s.successorListSize {
		unique = unique[:s.successorListSize]
	}
	s.successors = unique
}

func headOr(list []identifier.Did, fallback identifier.Did) identifier.Did {
	if len(list) == 0 {
		return fallback
	}
	return list[0]
}
