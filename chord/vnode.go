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

package chord

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/internal/metrics"
)

// VirtualNode is an append-only, identifier-addressed sequence of opaque
// blobs, replicated at whichever node is currently responsible for its vid.
type VirtualNode struct {
	Vid  identifier.Did
	Data [][]byte
}

// GenDid derives a virtual-node identifier from a UTF-8 topic or service
// name: the low 20 bytes of its Keccak-256 hash, the same derivation family
// as a secp256k1 address but over an arbitrary name rather than a public key.
func GenDid(name string) identifier.Did {
	return identifier.FromBytes(ethcrypto.Keccak256([]byte(name)))
}

// Responsible reports whether this node is responsible for vid: either it
// equals the node's own did, or it falls within the arc from predecessor to
// self.
func (s *State) Responsible(vid identifier.Did) bool {
	pred, ok := s.Predecessor()
	if vid == s.did {
		return true
	}
	if !ok {
		return true // no predecessor yet: this node owns the whole ring
	}
	return identifier.Between(pred, vid, s.did)
}

// StoreAppend appends blob to the local VirtualNode for vid. Callers must
// have already confirmed Responsible(vid); a non-responsible node should
// forward via FindSuccessor instead.
func (s *State) StoreAppend(vid identifier.Did, blob []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vn, ok := s.storage[vid]
	if !ok {
		vn = &VirtualNode{Vid: vid}
		s.storage[vid] = vn
	}
	vn.Data = append(vn.Data, blob)
	metrics.VnodeAppends.Inc()
}

// Fetch returns the full ordered blob sequence stored locally for vid.
func (s *State) Fetch(vid identifier.Did) ([][]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vn, ok := s.storage[vid]
	if !ok {
		return nil, false
	}
	out := make([][]byte, len(vn.Data))
	copy(out, vn.Data)
	return out, true
}

// Merge appends an incoming sequence to the local VirtualNode for vid,
// preserving order within each side; no deduplication is performed.
func (s *State) Merge(vid identifier.Did, incoming [][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vn, ok := s.storage[vid]
	if !ok {
		vn = &VirtualNode{Vid: vid}
		s.storage[vid] = vn
	}
	vn.Data = append(vn.Data, incoming...)
	metrics.VnodeMerges.Inc()
}
