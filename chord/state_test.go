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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/ringmesh/identifier"
)

func didN(n int64) identifier.Did {
	b := make([]byte, identifier.Size)
	for i := len(b) - 1; i >= 0 && n != 0; i-- {
		b[i] = byte(n)
		n >>= 8
	}
	return identifier.FromBytes(b)
}

func TestJoinSetsSingleSuccessor(t *testing.T) {
	s := New(didN(10), 0)
	s.Join(didN(20))
	assert.Equal(t, []identifier.Did{didN(20)}, s.Successors())
	_, ok := s.Predecessor()
	assert.False(t, ok)
}

func TestNotifySetsPredecessorWhenEmpty(t *testing.T) {
	s := New(didN(10), 0)
	s.Notify(didN(5))
	pred, ok := s.Predecessor()
	require.True(t, ok)
	assert.Equal(t, didN(5), pred)
}

func TestNotifyIsIdempotent(t *testing.T) {
	s := New(didN(10), 0)
	s.Notify(didN(5))
	s.Notify(didN(5))
	pred, ok := s.Predecessor()
	require.True(t, ok)
	assert.Equal(t, didN(5), pred)
}

func TestNotifyOnlyReplacesWithBetterCandidate(t *testing.T) {
	s := New(didN(10), 0)
	s.Notify(didN(5))
	s.Notify(didN(3)) // further from self.did=10 going clockwise than 5 is; between(5,3,10) is false
	pred, _ := s.Predecessor()
	assert.Equal(t, didN(5), pred)
}

func TestFindSuccessorLocalWhenWithinFirstSuccessorArc(t *testing.T) {
	s := New(didN(0), 0)
	s.Join(didN(100))
	result := s.FindSuccessor(didN(50))
	assert.True(t, result.Resolved)
	assert.Equal(t, didN(100), result.Successor)
}

func TestFindSuccessorRemoteWhenBeyondFirstSuccessor(t *testing.T) {
	s := New(didN(0), 0)
	s.Join(didN(10))
	result := s.FindSuccessor(didN(50))
	assert.False(t, result.Resolved)
	assert.Equal(t, didN(50), result.Target)
}

func TestClosestPrecedingNodeFallsBackToSelf(t *testing.T) {
	s := New(didN(10), 0)
	assert.Equal(t, didN(10), s.ClosestPrecedingNode(didN(50)))
}

func TestClosestPrecedingNodePrefersFinger(t *testing.T) {
	s := New(didN(10), 0)
	s.StoreFinger(5, didN(40))
	got := s.ClosestPrecedingNode(didN(50))
	assert.Equal(t, didN(40), got)
}

func TestReconcileSuccessorsDedupsSkipsSelfAndTruncatesToK(t *testing.T) {
	s := New(didN(0), 0)
	s.Join(didN(10))

	learned := []identifier.Did{didN(20), didN(30), didN(40), didN(0), didN(10)}
	s.ReconcileSuccessors(nil, learned, nil)

	got := s.Successors()
	assert.Len(t, got, K)
	assert.Equal(t, []identifier.Did{didN(10), didN(20), didN(30)}, got)
}

func TestReconcileSuccessorsTruncatesToConstructorSize(t *testing.T) {
	s := New(didN(0), 2)
	s.Join(didN(10))

	learned := []identifier.Did{didN(20), didN(30), didN(40)}
	s.ReconcileSuccessors(nil, learned, nil)

	assert.Len(t, s.Successors(), 2)
	assert.Equal(t, []identifier.Did{didN(10), didN(20)}, s.Successors())
}

func TestNewDefaultsSuccessorListSizeToK(t *testing.T) {
	s := New(didN(0), 0)
	assert.Equal(t, K, s.successorListSize)
}

func TestReconcileSuccessorsDropsDead(t *testing.T) {
	s := New(didN(0), 0)
	s.Join(didN(10))
	dead := map[identifier.Did]bool{didN(10): true}
	s.ReconcileSuccessors(nil, []identifier.Did{didN(20)}, dead)

	got := s.Successors()
	assert.Equal(t, []identifier.Did{didN(20)}, got)
}

func TestResponsibleWithNoPredecessorOwnsWholeRing(t *testing.T) {
	s := New(didN(10), 0)
	assert.True(t, s.Responsible(didN(999)))
}

func TestResponsibleRespectsPredecessorArc(t *testing.T) {
	s := New(didN(10), 0)
	s.Notify(didN(5))
	assert.True(t, s.Responsible(didN(7)))
	assert.False(t, s.Responsible(didN(2)))
}

func TestVirtualNodeStoreAppendFetchMerge(t *testing.T) {
	s := New(didN(10), 0)
	vid := GenDid("topic-a")

	s.StoreAppend(vid, []byte("one"))
	s.StoreAppend(vid, []byte("two"))
	s.Merge(vid, [][]byte{[]byte("three")})

	data, ok := s.Fetch(vid)
	require.True(t, ok)
	assert.Equal(t, [][]byte{[]byte("one"), []byte("two"), []byte("three")}, data)
}

func TestGenDidIsStableAndScopedToName(t *testing.T) {
	assert.Equal(t, GenDid("topic-a"), GenDid("topic-a"))
	assert.NotEqual(t, GenDid("topic-a"), GenDid("topic-b"))
}
