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

package swarm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/ringmesh/chord"
	"github.com/sage-x-project/ringmesh/crypto/signers"
	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/message"
	"github.com/sage-x-project/ringmesh/session"
	"github.com/sage-x-project/ringmesh/transport/mock"
)

// node bundles everything needed to stand up a Swarm in a test, using real
// collaborators (a live session, a live chord.State) rather than mocking
// the domain types.
type node struct {
	did   identifier.Did
	swarm *Swarm
}

func newNode(t *testing.T) *node {
	t.Helper()
	sk, err := signers.GenerateSecretKey()
	require.NoError(t, err)
	sm, err := session.NewManagerWithSecretKey(sk, time.Now().UnixMilli())
	require.NoError(t, err)

	did := sm.Session().SessionID
	s := New(did, sm, chord.New(did, 0))
	return &node{did: did, swarm: s}
}

// connect wires a and b together over a mock.Pair and starts both Listen
// loops, returning a cancel func that stops them.
func connect(t *testing.T, a, b *node) context.CancelFunc {
	t.Helper()
	ta, tb := mock.Pair()

	a.swarm.Registry.Put(b.did, ta)
	b.swarm.Registry.Put(a.did, tb)

	ctx, cancel := context.WithCancel(context.Background())
	go a.swarm.Listen(ctx, b.did, ta)
	go b.swarm.Listen(ctx, a.did, tb)
	return cancel
}

func TestSendDeliversToDirectSuccessor(t *testing.T) {
	a, b := newNode(t), newNode(t)
	a.swarm.Chord.Join(b.did)
	b.swarm.Chord.Join(a.did)
	cancel := connect(t, a, b)
	defer cancel()

	received := make(chan []byte, 1)
	b.swarm.Callbacks.Register("ping", func(origin identifier.Did, body []byte) ([]Event, error) {
		received <- body
		return nil, nil
	})

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	require.NoError(t, a.swarm.Send(ctx, b.did, "ping", []byte("hello"), session.DefaultSessionTTLMs))

	select {
	case body := <-received:
		assert.Equal(t, []byte("hello"), body)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestSendToUnregisteredDestinationFails(t *testing.T) {
	a := newNode(t)
	stray := identifier.FromBytes([]byte("nowhere"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := a.swarm.Send(ctx, stray, "ping", []byte("x"), session.DefaultSessionTTLMs)
	assert.Error(t, err)
}

func TestRelayForwardsToFinalDestination(t *testing.T) {
	x, y, z := newNode(t), newNode(t), newNode(t)

	// Order the three random identifiers into a consistent clockwise
	// sequence a -> b -> c starting from x, so b provably lies on the arc
	// between a and c (identifier.Between(a,b,c) holds by construction).
	a := x
	b, c := y, z
	if identifier.Distance(a.did, z.did).Cmp(identifier.Distance(a.did, y.did)) < 0 {
		b, c = z, y
	}

	// a only knows b; b knows c. a's FindSuccessor for c's did must resolve
	// to b as a remote hop (not locally), since b sits between a and c.
	a.swarm.Chord.Join(b.did)
	b.swarm.Chord.Join(c.did)
	c.swarm.Chord.Join(a.did)

	cancelAB := connect(t, a, b)
	defer cancelAB()
	cancelBC := connect(t, b, c)
	defer cancelBC()

	received := make(chan []byte, 1)
	c.swarm.Callbacks.Register("ping", func(origin identifier.Did, body []byte) ([]Event, error) {
		received <- body
		return nil, nil
	})

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	require.NoError(t, a.swarm.Send(ctx, c.did, "ping", []byte("via-b"), session.DefaultSessionTTLMs))

	select {
	case body := <-received:
		assert.Equal(t, []byte("via-b"), body)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for relayed delivery")
	}
}

func TestRelayLoopBoundRejectsOverlongPath(t *testing.T) {
	n := newNode(t)
	s := n.swarm
	s.EstimatedNetworkSize = MinEstimatedNetworkSize

	dest := identifier.FromBytes([]byte("far-away"))
	p, err := message.New(s.Session, "ping", s.Did, dest, []byte("x"), s.nowMs(), session.DefaultSessionTTLMs)
	require.NoError(t, err)

	for i := 0; i < s.maxRelayHops()+1; i++ {
		p.AppendRelayHop(identifier.FromBytes([]byte{byte(i)}))
	}

	err = s.relay(context.Background(), p)
	assert.Error(t, err)
}

func TestApplyEventsSendReplyKeepsTransportRegistered(t *testing.T) {
	a, b := newNode(t), newNode(t)
	a.swarm.Chord.Join(b.did)
	b.swarm.Chord.Join(a.did)
	cancel := connect(t, a, b)
	defer cancel()

	replied := make(chan []byte, 1)
	a.swarm.Callbacks.Register("pong", func(origin identifier.Did, body []byte) ([]Event, error) {
		replied <- body
		return nil, nil
	})
	b.swarm.Callbacks.Register("ping", func(origin identifier.Did, body []byte) ([]Event, error) {
		return []Event{{Type: EventSendReply, Destination: origin, MessageType: "pong", Body: []byte("pong-body")}}, nil
	})

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	require.NoError(t, a.swarm.Send(ctx, b.did, "ping", []byte("ping-body"), session.DefaultSessionTTLMs))

	select {
	case body := <-replied:
		assert.Equal(t, []byte("pong-body"), body)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reply event")
	}

	_, ok := a.swarm.Registry.Get(b.did)
	require.True(t, ok)
}
