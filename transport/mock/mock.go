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

// Package mock provides an in-process Transport pair for tests: a
// connected duplex pipe with injectable, mutex-protected captured state.
// Pair wires two Transports whose Sends deliver directly to the peer's
// Recv, without a network in between.
package mock

import (
	"context"
	"sync"

	"github.com/sage-x-project/ringmesh/ringerr"
	"github.com/sage-x-project/ringmesh/transport"
)

// Transport is an in-process duplex endpoint. The zero value is unusable;
// construct via Pair.
type Transport struct {
	mu     sync.Mutex
	state  transport.IceConnectionState
	closed bool

	inbound chan []byte

	// peer is the other endpoint of the pair; Send on this Transport
	// delivers directly to peer.inbound.
	peer *Transport

	// SendHook, if set, is called with every outbound frame before
	// delivery, letting tests observe or corrupt traffic in flight.
	SendHook func(data []byte)
}

// Pair creates two connected Transports, already in the IceConnected state,
// simulating a pair of peers whose WebRTC handshake has already completed.
func Pair() (a, b *Transport) {
	a = &Transport{state: transport.IceConnected, inbound: make(chan []byte, 64)}
	b = &Transport{state: transport.IceConnected, inbound: make(chan []byte, 64)}
	a.peer, b.peer = b, a
	return a, b
}

// Send delivers data to the paired endpoint's inbound queue.
func (t *Transport) Send(ctx context.Context, data []byte) error {
	t.mu.Lock()
	closed := t.closed
	hook := t.SendHook
	peer := t.peer
	t.mu.Unlock()

	if closed {
		return ringerr.ErrTransportClosed
	}
	if hook != nil {
		hook(data)
	}
	if peer == nil {
		return ringerr.ErrTransportClosed
	}

	select {
	case peer.inbound <- data:
		return nil
	case <-ctx.Done():
		return ringerr.ErrCancelled
	}
}

// Recv returns the next frame sent by the peer.
func (t *Transport) Recv(ctx context.Context) ([]byte, error) {
	select {
	case data, ok := <-t.inbound:
		if !ok {
			return nil, ringerr.ErrTransportClosed
		}
		return data, nil
	case <-ctx.Done():
		return nil, ringerr.ErrCancelled
	}
}

// IceConnectionState reports the current simulated ICE state.
func (t *Transport) IceConnectionState() transport.IceConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsConnected reports whether the state is IceConnected.
func (t *Transport) IsConnected() bool {
	return t.IceConnectionState() == transport.IceConnected
}

// WaitForDataChannelOpen returns immediately: Pair already starts connected.
func (t *Transport) WaitForDataChannelOpen(ctx context.Context) error {
	if t.IsConnected() {
		return nil
	}
	return ringerr.ErrIceFailed
}

// Close marks this endpoint closed and closes its inbound queue; the peer
// endpoint's state is not changed.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.state = transport.IceClosed
	close(t.inbound)
	t.mu.Unlock()
	return nil
}

// Fail simulates a connectivity failure, for tests driving the
// stabilizer's dead-successor eviction.
func (t *Transport) Fail() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = transport.IceFailed
}

var _ transport.Transport = (*Transport)(nil)
