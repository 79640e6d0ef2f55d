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

// Package transport defines the opaque per-peer duplex capability the
// overlay core consumes: a connection-oriented byte pipe with ICE-style
// connection-state observation, standing in for an SCTP-reliable WebRTC
// data channel, rather than a synchronous request/response call.
package transport

import "context"

// IceConnectionState mirrors the subset of WebRTC ICE connection states the
// core observes to react to liveness changes.
type IceConnectionState int

const (
	IceNew IceConnectionState = iota
	IceChecking
	IceConnected
	IceDisconnected
	IceFailed
	IceClosed
)

func (s IceConnectionState) String() string {
	switch s {
	case IceNew:
		return "new"
	case IceChecking:
		return "checking"
	case IceConnected:
		return "connected"
	case IceDisconnected:
		return "disconnected"
	case IceFailed:
		return "failed"
	case IceClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Transport is the capability the swarm's dispatch plane writes encoded
// message.Payload bytes to and reads them back from; the core never knows
// whether the concrete implementation is an in-process pair (transport/mock)
// or a WebSocket-carried data channel (transport/websocket).
type Transport interface {
	// Send transmits bytes to the remote peer.
	Send(ctx context.Context, data []byte) error

	// Recv blocks until the next inbound frame arrives, ctx is cancelled,
	// or the transport closes.
	Recv(ctx context.Context) ([]byte, error)

	// IceConnectionState reports the current connection state.
	IceConnectionState() IceConnectionState

	// IsConnected is a convenience check equivalent to
	// IceConnectionState() == IceConnected.
	IsConnected() bool

	// WaitForDataChannelOpen blocks until the transport reaches IceConnected
	// or ctx is cancelled.
	WaitForDataChannelOpen(ctx context.Context) error

	// Close tears down the transport; subsequent Send/Recv calls fail with
	// ErrTransportClosed.
	Close() error
}
