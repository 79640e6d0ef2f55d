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

// Package websocket carries framed message.Payload bytes over a Gorilla
// WebSocket connection, standing in for a reliable WebRTC data channel:
// configurable timeouts, upgrader configuration, and a background read
// pump writing into a channel, generalized from a request/response
// exchange to the duplex raw-frame Transport capability.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/sage-x-project/ringmesh/internal/logger"
	"github.com/sage-x-project/ringmesh/ringerr"
	"github.com/sage-x-project/ringmesh/transport"
)

// Transport wraps a single *gorilla.Conn as a transport.Transport: a
// background read pump decodes inbound binary frames into a channel, and
// Send writes outbound frames directly (serialized by writeMu, since
// gorilla's Conn forbids concurrent writers).
type Transport struct {
	conn *gorilla.Conn

	readTimeout  time.Duration
	writeTimeout time.Duration

	mu    sync.Mutex
	state transport.IceConnectionState

	writeMu sync.Mutex
	inbound chan []byte
	closed  chan struct{}
}

// wrap starts the read pump over an already-established *gorilla.Conn and
// returns a ready-to-use Transport in the IceConnected state.
func wrap(conn *gorilla.Conn, readTimeout, writeTimeout time.Duration) *Transport {
	t := &Transport{
		conn:         conn,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		state:        transport.IceConnected,
		inbound:      make(chan []byte, 64),
		closed:       make(chan struct{}),
	}
	go t.readPump()
	return t
}

func (t *Transport) readPump() {
	defer close(t.inbound)
	for {
		if t.readTimeout > 0 {
			if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
				t.fail()
				return
			}
		}
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			if !gorilla.IsCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure) {
				logger.Warn("websocket transport: read failed", logger.Error(err))
			}
			t.fail()
			return
		}
		select {
		case t.inbound <- data:
		case <-t.closed:
			return
		}
	}
}

func (t *Transport) fail() {
	t.mu.Lock()
	if t.state != transport.IceClosed {
		t.state = transport.IceFailed
	}
	t.mu.Unlock()
}

// Send writes data as a single binary WebSocket frame.
func (t *Transport) Send(ctx context.Context, data []byte) error {
	if !t.IsConnected() {
		return ringerr.ErrTransportClosed
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.writeTimeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
			return err
		}
	}
	if err := t.conn.WriteMessage(gorilla.BinaryMessage, data); err != nil {
		t.fail()
		return ringerr.ErrTransportClosed
	}
	return nil
}

// Recv returns the next inbound binary frame.
func (t *Transport) Recv(ctx context.Context) ([]byte, error) {
	select {
	case data, ok := <-t.inbound:
		if !ok {
			return nil, ringerr.ErrTransportClosed
		}
		return data, nil
	case <-ctx.Done():
		return nil, ringerr.ErrCancelled
	case <-t.closed:
		return nil, ringerr.ErrTransportClosed
	}
}

// IceConnectionState reports the connection's current state.
func (t *Transport) IceConnectionState() transport.IceConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsConnected reports whether the state is IceConnected.
func (t *Transport) IsConnected() bool {
	return t.IceConnectionState() == transport.IceConnected
}

// WaitForDataChannelOpen polls until the connection is established or ctx
// is cancelled; the WebSocket handshake has already completed by the time
// wrap() runs, so this returns immediately in practice.
func (t *Transport) WaitForDataChannelOpen(ctx context.Context) error {
	if t.IsConnected() {
		return nil
	}
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ringerr.ErrTimeout
		case <-ticker.C:
			if t.IsConnected() {
				return nil
			}
			if t.IceConnectionState() == transport.IceFailed {
				return ringerr.ErrIceFailed
			}
		}
	}
}

// Close closes the underlying connection.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.state == transport.IceClosed {
		t.mu.Unlock()
		return nil
	}
	t.state = transport.IceClosed
	t.mu.Unlock()

	close(t.closed)
	return t.conn.Close()
}

var _ transport.Transport = (*Transport)(nil)

// DialTimeout is the default WebSocket handshake timeout.
const DialTimeout = 30 * time.Second

// Dial connects to a remote ringmesh node's WebSocket endpoint and returns
// a ready Transport, grounded on WSTransport.Connect.
func Dial(ctx context.Context, url string, readTimeout, writeTimeout time.Duration) (*Transport, error) {
	dialer := &gorilla.Dialer{HandshakeTimeout: DialTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return wrap(conn, readTimeout, writeTimeout), nil
}

// Upgrader upgrades an inbound HTTP connection to a WebSocket-backed
// Transport, handed to Accepted for every successful upgrade. Grounded on
// WSServer's upgrader configuration, generalized from a single
// request-handling loop to handing back a raw Transport for the swarm
// registry to adopt.
type Upgrader struct {
	upgrader gorilla.Upgrader

	readTimeout  time.Duration
	writeTimeout time.Duration

	// Accepted is invoked once per successfully upgraded connection.
	Accepted func(t *Transport)
}

// NewUpgrader builds an Upgrader accepting any origin (a reverse proxy or
// caller is expected to restrict this in production), matching the
// teacher's CheckOrigin TODO made explicit here rather than silently
// inherited.
func NewUpgrader(readTimeout, writeTimeout time.Duration, accepted func(t *Transport)) *Upgrader {
	return &Upgrader{
		upgrader: gorilla.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		Accepted:     accepted,
	}
}

// Handler returns an http.Handler that upgrades the connection and hands
// the resulting Transport to Accepted.
func (u *Upgrader) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := u.upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
			return
		}
		t := wrap(conn, u.readTimeout, u.writeTimeout)
		if u.Accepted != nil {
			u.Accepted(t)
		}
	})
}
