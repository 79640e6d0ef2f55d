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
	"github.com/sage-x-project/ringmesh/identifier"
)

// EventType names the follow-up action a MessageHandlerEvent requests from
// the dispatcher.
type EventType int

const (
	// EventSendReply asks the dispatcher to send Body to Destination under
	// MessageType, signed by the local session.
	EventSendReply EventType = iota
	// EventUpdateDHT asks the dispatcher to fold Destination into the chord
	// state as a notify candidate.
	EventUpdateDHT
	// EventCloseTransport asks the dispatcher to close and deregister the
	// Transport registered for Destination.
	EventCloseTransport
)

// Event describes one follow-up action a Handler wants the dispatcher to
// take after processing an inbound payload. The dispatcher applies a
// Handler's events strictly in the order returned.
type Event struct {
	Type        EventType
	Destination identifier.Did
	MessageType string
	Body        []byte
}

// Handler processes a payload's body once it is known to be addressed to
// this node, returning zero or more follow-up Events. Custom application
// callbacks and built-in control-message callbacks are both ordinary
// Handlers, distinguished only by the MessageType key they're registered
// under.
type Handler func(origin identifier.Did, body []byte) ([]Event, error)

// Callbacks is a registry of Handlers keyed by message type, kept
// separately from the transport Registry since handler registration is a
// local, application-level concern rather than a network announcement. It
// has no lock of its own.
type Callbacks struct {
	handlers map[string]Handler
}

// NewCallbacks creates an empty callback registry.
func NewCallbacks() *Callbacks {
	return &Callbacks{handlers: make(map[string]Handler)}
}

// Register installs handler for msgType, replacing any existing one.
func (c *Callbacks) Register(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

// Lookup returns the handler registered for msgType, if any.
func (c *Callbacks) Lookup(msgType string) (Handler, bool) {
	h, ok := c.handlers[msgType]
	return h, ok
}
