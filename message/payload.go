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

package message

import (
	"crypto/rand"

	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/ringerr"
	"github.com/sage-x-project/ringmesh/session"
)

// TxID is the 32-byte random transaction identifier stamped on every
// payload at construction and left unchanged as it relays.
type TxID [32]byte

// NewTxID generates a fresh random transaction identifier. Exported so
// callers that correlate request/reply pairs outside a Payload — the
// control plane (C5/C8) — can mint identifiers using the same scheme.
func NewTxID() (TxID, error) {
	var id TxID
	if _, err := rand.Read(id[:]); err != nil {
		return TxID{}, err
	}
	return id, nil
}

// Relay is the mutable part of a payload: the path of Dids it has already
// traversed and the next hop a forwarder should write to.
type Relay struct {
	Path    []identifier.Did `json:"path"`
	NextHop identifier.Did   `json:"nextHop"`
}

// Payload is the routed envelope carried over a Transport. Created once by
// the origin with a fresh TxID, it is mutated only by appending to
// Relay.Path and updating Relay.NextHop as it forwards — the body and
// Verification never change after construction.
type Payload struct {
	TxID        TxID         `json:"txId"`
	MessageType string       `json:"messageType"`
	OriginDid   identifier.Did `json:"originDid"`
	DestDid     identifier.Did `json:"destinationDid"`
	Relay       Relay        `json:"relay"`
	Verify      Verification `json:"verification"`
	Body        []byte       `json:"-"`
}

// New constructs a fresh Payload, signing body with the local session.
// msgType names the application-level body schema (e.g. "handshake.offer",
// "chord.control.notify"); body must already be in its canonical
// encoded form, since re-marshaling it would invalidate the signature.
func New(sm *session.Manager, msgType string, origin, destination identifier.Did, body []byte, nowMs, ttlMs int64) (*Payload, error) {
	txID, err := NewTxID()
	if err != nil {
		return nil, err
	}
	verification, err := NewVerification(sm, body, nowMs, ttlMs)
	if err != nil {
		return nil, err
	}
	return &Payload{
		TxID:        txID,
		MessageType: msgType,
		OriginDid:   origin,
		DestDid:     destination,
		Relay:       Relay{NextHop: destination},
		Verify:      verification,
		Body:        body,
	}, nil
}

// VerifyOrigin checks the envelope's cryptographic and identity invariants:
// the body must verify under the attached Verification, and the declared
// origin must equal the session's own identifier.
func (p *Payload) VerifyOrigin() error {
	if !p.Verify.Verify(p.Body) {
		return ringerr.ErrVerifySignatureFailed
	}
	if p.OriginDid != p.Verify.Session.SessionID {
		return ringerr.ErrVerifyOriginMismatch
	}
	return nil
}

// AppendRelayHop records that did has forwarded this payload, for the
// bounded relay-loop check performed by the dispatch loop.
func (p *Payload) AppendRelayHop(did identifier.Did) {
	p.Relay.Path = append(p.Relay.Path, did)
}
