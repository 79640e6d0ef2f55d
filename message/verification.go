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

// Package message implements the routed-payload envelope: framing,
// origin-signature verification and relay metadata, expressed with a
// JSON-tagged-struct idiom.
package message

import (
	"strconv"

	"github.com/sage-x-project/ringmesh/crypto/signers"
	"github.com/sage-x-project/ringmesh/session"
)

// Verification is attached to every routed payload and proves that the
// carried body was authorized by a live session.
type Verification struct {
	Session session.Session `json:"session"`
	TTLMs   int64           `json:"ttlMs"`
	TSMs    int64           `json:"tsMs"`
	Sig     []byte          `json:"sig"`
}

// packMsg returns the exact bytes the session key signs: the opaque body
// bytes, followed by the timestamp and TTL on their own lines. The body is
// never re-marshaled here — it is already the canonical bytes produced once
// at construction, so signing stays byte-stable no matter how many times a
// relay re-parses the header around it.
func packMsg(body []byte, tsMs, ttlMs int64) []byte {
	out := make([]byte, 0, len(body)+32)
	out = append(out, body...)
	out = append(out, '\n')
	out = append(out, strconv.FormatInt(tsMs, 10)...)
	out = append(out, '\n')
	out = append(out, strconv.FormatInt(ttlMs, 10)...)
	return out
}

// NewVerification signs body with sm's session key and stamps the given
// timestamp/TTL, producing the envelope a MessagePayload carries.
func NewVerification(sm *session.Manager, body []byte, tsMs, ttlMs int64) (Verification, error) {
	sig, err := sm.Sign(packMsg(body, tsMs, ttlMs))
	if err != nil {
		return Verification{}, err
	}
	return Verification{Session: sm.Session(), TTLMs: ttlMs, TSMs: tsMs, Sig: sig}, nil
}

// Verify reports whether sig authenticates body under this envelope: the
// session must self-verify and the signature must recover to its session_id.
func (v Verification) Verify(body []byte) bool {
	return v.Session.Verify(packMsg(body, v.TSMs, v.TTLMs), v.Sig) == nil
}

// SessionPubkey recovers the session key's public key from the signature
// over body, for callers that need it without re-deriving from the session.
func (v Verification) SessionPubkey(body []byte) (*signers.PublicKey, error) {
	return signers.Secp256k1Raw.Recover(packMsg(body, v.TSMs, v.TTLMs), v.Sig)
}
