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

package session

import (
	"crypto/sha256"
	"encoding/json"

	"github.com/mr-tron/base58"

	"github.com/sage-x-project/ringmesh/crypto/signers"
	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/ringerr"
)

// Manager holds a Session and the private key that backs its session_id, so
// it can sign outbound payloads on the authorizer's behalf. Apart from the
// Builder that generates the session's private key, it is the only place in
// this package that touches it.
type Manager struct {
	session   Session
	sessionSk *signers.SecretKey
}

// NewManagerWithSecretKey builds a self-authorized Manager directly from a
// secp256k1 key, skipping the Builder/external-signature dance. Intended for
// tests and for a node's own loopback session.
func NewManagerWithSecretKey(authoritySk *signers.SecretKey, tsMs int64) (*Manager, error) {
	b, err := NewBuilder(NewSecp256k1Authorizer(authoritySk.PublicKey().Address()), tsMs, DefaultSessionTTLMs)
	if err != nil {
		return nil, err
	}
	sig, err := signers.Secp256k1Raw.Sign([]byte(b.PackSession()), authoritySk)
	if err != nil {
		return nil, err
	}
	b.SetSig(sig)
	return b.Build()
}

// Session returns a copy of the held session, safe for attaching to outbound
// message payloads.
func (m *Manager) Session() Session {
	return m.session
}

// AuthorizerDid returns the authorizer's identifier: the declared Did for
// the three secp256k1-rooted schemes, or the Ed25519 key's own derived
// identifier.
func (m *Manager) AuthorizerDid() identifier.Did {
	if m.session.Authorizer.Scheme == SchemeEd25519 {
		return signers.DidFromPublicKey(m.session.Authorizer.EdPub)
	}
	return m.session.Authorizer.Did
}

// Sign signs msg with the session's delegated private key, always via the
// secp256k1-raw scheme regardless of the authorizer's own scheme.
func (m *Manager) Sign(msg []byte) ([]byte, error) {
	return signers.Secp256k1Raw.Sign(msg, m.sessionSk)
}

// sessionManagerWire is the JSON shape persisted by Dump/restored by FromStr;
// the private key must round-trip so a restored Manager can keep signing.
type sessionManagerWire struct {
	Session   Session `json:"session"`
	SessionSk []byte  `json:"sessionSecretKey"`
}

// Dump serializes the Manager to JSON and wraps it in Base58Check, so it can
// be stored in a config file and later restored with FromStr.
// github.com/mr-tron/base58 only offers plain base58, so the checksum
// wrapper below (4-byte double-SHA256, the same construction Bitcoin's
// Base58Check uses) is added alongside it.
func (m *Manager) Dump() (string, error) {
	w := sessionManagerWire{Session: m.session, SessionSk: m.sessionSk.Bytes()}
	raw, err := json.Marshal(w)
	if err != nil {
		return "", ringerr.ErrEncode
	}
	return base58.Encode(checkAppend(raw)), nil
}

// FromStr restores a Manager previously produced by Dump.
func FromStr(s string) (*Manager, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return nil, ringerr.ErrDecode
	}
	raw, err := checkStrip(decoded)
	if err != nil {
		return nil, ringerr.ErrDecode
	}
	var w sessionManagerWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, ringerr.ErrDeserialize
	}
	sk, err := signers.SecretKeyFromBytes(w.SessionSk)
	if err != nil {
		return nil, ringerr.ErrDeserialize
	}
	return &Manager{session: w.Session, sessionSk: sk}, nil
}

func checkAppend(data []byte) []byte {
	sum1 := sha256.Sum256(data)
	sum2 := sha256.Sum256(sum1[:])
	return append(append([]byte{}, data...), sum2[:4]...)
}

func checkStrip(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, ringerr.ErrDecode
	}
	body, checksum := data[:len(data)-4], data[len(data)-4:]
	sum1 := sha256.Sum256(body)
	sum2 := sha256.Sum256(sum1[:])
	if string(sum2[:4]) != string(checksum) {
		return nil, ringerr.ErrDecode
	}
	return body, nil
}
