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

// Package session implements the delegated session authority: a user's
// long-term identity (the Authorizer) signs a short-lived session key, and
// every outbound message is then signed by that session key instead of the
// long-term one. A Manager holds exactly one session and its key; there is
// no session map, lock or background cleanup, and expiry is checked on
// each VerifySelf call.
package session

import (
	"crypto/ed25519"
	"encoding/json"
	"strconv"

	"github.com/sage-x-project/ringmesh/crypto/signers"
	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/ringerr"
)

// DefaultSessionTTLMs is the default session lifetime, one hour.
const DefaultSessionTTLMs = int64(60 * 60 * 1000)

// AuthorizerScheme names the four supported authorizer signature schemes.
type AuthorizerScheme string

const (
	SchemeSecp256k1 AuthorizerScheme = "secp256k1"
	SchemeEIP191    AuthorizerScheme = "eip191"
	SchemeBIP137    AuthorizerScheme = "bip137"
	SchemeEd25519   AuthorizerScheme = "ed25519"
)

// Authorizer is the closed, tagged variant of long-term identities that may
// delegate a session: Secp256k1(did) | EIP191(did) | BIP137(did) |
// Ed25519(pubkey). Encoded as a small JSON tagged union, the idiom the
// teacher's KeyType discriminator in pkg/agent/crypto/types.go follows for
// its own closed key-type set.
type Authorizer struct {
	Scheme AuthorizerScheme
	Did    identifier.Did    // set for Secp256k1, EIP191, BIP137
	EdPub  ed25519.PublicKey // set for Ed25519
}

type authorizerWire struct {
	Scheme AuthorizerScheme `json:"scheme"`
	Did    string           `json:"did,omitempty"`
	EdPub  string           `json:"edPubKey,omitempty"`
}

// NewSecp256k1Authorizer builds a Secp256k1 authorizer variant.
func NewSecp256k1Authorizer(did identifier.Did) Authorizer {
	return Authorizer{Scheme: SchemeSecp256k1, Did: did}
}

// NewEIP191Authorizer builds an EIP191 authorizer variant.
func NewEIP191Authorizer(did identifier.Did) Authorizer {
	return Authorizer{Scheme: SchemeEIP191, Did: did}
}

// NewBIP137Authorizer builds a BIP137 authorizer variant.
func NewBIP137Authorizer(did identifier.Did) Authorizer {
	return Authorizer{Scheme: SchemeBIP137, Did: did}
}

// NewEd25519Authorizer builds an Ed25519 authorizer variant, keyed by the
// public key itself rather than a derived identifier.
func NewEd25519Authorizer(pub ed25519.PublicKey) Authorizer {
	return Authorizer{Scheme: SchemeEd25519, EdPub: pub}
}

// MarshalJSON implements the exhaustive tagged-union encoding.
func (a Authorizer) MarshalJSON() ([]byte, error) {
	w := authorizerWire{Scheme: a.Scheme}
	switch a.Scheme {
	case SchemeSecp256k1, SchemeEIP191, SchemeBIP137:
		w.Did = a.Did.String()
	case SchemeEd25519:
		w.EdPub = ed25519HexString(a.EdPub)
	default:
		return nil, ringerr.ErrUnknownAuthorizer
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements the exhaustive tagged-union decoding.
func (a *Authorizer) UnmarshalJSON(data []byte) error {
	var w authorizerWire
	if err := json.Unmarshal(data, &w); err != nil {
		return ringerr.ErrDeserialize
	}
	switch w.Scheme {
	case SchemeSecp256k1, SchemeEIP191, SchemeBIP137:
		did, err := identifier.ParseDid(w.Did)
		if err != nil {
			return ringerr.ErrDeserialize
		}
		*a = Authorizer{Scheme: w.Scheme, Did: did}
	case SchemeEd25519:
		pub, err := ed25519FromHexString(w.EdPub)
		if err != nil {
			return ringerr.ErrDeserialize
		}
		*a = Authorizer{Scheme: w.Scheme, EdPub: pub}
	default:
		return ringerr.ErrUnknownAuthorizer
	}
	return nil
}

// AuthorizerPublicKey is the recovered or embedded public key behind an
// Authorizer, used by peers to obtain an encryption key for the authorizer.
type AuthorizerPublicKey struct {
	Scheme AuthorizerScheme
	Secp   *signers.PublicKey
	Ed     ed25519.PublicKey
}

// Session is the immutable delegated-authority tuple: a freshly generated
// session key's identifier, bound to an authorizer for a bounded lifetime
// by a signature over the packed string.
type Session struct {
	SessionID  identifier.Did `json:"sessionId"`
	Authorizer Authorizer     `json:"authorizer"`
	TTLMs      int64          `json:"ttlMs"`
	TSMs       int64          `json:"tsMs"`
	Sig        []byte         `json:"sig"`
}

// PackSession returns the canonical string the authorizer signs:
// "{session_id}\n{ts_ms}\n{ttl_ms}".
func PackSession(sessionID identifier.Did, tsMs, ttlMs int64) string {
	return sessionID.String() + "\n" + strconv.FormatInt(tsMs, 10) + "\n" + strconv.FormatInt(ttlMs, 10)
}
