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

package signers

import (
	"crypto/ed25519"
	"crypto/sha256"
	"time"

	"github.com/sage-x-project/ringmesh/identifier"
)

// Ed25519 verifies with the standard RFC 8032 algorithm; no key recovery is
// possible, so the caller must already hold the public key — grounded
// verbatim on crypto/keys/ed25519.go's stdlib wrapper.
var Ed25519 ed25519Scheme

type ed25519Scheme struct{}

// Sign signs msg under the raw 64-byte Ed25519 private key.
func (ed25519Scheme) Sign(msg []byte, sk ed25519.PrivateKey) []byte {
	start := time.Now()
	sig := ed25519.Sign(sk, msg)
	recordCryptoOp("sign", "ed25519", start, true)
	return sig
}

// Verify reports whether sig is a valid Ed25519 signature over msg by pub.
func (ed25519Scheme) Verify(msg []byte, pub ed25519.PublicKey, sig []byte) bool {
	start := time.Now()
	ok := ed25519.Verify(pub, msg, sig)
	recordCryptoOp("verify", "ed25519", start, ok)
	return ok
}

// DidFromPublicKey derives the identifier for an Ed25519 authorizer: the low
// 20 bytes of SHA-256 over the raw 32-byte public key. Deliberately a
// different hash function than the Keccak-256 used by the three
// secp256k1-rooted schemes, so a collision across authorizer types would
// require breaking two distinct hash functions, not one.
func DidFromPublicKey(pub ed25519.PublicKey) identifier.Did {
	h := sha256.Sum256(pub)
	return identifier.FromBytes(h[:])
}
