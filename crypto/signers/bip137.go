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
	"crypto/sha256"
	"time"

	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/ringerr"
)

// BIP137 implements Bitcoin's "signmessage" convention:
// <https://github.com/bitcoin/bips/blob/master/bip-0137.mediawiki>. The
// varint/double-SHA256 digest follows the BIP's reference construction,
// while recovery reuses the same go-ethereum primitive secp256k1raw.go
// already depends on rather than re-deriving curve math.
var BIP137 bip137Scheme

type bip137Scheme struct{}

// varint encodes n following Bitcoin's CompactSize rule.
func varint(n uint64) []byte {
	switch {
	case n < 253:
		return []byte{byte(n)}
	case n < 1<<16:
		return []byte{0xfd, byte(n), byte(n >> 8)}
	case n < 1<<32:
		return []byte{0xfe, byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
	default:
		buf := make([]byte, 9)
		buf[0] = 0xff
		for i := 0; i < 8; i++ {
			buf[1+i] = byte(n >> (8 * i))
		}
		return buf
	}
}

// magicHash is SHA-256(SHA-256(varint(len(magic)) || magic || varint(len(msg)) || msg)).
func magicHash(msg string) [32]byte {
	const magic = "Bitcoin Signed Message:\n"
	msgBytes := []byte(msg)

	buf := make([]byte, 0, len(magic)+len(msgBytes)+18)
	buf = append(buf, varint(uint64(len(magic)))...)
	buf = append(buf, magic...)
	buf = append(buf, varint(uint64(len(msgBytes)))...)
	buf = append(buf, msgBytes...)

	first := sha256.Sum256(buf)
	return sha256.Sum256(first[:])
}

// Sign signs msg under sk, emitting the Bitcoin 65-byte (v || r || s) layout
// with v in [27, 28] (uncompressed-key range).
func (bip137Scheme) Sign(msg string, sk *SecretKey) ([]byte, error) {
	start := time.Now()
	hash := magicHash(msg)
	rsv, err := signRecoverable(hash[:], sk)
	if err != nil {
		recordCryptoOp("sign", "bip137", start, false)
		return nil, err
	}
	out := make([]byte, 65)
	out[0] = rsv[64] + 27
	copy(out[1:], rsv[:64])
	recordCryptoOp("sign", "bip137", start, true)
	return out, nil
}

// Verify reports whether sig, in the 65-byte (v || r || s) layout with v in
// [27, 34], recovers to the address addr.
func (bip137Scheme) Verify(msg string, addr identifier.Did, sig []byte) bool {
	start := time.Now()
	pk, err := bip137Scheme{}.Recover(msg, sig)
	ok := err == nil && pk.Address() == addr
	recordCryptoOp("verify", "bip137", start, ok)
	return ok
}

// Recover recovers the public key from msg and its BIP-137 signature.
// Header bytes beyond the uncompressed-key range (31-34, the
// compressed/P2SH variants) are normalized by the same single
// "subtract 27" rather than being fully decoded — compatibility with
// those address types is left undefined.
func (bip137Scheme) Recover(msg string, sig []byte) (*PublicKey, error) {
	if len(sig) != 65 {
		return nil, ringerr.ErrBadSignature
	}
	// rotate (v || r || s) left by one byte to (r || s || v)
	rotated := make([]byte, 65)
	copy(rotated, sig[1:])
	rotated[64] = sig[0]
	rotated[64] -= 27

	hash := magicHash(msg)
	return recoverPubkey(hash[:], rotated)
}
