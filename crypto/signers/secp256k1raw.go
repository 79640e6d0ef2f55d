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
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/sage-x-project/ringmesh/identifier"
)

// Secp256k1Raw signs the Keccak-256 digest of the message directly (no
// prefix), producing a 65-byte (r || s || v) recoverable signature.
var Secp256k1Raw secp256k1RawScheme

type secp256k1RawScheme struct{}

// Sign signs msg under sk, grounded on
// pkg/agent/crypto/keys/secp256k1.go's Ethereum-compatible Sign.
func (secp256k1RawScheme) Sign(msg []byte, sk *SecretKey) ([]byte, error) {
	start := time.Now()
	hash := ethcrypto.Keccak256(msg)
	sig, err := signRecoverable(hash, sk)
	recordCryptoOp("sign", "secp256k1raw", start, err == nil)
	return sig, err
}

// Verify reports whether sig was produced by the key whose address is addr.
func (secp256k1RawScheme) Verify(msg []byte, addr identifier.Did, sig []byte) bool {
	start := time.Now()
	hash := ethcrypto.Keccak256(msg)
	ok := verifyRecoverable(hash, sig, addr)
	recordCryptoOp("verify", "secp256k1raw", start, ok)
	return ok
}

// Recover recovers the signer's public key from msg and sig.
func (secp256k1RawScheme) Recover(msg []byte, sig []byte) (*PublicKey, error) {
	start := time.Now()
	hash := ethcrypto.Keccak256(msg)
	pk, err := recoverPubkey(hash, sig)
	recordCryptoOp("recover", "secp256k1raw", start, err == nil)
	return pk, err
}
