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
	"strconv"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/sage-x-project/ringmesh/identifier"
)

const eip191Prefix = "\x19Ethereum Signed Message:\n"

// EIP191 is <https://eips.ethereum.org/EIPS/eip-191> personal-sign: the
// message is Keccak-256'd after being wrapped with the Ethereum prefix and
// its decimal byte length, grounded on the same personal-sign convention
// did/ethereum/client.go uses for on-chain authentication messages.
var EIP191 eip191Scheme

type eip191Scheme struct{}

func eip191Hash(msg []byte) []byte {
	prefixed := append([]byte(eip191Prefix+strconv.Itoa(len(msg))), msg...)
	return ethcrypto.Keccak256(prefixed)
}

// Sign signs msg under sk after EIP-191 wrapping.
func (eip191Scheme) Sign(msg []byte, sk *SecretKey) ([]byte, error) {
	start := time.Now()
	sig, err := signRecoverable(eip191Hash(msg), sk)
	recordCryptoOp("sign", "eip191", start, err == nil)
	return sig, err
}

// Verify reports whether sig recovers to addr.
func (eip191Scheme) Verify(msg []byte, addr identifier.Did, sig []byte) bool {
	start := time.Now()
	ok := verifyRecoverable(eip191Hash(msg), sig, addr)
	recordCryptoOp("verify", "eip191", start, ok)
	return ok
}

// Recover recovers the signer's public key from msg and sig.
func (eip191Scheme) Recover(msg []byte, sig []byte) (*PublicKey, error) {
	start := time.Now()
	pk, err := recoverPubkey(eip191Hash(msg), sig)
	recordCryptoOp("recover", "eip191", start, err == nil)
	return pk, err
}
