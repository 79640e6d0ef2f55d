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

// Package signers implements the four authorizer signature schemes the
// session authority delegates to: raw secp256k1, EIP-191, BIP-137, and
// Ed25519. Each scheme exposes Sign/Verify and, where recovery is possible,
// Recover.
package signers

import (
	"crypto/ecdsa"
	"time"

	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/internal/metrics"
	"github.com/sage-x-project/ringmesh/ringerr"
)

// recordCryptoOp is the shared instrumentation point for every scheme's
// Sign/Verify/Recover: it times the call, counts it under operation and
// algorithm, and counts a failure when ok is false.
func recordCryptoOp(operation, algorithm string, start time.Time, ok bool) {
	metrics.CryptoOperationDuration.WithLabelValues(operation, algorithm).Observe(time.Since(start).Seconds())
	metrics.CryptoOperations.WithLabelValues(operation, algorithm).Inc()
	if !ok {
		metrics.CryptoErrors.WithLabelValues(operation).Inc()
	}
}

// SecretKey wraps a secp256k1 private key used by the three
// Ethereum/Bitcoin-style schemes (raw, EIP-191, BIP-137).
type SecretKey struct {
	priv *secp256k1.PrivateKey
}

// PublicKey wraps a secp256k1 public key.
type PublicKey struct {
	pub *secp256k1.PublicKey
}

// GenerateSecretKey creates a fresh random secp256k1 key.
func GenerateSecretKey() (*SecretKey, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &SecretKey{priv: priv}, nil
}

// PublicKey returns the associated public key.
func (sk *SecretKey) PublicKey() *PublicKey {
	return &PublicKey{pub: sk.priv.PubKey()}
}

// ToECDSA exposes the stdlib representation for libraries (go-ethereum's
// crypto package) that expect it.
func (sk *SecretKey) ToECDSA() *ecdsa.PrivateKey {
	return sk.priv.ToECDSA()
}

// Bytes returns the raw 32-byte scalar, for persistence (session dumps).
func (sk *SecretKey) Bytes() []byte {
	return sk.priv.Serialize()
}

// SecretKeyFromBytes reconstructs a secret key from its raw 32-byte scalar.
func SecretKeyFromBytes(b []byte) (*SecretKey, error) {
	if len(b) != 32 {
		return nil, ringerr.ErrDeserialize
	}
	priv := secp256k1.PrivKeyFromBytes(b)
	return &SecretKey{priv: priv}, nil
}

// ToECDSA exposes the stdlib representation of the public key.
func (pk *PublicKey) ToECDSA() *ecdsa.PublicKey {
	return pk.pub.ToECDSA()
}

// Address derives the 160-bit identifier for this public key: the low 20
// bytes of Keccak-256 over the uncompressed key with its 0x04 prefix
// stripped — exactly go-ethereum's address derivation, reused directly
// rather than hand-rolled.
func (pk *PublicKey) Address() identifier.Did {
	addr := ethcrypto.PubkeyToAddress(*pk.ToECDSA())
	return identifier.FromBytes(addr.Bytes())
}

// signRecoverable signs a 32-byte digest and returns the 65-byte
// (r || s || v) signature with v in {0,1}, via go-ethereum's libsecp256k1
// binding.
func signRecoverable(hash []byte, sk *SecretKey) ([]byte, error) {
	sig, err := ethcrypto.Sign(hash, sk.ToECDSA())
	if err != nil {
		return nil, ringerr.ErrBadSignature
	}
	return sig, nil
}

// recoverPubkey recovers the public key from a 32-byte digest and a 65-byte
// (r || s || v) signature with v in {0,1}.
func recoverPubkey(hash, sig []byte) (*PublicKey, error) {
	if len(sig) != 65 {
		return nil, ringerr.ErrBadSignature
	}
	ecdsaPub, err := ethcrypto.SigToPub(hash, sig)
	if err != nil {
		return nil, ringerr.ErrBadRecoveryID
	}
	pub, err := secp256k1.ParsePubKey(ethcrypto.FromECDSAPub(ecdsaPub))
	if err != nil {
		return nil, ringerr.ErrCurve
	}
	return &PublicKey{pub: pub}, nil
}

func verifyRecoverable(hash, sig []byte, address identifier.Did) bool {
	pk, err := recoverPubkey(hash, sig)
	if err != nil {
		return false
	}
	return pk.Address() == address
}
