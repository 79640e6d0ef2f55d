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
	"time"

	"github.com/sage-x-project/ringmesh/crypto/signers"
	"github.com/sage-x-project/ringmesh/internal/metrics"
	"github.com/sage-x-project/ringmesh/ringerr"
)

// nowMs is a var so tests can fake clock skew without sleeping.
var nowMs = func() int64 { return time.Now().UnixMilli() }

// VerifySelf checks the session's own validity: the TTL hasn't elapsed and
// the signature recovers the authorizer's key.
func (s Session) VerifySelf() error {
	start := time.Now()
	defer func() {
		metrics.SessionDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds())
	}()

	if nowMs() > s.TSMs+s.TTLMs {
		metrics.SessionsExpired.Inc()
		return ringerr.ErrSessionExpired
	}

	packed := []byte(PackSession(s.SessionID, s.TSMs, s.TTLMs))

	switch s.Authorizer.Scheme {
	case SchemeSecp256k1:
		if !signers.Secp256k1Raw.Verify(packed, s.Authorizer.Did, s.Sig) {
			return ringerr.ErrVerifySignatureFailed
		}
	case SchemeEIP191:
		if !signers.EIP191.Verify(packed, s.Authorizer.Did, s.Sig) {
			return ringerr.ErrVerifySignatureFailed
		}
	case SchemeBIP137:
		if !signers.BIP137.Verify(string(packed), s.Authorizer.Did, s.Sig) {
			return ringerr.ErrVerifySignatureFailed
		}
	case SchemeEd25519:
		if !signers.Ed25519.Verify(packed, s.Authorizer.EdPub, s.Sig) {
			return ringerr.ErrVerifySignatureFailed
		}
	default:
		return ringerr.ErrUnknownAuthorizer
	}
	return nil
}

// Verify authenticates an application payload: it re-runs VerifySelf and
// then checks that sig is a valid secp256k1-raw signature by the *session
// key* (not the authorizer) — the session_id is always the address of a
// freshly generated secp256k1 key regardless of which scheme authorized it.
func (s Session) Verify(msg, sig []byte) error {
	if err := s.VerifySelf(); err != nil {
		return err
	}
	if !signers.Secp256k1Raw.Verify(msg, s.SessionID, sig) {
		return ringerr.ErrVerifySignatureFailed
	}
	return nil
}

// AuthorizerPubkey returns the authorizer's public key: recovered from Sig
// for the three recoverable schemes, or the embedded key for Ed25519. Peers
// use this to obtain an encryption key for the authorizer.
func (s Session) AuthorizerPubkey() (AuthorizerPublicKey, error) {
	packed := []byte(PackSession(s.SessionID, s.TSMs, s.TTLMs))

	switch s.Authorizer.Scheme {
	case SchemeSecp256k1:
		pk, err := signers.Secp256k1Raw.Recover(packed, s.Sig)
		if err != nil {
			return AuthorizerPublicKey{}, err
		}
		return AuthorizerPublicKey{Scheme: s.Authorizer.Scheme, Secp: pk}, nil
	case SchemeEIP191:
		pk, err := signers.EIP191.Recover(packed, s.Sig)
		if err != nil {
			return AuthorizerPublicKey{}, err
		}
		return AuthorizerPublicKey{Scheme: s.Authorizer.Scheme, Secp: pk}, nil
	case SchemeBIP137:
		pk, err := signers.BIP137.Recover(string(packed), s.Sig)
		if err != nil {
			return AuthorizerPublicKey{}, err
		}
		return AuthorizerPublicKey{Scheme: s.Authorizer.Scheme, Secp: pk}, nil
	case SchemeEd25519:
		return AuthorizerPublicKey{Scheme: s.Authorizer.Scheme, Ed: s.Authorizer.EdPub}, nil
	default:
		return AuthorizerPublicKey{}, ringerr.ErrUnknownAuthorizer
	}
}
