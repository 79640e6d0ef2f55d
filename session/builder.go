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
	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/internal/metrics"
	"github.com/sage-x-project/ringmesh/ringerr"
)

// Builder assembles a Session from a freshly generated session key and an
// authorizer's signature over the packed string, then wraps it into a
// SessionManager. It follows a two-step "describe, then attach signature"
// shape, generalized across the four authorizer schemes.
type Builder struct {
	sessionSk *signers.SecretKey
	sessionID identifier.Did
	auth      Authorizer
	tsMs      int64
	ttlMs     int64
	sig       []byte
}

// NewBuilder starts a session build for the given authorizer, generating a
// fresh session key and setting the session start time and TTL. ttlMs of
// zero selects DefaultSessionTTLMs.
func NewBuilder(authorizer Authorizer, tsMs, ttlMs int64) (*Builder, error) {
	sk, err := signers.GenerateSecretKey()
	if err != nil {
		return nil, err
	}
	if ttlMs == 0 {
		ttlMs = DefaultSessionTTLMs
	}
	return &Builder{
		sessionSk: sk,
		sessionID: sk.PublicKey().Address(),
		auth:      authorizer,
		tsMs:      tsMs,
		ttlMs:     ttlMs,
	}, nil
}

// SessionID returns the session key's address, the value the authorizer
// must sign alongside the timestamp and TTL.
func (b *Builder) SessionID() identifier.Did {
	return b.sessionID
}

// PackSession returns the canonical string for the authorizer to sign.
func (b *Builder) PackSession() string {
	return PackSession(b.sessionID, b.tsMs, b.ttlMs)
}

// SetSig attaches the authorizer's signature over PackSession(), produced
// out of band (e.g. by a browser wallet or hardware signer).
func (b *Builder) SetSig(sig []byte) {
	b.sig = sig
}

// Build finalizes the session: it verifies the attached signature against
// the declared authorizer before handing back a usable SessionManager, so a
// caller can never end up holding a session that fails its own VerifySelf.
func (b *Builder) Build() (*Manager, error) {
	start := time.Now()
	m, err := b.build()
	metrics.SessionDuration.WithLabelValues("build").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SessionsCreated.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.SessionsCreated.WithLabelValues("success").Inc()
	return m, nil
}

func (b *Builder) build() (*Manager, error) {
	if b.sig == nil {
		return nil, ringerr.ErrVerifySignatureFailed
	}
	s := Session{
		SessionID:  b.sessionID,
		Authorizer: b.auth,
		TTLMs:      b.ttlMs,
		TSMs:       b.tsMs,
		Sig:        b.sig,
	}
	if err := s.VerifySelf(); err != nil {
		return nil, err
	}
	return &Manager{session: s, sessionSk: b.sessionSk}, nil
}
