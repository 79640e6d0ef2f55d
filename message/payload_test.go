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

package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/ringmesh/crypto/signers"
	"github.com/sage-x-project/ringmesh/session"
)

func newTestManager(t *testing.T) *session.Manager {
	t.Helper()
	sk, err := signers.GenerateSecretKey()
	require.NoError(t, err)
	sm, err := session.NewManagerWithSecretKey(sk, time.Now().UnixMilli())
	require.NoError(t, err)
	return sm
}

func TestPayloadEncodeDecodeRoundTrip(t *testing.T) {
	sm := newTestManager(t)
	origin := sm.Session().SessionID
	dest := sm.Session().SessionID // loopback in this test

	body := []byte(`{"ping":true}`)
	p, err := New(sm, "ping", origin, dest, body, 1_700_000_000_100, session.DefaultSessionTTLMs)
	require.NoError(t, err)

	encoded, err := p.Encode()
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)

	assert.Equal(t, p.TxID, decoded.TxID)
	assert.Equal(t, p.MessageType, decoded.MessageType)
	assert.Equal(t, p.OriginDid, decoded.OriginDid)
	assert.Equal(t, p.DestDid, decoded.DestDid)
	assert.Equal(t, p.Body, decoded.Body)
	assert.NoError(t, decoded.VerifyOrigin())
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	sm := newTestManager(t)
	p, err := New(sm, "ping", sm.Session().SessionID, sm.Session().SessionID, []byte("x"), 1_700_000_000_100, session.DefaultSessionTTLMs)
	require.NoError(t, err)

	encoded, err := p.Encode()
	require.NoError(t, err)
	encoded[0] = 0xFF

	_, err = Decode(encoded)
	assert.Error(t, err)
}

func TestVerifyOriginMismatchRejected(t *testing.T) {
	sm := newTestManager(t)
	otherSk, err := signers.GenerateSecretKey()
	require.NoError(t, err)

	p, err := New(sm, "ping", otherSk.PublicKey().Address(), sm.Session().SessionID, []byte("x"), 1_700_000_000_100, session.DefaultSessionTTLMs)
	require.NoError(t, err)

	assert.Error(t, p.VerifyOrigin())
}

func TestAppendRelayHopGrowsPath(t *testing.T) {
	sm := newTestManager(t)
	p, err := New(sm, "ping", sm.Session().SessionID, sm.Session().SessionID, []byte("x"), 1_700_000_000_100, session.DefaultSessionTTLMs)
	require.NoError(t, err)

	p.AppendRelayHop(sm.Session().SessionID)
	assert.Len(t, p.Relay.Path, 1)
}

func TestEncodingIsDeterministic(t *testing.T) {
	sm := newTestManager(t)
	p, err := New(sm, "ping", sm.Session().SessionID, sm.Session().SessionID, []byte(`{"a":1}`), 1_700_000_000_100, session.DefaultSessionTTLMs)
	require.NoError(t, err)

	a, err := p.Encode()
	require.NoError(t, err)
	b, err := p.Encode()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
