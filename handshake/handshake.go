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

package handshake

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/internal/metrics"
	"github.com/sage-x-project/ringmesh/message"
	"github.com/sage-x-project/ringmesh/ringerr"
	"github.com/sage-x-project/ringmesh/session"
	"github.com/sage-x-project/ringmesh/transport/websocket"
)

const (
	msgTypeOffer  = "handshake.offer"
	msgTypeAnswer = "handshake.answer"
)

// PendingOffer is the local state created by CreateOffer: a one-shot
// WebSocket listener waiting for the answerer to dial back in.
type PendingOffer struct {
	listener net.Listener
	server   *http.Server
	accepted chan *websocket.Transport

	readTimeout, writeTimeout time.Duration
}

// CreateOffer starts listening on bindAddr (":0" picks an ephemeral port)
// and returns a signed offer payload advertising that address as the local
// SDP blob, plus the PendingOffer to complete the handshake with once an
// answer arrives.
func CreateOffer(sm *session.Manager, self, remote identifier.Did, bindAddr string, readTimeout, writeTimeout time.Duration, nowMs, ttlMs int64) ([]byte, *PendingOffer, error) {
	start := time.Now()
	metrics.HandshakesInitiated.WithLabelValues("offerer").Inc()
	defer func() {
		metrics.HandshakeDuration.WithLabelValues("offer").Observe(time.Since(start).Seconds())
	}()

	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		metrics.HandshakesFailed.WithLabelValues("listen").Inc()
		return nil, nil, fmt.Errorf("handshake: listen: %w", err)
	}

	p := &PendingOffer{
		listener:     ln,
		accepted:     make(chan *websocket.Transport, 1),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
	upgrader := websocket.NewUpgrader(readTimeout, writeTimeout, func(t *websocket.Transport) {
		select {
		case p.accepted <- t:
		default:
			t.Close()
		}
	})
	p.server = &http.Server{Handler: upgrader.Handler()}
	go p.server.Serve(ln) //nolint:errcheck // Close() below ends Serve

	body, err := json.Marshal(offerBody{SDP: fmt.Sprintf("ws://%s/handshake", ln.Addr().String())})
	if err != nil {
		ln.Close()
		metrics.HandshakesFailed.WithLabelValues("marshal").Inc()
		return nil, nil, fmt.Errorf("handshake: marshal offer: %w", err)
	}

	payload, err := message.New(sm, msgTypeOffer, self, remote, body, nowMs, ttlMs)
	if err != nil {
		ln.Close()
		metrics.HandshakesFailed.WithLabelValues("build").Inc()
		return nil, nil, fmt.Errorf("handshake: build offer: %w", err)
	}
	encoded, err := payload.Encode()
	if err != nil {
		ln.Close()
		metrics.HandshakesFailed.WithLabelValues("encode").Inc()
		return nil, nil, fmt.Errorf("handshake: encode offer: %w", err)
	}
	return encoded, p, nil
}

// AnswerOffer verifies an inbound offer, dials the SDP it advertises, and
// returns a signed answer payload plus the now-connected Transport. The
// offerer's identifier is read from the verified origin of the offer, not
// from the offer body.
func AnswerOffer(ctx context.Context, sm *session.Manager, self identifier.Did, offerBytes []byte, readTimeout, writeTimeout time.Duration, nowMs, ttlMs int64) ([]byte, *websocket.Transport, identifier.Did, error) {
	start := time.Now()
	metrics.HandshakesInitiated.WithLabelValues("answerer").Inc()
	defer func() {
		metrics.HandshakeDuration.WithLabelValues("answer").Observe(time.Since(start).Seconds())
	}()

	offerPayload, err := message.Decode(offerBytes)
	if err != nil {
		metrics.HandshakesFailed.WithLabelValues("decode").Inc()
		return nil, nil, identifier.Did{}, fmt.Errorf("handshake: decode offer: %w", err)
	}
	if err := offerPayload.VerifyOrigin(); err != nil {
		metrics.HandshakesFailed.WithLabelValues("verify").Inc()
		return nil, nil, identifier.Did{}, fmt.Errorf("handshake: verify offer: %w", err)
	}

	var ob offerBody
	if err := json.Unmarshal(offerPayload.Body, &ob); err != nil {
		metrics.HandshakesFailed.WithLabelValues("parse").Inc()
		return nil, nil, identifier.Did{}, fmt.Errorf("handshake: parse offer body: %w", err)
	}

	t, err := websocket.Dial(ctx, ob.SDP, readTimeout, writeTimeout)
	if err != nil {
		metrics.HandshakesFailed.WithLabelValues("dial").Inc()
		return nil, nil, identifier.Did{}, fmt.Errorf("handshake: dial offer: %w", err)
	}

	body, err := json.Marshal(answerBody{SDP: ob.SDP})
	if err != nil {
		t.Close()
		metrics.HandshakesFailed.WithLabelValues("marshal").Inc()
		return nil, nil, identifier.Did{}, fmt.Errorf("handshake: marshal answer: %w", err)
	}
	answerPayload, err := message.New(sm, msgTypeAnswer, self, offerPayload.OriginDid, body, nowMs, ttlMs)
	if err != nil {
		t.Close()
		metrics.HandshakesFailed.WithLabelValues("build").Inc()
		return nil, nil, identifier.Did{}, fmt.Errorf("handshake: build answer: %w", err)
	}
	encoded, err := answerPayload.Encode()
	if err != nil {
		t.Close()
		metrics.HandshakesFailed.WithLabelValues("encode").Inc()
		return nil, nil, identifier.Did{}, fmt.Errorf("handshake: encode answer: %w", err)
	}
	return encoded, t, offerPayload.OriginDid, nil
}

// AcceptAnswer verifies the answer, waits for the answerer's dial-back to
// land on the PendingOffer's listener, and returns the established
// Transport together with the verified remote identifier. The registry
// key is always this verified origin, never anything self-reported in
// the SDP.
func AcceptAnswer(ctx context.Context, p *PendingOffer, answerBytes []byte) (*websocket.Transport, identifier.Did, error) {
	defer p.close()
	start := time.Now()
	defer func() {
		metrics.HandshakeDuration.WithLabelValues("accept").Observe(time.Since(start).Seconds())
	}()

	answerPayload, err := message.Decode(answerBytes)
	if err != nil {
		metrics.HandshakesFailed.WithLabelValues("decode").Inc()
		return nil, identifier.Did{}, fmt.Errorf("handshake: decode answer: %w", err)
	}
	if err := answerPayload.VerifyOrigin(); err != nil {
		metrics.HandshakesFailed.WithLabelValues("verify").Inc()
		return nil, identifier.Did{}, fmt.Errorf("handshake: verify answer: %w", err)
	}

	select {
	case t := <-p.accepted:
		if err := t.WaitForDataChannelOpen(ctx); err != nil {
			t.Close()
			metrics.HandshakesCompleted.WithLabelValues("failure").Inc()
			return nil, identifier.Did{}, err
		}
		metrics.HandshakesCompleted.WithLabelValues("success").Inc()
		return t, answerPayload.OriginDid, nil
	case <-ctx.Done():
		metrics.HandshakesCompleted.WithLabelValues("timeout").Inc()
		return nil, identifier.Did{}, ringerr.ErrTimeout
	}
}

func (p *PendingOffer) close() {
	if p.server != nil {
		_ = p.server.Close()
	}
	_ = p.listener.Close()
}
