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

package swarm

import (
	"context"
	"math"
	"time"

	"github.com/sage-x-project/ringmesh/chord"
	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/internal/logger"
	"github.com/sage-x-project/ringmesh/internal/metrics"
	"github.com/sage-x-project/ringmesh/message"
	"github.com/sage-x-project/ringmesh/ringerr"
	"github.com/sage-x-project/ringmesh/session"
	"github.com/sage-x-project/ringmesh/transport"
)

// RelaySlack is the constant added to 2*log2(EstimatedNetworkSize) when
// bounding a payload's relay.path length.
const RelaySlack = 8

// MinEstimatedNetworkSize floors the network-size estimate so small or
// freshly bootstrapped rings (where log2 would otherwise go negative or
// to zero) still get a usable relay bound.
const MinEstimatedNetworkSize = 2

// Swarm owns the transport registry, the local chord state, the session
// manager that authenticates outbound traffic, and the callback registry
// that lets application code ride the dispatch plane. It is the node's
// single entry point for both sending and receiving overlay traffic.
type Swarm struct {
	Did       identifier.Did
	Registry  *Registry
	Chord     *chord.State
	Session   *session.Manager
	Callbacks *Callbacks

	// EstimatedNetworkSize feeds the relay-loop bound; operators without a
	// better estimate can leave it at MinEstimatedNetworkSize and rely on
	// RelaySlack alone.
	EstimatedNetworkSize int

	control *controlPlane

	nowMs func() int64
}

// New builds a Swarm for a node identified by did.
func New(did identifier.Did, sm *session.Manager, state *chord.State) *Swarm {
	s := &Swarm{
		Did:                  did,
		Registry:             NewRegistry(),
		Chord:                state,
		Session:              sm,
		Callbacks:            NewCallbacks(),
		EstimatedNetworkSize: MinEstimatedNetworkSize,
		nowMs:                func() int64 { return time.Now().UnixMilli() },
	}
	s.control = newControlPlane(s)
	return s
}

// maxRelayHops returns the current relay.path length bound.
func (s *Swarm) maxRelayHops() int {
	n := s.EstimatedNetworkSize
	if n < MinEstimatedNetworkSize {
		n = MinEstimatedNetworkSize
	}
	return int(2*math.Log2(float64(n))) + RelaySlack
}

// Send implements the outbound path: construct a signed
// payload, resolve the next hop via chord, and write it to that peer's
// Transport. If the resolved hop isn't local (we aren't responsible and
// it's not a direct neighbour), the payload is forwarded rather than
// delivered — the caller always writes to the registry entry named by the
// resolution, whether that's the final destination or a relay.
func (s *Swarm) Send(ctx context.Context, destination identifier.Did, msgType string, body []byte, ttlMs int64) error {
	start := time.Now()
	payload, err := message.New(s.Session, msgType, s.Did, destination, body, s.nowMs(), ttlMs)
	if err != nil {
		metrics.MessagesProcessed.WithLabelValues("outbound", "build_error").Inc()
		return err
	}
	err = s.writeToNextHop(ctx, destination, payload)
	metrics.MessageProcessingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MessagesProcessed.WithLabelValues("outbound", "failure").Inc()
		return err
	}
	metrics.MessagesProcessed.WithLabelValues("outbound", "success").Inc()
	return nil
}

func (s *Swarm) writeToNextHop(ctx context.Context, destination identifier.Did, payload *message.Payload) error {
	hop := s.resolveNextHop(destination)

	t, ok := s.Registry.Get(hop)
	if !ok || !t.IsConnected() {
		metrics.DispatchNoNextHop.Inc()
		return ringerr.ErrNoNextHop
	}

	encoded, err := payload.Encode()
	if err != nil {
		return err
	}
	metrics.MessageSize.Observe(float64(len(encoded)))
	if err := t.Send(ctx, encoded); err != nil {
		return err
	}
	metrics.DispatchSent.Inc()
	return nil
}

func (s *Swarm) resolveNextHop(destination identifier.Did) identifier.Did {
	if destination == s.Did {
		return s.Did
	}
	result := s.Chord.FindSuccessor(destination)
	if result.Resolved {
		return result.Successor
	}
	return result.NextHop
}

// Listen runs the inbound dispatch loop for a single Transport registered
// under peerDid, until ctx is cancelled or the transport closes. The swarm
// owns one such loop per registry entry.
func (s *Swarm) Listen(ctx context.Context, peerDid identifier.Did, t transport.Transport) {
	for {
		data, err := t.Recv(ctx)
		if err != nil {
			return
		}
		if err := s.handleInbound(ctx, peerDid, data); err != nil {
			logger.Warn("swarm: dispatch failed", logger.String("peer", peerDid.String()), logger.Error(err))
		}
	}
}

func (s *Swarm) handleInbound(ctx context.Context, from identifier.Did, data []byte) error {
	start := time.Now()
	metrics.MessageSize.Observe(float64(len(data)))
	defer func() {
		metrics.MessageProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	payload, err := message.Decode(data)
	if err != nil {
		metrics.DispatchDecodeErrors.Inc()
		metrics.MessagesProcessed.WithLabelValues("inbound", "decode_error").Inc()
		return err
	}
	if err := payload.VerifyOrigin(); err != nil {
		metrics.DispatchVerifyErrors.Inc()
		metrics.MessagesProcessed.WithLabelValues("inbound", "verify_error").Inc()
		return err
	}

	if s.control.handleIfControl(ctx, payload) {
		metrics.MessagesProcessed.WithLabelValues("inbound", "control").Inc()
		return nil
	}

	var dispatchErr error
	if payload.DestDid == s.Did {
		dispatchErr = s.deliverLocally(ctx, payload)
	} else {
		dispatchErr = s.relay(ctx, payload)
	}
	if dispatchErr != nil {
		metrics.MessagesProcessed.WithLabelValues("inbound", "failure").Inc()
		return dispatchErr
	}
	metrics.MessagesProcessed.WithLabelValues("inbound", "success").Inc()
	return nil
}

func (s *Swarm) deliverLocally(ctx context.Context, payload *message.Payload) error {
	handler, ok := s.Callbacks.Lookup(payload.MessageType)
	if !ok {
		return nil
	}
	events, err := handler(payload.OriginDid, payload.Body)
	if err != nil {
		return err
	}
	return s.applyEvents(ctx, events)
}

func (s *Swarm) relay(ctx context.Context, payload *message.Payload) error {
	if len(payload.Relay.Path) >= s.maxRelayHops() {
		metrics.DispatchRelayLoops.Inc()
		return ringerr.ErrRelayLoop
	}
	payload.AppendRelayHop(s.Did)
	return s.writeToNextHop(ctx, payload.DestDid, payload)
}

func (s *Swarm) applyEvents(ctx context.Context, events []Event) error {
	for _, ev := range events {
		switch ev.Type {
		case EventSendReply:
			if err := s.Send(ctx, ev.Destination, ev.MessageType, ev.Body, session.DefaultSessionTTLMs); err != nil {
				return err
			}
		case EventUpdateDHT:
			s.Chord.Notify(ev.Destination)
		case EventCloseTransport:
			if t, ok := s.Registry.Get(ev.Destination); ok {
				_ = t.Close()
			}
			s.Registry.Remove(ev.Destination)
		}
	}
	return nil
}
