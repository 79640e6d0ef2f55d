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
	"encoding/json"
	"sync"

	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/message"
	"github.com/sage-x-project/ringmesh/ringerr"
	"github.com/sage-x-project/ringmesh/session"
)

// Control message types. Stabilization rides these over the same
// dispatch plane as application traffic, mutating chord state on both
// ends of the exchange.
const (
	msgTypeControlRequest = "chord.control.request"
	msgTypeControlReply   = "chord.control.reply"
	msgTypeControlNotify  = "chord.control.notify"
)

type controlKind string

const (
	kindGetPredecessor    controlKind = "get_predecessor"
	kindGetSuccessors     controlKind = "get_successors"
	kindFindSuccessor     controlKind = "find_successor"
)

type controlRequest struct {
	ReqID  message.TxID   `json:"reqId"`
	Kind   controlKind    `json:"kind"`
	Target identifier.Did `json:"target"`
}

type controlReply struct {
	ReqID      message.TxID     `json:"reqId"`
	Did        identifier.Did   `json:"did,omitempty"`
	HasDid     bool             `json:"hasDid"`
	Dids       []identifier.Did `json:"dids,omitempty"`
}

// controlPlane correlates outbound control requests with their inbound
// replies by ReqID, the same tx_id-keyed pending-channel idiom the
// teacher's WSTransport uses to pair requests with responses over an
// otherwise asynchronous connection.
type controlPlane struct {
	swarm *Swarm

	mu      sync.Mutex
	pending map[message.TxID]chan controlReply
}

func newControlPlane(s *Swarm) *controlPlane {
	return &controlPlane{swarm: s, pending: make(map[message.TxID]chan controlReply)}
}

// handleIfControl processes payload if it's a control-plane message,
// returning true when it consumed the payload (so the normal dispatch path
// should not also process it).
func (c *controlPlane) handleIfControl(ctx context.Context, payload *message.Payload) bool {
	switch payload.MessageType {
	case msgTypeControlRequest:
		c.serve(ctx, payload)
		return true
	case msgTypeControlReply:
		c.resolve(payload)
		return true
	case msgTypeControlNotify:
		var candidate identifier.Did
		if err := json.Unmarshal(payload.Body, &candidate); err == nil {
			c.swarm.Chord.Notify(candidate)
		}
		return true
	default:
		return false
	}
}

func (c *controlPlane) serve(ctx context.Context, payload *message.Payload) {
	var req controlRequest
	if err := json.Unmarshal(payload.Body, &req); err != nil {
		return
	}

	reply := controlReply{ReqID: req.ReqID}
	switch req.Kind {
	case kindGetPredecessor:
		if pred, ok := c.swarm.Chord.Predecessor(); ok {
			reply.Did, reply.HasDid = pred, true
		}
	case kindGetSuccessors:
		reply.Dids = c.swarm.Chord.Successors()
	case kindFindSuccessor:
		result := c.swarm.Chord.FindSuccessor(req.Target)
		if result.Resolved {
			reply.Did, reply.HasDid = result.Successor, true
		} else {
			reply.Did, reply.HasDid = result.NextHop, true
		}
	}

	body, err := json.Marshal(reply)
	if err != nil {
		return
	}
	_ = c.swarm.Send(ctx, payload.OriginDid, msgTypeControlReply, body, session.DefaultSessionTTLMs)
}

func (c *controlPlane) resolve(payload *message.Payload) {
	var reply controlReply
	if err := json.Unmarshal(payload.Body, &reply); err != nil {
		return
	}
	c.mu.Lock()
	ch, ok := c.pending[reply.ReqID]
	if ok {
		delete(c.pending, reply.ReqID)
	}
	c.mu.Unlock()
	if ok {
		ch <- reply
	}
}

func (c *controlPlane) request(ctx context.Context, to identifier.Did, kind controlKind, target identifier.Did) (controlReply, error) {
	reqID, err := message.NewTxID()
	if err != nil {
		return controlReply{}, err
	}
	req := controlRequest{ReqID: reqID, Kind: kind, Target: target}
	body, err := json.Marshal(req)
	if err != nil {
		return controlReply{}, err
	}

	ch := make(chan controlReply, 1)
	c.mu.Lock()
	c.pending[reqID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
	}()

	if err := c.swarm.Send(ctx, to, msgTypeControlRequest, body, session.DefaultSessionTTLMs); err != nil {
		return controlReply{}, err
	}

	select {
	case reply := <-ch:
		return reply, nil
	case <-ctx.Done():
		return controlReply{}, ringerr.ErrTimeout
	}
}

// GetPredecessor asks `of` for its current predecessor.
func (s *Swarm) GetPredecessor(ctx context.Context, of identifier.Did) (identifier.Did, bool, error) {
	reply, err := s.control.request(ctx, of, kindGetPredecessor, identifier.Did{})
	if err != nil {
		return identifier.Did{}, false, err
	}
	return reply.Did, reply.HasDid, nil
}

// GetSuccessors asks `of` for its current successor list.
func (s *Swarm) GetSuccessors(ctx context.Context, of identifier.Did) ([]identifier.Did, error) {
	reply, err := s.control.request(ctx, of, kindGetSuccessors, identifier.Did{})
	if err != nil {
		return nil, err
	}
	return reply.Dids, nil
}

// Notify sends a fire-and-forget notify(candidate) to `of` — the remote
// applies it to its own chord.State.Notify.
func (s *Swarm) Notify(ctx context.Context, of, candidate identifier.Did) error {
	body, err := json.Marshal(candidate)
	if err != nil {
		return err
	}
	return s.Send(ctx, of, msgTypeControlNotify, body, session.DefaultSessionTTLMs)
}

// FindSuccessorRemote asks `of` to resolve target one hop further, used by
// fix_finger when the local lookup doesn't resolve immediately.
func (s *Swarm) FindSuccessorRemote(ctx context.Context, of, target identifier.Did) (identifier.Did, error) {
	reply, err := s.control.request(ctx, of, kindFindSuccessor, target)
	if err != nil {
		return identifier.Did{}, err
	}
	return reply.Did, nil
}

// IsAlive reports whether of has a connected Transport in the registry —
// a local liveness check, not a network round trip.
func (s *Swarm) IsAlive(did identifier.Did) bool {
	return s.Registry.IsAlive(did)
}
