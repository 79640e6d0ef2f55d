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

package chord

import (
	"context"
	"time"

	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/internal/logger"
	"github.com/sage-x-project/ringmesh/internal/metrics"
)

// DefaultInterval is the default stabilization tick period.
const DefaultInterval = 5 * time.Second

// Peer is the subset of swarm/dispatch capability the stabilizer needs: a
// way to ask a remote node for its predecessor and successor list, and to
// notify one that it might be its predecessor, each bounded by a deadline.
// The swarm package supplies the concrete implementation; chord only
// depends on this narrow interface to stay independent of transport and
// message framing.
type Peer interface {
	GetPredecessor(ctx context.Context, of identifier.Did) (identifier.Did, bool, error)
	GetSuccessors(ctx context.Context, of identifier.Did) ([]identifier.Did, error)
	Notify(ctx context.Context, of, candidate identifier.Did) error
	FindSuccessorRemote(ctx context.Context, of, target identifier.Did) (identifier.Did, error)
	IsAlive(did identifier.Did) bool
}

// Stabilizer runs periodic ring reconciliation on a fixed interval: ask
// the successor for its predecessor, fold it in,
// notify the (possibly new) successor, refresh one finger entry in
// round-robin, and evict dead successors. It never blocks the dispatch
// plane — each step suspends only on its own outbound request.
type Stabilizer struct {
	state    *State
	peer     Peer
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewStabilizer builds a Stabilizer for state, issuing requests through peer
// every interval (DefaultInterval if zero).
func NewStabilizer(state *State, peer Peer, interval time.Duration) *Stabilizer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Stabilizer{
		state:    state,
		peer:     peer,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run starts the ticker loop in the background; it exits when ctx is
// cancelled or Stop is called, whichever comes first.
func (s *Stabilizer) Run(ctx context.Context) {
	go s.loop(ctx)
}

// Stop requests the loop to exit and waits for it to do so.
func (s *Stabilizer) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Stabilizer) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick performs one stabilization round. Failures are logged and
// swallowed: a stale finger is acceptable, a stale successor is corrected
// on the next tick.
func (s *Stabilizer) tick(ctx context.Context) {
	metrics.StabilizeTicks.Inc()
	tctx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	successors := s.state.Successors()
	if len(successors) == 0 {
		s.fixFinger(tctx)
		return
	}
	head := successors[0]

	dead := make(map[identifier.Did]bool)
	for _, succ := range successors {
		if !s.peer.IsAlive(succ) {
			dead[succ] = true
		}
	}
	metrics.SuccessorsEvicted.Add(float64(len(dead)))

	var x *identifier.Did
	if xDid, ok, err := s.peer.GetPredecessor(tctx, head); err != nil {
		logger.Warn("stabilize: get_predecessor failed", logger.String("head", head.String()), logger.Error(err))
	} else if ok {
		x = &xDid
	}

	var learned []identifier.Did
	if l, err := s.peer.GetSuccessors(tctx, head); err != nil {
		logger.Warn("stabilize: get_successors failed", logger.String("head", head.String()), logger.Error(err))
	} else {
		learned = l
	}

	s.state.ReconcileSuccessors(x, learned, dead)

	newSuccessors := s.state.Successors()
	if len(newSuccessors) > 0 {
		if err := s.peer.Notify(tctx, newSuccessors[0], s.state.Did()); err != nil {
			logger.Warn("stabilize: notify failed", logger.String("successor", newSuccessors[0].String()), logger.Error(err))
		}
	}

	s.fixFinger(tctx)
}

func (s *Stabilizer) fixFinger(ctx context.Context) {
	metrics.FingerFixes.Inc()
	i := s.state.NextFingerIndex()
	target := identifier.AddPow2(s.state.Did(), i)

	result := s.state.FindSuccessor(target)
	if result.Resolved {
		s.state.StoreFinger(i, result.Successor)
		return
	}
	found, err := s.peer.FindSuccessorRemote(ctx, result.NextHop, result.Target)
	if err != nil {
		logger.Warn("stabilize: fix_finger lookup failed", logger.Int("index", i), logger.Error(err))
		return
	}
	s.state.StoreFinger(i, found)
}
