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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StabilizeTicks counts Stabilizer rounds started.
	StabilizeTicks = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chord",
			Name:      "stabilize_ticks_total",
			Help:      "Total number of stabilization ticks run",
		},
	)

	// FingerFixes counts fix_finger lookups issued by the stabilizer.
	FingerFixes = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chord",
			Name:      "finger_fixes_total",
			Help:      "Total number of finger table entries refreshed",
		},
	)

	// SuccessorsEvicted counts successor-list entries dropped by
	// ReconcileSuccessors for failing their liveness check.
	SuccessorsEvicted = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chord",
			Name:      "successors_evicted_total",
			Help:      "Total number of dead successors evicted during stabilization",
		},
	)

	// VnodeAppends counts StoreAppend calls against the local virtual-node
	// store.
	VnodeAppends = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vnode",
			Name:      "appends_total",
			Help:      "Total number of virtual-node blobs appended locally",
		},
	)

	// VnodeMerges counts Merge calls folding in a remote virtual-node's
	// blob sequence, e.g. after a responsibility handoff.
	VnodeMerges = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vnode",
			Name:      "merges_total",
			Help:      "Total number of virtual-node merges applied locally",
		},
	)
)
