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
	// DispatchSent tracks payloads successfully written to a next-hop
	// Transport, whether the final destination or a relay.
	DispatchSent = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "sent_total",
			Help:      "Total number of payloads written to a next-hop transport",
		},
	)

	// DispatchNoNextHop tracks sends that failed because no connected
	// transport was registered for the resolved next hop.
	DispatchNoNextHop = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "no_next_hop_total",
			Help:      "Total number of sends that failed to resolve a connected next hop",
		},
	)

	// DispatchDecodeErrors tracks inbound frames that failed to decode as
	// a Payload.
	DispatchDecodeErrors = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "decode_errors_total",
			Help:      "Total number of inbound frames that failed to decode",
		},
	)

	// DispatchVerifyErrors tracks inbound payloads that failed origin
	// verification.
	DispatchVerifyErrors = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "verify_errors_total",
			Help:      "Total number of inbound payloads that failed origin verification",
		},
	)

	// DispatchRelayLoops tracks payloads dropped for exceeding the
	// relay-path length bound.
	DispatchRelayLoops = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "relay_loops_total",
			Help:      "Total number of payloads dropped for exceeding the relay hop bound",
		},
	)
)
