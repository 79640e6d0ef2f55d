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

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sage-x-project/ringmesh/chord"
	"github.com/sage-x-project/ringmesh/config"
	"github.com/sage-x-project/ringmesh/crypto/signers"
	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/internal/logger"
	"github.com/sage-x-project/ringmesh/internal/metrics"
	"github.com/sage-x-project/ringmesh/session"
	"github.com/sage-x-project/ringmesh/swarm"
	"github.com/sage-x-project/ringmesh/transport/websocket"
)

// node bundles a single running ringmeshd process: its session authority,
// chord membership and the swarm dispatch plane sitting on top of a
// WebSocket listener.
type node struct {
	cfg *config.Config
	log logger.Logger

	sm    *session.Manager
	did   identifier.Did
	state *chord.State
	swarm *swarm.Swarm
}

func newNode(cfg *config.Config, log logger.Logger) (*node, error) {
	sk, err := loadOrGenerateKey(cfg.Node.KeyFile, log)
	if err != nil {
		return nil, err
	}

	sm, err := session.NewManagerWithSecretKey(sk, time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("build session: %w", err)
	}
	did := sm.Session().SessionID
	state := chord.New(did, cfg.Chord.SuccessorListSize)
	sw := swarm.New(did, sm, state)

	return &node{cfg: cfg, log: log, sm: sm, did: did, state: state, swarm: sw}, nil
}

func loadOrGenerateKey(path string, log logger.Logger) (*signers.SecretKey, error) {
	if path == "" {
		log.Info("no key_file configured, generating an ephemeral key")
		return signers.GenerateSecretKey()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		sk, genErr := signers.GenerateSecretKey()
		if genErr != nil {
			return nil, genErr
		}
		if writeErr := os.WriteFile(path, []byte(hex.EncodeToString(sk.Bytes())+"\n"), 0o600); writeErr != nil {
			return nil, fmt.Errorf("write key file: %w", writeErr)
		}
		log.Info("generated new node key", logger.String("path", path))
		return sk, nil
	}

	raw, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("decode key file: %w", err)
	}
	return signers.SecretKeyFromBytes(raw)
}

// serve starts the node: the websocket listener, the chord stabilizer and,
// if configured, the metrics HTTP server. It blocks until ctx is cancelled
// or the websocket listener fails, in which case it returns that error.
func (n *node) serve(ctx context.Context) error {
	n.log.Info("node starting",
		logger.String("did", n.did.String()),
		logger.String("listen_addr", n.cfg.Transport.ListenAddr),
	)

	upgrader := websocket.NewUpgrader(
		n.cfg.Transport.ReadTimeout,
		n.cfg.Transport.WriteTimeout,
		func(t *websocket.Transport) {
			// The remote identifier of a bare inbound connection isn't
			// known, so the accepted transport is only logged and
			// dropped; it is never registered under a guessed Did.
			n.log.Debug("accepted inbound websocket connection")
			_ = t
		},
	)

	mux := http.NewServeMux()
	mux.Handle("/handshake", upgrader.Handler())
	httpServer := &http.Server{Addr: n.cfg.Transport.ListenAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if n.cfg.Chord.BootstrapPeer != "" {
		if err := n.joinBootstrapPeer(ctx); err != nil {
			n.log.Error("failed to join bootstrap peer", logger.Error(err))
		}
	}

	stabilizer := chord.NewStabilizer(n.state, n.swarm, n.cfg.Chord.StabilizeInterval)
	go stabilizer.Run(ctx)

	var metricsServer *http.Server
	if n.cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(n.cfg.Metrics.Path, metrics.Handler())
		metricsServer = &http.Server{Addr: n.cfg.Metrics.Addr, Handler: metricsMux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				n.log.Error("metrics server failed", logger.Error(err))
			}
		}()
		n.log.Info("metrics server listening", logger.String("addr", n.cfg.Metrics.Addr))
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	stabilizer.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	return nil
}

// joinBootstrapPeer dials a "did@host:port" bootstrap peer, registers the
// connection under the Did given in that address (it is not checked against
// the remote's session), and folds it into the local ring as a
// join seed. The transport is dialed directly rather than driven through
// the handshake package's offer/answer exchange: that exchange assumes an
// out-of-band side channel to carry the offer/answer bytes, which a
// single "join this address" flag doesn't provide.
func (n *node) joinBootstrapPeer(ctx context.Context) error {
	parts := strings.SplitN(n.cfg.Chord.BootstrapPeer, "@", 2)
	if len(parts) != 2 {
		return fmt.Errorf("bootstrap_peer must be \"did@host:port\", got %q", n.cfg.Chord.BootstrapPeer)
	}
	peerDid, err := identifier.ParseDid(parts[0])
	if err != nil {
		return fmt.Errorf("parse bootstrap peer did: %w", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, websocket.DialTimeout)
	defer cancel()
	t, err := websocket.Dial(dialCtx, "ws://"+parts[1]+"/handshake", n.cfg.Transport.ReadTimeout, n.cfg.Transport.WriteTimeout)
	if err != nil {
		return fmt.Errorf("dial bootstrap peer: %w", err)
	}

	n.swarm.Registry.Put(peerDid, t)
	go n.swarm.Listen(ctx, peerDid, t)
	n.state.Join(peerDid)
	n.log.Info("joined ring through bootstrap peer", logger.String("peer_did", peerDid.String()))
	return nil
}
