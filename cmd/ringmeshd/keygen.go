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
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/ringmesh/crypto/signers"
)

var keygenOut string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a fresh secp256k1 node key",
	RunE: func(cmd *cobra.Command, args []string) error {
		sk, err := signers.GenerateSecretKey()
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		hexKey := hex.EncodeToString(sk.Bytes())
		did := sk.PublicKey().Address()

		if keygenOut == "" {
			fmt.Printf("did: %s\nkey: %s\n", did, hexKey)
			return nil
		}
		if err := os.WriteFile(keygenOut, []byte(hexKey+"\n"), 0o600); err != nil {
			return fmt.Errorf("write key file: %w", err)
		}
		fmt.Printf("did: %s\nwrote key to %s\n", did, keygenOut)
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keygenOut, "out", "", "file to write the hex-encoded key to (prints to stdout if empty)")
	rootCmd.AddCommand(keygenCmd)
}
