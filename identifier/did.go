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

// Package identifier implements the 160-bit circular identifier space the
// Chord ring is built on: distance, betweenness, and the 2^i offsets the
// finger table is indexed by.
package identifier

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
)

// Bits is the width of the ring, matching a 160-bit hash (Keccak-256/SHA-256
// truncated to 20 bytes, same as an Ethereum address).
const Bits = 160

// Size is the byte length of a Did.
const Size = Bits / 8

// Did is a 160-bit unsigned identifier living on the Chord ring, modulo
// 2^160. The zero value is a valid identifier (the origin of the ring).
type Did [Size]byte

// ErrInvalidLength is returned by ParseDid when the input isn't 20 bytes.
var ErrInvalidLength = errors.New("identifier: invalid length")

// FromBytes converts the input to a Did. Hash outputs longer than Size
// (Keccak-256 is 32 bytes) are truncated to the low Size bytes, mirroring
// an Ethereum address derivation; shorter inputs are left-padded with zeros.
func FromBytes(b []byte) Did {
	var d Did
	if len(b) >= Size {
		copy(d[:], b[len(b)-Size:])
	} else {
		copy(d[Size-len(b):], b)
	}
	return d
}

// ParseDid parses a hex string (with or without 0x prefix) into a Did.
func ParseDid(s string) (Did, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Did{}, err
	}
	if len(b) != Size {
		return Did{}, ErrInvalidLength
	}
	var d Did
	copy(d[:], b)
	return d, nil
}

// String formats the identifier as 0x-prefixed hex.
func (d Did) String() string {
	return "0x" + hex.EncodeToString(d[:])
}

// Bytes returns the raw big-endian bytes of the identifier.
func (d Did) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, d[:])
	return out
}

// MarshalJSON encodes the identifier as its 0x-prefixed hex string, the
// stable wire representation headers and session envelopes rely on.
func (d Did) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes the 0x-prefixed hex string produced by MarshalJSON.
func (d *Did) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDid(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsZero reports whether d is the ring's origin.
func (d Did) IsZero() bool {
	return d == Did{}
}

func (d Did) toBig() *big.Int {
	return new(big.Int).SetBytes(d[:])
}

var ringMod = func() *big.Int {
	m := big.NewInt(1)
	m.Lsh(m, Bits)
	return m
}()

func fromBig(v *big.Int) Did {
	v = new(big.Int).Mod(v, ringMod)
	b := v.Bytes()
	return FromBytes(b)
}

// Distance returns (b - a) mod 2^160, the clockwise distance from a to b.
func Distance(a, b Did) *big.Int {
	d := new(big.Int).Sub(b.toBig(), a.toBig())
	return d.Mod(d, ringMod)
}

// Between reports whether x lies strictly on the clockwise arc from a to b,
// i.e. whether distance(a, x) < distance(a, b) and x != a. When a == b the
// interval is defined to cover the whole ring except a, per spec.
func Between(a, x, b Did) bool {
	if x == a {
		return false
	}
	if a == b {
		return true
	}
	dax := Distance(a, x)
	dab := Distance(a, b)
	return dax.Cmp(dab) < 0
}

// AddPow2 returns did + 2^i (mod 2^160), the identifier finger table entry i
// is responsible for routing towards.
func AddPow2(did Did, i int) Did {
	offset := new(big.Int).Lsh(big.NewInt(1), uint(i))
	sum := new(big.Int).Add(did.toBig(), offset)
	return fromBig(sum)
}

// Less orders identifiers by raw unsigned magnitude — useful for picking a
// canonical "greater" peer (see two-node stabilization scenarios) but
// unrelated to ring betweenness.
func (d Did) Less(other Did) bool {
	for i := 0; i < Size; i++ {
		if d[i] != other[i] {
			return d[i] < other[i]
		}
	}
	return false
}
