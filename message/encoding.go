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
	"encoding/binary"
	"encoding/json"

	"github.com/sage-x-project/ringmesh/identifier"
	"github.com/sage-x-project/ringmesh/ringerr"
)

// Version is the current wire version tagging every Encoded payload.
const Version byte = 1

// header is the JSON-serialized portion of Encoded: everything about the
// payload except its opaque body, whose bytes are framed separately so the
// signature over the body never has to survive a re-marshal.
type header struct {
	TxID        TxID           `json:"txId"`
	MessageType string         `json:"messageType"`
	OriginDid   identifier.Did `json:"originDid"`
	DestDid     identifier.Did `json:"destinationDid"`
	Relay       Relay          `json:"relay"`
	Verify      Verification   `json:"verification"`
}

// Encode produces the canonical self-describing byte string: a one-byte
// version, a length-prefixed JSON header, and a length-prefixed opaque body.
func (p *Payload) Encode() ([]byte, error) {
	h := header{
		TxID:        p.TxID,
		MessageType: p.MessageType,
		OriginDid:   p.OriginDid,
		DestDid:     p.DestDid,
		Relay:       p.Relay,
		Verify:      p.Verify,
	}
	headerJSON, err := json.Marshal(h)
	if err != nil {
		return nil, ringerr.ErrEncode
	}

	out := make([]byte, 0, 1+4+len(headerJSON)+4+len(p.Body))
	out = append(out, Version)
	out = appendUint32(out, uint32(len(headerJSON)))
	out = append(out, headerJSON...)
	out = appendUint32(out, uint32(len(p.Body)))
	out = append(out, p.Body...)
	return out, nil
}

// Decode parses the canonical byte string produced by Encode back into a
// Payload, rejecting anything not tagged with the current Version.
func Decode(data []byte) (*Payload, error) {
	if len(data) < 1 {
		return nil, ringerr.ErrDecode
	}
	if data[0] != Version {
		return nil, ringerr.ErrUnsupportedVersion
	}
	data = data[1:]

	headerLen, data, err := readUint32(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) < headerLen {
		return nil, ringerr.ErrDecode
	}
	headerJSON, data := data[:headerLen], data[headerLen:]

	var h header
	if err := json.Unmarshal(headerJSON, &h); err != nil {
		return nil, ringerr.ErrDeserialize
	}

	bodyLen, data, err := readUint32(data)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) < bodyLen {
		return nil, ringerr.ErrDecode
	}
	body := data[:bodyLen]

	return &Payload{
		TxID:        h.TxID,
		MessageType: h.MessageType,
		OriginDid:   h.OriginDid,
		DestDid:     h.DestDid,
		Relay:       h.Relay,
		Verify:      h.Verify,
		Body:        append([]byte{}, body...),
	}, nil
}

func appendUint32(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

func readUint32(data []byte) (uint32, []byte, error) {
	if len(data) < 4 {
		return 0, nil, ringerr.ErrDecode
	}
	return binary.BigEndian.Uint32(data[:4]), data[4:], nil
}
