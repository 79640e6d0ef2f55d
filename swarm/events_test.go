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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sage-x-project/ringmesh/identifier"
)

func TestCallbacksRegisterAndLookup(t *testing.T) {
	c := NewCallbacks()

	_, ok := c.Lookup("ping")
	assert.False(t, ok)

	called := false
	c.Register("ping", func(origin identifier.Did, body []byte) ([]Event, error) {
		called = true
		return nil, nil
	})

	h, ok := c.Lookup("ping")
	assert.True(t, ok)
	_, _ = h(identifier.Did{}, nil)
	assert.True(t, called)
}

func TestCallbacksRegisterReplacesExisting(t *testing.T) {
	c := NewCallbacks()
	c.Register("ping", func(identifier.Did, []byte) ([]Event, error) { return nil, nil })

	var which string
	c.Register("ping", func(identifier.Did, []byte) ([]Event, error) {
		which = "second"
		return nil, nil
	})

	h, ok := c.Lookup("ping")
	assert.True(t, ok)
	_, _ = h(identifier.Did{}, nil)
	assert.Equal(t, "second", which)
}
