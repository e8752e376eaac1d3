// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package store provides typed storage slots owned by an address of the state:
// keyed mappings, single values, 256-bit counters and config variables.
package store

import (
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/state"
)

// Context binds storage slots to their owner address.
type Context struct {
	address core.Address
	state   *state.State
}

func NewContext(address core.Address, state *state.State) *Context {
	return &Context{
		address: address,
		state:   state,
	}
}

func (c *Context) State() *state.State {
	return c.state
}

func (c *Context) Address() core.Address {
	return c.address
}
