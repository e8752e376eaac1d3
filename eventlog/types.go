// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

import (
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/events"
)

// Entry is a stored event with its sequence number.
type Entry struct {
	Seq uint64
	events.Event
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range bounds the session of matched events. To below From leaves the
// range open ended.
type Range struct {
	From uint32
	To   uint32
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// Filter selects events. Empty fields match everything.
type Filter struct {
	Types     []events.Type
	Account   *core.Address
	Validator *core.Address
	Range     *Range
	Order     Order
	Options   *Options
}
