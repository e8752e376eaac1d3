// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import (
	"github.com/stakecore/stakecore/core"
)

// Bond pairs an owner with an amount. Sets of bonds are ordered by owner only.
type Bond struct {
	Owner  core.Address
	Amount uint64
}

// UnlockChunk is an unbonded amount released once Session is reached.
type UnlockChunk struct {
	Value   uint64
	Session uint32
}

// StakeReward is a payout owed to an account.
type StakeReward struct {
	Account core.Address
	Value   uint64
}

// Snapshot is the exposure of a validator frozen at selection time.
type Snapshot struct {
	Bond       uint64
	Nominators []Bond
	Total      uint64
}

// Stake returns the snapshotted stake of account, either as the validator
// itself or as one of its nominators.
func (s *Snapshot) Stake(validator, account core.Address) uint64 {
	if validator == account {
		return s.Bond
	}
	for _, n := range s.Nominators {
		if n.Owner == account {
			return n.Amount
		}
	}
	return 0
}

// Points credits reward points to a validator.
type Points struct {
	Validator core.Address
	Points    uint32
}
