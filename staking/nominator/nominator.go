// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nominator

import (
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/orderedset"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/staking/types"
)

type body struct {
	Nominations orderedset.Set // validator -> amount
	Total       uint64         // sum of nominations
}

type Nominator struct {
	id   core.Address
	body *body
}

func (n *Nominator) ID() core.Address {
	return n.id
}

// Total returns the active bond, the sum of every nomination.
func (n *Nominator) Total() uint64 {
	return n.body.Total
}

func (n *Nominator) Nominations() []types.Bond {
	return n.body.Nominations.Items()
}

func (n *Nominator) Count() int {
	return n.body.Nominations.Len()
}

func (n *Nominator) Nomination(validator core.Address) (uint64, bool) {
	b, ok := n.body.Nominations.Get(validator)
	return b.Amount, ok
}

// IsEmpty reports whether no nomination is left.
func (n *Nominator) IsEmpty() bool {
	return n.body.Nominations.Len() == 0
}

func (n *Nominator) CheckTotal() error {
	if n.body.Nominations.Sum() != n.body.Total {
		return reverts.Invariant("nominator %s total %d does not match nominations", n.id, n.body.Total)
	}
	return nil
}

// Add inserts a nomination, bounded by maxValidators.
func (n *Nominator) Add(validator core.Address, amount uint64, maxValidators uint64) error {
	if n.body.Nominations.Contains(validator) {
		return reverts.New(reverts.KindAlreadyExists, "nomination already exists")
	}
	if uint64(n.body.Nominations.Len()) >= maxValidators {
		return reverts.New(reverts.KindCardinalityExceeded, "too many nominations")
	}
	total, ok := core.CheckedAdd(n.body.Total, amount)
	if !ok {
		return reverts.New(reverts.KindInvalidArgument, "total overflow")
	}
	n.body.Nominations.Insert(types.Bond{Owner: validator, Amount: amount})
	n.body.Total = total
	return nil
}

// Increase raises the nomination on validator and returns the new amount.
func (n *Nominator) Increase(validator core.Address, more uint64) (uint64, error) {
	b, ok := n.body.Nominations.Get(validator)
	if !ok {
		return 0, reverts.New(reverts.KindNotFound, "nomination not found")
	}
	amount, ok := core.CheckedAdd(b.Amount, more)
	if !ok {
		return 0, reverts.New(reverts.KindInvalidArgument, "nomination overflow")
	}
	total, ok := core.CheckedAdd(n.body.Total, more)
	if !ok {
		return 0, reverts.New(reverts.KindInvalidArgument, "total overflow")
	}
	n.body.Nominations.Upsert(types.Bond{Owner: validator, Amount: amount})
	n.body.Total = total
	return amount, nil
}

// Decrease lowers the nomination on validator and returns the new amount.
func (n *Nominator) Decrease(validator core.Address, less uint64) (uint64, error) {
	b, ok := n.body.Nominations.Get(validator)
	if !ok {
		return 0, reverts.New(reverts.KindNotFound, "nomination not found")
	}
	amount, ok := core.CheckedSub(b.Amount, less)
	if !ok {
		return 0, reverts.New(reverts.KindUnderflow, "nomination less than requested decrease")
	}
	n.body.Nominations.Upsert(types.Bond{Owner: validator, Amount: amount})
	n.body.Total -= less
	return amount, nil
}

// Remove deletes the nomination on validator and returns its amount.
func (n *Nominator) Remove(validator core.Address) (uint64, error) {
	b, ok := n.body.Nominations.Remove(validator)
	if !ok {
		return 0, reverts.New(reverts.KindNotFound, "nomination not found")
	}
	n.body.Total -= b.Amount
	return b.Amount, nil
}

// Slash debits up to amount from the nomination on validator.
func (n *Nominator) Slash(validator core.Address, amount uint64) uint64 {
	b, ok := n.body.Nominations.Get(validator)
	if !ok {
		return 0
	}
	taken := min(amount, b.Amount)
	n.body.Nominations.Upsert(types.Bond{Owner: validator, Amount: b.Amount - taken})
	n.body.Total -= taken
	return taken
}
