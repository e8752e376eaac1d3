// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/orderedset"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/staking/types"
)

type Status uint8

const (
	StatusUnknown Status = iota // 0 -> default value
	StatusActive                // Active -> selectable, in the bonded pool
	StatusIdle                  // Idle -> offline, out of the bonded pool
	StatusLeaving               // Leaving -> waiting in the exit queue
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusIdle:
		return "idle"
	case StatusLeaving:
		return "leaving"
	default:
		return "unknown"
	}
}

type body struct {
	Bond           uint64         // self bonded stake
	Nominators     orderedset.Set // nominations backing the validator
	Total          uint64         // bond plus every nomination
	Status         Status
	LeavingSession uint32 // the session the exit settles at, valid while leaving
}

type Validator struct {
	id   core.Address
	body *body
}

func newValidator(id core.Address, b *body) *Validator {
	return &Validator{id: id, body: b}
}

func (v *Validator) ID() core.Address {
	return v.id
}

func (v *Validator) Bond() uint64 {
	return v.body.Bond
}

func (v *Validator) Total() uint64 {
	return v.body.Total
}

func (v *Validator) Status() Status {
	return v.body.Status
}

func (v *Validator) LeavingSession() uint32 {
	return v.body.LeavingSession
}

func (v *Validator) IsActive() bool {
	return v.body.Status == StatusActive
}

func (v *Validator) IsIdle() bool {
	return v.body.Status == StatusIdle
}

func (v *Validator) IsLeaving() bool {
	return v.body.Status == StatusLeaving
}

// Nominators returns the nominations in owner order.
func (v *Validator) Nominators() []types.Bond {
	return v.body.Nominators.Items()
}

func (v *Validator) NominatorCount() int {
	return v.body.Nominators.Len()
}

func (v *Validator) Nomination(owner core.Address) (uint64, bool) {
	b, ok := v.body.Nominators.Get(owner)
	return b.Amount, ok
}

// Snapshot freezes the current exposure of the validator.
func (v *Validator) Snapshot() *types.Snapshot {
	return &types.Snapshot{
		Bond:       v.body.Bond,
		Nominators: v.body.Nominators.Items(),
		Total:      v.body.Total,
	}
}

// CheckTotal verifies total equals bond plus every nomination.
func (v *Validator) CheckTotal() error {
	sum, ok := core.CheckedAdd(v.body.Bond, v.body.Nominators.Sum())
	if !ok || sum != v.body.Total {
		return reverts.Invariant("validator %s total %d does not match bond %d plus nominations", v.id, v.body.Total, v.body.Bond)
	}
	return nil
}

// BondMore raises the self bond and returns the totals before and after.
func (v *Validator) BondMore(more uint64) (uint64, uint64, error) {
	if v.IsLeaving() {
		return 0, 0, reverts.New(reverts.KindStateConflict, "validator is leaving")
	}
	bond, ok := core.CheckedAdd(v.body.Bond, more)
	if !ok {
		return 0, 0, reverts.New(reverts.KindInvalidArgument, "bond overflow")
	}
	total, ok := core.CheckedAdd(v.body.Total, more)
	if !ok {
		return 0, 0, reverts.New(reverts.KindInvalidArgument, "total overflow")
	}
	before := v.body.Total
	v.body.Bond = bond
	v.body.Total = total
	return before, total, nil
}

// BondLess lowers the self bond. The remaining bond must not fall below minBond.
func (v *Validator) BondLess(less, minBond uint64) (uint64, uint64, error) {
	if v.IsLeaving() {
		return 0, 0, reverts.New(reverts.KindStateConflict, "validator is leaving")
	}
	bond, ok := core.CheckedSub(v.body.Bond, less)
	if !ok {
		return 0, 0, reverts.New(reverts.KindUnderflow, "bond less than requested decrease")
	}
	if bond < minBond {
		return 0, 0, reverts.New(reverts.KindBelowMinimum, "bond below minimum, exit instead")
	}
	before := v.body.Total
	v.body.Bond = bond
	v.body.Total -= less
	return before, v.body.Total, nil
}

func (v *Validator) GoOffline() error {
	switch v.body.Status {
	case StatusLeaving:
		return reverts.New(reverts.KindStateConflict, "validator is leaving")
	case StatusIdle:
		return reverts.New(reverts.KindStateConflict, "validator already offline")
	}
	v.body.Status = StatusIdle
	return nil
}

func (v *Validator) GoOnline() error {
	switch v.body.Status {
	case StatusLeaving:
		return reverts.New(reverts.KindStateConflict, "validator is leaving")
	case StatusActive:
		return reverts.New(reverts.KindStateConflict, "validator already online")
	}
	v.body.Status = StatusActive
	return nil
}

// Leave schedules the exit to settle at session.
func (v *Validator) Leave(session uint32) error {
	if v.IsLeaving() {
		return reverts.New(reverts.KindStateConflict, "validator already leaving")
	}
	v.body.Status = StatusLeaving
	v.body.LeavingSession = session
	return nil
}

// Deactivate takes an active validator offline. Leaving validators keep their state.
func (v *Validator) Deactivate() bool {
	if v.body.Status != StatusActive {
		return false
	}
	v.body.Status = StatusIdle
	return true
}

// AddNomination inserts a new nomination, bounded by maxNominators.
func (v *Validator) AddNomination(owner core.Address, amount uint64, maxNominators uint64) error {
	if v.IsLeaving() {
		return reverts.New(reverts.KindStateConflict, "validator is leaving")
	}
	if v.body.Nominators.Contains(owner) {
		return reverts.New(reverts.KindAlreadyExists, "nomination already exists")
	}
	if uint64(v.body.Nominators.Len()) >= maxNominators {
		return reverts.New(reverts.KindCardinalityExceeded, "too many nominators")
	}
	total, ok := core.CheckedAdd(v.body.Total, amount)
	if !ok {
		return reverts.New(reverts.KindInvalidArgument, "total overflow")
	}
	v.body.Nominators.Insert(types.Bond{Owner: owner, Amount: amount})
	v.body.Total = total
	return nil
}

// IncreaseNomination raises the nomination of owner by more.
func (v *Validator) IncreaseNomination(owner core.Address, more uint64) error {
	if v.IsLeaving() {
		return reverts.New(reverts.KindStateConflict, "validator is leaving")
	}
	b, ok := v.body.Nominators.Get(owner)
	if !ok {
		return reverts.New(reverts.KindNotFound, "nomination not found")
	}
	amount, ok := core.CheckedAdd(b.Amount, more)
	if !ok {
		return reverts.New(reverts.KindInvalidArgument, "nomination overflow")
	}
	total, ok := core.CheckedAdd(v.body.Total, more)
	if !ok {
		return reverts.New(reverts.KindInvalidArgument, "total overflow")
	}
	v.body.Nominators.Upsert(types.Bond{Owner: owner, Amount: amount})
	v.body.Total = total
	return nil
}

// DecreaseNomination lowers the nomination of owner by less.
func (v *Validator) DecreaseNomination(owner core.Address, less uint64) error {
	b, ok := v.body.Nominators.Get(owner)
	if !ok {
		return reverts.New(reverts.KindNotFound, "nomination not found")
	}
	amount, ok := core.CheckedSub(b.Amount, less)
	if !ok {
		return reverts.New(reverts.KindUnderflow, "nomination less than requested decrease")
	}
	v.body.Nominators.Upsert(types.Bond{Owner: owner, Amount: amount})
	v.body.Total -= less
	return nil
}

// RemoveNomination deletes the nomination of owner and returns its amount.
func (v *Validator) RemoveNomination(owner core.Address) (uint64, error) {
	b, ok := v.body.Nominators.Remove(owner)
	if !ok {
		return 0, reverts.New(reverts.KindNotFound, "nomination not found")
	}
	v.body.Total -= b.Amount
	return b.Amount, nil
}

// SlashBond debits up to amount from the self bond and returns what was taken.
func (v *Validator) SlashBond(amount uint64) uint64 {
	taken := min(amount, v.body.Bond)
	v.body.Bond -= taken
	v.body.Total -= taken
	return taken
}

// SlashNomination debits up to amount from the nomination of owner.
// A nomination slashed to zero stays in place until revoked.
func (v *Validator) SlashNomination(owner core.Address, amount uint64) uint64 {
	b, ok := v.body.Nominators.Get(owner)
	if !ok {
		return 0
	}
	taken := min(amount, b.Amount)
	v.body.Nominators.Upsert(types.Bond{Owner: owner, Amount: b.Amount - taken})
	v.body.Total -= taken
	return taken
}
