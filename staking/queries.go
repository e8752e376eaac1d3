// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/nominator"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/staking/slashing"
	"github.com/stakecore/stakecore/staking/types"
	"github.com/stakecore/stakecore/staking/validator"
)

// Validator returns the validator record, nil if none.
func (s *Staker) Validator(id core.Address) (*validator.Validator, error) {
	return s.validators.Get(id)
}

func (s *Staker) ValidatorIDs() ([]core.Address, error) {
	return s.validators.IDs()
}

// Nominator returns the nominator record, nil if none.
func (s *Staker) Nominator(id core.Address) (*nominator.Nominator, error) {
	return s.nominators.Get(id)
}

func (s *Staker) NominatorIDs() ([]core.Address, error) {
	return s.nominators.IDs()
}

// BondedPool returns the active validators with their totals.
func (s *Staker) BondedPool() ([]types.Bond, error) {
	set, err := s.pool.Bonded()
	if err != nil {
		return nil, err
	}
	return set.Items(), nil
}

// ExitQueue returns the leaving validators with the session they leave at.
func (s *Staker) ExitQueue() ([]types.Bond, error) {
	set, err := s.pool.Exits()
	if err != nil {
		return nil, err
	}
	return set.Items(), nil
}

func (s *Staker) CurrentSession() (uint32, error) {
	return s.current()
}

// BondedSessions returns the sessions still inside the bonded window.
func (s *Staker) BondedSessions() ([]uint32, error) {
	return s.pool.BondedSessions()
}

func (s *Staker) Selected(session uint32) ([]core.Address, error) {
	return s.pool.Selected(session)
}

// Snapshot returns the exposure of validator taken at selection of session.
func (s *Staker) Snapshot(session uint32, id core.Address) (*types.Snapshot, error) {
	return s.pool.Snapshot(session, id)
}

func (s *Staker) Staked(session uint32) (uint64, error) {
	return s.pool.Staked(session)
}

// Unlocking returns the unlocking chunks of account.
func (s *Staker) Unlocking(account core.Address) ([]types.UnlockChunk, error) {
	return s.unbonding.Chunks(account)
}

func (s *Staker) Unapplied(session uint32) ([]*slashing.UnappliedSlash, error) {
	return s.slashing.Unapplied(session)
}

func (s *Staker) Spans(account core.Address) (*slashing.Spans, error) {
	return s.slashing.Spans(account)
}

func (s *Staker) SpanRecord(account core.Address, index uint32) (*slashing.SpanRecord, error) {
	return s.slashing.SpanRecord(account, index)
}

func (s *Staker) Points(session uint32, id core.Address) (uint32, error) {
	return s.rewards.Points(session, id)
}

func (s *Staker) TotalPoints(session uint32) (uint32, error) {
	return s.rewards.TotalPoints(session)
}

func (s *Staker) RewardPot(session uint32) (uint64, error) {
	return s.rewards.Pot(session)
}

func (s *Staker) Invulnerables() ([]core.Address, error) {
	ids, err := s.invulnerables.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get invulnerables")
	}
	return ids, nil
}

// Totals returns the locked stake and the running slashed and rewarded sums.
func (s *Staker) Totals() (locked, slashed, rewarded uint64, err error) {
	if locked, err = s.lockedTotal(); err != nil {
		return
	}
	sl, err := s.stats.Slashed()
	if err != nil {
		return
	}
	rw, err := s.stats.Rewarded()
	if err != nil {
		return
	}
	return locked, sl.Uint64(), rw.Uint64(), nil
}

// CheckInvariants cross-checks the validator, nominator and pool records
// against each other and the locked total.
func (s *Staker) CheckInvariants() error {
	pool, err := s.pool.Bonded()
	if err != nil {
		return err
	}
	ids, err := s.validators.IDs()
	if err != nil {
		return err
	}

	var sum uint64
	active := 0
	for _, id := range ids {
		v, err := s.validators.MustGet(id)
		if err != nil {
			return err
		}
		if err := v.CheckTotal(); err != nil {
			return err
		}
		var ok bool
		if sum, ok = core.CheckedAdd(sum, v.Total()); !ok {
			return reverts.Invariant("validator totals overflow")
		}

		entry, inPool := pool.Get(id)
		switch {
		case v.IsActive() && !inPool:
			return reverts.Invariant("active validator %s missing from pool", id)
		case v.IsActive() && entry.Amount != v.Total():
			return reverts.Invariant("pool total of %s is %d, want %d", id, entry.Amount, v.Total())
		case !v.IsActive() && inPool:
			return reverts.Invariant("inactive validator %s in pool", id)
		}
		if v.IsActive() {
			active++
		}

		for _, b := range v.Nominators() {
			n, err := s.nominators.Get(b.Owner)
			if err != nil {
				return err
			}
			if n == nil {
				return reverts.Invariant("validator %s backed by missing nominator %s", id, b.Owner)
			}
			if amount, ok := n.Nomination(id); !ok || amount != b.Amount {
				return reverts.Invariant("nomination of %s on %s diverged", b.Owner, id)
			}
		}
	}
	if pool.Len() != active {
		return reverts.Invariant("pool holds %d entries for %d active validators", pool.Len(), active)
	}

	nids, err := s.nominators.IDs()
	if err != nil {
		return err
	}
	for _, id := range nids {
		n, err := s.nominators.MustGet(id)
		if err != nil {
			return err
		}
		if err := n.CheckTotal(); err != nil {
			return err
		}
		for _, b := range n.Nominations() {
			v, err := s.validators.Get(b.Owner)
			if err != nil {
				return err
			}
			if v == nil {
				return reverts.Invariant("nominator %s backs missing validator %s", id, b.Owner)
			}
			if amount, ok := v.Nomination(id); !ok || amount != b.Amount {
				return reverts.Invariant("nomination of %s on %s diverged", id, b.Owner)
			}
		}
	}

	locked, err := s.lockedTotal()
	if err != nil {
		return err
	}
	if locked != sum {
		return reverts.Invariant("locked total %d differs from validator totals %d", locked, sum)
	}
	return nil
}

// CheckSession verifies the staked total of session matches its snapshots.
// It only holds until the session ends and its snapshots are purged.
func (s *Staker) CheckSession(session uint32) error {
	selected, err := s.pool.Selected(session)
	if err != nil {
		return err
	}
	var sum uint64
	for _, id := range selected {
		snap, err := s.pool.Snapshot(session, id)
		if err != nil {
			return err
		}
		if snap == nil {
			return reverts.Invariant("selected validator %s has no snapshot in session %d", id, session)
		}
		sum = core.SaturatingAdd(sum, snap.Total)
	}
	staked, err := s.pool.Staked(session)
	if err != nil {
		return err
	}
	if staked != sum {
		return reverts.Invariant("staked %d in session %d differs from snapshots %d", staked, session, sum)
	}
	return nil
}
