// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/events"
	"github.com/stakecore/stakecore/staking/nominator"
	"github.com/stakecore/stakecore/staking/reverts"
)

// Nominate backs validator with amount from account. The first nomination
// makes account a nominator.
func (s *Staker) Nominate(account, target core.Address, amount uint64) error {
	logger.Debug("nominating", "nominator", account, "validator", target, "amount", amount)

	err := s.atomic("nominate", func() error {
		p, err := s.Params()
		if err != nil {
			return err
		}
		if amount < p.MinNomination {
			return reverts.New(reverts.KindBelowMinimum, "nomination below minimum")
		}
		if exists, err := s.validators.Exists(account); err != nil {
			return err
		} else if exists {
			return reverts.New(reverts.KindAlreadyExists, "account is a validator")
		}
		v, err := s.validators.MustGet(target)
		if err != nil {
			return err
		}
		n, err := s.nominators.GetOrNew(account)
		if err != nil {
			return err
		}
		if total, ok := core.CheckedAdd(n.Total(), amount); !ok || total < p.MinNominatorStake {
			return reverts.New(reverts.KindBelowMinimum, "nominator stake below minimum")
		}

		if err := n.Add(target, amount, uint64(p.MaxValidatorsPerNominator)); err != nil {
			return err
		}
		before := v.Total()
		if err := v.AddNomination(account, amount, uint64(p.MaxNominatorsPerValidator)); err != nil {
			return err
		}
		if err := s.currency.Reserve(account, amount); err != nil {
			return err
		}
		if err := s.nominators.Update(n); err != nil {
			return err
		}
		if err := s.saveValidator(v); err != nil {
			return err
		}
		if err := s.stats.Lock(amount); err != nil {
			return err
		}
		s.emit(events.Event{
			Type:      events.Nomination,
			Account:   account,
			Validator: target,
			Amount:    amount,
			Before:    before,
			After:     v.Total(),
		})
		return nil
	})
	if err != nil {
		logger.Info("nominate failed", "nominator", account, "validator", target, "error", err)
		return err
	}

	logger.Info("nominated", "nominator", account, "validator", target)
	return nil
}

// revoke removes the nomination of n on target and schedules its amount to unlock.
func (s *Staker) revoke(n *nominator.Nominator, target core.Address, unlockAt uint32) (uint64, error) {
	amount, err := n.Remove(target)
	if err != nil {
		return 0, err
	}
	v, err := s.validators.Get(target)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, reverts.Invariant("nomination of %s on missing validator %s", n.ID(), target)
	}
	before := v.Total()
	if _, err := v.RemoveNomination(n.ID()); err != nil {
		return 0, reverts.Invariant("validator %s lost nomination of %s", target, n.ID())
	}
	if err := s.saveValidator(v); err != nil {
		return 0, err
	}
	if err := s.unbonding.Schedule(n.ID(), amount, unlockAt); err != nil {
		return 0, err
	}
	if err := s.stats.Unlock(amount); err != nil {
		return 0, err
	}
	s.emit(events.Event{
		Type:      events.NominationRevoked,
		Session:   unlockAt,
		Account:   n.ID(),
		Validator: target,
		Amount:    amount,
		Before:    before,
		After:     v.Total(),
	})
	return amount, nil
}

func (s *Staker) unlockSession() (uint32, error) {
	p, err := s.Params()
	if err != nil {
		return 0, err
	}
	current, err := s.current()
	if err != nil {
		return 0, err
	}
	return current + p.BondedDuration, nil
}

// RevokeNomination withdraws the nomination of account on target. The last
// revoke removes the nominator.
func (s *Staker) RevokeNomination(account, target core.Address) error {
	logger.Debug("revoking nomination", "nominator", account, "validator", target)

	err := s.atomic("revoke_nomination", func() error {
		unlockAt, err := s.unlockSession()
		if err != nil {
			return err
		}
		n, err := s.nominators.MustGet(account)
		if err != nil {
			return err
		}
		if _, err := s.revoke(n, target, unlockAt); err != nil {
			return err
		}
		if err := s.nominators.Update(n); err != nil {
			return err
		}
		if n.IsEmpty() {
			s.emit(events.Event{Type: events.NominatorLeft, Account: account})
		}
		return nil
	})
	if err != nil {
		logger.Info("revoke nomination failed", "nominator", account, "validator", target, "error", err)
		return err
	}

	logger.Info("revoked nomination", "nominator", account, "validator", target)
	return nil
}

// NominatorBondMore raises the nomination of account on target.
func (s *Staker) NominatorBondMore(account, target core.Address, more uint64) error {
	logger.Debug("nominator bonding more", "nominator", account, "validator", target, "amount", more)

	err := s.atomic("nominator_bond_more", func() error {
		if more == 0 {
			return reverts.New(reverts.KindInvalidArgument, "amount must be positive")
		}
		n, err := s.nominators.MustGet(account)
		if err != nil {
			return err
		}
		if _, err := n.Increase(target, more); err != nil {
			return err
		}
		v, err := s.validators.MustGet(target)
		if err != nil {
			return err
		}
		before := v.Total()
		if err := v.IncreaseNomination(account, more); err != nil {
			return err
		}
		if err := s.currency.Reserve(account, more); err != nil {
			return err
		}
		if err := s.nominators.Update(n); err != nil {
			return err
		}
		if err := s.saveValidator(v); err != nil {
			return err
		}
		if err := s.stats.Lock(more); err != nil {
			return err
		}
		s.emit(events.Event{
			Type:      events.NominationIncreased,
			Account:   account,
			Validator: target,
			Amount:    more,
			Before:    before,
			After:     v.Total(),
		})
		return nil
	})
	if err != nil {
		logger.Info("nominator bond more failed", "nominator", account, "validator", target, "error", err)
		return err
	}

	logger.Info("nominator bonded more", "nominator", account, "validator", target, "amount", more)
	return nil
}

// NominatorBondLess lowers the nomination of account on target. The
// amount stays locked until the bonded duration passed.
func (s *Staker) NominatorBondLess(account, target core.Address, less uint64) error {
	logger.Debug("nominator bonding less", "nominator", account, "validator", target, "amount", less)

	err := s.atomic("nominator_bond_less", func() error {
		if less == 0 {
			return reverts.New(reverts.KindInvalidArgument, "amount must be positive")
		}
		p, err := s.Params()
		if err != nil {
			return err
		}
		unlockAt, err := s.unlockSession()
		if err != nil {
			return err
		}
		n, err := s.nominators.MustGet(account)
		if err != nil {
			return err
		}
		remaining, err := n.Decrease(target, less)
		if err != nil {
			return err
		}
		if remaining < p.MinNomination {
			return reverts.New(reverts.KindBelowMinimum, "nomination below minimum, revoke instead")
		}
		if n.Total() < p.MinNominatorStake {
			return reverts.New(reverts.KindBelowMinimum, "nominator stake below minimum")
		}
		v, err := s.validators.MustGet(target)
		if err != nil {
			return err
		}
		before := v.Total()
		if err := v.DecreaseNomination(account, less); err != nil {
			return err
		}
		if err := s.nominators.Update(n); err != nil {
			return err
		}
		if err := s.saveValidator(v); err != nil {
			return err
		}
		if err := s.unbonding.Schedule(account, less, unlockAt); err != nil {
			return err
		}
		if err := s.stats.Unlock(less); err != nil {
			return err
		}
		s.emit(events.Event{
			Type:      events.NominationDecreased,
			Account:   account,
			Validator: target,
			Amount:    less,
			Before:    before,
			After:     v.Total(),
		})
		return nil
	})
	if err != nil {
		logger.Info("nominator bond less failed", "nominator", account, "validator", target, "error", err)
		return err
	}

	logger.Info("nominator bonded less", "nominator", account, "validator", target, "amount", less)
	return nil
}

// SwitchNomination moves the whole nomination of account from one validator to another.
func (s *Staker) SwitchNomination(account, from, to core.Address) error {
	logger.Debug("switching nomination", "nominator", account, "from", from, "to", to)

	err := s.atomic("switch_nomination", func() error {
		if from == to {
			return reverts.New(reverts.KindInvalidArgument, "cannot switch to the same validator")
		}
		p, err := s.Params()
		if err != nil {
			return err
		}
		n, err := s.nominators.MustGet(account)
		if err != nil {
			return err
		}
		amount, err := n.Remove(from)
		if err != nil {
			return err
		}
		vFrom, err := s.validators.MustGet(from)
		if err != nil {
			return err
		}
		if _, err := vFrom.RemoveNomination(account); err != nil {
			return reverts.Invariant("validator %s lost nomination of %s", from, account)
		}
		vTo, err := s.validators.MustGet(to)
		if err != nil {
			return err
		}
		if err := n.Add(to, amount, uint64(p.MaxValidatorsPerNominator)); err != nil {
			return err
		}
		before := vTo.Total()
		if err := vTo.AddNomination(account, amount, uint64(p.MaxNominatorsPerValidator)); err != nil {
			return err
		}
		if err := s.nominators.Update(n); err != nil {
			return err
		}
		if err := s.saveValidator(vFrom); err != nil {
			return err
		}
		if err := s.saveValidator(vTo); err != nil {
			return err
		}
		s.emit(events.Event{
			Type:      events.NominationMoved,
			Account:   account,
			Validator: to,
			Amount:    amount,
			Before:    before,
			After:     vTo.Total(),
		})
		return nil
	})
	if err != nil {
		logger.Info("switch nomination failed", "nominator", account, "error", err)
		return err
	}

	logger.Info("switched nomination", "nominator", account, "from", from, "to", to)
	return nil
}

// LeaveNominators revokes every nomination of account.
func (s *Staker) LeaveNominators(account core.Address) error {
	logger.Debug("leaving nominators", "nominator", account)

	err := s.atomic("leave_nominators", func() error {
		unlockAt, err := s.unlockSession()
		if err != nil {
			return err
		}
		n, err := s.nominators.MustGet(account)
		if err != nil {
			return err
		}
		var total uint64
		for _, b := range n.Nominations() {
			amount, err := s.revoke(n, b.Owner, unlockAt)
			if err != nil {
				return err
			}
			total += amount
		}
		if err := s.nominators.Update(n); err != nil {
			return err
		}
		s.emit(events.Event{Type: events.NominatorLeft, Account: account, Amount: total})
		return nil
	})
	if err != nil {
		logger.Info("leave nominators failed", "nominator", account, "error", err)
		return err
	}

	logger.Info("left nominators", "nominator", account)
	return nil
}

// WithdrawUnbonded releases every matured unlock chunk of account back to
// its free balance and returns the amount released.
func (s *Staker) WithdrawUnbonded(account core.Address) (uint64, error) {
	logger.Debug("withdrawing unbonded", "account", account)

	var released uint64
	err := s.atomic("withdraw_unbonded", func() error {
		current, err := s.current()
		if err != nil {
			return err
		}
		released, err = s.unbonding.Withdraw(account, current)
		if err != nil {
			return err
		}
		if released == 0 {
			return nil
		}
		leftover, err := s.currency.Unreserve(account, released)
		if err != nil {
			return err
		}
		if leftover > 0 {
			logger.Warn("unreserve fell short", "account", account, "missing", leftover)
		}
		s.emit(events.Event{Type: events.Withdrawn, Session: current, Account: account, Amount: released})
		return nil
	})
	if err != nil {
		logger.Info("withdraw unbonded failed", "account", account, "error", err)
		return 0, err
	}

	logger.Info("withdrew unbonded", "account", account, "amount", released)
	return released, nil
}
