// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/events"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/staking/validator"
)

func (s *Staker) lockedTotal() (uint64, error) {
	locked, err := s.stats.LockedStake()
	if err != nil {
		return 0, err
	}
	if !locked.IsUint64() {
		return 0, reverts.Invariant("locked total exceeds 64 bits")
	}
	return locked.Uint64(), nil
}

// saveValidator persists v and refreshes its pool entry when active.
func (s *Staker) saveValidator(v *validator.Validator) error {
	if err := s.validators.Update(v); err != nil {
		return err
	}
	if v.IsActive() {
		return s.pool.Upsert(v.ID(), v.Total())
	}
	return nil
}

// JoinValidators registers account as an active validator bonding bond.
func (s *Staker) JoinValidators(account core.Address, bond uint64) error {
	logger.Debug("joining validators", "account", account, "bond", bond)

	err := s.atomic("join_validators", func() error {
		p, err := s.Params()
		if err != nil {
			return err
		}
		if bond < p.MinValidatorStake {
			return reverts.New(reverts.KindBelowMinimum, "bond below minimum validator stake")
		}
		if exists, err := s.validators.Exists(account); err != nil {
			return err
		} else if exists {
			return reverts.New(reverts.KindAlreadyExists, "account is already a validator")
		}
		if exists, err := s.nominators.Exists(account); err != nil {
			return err
		} else if exists {
			return reverts.New(reverts.KindAlreadyExists, "account is a nominator")
		}

		if err := s.currency.Reserve(account, bond); err != nil {
			return err
		}
		if _, err := s.validators.Add(account, bond); err != nil {
			return err
		}
		if err := s.pool.Upsert(account, bond); err != nil {
			return err
		}
		before, err := s.lockedTotal()
		if err != nil {
			return err
		}
		if err := s.stats.Lock(bond); err != nil {
			return err
		}
		s.emit(events.Event{
			Type:      events.JoinedValidatorCandidates,
			Account:   account,
			Validator: account,
			Amount:    bond,
			Before:    before,
			After:     before + bond,
		})
		return nil
	})
	if err != nil {
		logger.Info("join validators failed", "account", account, "error", err)
		return err
	}

	logger.Info("joined validators", "account", account)
	return nil
}

// GoOffline takes an active validator out of selection.
func (s *Staker) GoOffline(account core.Address) error {
	logger.Debug("going offline", "validator", account)

	err := s.atomic("go_offline", func() error {
		v, err := s.validators.MustGet(account)
		if err != nil {
			return err
		}
		if err := v.GoOffline(); err != nil {
			return err
		}
		if err := s.validators.Update(v); err != nil {
			return err
		}
		if _, err := s.pool.Remove(account); err != nil {
			return err
		}
		s.emit(events.Event{Type: events.ValidatorWentOffline, Account: account, Validator: account, After: v.Total()})
		return nil
	})
	if err != nil {
		logger.Info("go offline failed", "validator", account, "error", err)
		return err
	}

	logger.Info("went offline", "validator", account)
	return nil
}

// GoOnline puts an idle validator back into selection.
func (s *Staker) GoOnline(account core.Address) error {
	logger.Debug("going online", "validator", account)

	err := s.atomic("go_online", func() error {
		v, err := s.validators.MustGet(account)
		if err != nil {
			return err
		}
		if err := v.GoOnline(); err != nil {
			return err
		}
		if err := s.saveValidator(v); err != nil {
			return err
		}
		s.emit(events.Event{Type: events.ValidatorBackOnline, Account: account, Validator: account, After: v.Total()})
		return nil
	})
	if err != nil {
		logger.Info("go online failed", "validator", account, "error", err)
		return err
	}

	logger.Info("went online", "validator", account)
	return nil
}

// ExitValidators schedules the validator to leave once the bonded duration passed.
func (s *Staker) ExitValidators(account core.Address) error {
	logger.Debug("exiting validators", "validator", account)

	err := s.atomic("exit_validators", func() error {
		p, err := s.Params()
		if err != nil {
			return err
		}
		current, err := s.current()
		if err != nil {
			return err
		}
		v, err := s.validators.MustGet(account)
		if err != nil {
			return err
		}
		at := current + p.BondedDuration
		if err := v.Leave(at); err != nil {
			return err
		}
		if err := s.validators.Update(v); err != nil {
			return err
		}
		if _, err := s.pool.Remove(account); err != nil {
			return err
		}
		if err := s.pool.QueueExit(account, at); err != nil {
			return err
		}
		s.emit(events.Event{
			Type:      events.ValidatorScheduledExit,
			Session:   at,
			Account:   account,
			Validator: account,
			Before:    v.Total(),
			After:     v.Total(),
		})
		return nil
	})
	if err != nil {
		logger.Info("exit validators failed", "validator", account, "error", err)
		return err
	}

	logger.Info("scheduled validator exit", "validator", account)
	return nil
}

// ValidatorBondMore raises the self bond of the validator.
func (s *Staker) ValidatorBondMore(account core.Address, more uint64) error {
	logger.Debug("validator bonding more", "validator", account, "amount", more)

	err := s.atomic("validator_bond_more", func() error {
		if more == 0 {
			return reverts.New(reverts.KindInvalidArgument, "amount must be positive")
		}
		v, err := s.validators.MustGet(account)
		if err != nil {
			return err
		}
		before, after, err := v.BondMore(more)
		if err != nil {
			return err
		}
		if err := s.currency.Reserve(account, more); err != nil {
			return err
		}
		if err := s.saveValidator(v); err != nil {
			return err
		}
		if err := s.stats.Lock(more); err != nil {
			return err
		}
		s.emit(events.Event{
			Type:      events.ValidatorBondedMore,
			Account:   account,
			Validator: account,
			Amount:    more,
			Before:    before,
			After:     after,
		})
		return nil
	})
	if err != nil {
		logger.Info("validator bond more failed", "validator", account, "error", err)
		return err
	}

	logger.Info("validator bonded more", "validator", account, "amount", more)
	return nil
}

// ValidatorBondLess lowers the self bond. The amount stays locked until
// the bonded duration passed.
func (s *Staker) ValidatorBondLess(account core.Address, less uint64) error {
	logger.Debug("validator bonding less", "validator", account, "amount", less)

	err := s.atomic("validator_bond_less", func() error {
		if less == 0 {
			return reverts.New(reverts.KindInvalidArgument, "amount must be positive")
		}
		p, err := s.Params()
		if err != nil {
			return err
		}
		current, err := s.current()
		if err != nil {
			return err
		}
		v, err := s.validators.MustGet(account)
		if err != nil {
			return err
		}
		before, after, err := v.BondLess(less, p.MinValidatorStake)
		if err != nil {
			return err
		}
		if err := s.saveValidator(v); err != nil {
			return err
		}
		if err := s.unbonding.Schedule(account, less, current+p.BondedDuration); err != nil {
			return err
		}
		if err := s.stats.Unlock(less); err != nil {
			return errors.Wrap(err, "validator bond less")
		}
		s.emit(events.Event{
			Type:      events.ValidatorBondedLess,
			Account:   account,
			Validator: account,
			Amount:    less,
			Before:    before,
			After:     after,
		})
		return nil
	})
	if err != nil {
		logger.Info("validator bond less failed", "validator", account, "error", err)
		return err
	}

	logger.Info("validator bonded less", "validator", account, "amount", less)
	return nil
}
