// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/events"
	"github.com/stakecore/stakecore/staking/reverts"
)

// SetInvulnerables replaces the validators that are never slashed.
func (s *Staker) SetInvulnerables(origin core.Address, ids []core.Address) error {
	err := s.atomic("set_invulnerables", func() error {
		if err := s.auth.Authorize(origin); err != nil {
			return err
		}
		sorted := slices.Clone(ids)
		slices.SortFunc(sorted, core.Address.Compare)
		sorted = slices.Compact(sorted)
		if len(sorted) == 0 {
			s.invulnerables.Clear()
		} else if err := s.invulnerables.Set(sorted); err != nil {
			return errors.Wrap(err, "failed to set invulnerables")
		}
		s.emit(events.Event{Type: events.InvulnerablesSet, Account: origin, After: uint64(len(sorted))})
		return nil
	})
	if err != nil {
		logger.Info("set invulnerables failed", "origin", origin, "error", err)
		return err
	}
	logger.Info("set invulnerables", "count", len(ids))
	return nil
}

// SetTotalSelected sets the number of validators selected per session.
func (s *Staker) SetTotalSelected(origin core.Address, n uint32) error {
	err := s.atomic("set_total_selected", func() error {
		if err := s.auth.Authorize(origin); err != nil {
			return err
		}
		if n < MinTotalSelected {
			return reverts.Newf(reverts.KindBelowMinimum, "total selected below %d", MinTotalSelected)
		}
		before, err := s.params.totalSelected.Get(s.sctx)
		if err != nil {
			return errors.Wrap(err, "failed to get total selected")
		}
		if err := s.params.totalSelected.Set(s.sctx, uint64(n)); err != nil {
			return errors.Wrap(err, "failed to set total selected")
		}
		s.emit(events.Event{Type: events.TotalSelectedSet, Account: origin, Before: before, After: uint64(n)})
		return nil
	})
	if err != nil {
		logger.Info("set total selected failed", "origin", origin, "error", err)
		return err
	}
	logger.Info("set total selected", "total", n)
	return nil
}

// SetCommission sets the validator commission.
func (s *Staker) SetCommission(origin core.Address, commission core.Perbill) error {
	err := s.atomic("set_commission", func() error {
		if err := s.auth.Authorize(origin); err != nil {
			return err
		}
		if commission > core.PerbillOne {
			return reverts.New(reverts.KindInvalidArgument, "commission above one")
		}
		before, err := s.params.commission.Get(s.sctx)
		if err != nil {
			return errors.Wrap(err, "failed to get commission")
		}
		if err := s.params.commission.Set(s.sctx, uint64(commission)); err != nil {
			return errors.Wrap(err, "failed to set commission")
		}
		s.emit(events.Event{Type: events.CommissionSet, Account: origin, Before: before, After: uint64(commission)})
		return nil
	})
	if err != nil {
		logger.Info("set commission failed", "origin", origin, "error", err)
		return err
	}
	logger.Info("set commission", "commission", commission)
	return nil
}

// CancelDeferredSlash drops the slashes of validators deferred to session.
func (s *Staker) CancelDeferredSlash(origin core.Address, session uint32, validators []core.Address) error {
	var cancelled int
	err := s.atomic("cancel_deferred_slash", func() error {
		if err := s.auth.Authorize(origin); err != nil {
			return err
		}
		dropped, err := s.slashing.Cancel(session, validators)
		if err != nil {
			return err
		}
		for _, u := range dropped {
			s.emit(events.Event{
				Type:      events.SlashCancelled,
				Session:   session,
				Account:   origin,
				Validator: u.Validator,
				Amount:    u.Total(),
			})
		}
		cancelled = len(dropped)
		metricSlashes().AddWithLabel(int64(cancelled), map[string]string{"stage": "cancelled"})
		return nil
	})
	if err != nil {
		logger.Info("cancel deferred slash failed", "origin", origin, "session", session, "error", err)
		return err
	}
	logger.Info("cancelled deferred slashes", "session", session, "count", cancelled)
	return nil
}
