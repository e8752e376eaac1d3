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
	"github.com/stakecore/stakecore/staking/nominator"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/staking/slashing"
	"github.com/stakecore/stakecore/staking/types"
)

// Offence is a reported misbehaviour of a validator.
type Offence struct {
	Offender core.Address
	// Exposure of the offender in the slash session. When nil the snapshot
	// taken at selection is used.
	Exposure  *types.Snapshot
	Reporters []core.Address
}

// slashHooks takes a slashed validator out of service.
type slashHooks struct {
	s       *Staker
	session uint32
}

func (h slashHooks) Deactivate(id core.Address) error {
	v, err := h.s.validators.Get(id)
	if err != nil {
		return err
	}
	if v == nil || !v.Deactivate() {
		return nil
	}
	if err := h.s.validators.Update(v); err != nil {
		return err
	}
	if _, err := h.s.pool.Remove(id); err != nil {
		return err
	}
	h.s.emit(events.Event{
		Type:      events.ValidatorDeactivated,
		Session:   h.session,
		Account:   id,
		Validator: id,
		Amount:    v.Total(),
	})
	return nil
}

func (h slashHooks) Disable(id core.Address) error {
	forceNew, err := h.s.session.DisableValidator(id)
	if err != nil {
		return errors.Wrap(err, "failed to disable validator")
	}
	if forceNew {
		logger.Info("disabled validators exceed threshold", "validator", id)
	}
	return nil
}

// OnOffence computes the slashes of offences committed in slashSession.
// fractions[i] is the fraction of exposure slashed for offences[i]. The
// slashes are applied at once or deferred by the slash defer duration.
func (s *Staker) OnOffence(offences []Offence, fractions []core.Perbill, slashSession uint32) error {
	logger.Debug("handling offences", "count", len(offences), "session", slashSession)

	var computed int
	err := s.atomic("on_offence", func() error {
		if len(offences) != len(fractions) {
			return reverts.New(reverts.KindInvalidArgument, "offences and fractions differ in length")
		}
		p, err := s.Params()
		if err != nil {
			return err
		}
		current, err := s.current()
		if err != nil {
			return err
		}
		if slashSession > current {
			return reverts.Newf(reverts.KindInvalidArgument, "session %d not started", slashSession)
		}
		ring, err := s.pool.BondedSessions()
		if err != nil {
			return err
		}
		if len(ring) == 0 || slashSession < ring[0] {
			logger.Debug("offence outside bonded window", "session", slashSession)
			return nil
		}
		invulnerables, err := s.invulnerables.Get()
		if err != nil {
			return errors.Wrap(err, "failed to get invulnerables")
		}

		windowStart := core.SaturatingSub32(current, p.BondedDuration)
		hooks := slashHooks{s: s, session: current}
		for i, o := range offences {
			if slices.Contains(invulnerables, o.Offender) {
				logger.Debug("skipping invulnerable offender", "validator", o.Offender)
				continue
			}
			exposure := o.Exposure
			if exposure == nil {
				if exposure, err = s.pool.Snapshot(slashSession, o.Offender); err != nil {
					return err
				}
			}
			if exposure == nil {
				logger.Warn("offender without exposure", "validator", o.Offender, "session", slashSession)
				continue
			}
			if fractions[i] > core.PerbillOne {
				return reverts.New(reverts.KindInvalidArgument, "slash fraction above one")
			}
			u, err := s.slashing.ComputeSlash(slashing.Params{
				Stash:            o.Offender,
				Fraction:         fractions[i],
				Exposure:         exposure,
				SlashSession:     slashSession,
				WindowStart:      windowStart,
				Now:              current,
				RewardProportion: p.SlashRewardFraction,
			}, hooks)
			if err != nil {
				return err
			}
			if u == nil {
				continue
			}
			s.emit(events.Event{
				Type:      events.SlashReported,
				Session:   slashSession,
				Account:   o.Offender,
				Validator: o.Offender,
				Amount:    uint64(fractions[i].Deconstruct()),
			})
			u.Reporters = slices.Clone(o.Reporters)
			computed++
			metricSlashes().AddWithLabel(1, map[string]string{"stage": "computed"})

			if p.SlashDeferDuration == 0 {
				if err := s.applySlash(u, current); err != nil {
					return err
				}
				continue
			}
			at := current + p.SlashDeferDuration
			if err := s.slashing.Queue(at, u); err != nil {
				return err
			}
			metricSlashes().AddWithLabel(1, map[string]string{"stage": "deferred"})
			s.emit(events.Event{
				Type:      events.SlashDeferred,
				Session:   at,
				Account:   o.Offender,
				Validator: o.Offender,
				Amount:    u.Total(),
			})
		}
		return nil
	})
	if err != nil {
		logger.Info("handle offences failed", "session", slashSession, "error", err)
		return err
	}

	logger.Info("handled offences", "session", slashSession, "slashes", computed)
	return nil
}

// applySlash debits a computed slash, pays the reporters and burns the rest.
func (s *Staker) applySlash(u *slashing.UnappliedSlash, session uint32) error {
	payout := u.Payout
	var total uint64

	note := func(account core.Address, slashed, missing uint64) {
		payout = core.SaturatingSub(payout, missing)
		if slashed == 0 {
			return
		}
		total += slashed
		s.emit(events.Event{
			Type:      events.Slashed,
			Session:   session,
			Account:   account,
			Validator: u.Validator,
			Amount:    slashed,
		})
	}

	slashed, missing, err := s.slashValidator(u.Validator, u.Own)
	if err != nil {
		return err
	}
	note(u.Validator, slashed, missing)

	for _, o := range u.Others {
		slashed, missing, err := s.slashNominator(o.Owner, u.Validator, o.Amount)
		if err != nil {
			return err
		}
		note(o.Owner, slashed, missing)
	}

	if err := s.stats.AddSlashed(total); err != nil {
		return err
	}

	rewards, sink := slashing.ReporterRewards(payout, total, u.Reporters)
	for _, r := range rewards {
		if err := s.currency.DepositCreating(r.Account, r.Value); err != nil {
			return errors.Wrap(err, "failed to reward reporter")
		}
		s.emit(events.Event{
			Type:      events.ReporterRewarded,
			Session:   session,
			Account:   r.Account,
			Validator: u.Validator,
			Amount:    r.Value,
		})
	}
	if sink > 0 {
		if err := s.currency.Burn(sink); err != nil {
			return errors.Wrap(err, "failed to burn slashed value")
		}
	}

	metricSlashes().AddWithLabel(1, map[string]string{"stage": "applied"})
	metricSlashedAmount().Add(int64(total))
	logger.Info("applied slash", "validator", u.Validator, "slashed", total, "reporters", len(rewards))
	return nil
}

// slashValidator debits the bond of the validator first and its unlocking
// chunks after.
func (s *Staker) slashValidator(id core.Address, amount uint64) (uint64, uint64, error) {
	if amount == 0 {
		return 0, 0, nil
	}
	var fromBond uint64
	v, err := s.validators.Get(id)
	if err != nil {
		return 0, 0, err
	}
	if v != nil {
		fromBond = v.SlashBond(amount)
		if err := s.saveValidator(v); err != nil {
			return 0, 0, err
		}
		if err := s.stats.Unlock(fromBond); err != nil {
			return 0, 0, err
		}
	}
	return s.slashUnlocking(id, amount, fromBond)
}

// slashNominator debits the nomination on validator first, the other
// nominations of the nominator next and its unlocking chunks last. Stake
// switched away from validator after the offence stays liable.
func (s *Staker) slashNominator(owner, validatorID core.Address, amount uint64) (uint64, uint64, error) {
	if amount == 0 {
		return 0, 0, nil
	}
	var fromBond uint64
	n, err := s.nominators.Get(owner)
	if err != nil {
		return 0, 0, err
	}
	if n != nil {
		targets := []core.Address{validatorID}
		for _, b := range n.Nominations() {
			if b.Owner != validatorID {
				targets = append(targets, b.Owner)
			}
		}
		for _, target := range targets {
			if fromBond == amount {
				break
			}
			taken, err := s.slashNomination(n, target, amount-fromBond)
			if err != nil {
				return 0, 0, err
			}
			fromBond += taken
		}
		if fromBond > 0 {
			if err := s.nominators.Update(n); err != nil {
				return 0, 0, err
			}
		}
	}
	return s.slashUnlocking(owner, amount, fromBond)
}

// slashNomination debits up to amount from the nomination of n on target and
// keeps the validator record in step.
func (s *Staker) slashNomination(n *nominator.Nominator, target core.Address, amount uint64) (uint64, error) {
	if _, ok := n.Nomination(target); !ok {
		return 0, nil
	}
	v, err := s.validators.Get(target)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, reverts.Invariant("nomination of %s on missing validator %s", n.ID(), target)
	}
	taken := n.Slash(target, amount)
	if taken == 0 {
		return 0, nil
	}
	if got := v.SlashNomination(n.ID(), taken); got != taken {
		return 0, reverts.Invariant("nomination of %s on %s diverged", n.ID(), target)
	}
	if err := s.saveValidator(v); err != nil {
		return 0, err
	}
	if err := s.stats.Unlock(taken); err != nil {
		return 0, err
	}
	return taken, nil
}

// slashUnlocking debits what the bond could not cover from the unlocking
// chunks of account. The returned missing part counts both the stake that no
// longer exists and the reserve the ledger could not take.
func (s *Staker) slashUnlocking(account core.Address, amount, fromBond uint64) (uint64, uint64, error) {
	fromChunks, err := s.unbonding.Slash(account, amount-fromBond)
	if err != nil {
		return 0, 0, err
	}
	debited := fromBond + fromChunks
	shortfall := amount - debited
	if shortfall > 0 {
		logger.Warn("stake short of slash", "account", account, "missing", shortfall)
	}
	if debited == 0 {
		return 0, shortfall, nil
	}
	slashed, missing, err := s.currency.SlashReserved(account, debited)
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to slash reserved balance")
	}
	if missing > 0 {
		logger.Warn("reserved balance short of slash", "account", account, "missing", missing)
	}
	return slashed, shortfall + missing, nil
}
