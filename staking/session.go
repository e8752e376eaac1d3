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
	"github.com/stakecore/stakecore/staking/rewards"
	"github.com/stakecore/stakecore/staking/types"
)

// NewSession selects the validators of session, snapshots their exposure
// and funds the session reward pot. It returns the selected ids in
// descending order of stake.
func (s *Staker) NewSession(session uint32) ([]core.Address, error) {
	logger.Debug("selecting validators", "session", session)

	var selected []core.Address
	err := s.atomic("new_session", func() error {
		p, err := s.Params()
		if err != nil {
			return err
		}
		if p.RewardPerSession > 0 {
			if _, err := s.rewards.Fund(session, p.RewardPerSession); err != nil {
				return err
			}
		}

		chosen, err := s.pool.Select(p.TotalSelected, p.MinStakeForSelection)
		if err != nil {
			return err
		}
		recorder, _ := s.session.(ExposureRecorder)

		var staked uint64
		selected = make([]core.Address, 0, len(chosen))
		for _, b := range chosen {
			v, err := s.validators.Get(b.Owner)
			if err != nil {
				return err
			}
			if v == nil || !v.IsActive() {
				return reverts.Invariant("pool entry %s has no active validator", b.Owner)
			}
			if v.Total() != b.Amount {
				return reverts.Invariant("pool entry %s total %d differs from validator total %d", b.Owner, b.Amount, v.Total())
			}
			snap := v.Snapshot()
			if err := s.pool.SetSnapshot(session, b.Owner, snap); err != nil {
				return err
			}
			if recorder != nil {
				if err := recorder.NoteExposure(session, b.Owner, snap); err != nil {
					return errors.Wrap(err, "failed to note exposure")
				}
			}
			var ok bool
			if staked, ok = core.CheckedAdd(staked, snap.Total); !ok {
				return reverts.Invariant("staked overflow in session %d", session)
			}
			selected = append(selected, b.Owner)
			s.emit(events.Event{
				Type:      events.ValidatorChosen,
				Session:   session,
				Account:   b.Owner,
				Validator: b.Owner,
				Amount:    snap.Total,
			})
		}
		if err := s.pool.SetSelected(session, selected); err != nil {
			return err
		}
		if err := s.pool.SetStaked(session, staked); err != nil {
			return err
		}
		s.emit(events.Event{
			Type:    events.NewSession,
			Session: session,
			Amount:  staked,
			After:   uint64(len(selected)),
		})
		if len(selected) == 0 {
			logger.Warn("no validator eligible for selection", "session", session)
		}
		metricSelected().Set(int64(len(selected)))
		metricStaked().Set(int64(staked))
		return nil
	})
	if err != nil {
		logger.Error("select validators failed", "session", session, "error", err)
		return nil, err
	}

	logger.Info("selected validators", "session", session, "count", len(selected))
	return selected, nil
}

// StartSession makes session current. It settles due exits, applies the
// slashes deferred to it and prunes records that left the bonded window.
func (s *Staker) StartSession(session uint32) error {
	logger.Debug("starting session", "session", session)

	err := s.atomic("start_session", func() error {
		p, err := s.Params()
		if err != nil {
			return err
		}
		previous, err := s.current()
		if err != nil {
			return err
		}
		ring, err := s.pool.BondedSessions()
		if err != nil {
			return err
		}
		if len(ring) > 0 && session <= previous {
			return reverts.Newf(reverts.KindInvalidArgument, "session %d already started", session)
		}
		first := session
		if len(ring) > 0 {
			first = previous + 1
		}

		pruned, err := s.pool.StartSession(session, p.BondedDuration)
		if err != nil {
			return err
		}

		due, err := s.pool.DueExits(session)
		if err != nil {
			return err
		}
		for _, id := range due {
			if err := s.settleExit(id, session); err != nil {
				return err
			}
		}
		metricExits().Observe(int64(len(due)))

		for at := first; at <= session; at++ {
			pending, err := s.slashing.Take(at)
			if err != nil {
				return err
			}
			for _, u := range pending {
				if err := s.applySlash(u, at); err != nil {
					return err
				}
			}
		}

		for _, old := range pruned {
			if err := s.pool.PurgeSession(old); err != nil {
				return err
			}
			if err := s.slashing.PruneSession(old); err != nil {
				return err
			}
		}
		if len(pruned) > 0 {
			windowStart := core.SaturatingSub32(session, p.BondedDuration)
			if err := s.session.PruneHistoricalUpTo(windowStart); err != nil {
				return errors.Wrap(err, "failed to prune historical sessions")
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("start session failed", "session", session, "error", err)
		return err
	}

	metricSessions().Add(1)
	logger.Info("started session", "session", session)
	return nil
}

// settleExit releases the stake of a leaving validator and its nominators
// and removes the validator.
func (s *Staker) settleExit(id core.Address, session uint32) error {
	v, err := s.validators.Get(id)
	if err != nil {
		return err
	}
	if v == nil || !v.IsLeaving() {
		return reverts.Invariant("exit queue entry %s has no leaving validator", id)
	}

	for _, b := range v.Nominators() {
		n, err := s.nominators.Get(b.Owner)
		if err != nil {
			return err
		}
		if n == nil {
			return reverts.Invariant("validator %s backed by missing nominator %s", id, b.Owner)
		}
		if _, err := n.Remove(id); err != nil {
			return reverts.Invariant("nominator %s lost nomination on %s", b.Owner, id)
		}
		if err := s.nominators.Update(n); err != nil {
			return err
		}
		if err := s.release(b.Owner, b.Amount); err != nil {
			return err
		}
		if n.IsEmpty() {
			s.emit(events.Event{Type: events.NominatorLeft, Session: session, Account: b.Owner})
		}
	}
	if err := s.release(id, v.Bond()); err != nil {
		return err
	}

	before, err := s.lockedTotal()
	if err != nil {
		return err
	}
	if err := s.stats.Unlock(v.Total()); err != nil {
		return err
	}
	if err := s.validators.Remove(id); err != nil {
		return err
	}
	if _, err := s.pool.Remove(id); err != nil {
		return err
	}
	s.emit(events.Event{
		Type:      events.ValidatorLeft,
		Session:   session,
		Account:   id,
		Validator: id,
		Amount:    v.Total(),
		Before:    before,
		After:     before - v.Total(),
	})
	logger.Info("validator left", "validator", id, "released", v.Total())
	return nil
}

func (s *Staker) release(account core.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	leftover, err := s.currency.Unreserve(account, amount)
	if err != nil {
		return err
	}
	if leftover > 0 {
		logger.Warn("unreserve fell short", "account", account, "missing", leftover)
	}
	return nil
}

// EndSession pays the rewards of session and purges its reward bookkeeping.
func (s *Staker) EndSession(session uint32) error {
	logger.Debug("ending session", "session", session)

	var paid uint64
	err := s.atomic("end_session", func() error {
		p, err := s.Params()
		if err != nil {
			return err
		}
		pot, err := s.rewards.Pot(session)
		if err != nil {
			return err
		}
		total, err := s.rewards.TotalPoints(session)
		if err != nil {
			return err
		}
		awarded, err := s.rewards.Awarded(session)
		if err != nil {
			return err
		}

		minBalance := s.currency.MinimumBalance()
		if pot > 0 && total > 0 {
			for _, v := range awarded {
				points, err := s.rewards.Points(session, v)
				if err != nil {
					return err
				}
				snap, err := s.pool.Snapshot(session, v)
				if err != nil {
					return err
				}
				if snap == nil {
					logger.Warn("points without snapshot", "session", session, "validator", v, "points", points)
					continue
				}
				for _, r := range rewards.Distribute(pot, points, total, v, snap, p.Commission, minBalance) {
					ok, err := s.payReward(r)
					if err != nil {
						return err
					}
					if !ok {
						continue
					}
					paid += r.Value
					s.emit(events.Event{
						Type:      events.Rewarded,
						Session:   session,
						Account:   r.Account,
						Validator: v,
						Amount:    r.Value,
					})
				}
			}
		}
		if err := s.stats.AddRewarded(paid); err != nil {
			return err
		}
		if err := s.rewards.Purge(session); err != nil {
			return err
		}
		return s.pool.PurgeSnapshots(session)
	})
	if err != nil {
		logger.Error("end session failed", "session", session, "error", err)
		return err
	}

	metricRewardsPaid().Add(int64(paid))
	logger.Info("ended session", "session", session, "rewarded", paid)
	return nil
}

// payReward pays from the funded reserve of the staker first and mints the
// rest. A payout to an account that no longer exists is dropped.
func (s *Staker) payReward(r types.StakeReward) (bool, error) {
	reserve, err := s.currency.FreeBalance(s.address)
	if err != nil {
		return false, err
	}
	fromReserve := min(reserve, r.Value)
	if fromReserve > 0 {
		if err := s.currency.Transfer(s.address, r.Account, fromReserve); err != nil {
			return false, err
		}
	}
	if minted := r.Value - fromReserve; minted > 0 {
		if err := s.currency.DepositIntoExisting(r.Account, minted); err != nil {
			if reverts.IsRevertErr(err) {
				logger.Warn("reward dropped", "account", r.Account, "amount", minted, "error", err)
				return fromReserve > 0, nil
			}
			return false, err
		}
	}
	return true, nil
}

// Rotate ends the current session, selects the next one and starts it.
// It returns the new session index.
func (s *Staker) Rotate() (uint32, error) {
	ring, err := s.pool.BondedSessions()
	if err != nil {
		return 0, err
	}
	if len(ring) == 0 {
		return 0, reverts.New(reverts.KindStateConflict, "genesis session not started")
	}
	current, err := s.current()
	if err != nil {
		return 0, err
	}
	next := current + 1
	err = s.atomic("rotate", func() error {
		if err := s.EndSession(current); err != nil {
			return err
		}
		if _, err := s.NewSession(next); err != nil {
			return err
		}
		return s.StartSession(next)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Genesis selects and starts session zero.
func (s *Staker) Genesis() ([]core.Address, error) {
	var selected []core.Address
	err := s.atomic("genesis", func() error {
		ring, err := s.pool.BondedSessions()
		if err != nil {
			return err
		}
		if len(ring) > 0 {
			return reverts.New(reverts.KindStateConflict, "genesis session already started")
		}
		if selected, err = s.NewSession(0); err != nil {
			return err
		}
		return s.StartSession(0)
	})
	return selected, err
}

// NoteAuthor credits the author of a block in the current session.
func (s *Staker) NoteAuthor(author core.Address) error {
	return s.RewardByIDs([]types.Points{{Validator: author, Points: rewards.AuthorPoints}})
}

// NoteUncle credits the author of an uncle and the block author including it.
func (s *Staker) NoteUncle(blockAuthor, uncleAuthor core.Address) error {
	return s.RewardByIDs([]types.Points{
		{Validator: blockAuthor, Points: rewards.UncleInclusionPoints},
		{Validator: uncleAuthor, Points: rewards.UncleAuthorPoints},
	})
}

// RewardByIDs credits points to validators in the current session.
func (s *Staker) RewardByIDs(points []types.Points) error {
	return s.atomic("reward_by_ids", func() error {
		current, err := s.current()
		if err != nil {
			return err
		}
		for _, p := range points {
			if err := s.rewards.Award(current, p.Validator, p.Points); err != nil {
				return err
			}
		}
		return nil
	})
}

// FundSessionReward moves amount from account into the reward reserve and
// adds it to the pot of session.
func (s *Staker) FundSessionReward(account core.Address, session uint32, amount uint64) error {
	logger.Debug("funding session reward", "account", account, "session", session, "amount", amount)

	err := s.atomic("fund_session_reward", func() error {
		if amount == 0 {
			return reverts.New(reverts.KindInvalidArgument, "amount must be positive")
		}
		current, err := s.current()
		if err != nil {
			return err
		}
		if session < current {
			return reverts.Newf(reverts.KindInvalidArgument, "session %d already ended", session)
		}
		if err := s.currency.Transfer(account, s.address, amount); err != nil {
			return err
		}
		pot, err := s.rewards.Fund(session, amount)
		if err != nil {
			return err
		}
		s.emit(events.Event{
			Type:    events.SessionRewardFunded,
			Session: session,
			Account: account,
			Amount:  amount,
			Before:  pot - amount,
			After:   pot,
		})
		return nil
	})
	if err != nil {
		logger.Info("fund session reward failed", "account", account, "error", err)
		return err
	}

	logger.Info("funded session reward", "session", session, "amount", amount)
	return nil
}
