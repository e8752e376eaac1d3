// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package slashing computes the slashes owed for offences, bounded per
// slashing span so repeated and overlapping reports never double-charge.
package slashing

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/log"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/staking/types"
	"github.com/stakecore/stakecore/store"
)

var logger = log.WithContext("pkg", "slashing")

// RewardF1 is the part of the reporter reward paid on the first slash of a span.
var RewardF1 = core.PerbillFromPercent(50)

var (
	slotSpans            = core.BytesToBytes32([]byte(("slashing-spans")))
	slotSpanRecords      = core.BytesToBytes32([]byte(("span-records")))
	slotValidatorSlashes = core.BytesToBytes32([]byte(("validator-slashes")))
	slotNominatorSlashes = core.BytesToBytes32([]byte(("nominator-slashes")))
	slotSlashedAccounts  = core.BytesToBytes32([]byte(("slashed-accounts")))
	slotUnapplied        = core.BytesToBytes32([]byte(("unapplied-slashes")))
)

// UnappliedSlash is a computed slash waiting to be debited.
type UnappliedSlash struct {
	Validator core.Address
	Own       uint64
	Others    []types.Bond
	Reporters []core.Address
	Payout    uint64
}

// Total returns the sum of every debit in the slash.
func (u *UnappliedSlash) Total() uint64 {
	total := u.Own
	for _, o := range u.Others {
		total = core.SaturatingAdd(total, o.Amount)
	}
	return total
}

type validatorSlash struct {
	Fraction core.Perbill
	Amount   uint64
}

// Hooks removes a slashed validator from service.
type Hooks interface {
	// Deactivate takes the validator out of selection.
	Deactivate(validator core.Address) error
	// Disable stops the validator in the running session.
	Disable(validator core.Address) error
}

type Service struct {
	spans      *store.Mapping[core.Address, *Spans]
	records    *store.Mapping[core.Bytes32, *SpanRecord]
	validators *store.Mapping[core.Bytes32, *validatorSlash]
	nominators *store.Mapping[core.Bytes32, uint64]
	slashed    *store.Mapping[core.Bytes32, []core.Address]
	unapplied  *store.Mapping[core.Bytes32, []*UnappliedSlash]
}

func New(sctx *store.Context) *Service {
	return &Service{
		spans:      store.NewMapping[core.Address, *Spans](sctx, slotSpans),
		records:    store.NewMapping[core.Bytes32, *SpanRecord](sctx, slotSpanRecords),
		validators: store.NewMapping[core.Bytes32, *validatorSlash](sctx, slotValidatorSlashes),
		nominators: store.NewMapping[core.Bytes32, uint64](sctx, slotNominatorSlashes),
		slashed:    store.NewMapping[core.Bytes32, []core.Address](sctx, slotSlashedAccounts),
		unapplied:  store.NewMapping[core.Bytes32, []*UnappliedSlash](sctx, slotUnapplied),
	}
}

// Spans returns the stored spans of account, nil if it was never slashed.
func (s *Service) Spans(account core.Address) (*Spans, error) {
	spans, err := s.spans.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get slashing spans")
	}
	return spans, nil
}

func (s *Service) SpanRecord(account core.Address, index uint32) (*SpanRecord, error) {
	record, err := s.records.Get(core.AccountIndexKey(account, index))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get span record")
	}
	if record == nil {
		record = &SpanRecord{}
	}
	return record, nil
}

// ValidatorSlash returns the largest fraction and amount recorded for the
// validator in a session.
func (s *Service) ValidatorSlash(session uint32, validator core.Address) (core.Perbill, uint64, error) {
	rec, err := s.validators.Get(core.SessionAccountKey(session, validator))
	if err != nil {
		return 0, 0, errors.Wrap(err, "failed to get validator slash")
	}
	if rec == nil {
		return 0, 0, nil
	}
	return rec.Fraction, rec.Amount, nil
}

// NominatorSlash returns the amount recorded against the nominator in a session.
func (s *Service) NominatorSlash(session uint32, nominator core.Address) (uint64, error) {
	amount, err := s.nominators.Get(core.SessionAccountKey(session, nominator))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get nominator slash")
	}
	return amount, nil
}

func (s *Service) noteSlashed(session uint32, account core.Address) error {
	accounts, err := s.slashed.Get(core.SessionKey(session))
	if err != nil {
		return errors.Wrap(err, "failed to get slashed accounts")
	}
	i, found := slices.BinarySearchFunc(accounts, account, core.Address.Compare)
	if found {
		return nil
	}
	return errors.Wrap(s.slashed.Set(core.SessionKey(session), slices.Insert(accounts, i, account)), "failed to set slashed accounts")
}

// PruneSession drops the per-session slash records of a session that left
// the bonded window.
func (s *Service) PruneSession(session uint32) error {
	accounts, err := s.slashed.Get(core.SessionKey(session))
	if err != nil {
		return errors.Wrap(err, "failed to get slashed accounts")
	}
	for _, acc := range accounts {
		key := core.SessionAccountKey(session, acc)
		s.validators.Delete(key)
		s.nominators.Delete(key)
	}
	s.slashed.Delete(core.SessionKey(session))
	return nil
}

// inspectingSpans is a working copy of the spans of one account. It is
// written back once by commit if anything changed.
type inspectingSpans struct {
	svc              *Service
	account          core.Address
	spans            *Spans
	windowStart      uint32
	rewardProportion core.Perbill
	dirty            bool

	paidOut *uint64
	slashOf *uint64
}

func (s *Service) inspect(
	account core.Address,
	windowStart uint32,
	rewardProportion core.Perbill,
	paidOut, slashOf *uint64,
) (*inspectingSpans, error) {
	spans, err := s.Spans(account)
	if err != nil {
		return nil, err
	}
	if spans == nil {
		spans = NewSpans(windowStart)
		if err := s.spans.Set(account, spans); err != nil {
			return nil, errors.Wrap(err, "failed to set slashing spans")
		}
	}
	return &inspectingSpans{
		svc:              s,
		account:          account,
		spans:            spans,
		windowStart:      windowStart,
		rewardProportion: rewardProportion,
		paidOut:          paidOut,
		slashOf:          slashOf,
	}, nil
}

func (i *inspectingSpans) currentIndex() uint32 {
	return i.spans.SpanIndex
}

func (i *inspectingSpans) endSpan(now uint32) {
	i.dirty = i.spans.EndSpan(now) || i.dirty
}

// compareAndUpdate raises the record of the span containing session to
// slash and returns the index of that span.
func (i *inspectingSpans) compareAndUpdate(session uint32, slash uint64) (uint32, bool, error) {
	index, ok := i.spans.SpanOf(session)
	if !ok {
		return 0, false, nil
	}
	record, err := i.svc.SpanRecord(i.account, index)
	if err != nil {
		return 0, false, err
	}

	changed := false
	var reward uint64
	switch {
	case record.Slashed < slash:
		diff := slash - record.Slashed
		record.Slashed = slash
		changed = true
		reward = RewardF1.Mul(core.SaturatingSub(i.rewardProportion.Mul(slash), record.PaidOut))
		*i.slashOf = core.SaturatingAdd(*i.slashOf, diff)
		i.spans.LastNonzeroSlash = max(i.spans.LastNonzeroSlash, session)
	case record.Slashed == slash:
		reward = RewardF1.Mul(core.SaturatingSub(i.rewardProportion.Mul(slash), record.PaidOut))
	}

	if reward > 0 {
		changed = true
		record.PaidOut = core.SaturatingAdd(record.PaidOut, reward)
		*i.paidOut = core.SaturatingAdd(*i.paidOut, reward)
	}
	if changed {
		i.dirty = true
		if err := i.svc.records.Set(core.AccountIndexKey(i.account, index), record); err != nil {
			return 0, false, errors.Wrap(err, "failed to set span record")
		}
	}
	return index, true, nil
}

// commit prunes spans outside the window and writes them back if dirty.
func (i *inspectingSpans) commit() error {
	if !i.dirty {
		return nil
	}
	if from, to, ok := i.spans.Prune(i.windowStart); ok {
		for index := from; index < to; index++ {
			i.svc.records.Delete(core.AccountIndexKey(i.account, index))
		}
	}
	return errors.Wrap(i.svc.spans.Set(i.account, i.spans), "failed to set slashing spans")
}

// Params describes one offence to compute a slash for.
type Params struct {
	Stash            core.Address
	Fraction         core.Perbill
	Exposure         *types.Snapshot
	SlashSession     uint32
	WindowStart      uint32
	Now              uint32
	RewardProportion core.Perbill
}

// ComputeSlash records the slash of an offence and returns what must be
// debited. It returns nil when nothing is owed.
func (s *Service) ComputeSlash(p Params, hooks Hooks) (*UnappliedSlash, error) {
	var (
		payout      uint64
		validatorOf uint64
	)
	own := p.Fraction.Mul(p.Exposure.Bond)

	if p.Fraction.Mul(p.Exposure.Total) == 0 {
		return nil, s.kickOutIfRecent(p, hooks)
	}

	priorFraction, _, err := s.ValidatorSlash(p.SlashSession, p.Stash)
	if err != nil {
		return nil, err
	}
	if p.Fraction <= priorFraction {
		logger.Debug("offence not above recorded slash", "validator", p.Stash, "session", p.SlashSession, "fraction", p.Fraction)
		return nil, nil
	}
	key := core.SessionAccountKey(p.SlashSession, p.Stash)
	if err := s.validators.Set(key, &validatorSlash{Fraction: p.Fraction, Amount: own}); err != nil {
		return nil, errors.Wrap(err, "failed to set validator slash")
	}
	if err := s.noteSlashed(p.SlashSession, p.Stash); err != nil {
		return nil, err
	}

	spans, err := s.inspect(p.Stash, p.WindowStart, p.RewardProportion, &payout, &validatorOf)
	if err != nil {
		return nil, err
	}
	target, ok, err := spans.compareAndUpdate(p.SlashSession, own)
	if err != nil {
		return nil, err
	}
	if ok && target == spans.currentIndex() {
		spans.endSpan(p.Now)
		if err := hooks.Deactivate(p.Stash); err != nil {
			return nil, err
		}
		if err := hooks.Disable(p.Stash); err != nil {
			return nil, err
		}
	}
	if err := spans.commit(); err != nil {
		return nil, err
	}

	others, err := s.slashNominators(p, priorFraction, &payout)
	if err != nil {
		return nil, err
	}

	return &UnappliedSlash{
		Validator: p.Stash,
		Own:       validatorOf,
		Others:    others,
		Payout:    payout,
	}, nil
}

// kickOutIfRecent stops a validator whose zero-valued offence falls in its
// current span.
func (s *Service) kickOutIfRecent(p Params, hooks Hooks) error {
	var payout, slashOf uint64
	spans, err := s.inspect(p.Stash, p.WindowStart, p.RewardProportion, &payout, &slashOf)
	if err != nil {
		return err
	}
	if index, ok := spans.spans.SpanOf(p.SlashSession); ok && index == spans.currentIndex() {
		spans.endSpan(p.Now)
		if err := hooks.Deactivate(p.Stash); err != nil {
			return err
		}
		if err := hooks.Disable(p.Stash); err != nil {
			return err
		}
	}
	return spans.commit()
}

// slashNominators applies the slash to every snapshotted nominator. Only
// the part above what the prior fraction already charged is added.
func (s *Service) slashNominators(p Params, prior core.Perbill, payout *uint64) ([]types.Bond, error) {
	others := make([]types.Bond, 0, len(p.Exposure.Nominators))
	for _, n := range p.Exposure.Nominators {
		var slashed uint64

		diff := core.SaturatingSub(p.Fraction.Mul(n.Amount), prior.Mul(n.Amount))
		sessionSlash, err := s.NominatorSlash(p.SlashSession, n.Owner)
		if err != nil {
			return nil, err
		}
		sessionSlash = core.SaturatingAdd(sessionSlash, diff)
		if err := s.nominators.Set(core.SessionAccountKey(p.SlashSession, n.Owner), sessionSlash); err != nil {
			return nil, errors.Wrap(err, "failed to set nominator slash")
		}
		if err := s.noteSlashed(p.SlashSession, n.Owner); err != nil {
			return nil, err
		}

		spans, err := s.inspect(n.Owner, p.WindowStart, p.RewardProportion, payout, &slashed)
		if err != nil {
			return nil, err
		}
		target, ok, err := spans.compareAndUpdate(p.SlashSession, sessionSlash)
		if err != nil {
			return nil, err
		}
		if ok && target == spans.currentIndex() {
			spans.endSpan(p.Now)
		}
		if err := spans.commit(); err != nil {
			return nil, err
		}

		if slashed > 0 {
			others = append(others, types.Bond{Owner: n.Owner, Amount: slashed})
		}
	}
	return others, nil
}

// Queue defers the slash to be applied at session.
func (s *Service) Queue(session uint32, slash *UnappliedSlash) error {
	pending, err := s.Unapplied(session)
	if err != nil {
		return err
	}
	pending = append(pending, slash)
	return errors.Wrap(s.unapplied.Set(core.SessionKey(session), pending), "failed to set unapplied slashes")
}

// Unapplied returns the slashes deferred to session.
func (s *Service) Unapplied(session uint32) ([]*UnappliedSlash, error) {
	pending, err := s.unapplied.Get(core.SessionKey(session))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get unapplied slashes")
	}
	return pending, nil
}

// Take removes and returns the slashes deferred to session.
func (s *Service) Take(session uint32) ([]*UnappliedSlash, error) {
	pending, err := s.Unapplied(session)
	if err != nil {
		return nil, err
	}
	s.unapplied.Delete(core.SessionKey(session))
	return pending, nil
}

// Cancel removes the slashes of validators deferred to session and returns them.
func (s *Service) Cancel(session uint32, validators []core.Address) ([]*UnappliedSlash, error) {
	if len(validators) == 0 {
		return nil, reverts.New(reverts.KindInvalidArgument, "no validators to cancel")
	}
	exists, err := s.unapplied.Exists(core.SessionKey(session))
	if err != nil {
		return nil, errors.Wrap(err, "failed to check unapplied slashes")
	}
	if !exists {
		return nil, reverts.Newf(reverts.KindInvalidArgument, "no deferred slashes at session %d", session)
	}
	pending, err := s.Unapplied(session)
	if err != nil {
		return nil, err
	}

	var cancelled []*UnappliedSlash
	kept := slices.DeleteFunc(pending, func(u *UnappliedSlash) bool {
		if slices.Contains(validators, u.Validator) {
			cancelled = append(cancelled, u)
			return true
		}
		return false
	})
	if len(kept) == 0 {
		s.unapplied.Delete(core.SessionKey(session))
		return cancelled, nil
	}
	return cancelled, errors.Wrap(s.unapplied.Set(core.SessionKey(session), kept), "failed to set unapplied slashes")
}

// ReporterRewards splits payout, bounded by slashed, evenly among
// reporters. It returns the rewards and the remainder for the sink.
func ReporterRewards(payout, slashed uint64, reporters []core.Address) ([]types.StakeReward, uint64) {
	if payout == 0 || len(reporters) == 0 {
		return nil, slashed
	}
	payout = min(payout, slashed)
	per := payout / uint64(len(reporters))

	rewards := make([]types.StakeReward, 0, len(reporters))
	var paid uint64
	for _, r := range reporters {
		if per == 0 {
			break
		}
		rewards = append(rewards, types.StakeReward{Account: r, Value: per})
		paid += per
	}
	return rewards, slashed - paid
}
