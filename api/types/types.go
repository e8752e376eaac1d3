// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package types holds the JSON types of the REST API.
package types

import (
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/eventlog"
	"github.com/stakecore/stakecore/staking"
	"github.com/stakecore/stakecore/staking/events"
	"github.com/stakecore/stakecore/staking/nominator"
	"github.com/stakecore/stakecore/staking/slashing"
	stakingtypes "github.com/stakecore/stakecore/staking/types"
	"github.com/stakecore/stakecore/staking/validator"
)

type Bond struct {
	Owner  core.Address `json:"owner"`
	Amount uint64       `json:"amount"`
}

func ConvertBonds(bonds []stakingtypes.Bond) []Bond {
	out := make([]Bond, len(bonds))
	for i, b := range bonds {
		out[i] = Bond{Owner: b.Owner, Amount: b.Amount}
	}
	return out
}

type Validator struct {
	ID             core.Address `json:"id"`
	Status         string       `json:"status"`
	Bond           uint64       `json:"bond"`
	Total          uint64       `json:"total"`
	LeavingSession *uint32      `json:"leavingSession"`
	Nominators     []Bond       `json:"nominators"`
}

func ConvertValidator(v *validator.Validator) *Validator {
	out := &Validator{
		ID:         v.ID(),
		Status:     v.Status().String(),
		Bond:       v.Bond(),
		Total:      v.Total(),
		Nominators: ConvertBonds(v.Nominators()),
	}
	if v.IsLeaving() {
		leaving := v.LeavingSession()
		out.LeavingSession = &leaving
	}
	return out
}

type Nominator struct {
	ID          core.Address `json:"id"`
	Total       uint64       `json:"total"`
	Nominations []Bond       `json:"nominations"`
}

func ConvertNominator(n *nominator.Nominator) *Nominator {
	return &Nominator{
		ID:          n.ID(),
		Total:       n.Total(),
		Nominations: ConvertBonds(n.Nominations()),
	}
}

type Snapshot struct {
	Validator  core.Address `json:"validator"`
	Session    uint32       `json:"session"`
	Bond       uint64       `json:"bond"`
	Total      uint64       `json:"total"`
	Nominators []Bond       `json:"nominators"`
}

func ConvertSnapshot(session uint32, id core.Address, s *stakingtypes.Snapshot) *Snapshot {
	return &Snapshot{
		Validator:  id,
		Session:    session,
		Bond:       s.Bond,
		Total:      s.Total,
		Nominators: ConvertBonds(s.Nominators),
	}
}

type Session struct {
	Session     uint32         `json:"session"`
	Current     bool           `json:"current"`
	Selected    []core.Address `json:"selected"`
	Staked      uint64         `json:"staked"`
	RewardPot   uint64         `json:"rewardPot"`
	TotalPoints uint32         `json:"totalPoints"`
}

type UnappliedSlash struct {
	Validator core.Address   `json:"validator"`
	Own       uint64         `json:"own"`
	Others    []Bond         `json:"others"`
	Reporters []core.Address `json:"reporters"`
	Payout    uint64         `json:"payout"`
	Total     uint64         `json:"total"`
}

func ConvertUnapplied(u *slashing.UnappliedSlash) *UnappliedSlash {
	reporters := u.Reporters
	if reporters == nil {
		reporters = []core.Address{}
	}
	return &UnappliedSlash{
		Validator: u.Validator,
		Own:       u.Own,
		Others:    ConvertBonds(u.Others),
		Reporters: reporters,
		Payout:    u.Payout,
		Total:     u.Total(),
	}
}

type Spans struct {
	SpanIndex        uint32   `json:"spanIndex"`
	LastStart        uint32   `json:"lastStart"`
	LastNonzeroSlash uint32   `json:"lastNonzeroSlash"`
	Prior            []uint32 `json:"prior"`
}

type SpanRecord struct {
	Index   uint32 `json:"index"`
	Slashed uint64 `json:"slashed"`
	PaidOut uint64 `json:"paidOut"`
}

type UnlockChunk struct {
	Value   uint64 `json:"value"`
	Session uint32 `json:"session"`
}

type Account struct {
	Address   core.Address  `json:"address"`
	Free      uint64        `json:"free"`
	Reserved  uint64        `json:"reserved"`
	Unlocking []UnlockChunk `json:"unlocking"`
	Spans     *Spans        `json:"spans"`
}

func ConvertUnlocking(chunks []stakingtypes.UnlockChunk) []UnlockChunk {
	out := make([]UnlockChunk, len(chunks))
	for i, c := range chunks {
		out[i] = UnlockChunk{Value: c.Value, Session: c.Session}
	}
	return out
}

func ConvertSpans(s *slashing.Spans) *Spans {
	if s == nil {
		return nil
	}
	prior := s.Prior
	if prior == nil {
		prior = []uint32{}
	}
	return &Spans{
		SpanIndex:        s.SpanIndex,
		LastStart:        s.LastStart,
		LastNonzeroSlash: s.LastNonzeroSlash,
		Prior:            prior,
	}
}

type Params struct {
	TotalSelected             uint32       `json:"totalSelected"`
	MinValidatorStake         uint64       `json:"minValidatorStake"`
	MinNominatorStake         uint64       `json:"minNominatorStake"`
	MinNomination             uint64       `json:"minNomination"`
	MinStakeForSelection      uint64       `json:"minStakeForSelection"`
	MaxNominatorsPerValidator uint32       `json:"maxNominatorsPerValidator"`
	MaxValidatorsPerNominator uint32       `json:"maxValidatorsPerNominator"`
	BondedDuration            uint32       `json:"bondedDuration"`
	SlashDeferDuration        uint32       `json:"slashDeferDuration"`
	SlashRewardFraction       core.Perbill `json:"slashRewardFraction"`
	Commission                core.Perbill `json:"commission"`
	RewardPerSession          uint64       `json:"rewardPerSession"`
}

func ConvertParams(p *staking.Params) *Params {
	out := Params(*p)
	return &out
}

type Totals struct {
	Locked   uint64 `json:"locked"`
	Slashed  uint64 `json:"slashed"`
	Rewarded uint64 `json:"rewarded"`
}

type Event struct {
	Seq       uint64       `json:"seq,omitempty"`
	Type      events.Type  `json:"type"`
	Session   uint32       `json:"session"`
	Account   core.Address `json:"account"`
	Validator core.Address `json:"validator"`
	Amount    uint64       `json:"amount"`
	Before    uint64       `json:"before"`
	After     uint64       `json:"after"`
}

func ConvertEvent(seq uint64, ev *events.Event) *Event {
	return &Event{
		Seq:       seq,
		Type:      ev.Type,
		Session:   ev.Session,
		Account:   ev.Account,
		Validator: ev.Validator,
		Amount:    ev.Amount,
		Before:    ev.Before,
		After:     ev.After,
	}
}

type Range struct {
	From *uint32 `json:"from"`
	To   *uint32 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// EventFilter is the body of an event query.
type EventFilter struct {
	Types     []events.Type  `json:"types"`
	Account   *core.Address  `json:"account"`
	Validator *core.Address  `json:"validator"`
	Range     *Range         `json:"range"`
	Options   *Options       `json:"options"`
	Order     eventlog.Order `json:"order"`
}

// ConvertEventFilter converts to the event log filter.
func ConvertEventFilter(f *EventFilter) *eventlog.Filter {
	out := &eventlog.Filter{
		Types:     f.Types,
		Account:   f.Account,
		Validator: f.Validator,
		Order:     f.Order,
	}
	if f.Range != nil {
		r := &eventlog.Range{}
		if f.Range.From != nil {
			r.From = *f.Range.From
		}
		if f.Range.To != nil {
			r.To = *f.Range.To
		} else if r.From == 0 {
			r = nil
		} else {
			r.To = r.From - 1
		}
		out.Range = r
	}
	if f.Options != nil {
		out.Options = &eventlog.Options{Offset: f.Options.Offset, Limit: f.Options.Limit}
	}
	return out
}

type LogLevelRequest struct {
	Level string `json:"level"`
}

type LogLevelResponse struct {
	CurrentLevel string `json:"currentLevel"`
}

type LogStatus struct {
	Enabled bool `json:"enabled"`
}
