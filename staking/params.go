// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/store"
)

// MinTotalSelected is the lower bound of the selected set size.
const MinTotalSelected = 1

// Params configures the engine. The values given to New are defaults; the
// live values are kept in storage so privileged updates revert atomically.
type Params struct {
	TotalSelected             uint32
	MinValidatorStake         uint64
	MinNominatorStake         uint64
	MinNomination             uint64
	MinStakeForSelection      uint64
	MaxNominatorsPerValidator uint32
	MaxValidatorsPerNominator uint32
	BondedDuration            uint32       // sessions stake stays locked and slashable after unbonding
	SlashDeferDuration        uint32       // sessions a slash waits before it is applied, 0 applies at once
	SlashRewardFraction       core.Perbill // part of a slash reserved for reporters
	Commission                core.Perbill // validator cut of the reward before the pro rata split
	RewardPerSession          uint64       // minted into the pot of every new session
}

// DefaultParams returns the parameters used when none are configured.
func DefaultParams() Params {
	return Params{
		TotalSelected:             5,
		MinValidatorStake:         1000,
		MinNominatorStake:         50,
		MinNomination:             5,
		MinStakeForSelection:      1000,
		MaxNominatorsPerValidator: 100,
		MaxValidatorsPerNominator: 25,
		BondedDuration:            28,
		SlashDeferDuration:        7,
		SlashRewardFraction:       core.PerbillFromPercent(10),
		Commission:                core.PerbillFromPercent(20),
		RewardPerSession:          0,
	}
}

// Validate checks the parameters are usable together.
func (p *Params) Validate() error {
	if p.TotalSelected < MinTotalSelected {
		return errors.Errorf("total selected %d below %d", p.TotalSelected, MinTotalSelected)
	}
	if p.BondedDuration == 0 {
		return errors.New("bonded duration must be positive")
	}
	if p.SlashDeferDuration >= p.BondedDuration {
		return errors.Errorf("slash defer duration %d must be below bonded duration %d", p.SlashDeferDuration, p.BondedDuration)
	}
	if p.MinNomination > p.MinNominatorStake {
		return errors.Errorf("min nomination %d above min nominator stake %d", p.MinNomination, p.MinNominatorStake)
	}
	if p.MaxNominatorsPerValidator == 0 || p.MaxValidatorsPerNominator == 0 {
		return errors.New("nomination caps must be positive")
	}
	if p.SlashRewardFraction > core.PerbillOne || p.Commission > core.PerbillOne {
		return errors.New("fraction above one")
	}
	return nil
}

type paramVars struct {
	totalSelected             *store.ConfigVariable
	minValidatorStake         *store.ConfigVariable
	minNominatorStake         *store.ConfigVariable
	minNomination             *store.ConfigVariable
	minStakeForSelection      *store.ConfigVariable
	maxNominatorsPerValidator *store.ConfigVariable
	maxValidatorsPerNominator *store.ConfigVariable
	bondedDuration            *store.ConfigVariable
	slashDeferDuration        *store.ConfigVariable
	slashRewardFraction       *store.ConfigVariable
	commission                *store.ConfigVariable
	rewardPerSession          *store.ConfigVariable
}

func newParamVars(p Params) *paramVars {
	return &paramVars{
		totalSelected:             store.NewConfigVariable("staking-total-selected", uint64(p.TotalSelected)),
		minValidatorStake:         store.NewConfigVariable("staking-min-validator-stake", p.MinValidatorStake),
		minNominatorStake:         store.NewConfigVariable("staking-min-nominator-stake", p.MinNominatorStake),
		minNomination:             store.NewConfigVariable("staking-min-nomination", p.MinNomination),
		minStakeForSelection:      store.NewConfigVariable("staking-min-stake-for-selection", p.MinStakeForSelection),
		maxNominatorsPerValidator: store.NewConfigVariable("staking-max-nominators-per-validator", uint64(p.MaxNominatorsPerValidator)),
		maxValidatorsPerNominator: store.NewConfigVariable("staking-max-validators-per-nominator", uint64(p.MaxValidatorsPerNominator)),
		bondedDuration:            store.NewConfigVariable("staking-bonded-duration", uint64(p.BondedDuration)),
		slashDeferDuration:        store.NewConfigVariable("staking-slash-defer-duration", uint64(p.SlashDeferDuration)),
		slashRewardFraction:       store.NewConfigVariable("staking-slash-reward-fraction", uint64(p.SlashRewardFraction)),
		commission:                store.NewConfigVariable("staking-commission", uint64(p.Commission)),
		rewardPerSession:          store.NewConfigVariable("staking-reward-per-session", p.RewardPerSession),
	}
}

func (v *paramVars) load(sctx *store.Context) (*Params, error) {
	var (
		p    Params
		errs []error
	)
	get := func(c *store.ConfigVariable) uint64 {
		value, err := c.Get(sctx)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "failed to get %s", c.Name()))
		}
		return value
	}
	p.TotalSelected = uint32(get(v.totalSelected))
	p.MinValidatorStake = get(v.minValidatorStake)
	p.MinNominatorStake = get(v.minNominatorStake)
	p.MinNomination = get(v.minNomination)
	p.MinStakeForSelection = get(v.minStakeForSelection)
	p.MaxNominatorsPerValidator = uint32(get(v.maxNominatorsPerValidator))
	p.MaxValidatorsPerNominator = uint32(get(v.maxValidatorsPerNominator))
	p.BondedDuration = uint32(get(v.bondedDuration))
	p.SlashDeferDuration = uint32(get(v.slashDeferDuration))
	p.SlashRewardFraction = core.PerbillFromParts(uint32(get(v.slashRewardFraction)))
	p.Commission = core.PerbillFromParts(uint32(get(v.commission)))
	p.RewardPerSession = get(v.rewardPerSession)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return &p, nil
}
