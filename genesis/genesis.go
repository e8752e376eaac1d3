// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis loads the initial engine state from YAML and builds it.
package genesis

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stakecore/stakecore/builtin"
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/currency"
	"github.com/stakecore/stakecore/log"
	"github.com/stakecore/stakecore/staking"
	"github.com/stakecore/stakecore/state"
)

var logger = log.WithContext("pkg", "genesis")

// Params mirrors staking.Params with yaml names.
type Params struct {
	TotalSelected             uint32       `yaml:"totalSelected"`
	MinValidatorStake         uint64       `yaml:"minValidatorStake"`
	MinNominatorStake         uint64       `yaml:"minNominatorStake"`
	MinNomination             uint64       `yaml:"minNomination"`
	MinStakeForSelection      uint64       `yaml:"minStakeForSelection"`
	MaxNominatorsPerValidator uint32       `yaml:"maxNominatorsPerValidator"`
	MaxValidatorsPerNominator uint32       `yaml:"maxValidatorsPerNominator"`
	BondedDuration            uint32       `yaml:"bondedDuration"`
	SlashDeferDuration        uint32       `yaml:"slashDeferDuration"`
	SlashRewardFraction       core.Perbill `yaml:"slashRewardFraction"`
	Commission                core.Perbill `yaml:"commission"`
	RewardPerSession          uint64       `yaml:"rewardPerSession"`
}

func paramsOf(p staking.Params) Params {
	return Params(p)
}

// Staking converts to the engine parameters.
func (p Params) Staking() staking.Params {
	return staking.Params(p)
}

type Account struct {
	Address core.Address `yaml:"address"`
	Balance uint64       `yaml:"balance"`
}

type Validator struct {
	Address core.Address `yaml:"address"`
	Bond    uint64       `yaml:"bond"`
}

type Nomination struct {
	Nominator core.Address `yaml:"nominator"`
	Validator core.Address `yaml:"validator"`
	Amount    uint64       `yaml:"amount"`
}

// Genesis describes the engine state at session 0.
type Genesis struct {
	Root               core.Address   `yaml:"root"`
	ExistentialDeposit uint64         `yaml:"existentialDeposit"`
	Treasury           *core.Address  `yaml:"treasury,omitempty"`
	DisableThreshold   core.Perbill   `yaml:"disableThreshold"`
	Params             Params         `yaml:"params"`
	Accounts           []Account      `yaml:"accounts"`
	Validators         []Validator    `yaml:"validators"`
	Nominations        []Nomination   `yaml:"nominations,omitempty"`
	Invulnerables      []core.Address `yaml:"invulnerables,omitempty"`
}

func defaults() *Genesis {
	return &Genesis{
		ExistentialDeposit: 1,
		DisableThreshold:   core.PerbillFromPercent(34),
		Params:             paramsOf(staking.DefaultParams()),
	}
}

// Load reads and validates the genesis file at path.
func Load(path string) (*Genesis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open genesis file")
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a genesis document. Omitted fields keep their defaults and
// unknown fields are rejected.
func Decode(r io.Reader) (*Genesis, error) {
	gen := defaults()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return gen, nil
}

// Encode renders the genesis as yaml.
func (g *Genesis) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(g); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks the document is consistent before anything is built.
func (g *Genesis) Validate() error {
	if g.Root.IsZero() {
		return errors.New("root must be set")
	}
	params := g.Params.Staking()
	if err := params.Validate(); err != nil {
		return errors.Wrap(err, "params")
	}
	if g.DisableThreshold > core.PerbillOne {
		return errors.New("disableThreshold above one")
	}

	funded := make(map[core.Address]bool, len(g.Accounts))
	for i, a := range g.Accounts {
		if a.Address.IsZero() {
			return errors.Errorf("accounts[%d]: address must be set", i)
		}
		if funded[a.Address] {
			return errors.Errorf("accounts[%d]: duplicated address %v", i, a.Address)
		}
		if a.Balance < g.ExistentialDeposit || a.Balance == 0 {
			return errors.Errorf("accounts[%d]: balance below existential deposit", i)
		}
		funded[a.Address] = true
	}

	validators := make(map[core.Address]bool, len(g.Validators))
	for i, v := range g.Validators {
		if !funded[v.Address] {
			return errors.Errorf("validators[%d]: %v has no account", i, v.Address)
		}
		if validators[v.Address] {
			return errors.Errorf("validators[%d]: duplicated validator %v", i, v.Address)
		}
		validators[v.Address] = true
	}
	for i, n := range g.Nominations {
		if !funded[n.Nominator] {
			return errors.Errorf("nominations[%d]: %v has no account", i, n.Nominator)
		}
		if !validators[n.Validator] {
			return errors.Errorf("nominations[%d]: %v is not a genesis validator", i, n.Validator)
		}
		if validators[n.Nominator] {
			return errors.Errorf("nominations[%d]: validator %v can not nominate", i, n.Nominator)
		}
	}
	return nil
}

// Config returns the component configuration the genesis implies.
func (g *Genesis) Config() builtin.Config {
	cfg := builtin.Config{
		Currency:         currency.Config{ExistentialDeposit: g.ExistentialDeposit},
		DisableThreshold: g.DisableThreshold,
		Params:           g.Params.Staking(),
		Auth:             staking.RootAuthorizer(g.Root),
	}
	if g.Treasury != nil {
		cfg.Currency.Treasury = *g.Treasury
	}
	return cfg
}

// Build writes the genesis into st and runs the genesis selection. It
// returns the bound engine and the validators of session 0.
func (g *Genesis) Build(st *state.State) (*builtin.Engine, []core.Address, error) {
	e := builtin.New(st, g.Config())

	for _, a := range g.Accounts {
		if err := e.Ledger.Endow(a.Address, a.Balance); err != nil {
			return nil, nil, errors.Wrapf(err, "endow %v", a.Address)
		}
	}
	for _, v := range g.Validators {
		if err := e.Staker.JoinValidators(v.Address, v.Bond); err != nil {
			return nil, nil, errors.Wrapf(err, "join validator %v", v.Address)
		}
	}
	for _, n := range g.Nominations {
		if err := e.Staker.Nominate(n.Nominator, n.Validator, n.Amount); err != nil {
			return nil, nil, errors.Wrapf(err, "nominate %v by %v", n.Validator, n.Nominator)
		}
	}
	if len(g.Invulnerables) > 0 {
		if err := e.Staker.SetInvulnerables(g.Root, g.Invulnerables); err != nil {
			return nil, nil, errors.Wrap(err, "set invulnerables")
		}
	}

	selected, err := e.Staker.Genesis()
	if err != nil {
		return nil, nil, errors.Wrap(err, "genesis selection")
	}
	if err := e.Session.Begin(0, selected); err != nil {
		return nil, nil, err
	}
	logger.Info("genesis built",
		"accounts", len(g.Accounts),
		"validators", len(g.Validators),
		"nominations", len(g.Nominations),
		"selected", len(selected),
	)
	return e, selected, nil
}

// ID identifies the genesis by the digest of the state it builds.
func (g *Genesis) ID() (core.Bytes32, error) {
	st := state.New(nil)
	if _, _, err := g.Build(st); err != nil {
		return core.Bytes32{}, err
	}
	return st.Stage().Hash(), nil
}
