// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package builtin binds the engine components to their fixed storage
// addresses.
package builtin

import (
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/currency"
	"github.com/stakecore/stakecore/session"
	"github.com/stakecore/stakecore/staking"
	"github.com/stakecore/stakecore/state"
)

// Builtin component bindings.
var (
	Ledger  = &ledgerBinding{binding{core.BytesToAddress([]byte("Ledger"))}}
	Session = &sessionBinding{binding{core.BytesToAddress([]byte("Session"))}}
	Staker  = &stakerBinding{binding{core.BytesToAddress([]byte("Staker"))}}
)

type binding struct {
	Address core.Address
}

type (
	ledgerBinding  struct{ binding }
	sessionBinding struct{ binding }
	stakerBinding  struct{ binding }
)

func (l *ledgerBinding) WithState(st *state.State, cfg currency.Config) *currency.Ledger {
	return currency.New(l.Address, st, cfg)
}

func (s *sessionBinding) WithState(st *state.State, threshold core.Perbill) *session.Session {
	return session.New(s.Address, st, threshold)
}

func (s *stakerBinding) WithState(
	st *state.State,
	params staking.Params,
	ledger staking.Currency,
	sess staking.SessionInterface,
	auth staking.Authorizer,
) *staking.Staker {
	return staking.New(s.Address, st, params, ledger, sess, auth)
}

// Config is what the components need beside the state.
type Config struct {
	Currency         currency.Config
	DisableThreshold core.Perbill
	Params           staking.Params
	Auth             staking.Authorizer
}

// Engine bundles the components bound to one state.
type Engine struct {
	State   *state.State
	Ledger  *currency.Ledger
	Session *session.Session
	Staker  *staking.Staker
}

// New binds every component to st.
func New(st *state.State, cfg Config) *Engine {
	ledger := Ledger.WithState(st, cfg.Currency)
	sess := Session.WithState(st, cfg.DisableThreshold)
	return &Engine{
		State:   st,
		Ledger:  ledger,
		Session: sess,
		Staker:  Staker.WithState(st, cfg.Params, ledger, sess, cfg.Auth),
	}
}

// Rotate rotates the staker and begins the new session on the session
// component.
func (e *Engine) Rotate() (uint32, []core.Address, error) {
	next, err := e.Staker.Rotate()
	if err != nil {
		return 0, nil, err
	}
	selected, err := e.Staker.Selected(next)
	if err != nil {
		return 0, nil, err
	}
	if err := e.Session.Begin(next, selected); err != nil {
		return 0, nil, err
	}
	return next, selected, nil
}
