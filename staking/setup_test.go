// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/currency"
	"github.com/stakecore/stakecore/session"
	"github.com/stakecore/stakecore/staking/events"
	"github.com/stakecore/stakecore/staking/validator"
	"github.com/stakecore/stakecore/state"
)

const endowment = 1000

var root = addr("root")

func addr(s string) core.Address {
	return core.BytesToAddress([]byte(s))
}

func testParams() Params {
	return Params{
		TotalSelected:             3,
		MinValidatorStake:         20,
		MinNominatorStake:         10,
		MinNomination:             5,
		MinStakeForSelection:      20,
		MaxNominatorsPerValidator: 2,
		MaxValidatorsPerNominator: 2,
		BondedDuration:            3,
		SlashDeferDuration:        0,
		SlashRewardFraction:       core.PerbillFromPercent(10),
		Commission:                core.PerbillFromPercent(20),
	}
}

type testEnv struct {
	state   *state.State
	ledger  *currency.Ledger
	session *session.Session
	staker  *Staker
}

func newTestEnv(t *testing.T, p Params, accounts ...string) *testEnv {
	require.NoError(t, p.Validate())

	st := state.New(nil)
	ledger := currency.New(addr("ledger"), st, currency.Config{ExistentialDeposit: 1})
	sess := session.New(addr("session"), st, core.PerbillFromPercent(34))
	env := &testEnv{
		state:   st,
		ledger:  ledger,
		session: sess,
		staker:  New(addr("staker"), st, p, ledger, sess, RootAuthorizer(root)),
	}
	for _, a := range accounts {
		require.NoError(t, ledger.Endow(addr(a), endowment))
	}
	return env
}

func (e *testEnv) balance(t *testing.T, account string) (uint64, uint64) {
	free, reserved, err := e.ledger.Balance(addr(account))
	require.NoError(t, err)
	return free, reserved
}

func (e *testEnv) validator(t *testing.T, account string) *validator.Validator {
	v, err := e.staker.Validator(addr(account))
	require.NoError(t, err)
	return v
}

func (e *testEnv) locked(t *testing.T) uint64 {
	locked, _, _, err := e.staker.Totals()
	require.NoError(t, err)
	return locked
}

func eventsOf(evs []events.Event, typ events.Type) []events.Event {
	var out []events.Event
	for _, ev := range evs {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type TestFunc func(t *testing.T)

type TestSequence struct {
	env *testEnv

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(env *testEnv) *TestSequence {
	return &TestSequence{funcs: make([]TestFunc, 0), env: env}
}

func (st *TestSequence) AddFunc(f TestFunc) *TestSequence {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.funcs = append(st.funcs, f)
	return st
}

func (st *TestSequence) Join(account string, bond uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.JoinValidators(addr(account), bond); err != nil {
			t.Fatalf("failed to join validator %s: %v", account, err)
		}
		t.Logf("joined validator %s", account)
	})
}

func (st *TestSequence) Nominate(account, target string, amount uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.Nominate(addr(account), addr(target), amount); err != nil {
			t.Fatalf("failed to nominate %s from %s: %v", target, account, err)
		}
		t.Logf("%s nominated %s", account, target)
	})
}

func (st *TestSequence) Genesis() *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		selected, err := st.env.staker.Genesis()
		if err != nil {
			t.Fatalf("failed to start genesis session: %v", err)
		}
		if err := st.env.session.Begin(0, selected); err != nil {
			t.Fatalf("failed to begin session: %v", err)
		}
		t.Logf("genesis selected %d validators", len(selected))
	})
}

func (st *TestSequence) Rotate(times int) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		for range times {
			next, err := st.env.staker.Rotate()
			if err != nil {
				t.Fatalf("failed to rotate: %v", err)
			}
			selected, err := st.env.staker.Selected(next)
			if err != nil {
				t.Fatalf("failed to get selected of session %d: %v", next, err)
			}
			if err := st.env.session.Begin(next, selected); err != nil {
				t.Fatalf("failed to begin session %d: %v", next, err)
			}
			t.Logf("rotated to session %d", next)
		}
	})
}

func (st *TestSequence) Author(account string, blocks int) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		for range blocks {
			if err := st.env.staker.NoteAuthor(addr(account)); err != nil {
				t.Fatalf("failed to note author %s: %v", account, err)
			}
		}
	})
}

func (st *TestSequence) Exit(account string) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.ExitValidators(addr(account)); err != nil {
			t.Fatalf("failed to exit validator %s: %v", account, err)
		}
		t.Logf("exit scheduled for validator %s", account)
	})
}

func (st *TestSequence) CheckInvariants() *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker.CheckInvariants(); err != nil {
			t.Fatalf("invariants broken: %v", err)
		}
	})
}

func (st *TestSequence) Run(t *testing.T) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, f := range st.funcs {
		f(t)
	}
}

type ValidatorAssertions struct {
	env  *testEnv
	addr string

	status *validator.Status
	bond   *uint64
	total  *uint64
}

func AssertValidator(env *testEnv, account string) *ValidatorAssertions {
	return &ValidatorAssertions{env: env, addr: account}
}

func (va *ValidatorAssertions) Status(expected validator.Status) *ValidatorAssertions {
	va.status = &expected
	return va
}

func (va *ValidatorAssertions) Bond(expected uint64) *ValidatorAssertions {
	va.bond = &expected
	return va
}

func (va *ValidatorAssertions) Total(expected uint64) *ValidatorAssertions {
	va.total = &expected
	return va
}

func (va *ValidatorAssertions) Assert(t *testing.T) {
	v := va.env.validator(t, va.addr)
	require.NotNil(t, v, "validator %s not found", va.addr)

	if va.status != nil {
		assert.Equal(t, *va.status, v.Status(), "validator %s status mismatch", va.addr)
	}
	if va.bond != nil {
		assert.Equal(t, *va.bond, v.Bond(), "validator %s bond mismatch", va.addr)
	}
	if va.total != nil {
		assert.Equal(t, *va.total, v.Total(), "validator %s total mismatch", va.addr)
	}
}
