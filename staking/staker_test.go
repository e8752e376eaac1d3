// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/events"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/staking/types"
	"github.com/stakecore/stakecore/staking/validator"
)

func TestBondBoundaries(t *testing.T) {
	env := newTestEnv(t, testParams(), "a", "b", "n1", "n2", "n3")
	require.NoError(t, env.ledger.Endow(addr("poor"), 10))
	stk := env.staker

	tests := []struct {
		name string
		call func() error
		kind reverts.Kind
	}{
		{"validator bond below minimum", func() error { return stk.JoinValidators(addr("a"), 19) }, reverts.KindBelowMinimum},
		{"validator bond at minimum", func() error { return stk.JoinValidators(addr("a"), 20) }, reverts.KindUnknown},
		{"join twice", func() error { return stk.JoinValidators(addr("a"), 20) }, reverts.KindAlreadyExists},
		{"join without funds", func() error { return stk.JoinValidators(addr("poor"), 20) }, reverts.KindInsufficientFunds},
		{"nomination below minimum", func() error { return stk.Nominate(addr("n1"), addr("a"), 4) }, reverts.KindBelowMinimum},
		{"nominator stake below minimum", func() error { return stk.Nominate(addr("n1"), addr("a"), 5) }, reverts.KindBelowMinimum},
		{"nominate unknown validator", func() error { return stk.Nominate(addr("n1"), addr("x"), 10) }, reverts.KindNotFound},
		{"nominator stake at minimum", func() error { return stk.Nominate(addr("n1"), addr("a"), 10) }, reverts.KindUnknown},
		{"nominate twice", func() error { return stk.Nominate(addr("n1"), addr("a"), 10) }, reverts.KindAlreadyExists},
		{"nominator joins validators", func() error { return stk.JoinValidators(addr("n1"), 20) }, reverts.KindAlreadyExists},
		{"validator nominates", func() error { return stk.Nominate(addr("a"), addr("a"), 10) }, reverts.KindAlreadyExists},
		{"second nominator", func() error { return stk.Nominate(addr("n2"), addr("a"), 10) }, reverts.KindUnknown},
		{"nominators per validator exceeded", func() error { return stk.Nominate(addr("n3"), addr("a"), 10) }, reverts.KindCardinalityExceeded},
		{"nomination decrease below minimum", func() error { return stk.NominatorBondLess(addr("n1"), addr("a"), 6) }, reverts.KindBelowMinimum},
		{"nomination decrease by zero", func() error { return stk.NominatorBondLess(addr("n1"), addr("a"), 0) }, reverts.KindInvalidArgument},
		{"nomination increase", func() error { return stk.NominatorBondMore(addr("n1"), addr("a"), 10) }, reverts.KindUnknown},
		{"nomination decrease at minimum", func() error { return stk.NominatorBondLess(addr("n1"), addr("a"), 10) }, reverts.KindUnknown},
		{"validator decrease below minimum", func() error { return stk.ValidatorBondLess(addr("a"), 1) }, reverts.KindBelowMinimum},
		{"validator decrease beyond bond", func() error { return stk.ValidatorBondLess(addr("a"), 21) }, reverts.KindUnderflow},
		{"validator increase by zero", func() error { return stk.ValidatorBondMore(addr("a"), 0) }, reverts.KindInvalidArgument},
		{"validator increase", func() error { return stk.ValidatorBondMore(addr("a"), 30) }, reverts.KindUnknown},
		{"validator decrease", func() error { return stk.ValidatorBondLess(addr("a"), 30) }, reverts.KindUnknown},
		{"unknown validator bond more", func() error { return stk.ValidatorBondMore(addr("b"), 1) }, reverts.KindNotFound},
		{"switch to the same validator", func() error { return stk.SwitchNomination(addr("n1"), addr("a"), addr("a")) }, reverts.KindInvalidArgument},
	}

	for _, tt := range tests {
		err := tt.call()
		if tt.kind == reverts.KindUnknown {
			require.NoError(t, err, tt.name)
		} else {
			assert.True(t, reverts.Is(err, tt.kind), "%s: got %v", tt.name, err)
		}
		require.NoError(t, stk.CheckInvariants(), tt.name)
	}

	assert.Equal(t, uint64(20+10+10), env.locked(t))
	_, reserved := env.balance(t, "a")
	assert.Equal(t, uint64(50), reserved, "decreased bond stays reserved until withdrawn")
}

func TestValidatorStateMachine(t *testing.T) {
	env := newTestEnv(t, testParams(), "v")
	stk := env.staker
	NewSequence(env).Join("v", 20).Genesis().Run(t)

	assert.True(t, reverts.Is(stk.GoOnline(addr("v")), reverts.KindStateConflict))
	require.NoError(t, stk.GoOffline(addr("v")))
	assert.True(t, reverts.Is(stk.GoOffline(addr("v")), reverts.KindStateConflict))

	pool, err := stk.BondedPool()
	require.NoError(t, err)
	assert.Empty(t, pool)

	require.NoError(t, stk.GoOnline(addr("v")))
	pool, err = stk.BondedPool()
	require.NoError(t, err)
	assert.Equal(t, []types.Bond{{Owner: addr("v"), Amount: 20}}, pool)

	require.NoError(t, stk.ExitValidators(addr("v")))
	AssertValidator(env, "v").Status(validator.StatusLeaving).Assert(t)
	assert.True(t, reverts.Is(stk.ExitValidators(addr("v")), reverts.KindStateConflict))
	assert.True(t, reverts.Is(stk.GoOnline(addr("v")), reverts.KindStateConflict))
	assert.True(t, reverts.Is(stk.ValidatorBondMore(addr("v"), 5), reverts.KindStateConflict))

	exits, err := stk.ExitQueue()
	require.NoError(t, err)
	assert.Equal(t, []types.Bond{{Owner: addr("v"), Amount: 3}}, exits)
}

func TestExitRoundTrip(t *testing.T) {
	env := newTestEnv(t, testParams(), "v1", "v2", "n")
	stk := env.staker

	NewSequence(env).
		Join("v1", 100).
		Join("v2", 100).
		Nominate("n", "v1", 20).
		Genesis().
		Exit("v1").
		CheckInvariants().
		AddFunc(func(t *testing.T) {
			assert.True(t, reverts.Is(stk.Nominate(addr("n"), addr("v1"), 5), reverts.KindAlreadyExists))
		}).
		Rotate(2).
		Run(t)

	selected, err := stk.Selected(1)
	require.NoError(t, err)
	assert.Equal(t, []core.Address{addr("v2")}, selected)
	AssertValidator(env, "v1").Status(validator.StatusLeaving).Total(120).Assert(t)

	NewSequence(env).Rotate(1).CheckInvariants().Run(t)

	assert.Nil(t, env.validator(t, "v1"))
	n, err := stk.Nominator(addr("n"))
	require.NoError(t, err)
	assert.Nil(t, n)

	free, reserved := env.balance(t, "v1")
	assert.Equal(t, uint64(endowment), free)
	assert.Zero(t, reserved)
	free, reserved = env.balance(t, "n")
	assert.Equal(t, uint64(endowment), free)
	assert.Zero(t, reserved)
	assert.Equal(t, uint64(100), env.locked(t))

	left := eventsOf(stk.Events(), events.ValidatorLeft)
	require.Len(t, left, 1)
	assert.Equal(t, uint64(120), left[0].Amount)
	assert.Equal(t, uint64(220), left[0].Before)
	assert.Equal(t, uint64(100), left[0].After)
	assert.Len(t, eventsOf(stk.Events(), events.NominatorLeft), 1)
}

func TestWithdrawUnbonded(t *testing.T) {
	env := newTestEnv(t, testParams(), "v", "n")
	stk := env.staker

	NewSequence(env).
		Join("v", 100).
		Nominate("n", "v", 30).
		Genesis().
		Run(t)

	require.NoError(t, stk.ValidatorBondLess(addr("v"), 30))
	require.NoError(t, stk.RevokeNomination(addr("n"), addr("v")))
	assert.Equal(t, uint64(70), env.locked(t))

	n, err := stk.Nominator(addr("n"))
	require.NoError(t, err)
	assert.Nil(t, n, "last revoke removes the nominator")

	released, err := stk.WithdrawUnbonded(addr("v"))
	require.NoError(t, err)
	assert.Zero(t, released, "nothing matured yet")

	NewSequence(env).Rotate(3).Run(t)

	released, err = stk.WithdrawUnbonded(addr("v"))
	require.NoError(t, err)
	assert.Equal(t, uint64(30), released)
	released, err = stk.WithdrawUnbonded(addr("n"))
	require.NoError(t, err)
	assert.Equal(t, uint64(30), released)

	free, reserved := env.balance(t, "v")
	assert.Equal(t, uint64(endowment-70), free)
	assert.Equal(t, uint64(70), reserved)
	free, reserved = env.balance(t, "n")
	assert.Equal(t, uint64(endowment), free)
	assert.Zero(t, reserved)
	assert.Len(t, eventsOf(stk.Events(), events.Withdrawn), 2)
}

func TestSwitchAndLeaveNominators(t *testing.T) {
	env := newTestEnv(t, testParams(), "a", "b", "c", "n")
	stk := env.staker

	NewSequence(env).
		Join("a", 20).
		Join("b", 20).
		Join("c", 20).
		Nominate("n", "a", 10).
		Nominate("n", "b", 15).
		Run(t)

	assert.True(t, reverts.Is(stk.Nominate(addr("n"), addr("c"), 10), reverts.KindCardinalityExceeded))
	assert.True(t, reverts.Is(stk.SwitchNomination(addr("n"), addr("a"), addr("b")), reverts.KindAlreadyExists))

	require.NoError(t, stk.SwitchNomination(addr("n"), addr("a"), addr("c")))
	AssertValidator(env, "a").Total(20).Assert(t)
	AssertValidator(env, "c").Total(30).Assert(t)
	require.NoError(t, stk.CheckInvariants())
	assert.Equal(t, uint64(85), env.locked(t))

	require.NoError(t, stk.LeaveNominators(addr("n")))
	AssertValidator(env, "b").Total(20).Assert(t)
	AssertValidator(env, "c").Total(20).Assert(t)
	assert.Equal(t, uint64(60), env.locked(t))

	chunks, err := stk.Unlocking(addr("n"))
	require.NoError(t, err)
	assert.Equal(t, []types.UnlockChunk{{Value: 25, Session: 3}}, chunks)
	assert.True(t, reverts.Is(stk.LeaveNominators(addr("n")), reverts.KindNotFound))
	require.NoError(t, stk.CheckInvariants())
}

func TestAtomicRevert(t *testing.T) {
	env := newTestEnv(t, testParams(), "a", "n")
	stk := env.staker
	NewSequence(env).Join("a", 20).Run(t)
	mark := len(stk.Events())

	// the nominator record is built before the reserve fails
	err := stk.Nominate(addr("n"), addr("a"), endowment+1)
	assert.True(t, reverts.Is(err, reverts.KindInsufficientFunds))

	n, err := stk.Nominator(addr("n"))
	require.NoError(t, err)
	assert.Nil(t, n)
	AssertValidator(env, "a").Total(20).Assert(t)
	assert.Len(t, stk.Events(), mark)
	assert.Equal(t, uint64(20), env.locked(t))

	drained := stk.DrainEvents()
	assert.Len(t, drained, mark)
	assert.Empty(t, stk.Events())
}

func TestAdmin(t *testing.T) {
	env := newTestEnv(t, testParams(), "a", "b", "c")
	stk := env.staker

	assert.True(t, reverts.Is(stk.SetTotalSelected(addr("a"), 2), reverts.KindUnauthorized))
	assert.True(t, reverts.Is(stk.SetTotalSelected(root, 0), reverts.KindBelowMinimum))
	require.NoError(t, stk.SetTotalSelected(root, 1))

	assert.True(t, reverts.Is(stk.SetCommission(root, core.PerbillOne+1), reverts.KindInvalidArgument))
	require.NoError(t, stk.SetCommission(root, core.PerbillFromPercent(5)))

	require.NoError(t, stk.SetInvulnerables(root, []core.Address{addr("b"), addr("a"), addr("b")}))
	ids, err := stk.Invulnerables()
	require.NoError(t, err)
	assert.Equal(t, []core.Address{addr("a"), addr("b")}, ids)

	p, err := stk.Params()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), p.TotalSelected)
	assert.Equal(t, core.PerbillFromPercent(5), p.Commission)

	NewSequence(env).Join("a", 20).Join("b", 30).Join("c", 25).Genesis().Run(t)
	selected, err := stk.Selected(0)
	require.NoError(t, err)
	assert.Equal(t, []core.Address{addr("b")}, selected)

	set := eventsOf(stk.Events(), events.TotalSelectedSet)
	require.Len(t, set, 1)
	assert.Equal(t, uint64(3), set[0].Before)
	assert.Equal(t, uint64(1), set[0].After)
}
