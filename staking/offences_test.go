// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/currency"
	"github.com/stakecore/stakecore/session"
	"github.com/stakecore/stakecore/staking/events"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/staking/types"
	"github.com/stakecore/stakecore/staking/validator"
	"github.com/stakecore/stakecore/state"
)

func report(offender string, reporters ...string) Offence {
	o := Offence{Offender: addr(offender)}
	for _, r := range reporters {
		o.Reporters = append(o.Reporters, addr(r))
	}
	return o
}

func TestOnOffence_SlashDifference(t *testing.T) {
	env := newTestEnv(t, testParams(), "v")
	NewSequence(env).Join("v", 1000).Genesis().Run(t)

	require.NoError(t, env.staker.OnOffence([]Offence{report("v", "r")}, []core.Perbill{core.PerbillFromPercent(10)}, 0))
	AssertValidator(env, "v").Status(validator.StatusIdle).Bond(900).Total(900).Assert(t)

	free, _ := env.balance(t, "r")
	assert.Equal(t, uint64(5), free)

	require.NoError(t, env.staker.OnOffence([]Offence{report("v", "r")}, []core.Perbill{core.PerbillFromPercent(25)}, 0))
	AssertValidator(env, "v").Bond(750).Assert(t)

	free, reserved := env.balance(t, "v")
	assert.Zero(t, free)
	assert.Equal(t, uint64(750), reserved)
	free, _ = env.balance(t, "r")
	assert.Equal(t, uint64(15), free)

	slashed := eventsOf(env.staker.Events(), events.Slashed)
	require.Len(t, slashed, 2)
	assert.Equal(t, uint64(100), slashed[0].Amount)
	assert.Equal(t, uint64(150), slashed[1].Amount)

	burned, err := env.ledger.Burned()
	require.NoError(t, err)
	assert.Equal(t, uint64(235), burned.Uint64())
	issuance, err := env.ledger.Issuance()
	require.NoError(t, err)
	assert.Equal(t, uint64(765), issuance.Uint64())

	locked, slashedTotal, _, err := env.staker.Totals()
	require.NoError(t, err)
	assert.Equal(t, uint64(750), locked)
	assert.Equal(t, uint64(250), slashedTotal)
	require.NoError(t, env.staker.CheckInvariants())

	disabled, err := env.session.IsDisabled(addr("v"))
	require.NoError(t, err)
	assert.True(t, disabled)
}

func TestOnOffence_Idempotent(t *testing.T) {
	env := newTestEnv(t, testParams(), "v")
	NewSequence(env).Join("v", 1000).Genesis().Run(t)

	offence := []Offence{report("v")}
	fraction := []core.Perbill{core.PerbillFromPercent(10)}
	require.NoError(t, env.staker.OnOffence(offence, fraction, 0))
	require.NoError(t, env.staker.OnOffence(offence, fraction, 0))
	require.NoError(t, env.staker.OnOffence(offence, []core.Perbill{core.PerbillFromPercent(5)}, 0))

	AssertValidator(env, "v").Bond(900).Assert(t)
	assert.Len(t, eventsOf(env.staker.Events(), events.Slashed), 1)
	assert.Len(t, eventsOf(env.staker.Events(), events.SlashReported), 1)
}

func TestOnOffence_Nominators(t *testing.T) {
	p := testParams()
	p.BondedDuration = 5
	env := newTestEnv(t, p, "v", "n1", "n2")
	NewSequence(env).
		Join("v", 100).
		Nominate("n1", "v", 100).
		Nominate("n2", "v", 50).
		Genesis().
		AddFunc(func(t *testing.T) {
			// n2 unbonds part of its nomination after the snapshot.
			require.NoError(t, env.staker.NominatorBondLess(addr("n2"), addr("v"), 40))
		}).
		Run(t)

	require.NoError(t, env.staker.OnOffence([]Offence{report("v")}, []core.Perbill{core.PerbillFromPercent(20)}, 0))

	AssertValidator(env, "v").Bond(80).Total(80 + 80 + 0).Assert(t)
	n1, err := env.staker.Nominator(addr("n1"))
	require.NoError(t, err)
	assert.Equal(t, uint64(80), n1.Total())

	// n2 owed 10: its 10 bonded first, nothing from the chunk.
	n2, err := env.staker.Nominator(addr("n2"))
	require.NoError(t, err)
	amount, ok := n2.Nomination(addr("v"))
	require.True(t, ok)
	assert.Zero(t, amount)
	chunks, err := env.staker.Unlocking(addr("n2"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, uint64(40), chunks[0].Value)

	_, reserved := env.balance(t, "n2")
	assert.Equal(t, uint64(40), reserved)
	assert.Equal(t, uint64(160), env.locked(t))
	require.NoError(t, env.staker.CheckInvariants())
}

func TestOnOffence_SwitchedStakeStaysLiable(t *testing.T) {
	p := testParams()
	p.SlashDeferDuration = 2
	env := newTestEnv(t, p, "v", "w", "n")
	NewSequence(env).
		Join("v", 100).
		Join("w", 100).
		Nominate("n", "v", 100).
		Genesis().
		Run(t)

	require.NoError(t, env.staker.OnOffence([]Offence{report("v")}, []core.Perbill{core.PerbillFromPercent(50)}, 0))
	pending, err := env.staker.Unapplied(2)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, []types.Bond{{Owner: addr("n"), Amount: 50}}, pending[0].Others)

	require.NoError(t, env.staker.SwitchNomination(addr("n"), addr("v"), addr("w")))
	NewSequence(env).Rotate(2).CheckInvariants().Run(t)

	// the 50 owed on v is taken from the nomination now backing w
	n, err := env.staker.Nominator(addr("n"))
	require.NoError(t, err)
	amount, ok := n.Nomination(addr("w"))
	require.True(t, ok)
	assert.Equal(t, uint64(50), amount)
	assert.Equal(t, uint64(50), n.Total())
	AssertValidator(env, "w").Bond(100).Total(150).Assert(t)
	AssertValidator(env, "v").Bond(50).Total(50).Assert(t)

	_, reserved := env.balance(t, "n")
	assert.Equal(t, uint64(50), reserved)

	pool, err := env.staker.BondedPool()
	require.NoError(t, err)
	for _, c := range pool {
		if c.Owner == addr("w") {
			assert.Equal(t, uint64(150), c.Amount)
		}
	}
}

func TestOnOffence_UnbondedStakeStaysLiable(t *testing.T) {
	for name, leave := range map[string]func(*Staker) error{
		"revoke": func(s *Staker) error { return s.RevokeNomination(addr("n"), addr("v")) },
		"leave":  func(s *Staker) error { return s.LeaveNominators(addr("n")) },
	} {
		t.Run(name, func(t *testing.T) {
			p := testParams()
			p.SlashDeferDuration = 2
			env := newTestEnv(t, p, "v", "n")
			NewSequence(env).Join("v", 100).Nominate("n", "v", 100).Genesis().Run(t)

			require.NoError(t, env.staker.OnOffence([]Offence{report("v")}, []core.Perbill{core.PerbillFromPercent(50)}, 0))
			require.NoError(t, leave(env.staker))
			NewSequence(env).Rotate(2).CheckInvariants().Run(t)

			n, err := env.staker.Nominator(addr("n"))
			require.NoError(t, err)
			assert.Nil(t, n)
			chunks, err := env.staker.Unlocking(addr("n"))
			require.NoError(t, err)
			require.Len(t, chunks, 1)
			assert.Equal(t, uint64(50), chunks[0].Value)

			_, reserved := env.balance(t, "n")
			assert.Equal(t, uint64(50), reserved)
		})
	}
}

func TestOnOffence_ShortfallReducesPayout(t *testing.T) {
	env := newTestEnv(t, testParams(), "v", "r")
	NewSequence(env).Join("v", 100).Genesis().Run(t)

	// the exposure names a nominator holding no stake at all
	o := report("v", "r")
	o.Exposure = &types.Snapshot{
		Bond:       100,
		Nominators: []types.Bond{{Owner: addr("ghost"), Amount: 100}},
		Total:      200,
	}
	require.NoError(t, env.staker.OnOffence([]Offence{o}, []core.Perbill{core.PerbillFromPercent(50)}, 0))

	AssertValidator(env, "v").Bond(50).Assert(t)
	slashed := eventsOf(env.staker.Events(), events.Slashed)
	require.Len(t, slashed, 1)
	assert.Equal(t, addr("v"), slashed[0].Account)

	// the 50 missing from ghost exceeds the reporter payout
	free, _ := env.balance(t, "r")
	assert.Equal(t, uint64(endowment), free)
	assert.Empty(t, eventsOf(env.staker.Events(), events.ReporterRewarded))

	burned, err := env.ledger.Burned()
	require.NoError(t, err)
	assert.Equal(t, uint64(50), burned.Uint64())
	require.NoError(t, env.staker.CheckInvariants())
}

func TestOnOffence_SlashesUnlockingChunks(t *testing.T) {
	env := newTestEnv(t, testParams(), "v")
	NewSequence(env).Join("v", 100).Genesis().Run(t)

	require.NoError(t, env.staker.ValidatorBondLess(addr("v"), 70))
	require.NoError(t, env.staker.OnOffence([]Offence{report("v")}, []core.Perbill{core.PerbillFromPercent(50)}, 0))

	// 50 owed against the snapshot: 30 from the bond, 20 from the chunk.
	AssertValidator(env, "v").Bond(0).Assert(t)
	chunks, err := env.staker.Unlocking(addr("v"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, uint64(50), chunks[0].Value)

	_, reserved := env.balance(t, "v")
	assert.Equal(t, uint64(50), reserved)
	assert.Zero(t, env.locked(t))
}

func TestOnOffence_DeferredCancellation(t *testing.T) {
	p := testParams()
	p.SlashDeferDuration = 2
	env := newTestEnv(t, p, "v1", "v2")
	NewSequence(env).Join("v1", 100).Join("v2", 100).Genesis().Run(t)

	require.NoError(t, env.staker.OnOffence(
		[]Offence{report("v1"), report("v2")},
		[]core.Perbill{core.PerbillFromPercent(10), core.PerbillFromPercent(10)},
		0,
	))
	pending, err := env.staker.Unapplied(2)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	assert.Len(t, eventsOf(env.staker.Events(), events.SlashDeferred), 2)
	AssertValidator(env, "v1").Bond(100).Status(validator.StatusIdle).Assert(t)

	err = env.staker.CancelDeferredSlash(addr("v1"), 2, []core.Address{addr("v1")})
	assert.True(t, reverts.Is(err, reverts.KindUnauthorized))
	err = env.staker.CancelDeferredSlash(root, 1, []core.Address{addr("v1")})
	assert.True(t, reverts.Is(err, reverts.KindInvalidArgument))
	require.NoError(t, env.staker.CancelDeferredSlash(root, 2, []core.Address{addr("v1")}))

	NewSequence(env).Rotate(1).Run(t)
	AssertValidator(env, "v2").Bond(100).Assert(t)

	NewSequence(env).Rotate(1).CheckInvariants().Run(t)
	AssertValidator(env, "v1").Bond(100).Assert(t)
	AssertValidator(env, "v2").Bond(90).Assert(t)

	_, reserved := env.balance(t, "v1")
	assert.Equal(t, uint64(100), reserved)
	_, reserved = env.balance(t, "v2")
	assert.Equal(t, uint64(90), reserved)

	pending, err = env.staker.Unapplied(2)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Len(t, eventsOf(env.staker.Events(), events.SlashCancelled), 1)
}

func TestOnOffence_Filters(t *testing.T) {
	env := newTestEnv(t, testParams(), "v", "w")
	NewSequence(env).Join("v", 100).Join("w", 100).Genesis().Run(t)

	err := env.staker.OnOffence([]Offence{report("v")}, nil, 0)
	assert.True(t, reverts.Is(err, reverts.KindInvalidArgument))
	err = env.staker.OnOffence([]Offence{report("v")}, []core.Perbill{core.PerbillFromPercent(10)}, 3)
	assert.True(t, reverts.Is(err, reverts.KindInvalidArgument), "future session")

	require.NoError(t, env.staker.SetInvulnerables(root, []core.Address{addr("v")}))
	require.NoError(t, env.staker.OnOffence(
		[]Offence{report("v"), report("nobody")},
		[]core.Perbill{core.PerbillFromPercent(10), core.PerbillFromPercent(10)},
		0,
	))
	AssertValidator(env, "v").Bond(100).Status(validator.StatusActive).Assert(t)

	NewSequence(env).Rotate(4).Run(t)
	require.NoError(t, env.staker.OnOffence([]Offence{report("w")}, []core.Perbill{core.PerbillFromPercent(10)}, 0))
	AssertValidator(env, "w").Bond(100).Assert(t)
}

func TestOnOffence_ZeroSlashKicksOut(t *testing.T) {
	env := newTestEnv(t, testParams(), "v")
	NewSequence(env).Join("v", 100).Genesis().Run(t)

	require.NoError(t, env.staker.OnOffence([]Offence{report("v")}, []core.Perbill{core.PerbillZero}, 0))
	AssertValidator(env, "v").Bond(100).Status(validator.StatusIdle).Assert(t)
	assert.Empty(t, eventsOf(env.staker.Events(), events.Slashed))

	pool, err := env.staker.BondedPool()
	require.NoError(t, err)
	assert.Empty(t, pool)
}

type faultySink struct {
	*currency.Ledger
}

func (faultySink) Burn(uint64) error {
	return errors.New("sink offline")
}

func TestOnOffence_RevertsAtomically(t *testing.T) {
	st := state.New(nil)
	ledger := currency.New(addr("ledger"), st, currency.Config{ExistentialDeposit: 1})
	sess := session.New(addr("session"), st, core.PerbillFromPercent(34))
	require.NoError(t, ledger.Endow(addr("v"), endowment))
	stk := New(addr("staker"), st, testParams(), faultySink{ledger}, sess, RootAuthorizer(root))

	require.NoError(t, stk.JoinValidators(addr("v"), 100))
	_, err := stk.Genesis()
	require.NoError(t, err)
	mark := len(stk.Events())

	err = stk.OnOffence([]Offence{report("v")}, []core.Perbill{core.PerbillFromPercent(10)}, 0)
	assert.EqualError(t, errors.Cause(err), "sink offline")

	v, err := stk.Validator(addr("v"))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), v.Bond())
	assert.True(t, v.IsActive())
	_, reserved, err := ledger.Balance(addr("v"))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), reserved)
	assert.Len(t, stk.Events(), mark)

	spans, err := stk.Spans(addr("v"))
	require.NoError(t, err)
	assert.Nil(t, spans)
	require.NoError(t, stk.CheckInvariants())
}
