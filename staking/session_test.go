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
)

func TestRewardSplit_FundedReserve(t *testing.T) {
	env := newTestEnv(t, testParams(), "v", "n1", "n2", "funder")

	NewSequence(env).
		Join("v", 20).
		Nominate("n1", "v", 10).
		Nominate("n2", "v", 10).
		Genesis().
		AddFunc(func(t *testing.T) {
			require.NoError(t, env.staker.FundSessionReward(addr("funder"), 0, 1000))
		}).
		Author("v", 5).
		Rotate(1).
		CheckInvariants().
		Run(t)

	free, reserved := env.balance(t, "v")
	assert.Equal(t, uint64(endowment-20+600), free)
	assert.Equal(t, uint64(20), reserved)
	free, _ = env.balance(t, "n1")
	assert.Equal(t, uint64(endowment-10+200), free)
	free, _ = env.balance(t, "n2")
	assert.Equal(t, uint64(endowment-10+200), free)

	reserve, err := env.ledger.FreeBalance(env.staker.Address())
	require.NoError(t, err)
	assert.Zero(t, reserve)

	rewarded := eventsOf(env.staker.Events(), events.Rewarded)
	assert.Len(t, rewarded, 3)
	_, _, total, err := env.staker.Totals()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), total)

	points, err := env.staker.TotalPoints(0)
	require.NoError(t, err)
	assert.Zero(t, points, "points are purged once paid")
}

func TestRewardSplit_Minted(t *testing.T) {
	p := testParams()
	p.RewardPerSession = 1000
	env := newTestEnv(t, p, "v", "n1", "n2")

	NewSequence(env).
		Join("v", 20).
		Nominate("n1", "v", 10).
		Nominate("n2", "v", 10).
		Genesis().
		Author("v", 5).
		Rotate(1).
		Run(t)

	free, _ := env.balance(t, "v")
	assert.Equal(t, uint64(endowment-20+600), free)
	free, _ = env.balance(t, "n1")
	assert.Equal(t, uint64(endowment-10+200), free)

	issuance, err := env.ledger.Issuance()
	require.NoError(t, err)
	assert.Equal(t, uint64(3*endowment+1000), issuance.Uint64())

	pot, err := env.staker.RewardPot(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), pot, "next session is funded at selection")
}

func TestRewardSplit_PointsSharedAcrossValidators(t *testing.T) {
	p := testParams()
	p.RewardPerSession = 1000
	p.Commission = core.PerbillZero
	env := newTestEnv(t, p, "a", "b")

	NewSequence(env).
		Join("a", 20).
		Join("b", 30).
		Genesis().
		Author("a", 3).
		AddFunc(func(t *testing.T) {
			require.NoError(t, env.staker.NoteUncle(addr("a"), addr("b")))
		}).
		Rotate(1).
		Run(t)

	// a: 3*20 + 2 = 62 points, b: 1 point, of 63.
	free, _ := env.balance(t, "a")
	assert.Equal(t, uint64(endowment-20+984), free)
	free, _ = env.balance(t, "b")
	assert.Equal(t, uint64(endowment-30+16), free)
}

func TestSession_Selection(t *testing.T) {
	p := testParams()
	p.TotalSelected = 2
	env := newTestEnv(t, p, "a", "b", "c", "d", "n")

	NewSequence(env).
		Join("a", 20).
		Join("b", 50).
		Join("c", 30).
		Join("d", 40).
		Nominate("n", "a", 40).
		Genesis().
		Run(t)

	selected, err := env.staker.Selected(0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.Address{addr("a"), addr("b")}, selected)

	staked, err := env.staker.Staked(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(110), staked)
	require.NoError(t, env.staker.CheckSession(0))

	snap, err := env.staker.Snapshot(0, addr("a"))
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, uint64(20), snap.Bond)
	assert.Equal(t, uint64(40), snap.Stake(addr("a"), addr("n")))

	recorded, err := env.session.Exposure(0, addr("a"))
	require.NoError(t, err)
	require.NotNil(t, recorded)
	assert.Equal(t, uint64(60), recorded.Total)

	chosen := eventsOf(env.staker.Events(), events.ValidatorChosen)
	assert.Len(t, chosen, 2)
}

func TestSession_SnapshotIsAuthoritative(t *testing.T) {
	p := testParams()
	p.RewardPerSession = 1000
	p.Commission = core.PerbillZero
	env := newTestEnv(t, p, "v", "n")

	NewSequence(env).
		Join("v", 20).
		Genesis().
		Nominate("n", "v", 20).
		Author("v", 1).
		Rotate(1).
		Run(t)

	// n joined after selection and earns nothing for session 0.
	free, _ := env.balance(t, "n")
	assert.Equal(t, uint64(endowment-20), free)
	free, _ = env.balance(t, "v")
	assert.Equal(t, uint64(endowment-20+1000), free)

	snap, err := env.staker.Snapshot(1, addr("v"))
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, uint64(40), snap.Total)
}

func TestSession_PruneBondedWindow(t *testing.T) {
	env := newTestEnv(t, testParams(), "v")

	NewSequence(env).
		Join("v", 20).
		Genesis().
		Rotate(4).
		Run(t)

	sessions, err := env.staker.BondedSessions()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3, 4}, sessions)

	selected, err := env.staker.Selected(0)
	require.NoError(t, err)
	assert.Empty(t, selected)

	recorded, err := env.session.Exposure(0, addr("v"))
	require.NoError(t, err)
	assert.Nil(t, recorded)
	recorded, err = env.session.Exposure(1, addr("v"))
	require.NoError(t, err)
	assert.NotNil(t, recorded)
}

func TestSession_Lifecycle(t *testing.T) {
	env := newTestEnv(t, testParams(), "v")

	_, err := env.staker.Rotate()
	assert.True(t, reverts.Is(err, reverts.KindStateConflict))

	require.NoError(t, env.staker.JoinValidators(addr("v"), 20))
	_, err = env.staker.Genesis()
	require.NoError(t, err)
	_, err = env.staker.Genesis()
	assert.True(t, reverts.Is(err, reverts.KindStateConflict))

	err = env.staker.StartSession(0)
	assert.True(t, reverts.Is(err, reverts.KindInvalidArgument))

	next, err := env.staker.Rotate()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), next)
	current, err := env.staker.CurrentSession()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), current)
}

func TestSession_EmptySelection(t *testing.T) {
	env := newTestEnv(t, testParams())

	selected, err := env.staker.Genesis()
	require.NoError(t, err)
	assert.Empty(t, selected)

	staked, err := env.staker.Staked(0)
	require.NoError(t, err)
	assert.Zero(t, staked)
}

func TestFundSessionReward(t *testing.T) {
	env := newTestEnv(t, testParams(), "v", "funder")

	NewSequence(env).Join("v", 20).Genesis().Rotate(2).Run(t)

	err := env.staker.FundSessionReward(addr("funder"), 1, 10)
	assert.True(t, reverts.Is(err, reverts.KindInvalidArgument), "past session")
	err = env.staker.FundSessionReward(addr("funder"), 2, 0)
	assert.True(t, reverts.Is(err, reverts.KindInvalidArgument), "zero amount")
	err = env.staker.FundSessionReward(addr("funder"), 2, endowment+1)
	assert.True(t, reverts.Is(err, reverts.KindInsufficientFunds))

	require.NoError(t, env.staker.FundSessionReward(addr("funder"), 5, 100))
	pot, err := env.staker.RewardPot(5)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), pot)

	funded := eventsOf(env.staker.Events(), events.SessionRewardFunded)
	require.Len(t, funded, 1)
	assert.Equal(t, uint64(100), funded[0].After)
}
