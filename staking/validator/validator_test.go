// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/staking/types"
	"github.com/stakecore/stakecore/state"
	"github.com/stakecore/stakecore/store"
)

func newService() *Service {
	return New(store.NewContext(core.BytesToAddress([]byte("staker")), state.New(nil)))
}

func addr(s string) core.Address {
	return core.BytesToAddress([]byte(s))
}

func TestService_AddGetRemove(t *testing.T) {
	svc := newService()
	id := addr("v1")

	v, err := svc.Get(id)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = svc.MustGet(id)
	assert.True(t, reverts.Is(err, reverts.KindNotFound))

	_, err = svc.Add(id, 100)
	require.NoError(t, err)
	_, err = svc.Add(addr("v0"), 50)
	require.NoError(t, err)

	v, err = svc.MustGet(id)
	require.NoError(t, err)
	assert.Equal(t, id, v.ID())
	assert.Equal(t, uint64(100), v.Bond())
	assert.Equal(t, uint64(100), v.Total())
	assert.True(t, v.IsActive())

	ids, err := svc.IDs()
	require.NoError(t, err)
	assert.Equal(t, []core.Address{addr("v0"), id}, ids)

	require.NoError(t, v.AddNomination(addr("n1"), 40, 10))
	require.NoError(t, svc.Update(v))

	v, err = svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(140), v.Total())
	assert.Equal(t, []types.Bond{{Owner: addr("n1"), Amount: 40}}, v.Nominators())
	require.NoError(t, v.CheckTotal())

	require.NoError(t, svc.Remove(id))
	require.NoError(t, svc.Remove(id))
	exists, err := svc.Exists(id)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, svc.Remove(addr("v0")))
	ids, err = svc.IDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestValidator_Bond(t *testing.T) {
	v := newValidator(addr("v"), &body{Bond: 100, Total: 100, Status: StatusActive})

	before, after, err := v.BondMore(50)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), before)
	assert.Equal(t, uint64(150), after)

	_, _, err = v.BondLess(151, 10)
	assert.True(t, reverts.Is(err, reverts.KindUnderflow))

	_, _, err = v.BondLess(141, 10)
	assert.True(t, reverts.Is(err, reverts.KindBelowMinimum))

	_, after, err = v.BondLess(140, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), after)
	assert.Equal(t, uint64(10), v.Bond())

	_, _, err = v.BondMore(^uint64(0))
	assert.True(t, reverts.Is(err, reverts.KindInvalidArgument))
}

func TestValidator_StateMachine(t *testing.T) {
	v := newValidator(addr("v"), &body{Bond: 100, Total: 100, Status: StatusActive})

	assert.True(t, reverts.Is(v.GoOnline(), reverts.KindStateConflict))
	require.NoError(t, v.GoOffline())
	assert.True(t, v.IsIdle())
	assert.True(t, reverts.Is(v.GoOffline(), reverts.KindStateConflict))
	require.NoError(t, v.GoOnline())

	assert.True(t, v.Deactivate())
	assert.False(t, v.Deactivate())

	require.NoError(t, v.Leave(7))
	assert.True(t, v.IsLeaving())
	assert.Equal(t, uint32(7), v.LeavingSession())
	assert.Equal(t, "leaving", v.Status().String())

	assert.True(t, reverts.Is(v.Leave(8), reverts.KindStateConflict))
	assert.True(t, reverts.Is(v.GoOnline(), reverts.KindStateConflict))
	assert.True(t, reverts.Is(v.GoOffline(), reverts.KindStateConflict))
	assert.True(t, reverts.Is(v.AddNomination(addr("n"), 1, 10), reverts.KindStateConflict))
	_, _, err := v.BondMore(1)
	assert.True(t, reverts.Is(err, reverts.KindStateConflict))
	assert.False(t, v.Deactivate())
}

func TestValidator_Nominations(t *testing.T) {
	v := newValidator(addr("v"), &body{Bond: 100, Total: 100, Status: StatusActive})

	require.NoError(t, v.AddNomination(addr("n1"), 10, 2))
	assert.True(t, reverts.Is(v.AddNomination(addr("n1"), 10, 2), reverts.KindAlreadyExists))
	require.NoError(t, v.AddNomination(addr("n2"), 20, 2))
	assert.True(t, reverts.Is(v.AddNomination(addr("n3"), 30, 2), reverts.KindCardinalityExceeded))
	assert.Equal(t, uint64(130), v.Total())

	require.NoError(t, v.IncreaseNomination(addr("n1"), 5))
	assert.True(t, reverts.Is(v.IncreaseNomination(addr("n9"), 5), reverts.KindNotFound))
	assert.True(t, reverts.Is(v.DecreaseNomination(addr("n1"), 16), reverts.KindUnderflow))
	require.NoError(t, v.DecreaseNomination(addr("n1"), 15))

	amount, ok := v.Nomination(addr("n1"))
	assert.True(t, ok)
	assert.Equal(t, uint64(0), amount)

	removed, err := v.RemoveNomination(addr("n2"))
	require.NoError(t, err)
	assert.Equal(t, uint64(20), removed)
	_, err = v.RemoveNomination(addr("n2"))
	assert.True(t, reverts.Is(err, reverts.KindNotFound))

	assert.Equal(t, uint64(100), v.Total())
	assert.Equal(t, 1, v.NominatorCount())
	require.NoError(t, v.CheckTotal())
}

func TestValidator_Slash(t *testing.T) {
	v := newValidator(addr("v"), &body{Bond: 100, Total: 100, Status: StatusActive})
	require.NoError(t, v.AddNomination(addr("n1"), 50, 10))

	assert.Equal(t, uint64(30), v.SlashBond(30))
	assert.Equal(t, uint64(70), v.SlashBond(1000))
	assert.Equal(t, uint64(0), v.Bond())

	assert.Equal(t, uint64(50), v.SlashNomination(addr("n1"), 60))
	assert.Equal(t, uint64(0), v.SlashNomination(addr("n2"), 60))
	assert.Equal(t, uint64(0), v.Total())
	require.NoError(t, v.CheckTotal())

	snap := v.Snapshot()
	assert.Equal(t, uint64(0), snap.Total)
	assert.Len(t, snap.Nominators, 1)
}

func TestValidator_CheckTotal(t *testing.T) {
	v := newValidator(addr("v"), &body{Bond: 100, Total: 99, Status: StatusActive})
	assert.True(t, reverts.IsInvariant(v.CheckTotal()))
}
