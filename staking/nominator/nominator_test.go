// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nominator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/state"
	"github.com/stakecore/stakecore/store"
)

func addr(s string) core.Address {
	return core.BytesToAddress([]byte(s))
}

func TestNominator(t *testing.T) {
	svc := New(store.NewContext(core.BytesToAddress([]byte("staker")), state.New(nil)))
	id := addr("n")

	n, err := svc.Get(id)
	require.NoError(t, err)
	assert.Nil(t, n)

	_, err = svc.MustGet(id)
	assert.True(t, reverts.Is(err, reverts.KindNotFound))

	n, err = svc.GetOrNew(id)
	require.NoError(t, err)
	assert.True(t, n.IsEmpty())

	require.NoError(t, n.Add(addr("v1"), 10, 2))
	assert.True(t, reverts.Is(n.Add(addr("v1"), 10, 2), reverts.KindAlreadyExists))
	require.NoError(t, n.Add(addr("v2"), 20, 2))
	assert.True(t, reverts.Is(n.Add(addr("v3"), 30, 2), reverts.KindCardinalityExceeded))
	require.NoError(t, svc.Update(n))

	n, err = svc.MustGet(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), n.Total())
	assert.Equal(t, 2, n.Count())

	amount, err := n.Increase(addr("v1"), 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(15), amount)

	_, err = n.Decrease(addr("v1"), 16)
	assert.True(t, reverts.Is(err, reverts.KindUnderflow))
	amount, err = n.Decrease(addr("v1"), 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), amount)

	assert.Equal(t, uint64(10), n.Slash(addr("v1"), 11))
	assert.Equal(t, uint64(0), n.Slash(addr("v9"), 11))
	assert.Equal(t, uint64(20), n.Total())
	require.NoError(t, n.CheckTotal())

	ids, err := svc.IDs()
	require.NoError(t, err)
	assert.Equal(t, []core.Address{id}, ids)

	_, err = n.Remove(addr("v1"))
	require.NoError(t, err)
	_, err = n.Remove(addr("v2"))
	require.NoError(t, err)
	_, err = n.Remove(addr("v2"))
	assert.True(t, reverts.Is(err, reverts.KindNotFound))

	// the last removal drops the record
	require.NoError(t, svc.Update(n))
	exists, err := svc.Exists(id)
	require.NoError(t, err)
	assert.False(t, exists)
	ids, err = svc.IDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}
