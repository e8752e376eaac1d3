// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package unbonding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/types"
	"github.com/stakecore/stakecore/state"
	"github.com/stakecore/stakecore/store"
)

func TestUnbonding(t *testing.T) {
	svc := New(store.NewContext(core.BytesToAddress([]byte("staker")), state.New(nil)))
	acc := core.BytesToAddress([]byte("acc"))

	require.NoError(t, svc.Schedule(acc, 10, 5))
	require.NoError(t, svc.Schedule(acc, 20, 3))
	require.NoError(t, svc.Schedule(acc, 5, 5))
	require.NoError(t, svc.Schedule(acc, 0, 9))

	chunks, err := svc.Chunks(acc)
	require.NoError(t, err)
	assert.Equal(t, []types.UnlockChunk{{Value: 20, Session: 3}, {Value: 15, Session: 5}}, chunks)

	total, err := svc.Total(acc)
	require.NoError(t, err)
	assert.Equal(t, uint64(35), total)

	released, err := svc.Withdraw(acc, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), released)

	released, err = svc.Withdraw(acc, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), released)

	require.NoError(t, svc.Schedule(acc, 7, 8))
	// latest unlock first
	taken, err := svc.Slash(acc, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), taken)
	chunks, err = svc.Chunks(acc)
	require.NoError(t, err)
	assert.Equal(t, []types.UnlockChunk{{Value: 12, Session: 5}}, chunks)

	taken, err = svc.Slash(acc, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), taken)

	chunks, err = svc.Chunks(acc)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	taken, err = svc.Slash(acc, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), taken)
}
