// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/types"
	"github.com/stakecore/stakecore/state"
)

func addr(s string) core.Address {
	return core.BytesToAddress([]byte(s))
}

func TestSession_Disable(t *testing.T) {
	s := New(addr("session"), state.New(nil), core.PerbillFromPercent(34))
	set := []core.Address{addr("a"), addr("b"), addr("c")}
	require.NoError(t, s.Begin(1, set))

	force, err := s.DisableValidator(addr("b"))
	require.NoError(t, err)
	assert.False(t, force, "1 of 3 is within the threshold")

	force, err = s.DisableValidator(addr("b"))
	require.NoError(t, err)
	assert.False(t, force, "disabling twice counts once")

	force, err = s.DisableValidator(addr("a"))
	require.NoError(t, err)
	assert.True(t, force)

	disabled, err := s.IsDisabled(addr("a"))
	require.NoError(t, err)
	assert.True(t, disabled)

	require.NoError(t, s.Begin(2, set))
	ids, err := s.Disabled()
	require.NoError(t, err)
	assert.Empty(t, ids)

	current, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), current)
}

func TestSession_HistoricalExposures(t *testing.T) {
	s := New(addr("session"), state.New(nil), core.PerbillFromPercent(34))
	snap := func(total uint64) *types.Snapshot {
		return &types.Snapshot{Bond: total, Total: total}
	}

	for session := range uint32(4) {
		require.NoError(t, s.NoteExposure(session, addr("a"), snap(uint64(session)+10)))
		require.NoError(t, s.NoteExposure(session, addr("b"), snap(uint64(session)+20)))
	}
	history, err := s.History()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 2, 3}, history)

	got, err := s.Exposure(2, addr("b"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(22), got.Total)

	require.NoError(t, s.PruneHistoricalUpTo(2))
	history, err = s.History()
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 3}, history)

	got, err = s.Exposure(1, addr("a"))
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = s.Exposure(2, addr("a"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(12), got.Bond)

	require.NoError(t, s.PruneHistoricalUpTo(10))
	history, err = s.History()
	require.NoError(t, err)
	assert.Empty(t, history)
}
