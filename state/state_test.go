// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/lvldb"
)

func TestStateCheckpoint(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	st := New(db)
	addr := core.BytesToAddress([]byte("staker"))
	key := core.BytesToBytes32([]byte("key"))

	raw, err := st.GetRawStorage(addr, key)
	assert.Nil(t, err)
	assert.Empty(t, raw)

	st.SetRawStorage(addr, key, rlp.RawValue{0x01})
	cp := st.NewCheckpoint()
	st.SetRawStorage(addr, key, rlp.RawValue{0x02})

	raw, _ = st.GetRawStorage(addr, key)
	assert.Equal(t, rlp.RawValue{0x02}, raw)

	st.RevertTo(cp)
	raw, _ = st.GetRawStorage(addr, key)
	assert.Equal(t, rlp.RawValue{0x01}, raw)

	// reverting below the base level keeps the state writable
	st.RevertTo(0)
	st.SetRawStorage(addr, key, rlp.RawValue{0x03})
	raw, _ = st.GetRawStorage(addr, key)
	assert.Equal(t, rlp.RawValue{0x03}, raw)
}

func TestStageCommit(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	addr := core.BytesToAddress([]byte("staker"))
	k1 := core.BytesToBytes32([]byte("k1"))
	k2 := core.BytesToBytes32([]byte("k2"))

	st := New(db)
	assert.Nil(t, st.EncodeStorage(addr, k1, func() ([]byte, error) {
		return rlp.EncodeToBytes(uint64(20))
	}))
	st.SetRawStorage(addr, k2, rlp.RawValue{0xc0})

	stage := st.Stage()
	assert.Equal(t, 2, stage.Len())
	hash := stage.Hash()
	assert.Equal(t, hash, st.Stage().Hash())
	require.NoError(t, stage.Commit(db.Bulk()))

	// a fresh state reads committed values
	st = New(db)
	var v uint64
	assert.Nil(t, st.DecodeStorage(addr, k1, func(raw []byte) error {
		return rlp.DecodeBytes(raw, &v)
	}))
	assert.Equal(t, uint64(20), v)

	// clearing a slot deletes it from the store
	st.SetRawStorage(addr, k2, nil)
	require.NoError(t, st.Stage().Commit(db.Bulk()))
	has, _ := db.Has(storageKey{addr, k2}.Bytes())
	assert.False(t, has)
}
