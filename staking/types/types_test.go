// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stakecore/stakecore/core"
)

func TestSnapshot_Stake(t *testing.T) {
	v := core.BytesToAddress([]byte("validator"))
	n1 := core.BytesToAddress([]byte("n1"))
	n2 := core.BytesToAddress([]byte("n2"))

	snap := &Snapshot{
		Bond:       100,
		Nominators: []Bond{{Owner: n1, Amount: 40}},
		Total:      140,
	}

	assert.Equal(t, uint64(100), snap.Stake(v, v))
	assert.Equal(t, uint64(40), snap.Stake(v, n1))
	assert.Equal(t, uint64(0), snap.Stake(v, n2))
}
