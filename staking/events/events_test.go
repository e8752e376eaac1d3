// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stakecore/stakecore/core"
)

func TestJournal(t *testing.T) {
	j := NewJournal()
	acc := core.BytesToAddress([]byte("acc"))

	j.Emit(Event{Type: JoinedValidatorCandidates, Account: acc, Amount: 10, After: 10})
	mark := j.Len()
	j.Emit(Event{Type: ValidatorBondedMore, Account: acc, Amount: 5, Before: 10, After: 15})
	j.Emit(Event{Type: ValidatorWentOffline, Account: acc})
	assert.Equal(t, 3, j.Len())

	j.Truncate(mark)
	assert.Equal(t, 1, j.Len())
	assert.Equal(t, JoinedValidatorCandidates, j.Events()[0].Type)

	j.Truncate(10)
	assert.Equal(t, 1, j.Len())

	drained := j.Drain()
	assert.Len(t, drained, 1)
	assert.Equal(t, 0, j.Len())

	j.Truncate(-1)
	assert.Empty(t, j.Events())
}
