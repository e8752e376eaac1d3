// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/events"
)

func newTestLog(t *testing.T) *EventLog {
	l, err := NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func sample() []events.Event {
	alice := core.BytesToAddress([]byte("alice"))
	bob := core.BytesToAddress([]byte("bob"))
	return []events.Event{
		{Type: events.JoinedValidatorCandidates, Session: 0, Account: alice, Validator: alice, Amount: 100, After: 100},
		{Type: events.Nomination, Session: 0, Account: bob, Validator: alice, Amount: 50, Before: 100, After: 150},
		{Type: events.Rewarded, Session: 1, Account: alice, Validator: alice, Amount: math.MaxUint64},
		{Type: events.Slashed, Session: 2, Account: bob, Validator: alice, Amount: 5, Before: 50, After: 45},
	}
}

func TestAppendAndFilterAll(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, nil))
	require.NoError(t, l.Append(ctx, sample()))

	entries, err := l.Filter(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for i, ev := range sample() {
		assert.Equal(t, uint64(i+1), entries[i].Seq)
		assert.Equal(t, ev, entries[i].Event)
	}
}

func TestAppendWith(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()

	err := l.AppendWith(ctx, sample(), func() error { return errors.New("disk full") })
	assert.EqualError(t, err, "disk full")
	entries, err := l.Filter(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)

	var persisted int
	require.NoError(t, l.AppendWith(ctx, nil, func() error { persisted++; return nil }))
	require.NoError(t, l.AppendWith(ctx, sample(), func() error { persisted++; return nil }))
	assert.Equal(t, 2, persisted)
	entries, err = l.Filter(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestFilter(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()
	require.NoError(t, l.Append(ctx, sample()))

	bob := core.BytesToAddress([]byte("bob"))
	alice := core.BytesToAddress([]byte("alice"))

	tests := []struct {
		name   string
		filter *Filter
		seqs   []uint64
	}{
		{"empty", &Filter{}, []uint64{1, 2, 3, 4}},
		{"account", &Filter{Account: &bob}, []uint64{2, 4}},
		{"validator", &Filter{Validator: &alice}, []uint64{1, 2, 3, 4}},
		{"types", &Filter{Types: []events.Type{events.Rewarded, events.Slashed}}, []uint64{3, 4}},
		{"closed range", &Filter{Range: &Range{From: 1, To: 1}}, []uint64{3}},
		{"open range", &Filter{Range: &Range{From: 1}}, []uint64{3, 4}},
		{"desc", &Filter{Order: DESC}, []uint64{4, 3, 2, 1}},
		{"paged", &Filter{Options: &Options{Offset: 1, Limit: 2}}, []uint64{2, 3}},
		{"combined", &Filter{Account: &bob, Range: &Range{From: 0, To: 1}}, []uint64{2}},
		{"no match", &Filter{Types: []events.Type{events.Withdrawn}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := l.Filter(ctx, tt.filter)
			require.NoError(t, err)
			var seqs []uint64
			for _, e := range entries {
				seqs = append(seqs, e.Seq)
			}
			assert.Equal(t, tt.seqs, seqs)
		})
	}
}

func TestPruneBefore(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()
	require.NoError(t, l.Append(ctx, sample()))

	n, err := l.PruneBefore(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	entries, err := l.Filter(ctx, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, events.Rewarded, entries[0].Type)
}

func TestCancelledContext(t *testing.T) {
	l := newTestLog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.Append(ctx, sample()))
}

func TestDriverVersion(t *testing.T) {
	l := newTestLog(t)
	assert.NotEmpty(t, l.DriverVersion())
	assert.Equal(t, ":memory:", l.Path())
}
