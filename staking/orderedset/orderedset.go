// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package orderedset implements a set of bonds kept as a vector sorted by
// owner. Iteration order is canonical.
package orderedset

import (
	"io"
	"slices"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/types"
)

type Set struct {
	items []types.Bond
}

// New builds a set from bonds. Later duplicates of an owner are dropped.
func New(bonds ...types.Bond) Set {
	var s Set
	for _, b := range bonds {
		s.Insert(b)
	}
	return s
}

func cmpOwner(b types.Bond, owner core.Address) int {
	return b.Owner.Compare(owner)
}

func (s *Set) search(owner core.Address) (int, bool) {
	return slices.BinarySearchFunc(s.items, owner, cmpOwner)
}

// Insert adds the bond. It returns false without mutating if the owner exists.
func (s *Set) Insert(b types.Bond) bool {
	i, found := s.search(b.Owner)
	if found {
		return false
	}
	s.items = slices.Insert(s.items, i, b)
	return true
}

// Upsert inserts the bond or replaces the amount of the existing owner.
// It returns the previous bond, if any.
func (s *Set) Upsert(b types.Bond) (types.Bond, bool) {
	i, found := s.search(b.Owner)
	if found {
		old := s.items[i]
		s.items[i] = b
		return old, true
	}
	s.items = slices.Insert(s.items, i, b)
	return types.Bond{}, false
}

// Remove deletes the bond of owner.
func (s *Set) Remove(owner core.Address) (types.Bond, bool) {
	i, found := s.search(owner)
	if !found {
		return types.Bond{}, false
	}
	b := s.items[i]
	s.items = slices.Delete(s.items, i, i+1)
	return b, true
}

func (s *Set) Get(owner core.Address) (types.Bond, bool) {
	i, found := s.search(owner)
	if !found {
		return types.Bond{}, false
	}
	return s.items[i], true
}

func (s *Set) Contains(owner core.Address) bool {
	_, found := s.search(owner)
	return found
}

func (s *Set) Len() int {
	return len(s.items)
}

// Items returns a copy of the bonds in owner order.
func (s *Set) Items() []types.Bond {
	return slices.Clone(s.items)
}

// Owners returns the owners in order.
func (s *Set) Owners() []core.Address {
	owners := make([]core.Address, len(s.items))
	for i, b := range s.items {
		owners[i] = b.Owner
	}
	return owners
}

// Sum returns the saturating sum of all amounts.
func (s *Set) Sum() uint64 {
	var sum uint64
	for _, b := range s.items {
		sum = core.SaturatingAdd(sum, b.Amount)
	}
	return sum
}

// EncodeRLP implements rlp.Encoder.
func (s Set) EncodeRLP(w io.Writer) error {
	items := s.items
	if items == nil {
		items = []types.Bond{}
	}
	return rlp.Encode(w, items)
}

// DecodeRLP implements rlp.Decoder. Unsorted input is normalized.
func (s *Set) DecodeRLP(stream *rlp.Stream) error {
	var items []types.Bond
	if err := stream.Decode(&items); err != nil {
		return err
	}
	if slices.IsSortedFunc(items, func(a, b types.Bond) int { return a.Owner.Compare(b.Owner) }) {
		s.items = items
		return nil
	}
	*s = New(items...)
	return nil
}
