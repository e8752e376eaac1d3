// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state is a journaled overlay over a kv store. Every engine record
// lives in the storage slots of an owner address. Checkpoints give callers
// all-or-nothing semantics; Stage collects the surviving changes for commit.
package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/kv"
	"github.com/stakecore/stakecore/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr core.Address
	key  core.Bytes32
}

// Bytes returns the kv key of the slot.
func (k storageKey) Bytes() []byte {
	b := make([]byte, 0, core.AddressLength+32)
	return append(append(b, k.addr[:]...), k.key[:]...)
}

// State manages engine storage.
type State struct {
	src kv.Getter
	sm  *stackedmap.StackedMap[storageKey, rlp.RawValue]
}

// New create state object reading committed values from src.
func New(src kv.Getter) *State {
	s := &State{src: src}
	s.sm = stackedmap.New(s.srcGetter)
	s.sm.Push()
	return s
}

func (s *State) srcGetter(key storageKey) (rlp.RawValue, bool, error) {
	if s.src == nil {
		return nil, true, nil
	}
	data, err := s.src.Get(key.Bytes())
	if err != nil {
		if s.src.IsNotFound(err) {
			return nil, true, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// GetRawStorage returns the raw value of the slot, nil if never written.
func (s *State) GetRawStorage(addr core.Address, key core.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data, nil
}

// SetRawStorage sets the raw value of the slot. An empty value clears it.
func (s *State) SetRawStorage(addr core.Address, key core.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr core.Address, key core.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be passed through.
func (s *State) DecodeStorage(addr core.Address, key core.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	if revision < 1 {
		revision = 1
	}
	s.sm.PopTo(revision)
}

// Stage collects the latest value of every slot changed since New.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey]rlp.RawValue)
	s.sm.Journal(func(k storageKey, v rlp.RawValue) bool {
		changes[k] = v
		return true
	})
	return &Stage{changes: changes}
}
