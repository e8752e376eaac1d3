// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package unbonding tracks stake that left a bond but is still locked and
// slashable until its unlock session.
package unbonding

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/types"
	"github.com/stakecore/stakecore/store"
)

var slotUnlocking = core.BytesToBytes32([]byte(("unlocking")))

type Service struct {
	chunks *store.Mapping[core.Address, []types.UnlockChunk]
}

func New(sctx *store.Context) *Service {
	return &Service{
		chunks: store.NewMapping[core.Address, []types.UnlockChunk](sctx, slotUnlocking),
	}
}

// Chunks returns the pending chunks of account ordered by unlock session.
func (s *Service) Chunks(account core.Address) ([]types.UnlockChunk, error) {
	chunks, err := s.chunks.Get(account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get unlocking chunks")
	}
	return chunks, nil
}

// Total returns the sum of the pending chunks of account.
func (s *Service) Total(account core.Address) (uint64, error) {
	chunks, err := s.Chunks(account)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, c := range chunks {
		total = core.SaturatingAdd(total, c.Value)
	}
	return total, nil
}

func (s *Service) set(account core.Address, chunks []types.UnlockChunk) error {
	if len(chunks) == 0 {
		s.chunks.Delete(account)
		return nil
	}
	return errors.Wrap(s.chunks.Set(account, chunks), "failed to set unlocking chunks")
}

// Schedule adds value unlocking at session. Chunks of the same session merge.
func (s *Service) Schedule(account core.Address, value uint64, session uint32) error {
	if value == 0 {
		return nil
	}
	chunks, err := s.Chunks(account)
	if err != nil {
		return err
	}
	i, found := slices.BinarySearchFunc(chunks, session, func(c types.UnlockChunk, session uint32) int {
		return int(int64(c.Session) - int64(session))
	})
	if found {
		chunks[i].Value = core.SaturatingAdd(chunks[i].Value, value)
	} else {
		chunks = slices.Insert(chunks, i, types.UnlockChunk{Value: value, Session: session})
	}
	return s.set(account, chunks)
}

// Withdraw removes every chunk matured at current and returns their sum.
func (s *Service) Withdraw(account core.Address, current uint32) (uint64, error) {
	chunks, err := s.Chunks(account)
	if err != nil {
		return 0, err
	}
	var released uint64
	remaining := chunks[:0]
	for _, c := range chunks {
		if c.Session <= current {
			released = core.SaturatingAdd(released, c.Value)
			continue
		}
		remaining = append(remaining, c)
	}
	if released == 0 {
		return 0, nil
	}
	return released, s.set(account, remaining)
}

// Slash debits up to amount from the pending chunks, latest unlock first,
// and returns what was taken.
func (s *Service) Slash(account core.Address, amount uint64) (uint64, error) {
	if amount == 0 {
		return 0, nil
	}
	chunks, err := s.Chunks(account)
	if err != nil {
		return 0, err
	}
	var taken uint64
	for i := len(chunks) - 1; i >= 0 && taken < amount; i-- {
		debit := min(chunks[i].Value, amount-taken)
		chunks[i].Value -= debit
		taken += debit
	}
	if taken == 0 {
		return 0, nil
	}
	chunks = slices.DeleteFunc(chunks, func(c types.UnlockChunk) bool { return c.Value == 0 })
	return taken, s.set(account, chunks)
}
