// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pool keeps the bonded pool of active validators, the exit queue
// and the per-session selection with its exposure snapshots.
package pool

import (
	"slices"
	"sort"

	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/orderedset"
	"github.com/stakecore/stakecore/staking/types"
	"github.com/stakecore/stakecore/store"
)

var (
	slotBondedPool     = core.BytesToBytes32([]byte(("bonded-pool")))
	slotExitQueue      = core.BytesToBytes32([]byte(("exit-queue")))
	slotSelected       = core.BytesToBytes32([]byte(("selected")))
	slotSnapshots      = core.BytesToBytes32([]byte(("snapshots")))
	slotStaked         = core.BytesToBytes32([]byte(("staked")))
	slotCurrentSession = core.BytesToBytes32([]byte(("current-session")))
	slotBondedSessions = core.BytesToBytes32([]byte(("bonded-sessions")))
)

type Service struct {
	bonded    *store.Value[orderedset.Set]
	exits     *store.Value[orderedset.Set]
	selected  *store.Mapping[core.Bytes32, []core.Address]
	snapshots *store.Mapping[core.Bytes32, *types.Snapshot]
	staked    *store.Mapping[core.Bytes32, uint64]

	current *store.Value[uint32]
	ring    *store.Value[[]uint32]
}

func New(sctx *store.Context) *Service {
	return &Service{
		bonded:    store.NewValue[orderedset.Set](sctx, slotBondedPool),
		exits:     store.NewValue[orderedset.Set](sctx, slotExitQueue),
		selected:  store.NewMapping[core.Bytes32, []core.Address](sctx, slotSelected),
		snapshots: store.NewMapping[core.Bytes32, *types.Snapshot](sctx, slotSnapshots),
		staked:    store.NewMapping[core.Bytes32, uint64](sctx, slotStaked),
		current:   store.NewValue[uint32](sctx, slotCurrentSession),
		ring:      store.NewValue[[]uint32](sctx, slotBondedSessions),
	}
}

// Bonded returns the pool of active validators with their live totals.
func (s *Service) Bonded() (orderedset.Set, error) {
	set, err := s.bonded.Get()
	if err != nil {
		return orderedset.Set{}, errors.Wrap(err, "failed to get bonded pool")
	}
	return set, nil
}

// Upsert puts the validator into the pool or refreshes its total.
func (s *Service) Upsert(validator core.Address, total uint64) error {
	set, err := s.Bonded()
	if err != nil {
		return err
	}
	set.Upsert(types.Bond{Owner: validator, Amount: total})
	return errors.Wrap(s.bonded.Set(set), "failed to set bonded pool")
}

// Remove takes the validator out of the pool. It reports whether it was there.
func (s *Service) Remove(validator core.Address) (bool, error) {
	set, err := s.Bonded()
	if err != nil {
		return false, err
	}
	if _, ok := set.Remove(validator); !ok {
		return false, nil
	}
	return true, errors.Wrap(s.bonded.Set(set), "failed to set bonded pool")
}

// QueueExit schedules the validator to settle its exit at session.
func (s *Service) QueueExit(validator core.Address, session uint32) error {
	set, err := s.exits.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get exit queue")
	}
	set.Upsert(types.Bond{Owner: validator, Amount: uint64(session)})
	return errors.Wrap(s.exits.Set(set), "failed to set exit queue")
}

// Exits returns the exit queue; each bond amount is the unlock session.
func (s *Service) Exits() (orderedset.Set, error) {
	set, err := s.exits.Get()
	if err != nil {
		return orderedset.Set{}, errors.Wrap(err, "failed to get exit queue")
	}
	return set, nil
}

// DueExits removes and returns the validators whose exit settles at or before current.
func (s *Service) DueExits(current uint32) ([]core.Address, error) {
	set, err := s.Exits()
	if err != nil {
		return nil, err
	}
	var due []core.Address
	for _, b := range set.Items() {
		if b.Amount <= uint64(current) {
			due = append(due, b.Owner)
			set.Remove(b.Owner)
		}
	}
	if len(due) == 0 {
		return nil, nil
	}
	return due, errors.Wrap(s.exits.Set(set), "failed to set exit queue")
}

// Select picks the validators for a session from the pool: those with at
// least minStake, the n largest, in descending order of stake. Equal stakes
// rank the greater id first.
func (s *Service) Select(n uint32, minStake uint64) ([]types.Bond, error) {
	set, err := s.Bonded()
	if err != nil {
		return nil, err
	}
	candidates := slices.DeleteFunc(set.Items(), func(b types.Bond) bool {
		return b.Amount < minStake
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Amount < candidates[j].Amount
	})
	if uint32(len(candidates)) > n {
		candidates = candidates[uint32(len(candidates))-n:]
	}
	slices.Reverse(candidates)
	return candidates, nil
}

// SetSelected stores the selected set of a session, ordered by id.
func (s *Service) SetSelected(session uint32, ids []core.Address) error {
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, core.Address.Compare)
	return errors.Wrap(s.selected.Set(core.SessionKey(session), sorted), "failed to set selected")
}

func (s *Service) Selected(session uint32) ([]core.Address, error) {
	ids, err := s.selected.Get(core.SessionKey(session))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get selected")
	}
	return ids, nil
}

// IsSelected reports whether the validator was selected for the session.
func (s *Service) IsSelected(session uint32, validator core.Address) (bool, error) {
	ids, err := s.Selected(session)
	if err != nil {
		return false, err
	}
	_, found := slices.BinarySearchFunc(ids, validator, core.Address.Compare)
	return found, nil
}

func (s *Service) SetSnapshot(session uint32, validator core.Address, snap *types.Snapshot) error {
	return errors.Wrap(s.snapshots.Set(core.SessionAccountKey(session, validator), snap), "failed to set snapshot")
}

// Snapshot returns the exposure of validator at session, nil if none was taken.
func (s *Service) Snapshot(session uint32, validator core.Address) (*types.Snapshot, error) {
	snap, err := s.snapshots.Get(core.SessionAccountKey(session, validator))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get snapshot")
	}
	return snap, nil
}

func (s *Service) SetStaked(session uint32, total uint64) error {
	return errors.Wrap(s.staked.Set(core.SessionKey(session), total), "failed to set staked")
}

// Staked returns the total exposure of the selected set of a session.
func (s *Service) Staked(session uint32) (uint64, error) {
	total, err := s.staked.Get(core.SessionKey(session))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get staked")
	}
	return total, nil
}

// PurgeSnapshots drops the snapshots of a session.
func (s *Service) PurgeSnapshots(session uint32) error {
	ids, err := s.Selected(session)
	if err != nil {
		return err
	}
	for _, id := range ids {
		s.snapshots.Delete(core.SessionAccountKey(session, id))
	}
	return nil
}

// PurgeSession drops every record of a session fallen out of the bonded window.
func (s *Service) PurgeSession(session uint32) error {
	if err := s.PurgeSnapshots(session); err != nil {
		return err
	}
	s.selected.Delete(core.SessionKey(session))
	s.staked.Delete(core.SessionKey(session))
	return nil
}

func (s *Service) CurrentSession() (uint32, error) {
	current, err := s.current.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get current session")
	}
	return current, nil
}

// BondedSessions returns the ring of sessions within the bonded window, oldest first.
func (s *Service) BondedSessions() ([]uint32, error) {
	ring, err := s.ring.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get bonded sessions")
	}
	return ring, nil
}

// StartSession makes session current and rotates the bonded ring. Sessions
// older than bondedDuration drop out of the ring and are returned.
func (s *Service) StartSession(session, bondedDuration uint32) ([]uint32, error) {
	if err := s.current.Set(session); err != nil {
		return nil, errors.Wrap(err, "failed to set current session")
	}
	ring, err := s.BondedSessions()
	if err != nil {
		return nil, err
	}
	if len(ring) == 0 || ring[len(ring)-1] < session {
		ring = append(ring, session)
	}
	windowStart := core.SaturatingSub32(session, bondedDuration)
	n := 0
	for n < len(ring) && ring[n] < windowStart {
		n++
	}
	pruned := slices.Clone(ring[:n])
	ring = ring[n:]
	return pruned, errors.Wrap(s.ring.Set(ring), "failed to set bonded sessions")
}
