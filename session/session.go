// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package session tracks the validator set of the running session, the
// validators disabled in it and the historical exposures offences are
// reported against.
package session

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/log"
	"github.com/stakecore/stakecore/staking/types"
	"github.com/stakecore/stakecore/state"
	"github.com/stakecore/stakecore/store"
)

var logger = log.WithContext("pkg", "session")

var (
	slotCurrent    = core.BytesToBytes32([]byte(("session-current")))
	slotValidators = core.BytesToBytes32([]byte(("session-validators")))
	slotDisabled   = core.BytesToBytes32([]byte(("session-disabled")))
	slotExposures  = core.BytesToBytes32([]byte(("historical-exposures")))
	slotExposed    = core.BytesToBytes32([]byte(("historical-exposed")))
	slotHistory    = core.BytesToBytes32([]byte(("historical-sessions")))
)

// Session is the session collaborator of the staking engine.
type Session struct {
	// threshold is the part of the set that may be disabled before a new
	// session is forced.
	threshold core.Perbill

	current    *store.Value[uint32]
	validators *store.Value[[]core.Address]
	disabled   *store.Value[[]core.Address]
	exposures  *store.Mapping[core.Bytes32, *types.Snapshot]
	exposed    *store.Mapping[core.Bytes32, []core.Address]
	history    *store.Value[[]uint32]
}

// New creates a session tracker storing its records under addr.
func New(addr core.Address, st *state.State, threshold core.Perbill) *Session {
	sctx := store.NewContext(addr, st)
	return &Session{
		threshold:  threshold,
		current:    store.NewValue[uint32](sctx, slotCurrent),
		validators: store.NewValue[[]core.Address](sctx, slotValidators),
		disabled:   store.NewValue[[]core.Address](sctx, slotDisabled),
		exposures:  store.NewMapping[core.Bytes32, *types.Snapshot](sctx, slotExposures),
		exposed:    store.NewMapping[core.Bytes32, []core.Address](sctx, slotExposed),
		history:    store.NewValue[[]uint32](sctx, slotHistory),
	}
}

// Begin makes validators the set of session and clears the disabled set.
func (s *Session) Begin(session uint32, validators []core.Address) error {
	if err := s.current.Set(session); err != nil {
		return errors.Wrap(err, "failed to set current session")
	}
	if err := s.validators.Set(slices.Clone(validators)); err != nil {
		return errors.Wrap(err, "failed to set validators")
	}
	s.disabled.Clear()
	logger.Debug("session began", "session", session, "validators", len(validators))
	return nil
}

func (s *Session) Current() (uint32, error) {
	current, err := s.current.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get current session")
	}
	return current, nil
}

func (s *Session) Validators() ([]core.Address, error) {
	ids, err := s.validators.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get validators")
	}
	return ids, nil
}

func (s *Session) Disabled() ([]core.Address, error) {
	ids, err := s.disabled.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get disabled validators")
	}
	return ids, nil
}

func (s *Session) IsDisabled(validator core.Address) (bool, error) {
	ids, err := s.Disabled()
	if err != nil {
		return false, err
	}
	_, found := slices.BinarySearchFunc(ids, validator, core.Address.Compare)
	return found, nil
}

// DisableValidator disables validator for the rest of the session. It
// returns true once the disabled part of the set exceeds the threshold.
func (s *Session) DisableValidator(validator core.Address) (bool, error) {
	ids, err := s.Disabled()
	if err != nil {
		return false, err
	}
	pos, found := slices.BinarySearchFunc(ids, validator, core.Address.Compare)
	if !found {
		ids = slices.Insert(ids, pos, validator)
		if err := s.disabled.Set(ids); err != nil {
			return false, errors.Wrap(err, "failed to set disabled validators")
		}
		logger.Info("validator disabled", "validator", validator)
	}

	set, err := s.Validators()
	if err != nil {
		return false, err
	}
	return uint64(len(ids)) > s.threshold.MulFloor(uint64(len(set))), nil
}

// NoteExposure records the exposure of validator in session.
func (s *Session) NoteExposure(session uint32, validator core.Address, snap *types.Snapshot) error {
	if err := s.exposures.Set(core.SessionAccountKey(session, validator), snap); err != nil {
		return errors.Wrap(err, "failed to set exposure")
	}

	key := core.SessionKey(session)
	exposed, err := s.exposed.Get(key)
	if err != nil {
		return errors.Wrap(err, "failed to get exposed validators")
	}
	pos, found := slices.BinarySearchFunc(exposed, validator, core.Address.Compare)
	if found {
		return nil
	}
	if len(exposed) == 0 {
		if err := s.noteHistory(session); err != nil {
			return err
		}
	}
	exposed = slices.Insert(exposed, pos, validator)
	return errors.Wrap(s.exposed.Set(key, exposed), "failed to set exposed validators")
}

func (s *Session) noteHistory(session uint32) error {
	history, err := s.History()
	if err != nil {
		return err
	}
	pos, found := slices.BinarySearch(history, session)
	if found {
		return nil
	}
	history = slices.Insert(history, pos, session)
	return errors.Wrap(s.history.Set(history), "failed to set historical sessions")
}

// Exposure returns the exposure of validator recorded for session, nil if none.
func (s *Session) Exposure(session uint32, validator core.Address) (*types.Snapshot, error) {
	snap, err := s.exposures.Get(core.SessionAccountKey(session, validator))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get exposure")
	}
	return snap, nil
}

// History returns the sessions holding recorded exposures.
func (s *Session) History() ([]uint32, error) {
	history, err := s.history.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get historical sessions")
	}
	return history, nil
}

// PruneHistoricalUpTo drops the exposures of every session before up.
func (s *Session) PruneHistoricalUpTo(up uint32) error {
	history, err := s.History()
	if err != nil {
		return err
	}
	cut, _ := slices.BinarySearch(history, up)
	for _, session := range history[:cut] {
		key := core.SessionKey(session)
		exposed, err := s.exposed.Get(key)
		if err != nil {
			return errors.Wrap(err, "failed to get exposed validators")
		}
		for _, v := range exposed {
			s.exposures.Delete(core.SessionAccountKey(session, v))
		}
		s.exposed.Delete(key)
	}
	if cut == 0 {
		return nil
	}
	logger.Debug("pruned historical sessions", "up", up, "count", cut)
	rest := history[cut:]
	if len(rest) == 0 {
		s.history.Clear()
		return nil
	}
	return errors.Wrap(s.history.Set(rest), "failed to set historical sessions")
}
