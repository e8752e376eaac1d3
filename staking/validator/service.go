// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validator

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/store"
)

var (
	slotValidators     = core.BytesToBytes32([]byte(("validators")))
	slotValidatorIndex = core.BytesToBytes32([]byte(("validator-index")))
)

// Service persists validators and keeps an ordered index of their ids.
type Service struct {
	validators *store.Mapping[core.Address, *body]
	index      *store.Value[[]core.Address]
}

func New(sctx *store.Context) *Service {
	return &Service{
		validators: store.NewMapping[core.Address, *body](sctx, slotValidators),
		index:      store.NewValue[[]core.Address](sctx, slotValidatorIndex),
	}
}

// Get returns the validator, or nil if id is not a validator.
func (s *Service) Get(id core.Address) (*Validator, error) {
	b, err := s.validators.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get validator")
	}
	if b == nil {
		return nil, nil
	}
	return newValidator(id, b), nil
}

// MustGet returns the validator or a not-found revert.
func (s *Service) MustGet(id core.Address) (*Validator, error) {
	v, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, reverts.New(reverts.KindNotFound, "validator not found")
	}
	return v, nil
}

func (s *Service) Exists(id core.Address) (bool, error) {
	exists, err := s.validators.Exists(id)
	if err != nil {
		return false, errors.Wrap(err, "failed to check validator")
	}
	return exists, nil
}

// Add creates an active validator with the given self bond.
func (s *Service) Add(id core.Address, bond uint64) (*Validator, error) {
	v := newValidator(id, &body{
		Bond:   bond,
		Total:  bond,
		Status: StatusActive,
	})
	if err := s.Update(v); err != nil {
		return nil, err
	}

	ids, err := s.index.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get validator index")
	}
	i, found := slices.BinarySearchFunc(ids, id, core.Address.Compare)
	if !found {
		ids = slices.Insert(ids, i, id)
		if err := s.index.Set(ids); err != nil {
			return nil, errors.Wrap(err, "failed to set validator index")
		}
	}
	return v, nil
}

func (s *Service) Update(v *Validator) error {
	if err := s.validators.Set(v.id, v.body); err != nil {
		return errors.Wrap(err, "failed to set validator")
	}
	return nil
}

// Remove deletes the validator record and its index entry.
func (s *Service) Remove(id core.Address) error {
	s.validators.Delete(id)

	ids, err := s.index.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get validator index")
	}
	i, found := slices.BinarySearchFunc(ids, id, core.Address.Compare)
	if !found {
		return nil
	}
	ids = slices.Delete(ids, i, i+1)
	if len(ids) == 0 {
		s.index.Clear()
		return nil
	}
	return errors.Wrap(s.index.Set(ids), "failed to set validator index")
}

// IDs returns every validator id in ascending order.
func (s *Service) IDs() ([]core.Address, error) {
	ids, err := s.index.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get validator index")
	}
	return ids, nil
}
