// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package nominator

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/store"
)

var (
	slotNominators     = core.BytesToBytes32([]byte(("nominators")))
	slotNominatorIndex = core.BytesToBytes32([]byte(("nominator-index")))
)

type Service struct {
	nominators *store.Mapping[core.Address, *body]
	index      *store.Value[[]core.Address]
}

func New(sctx *store.Context) *Service {
	return &Service{
		nominators: store.NewMapping[core.Address, *body](sctx, slotNominators),
		index:      store.NewValue[[]core.Address](sctx, slotNominatorIndex),
	}
}

// Get returns the nominator, or nil if id holds no nomination.
func (s *Service) Get(id core.Address) (*Nominator, error) {
	b, err := s.nominators.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get nominator")
	}
	if b == nil {
		return nil, nil
	}
	return &Nominator{id: id, body: b}, nil
}

func (s *Service) MustGet(id core.Address) (*Nominator, error) {
	n, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, reverts.New(reverts.KindNotFound, "nominator not found")
	}
	return n, nil
}

func (s *Service) Exists(id core.Address) (bool, error) {
	exists, err := s.nominators.Exists(id)
	if err != nil {
		return false, errors.Wrap(err, "failed to check nominator")
	}
	return exists, nil
}

// GetOrNew returns the stored nominator or a fresh empty one.
func (s *Service) GetOrNew(id core.Address) (*Nominator, error) {
	n, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		n = &Nominator{id: id, body: &body{}}
	}
	return n, nil
}

// Update persists the nominator. A nominator without nominations is removed.
func (s *Service) Update(n *Nominator) error {
	if n.IsEmpty() {
		return s.Remove(n.id)
	}
	if err := s.nominators.Set(n.id, n.body); err != nil {
		return errors.Wrap(err, "failed to set nominator")
	}

	ids, err := s.index.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get nominator index")
	}
	i, found := slices.BinarySearchFunc(ids, n.id, core.Address.Compare)
	if found {
		return nil
	}
	return errors.Wrap(s.index.Set(slices.Insert(ids, i, n.id)), "failed to set nominator index")
}

func (s *Service) Remove(id core.Address) error {
	s.nominators.Delete(id)

	ids, err := s.index.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get nominator index")
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
	return errors.Wrap(s.index.Set(ids), "failed to set nominator index")
}

func (s *Service) IDs() ([]core.Address, error) {
	ids, err := s.index.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get nominator index")
	}
	return ids, nil
}
