// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/store"
)

var (
	slotLockedStake = core.BytesToBytes32([]byte(("total-locked")))
	slotSlashed     = core.BytesToBytes32([]byte(("total-slashed")))
	slotRewarded    = core.BytesToBytes32([]byte(("total-rewarded")))
)

// Service manages engine-wide totals.
type Service struct {
	locked   *store.Uint256
	slashed  *store.Uint256
	rewarded *store.Uint256
}

func New(sctx *store.Context) *Service {
	return &Service{
		locked:   store.NewUint256(sctx, slotLockedStake),
		slashed:  store.NewUint256(sctx, slotSlashed),
		rewarded: store.NewUint256(sctx, slotRewarded),
	}
}

// Lock raises the total bonded by validators and nominators.
func (s *Service) Lock(amount uint64) error {
	return errors.Wrap(s.locked.Add(amount), "failed to add locked stake")
}

// Unlock lowers the total bonded stake.
func (s *Service) Unlock(amount uint64) error {
	return errors.Wrap(s.locked.Sub(amount), "failed to remove locked stake")
}

// AddSlashed records value taken by slashes.
func (s *Service) AddSlashed(amount uint64) error {
	return errors.Wrap(s.slashed.Add(amount), "failed to add slashed")
}

func (s *Service) AddRewarded(amount uint64) error {
	return errors.Wrap(s.rewarded.Add(amount), "failed to add rewarded")
}

// LockedStake returns the total currently locked in bonds.
func (s *Service) LockedStake() (*uint256.Int, error) {
	return s.locked.Get()
}

func (s *Service) Slashed() (*uint256.Int, error) {
	return s.slashed.Get()
}

func (s *Service) Rewarded() (*uint256.Int, error) {
	return s.rewarded.Get()
}
