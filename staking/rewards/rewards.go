// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/staking/types"
	"github.com/stakecore/stakecore/store"
)

// Points credited for block authorship.
const (
	AuthorPoints         uint32 = 20
	UncleAuthorPoints    uint32 = 1
	UncleInclusionPoints uint32 = 2
)

var (
	slotPointsTotal = core.BytesToBytes32([]byte(("points-total")))
	slotPoints      = core.BytesToBytes32([]byte(("points")))
	slotAwarded     = core.BytesToBytes32([]byte(("awarded")))
	slotPot         = core.BytesToBytes32([]byte(("reward-pot")))
)

type Service struct {
	total   *store.Mapping[core.Bytes32, uint32]
	points  *store.Mapping[core.Bytes32, uint32]
	awarded *store.Mapping[core.Bytes32, []core.Address]
	pot     *store.Mapping[core.Bytes32, uint64]
}

func New(sctx *store.Context) *Service {
	return &Service{
		total:   store.NewMapping[core.Bytes32, uint32](sctx, slotPointsTotal),
		points:  store.NewMapping[core.Bytes32, uint32](sctx, slotPoints),
		awarded: store.NewMapping[core.Bytes32, []core.Address](sctx, slotAwarded),
		pot:     store.NewMapping[core.Bytes32, uint64](sctx, slotPot),
	}
}

// Award credits points to validator for the session.
func (s *Service) Award(session uint32, validator core.Address, points uint32) error {
	if points == 0 {
		return nil
	}
	key := core.SessionAccountKey(session, validator)
	current, err := s.points.Get(key)
	if err != nil {
		return errors.Wrap(err, "failed to get points")
	}
	if err := s.points.Set(key, core.SaturatingAdd32(current, points)); err != nil {
		return errors.Wrap(err, "failed to set points")
	}

	total, err := s.TotalPoints(session)
	if err != nil {
		return err
	}
	if err := s.total.Set(core.SessionKey(session), core.SaturatingAdd32(total, points)); err != nil {
		return errors.Wrap(err, "failed to set total points")
	}

	if current > 0 {
		return nil
	}
	awarded, err := s.Awarded(session)
	if err != nil {
		return err
	}
	i, found := slices.BinarySearchFunc(awarded, validator, core.Address.Compare)
	if found {
		return nil
	}
	return errors.Wrap(s.awarded.Set(core.SessionKey(session), slices.Insert(awarded, i, validator)), "failed to set awarded")
}

func (s *Service) Points(session uint32, validator core.Address) (uint32, error) {
	points, err := s.points.Get(core.SessionAccountKey(session, validator))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get points")
	}
	return points, nil
}

func (s *Service) TotalPoints(session uint32) (uint32, error) {
	total, err := s.total.Get(core.SessionKey(session))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get total points")
	}
	return total, nil
}

// Awarded returns the validators holding points for the session, ordered by id.
func (s *Service) Awarded(session uint32) ([]core.Address, error) {
	awarded, err := s.awarded.Get(core.SessionKey(session))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get awarded")
	}
	return awarded, nil
}

// Pot returns the reward to distribute at the end of the session.
func (s *Service) Pot(session uint32) (uint64, error) {
	pot, err := s.pot.Get(core.SessionKey(session))
	if err != nil {
		return 0, errors.Wrap(err, "failed to get reward pot")
	}
	return pot, nil
}

// Fund adds amount to the reward pot of the session.
func (s *Service) Fund(session uint32, amount uint64) (uint64, error) {
	pot, err := s.Pot(session)
	if err != nil {
		return 0, err
	}
	pot, ok := core.CheckedAdd(pot, amount)
	if !ok {
		return 0, reverts.New(reverts.KindInvalidArgument, "reward pot overflow")
	}
	return pot, errors.Wrap(s.pot.Set(core.SessionKey(session), pot), "failed to set reward pot")
}

// Purge drops the points, awards and pot of a session.
func (s *Service) Purge(session uint32) error {
	awarded, err := s.Awarded(session)
	if err != nil {
		return err
	}
	for _, v := range awarded {
		s.points.Delete(core.SessionAccountKey(session, v))
	}
	s.awarded.Delete(core.SessionKey(session))
	s.total.Delete(core.SessionKey(session))
	s.pot.Delete(core.SessionKey(session))
	return nil
}

// Distribute splits the share of the pot earned by points among the
// validator and its snapshotted nominators. Payouts below minBalance are
// dropped.
func Distribute(
	pot uint64,
	points, totalPoints uint32,
	validator core.Address,
	snap *types.Snapshot,
	commission core.Perbill,
	minBalance uint64,
) []types.StakeReward {
	share := core.PerbillFromRational(uint64(points), uint64(totalPoints)).Mul(pot)
	if share == 0 {
		return nil
	}

	var payouts []types.StakeReward
	pay := func(account core.Address, value uint64) {
		if value == 0 || value < minBalance {
			return
		}
		payouts = append(payouts, types.StakeReward{Account: account, Value: value})
	}

	if len(snap.Nominators) == 0 {
		pay(validator, share)
		return payouts
	}

	fee := commission.Mul(share)
	if fee < minBalance {
		fee = 0
	}
	remainder := share - fee

	own := core.PerbillFromRational(snap.Bond, snap.Total).Mul(remainder)
	pay(validator, core.SaturatingAdd(own, fee))
	for _, n := range snap.Nominators {
		pay(n.Owner, core.PerbillFromRational(n.Amount, snap.Total).Mul(remainder))
	}
	return payouts
}
