// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakingadmin

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/api/restutil"
	"github.com/stakecore/stakecore/api/types"
	"github.com/stakecore/stakecore/builtin"
	"github.com/stakecore/stakecore/core"
)

// Call is a staking operation submitted on behalf of Origin.
type Call struct {
	Origin  core.Address  `json:"origin"`
	Method  string        `json:"method"`
	Target  *core.Address `json:"target"`
	To      *core.Address `json:"to"`
	Amount  uint64        `json:"amount"`
	Session uint32        `json:"session"`
}

type CallResult struct {
	Withdrawn *uint64        `json:"withdrawn,omitempty"`
	Events    []*types.Event `json:"events"`
}

type callFunc func(e *builtin.Engine, c *Call, res *CallResult) error

func requireTarget(c *Call) (core.Address, error) {
	if c.Target == nil {
		return core.Address{}, restutil.BadRequest(errors.New("target: required"))
	}
	return *c.Target, nil
}

var calls = map[string]callFunc{
	"endow": func(e *builtin.Engine, c *Call, _ *CallResult) error {
		return e.Ledger.Endow(c.Origin, c.Amount)
	},
	"join_validators": func(e *builtin.Engine, c *Call, _ *CallResult) error {
		return e.Staker.JoinValidators(c.Origin, c.Amount)
	},
	"go_offline": func(e *builtin.Engine, c *Call, _ *CallResult) error {
		return e.Staker.GoOffline(c.Origin)
	},
	"go_online": func(e *builtin.Engine, c *Call, _ *CallResult) error {
		return e.Staker.GoOnline(c.Origin)
	},
	"exit_validators": func(e *builtin.Engine, c *Call, _ *CallResult) error {
		return e.Staker.ExitValidators(c.Origin)
	},
	"validator_bond_more": func(e *builtin.Engine, c *Call, _ *CallResult) error {
		return e.Staker.ValidatorBondMore(c.Origin, c.Amount)
	},
	"validator_bond_less": func(e *builtin.Engine, c *Call, _ *CallResult) error {
		return e.Staker.ValidatorBondLess(c.Origin, c.Amount)
	},
	"nominate": func(e *builtin.Engine, c *Call, _ *CallResult) error {
		target, err := requireTarget(c)
		if err != nil {
			return err
		}
		return e.Staker.Nominate(c.Origin, target, c.Amount)
	},
	"revoke_nomination": func(e *builtin.Engine, c *Call, _ *CallResult) error {
		target, err := requireTarget(c)
		if err != nil {
			return err
		}
		return e.Staker.RevokeNomination(c.Origin, target)
	},
	"nominator_bond_more": func(e *builtin.Engine, c *Call, _ *CallResult) error {
		target, err := requireTarget(c)
		if err != nil {
			return err
		}
		return e.Staker.NominatorBondMore(c.Origin, target, c.Amount)
	},
	"nominator_bond_less": func(e *builtin.Engine, c *Call, _ *CallResult) error {
		target, err := requireTarget(c)
		if err != nil {
			return err
		}
		return e.Staker.NominatorBondLess(c.Origin, target, c.Amount)
	},
	"switch_nomination": func(e *builtin.Engine, c *Call, _ *CallResult) error {
		target, err := requireTarget(c)
		if err != nil {
			return err
		}
		if c.To == nil {
			return restutil.BadRequest(errors.New("to: required"))
		}
		return e.Staker.SwitchNomination(c.Origin, target, *c.To)
	},
	"leave_nominators": func(e *builtin.Engine, c *Call, _ *CallResult) error {
		return e.Staker.LeaveNominators(c.Origin)
	},
	"withdraw_unbonded": func(e *builtin.Engine, c *Call, res *CallResult) error {
		amount, err := e.Staker.WithdrawUnbonded(c.Origin)
		if err != nil {
			return err
		}
		res.Withdrawn = &amount
		return nil
	},
	"fund_session_reward": func(e *builtin.Engine, c *Call, _ *CallResult) error {
		return e.Staker.FundSessionReward(c.Origin, c.Session, c.Amount)
	},
}

func (a *StakingAdmin) handleCall(w http.ResponseWriter, r *http.Request) error {
	var call Call
	if err := restutil.ParseJSON(r.Body, &call); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	fn, ok := calls[call.Method]
	if !ok {
		return restutil.BadRequest(errors.Errorf("method: unknown %q", call.Method))
	}

	res := &CallResult{}
	err := a.update(r, call.Method, func(e *builtin.Engine) error {
		if err := fn(e, &call, res); err != nil {
			return err
		}
		evs := e.Staker.Events()
		res.Events = make([]*types.Event, len(evs))
		for i := range evs {
			res.Events[i] = types.ConvertEvent(0, &evs[i])
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, res)
}
