// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/api/restutil"
	"github.com/stakecore/stakecore/api/types"
	"github.com/stakecore/stakecore/builtin"
	"github.com/stakecore/stakecore/node"
	"github.com/stakecore/stakecore/staking/validator"
)

type Staking struct {
	node *node.Node
}

func New(node *node.Node) *Staking {
	return &Staking{node}
}

func (s *Staking) handleGetValidators(w http.ResponseWriter, req *http.Request) error {
	status := req.URL.Query().Get("status")
	switch status {
	case "", validator.StatusActive.String(), validator.StatusIdle.String(), validator.StatusLeaving.String():
	default:
		return restutil.BadRequest(errors.Errorf("status: unknown value %q", status))
	}

	var out []*types.Validator
	err := s.node.View(func(e *builtin.Engine) error {
		ids, err := e.Staker.ValidatorIDs()
		if err != nil {
			return err
		}
		out = make([]*types.Validator, 0, len(ids))
		for _, id := range ids {
			v, err := e.Staker.Validator(id)
			if err != nil {
				return err
			}
			if v == nil || (status != "" && v.Status().String() != status) {
				continue
			}
			out = append(out, types.ConvertValidator(v))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staking) handleGetValidator(w http.ResponseWriter, req *http.Request) error {
	id, err := restutil.ParseAddress("id", mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	var out *types.Validator
	err = s.node.View(func(e *builtin.Engine) error {
		v, err := e.Staker.Validator(id)
		if err != nil {
			return err
		}
		if v == nil {
			return restutil.NotFound(errors.New("validator not found"))
		}
		out = types.ConvertValidator(v)
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staking) handleGetNominators(w http.ResponseWriter, _ *http.Request) error {
	var out []*types.Nominator
	err := s.node.View(func(e *builtin.Engine) error {
		ids, err := e.Staker.NominatorIDs()
		if err != nil {
			return err
		}
		out = make([]*types.Nominator, 0, len(ids))
		for _, id := range ids {
			n, err := e.Staker.Nominator(id)
			if err != nil {
				return err
			}
			if n != nil {
				out = append(out, types.ConvertNominator(n))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staking) handleGetNominator(w http.ResponseWriter, req *http.Request) error {
	id, err := restutil.ParseAddress("id", mux.Vars(req)["id"])
	if err != nil {
		return err
	}
	var out *types.Nominator
	err = s.node.View(func(e *builtin.Engine) error {
		n, err := e.Staker.Nominator(id)
		if err != nil {
			return err
		}
		if n == nil {
			return restutil.NotFound(errors.New("nominator not found"))
		}
		out = types.ConvertNominator(n)
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staking) handleGetPool(w http.ResponseWriter, _ *http.Request) error {
	var out []types.Bond
	err := s.node.View(func(e *builtin.Engine) error {
		pool, err := e.Staker.BondedPool()
		if err != nil {
			return err
		}
		out = types.ConvertBonds(pool)
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staking) handleGetParams(w http.ResponseWriter, _ *http.Request) error {
	var out *types.Params
	err := s.node.View(func(e *builtin.Engine) error {
		p, err := e.Staker.Params()
		if err != nil {
			return err
		}
		out = types.ConvertParams(p)
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staking) handleGetTotals(w http.ResponseWriter, _ *http.Request) error {
	var out types.Totals
	err := s.node.View(func(e *builtin.Engine) (err error) {
		out.Locked, out.Slashed, out.Rewarded, err = e.Staker.Totals()
		return
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &out)
}

func (s *Staking) handleGetInvulnerables(w http.ResponseWriter, _ *http.Request) error {
	var out []string
	err := s.node.View(func(e *builtin.Engine) error {
		ids, err := e.Staker.Invulnerables()
		if err != nil {
			return err
		}
		out = make([]string, len(ids))
		for i, id := range ids {
			out[i] = id.String()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/validators").
		Methods(http.MethodGet).
		Name("GET /staking/validators").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetValidators))
	sub.Path("/validators/{id}").
		Methods(http.MethodGet).
		Name("GET /staking/validators/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetValidator))
	sub.Path("/nominators").
		Methods(http.MethodGet).
		Name("GET /staking/nominators").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetNominators))
	sub.Path("/nominators/{id}").
		Methods(http.MethodGet).
		Name("GET /staking/nominators/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetNominator))
	sub.Path("/pool").
		Methods(http.MethodGet).
		Name("GET /staking/pool").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetPool))
	sub.Path("/params").
		Methods(http.MethodGet).
		Name("GET /staking/params").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetParams))
	sub.Path("/totals").
		Methods(http.MethodGet).
		Name("GET /staking/totals").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetTotals))
	sub.Path("/invulnerables").
		Methods(http.MethodGet).
		Name("GET /staking/invulnerables").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetInvulnerables))
}
