// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stakingadmin exposes privileged staking operations and account
// calls on the admin server. Requests must carry the configured bearer token.
package stakingadmin

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/api/restutil"
	"github.com/stakecore/stakecore/builtin"
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/log"
	"github.com/stakecore/stakecore/node"
)

var logger = log.WithContext("pkg", "stakingadmin")

type StakingAdmin struct {
	node  *node.Node
	root  core.Address
	token string
}

// New returns the admin handlers acting as root. An empty token rejects
// every request.
func New(node *node.Node, root core.Address, token string) *StakingAdmin {
	return &StakingAdmin{
		node:  node,
		root:  root,
		token: token,
	}
}

func (a *StakingAdmin) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if a.token == "" || !ok || subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type InvulnerablesRequest struct {
	Validators []core.Address `json:"validators"`
}

type TotalSelectedRequest struct {
	Count uint32 `json:"count"`
}

type CommissionRequest struct {
	Commission core.Perbill `json:"commission"`
}

type CancelSlashRequest struct {
	Session    uint32         `json:"session"`
	Validators []core.Address `json:"validators"`
}

type RotateResponse struct {
	Session  uint32         `json:"session"`
	Selected []core.Address `json:"selected"`
}

// update runs fn in a committed update and maps reverts to client errors.
func (a *StakingAdmin) update(r *http.Request, op string, fn func(e *builtin.Engine) error) error {
	if err := a.node.Update(r.Context(), fn); err != nil {
		return restutil.FromRevert(err)
	}
	logger.Info("admin operation applied", "op", op)
	return nil
}

func (a *StakingAdmin) handleSetInvulnerables(w http.ResponseWriter, r *http.Request) error {
	var req InvulnerablesRequest
	if err := restutil.ParseJSON(r.Body, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	err := a.update(r, "set-invulnerables", func(e *builtin.Engine) error {
		return e.Staker.SetInvulnerables(a.root, req.Validators)
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (a *StakingAdmin) handleSetTotalSelected(w http.ResponseWriter, r *http.Request) error {
	var req TotalSelectedRequest
	if err := restutil.ParseJSON(r.Body, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	err := a.update(r, "set-total-selected", func(e *builtin.Engine) error {
		return e.Staker.SetTotalSelected(a.root, req.Count)
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (a *StakingAdmin) handleSetCommission(w http.ResponseWriter, r *http.Request) error {
	var req CommissionRequest
	if err := restutil.ParseJSON(r.Body, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	err := a.update(r, "set-commission", func(e *builtin.Engine) error {
		return e.Staker.SetCommission(a.root, req.Commission)
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (a *StakingAdmin) handleCancelSlash(w http.ResponseWriter, r *http.Request) error {
	var req CancelSlashRequest
	if err := restutil.ParseJSON(r.Body, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	err := a.update(r, "cancel-deferred-slash", func(e *builtin.Engine) error {
		return e.Staker.CancelDeferredSlash(a.root, req.Session, req.Validators)
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (a *StakingAdmin) handleRotate(w http.ResponseWriter, r *http.Request) error {
	var resp RotateResponse
	err := a.update(r, "rotate", func(e *builtin.Engine) (err error) {
		resp.Session, resp.Selected, err = e.Rotate()
		return
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, &resp)
}

func (a *StakingAdmin) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Use(a.authorize)

	sub.Path("/invulnerables").
		Methods(http.MethodPost).
		Name("post-invulnerables").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleSetInvulnerables))
	sub.Path("/total-selected").
		Methods(http.MethodPost).
		Name("post-total-selected").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleSetTotalSelected))
	sub.Path("/commission").
		Methods(http.MethodPost).
		Name("post-commission").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleSetCommission))
	sub.Path("/cancel-slash").
		Methods(http.MethodPost).
		Name("post-cancel-slash").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleCancelSlash))
	sub.Path("/rotate").
		Methods(http.MethodPost).
		Name("post-rotate").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleRotate))
	sub.Path("/calls").
		Methods(http.MethodPost).
		Name("post-call").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleCall))
}
