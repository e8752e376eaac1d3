// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/api/restutil"
	"github.com/stakecore/stakecore/api/types"
	"github.com/stakecore/stakecore/builtin"
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/node"
)

type Accounts struct {
	node *node.Node
}

func New(node *node.Node) *Accounts {
	return &Accounts{node}
}

func (a *Accounts) getAccount(e *builtin.Engine, addr core.Address) (*types.Account, error) {
	exists, err := e.Ledger.Exists(addr)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, restutil.NotFound(errors.New("account not found"))
	}
	free, reserved, err := e.Ledger.Balance(addr)
	if err != nil {
		return nil, err
	}
	unlocking, err := e.Staker.Unlocking(addr)
	if err != nil {
		return nil, err
	}
	spans, err := e.Staker.Spans(addr)
	if err != nil {
		return nil, err
	}
	return &types.Account{
		Address:   addr,
		Free:      free,
		Reserved:  reserved,
		Unlocking: types.ConvertUnlocking(unlocking),
		Spans:     types.ConvertSpans(spans),
	}, nil
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := restutil.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	var acc *types.Account
	err = a.node.View(func(e *builtin.Engine) (err error) {
		acc, err = a.getAccount(e, addr)
		return
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, acc)
}

func (a *Accounts) handleGetSpanRecord(w http.ResponseWriter, req *http.Request) error {
	addr, err := restutil.ParseAddress("address", mux.Vars(req)["address"])
	if err != nil {
		return err
	}
	index, _, err := restutil.ParseSession("index", mux.Vars(req)["index"])
	if err != nil {
		return err
	}
	var out *types.SpanRecord
	err = a.node.View(func(e *builtin.Engine) error {
		record, err := e.Staker.SpanRecord(addr, index)
		if err != nil {
			return err
		}
		out = &types.SpanRecord{Index: index, Slashed: record.Slashed, PaidOut: record.PaidOut}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}/spans/{index:[0-9]+}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}/spans/{index}").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleGetSpanRecord))
}
