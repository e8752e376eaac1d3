// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package apilogs

import (
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/api/restutil"
	"github.com/stakecore/stakecore/api/types"
	"github.com/stakecore/stakecore/log"
)

var logger = log.WithContext("pkg", "apilogs")

// APILogs toggles the request logger of the read api.
type APILogs struct {
	enabled *atomic.Bool
}

func New(enabled *atomic.Bool) *APILogs {
	return &APILogs{enabled: enabled}
}

func (a *APILogs) handleGetStatus(w http.ResponseWriter, _ *http.Request) error {
	return restutil.WriteJSON(w, &types.LogStatus{Enabled: a.enabled.Load()})
}

func (a *APILogs) handleSetStatus(w http.ResponseWriter, r *http.Request) error {
	var req types.LogStatus
	if err := restutil.ParseJSON(r.Body, &req); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	if prev := a.enabled.Swap(req.Enabled); prev != req.Enabled {
		logger.Info("api request logging toggled", "enabled", req.Enabled)
	}
	return restutil.WriteJSON(w, &req)
}

func (a *APILogs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("get-api-logs").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleGetStatus))
	sub.Path("").
		Methods(http.MethodPost).
		Name("post-api-logs").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleSetStatus))
}
