// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/stakecore/stakecore/api/admin/apilogs"
	"github.com/stakecore/stakecore/api/admin/loglevel"
	"github.com/stakecore/stakecore/api/admin/stakingadmin"
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/node"

	healthAPI "github.com/stakecore/stakecore/api/admin/health"
)

type Options struct {
	// Root is the privileged origin admin operations act as.
	Root core.Address
	// Token guards the staking endpoints, empty disables them.
	Token string
}

func New(n *node.Node, logLevel *slog.LevelVar, apiLogs *atomic.Bool, opts Options) http.HandlerFunc {
	router := mux.NewRouter()
	sub := router.PathPrefix("/admin").Subrouter()

	loglevel.New(logLevel).Mount(sub, "/loglevel")
	apilogs.New(apiLogs).Mount(sub, "/apilogs")
	healthAPI.NewAPI(healthAPI.New(n)).Mount(sub, "/health")
	stakingadmin.New(n, opts.Root, opts.Token).Mount(sub, "/staking")

	handler := handlers.CompressHandler(router)

	return handler.ServeHTTP
}
