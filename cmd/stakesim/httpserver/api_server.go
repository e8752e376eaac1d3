// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package httpserver starts the http servers of the simulator.
package httpserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/api"
	"github.com/stakecore/stakecore/node"
)

// StartAPIServer serves the read api on addr. The returned function stops
// the server and closes open subscriptions.
func StartAPIServer(addr string, n *node.Node, opts api.Options) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}

	handler, closeSubs := api.New(n, opts)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes sync.WaitGroup
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() {
		closeSubs()
		srv.Close()
		goes.Wait()
	}, nil
}
