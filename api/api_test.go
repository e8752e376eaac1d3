// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakecore/stakecore/test/testnode"
)

func newServer(t *testing.T, opts Options) (*testnode.Node, *httptest.Server) {
	n, err := testnode.NewDefaultNode()
	require.NoError(t, err)
	t.Cleanup(n.Close)

	handler, cancel := New(n.Node, opts)
	t.Cleanup(cancel)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return n, ts
}

func TestRoutes(t *testing.T) {
	var reqLogger atomic.Bool
	n, ts := newServer(t, Options{
		AllowedOrigins:       "*",
		EnableMetrics:        true,
		EnableReqLogger:      &reqLogger,
		SlowQueriesThreshold: time.Second,
		EventsLimit:          100,
	})

	for _, path := range []string{
		"/staking/validators",
		"/staking/params",
		"/sessions/current",
		"/accounts/" + n.Genesis.Validators[0].Address.String(),
	} {
		res, err := http.Get(ts.URL + path) //#nosec G107
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode, path)
		assert.Equal(t, n.GenesisID().String(), res.Header.Get("x-genesis-id"), path)
	}

	res, err := http.Post(ts.URL+"/events", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(ts.URL + "/debug/pprof/")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestCORS(t *testing.T) {
	_, ts := newServer(t, Options{AllowedOrigins: "https://Wallet.example, https://other.example", EventsLimit: 10})

	get := func(origin string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/staking/params", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		res.Body.Close()
		return res
	}

	res := get("https://wallet.example")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "https://wallet.example", res.Header.Get("Access-Control-Allow-Origin"))

	res = get("https://evil.example")
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
}

func TestPprof(t *testing.T) {
	_, ts := newServer(t, Options{PprofOn: true, EventsLimit: 10})

	res, err := http.Get(ts.URL + "/debug/pprof/")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
