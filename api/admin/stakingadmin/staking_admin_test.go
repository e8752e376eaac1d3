// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakingadmin

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakecore/stakecore/builtin"
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/genesis"
	"github.com/stakecore/stakecore/staking/events"
	"github.com/stakecore/stakecore/test/testnode"
)

const token = "s3cret"

func newServer(t *testing.T, root core.Address) (*testnode.Node, *httptest.Server) {
	n, err := testnode.NewDefaultNode()
	require.NoError(t, err)
	t.Cleanup(n.Close)

	router := mux.NewRouter()
	New(n.Node, root, token).Mount(router, "/admin/staking")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return n, ts
}

func post(t *testing.T, url, bearer string, body any) ([]byte, int) {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	r, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return r, res.StatusCode
}

func TestAuthorize(t *testing.T) {
	_, ts := newServer(t, genesis.DevAccount("root"))
	url := ts.URL + "/admin/staking/total-selected"

	_, status := post(t, url, "", TotalSelectedRequest{Count: 3})
	assert.Equal(t, http.StatusUnauthorized, status)

	_, status = post(t, url, "wrong", TotalSelectedRequest{Count: 3})
	assert.Equal(t, http.StatusUnauthorized, status)

	_, status = post(t, url, token, TotalSelectedRequest{Count: 3})
	assert.Equal(t, http.StatusNoContent, status)
}

func TestEmptyTokenRejectsAll(t *testing.T) {
	n, err := testnode.NewDefaultNode()
	require.NoError(t, err)
	t.Cleanup(n.Close)

	router := mux.NewRouter()
	New(n.Node, genesis.DevAccount("root"), "").Mount(router, "/admin/staking")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	_, status := post(t, ts.URL+"/admin/staking/rotate", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSetTotalSelected(t *testing.T) {
	n, ts := newServer(t, genesis.DevAccount("root"))

	_, status := post(t, ts.URL+"/admin/staking/total-selected", token, TotalSelectedRequest{Count: 2})
	require.Equal(t, http.StatusNoContent, status)

	require.NoError(t, n.View(func(e *builtin.Engine) error {
		p, err := e.Staker.Params()
		require.NoError(t, err)
		assert.Equal(t, uint32(2), p.TotalSelected)
		return nil
	}))

	_, status = post(t, ts.URL+"/admin/staking/total-selected", token, TotalSelectedRequest{Count: 0})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestNotRoot(t *testing.T) {
	_, ts := newServer(t, genesis.DevAccount("nominator-1"))

	_, status := post(t, ts.URL+"/admin/staking/total-selected", token, TotalSelectedRequest{Count: 3})
	assert.Equal(t, http.StatusForbidden, status)

	_, status = post(t, ts.URL+"/admin/staking/commission", token, map[string]string{"commission": "10%"})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestSetInvulnerables(t *testing.T) {
	n, ts := newServer(t, genesis.DevAccount("root"))
	v := genesis.DevAccount("validator-1")

	_, status := post(t, ts.URL+"/admin/staking/invulnerables", token, InvulnerablesRequest{Validators: []core.Address{v}})
	require.Equal(t, http.StatusNoContent, status)

	require.NoError(t, n.View(func(e *builtin.Engine) error {
		ids, err := e.Staker.Invulnerables()
		require.NoError(t, err)
		assert.Equal(t, []core.Address{v}, ids)
		return nil
	}))

	_, status = post(t, ts.URL+"/admin/staking/invulnerables", token, "nope")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRotate(t *testing.T) {
	_, ts := newServer(t, genesis.DevAccount("root"))

	body, status := post(t, ts.URL+"/admin/staking/rotate", token, nil)
	require.Equal(t, http.StatusOK, status)

	var resp RotateResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, uint32(1), resp.Session)
	assert.Len(t, resp.Selected, 4)
}

func TestCalls(t *testing.T) {
	n, ts := newServer(t, genesis.DevAccount("root"))
	url := ts.URL + "/admin/staking/calls"
	newcomer := genesis.DevAccount("newcomer")

	body, status := post(t, url, token, Call{Origin: newcomer, Method: "endow", Amount: 5000})
	require.Equal(t, http.StatusOK, status)
	var res CallResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Empty(t, res.Events)

	body, status = post(t, url, token, Call{Origin: newcomer, Method: "join_validators", Amount: 2000})
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &res))
	require.Len(t, res.Events, 1)
	assert.Equal(t, events.JoinedValidatorCandidates, res.Events[0].Type)
	assert.Equal(t, newcomer, res.Events[0].Account)
	assert.Equal(t, uint64(2000), res.Events[0].Amount)

	require.NoError(t, n.View(func(e *builtin.Engine) error {
		v, err := e.Staker.Validator(newcomer)
		require.NoError(t, err)
		require.NotNil(t, v)
		return nil
	}))

	_, status = post(t, url, token, Call{Origin: newcomer, Method: "join_validators", Amount: 2000})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCallsInvalid(t *testing.T) {
	_, ts := newServer(t, genesis.DevAccount("root"))
	url := ts.URL + "/admin/staking/calls"
	origin := genesis.DevAccount("nominator-1")

	_, status := post(t, url, token, Call{Origin: origin, Method: "transfer"})
	assert.Equal(t, http.StatusBadRequest, status)

	_, status = post(t, url, token, Call{Origin: origin, Method: "nominate", Amount: 100})
	assert.Equal(t, http.StatusBadRequest, status)

	target := genesis.DevAccount("validator-1")
	_, status = post(t, url, token, Call{Origin: origin, Method: "switch_nomination", Target: &target})
	assert.Equal(t, http.StatusBadRequest, status)
}
