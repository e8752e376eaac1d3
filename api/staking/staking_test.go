// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakecore/stakecore/api/types"
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/genesis"
	"github.com/stakecore/stakecore/test/testnode"
)

var ts *httptest.Server

func initStakingServer(t *testing.T) {
	n, err := testnode.NewDefaultNode()
	require.NoError(t, err)
	t.Cleanup(n.Close)

	router := mux.NewRouter()
	New(n.Node).Mount(router, "/staking")
	ts = httptest.NewServer(router)
	t.Cleanup(ts.Close)
}

func TestStaking(t *testing.T) {
	initStakingServer(t)

	for name, tt := range map[string]func(*testing.T){
		"getValidators":           getValidators,
		"getValidatorsByStatus":   getValidatorsByStatus,
		"getValidator":            getValidator,
		"getValidatorNotFound":    getValidatorNotFound,
		"getValidatorInvalidID":   getValidatorInvalidID,
		"getNominators":           getNominators,
		"getNominator":            getNominator,
		"getPool":                 getPool,
		"getParams":               getParams,
		"getTotals":               getTotals,
		"getInvulnerablesIsEmpty": getInvulnerablesIsEmpty,
	} {
		t.Run(name, tt)
	}
}

func getValidators(t *testing.T) {
	body, status := httpGet(t, ts.URL+"/staking/validators")
	require.Equal(t, http.StatusOK, status)

	var validators []*types.Validator
	require.NoError(t, json.Unmarshal(body, &validators))
	assert.Len(t, validators, 5)
	for _, v := range validators {
		assert.Equal(t, "active", v.Status)
		assert.Nil(t, v.LeavingSession)
	}
}

func getValidatorsByStatus(t *testing.T) {
	body, status := httpGet(t, ts.URL+"/staking/validators?status=idle")
	require.Equal(t, http.StatusOK, status)
	var validators []*types.Validator
	require.NoError(t, json.Unmarshal(body, &validators))
	assert.Empty(t, validators)

	_, status = httpGet(t, ts.URL+"/staking/validators?status=sleepy")
	assert.Equal(t, http.StatusBadRequest, status)
}

func getValidator(t *testing.T) {
	id := genesis.DevAccount("validator-5")
	body, status := httpGet(t, ts.URL+"/staking/validators/"+id.String())
	require.Equal(t, http.StatusOK, status)

	var v types.Validator
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, id, v.ID)
	assert.Equal(t, uint64(5000), v.Bond)
	assert.Equal(t, uint64(5500), v.Total)
	assert.Equal(t, []types.Bond{{Owner: genesis.DevAccount("nominator-5"), Amount: 500}}, v.Nominators)
}

func getValidatorNotFound(t *testing.T) {
	_, status := httpGet(t, ts.URL+"/staking/validators/"+genesis.DevAccount("nobody").String())
	assert.Equal(t, http.StatusNotFound, status)
}

func getValidatorInvalidID(t *testing.T) {
	_, status := httpGet(t, ts.URL+"/staking/validators/0xzz")
	assert.Equal(t, http.StatusBadRequest, status)
}

func getNominators(t *testing.T) {
	body, status := httpGet(t, ts.URL+"/staking/nominators")
	require.Equal(t, http.StatusOK, status)
	var nominators []*types.Nominator
	require.NoError(t, json.Unmarshal(body, &nominators))
	assert.Len(t, nominators, 5)
}

func getNominator(t *testing.T) {
	id := genesis.DevAccount("nominator-2")
	body, status := httpGet(t, ts.URL+"/staking/nominators/"+id.String())
	require.Equal(t, http.StatusOK, status)

	var n types.Nominator
	require.NoError(t, json.Unmarshal(body, &n))
	assert.Equal(t, uint64(500), n.Total)
	assert.Equal(t, []types.Bond{{Owner: genesis.DevAccount("validator-2"), Amount: 500}}, n.Nominations)

	_, status = httpGet(t, ts.URL+"/staking/nominators/"+genesis.DevAccount("validator-2").String())
	assert.Equal(t, http.StatusNotFound, status)
}

func getPool(t *testing.T) {
	body, status := httpGet(t, ts.URL+"/staking/pool")
	require.Equal(t, http.StatusOK, status)
	var pool []types.Bond
	require.NoError(t, json.Unmarshal(body, &pool))
	require.Len(t, pool, 5)

	var total uint64
	for _, b := range pool {
		total += b.Amount
	}
	assert.Equal(t, uint64(17500), total)
}

func getParams(t *testing.T) {
	body, status := httpGet(t, ts.URL+"/staking/params")
	require.Equal(t, http.StatusOK, status)

	var p types.Params
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, uint32(4), p.TotalSelected)
	assert.Equal(t, uint32(2), p.SlashDeferDuration)
	assert.Equal(t, core.PerbillFromPercent(20), p.Commission)
	assert.Contains(t, string(body), `"commission":"20%"`)
}

func getTotals(t *testing.T) {
	body, status := httpGet(t, ts.URL+"/staking/totals")
	require.Equal(t, http.StatusOK, status)

	var totals types.Totals
	require.NoError(t, json.Unmarshal(body, &totals))
	assert.Equal(t, types.Totals{Locked: 17500}, totals)
}

func getInvulnerablesIsEmpty(t *testing.T) {
	body, status := httpGet(t, ts.URL+"/staking/invulnerables")
	require.Equal(t, http.StatusOK, status)
	var ids []string
	require.NoError(t, json.Unmarshal(body, &ids))
	assert.Empty(t, ids)
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()

	r, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return r, res.StatusCode
}
