// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

import (
	"strings"

	"github.com/stakecore/stakecore/metrics"
)

var (
	metricAppended        = metrics.LazyLoadCounter("eventlog_appended_count")
	metricQueryParameters = metrics.LazyLoadCounterVec("eventlog_query_parameters", []string{"parameters"})
	metricLimitBucket     = metrics.LazyLoadHistogram("eventlog_query_limit_bucket", []int64{0, 5, 10, 25, 50, 100, 250, 500, 1000})
)

func metricsHandleFilter(filter *Filter) {
	if metrics.NoOp() {
		return
	}
	params := make([]string, 0, 4)
	if len(filter.Types) > 0 {
		params = append(params, "type")
	}
	if filter.Account != nil {
		params = append(params, "account")
	}
	if filter.Validator != nil {
		params = append(params, "validator")
	}
	if filter.Range != nil {
		params = append(params, "range")
	}
	metricQueryParameters().AddWithLabel(1, map[string]string{"parameters": strings.Join(params, ",")})

	if filter.Options != nil {
		metricLimitBucket().Observe(int64(min(filter.Options.Limit, 1001)))
	}
}
