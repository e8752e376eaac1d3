// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"time"

	"github.com/stakecore/stakecore/builtin"
	"github.com/stakecore/stakecore/metrics"
	"github.com/stakecore/stakecore/node"
)

var (
	metricLastCommitAge = metrics.LazyLoadGauge("stakesim_last_commit_age_seconds")
	metricEngineTotals  = metrics.LazyLoadGaugeVec("stakesim_engine_totals", []string{"kind"})
)

func pollMetrics(ctx context.Context, n *node.Node) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metricLastCommitAge().Set(int64(time.Since(n.LastCommit()).Seconds()))

			var locked, slashed, rewarded uint64
			err := n.View(func(e *builtin.Engine) (err error) {
				locked, slashed, rewarded, err = e.Staker.Totals()
				return
			})
			if err != nil {
				logger.Warn("failed to read engine totals", "err", err)
				continue
			}
			metricEngineTotals().SetWithLabel(int64(locked), map[string]string{"kind": "locked"})
			metricEngineTotals().SetWithLabel(int64(slashed), map[string]string{"kind": "slashed"})
			metricEngineTotals().SetWithLabel(int64(rewarded), map[string]string{"kind": "rewarded"})
		}
	}
}
