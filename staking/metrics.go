// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/stakecore/stakecore/metrics"

var (
	metricOperations        = metrics.LazyLoadCounterVec("staking_operations_count", []string{"op", "outcome"})
	metricOperationDuration = metrics.LazyLoadHistogram("staking_operation_duration_ms", metrics.BucketMillis)
	metricSessions          = metrics.LazyLoadCounter("staking_sessions_count")
	metricSelected          = metrics.LazyLoadGauge("staking_selected_validators")
	metricStaked            = metrics.LazyLoadGauge("staking_session_staked")
	metricSlashes           = metrics.LazyLoadCounterVec("staking_slashes_count", []string{"stage"})
	metricSlashedAmount     = metrics.LazyLoadCounter("staking_slashed_amount")
	metricRewardsPaid       = metrics.LazyLoadCounter("staking_rewards_paid")
	metricExits             = metrics.LazyLoadHistogram("staking_exits_per_session", metrics.BucketCount)
)
