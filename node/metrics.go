// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import "github.com/stakecore/stakecore/metrics"

var (
	metricCommitDuration = metrics.LazyLoadHistogram("node_commit_duration_ms", metrics.BucketMillis)
	metricCommittedSlots = metrics.LazyLoadCounter("node_committed_slots_count")
	metricBlocksAuthored = metrics.LazyLoadCounter("node_blocks_authored_count")
	metricOffences       = metrics.LazyLoadCounterVec("node_offences_count", []string{"outcome"})
)
