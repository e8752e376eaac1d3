// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/stakecore/stakecore/log"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for engine databases",
	}
	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "path to a YAML genesis file (devnet if omitted)",
	}
	memFlag = cli.BoolFlag{
		Name:  "mem",
		Usage: "keep state in memory, nothing is written to data dir",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 256,
		Usage: "megabytes of ram allocated to state cache",
	}
	eventRetentionFlag = cli.Uint64Flag{
		Name:  "event-retention",
		Usage: "number of sessions whose events are kept (0 keeps all)",
	}

	sessionsFlag = cli.IntFlag{
		Name:  "sessions",
		Value: 10,
		Usage: "number of sessions to simulate (0 runs until interrupted)",
	}
	blocksFlag = cli.IntFlag{
		Name:  "blocks",
		Value: 100,
		Usage: "blocks authored per session",
	}
	uncleRateFlag = cli.IntFlag{
		Name:  "uncle-rate",
		Usage: "one block in n references an uncle (0 disables uncles)",
	}
	seedFlag = cli.Uint64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "seed of the block author selection",
	}
	offencesFlag = cli.StringFlag{
		Name:  "offences",
		Usage: "path to a YAML list of scripted offences",
	}
	intervalFlag = cli.DurationFlag{
		Name:  "interval",
		Usage: "pause between sessions",
	}
	serveFlag = cli.BoolFlag{
		Name:  "serve",
		Usage: "keep serving the APIs after the last session until interrupted",
	}

	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8669",
		Usage: "API service listening address (disabled if empty)",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiEventsLimitFlag = cli.Uint64Flag{
		Name:  "api-events-limit",
		Value: 1000,
		Usage: "limit the number of events returned by /events API",
	}
	apiSlowQueriesThresholdFlag = cli.DurationFlag{
		Name:  "api-slow-queries-threshold",
		Usage: "only log API requests slower than the threshold",
	}
	apiLog5xxErrorsFlag = cli.BoolFlag{
		Name:  "api-log-5xx-errors",
		Usage: "log API requests responded with 5xx",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	pprofFlag = cli.BoolFlag{
		Name:  "pprof",
		Usage: "turn on go-pprof",
	}

	verbosityFlag = cli.Uint64Flag{
		Name:  "verbosity",
		Value: log.LegacyLevelInfo,
		Usage: "log verbosity (0-9)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}

	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}

	enableAdminFlag = cli.BoolFlag{
		Name:  "enable-admin",
		Usage: "enables admin server",
	}
	adminAddrFlag = cli.StringFlag{
		Name:  "admin-addr",
		Value: "localhost:2113",
		Usage: "admin service listening address",
	}
	adminTokenFlag = cli.StringFlag{
		Name:   "admin-token",
		EnvVar: "STAKESIM_ADMIN_TOKEN",
		Usage:  "bearer token required by the staking admin endpoints",
	}
)
