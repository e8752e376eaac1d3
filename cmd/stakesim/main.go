// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// stakesim drives the staking engine through simulated sessions and serves
// its state over http.
package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/stakecore/stakecore/genesis"
)

var (
	version   string
	gitCommit string
	gitTag    string

	storeFlags = []cli.Flag{
		dataDirFlag,
		genesisFlag,
		memFlag,
		cacheFlag,
		verbosityFlag,
		jsonLogsFlag,
	}
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "stakesim",
		Usage:   "Staking and slashing engine simulator",
		Flags: append(storeFlags,
			eventRetentionFlag,
			sessionsFlag,
			blocksFlag,
			uncleRateFlag,
			seedFlag,
			offencesFlag,
			intervalFlag,
			serveFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiEventsLimitFlag,
			apiSlowQueriesThresholdFlag,
			apiLog5xxErrorsFlag,
			enableAPILogsFlag,
			pprofFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
			adminTokenFlag,
		),
		Action: runAction,
		Commands: []cli.Command{
			{
				Name:   "dump",
				Usage:  "print the committed engine state",
				Flags:  storeFlags,
				Action: dumpAction,
			},
			{
				Name:  "genesis",
				Usage: "print the devnet genesis as YAML",
				Action: func(*cli.Context) error {
					data, err := genesis.NewDevnet().Encode()
					if err != nil {
						return err
					}
					_, err = os.Stdout.Write(data)
					return err
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
