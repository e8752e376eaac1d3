// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/stakecore/stakecore/api"
	"github.com/stakecore/stakecore/api/admin"
	"github.com/stakecore/stakecore/cmd/stakesim/httpserver"
	"github.com/stakecore/stakecore/metrics"
	"github.com/stakecore/stakecore/node"
)

func runAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel, err := initLogger(ctx)
	if err != nil {
		return err
	}
	gen, err := loadGenesis(ctx)
	if err != nil {
		return err
	}
	offences, err := loadOffences(ctx.String(offencesFlag.Name))
	if err != nil {
		return errors.Wrapf(err, "-%s", offencesFlag.Name)
	}
	retention, err := readUint32FromUint64Flag(eventRetentionFlag.Name, ctx.Uint64(eventRetentionFlag.Name))
	if err != nil {
		return err
	}
	sessions := ctx.Int(sessionsFlag.Name)
	if sessions < 0 {
		return errors.Errorf("-%s: must not be negative", sessionsFlag.Name)
	}
	if ctx.Int(blocksFlag.Name) <= 0 {
		return errors.Errorf("-%s: must be positive", blocksFlag.Name)
	}

	metricsEnabled := ctx.Bool(enableMetricsFlag.Name)
	if metricsEnabled {
		metrics.InitializePrometheusMetrics()
	}

	n, instanceDir, closeNode, err := openNode(ctx, gen, node.Options{EventRetention: retention})
	if err != nil {
		return err
	}
	defer closeNode()

	exitCtx, exit := handleExitSignal()
	defer exit()

	urls := make(map[string]string)
	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	if addr := ctx.String(apiAddrFlag.Name); addr != "" {
		url, closeFunc, err := httpserver.StartAPIServer(addr, n, api.Options{
			AllowedOrigins:       ctx.String(apiCorsFlag.Name),
			PprofOn:              ctx.Bool(pprofFlag.Name),
			EnableMetrics:        metricsEnabled,
			EnableReqLogger:      apiLogs,
			SlowQueriesThreshold: ctx.Duration(apiSlowQueriesThresholdFlag.Name),
			Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
			EventsLimit:          ctx.Uint64(apiEventsLimitFlag.Name),
		})
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping API server..."); closeFunc() }()
		urls["API portal"] = url
	}

	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := httpserver.StartAdminServer(ctx.String(adminAddrFlag.Name), n, logLevel, apiLogs, admin.Options{
			Root:  gen.Root,
			Token: ctx.String(adminTokenFlag.Name),
		})
		if err != nil {
			return errors.Wrap(err, "start admin server")
		}
		defer func() { logger.Info("stopping admin server..."); closeFunc() }()
		urls["Admin"] = url
	}

	if metricsEnabled {
		url, closeFunc, err := httpserver.StartMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return errors.Wrap(err, "start metrics server")
		}
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
		urls["Metrics"] = url
	}

	printStartupMessage(n, instanceDir, urls)

	sim := node.NewSimulator(n, node.SimOptions{
		BlocksPerSession: ctx.Int(blocksFlag.Name),
		UncleRate:        ctx.Int(uncleRateFlag.Name),
		Seed:             ctx.Uint64(seedFlag.Name),
		Offences:         offences,
	})
	serve := ctx.Bool(serveFlag.Name)
	interval := ctx.Duration(intervalFlag.Name)

	g, gctx := errgroup.WithContext(exitCtx)
	g.Go(func() error {
		if err := simulate(gctx, sim, sessions, interval); err != nil {
			return err
		}
		if !serve {
			exit()
		}
		return nil
	})
	if metricsEnabled {
		g.Go(func() error {
			pollMetrics(gctx, n)
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// simulate steps through sessions, or forever when sessions is 0.
func simulate(ctx context.Context, sim *node.Simulator, sessions int, interval time.Duration) error {
	var bar *pb.ProgressBar
	if sessions > 0 {
		bar = pb.New(sessions).
			SetMaxWidth(90).
			Start()
		defer func() { bar.NotPrint = true }()
	}

	for i := 0; sessions == 0 || i < sessions; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := sim.Step(ctx); err != nil {
			return err
		}
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}
	return nil
}
