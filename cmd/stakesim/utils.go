// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/eventlog"
	"github.com/stakecore/stakecore/genesis"
	"github.com/stakecore/stakecore/log"
	"github.com/stakecore/stakecore/muxdb"
	"github.com/stakecore/stakecore/node"
)

var logger = log.WithContext("pkg", "stakesim")

func initLogger(ctx *cli.Context) (*slog.LevelVar, error) {
	lvl, err := readIntFromUInt64Flag(ctx.Uint64(verbosityFlag.Name))
	if err != nil {
		return nil, errors.Wrap(err, "parse verbosity flag")
	}
	logLevel := new(slog.LevelVar)
	logLevel.Set(log.FromLegacyLevel(lvl))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandler(os.Stdout)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandler(os.Stderr, useColor)
	}
	log.SetDefault(handler, logLevel)
	return logLevel, nil
}

func readIntFromUInt64Flag(val uint64) (int, error) {
	if val > math.MaxInt {
		return 0, fmt.Errorf("invalid value %d", val)
	}
	return int(val), nil
}

func readUint32FromUint64Flag(name string, val uint64) (uint32, error) {
	if val > math.MaxUint32 {
		return 0, fmt.Errorf("-%s: value %d out of range", name, val)
	}
	return uint32(val), nil
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".stakesim")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func loadGenesis(ctx *cli.Context) (*genesis.Genesis, error) {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		return genesis.NewDevnet(), nil
	}
	gen, err := genesis.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load genesis [%v]", path)
	}
	return gen, nil
}

func loadOffences(path string) ([]node.Offence, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read offences")
	}
	var offences []node.Offence
	if err := yaml.Unmarshal(data, &offences); err != nil {
		return nil, errors.Wrap(err, "decode offences")
	}
	for i, o := range offences {
		if o.Offender == (core.Address{}) {
			return nil, errors.Errorf("offences[%d]: offender required", i)
		}
		if o.Fraction > core.PerbillOne {
			return nil, errors.Errorf("offences[%d]: fraction above 100%%", i)
		}
	}
	return offences, nil
}

func makeInstanceDir(ctx *cli.Context, gen *genesis.Genesis) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", errors.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	id, err := gen.ID()
	if err != nil {
		return "", err
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", id.Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create instance dir [%v]", instanceDir)
	}
	return instanceDir, nil
}

func openMainDB(ctx *cli.Context, dir string) (*muxdb.MuxDB, error) {
	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	logger.Debug("cache size(MB)", "size", cacheMB)

	// ensure Go's GC ignores the database cache for trigger percentage
	gogc := math.Max(20, math.Min(100, 100/(float64(cacheMB)/1024)))
	logger.Debug("sanitize Go's GC trigger", "percent", int(gogc))
	debug.SetGCPercent(int(gogc))

	fdCache, err := suggestFDCache()
	if err != nil {
		return nil, err
	}
	logger.Debug("fd cache", "n", fdCache)

	path := filepath.Join(dir, "main.db")
	db, err := muxdb.Open(path, &muxdb.Options{
		CacheSizeMB:            cacheMB / 2,
		ReadCacheMB:            cacheMB / 2,
		OpenFilesCacheCapacity: fdCache,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", path)
	}
	return db, nil
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 64 {
		sizeMB = 64
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() (int, error) {
	limit, err := fdlimit.Current()
	if err != nil {
		return 0, errors.Wrap(err, "get fd limit")
	}
	if limit <= 1024 {
		logger.Warn("low fd limit, increase it if possible", "limit", limit)
	}

	n := limit / 2
	if n > 5120 {
		return 5120, nil
	}
	return n, nil
}

func openEventLog(dir string) (*eventlog.EventLog, error) {
	path := filepath.Join(dir, "events.db")
	db, err := eventlog.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open event log [%v]", path)
	}
	return db, nil
}

// openNode opens the stores and the node. The returned function closes all.
func openNode(ctx *cli.Context, gen *genesis.Genesis, opts node.Options) (*node.Node, string, func(), error) {
	var (
		mainDB      *muxdb.MuxDB
		eventLog    *eventlog.EventLog
		instanceDir = "memory"
		err         error
	)
	if ctx.Bool(memFlag.Name) {
		mainDB = muxdb.NewMem()
		if eventLog, err = eventlog.NewMem(); err != nil {
			return nil, "", nil, err
		}
	} else {
		if instanceDir, err = makeInstanceDir(ctx, gen); err != nil {
			return nil, "", nil, err
		}
		if mainDB, err = openMainDB(ctx, instanceDir); err != nil {
			return nil, "", nil, err
		}
		if eventLog, err = openEventLog(instanceDir); err != nil {
			mainDB.Close()
			return nil, "", nil, err
		}
	}

	n, err := node.New(context.Background(), mainDB, eventLog, gen, opts)
	if err != nil {
		eventLog.Close()
		mainDB.Close()
		return nil, "", nil, err
	}
	return n, instanceDir, func() {
		n.Close()
		logger.Info("closing event log...")
		if err := eventLog.Close(); err != nil {
			logger.Warn("failed to close event log", "err", err)
		}
		logger.Info("closing main database...")
		if err := mainDB.Close(); err != nil {
			logger.Warn("failed to close main database", "err", err)
		}
	}, nil
}

func handleExitSignal() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(exitSignalCh)

		select {
		case sig := <-exitSignalCh:
			logger.Info("exit signal received", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func printStartupMessage(n *node.Node, instanceDir string, urls map[string]string) {
	fmt.Printf(`Starting stakesim
    Genesis      [ %v ]
    Last commit  [ %v ]
    Instance dir [ %v ]
`,
		n.GenesisID(),
		n.LastCommit().Format(time.RFC3339),
		instanceDir)
	for _, name := range []string{"API portal", "Admin", "Metrics"} {
		if url, ok := urls[name]; ok {
			fmt.Printf("    %-12v [ %v ]\n", name, url)
		}
	}
}
