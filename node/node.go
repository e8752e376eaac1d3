// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node owns the committed engine state and serializes access to it.
package node

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/builtin"
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/eventlog"
	"github.com/stakecore/stakecore/genesis"
	"github.com/stakecore/stakecore/kv"
	"github.com/stakecore/stakecore/log"
	"github.com/stakecore/stakecore/muxdb"
	"github.com/stakecore/stakecore/staking/events"
	"github.com/stakecore/stakecore/state"
)

var logger = log.WithContext("pkg", "node")

const (
	stateStoreName = "state"
	metaStoreName  = "meta"
)

var genesisKey = []byte("genesis")

// Options for Node.
type Options struct {
	// EventRetention is the number of sessions whose events are kept, 0 keeps all.
	EventRetention uint32
}

// CommitEvent is published after every commit.
type CommitEvent struct {
	Session uint32
	Events  []events.Event
}

// Node owns the committed engine state. Readers and writers take turns on
// one lock, every successful update is committed with its events.
type Node struct {
	lock     sync.Mutex
	sendLock sync.Mutex

	stateStore kv.Store
	metaStore  kv.Store
	eventLog   *eventlog.EventLog
	cfg        builtin.Config
	genesisID  core.Bytes32
	opts       Options
	engine     *builtin.Engine
	lastCommit atomic.Int64

	feed  event.Feed
	scope event.SubscriptionScope
}

// New opens the node on db, building the genesis state on first use.
func New(ctx context.Context, db *muxdb.MuxDB, eventLog *eventlog.EventLog, gen *genesis.Genesis, opts Options) (*Node, error) {
	genesisID, err := gen.ID()
	if err != nil {
		return nil, errors.Wrap(err, "genesis")
	}
	n := &Node{
		stateStore: db.NewCachedStore(stateStoreName),
		metaStore:  db.NewStore(metaStoreName),
		eventLog:   eventLog,
		cfg:        gen.Config(),
		genesisID:  genesisID,
		opts:       opts,
	}

	stored, err := n.metaStore.Get(genesisKey)
	switch {
	case err == nil:
		if !bytes.Equal(stored, genesisID.Bytes()) {
			return nil, errors.Errorf("database built from genesis %v, expected %v", core.BytesToBytes32(stored), genesisID)
		}
		n.bind()
		n.lastCommit.Store(time.Now().UnixNano())
	case n.metaStore.IsNotFound(err):
		engine, selected, err := gen.Build(state.New(n.stateStore))
		if err != nil {
			return nil, err
		}
		n.engine = engine
		if err := n.commit(ctx); err != nil {
			return nil, err
		}
		if err := n.metaStore.Put(genesisKey, genesisID.Bytes()); err != nil {
			return nil, errors.Wrap(err, "save genesis id")
		}
		logger.Info("initialized genesis", "id", genesisID, "selected", len(selected))
	default:
		return nil, errors.Wrap(err, "load genesis id")
	}
	return n, nil
}

// bind drops uncommitted changes by binding the components to a fresh
// state over the committed store.
func (n *Node) bind() {
	n.engine = builtin.New(state.New(n.stateStore), n.cfg)
}

// GenesisID returns the id of the genesis the state was built from.
func (n *Node) GenesisID() core.Bytes32 {
	return n.genesisID
}

// EventLog returns the store of committed events.
func (n *Node) EventLog() *eventlog.EventLog {
	return n.eventLog
}

// View runs fn against the committed state. Changes fn makes are dropped.
func (n *Node) View(fn func(e *builtin.Engine) error) error {
	n.lock.Lock()
	defer n.lock.Unlock()

	defer n.bind()
	return fn(n.engine)
}

// Update runs fn and commits its changes. On error nothing is committed.
func (n *Node) Update(ctx context.Context, fn func(e *builtin.Engine) error) error {
	n.lock.Lock()

	if err := fn(n.engine); err != nil {
		n.bind()
		n.lock.Unlock()
		return err
	}
	session, err := n.engine.Staker.CurrentSession()
	if err != nil {
		n.bind()
		n.lock.Unlock()
		return err
	}
	evs := n.engine.Staker.Events()
	if err := n.commit(ctx); err != nil {
		n.lock.Unlock()
		return err
	}

	// keep commit order while subscribers are served outside the lock
	n.sendLock.Lock()
	n.lock.Unlock()
	defer n.sendLock.Unlock()
	if len(evs) > 0 {
		n.feed.Send(&CommitEvent{Session: session, Events: evs})
	}
	return nil
}

// commit flushes the staged state and the buffered events, then rebinds.
// A failed state write stores no events. Should the event transaction fail
// after the state landed, the state stays and its events are lost.
func (n *Node) commit(ctx context.Context) error {
	start := time.Now()
	defer n.bind()

	stage := n.engine.State.Stage()
	evs := n.engine.Staker.DrainEvents()
	// the events commit only once the state did
	if err := n.eventLog.AppendWith(ctx, evs, func() error {
		return errors.Wrap(stage.Commit(n.stateStore.Bulk()), "commit state")
	}); err != nil {
		return errors.Wrap(err, "append events")
	}
	if n.opts.EventRetention > 0 {
		if current, err := n.engine.Staker.CurrentSession(); err == nil && current > n.opts.EventRetention {
			if _, err := n.eventLog.PruneBefore(ctx, current-n.opts.EventRetention); err != nil {
				logger.Warn("failed to prune events", "error", err)
			}
		}
	}

	n.lastCommit.Store(time.Now().UnixNano())
	metricCommitDuration().Observe(time.Since(start).Milliseconds())
	metricCommittedSlots().Add(int64(stage.Len()))
	logger.Debug("committed", "slots", stage.Len(), "events", len(evs), "hash", stage.Hash().AbbrevString())
	return nil
}

// LastCommit returns when the state was last committed.
func (n *Node) LastCommit() time.Time {
	return time.Unix(0, n.lastCommit.Load())
}

// SubscribeCommits delivers a CommitEvent for every commit carrying events.
func (n *Node) SubscribeCommits(ch chan *CommitEvent) event.Subscription {
	return n.scope.Track(n.feed.Subscribe(ch))
}

// Close ends the subscriptions.
func (n *Node) Close() {
	n.scope.Close()
}
