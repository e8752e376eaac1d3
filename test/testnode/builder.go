// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testnode

import (
	"context"
	"fmt"

	"github.com/stakecore/stakecore/eventlog"
	"github.com/stakecore/stakecore/genesis"
	"github.com/stakecore/stakecore/muxdb"
	"github.com/stakecore/stakecore/node"
)

// NodeBuilder implements the builder pattern for creating a test node instance
type NodeBuilder struct {
	gen  *genesis.Genesis
	opts node.Options
}

// NewNodeBuilder creates a new NodeBuilder with default configuration
func NewNodeBuilder() *NodeBuilder {
	return &NodeBuilder{}
}

// WithGenesis sets the genesis of the node.
// If not set, the devnet genesis is used.
func (b *NodeBuilder) WithGenesis(gen *genesis.Genesis) *NodeBuilder {
	if gen == nil {
		panic("genesis cannot be nil")
	}
	b.gen = gen
	return b
}

func (b *NodeBuilder) WithOptions(opts node.Options) *NodeBuilder {
	b.opts = opts
	return b
}

// Build creates a node over in-memory stores.
func (b *NodeBuilder) Build() (*Node, error) {
	gen := b.gen
	if gen == nil {
		gen = genesis.NewDevnet()
	}
	db := muxdb.NewMem()
	evLog, err := eventlog.NewMem()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}
	n, err := node.New(context.Background(), db, evLog, gen, b.opts)
	if err != nil {
		evLog.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create node: %w", err)
	}
	return &Node{
		Node:    n,
		Genesis: gen,
		db:      db,
	}, nil
}

// NewDefaultNode creates a new node with default configuration
func NewDefaultNode() (*Node, error) {
	return NewNodeBuilder().Build()
}
