// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package testnode

import (
	"context"

	"github.com/stakecore/stakecore/genesis"
	"github.com/stakecore/stakecore/muxdb"
	"github.com/stakecore/stakecore/node"
)

// Node is a node over in-memory stores.
type Node struct {
	*node.Node
	Genesis *genesis.Genesis
	db      *muxdb.MuxDB
}

// Simulate runs sessions of the simulator against the node.
func (n *Node) Simulate(sessions int, opts node.SimOptions) error {
	return node.NewSimulator(n.Node, opts).Run(context.Background(), sessions, nil)
}

// Close releases the subscriptions and the stores.
func (n *Node) Close() {
	n.Node.Close()
	n.EventLog().Close()
	n.db.Close()
}
