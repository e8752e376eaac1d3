// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"time"

	"github.com/stakecore/stakecore/builtin"
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/node"
)

const defaultMaxTimeBetweenCommits = 30 * time.Second

type Status struct {
	Healthy        bool         `json:"healthy"`
	GenesisID      core.Bytes32 `json:"genesisId"`
	Session        uint32       `json:"session"`
	LastCommit     *time.Time   `json:"lastCommit"`
	InvariantError *string      `json:"invariantError"`
}

// Health reports whether the node keeps committing and its state is sound.
type Health struct {
	node *node.Node
}

func New(node *node.Node) *Health {
	return &Health{node: node}
}

func (h *Health) Status(maxTimeBetweenCommits time.Duration) (*Status, error) {
	lastCommit := h.node.LastCommit()
	status := &Status{
		GenesisID:  h.node.GenesisID(),
		LastCommit: &lastCommit,
	}
	err := h.node.View(func(e *builtin.Engine) (err error) {
		if status.Session, err = e.Staker.CurrentSession(); err != nil {
			return err
		}
		if err := e.Staker.CheckInvariants(); err != nil {
			msg := err.Error()
			status.InvariantError = &msg
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	status.Healthy = time.Since(lastCommit) <= maxTimeBetweenCommits && status.InvariantError == nil
	return status, nil
}
