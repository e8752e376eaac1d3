// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sessions

import (
	"net/http"
	"slices"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/api/restutil"
	"github.com/stakecore/stakecore/api/types"
	"github.com/stakecore/stakecore/builtin"
	"github.com/stakecore/stakecore/cache"
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/node"
)

const snapshotCacheSize = 64

type Sessions struct {
	node *node.Node
	// exposures of past sessions never change while they stay bonded
	snapshots *cache.LRU[uint32, []*types.Snapshot]
}

func New(node *node.Node) *Sessions {
	snapshots, _ := cache.NewLRU[uint32, []*types.Snapshot](snapshotCacheSize)
	return &Sessions{
		node:      node,
		snapshots: snapshots,
	}
}

// resolve parses the session path variable, "current" or empty selects the
// current session. It fails with not found when the session left the bonded
// window or is in the future.
func resolve(e *builtin.Engine, value string) (session, current uint32, err error) {
	current, err = e.Staker.CurrentSession()
	if err != nil {
		return 0, 0, err
	}
	if value == "current" {
		return current, current, nil
	}
	session, ok, err := restutil.ParseSession("session", value)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return current, current, nil
	}
	bonded, err := e.Staker.BondedSessions()
	if err != nil {
		return 0, 0, err
	}
	if !slices.Contains(bonded, session) {
		return 0, 0, restutil.NotFound(errors.Errorf("session %d is not bonded", session))
	}
	return session, current, nil
}

func (s *Sessions) handleGetSession(w http.ResponseWriter, req *http.Request) error {
	var out *types.Session
	err := s.node.View(func(e *builtin.Engine) error {
		session, current, err := resolve(e, mux.Vars(req)["session"])
		if err != nil {
			return err
		}
		selected, err := e.Staker.Selected(session)
		if err != nil {
			return err
		}
		staked, err := e.Staker.Staked(session)
		if err != nil {
			return err
		}
		pot, err := e.Staker.RewardPot(session)
		if err != nil {
			return err
		}
		points, err := e.Staker.TotalPoints(session)
		if err != nil {
			return err
		}
		if selected == nil {
			selected = []core.Address{}
		}
		out = &types.Session{
			Session:     session,
			Current:     session == current,
			Selected:    selected,
			Staked:      staked,
			RewardPot:   pot,
			TotalPoints: points,
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Sessions) handleGetSnapshots(w http.ResponseWriter, req *http.Request) error {
	var out []*types.Snapshot
	err := s.node.View(func(e *builtin.Engine) error {
		session, current, err := resolve(e, mux.Vars(req)["session"])
		if err != nil {
			return err
		}
		if session < current {
			if cached, ok := s.snapshots.Get(session); ok {
				out = cached
				return nil
			}
		}
		selected, err := e.Staker.Selected(session)
		if err != nil {
			return err
		}
		out = make([]*types.Snapshot, 0, len(selected))
		for _, id := range selected {
			// the staker drops its snapshots when a session ends, the
			// session history keeps them for the bonded window
			snap, err := e.Session.Exposure(session, id)
			if err != nil {
				return err
			}
			if snap != nil {
				out = append(out, types.ConvertSnapshot(session, id, snap))
			}
		}
		if session < current {
			s.snapshots.Add(session, out)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Sessions) handleGetUnapplied(w http.ResponseWriter, req *http.Request) error {
	var out []*types.UnappliedSlash
	err := s.node.View(func(e *builtin.Engine) error {
		session, _, err := restutil.ParseSession("session", mux.Vars(req)["session"])
		if err != nil {
			return err
		}
		slashes, err := e.Staker.Unapplied(session)
		if err != nil {
			return err
		}
		out = make([]*types.UnappliedSlash, len(slashes))
		for i, u := range slashes {
			out[i] = types.ConvertUnapplied(u)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, out)
}

func (s *Sessions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{session}").
		Methods(http.MethodGet).
		Name("GET /sessions/{session}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetSession))
	sub.Path("/{session}/snapshots").
		Methods(http.MethodGet).
		Name("GET /sessions/{session}/snapshots").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetSnapshots))
	sub.Path("/{session:[0-9]+}/unapplied").
		Methods(http.MethodGet).
		Name("GET /sessions/{session}/unapplied").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetUnapplied))
}
