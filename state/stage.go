// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"io"
	"slices"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/kv"
)

// Stage holds pending changes of a state.
type Stage struct {
	changes map[storageKey]rlp.RawValue
}

// Len returns the number of changed slots.
func (s *Stage) Len() int {
	return len(s.changes)
}

func (s *Stage) sortedKeys() []storageKey {
	keys := make([]storageKey, 0, len(s.changes))
	for k := range s.changes {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b storageKey) int {
		return bytes.Compare(a.Bytes(), b.Bytes())
	})
	return keys
}

// Hash digests the changes in key order.
func (s *Stage) Hash() core.Bytes32 {
	return core.Blake2bFn(func(w io.Writer) {
		for _, k := range s.sortedKeys() {
			w.Write(k.Bytes())
			w.Write(s.changes[k])
		}
	})
}

// Commit writes changes into the bulk and flushes it.
func (s *Stage) Commit(bulk kv.Bulk) error {
	for _, k := range s.sortedKeys() {
		v := s.changes[k]
		var err error
		if len(v) == 0 {
			err = bulk.Delete(k.Bytes())
		} else {
			err = bulk.Put(k.Bytes(), v)
		}
		if err != nil {
			return errors.Wrap(err, "stage")
		}
	}
	return errors.Wrap(bulk.Write(), "commit")
}
