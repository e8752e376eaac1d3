// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
)

var (
	ErrOverflow  = errors.New("uint256 overflow")
	ErrUnderflow = errors.New("uint256 underflow")
)

// Uint256 is a 256-bit counter stored as 32 big endian bytes in a single slot.
type Uint256 struct {
	context *Context
	pos     core.Bytes32
}

func NewUint256(context *Context, pos core.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: pos}
}

func (u *Uint256) Get() (*uint256.Int, error) {
	raw, err := u.context.state.GetRawStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(raw), nil
}

func (u *Uint256) Set(value *uint256.Int) {
	if value.IsZero() {
		u.context.state.SetRawStorage(u.context.address, u.pos, nil)
		return
	}
	b32 := value.Bytes32()
	u.context.state.SetRawStorage(u.context.address, u.pos, b32[:])
}

// Add increases the counter, failing on overflow.
func (u *Uint256) Add(delta uint64) error {
	value, err := u.Get()
	if err != nil {
		return err
	}
	if _, overflow := value.AddOverflow(value, uint256.NewInt(delta)); overflow {
		return ErrOverflow
	}
	u.Set(value)
	return nil
}

// Sub decreases the counter, failing on underflow.
func (u *Uint256) Sub(delta uint64) error {
	value, err := u.Get()
	if err != nil {
		return err
	}
	if _, underflow := value.SubOverflow(value, uint256.NewInt(delta)); underflow {
		return ErrUnderflow
	}
	u.Set(value)
	return nil
}
