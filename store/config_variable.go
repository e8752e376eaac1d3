// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package store

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/log"
)

var logger = log.WithContext("pkg", "store")

// ConfigVariable is a named uint64 parameter. The default applies until a
// value is written to its slot.
type ConfigVariable struct {
	slot         core.Bytes32
	name         string
	defaultValue uint64
}

func NewConfigVariable(name string, defaultValue uint64) *ConfigVariable {
	return &ConfigVariable{
		slot:         core.BytesToBytes32([]byte(name)),
		name:         name,
		defaultValue: defaultValue,
	}
}

func (c *ConfigVariable) Name() string {
	return c.name
}

func (c *ConfigVariable) Slot() core.Bytes32 {
	return c.slot
}

func (c *ConfigVariable) Default() uint64 {
	return c.defaultValue
}

// Get returns the stored value or the default.
func (c *ConfigVariable) Get(ctx *Context) (uint64, error) {
	raw, err := ctx.state.GetRawStorage(ctx.address, c.slot)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return c.defaultValue, nil
	}
	var value uint64
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		logger.Warn("malformed config value, using default", "name", c.name, "err", err)
		return c.defaultValue, nil
	}
	return value, nil
}

// Set overrides the value.
func (c *ConfigVariable) Set(ctx *Context, value uint64) error {
	logger.Debug("config value set", "name", c.name, "value", value)
	return ctx.state.EncodeStorage(ctx.address, c.slot, func() ([]byte, error) {
		return rlp.EncodeToBytes(value)
	})
}
