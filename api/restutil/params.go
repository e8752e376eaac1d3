// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package restutil

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
)

// ParseAddress parses an address path or query parameter.
func ParseAddress(name, value string) (core.Address, error) {
	addr, err := core.ParseAddress(value)
	if err != nil {
		return core.Address{}, BadRequest(errors.WithMessage(err, name))
	}
	return *addr, nil
}

// ParseSession parses a session index. An empty value yields ok false.
func ParseSession(name, value string) (session uint32, ok bool, err error) {
	if value == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, false, BadRequest(errors.WithMessage(err, name))
	}
	return uint32(n), true, nil
}
