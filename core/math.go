// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package core

import (
	gomath "math"

	"github.com/ethereum/go-ethereum/common/math"
)

// CheckedAdd returns a+b and false on overflow.
func CheckedAdd(a, b uint64) (uint64, bool) {
	sum, overflow := math.SafeAdd(a, b)
	return sum, !overflow
}

// CheckedSub returns a-b and false on underflow.
func CheckedSub(a, b uint64) (uint64, bool) {
	diff, underflow := math.SafeSub(a, b)
	return diff, !underflow
}

// SaturatingAdd returns a+b capped at the maximum uint64.
func SaturatingAdd(a, b uint64) uint64 {
	sum, overflow := math.SafeAdd(a, b)
	if overflow {
		return gomath.MaxUint64
	}
	return sum
}

// SaturatingSub returns a-b floored at zero.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// SaturatingAdd32 is SaturatingAdd for session indexes.
func SaturatingAdd32(a, b uint32) uint32 {
	if a > gomath.MaxUint32-b {
		return gomath.MaxUint32
	}
	return a + b
}

// SaturatingSub32 is SaturatingSub for session indexes.
func SaturatingSub32(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}
