// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// PerbillAccuracy is the number of parts in one whole.
const PerbillAccuracy = 1_000_000_000

// Perbill is a fraction in parts per billion, always within [0, 1].
type Perbill uint32

// Common fractions.
const (
	PerbillZero Perbill = 0
	PerbillOne  Perbill = PerbillAccuracy
)

// PerbillFromParts builds a fraction from raw parts, capped at one.
func PerbillFromParts(parts uint32) Perbill {
	if parts > PerbillAccuracy {
		return PerbillOne
	}
	return Perbill(parts)
}

// PerbillFromPercent builds a fraction from a whole percentage, capped at one.
func PerbillFromPercent(percent uint32) Perbill {
	if percent >= 100 {
		return PerbillOne
	}
	return Perbill(percent * (PerbillAccuracy / 100))
}

// PerbillFromRational returns p/q rounded down. A zero q is treated as one and
// p is capped at q, so the result never exceeds one.
func PerbillFromRational(p, q uint64) Perbill {
	if q == 0 {
		q = 1
	}
	if p >= q {
		return PerbillOne
	}
	num := new(uint256.Int).Mul(uint256.NewInt(p), uint256.NewInt(PerbillAccuracy))
	num.Div(num, uint256.NewInt(q))
	return Perbill(num.Uint64())
}

// Deconstruct returns the raw parts.
func (p Perbill) Deconstruct() uint32 {
	return uint32(p)
}

// IsZero returns if the fraction is zero.
func (p Perbill) IsZero() bool {
	return p == 0
}

// Mul returns p × n rounded to the nearest integer, ties rounding down.
func (p Perbill) Mul(n uint64) uint64 {
	quo, rem := p.mulDiv(n)
	if rem*2 > PerbillAccuracy {
		quo++
	}
	return quo
}

// MulFloor returns p × n rounded down.
func (p Perbill) MulFloor(n uint64) uint64 {
	quo, _ := p.mulDiv(n)
	return quo
}

// Compose returns p × other as a fraction rounded down.
func (p Perbill) Compose(other Perbill) Perbill {
	return Perbill(p.MulFloor(uint64(other)))
}

func (p Perbill) mulDiv(n uint64) (uint64, uint64) {
	if p >= PerbillOne {
		return n, 0
	}
	prod := new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(uint64(p)))
	quo, rem := new(uint256.Int).DivMod(prod, uint256.NewInt(PerbillAccuracy), new(uint256.Int))
	return quo.Uint64(), rem.Uint64()
}

// String renders the fraction as a percentage.
func (p Perbill) String() string {
	whole := uint32(p) / (PerbillAccuracy / 100)
	frac := uint32(p) % (PerbillAccuracy / 100)
	if frac == 0 {
		return fmt.Sprintf("%d%%", whole)
	}
	return fmt.Sprintf("%d.%07d%%", whole, frac)
}

// MarshalText implements encoding.TextMarshaler.
func (p Perbill) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts a percentage with up to seven decimals ("12.5%")
// or raw parts ("125000000").
func (p *Perbill) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	pct, isPercent := strings.CutSuffix(s, "%")
	if !isPercent {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return err
		}
		if n > PerbillAccuracy {
			return errors.New("perbill exceeds one")
		}
		*p = Perbill(n)
		return nil
	}

	whole, frac, _ := strings.Cut(pct, ".")
	w, err := strconv.ParseUint(whole, 10, 32)
	if err != nil {
		return err
	}
	parts := w * (PerbillAccuracy / 100)
	if frac != "" {
		if len(frac) > 7 {
			return errors.New("perbill percentage has too many decimals")
		}
		f, err := strconv.ParseUint(frac+strings.Repeat("0", 7-len(frac)), 10, 32)
		if err != nil {
			return err
		}
		parts += f
	}
	if parts > PerbillAccuracy {
		return errors.New("perbill exceeds one")
	}
	*p = Perbill(parts)
	return nil
}
