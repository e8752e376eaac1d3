// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the errors a staking call reverts with. They are
// recoverable by the caller and leave no partial effect behind.
package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies a revert.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAlreadyExists
	KindBelowMinimum
	KindCardinalityExceeded
	KindUnderflow
	KindInsufficientFunds
	KindInvalidArgument
	KindStateConflict
	KindUnauthorized
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindNotFound:            "not-found",
	KindAlreadyExists:       "already-exists",
	KindBelowMinimum:        "below-minimum",
	KindCardinalityExceeded: "cardinality-exceeded",
	KindUnderflow:           "underflow",
	KindInsufficientFunds:   "insufficient-funds",
	KindInvalidArgument:     "invalid-argument",
	KindStateConflict:       "state-conflict",
	KindUnauthorized:        "unauthorized",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of the revert wrapped in err.
func KindOf(err error) (Kind, bool) {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind, true
	}
	return KindUnknown, false
}

// Is reports whether err is a revert of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// ErrInvariant marks a broken internal invariant. It is never recoverable
// and aborts the session step that hit it.
var ErrInvariant = errors.New("invariant violation")

type invariantError struct {
	message string
}

func (e *invariantError) Error() string {
	return ErrInvariant.Error() + ": " + e.message
}

func (e *invariantError) Unwrap() error {
	return ErrInvariant
}

// Invariant builds an invariant violation error.
func Invariant(format string, args ...any) error {
	return &invariantError{message: fmt.Sprintf(format, args...)}
}

// IsInvariant reports whether err carries an invariant violation.
func IsInvariant(err error) bool {
	return errors.Is(err, ErrInvariant)
}
