// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking implements the staking and slashing engine: validator and
// nominator bonds, per-session selection, reward payouts and span-bounded
// slashing.
package staking

import (
	"time"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/log"
	"github.com/stakecore/stakecore/staking/events"
	"github.com/stakecore/stakecore/staking/globalstats"
	"github.com/stakecore/stakecore/staking/nominator"
	"github.com/stakecore/stakecore/staking/pool"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/staking/rewards"
	"github.com/stakecore/stakecore/staking/slashing"
	"github.com/stakecore/stakecore/staking/types"
	"github.com/stakecore/stakecore/staking/unbonding"
	"github.com/stakecore/stakecore/staking/validator"
	"github.com/stakecore/stakecore/state"
	"github.com/stakecore/stakecore/store"
)

var logger = log.WithContext("pkg", "staking")

var slotInvulnerables = core.BytesToBytes32([]byte(("invulnerables")))

func SetLogger(l log.Logger) {
	logger = l
}

// Currency is the ledger stake is reserved in.
type Currency interface {
	FreeBalance(account core.Address) (uint64, error)
	MinimumBalance() uint64
	// Reserve moves amount from free to reserved balance.
	Reserve(account core.Address, amount uint64) error
	// Unreserve moves up to amount back to free balance and returns what
	// could not be unreserved.
	Unreserve(account core.Address, amount uint64) (uint64, error)
	// SlashReserved removes up to amount from reserved balance.
	SlashReserved(account core.Address, amount uint64) (slashed uint64, missing uint64, err error)
	Transfer(from, to core.Address, amount uint64) error
	DepositIntoExisting(account core.Address, amount uint64) error
	DepositCreating(account core.Address, amount uint64) error
	// Burn routes slashed value nobody was rewarded with to the slash sink.
	Burn(amount uint64) error
}

// SessionInterface is the session collaborator.
type SessionInterface interface {
	// DisableValidator stops the validator for the rest of the session.
	DisableValidator(validator core.Address) (bool, error)
	// PruneHistoricalUpTo drops historical session data before session.
	PruneHistoricalUpTo(session uint32) error
}

// ExposureRecorder is implemented by session collaborators that keep the
// historical exposures offences are reported against.
type ExposureRecorder interface {
	NoteExposure(session uint32, validator core.Address, snapshot *types.Snapshot) error
}

// Authorizer guards the privileged calls.
type Authorizer interface {
	Authorize(origin core.Address) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(origin core.Address) error

func (f AuthorizerFunc) Authorize(origin core.Address) error {
	return f(origin)
}

// RootAuthorizer allows only root.
func RootAuthorizer(root core.Address) Authorizer {
	return AuthorizerFunc(func(origin core.Address) error {
		if origin != root {
			return reverts.New(reverts.KindUnauthorized, "origin not authorized")
		}
		return nil
	})
}

// Staker is the staking engine. Every exported call is atomic: on error
// its storage writes and events are discarded.
type Staker struct {
	address core.Address
	state   *state.State
	sctx    *store.Context
	params  *paramVars

	validators *validator.Service
	nominators *nominator.Service
	unbonding  *unbonding.Service
	pool       *pool.Service
	rewards    *rewards.Service
	slashing   *slashing.Service
	stats      *globalstats.Service

	invulnerables *store.Value[[]core.Address]

	currency Currency
	session  SessionInterface
	auth     Authorizer
	journal  *events.Journal
}

// New creates a staker storing its records under addr.
func New(
	addr core.Address,
	st *state.State,
	params Params,
	currency Currency,
	session SessionInterface,
	auth Authorizer,
) *Staker {
	sctx := store.NewContext(addr, st)
	return &Staker{
		address: addr,
		state:   st,
		sctx:    sctx,
		params:  newParamVars(params),

		validators: validator.New(sctx),
		nominators: nominator.New(sctx),
		unbonding:  unbonding.New(sctx),
		pool:       pool.New(sctx),
		rewards:    rewards.New(sctx),
		slashing:   slashing.New(sctx),
		stats:      globalstats.New(sctx),

		invulnerables: store.NewValue[[]core.Address](sctx, slotInvulnerables),

		currency: currency,
		session:  session,
		auth:     auth,
		journal:  events.NewJournal(),
	}
}

// Address returns the storage address of the staker.
func (s *Staker) Address() core.Address {
	return s.address
}

// Events returns the events of the calls that succeeded so far.
func (s *Staker) Events() []events.Event {
	return s.journal.Events()
}

// DrainEvents returns the buffered events and clears them. Callers deliver
// them once the state is committed.
func (s *Staker) DrainEvents() []events.Event {
	return s.journal.Drain()
}

// Params returns the live parameters.
func (s *Staker) Params() (*Params, error) {
	return s.params.load(s.sctx)
}

func (s *Staker) emit(ev events.Event) {
	s.journal.Emit(ev)
}

// atomic runs fn inside a state checkpoint. On error the checkpoint is
// reverted and the events emitted by fn are dropped.
func (s *Staker) atomic(op string, fn func() error) error {
	start := time.Now()
	checkpoint := s.state.NewCheckpoint()
	mark := s.journal.Len()

	err := fn()
	if err != nil {
		s.state.RevertTo(checkpoint)
		s.journal.Truncate(mark)
		outcome := "revert"
		if !reverts.IsRevertErr(err) {
			outcome = "error"
		}
		metricOperations().AddWithLabel(1, map[string]string{"op": op, "outcome": outcome})
		if reverts.IsInvariant(err) {
			logger.Error("invariant violated", "op", op, "err", err)
		}
		return err
	}
	metricOperations().AddWithLabel(1, map[string]string{"op": op, "outcome": "ok"})
	metricOperationDuration().Observe(time.Since(start).Milliseconds())
	return nil
}

func (s *Staker) current() (uint32, error) {
	return s.pool.CurrentSession()
}
