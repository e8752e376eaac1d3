// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package currency keeps free and reserved balances of accounts. The total
// issuance always equals the sum of every balance.
package currency

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/log"
	"github.com/stakecore/stakecore/staking/reverts"
	"github.com/stakecore/stakecore/state"
	"github.com/stakecore/stakecore/store"
)

var logger = log.WithContext("pkg", "currency")

var (
	slotAccounts = core.BytesToBytes32([]byte(("accounts")))
	slotIssuance = core.BytesToBytes32([]byte(("total-issuance")))
	slotBurned   = core.BytesToBytes32([]byte(("total-burned")))
)

type account struct {
	Free     uint64
	Reserved uint64
}

func (a *account) isEmpty() bool {
	return a.Free == 0 && a.Reserved == 0
}

// Config configures the ledger.
type Config struct {
	// ExistentialDeposit is the smallest balance a new account is created with.
	ExistentialDeposit uint64
	// Treasury receives burned value. Burned value leaves the issuance when zero.
	Treasury core.Address
}

// Ledger implements the balances stake is reserved in.
type Ledger struct {
	cfg      Config
	accounts *store.Mapping[core.Address, *account]
	issuance *store.Uint256
	burned   *store.Uint256
}

// New creates a ledger storing its records under addr.
func New(addr core.Address, st *state.State, cfg Config) *Ledger {
	sctx := store.NewContext(addr, st)
	return &Ledger{
		cfg:      cfg,
		accounts: store.NewMapping[core.Address, *account](sctx, slotAccounts),
		issuance: store.NewUint256(sctx, slotIssuance),
		burned:   store.NewUint256(sctx, slotBurned),
	}
}

func (l *Ledger) get(acc core.Address) (*account, error) {
	a, err := l.accounts.Get(acc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}
	if a == nil {
		a = &account{}
	}
	return a, nil
}

func (l *Ledger) set(acc core.Address, a *account) error {
	if a.isEmpty() {
		l.accounts.Delete(acc)
		return nil
	}
	return errors.Wrap(l.accounts.Set(acc, a), "failed to set account")
}

func (l *Ledger) update(acc core.Address, fn func(a *account) error) error {
	a, err := l.get(acc)
	if err != nil {
		return err
	}
	if err := fn(a); err != nil {
		return err
	}
	return l.set(acc, a)
}

// Exists reports whether acc holds any balance.
func (l *Ledger) Exists(acc core.Address) (bool, error) {
	return l.accounts.Exists(acc)
}

// Balance returns the free and reserved balance of acc.
func (l *Ledger) Balance(acc core.Address) (free, reserved uint64, err error) {
	a, err := l.get(acc)
	if err != nil {
		return 0, 0, err
	}
	return a.Free, a.Reserved, nil
}

func (l *Ledger) FreeBalance(acc core.Address) (uint64, error) {
	a, err := l.get(acc)
	if err != nil {
		return 0, err
	}
	return a.Free, nil
}

func (l *Ledger) ReservedBalance(acc core.Address) (uint64, error) {
	a, err := l.get(acc)
	if err != nil {
		return 0, err
	}
	return a.Reserved, nil
}

func (l *Ledger) MinimumBalance() uint64 {
	return l.cfg.ExistentialDeposit
}

// Issuance returns the sum of every balance.
func (l *Ledger) Issuance() (*uint256.Int, error) {
	return l.issuance.Get()
}

// Burned returns the value burned without a treasury.
func (l *Ledger) Burned() (*uint256.Int, error) {
	return l.burned.Get()
}

// Reserve moves amount of the free balance of acc to its reserved balance.
func (l *Ledger) Reserve(acc core.Address, amount uint64) error {
	return l.update(acc, func(a *account) error {
		if a.Free < amount {
			return reverts.Newf(reverts.KindInsufficientFunds, "free balance %d below %d", a.Free, amount)
		}
		a.Free -= amount
		a.Reserved += amount
		return nil
	})
}

// Unreserve moves up to amount of the reserved balance of acc back to free
// balance and returns the part that was not reserved.
func (l *Ledger) Unreserve(acc core.Address, amount uint64) (uint64, error) {
	var missing uint64
	err := l.update(acc, func(a *account) error {
		actual := min(a.Reserved, amount)
		free, ok := core.CheckedAdd(a.Free, actual)
		if !ok {
			return reverts.New(reverts.KindInvalidArgument, "free balance overflow")
		}
		a.Reserved -= actual
		a.Free = free
		missing = amount - actual
		return nil
	})
	return missing, err
}

// SlashReserved removes up to amount from the reserved balance of acc.
func (l *Ledger) SlashReserved(acc core.Address, amount uint64) (slashed, missing uint64, err error) {
	err = l.update(acc, func(a *account) error {
		slashed = min(a.Reserved, amount)
		a.Reserved -= slashed
		missing = amount - slashed
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	if err := l.issuance.Sub(slashed); err != nil {
		return 0, 0, errors.Wrap(err, "failed to reduce issuance")
	}
	return slashed, missing, nil
}

// Transfer moves amount of free balance from one account to another.
func (l *Ledger) Transfer(from, to core.Address, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}
	if err := l.update(from, func(a *account) error {
		if a.Free < amount {
			return reverts.Newf(reverts.KindInsufficientFunds, "free balance %d below %d", a.Free, amount)
		}
		a.Free -= amount
		return nil
	}); err != nil {
		return err
	}
	return l.credit(to, amount)
}

func (l *Ledger) credit(acc core.Address, amount uint64) error {
	return l.update(acc, func(a *account) error {
		free, ok := core.CheckedAdd(a.Free, amount)
		if !ok {
			return reverts.New(reverts.KindInvalidArgument, "free balance overflow")
		}
		a.Free = free
		return nil
	})
}

func (l *Ledger) mint(acc core.Address, amount uint64) error {
	if err := l.credit(acc, amount); err != nil {
		return err
	}
	return errors.Wrap(l.issuance.Add(amount), "failed to increase issuance")
}

// DepositIntoExisting mints amount into an account that already exists.
func (l *Ledger) DepositIntoExisting(acc core.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	exists, err := l.Exists(acc)
	if err != nil {
		return err
	}
	if !exists {
		return reverts.Newf(reverts.KindNotFound, "account %s does not exist", acc)
	}
	return l.mint(acc, amount)
}

// DepositCreating mints amount into acc, creating it when amount reaches the
// existential deposit. A smaller deposit to a new account is dropped.
func (l *Ledger) DepositCreating(acc core.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	exists, err := l.Exists(acc)
	if err != nil {
		return err
	}
	if !exists && amount < l.cfg.ExistentialDeposit {
		logger.Debug("deposit below existential deposit dropped", "account", acc, "amount", amount)
		return nil
	}
	return l.mint(acc, amount)
}

// Burn routes amount that already left its owner to the treasury, or out of
// the issuance when no treasury is configured.
func (l *Ledger) Burn(amount uint64) error {
	if amount == 0 {
		return nil
	}
	if !l.cfg.Treasury.IsZero() {
		return l.mint(l.cfg.Treasury, amount)
	}
	logger.Debug("burned", "amount", amount)
	return errors.Wrap(l.burned.Add(amount), "failed to record burned value")
}

// Endow mints a genesis balance into acc.
func (l *Ledger) Endow(acc core.Address, amount uint64) error {
	return l.mint(acc, amount)
}
