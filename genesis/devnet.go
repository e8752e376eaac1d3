// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"

	"github.com/stakecore/stakecore/core"
)

// DevAccount returns the address of a named dev account.
func DevAccount(name string) core.Address {
	return core.BytesToAddress([]byte(name))
}

// NewDevnet creates the genesis used when no file is given: five funded
// validators, each nominated by one of five nominators.
func NewDevnet() *Genesis {
	gen := defaults()
	gen.Root = DevAccount("root")
	gen.Params.TotalSelected = 4
	gen.Params.MinValidatorStake = 1000
	gen.Params.MinStakeForSelection = 1000
	gen.Params.MinNominatorStake = 50
	gen.Params.BondedDuration = 4
	gen.Params.SlashDeferDuration = 2
	gen.Params.RewardPerSession = 1000

	for i := 1; i <= 5; i++ {
		v := DevAccount(fmt.Sprintf("validator-%d", i))
		n := DevAccount(fmt.Sprintf("nominator-%d", i))
		gen.Accounts = append(gen.Accounts,
			Account{Address: v, Balance: 1_000_000},
			Account{Address: n, Balance: 1_000_000},
		)
		gen.Validators = append(gen.Validators, Validator{Address: v, Bond: uint64(i) * 1000})
		gen.Nominations = append(gen.Nominations, Nomination{Nominator: n, Validator: v, Amount: 500})
	}
	return gen
}
