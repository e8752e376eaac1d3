// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"

	"github.com/davecgh/go-spew/spew"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/stakecore/stakecore/api/types"
	"github.com/stakecore/stakecore/builtin"
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/node"
)

type stateDump struct {
	GenesisID     core.Bytes32
	Session       uint32
	Selected      []core.Address
	Params        *types.Params
	Totals        types.Totals
	Invulnerables []core.Address
	Validators    []*types.Validator
	Nominators    []*types.Nominator
}

func dumpAction(ctx *cli.Context) error {
	if _, err := initLogger(ctx); err != nil {
		return err
	}
	gen, err := loadGenesis(ctx)
	if err != nil {
		return err
	}
	n, _, closeNode, err := openNode(ctx, gen, node.Options{})
	if err != nil {
		return err
	}
	defer closeNode()

	dump, err := collectDump(n)
	if err != nil {
		return err
	}

	cfg := spew.ConfigState{
		Indent:                  "    ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}
	cfg.Fdump(os.Stdout, dump)
	return nil
}

func collectDump(n *node.Node) (*stateDump, error) {
	dump := &stateDump{GenesisID: n.GenesisID()}
	err := n.View(func(e *builtin.Engine) (err error) {
		s := e.Staker
		if dump.Session, err = s.CurrentSession(); err != nil {
			return err
		}
		if dump.Selected, err = s.Selected(dump.Session); err != nil {
			return err
		}
		params, err := s.Params()
		if err != nil {
			return err
		}
		dump.Params = types.ConvertParams(params)
		if dump.Totals.Locked, dump.Totals.Slashed, dump.Totals.Rewarded, err = s.Totals(); err != nil {
			return err
		}
		if dump.Invulnerables, err = s.Invulnerables(); err != nil {
			return err
		}

		ids, err := s.ValidatorIDs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			v, err := s.Validator(id)
			if err != nil {
				return err
			}
			if v != nil {
				dump.Validators = append(dump.Validators, types.ConvertValidator(v))
			}
		}
		if ids, err = s.NominatorIDs(); err != nil {
			return err
		}
		for _, id := range ids {
			nom, err := s.Nominator(id)
			if err != nil {
				return err
			}
			if nom != nil {
				dump.Nominators = append(dump.Nominators, types.ConvertNominator(nom))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dump, nil
}
