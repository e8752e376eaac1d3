// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/stakecore/stakecore/builtin"
	"github.com/stakecore/stakecore/core"
	"github.com/stakecore/stakecore/staking"
	"github.com/stakecore/stakecore/staking/reverts"
)

// Offence is a scripted misbehaviour, reported when session ends.
type Offence struct {
	Session   uint32         `yaml:"session"`
	Offender  core.Address   `yaml:"offender"`
	Fraction  core.Perbill   `yaml:"fraction"`
	Reporters []core.Address `yaml:"reporters,omitempty"`
	// SlashSession is the session the offence happened in, Session when unset.
	SlashSession *uint32 `yaml:"slashSession,omitempty"`
}

// SimOptions configures the simulator.
type SimOptions struct {
	BlocksPerSession int
	// one block in UncleRate names an uncle, 0 disables uncles
	UncleRate int
	Seed      uint64
	Offences  []Offence
}

// Simulator drives sessions with synthetic block authorship.
type Simulator struct {
	node     *Node
	opts     SimOptions
	rnd      *rand.Rand
	offences map[uint32][]Offence
}

func NewSimulator(n *Node, opts SimOptions) *Simulator {
	offences := make(map[uint32][]Offence)
	for _, o := range opts.Offences {
		offences[o.Session] = append(offences[o.Session], o)
	}
	return &Simulator{
		node:     n,
		opts:     opts,
		rnd:      rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x5eed)),
		offences: offences,
	}
}

// Step authors the blocks of the current session, reports its offences and
// rotates. It returns the new session.
func (s *Simulator) Step(ctx context.Context) (uint32, error) {
	var next uint32
	err := s.node.Update(ctx, func(e *builtin.Engine) error {
		current, err := e.Session.Current()
		if err != nil {
			return err
		}
		if err := s.author(e); err != nil {
			return err
		}
		if err := s.report(e, current); err != nil {
			return err
		}
		var selected []core.Address
		if next, selected, err = e.Rotate(); err != nil {
			return err
		}
		if err := e.Staker.CheckInvariants(); err != nil {
			logger.Error("invariants broken", "session", next, "error", err)
			return err
		}
		staked, err := e.Staker.Staked(next)
		if err != nil {
			return err
		}
		logger.Info("session rotated", "session", next, "selected", len(selected), "staked", staked)
		return nil
	})
	return next, err
}

func (s *Simulator) author(e *builtin.Engine) error {
	validators, err := e.Session.Validators()
	if err != nil {
		return err
	}
	var active []core.Address
	for _, v := range validators {
		disabled, err := e.Session.IsDisabled(v)
		if err != nil {
			return err
		}
		if !disabled {
			active = append(active, v)
		}
	}
	if len(active) == 0 {
		logger.Warn("no validator to author blocks")
		return nil
	}

	for i := 0; i < s.opts.BlocksPerSession; i++ {
		author := active[s.rnd.IntN(len(active))]
		if err := e.Staker.NoteAuthor(author); err != nil {
			return errors.Wrap(err, "note author")
		}
		if s.opts.UncleRate > 0 && len(active) > 1 && s.rnd.IntN(s.opts.UncleRate) == 0 {
			uncle := active[s.rnd.IntN(len(active))]
			if uncle != author {
				if err := e.Staker.NoteUncle(author, uncle); err != nil {
					return errors.Wrap(err, "note uncle")
				}
			}
		}
		metricBlocksAuthored().Add(1)
	}
	return nil
}

// report hands the offences scripted for session to the staker, one call
// per slash session. Rejected offences are logged and skipped.
func (s *Simulator) report(e *builtin.Engine, session uint32) error {
	bySession := make(map[uint32][]Offence)
	var order []uint32
	for _, o := range s.offences[session] {
		slashSession := session
		if o.SlashSession != nil {
			slashSession = *o.SlashSession
		}
		if _, ok := bySession[slashSession]; !ok {
			order = append(order, slashSession)
		}
		bySession[slashSession] = append(bySession[slashSession], o)
	}

	for _, slashSession := range order {
		scripted := bySession[slashSession]
		offences := make([]staking.Offence, 0, len(scripted))
		fractions := make([]core.Perbill, 0, len(scripted))
		for _, o := range scripted {
			exposure, err := e.Session.Exposure(slashSession, o.Offender)
			if err != nil {
				return err
			}
			offences = append(offences, staking.Offence{
				Offender:  o.Offender,
				Exposure:  exposure,
				Reporters: o.Reporters,
			})
			fractions = append(fractions, o.Fraction)
		}
		if err := e.Staker.OnOffence(offences, fractions, slashSession); err != nil {
			if !reverts.IsRevertErr(err) {
				return err
			}
			metricOffences().AddWithLabel(int64(len(offences)), map[string]string{"outcome": "rejected"})
			logger.Warn("offences rejected", "session", slashSession, "error", err)
			continue
		}
		metricOffences().AddWithLabel(int64(len(offences)), map[string]string{"outcome": "reported"})
		logger.Info("offences reported", "session", slashSession, "count", len(offences))
	}
	return nil
}

// Run steps through sessions, calling progress after each one.
func (s *Simulator) Run(ctx context.Context, sessions int, progress func(session uint32)) error {
	for range sessions {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		next, err := s.Step(ctx)
		if err != nil {
			return err
		}
		if progress != nil {
			progress(next)
		}
	}
	return nil
}
