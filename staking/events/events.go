// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"github.com/stakecore/stakecore/core"
)

type Type string

const (
	JoinedValidatorCandidates Type = "JoinedValidatorCandidates"
	ValidatorWentOffline      Type = "ValidatorWentOffline"
	ValidatorBackOnline       Type = "ValidatorBackOnline"
	ValidatorScheduledExit    Type = "ValidatorScheduledExit"
	ValidatorLeft             Type = "ValidatorLeft"
	ValidatorBondedMore       Type = "ValidatorBondedMore"
	ValidatorBondedLess       Type = "ValidatorBondedLess"
	ValidatorChosen           Type = "ValidatorChosen"
	ValidatorDeactivated      Type = "ValidatorDeactivated"
	Nomination                Type = "Nomination"
	NominationIncreased       Type = "NominationIncreased"
	NominationDecreased       Type = "NominationDecreased"
	NominationRevoked         Type = "NominationRevoked"
	NominationMoved           Type = "NominationMoved"
	NominatorLeft             Type = "NominatorLeft"
	Withdrawn                 Type = "Withdrawn"
	NewSession                Type = "NewSession"
	Rewarded                  Type = "Rewarded"
	Slashed                   Type = "Slashed"
	SlashReported             Type = "SlashReported"
	SlashDeferred             Type = "SlashDeferred"
	SlashCancelled            Type = "SlashCancelled"
	ReporterRewarded          Type = "ReporterRewarded"
	TotalSelectedSet          Type = "TotalSelectedSet"
	CommissionSet             Type = "CommissionSet"
	InvulnerablesSet          Type = "InvulnerablesSet"
	SessionRewardFunded       Type = "SessionRewardFunded"
)

// Event records one state change of the engine. Before and After carry
// the totals the change moved between, where that applies.
type Event struct {
	Type      Type
	Session   uint32
	Account   core.Address
	Validator core.Address
	Amount    uint64
	Before    uint64
	After     uint64
}

// Journal buffers events of the running call. A reverted call truncates
// the journal back to the mark taken before it started.
type Journal struct {
	events []Event
}

func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) Emit(ev Event) {
	j.events = append(j.events, ev)
}

// Len returns the number of buffered events, usable as a truncate mark.
func (j *Journal) Len() int {
	return len(j.events)
}

func (j *Journal) Truncate(mark int) {
	if mark < 0 {
		mark = 0
	}
	if mark < len(j.events) {
		j.events = j.events[:mark]
	}
}

// Events returns a copy of the buffered events.
func (j *Journal) Events() []Event {
	out := make([]Event, len(j.events))
	copy(out, j.events)
	return out
}

// Drain returns the buffered events and empties the journal.
func (j *Journal) Drain() []Event {
	out := j.events
	j.events = nil
	return out
}
