// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slashing

import (
	"slices"
)

// Spans partitions the sessions of an account into slashing spans. Within
// a span only the largest slash is applied. A new span starts whenever the
// account is slashed in its current span.
type Spans struct {
	SpanIndex        uint32   // index of the current span
	LastStart        uint32   // first session of the current span
	LastNonzeroSlash uint32   // latest session with a nonzero slash
	Prior            []uint32 // lengths of prior spans, most recent first
}

// SpanRecord tracks the largest slash of a span and the reward paid for it.
type SpanRecord struct {
	Slashed uint64
	PaidOut uint64
}

type span struct {
	index  uint32
	start  uint32
	length uint32
	open   bool // the current span has no length yet
}

func (s span) contains(session uint32) bool {
	return s.start <= session && (s.open || s.start+s.length > session)
}

// NewSpans creates spans whose first span starts at windowStart.
func NewSpans(windowStart uint32) *Spans {
	return &Spans{LastStart: windowStart}
}

// EndSpan closes the current span at now and opens the next one. It
// returns false if the span already started after now.
func (s *Spans) EndSpan(now uint32) bool {
	next := now + 1
	if next <= s.LastStart {
		return false
	}
	s.Prior = slices.Insert(s.Prior, 0, next-s.LastStart)
	s.LastStart = next
	s.SpanIndex++
	return true
}

// iter walks spans from the current one backwards.
func (s *Spans) iter(yield func(span) bool) {
	start, index := s.LastStart, s.SpanIndex
	if !yield(span{index: index, start: start, open: true}) {
		return
	}
	for _, length := range s.Prior {
		start -= length
		index--
		if !yield(span{index: index, start: start, length: length}) {
			return
		}
	}
}

// SpanOf returns the index of the span containing session.
func (s *Spans) SpanOf(session uint32) (uint32, bool) {
	var (
		index uint32
		found bool
	)
	s.iter(func(sp span) bool {
		if sp.contains(session) {
			index, found = sp.index, true
			return false
		}
		return true
	})
	return index, found
}

// Prune drops the prior spans that ended before windowStart. It returns the
// range [from, to) of span indexes removed.
func (s *Spans) Prune(windowStart uint32) (uint32, uint32, bool) {
	earliest := s.SpanIndex - uint32(len(s.Prior))

	cut, pos := -1, 0
	s.iter(func(sp span) bool {
		if !sp.open && sp.start+sp.length <= windowStart {
			cut = pos - 1
			return false
		}
		pos++
		return true
	})

	var from, to uint32
	pruned := cut >= 0
	if pruned {
		s.Prior = s.Prior[:cut]
		from, to = earliest, s.SpanIndex-uint32(len(s.Prior))
	}
	s.LastStart = max(s.LastStart, windowStart)
	return from, to, pruned
}
