// Package matcher steps the DFA-backed substate of a single Earley item
// whose dot sits before a terminal-like symbol (Terminal, Regex,
// Exception or Repetition). The Earley scanner in package earley advances
// one of these per byte instead of re-deriving the symbol's automaton
// from scratch, which is what lets a single token's bytes be consumed in
// a tight loop rather than re-running prediction at every position.
//
// Every Substate is an immutable value: Step returns a new Substate
// instead of mutating the receiver, so items already in a sealed Earley
// set can share a Substate safely with items still being scanned.
package matcher

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/Dan-wanna-M/kbnf/grammar"
	"github.com/Dan-wanna-M/kbnf/grammar/lexical/dfa"
	"github.com/Dan-wanna-M/kbnf/symbol"
)

// combineFingerprint folds a small number of uint64 fields into one hash,
// via xxhash rather than XOR/shift so that two structurally different
// substates (e.g. a large base state shifted into the same bits an
// excludedDead flag would occupy) don't collide and silently share a
// cache entry they shouldn't.
func combineFingerprint(parts ...uint64) uint64 {
	buf := make([]byte, 8*len(parts))
	for i, p := range parts {
		binary.LittleEndian.PutUint64(buf[i*8:], p)
	}
	return xxhash.Sum64(buf)
}

// Substate is the contract every terminal-like symbol matcher satisfies.
type Substate interface {
	// Step consumes one byte, returning the successor state and whether
	// the byte was legal at all. A false ok means this Substate is
	// entirely dead; the caller discards it rather than keeping it around
	// to fail again.
	Step(b byte) (Substate, bool)
	// IsAccept reports whether the bytes consumed so far form a complete
	// match (the symbol could legally end here).
	IsAccept() bool
	// CanStillAccept reports whether any continuation of further bytes
	// could still reach an accepting state. False lets the scanner prune
	// a branch immediately instead of feeding it bytes that can only ever
	// fail.
	CanStillAccept() bool
	// Fingerprint returns a value that collides only when two Substates
	// of the same concrete kind would behave identically on every future
	// byte. [cache] folds this into the chart-wide fingerprint it keys
	// the token-prefix cache on, so two generations that happen to reach
	// the same automaton state share a cache entry even at different
	// absolute byte offsets.
	Fingerprint() uint64
}

// New builds the initial Substate for sym, ready to consume the first
// byte of a match.
func New(g *grammar.Grammar, sym symbol.Symbol) (Substate, error) {
	switch sym.Kind {
	case symbol.KindTerminal, symbol.KindRegex:
		tab, err := g.DFAFor(sym)
		if err != nil {
			return nil, err
		}
		return newDFAState(tab), nil
	case symbol.KindException:
		return newExceptionState(g, sym)
	case symbol.KindRepetition:
		return newRepetitionState(g, sym)
	default:
		return nil, fmt.Errorf("matcher.New: symbol kind %v is not terminal-like", sym.Kind)
	}
}

// dfaState wraps a plain byte-level DFA: Terminal and Regex symbols need
// nothing more than the current state.
type dfaState struct {
	tab   *dfa.TransitionTable
	state dfa.StateID
}

func newDFAState(tab *dfa.TransitionTable) dfaState {
	return dfaState{tab: tab, state: tab.InitialStateID}
}

func (s dfaState) Step(b byte) (Substate, bool) {
	next := s.tab.Next(s.state, b)
	if next == dfa.StateIDInvalid {
		return s, false
	}
	return dfaState{tab: s.tab, state: next}, true
}

func (s dfaState) IsAccept() bool       { return s.tab.IsAccepting(s.state) }
func (s dfaState) CanStillAccept() bool { return s.state != dfa.StateIDInvalid }
func (s dfaState) Fingerprint() uint64  { return uint64(s.state) }

// exceptionState steps the base symbol's DFA and the excepted set's DFA
// in lockstep; it accepts exactly when the base accepts and the excepted
// automaton does not (i.e. the consumed bytes are not one of the excluded
// strings).
type exceptionState struct {
	base     dfaState
	excluded dfaState
	// excludedDead is set once the excepted DFA runs out of transitions;
	// from then on the excepted side can never accept, so the exception
	// behaves as a plain pass-through of base.
	excludedDead bool
}

func newExceptionState(g *grammar.Grammar, sym symbol.Symbol) (Substate, error) {
	baseTab, err := g.DFAFor(*sym.RepeatOf)
	if err != nil {
		return nil, fmt.Errorf("exception base symbol: %w", err)
	}
	excludedTab, _ := g.Excepted(sym.Excepted)
	return exceptionState{
		base:     newDFAState(baseTab),
		excluded: newDFAState(excludedTab),
	}, nil
}

func (s exceptionState) Step(b byte) (Substate, bool) {
	nb, ok := s.base.Step(b)
	if !ok {
		return s, false
	}
	ns := exceptionState{base: nb.(dfaState), excludedDead: s.excludedDead}
	if !s.excludedDead {
		if ne, ok := s.excluded.Step(b); ok {
			ns.excluded = ne.(dfaState)
		} else {
			ns.excludedDead = true
		}
	}
	return ns, true
}

func (s exceptionState) IsAccept() bool {
	if !s.base.IsAccept() {
		return false
	}
	if s.excludedDead {
		return true
	}
	return !s.excluded.IsAccept()
}

func (s exceptionState) CanStillAccept() bool {
	return s.base.CanStillAccept()
}

func (s exceptionState) Fingerprint() uint64 {
	tail := byte(0)
	if s.excludedDead {
		tail = 1
	}
	return combineFingerprint(s.base.Fingerprint(), s.excluded.Fingerprint(), uint64(tail))
}

// repetitionState tracks every way the bytes consumed so far could be
// split into whole repetitions of the unit symbol, since a single byte
// can simultaneously end one repetition and begin the next (e.g. unit
// "ab" repeated, matching "abab" — after "ab" the state must remain open
// to either stop or continue). Each copy records how many repetitions
// have already completed and the in-progress state of the current one;
// copies are deduplicated by (cappedCount, unit state) every step, so the
// set holds at most one copy per pair: counts are capped at hi, or at lo
// when there is no upper bound.
type repetitionState struct {
	tab      *dfa.TransitionTable
	lo, hi   uint32 // hi == 0 means unbounded
	copies   []repCopy
}

type repCopy struct {
	count uint32
	unit  dfaState
}

func newRepetitionState(g *grammar.Grammar, sym symbol.Symbol) (Substate, error) {
	tab, err := g.DFAFor(*sym.RepeatOf)
	if err != nil {
		return nil, fmt.Errorf("repetition unit symbol: %w", err)
	}
	return repetitionState{
		tab: tab,
		lo:  sym.Lo,
		hi:  sym.Hi,
		copies: []repCopy{
			{count: 0, unit: newDFAState(tab)},
		},
	}, nil
}

func (s repetitionState) cap(count uint32) uint32 {
	if s.hi != 0 && count > s.hi {
		return s.hi
	}
	if s.hi == 0 && count > s.lo {
		return s.lo // beyond lo, further completed reps are all equivalent
	}
	return count
}

func (s repetitionState) Step(b byte) (Substate, bool) {
	type key struct {
		count uint32
		state dfa.StateID
	}
	seen := map[key]bool{}
	var next []repCopy
	add := func(c repCopy) {
		k := key{s.cap(c.count), c.unit.state}
		if seen[k] {
			return
		}
		seen[k] = true
		next = append(next, repCopy{count: k.count, unit: c.unit})
	}

	for _, c := range s.copies {
		if ns, ok := c.unit.Step(b); ok {
			add(repCopy{count: c.count, unit: ns.(dfaState)})
		}
		if c.unit.IsAccept() && (s.hi == 0 || c.count < s.hi) {
			fresh := newDFAState(s.tab)
			if ns, ok := fresh.Step(b); ok {
				add(repCopy{count: c.count + 1, unit: ns.(dfaState)})
			}
		}
	}

	if len(next) == 0 {
		return s, false
	}
	return repetitionState{tab: s.tab, lo: s.lo, hi: s.hi, copies: next}, true
}

// inBounds reports whether total completed repetitions satisfies [lo, hi]
// (hi == 0 meaning unbounded).
func (s repetitionState) inBounds(total uint32) bool {
	if total < s.lo {
		return false
	}
	if s.hi != 0 && total > s.hi {
		return false
	}
	return true
}

func (s repetitionState) IsAccept() bool {
	for _, c := range s.copies {
		// Sitting at the unit's own initial state means no byte of the
		// next repetition has been committed yet: count repetitions
		// already closes the match here if count is in bounds, whether
		// or not the unit itself can match the empty string. Without this
		// branch a symbol like {0,3} of a non-nullable unit could never
		// report itself accepting at zero reps, even though Lo == 0
		// permits stopping immediately.
		if c.unit.state == s.tab.InitialStateID && s.inBounds(c.count) {
			return true
		}
		if c.unit.IsAccept() && s.inBounds(c.count+1) {
			return true
		}
	}
	return false
}

func (s repetitionState) CanStillAccept() bool {
	return len(s.copies) > 0
}

func (s repetitionState) Fingerprint() uint64 {
	// Sort a copy so two repetitionStates holding the same set of
	// (count, unit state) pairs in different construction order still
	// fingerprint identically.
	sorted := append([]repCopy(nil), s.copies...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count < sorted[j].count
		}
		return sorted[i].unit.state < sorted[j].unit.state
	})
	fp := uint64(len(sorted))
	for _, c := range sorted {
		fp = combineFingerprint(fp, uint64(c.count), uint64(c.unit.state))
	}
	return fp
}
