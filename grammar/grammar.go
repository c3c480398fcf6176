// Package grammar holds the compiled, immutable form of a BNF-like
// grammar: interned terminals, embedded-regex and exception DFAs, and
// nonterminal rules as slices of alternatives, each alternative a flat
// slice of [symbol.Symbol]. A Grammar is built once by [GrammarBuilder]
// and then shared read-only across every concurrent [earley] parse, so
// nothing on this type is mutated after Build returns.
package grammar

import (
	"fmt"

	"github.com/Dan-wanna-M/kbnf/grammar/lexical/dfa"
	"github.com/Dan-wanna-M/kbnf/symbol"
)

// FirstByteSet is a 256-bit membership set used to prune candidate next
// bytes before ever touching a DFA: if a byte is not in a terminal-like
// symbol's first-byte set, that symbol cannot possibly start with it
// (see earley.Chart.AllowedBytes).
type FirstByteSet [4]uint64

func (s *FirstByteSet) add(b byte) {
	s[b/64] |= 1 << (b % 64)
}

// Contains reports whether b can legally begin a string accepted by
// whatever symbol this set was computed for.
func (s FirstByteSet) Contains(b byte) bool {
	return s[b/64]&(1<<(b%64)) != 0
}

func (s *FirstByteSet) merge(other FirstByteSet) {
	for i := range s {
		s[i] |= other[i]
	}
}

// Merge ORs other's bytes into s in place, for callers outside this
// package that accumulate a set across several symbols (e.g. the Earley
// scanner unioning every pending scan item's first-byte set).
func (s *FirstByteSet) Merge(other FirstByteSet) { s.merge(other) }

// Rule is one nonterminal's right-hand side: a set of alternatives, each
// a sequence of symbols. The Earley predictor adds one item per
// alternative when it predicts this nonterminal.
type Rule struct {
	Name         string
	Alternatives [][]symbol.Symbol
}

// Grammar is the compiled form returned by [GrammarBuilder.Build]. Ids
// (symbol.TerminalID, symbol.NonterminalID, ...) are indices into the
// slices below; callers never see them in nonterminal name form except
// through Name/NonterminalID.
type Grammar struct {
	// id distinguishes this Grammar from any other compiled grammar
	// sharing a [cache.TokenPrefixCache]: every key that cache stores is
	// computed from a Chart, and every Chart belongs to exactly one
	// Grammar, so folding id into Chart.Fingerprint keeps two unrelated
	// grammars that happen to reach structurally identical charts from
	// ever colliding in one shared cache.
	id uint64

	start symbol.NonterminalID

	rules []Rule

	nameToID map[string]symbol.NonterminalID

	terminals    [][]byte
	terminalDFA  []*dfa.TransitionTable

	regexes       []*dfa.TransitionTable
	regexPatterns []string

	excepted     []*dfa.TransitionTable
	exceptedOf   []symbol.Symbol

	terminalFirstByte  []FirstByteSet
	regexFirstByte     []FirstByteSet
	exceptedFirstByte  []FirstByteSet

	// nullable[id] is true when Rule id can derive the empty string; used
	// by the Earley predictor to add zero-width completions eagerly.
	nullable []bool
}

// ID returns a value identifying this compiled Grammar instance, distinct
// from any other Grammar built in the same process. It exists so a
// [cache.TokenPrefixCache] shared across engines built over different
// grammars can tell their charts apart even when two charts otherwise
// fingerprint identically.
func (g *Grammar) ID() uint64 { return g.id }

// Start returns the grammar's start nonterminal.
func (g *Grammar) Start() symbol.NonterminalID { return g.start }

// Rule returns the compiled rule for a nonterminal id. Panics on an out
// of range id, since ids only ever come from this Grammar's own builder
// or from parsing its own charts.
func (g *Grammar) Rule(id symbol.NonterminalID) *Rule { return &g.rules[id] }

// NonterminalByName looks up a nonterminal id by the name it was added
// with, for callers (CLI, tests) that only have the textual name.
func (g *Grammar) NonterminalByName(name string) (symbol.NonterminalID, bool) {
	id, ok := g.nameToID[name]
	return id, ok
}

// NumNonterminals reports how many rules the grammar has, for sizing
// per-nonterminal tables (e.g. the Earley chart's Leo-item memo).
func (g *Grammar) NumNonterminals() int { return len(g.rules) }

// Terminal returns the interned byte string for a TerminalID.
func (g *Grammar) Terminal(id symbol.TerminalID) []byte { return g.terminals[id] }

// Regex returns the compiled DFA for a RegexID.
func (g *Grammar) Regex(id symbol.RegexID) *dfa.TransitionTable { return g.regexes[id] }

// RegexPattern returns the source pattern a RegexID was compiled from,
// for diagnostics.
func (g *Grammar) RegexPattern(id symbol.RegexID) string { return g.regexPatterns[id] }

// Excepted returns the compiled DFA for the excluded-string set of an
// ExceptedID, plus the symbol the exception is taken against.
func (g *Grammar) Excepted(id symbol.ExceptedID) (*dfa.TransitionTable, symbol.Symbol) {
	return g.excepted[id], g.exceptedOf[id]
}

// IsNullable reports whether a nonterminal can derive the empty string.
func (g *Grammar) IsNullable(id symbol.NonterminalID) bool { return g.nullable[id] }

// FirstBytes returns the set of bytes that can legally begin a match of
// sym, used by earley.Chart.AllowedBytes to rule out bytes no freshly
// predicted scan can start with. Only meaningful for terminal-like symbols
// (symbol.IsTerminalLike); calling it on a plain nonterminal panics.
func (g *Grammar) FirstBytes(sym symbol.Symbol) FirstByteSet {
	switch sym.Kind {
	case symbol.KindTerminal:
		return g.terminalFirstByte[sym.Terminal]
	case symbol.KindRegex:
		return g.regexFirstByte[sym.Regex]
	case symbol.KindException:
		return g.exceptedFirstByte[sym.Excepted]
	case symbol.KindRepetition:
		return g.FirstBytes(*sym.RepeatOf)
	default:
		panic(fmt.Sprintf("FirstBytes called on non-terminal-like symbol %v", sym))
	}
}

func firstBytesFromDFA(tab *dfa.TransitionTable) FirstByteSet {
	var set FirstByteSet
	for b := 0; b < 256; b++ {
		if tab.Next(tab.InitialStateID, byte(b)) != dfa.StateIDInvalid {
			set.add(byte(b))
		}
	}
	return set
}

// exceptedFirstBytes computes the first-byte set for of-symbol MINUS the
// excepted DFA's language: every byte that can start a match of of-symbol
// is a candidate, unless every one of of-symbol's continuations from that
// byte is itself forced into the excepted set (which first-byte pruning
// alone cannot decide in general, so this is a conservative superset,
// same as the teacher's byte-level only pruning — the matcher makes the
// exact decision byte-by-byte).
func exceptedFirstBytes(ofBytes FirstByteSet) FirstByteSet {
	return ofBytes
}
