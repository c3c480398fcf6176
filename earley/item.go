// Package earley implements a byte-at-a-time Earley recognizer over
// [grammar.Grammar], with Leo's right-recursion optimization so that deep
// right-recursive completions (list/repetition rules) cost O(1) amortized
// per byte instead of O(n). This is the engine's acceptance oracle: it
// answers "is this prefix still derivable", which [vocabulary]/[cache]
// turn into a whole-vocabulary allowed-token mask.
package earley

import (
	"fmt"

	"github.com/Dan-wanna-M/kbnf/grammar"
	"github.com/Dan-wanna-M/kbnf/matcher"
	"github.com/Dan-wanna-M/kbnf/symbol"
)

// Item is a dotted production: nonterminal NT's Alt-th alternative, with
// the dot at position Dot, derived starting at column Start. When Dot
// points at a terminal-like symbol, Sub holds that symbol's in-progress
// matcher.Substate; Sub is nil whenever the dot sits before a plain
// Nonterminal or at the end of the alternative (Dot == len(alt)).
type Item struct {
	NT    symbol.NonterminalID
	Alt   int
	Dot   int
	Start int
	Sub   matcher.Substate
}

func (it Item) alt(g *grammar.Grammar) []symbol.Symbol {
	return g.Rule(it.NT).Alternatives[it.Alt]
}

// complete reports whether the dot has reached the end of the
// alternative, i.e. NT has been fully derived from Start to the current
// column.
func (it Item) complete(g *grammar.Grammar) bool {
	return it.Dot >= len(it.alt(g))
}

// next returns the symbol immediately after the dot. Must not be called
// on a complete item.
func (it Item) next(g *grammar.Grammar) symbol.Symbol {
	return it.alt(g)[it.Dot]
}

// symbolicKey identifies an item ignoring its Substate, used to
// deduplicate items that have no match in progress (freshly predicted or
// freshly completed items always start any terminal-like scan from the
// same initial substate, so Substate carries no extra information at
// that moment).
type symbolicKey struct {
	nt    symbol.NonterminalID
	alt   int
	dot   int
	start int
}

func (it Item) symbolicKey() symbolicKey {
	return symbolicKey{it.NT, it.Alt, it.Dot, it.Start}
}

// completedKey identifies a completed derivation of a nonterminal from a
// given origin, irrespective of which alternative produced it; this is
// the granularity the Complete step and Leo items operate at, since a
// completer advancing an earlier item doesn't care which alternative of
// NT matched.
type completedKey struct {
	nt    symbol.NonterminalID
	start int
}

func (it Item) completedKey() completedKey {
	return completedKey{it.NT, it.Start}
}

func (it Item) String() string {
	return fmt.Sprintf("[%d -> alt%d @%d, start=%d]", it.NT, it.Alt, it.Dot, it.Start)
}
