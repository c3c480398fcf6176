// Package symbol defines the tagged-variant grammar symbols that make up a
// [Rule]'s alternatives: terminals, embedded regexes, nonterminals, and the
// two derived constructs (exceptions and bounded repetitions) that the
// engine treats as DFA-driven terminals rather than ordinary recursive
// nonterminals.
package symbol

import "fmt"

// Kind tags which variant a Symbol holds. It mirrors the symbolKind idea
// from a classic LR symbol table, but a Symbol here also carries the
// payload (ids, counts) instead of being a bare interned number.
type Kind uint8

const (
	// KindTerminal is a literal byte string, interned as a TerminalID.
	KindTerminal Kind = iota
	// KindRegex is an embedded regular-expression terminal, backed by a DFA.
	KindRegex
	// KindNonterminal refers to another rule by id.
	KindNonterminal
	// KindException is a Terminal or Regex symbol minus a finite union of
	// excluded strings; a nonterminal cannot be the base.
	KindException
	// KindRepetition is a Terminal or Regex symbol repeated an inclusive
	// [Lo, Hi] number of times (Hi == 0 means no upper bound); a
	// nonterminal cannot be the repeated unit.
	KindRepetition
)

func (k Kind) String() string {
	switch k {
	case KindTerminal:
		return "terminal"
	case KindRegex:
		return "regex"
	case KindNonterminal:
		return "nonterminal"
	case KindException:
		return "exception"
	case KindRepetition:
		return "repetition"
	default:
		return "invalid"
	}
}

// TerminalID interns a literal byte string in a Grammar.
type TerminalID uint32

// RegexID interns a compiled regex DFA in a Grammar.
type RegexID uint32

// NonterminalID interns a rule (and its name) in a Grammar.
type NonterminalID uint32

// ExceptedID interns the DFA of an exception symbol's excluded strings;
// the matcher steps it alongside the base symbol's DFA.
type ExceptedID uint32

// NoRepetitionUnit is a sentinel Lo/Hi value meaning "not a repetition
// bound"; nothing in this module sets it. Repetitions built by
// GrammarBuilder.Repeat carry Lo <= Hi, or Hi == 0 for no upper bound.
const NoRepetitionUnit = ^uint32(0)

// Symbol is one element of a production alternative. Exactly the fields
// relevant to its Kind are meaningful; the zero value of the others is
// ignored. Kept as a flat struct (instead of an interface) so alternatives
// can be stored contiguously and compared by value.
type Symbol struct {
	Kind Kind

	Terminal    TerminalID
	Regex       RegexID
	Nonterminal NonterminalID
	Excepted    ExceptedID

	// RepeatOf is the DFA-representable symbol being repeated or excepted
	// from; valid for KindException and KindRepetition.
	RepeatOf *Symbol
	Lo, Hi   uint32
}

// T builds a literal terminal symbol.
func T(id TerminalID) Symbol { return Symbol{Kind: KindTerminal, Terminal: id} }

// R builds an embedded regex symbol.
func R(id RegexID) Symbol { return Symbol{Kind: KindRegex, Regex: id} }

// N builds a nonterminal reference symbol.
func N(id NonterminalID) Symbol { return Symbol{Kind: KindNonterminal, Nonterminal: id} }

// Except builds a set-difference symbol: of-symbol minus the strings baked
// into excepted's trie.
func Except(of Symbol, excepted ExceptedID) Symbol {
	return Symbol{Kind: KindException, RepeatOf: &of, Excepted: excepted}
}

// Repeat builds a bounded-repetition symbol: of-symbol repeated [lo, hi]
// times inclusive.
func Repeat(of Symbol, lo, hi uint32) Symbol {
	return Symbol{Kind: KindRepetition, RepeatOf: &of, Lo: lo, Hi: hi}
}

func (s Symbol) String() string {
	switch s.Kind {
	case KindTerminal:
		return fmt.Sprintf("terminal[%d]", s.Terminal)
	case KindRegex:
		return fmt.Sprintf("regex[%d]", s.Regex)
	case KindNonterminal:
		return fmt.Sprintf("nonterminal[%d]", s.Nonterminal)
	case KindException:
		return fmt.Sprintf("except(%v)[%d]", *s.RepeatOf, s.Excepted)
	case KindRepetition:
		return fmt.Sprintf("%v{%d,%d}", *s.RepeatOf, s.Lo, s.Hi)
	default:
		return "invalid-symbol"
	}
}

// IsTerminalLike reports whether the dot sits before something the
// terminal matcher advances byte-by-byte, as opposed to a plain
// Nonterminal that the Earley predictor expands.
func (s Symbol) IsTerminalLike() bool {
	return s.Kind != KindNonterminal
}
