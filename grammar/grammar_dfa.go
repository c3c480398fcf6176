package grammar

import (
	"fmt"

	"github.com/Dan-wanna-M/kbnf/grammar/lexical/dfa"
	"github.com/Dan-wanna-M/kbnf/symbol"
)

// DFAFor returns the byte-level DFA backing a Terminal or Regex symbol, so
// callers that need to step the same way regardless of which kind they
// hold (the matcher package, mainly) don't have to switch on sym.Kind
// themselves. Literal terminals are compiled to a trivial single-path DFA
// once, at Build time, and cached in g.terminalDFA.
func (g *Grammar) DFAFor(sym symbol.Symbol) (*dfa.TransitionTable, error) {
	switch sym.Kind {
	case symbol.KindTerminal:
		return g.terminalDFA[sym.Terminal], nil
	case symbol.KindRegex:
		return g.regexes[sym.Regex], nil
	default:
		return nil, fmt.Errorf("DFAFor: symbol kind %v has no direct DFA representation", sym.Kind)
	}
}
