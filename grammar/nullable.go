package grammar

import "github.com/Dan-wanna-M/kbnf/symbol"

// computeNullable runs the standard fixpoint over g.rules: repeatedly mark
// a nonterminal nullable if it has some alternative whose every symbol is
// nullable, until a pass adds nothing new. Terminal-like symbols are
// nullable only in the degenerate cases noted on symbolNullable.
func computeNullable(g *Grammar) error {
	g.nullable = make([]bool, len(g.rules))
	for {
		changed := false
		for id := range g.rules {
			if g.nullable[id] {
				continue
			}
			for _, alt := range g.rules[id].Alternatives {
				if altNullable(g, alt) {
					g.nullable[id] = true
					changed = true
					break
				}
			}
		}
		if !changed {
			break
		}
	}
	return nil
}

func altNullable(g *Grammar, alt []symbol.Symbol) bool {
	for _, s := range alt {
		if !symbolNullable(g, s) {
			return false
		}
	}
	return true
}

// symbolNullable reports whether sym can match the empty byte string.
// Nonterminals defer to the fixpoint table; terminal-like symbols are
// nullable only when their underlying language contains "": an empty
// literal, a regex whose start state already accepts, a repetition with a
// zero lower bound, or an exception whose base is nullable and whose
// excluded set does not itself exclude the empty string.
func symbolNullable(g *Grammar, sym symbol.Symbol) bool {
	switch sym.Kind {
	case symbol.KindNonterminal:
		return g.nullable[sym.Nonterminal]
	case symbol.KindTerminal:
		return len(g.terminals[sym.Terminal]) == 0
	case symbol.KindRegex:
		tab := g.regexes[sym.Regex]
		return tab.IsAccepting(tab.InitialStateID)
	case symbol.KindRepetition:
		if sym.Lo > 0 {
			return false
		}
		return true
	case symbol.KindException:
		if !symbolNullable(g, *sym.RepeatOf) {
			return false
		}
		tab := g.excepted[sym.Excepted]
		return !tab.IsAccepting(tab.InitialStateID)
	default:
		return false
	}
}
