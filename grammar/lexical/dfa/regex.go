package dfa

import "regexp/syntax"

// CompileRegex parses pattern with Go's regexp/syntax (the same engine
// behind package regexp) and lowers it to a byte-level DFA. Operators
// outside what embedded terminals need (anchors, word boundaries) are
// rejected by compileRegexToByteTree rather than silently ignored;
// capture groups, named or not, are treated as plain grouping.
func CompileRegex(pattern string) (*TransitionTable, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, err
	}
	tree, err := compileRegexToByteTree(re)
	if err != nil {
		return nil, err
	}
	symTab := genSymbolTable(tree)
	dfa := GenDFA(tree, symTab)
	return GenTransitionTable(dfa)
}
