package dfa

// This file builds byteTrees directly from byte strings, bypassing
// regexp/syntax entirely, for the two cases where the input is already a
// flat set of byte sequences rather than a pattern: literal terminals and
// the excluded-string set of an exception symbol. Both compile through the
// same GenDFA/GenTransitionTable pipeline as embedded regexes.

// CompileLiteral builds a DFA that accepts exactly one byte string.
func CompileLiteral(lit []byte) (*TransitionTable, error) {
	return compileByteTree(literalToByteTree(lit))
}

// CompileExceptedSet builds a DFA accepting the union of the given byte
// strings, for use as the "excepted" automaton for a KindException symbol
// (the overall exception semantics — of-symbol minus this set — are
// enforced by the matcher, not baked into this DFA).
func CompileExceptedSet(excepted [][]byte) (*TransitionTable, error) {
	var alt byteTree
	for _, lit := range excepted {
		alt = oneOf(alt, literalToByteTree(lit))
	}
	if alt == nil {
		return nil, errEmptyExceptedSet
	}
	return compileByteTree(alt)
}

func literalToByteTree(lit []byte) byteTree {
	var chain byteTree
	for _, b := range lit {
		chain = concat(chain, newRangeSymbolNode(b, b))
	}
	return chain
}

func compileByteTree(body byteTree) (*TransitionTable, error) {
	root := concat(body, newAcceptNode())
	if _, err := positionSymbols(root, symbolPositionMin); err != nil {
		return nil, err
	}
	symTab := genSymbolTable(root)
	dfa := GenDFA(root, symTab)
	return GenTransitionTable(dfa)
}

type exceptedSetError string

func (e exceptedSetError) Error() string { return string(e) }

const errEmptyExceptedSet = exceptedSetError("excepted set must contain at least one string")
