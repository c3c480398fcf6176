package grammar

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/Dan-wanna-M/kbnf/grammar/lexical/dfa"
	"github.com/Dan-wanna-M/kbnf/symbol"
)

// GrammarBuilder assembles a Grammar programmatically. Textual grammar
// source (an EBNF-like DSL) is out of scope for this module — callers
// build grammars from their own IR (a tokenizer-aware JSON schema, a
// parsed BNF file, etc.) and hand the symbols straight to this builder —
// so unlike the teacher's AST-driven GrammarBuilder, this one exposes
// plain Go methods instead of parsing a spec.RootNode.
type GrammarBuilder struct {
	nameToID map[string]symbol.NonterminalID
	names    []string
	alts     [][][]symbol.Symbol

	start symbol.NonterminalID
	haveStart bool

	terminalToID map[string]symbol.TerminalID
	terminals    [][]byte

	regexes       []*dfa.TransitionTable
	regexPatterns []string

	excepted   []*dfa.TransitionTable
	exceptedOf []symbol.Symbol

	err error
}

// NewBuilder returns an empty GrammarBuilder.
func NewBuilder() *GrammarBuilder {
	return &GrammarBuilder{
		nameToID:     map[string]symbol.NonterminalID{},
		terminalToID: map[string]symbol.TerminalID{},
	}
}

func (b *GrammarBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Nonterminal interns name, creating it with an empty rule if this is the
// first reference, and returns its id. Call AddAlternative one or more
// times afterward to give it a body; a nonterminal with zero alternatives
// at Build time is a builder error, since it can never be predicted into
// anything.
func (b *GrammarBuilder) Nonterminal(name string) symbol.NonterminalID {
	if id, ok := b.nameToID[name]; ok {
		return id
	}
	id := symbol.NonterminalID(len(b.names))
	b.nameToID[name] = id
	b.names = append(b.names, name)
	b.alts = append(b.alts, nil)
	return id
}

// SetStart designates name as the grammar's start nonterminal, interning
// it if necessary.
func (b *GrammarBuilder) SetStart(name string) {
	b.start = b.Nonterminal(name)
	b.haveStart = true
}

// AddAlternative appends one right-hand-side alternative to nonterminal
// id. An empty seq means id derives the empty string directly.
func (b *GrammarBuilder) AddAlternative(id symbol.NonterminalID, seq ...symbol.Symbol) {
	if int(id) >= len(b.alts) {
		b.fail(fmt.Errorf("AddAlternative: nonterminal id %d was never created via Nonterminal", id))
		return
	}
	b.alts[id] = append(b.alts[id], append([]symbol.Symbol(nil), seq...))
}

// Terminal interns a literal byte string, returning a symbol.Symbol ready
// to place into an alternative. Equal strings are interned once.
func (b *GrammarBuilder) Terminal(lit string) symbol.Symbol {
	if id, ok := b.terminalToID[lit]; ok {
		return symbol.T(id)
	}
	id := symbol.TerminalID(len(b.terminals))
	b.terminalToID[lit] = id
	b.terminals = append(b.terminals, []byte(lit))
	return symbol.T(id)
}

// Regex compiles pattern (Go regexp/syntax, Perl-ish) into a DFA and
// returns a symbol.Symbol referencing it. Each call compiles a fresh DFA;
// callers that reuse the same pattern across many symbols should cache
// the returned symbol themselves.
func (b *GrammarBuilder) Regex(pattern string) (symbol.Symbol, error) {
	tab, err := dfa.CompileRegex(pattern)
	if err != nil {
		return symbol.Symbol{}, fmt.Errorf("compiling regex %q: %w", pattern, err)
	}
	id := symbol.RegexID(len(b.regexes))
	b.regexes = append(b.regexes, tab)
	b.regexPatterns = append(b.regexPatterns, pattern)
	return symbol.R(id), nil
}

// Except builds a symbol matching of minus the finite set of literal
// strings in excluded: "anything of would accept, except these exact
// strings". of must be a terminal-like symbol (Terminal or Regex); the
// exception is resolved against of's DFA byte-by-byte by the matcher, not
// baked into the excepted DFA itself.
func (b *GrammarBuilder) Except(of symbol.Symbol, excluded ...string) (symbol.Symbol, error) {
	if !of.IsTerminalLike() || of.Kind == symbol.KindException || of.Kind == symbol.KindRepetition {
		return symbol.Symbol{}, fmt.Errorf("Except: of-symbol must be a Terminal or Regex, got %v", of.Kind)
	}
	lits := make([][]byte, len(excluded))
	for i, s := range excluded {
		lits[i] = []byte(s)
	}
	tab, err := dfa.CompileExceptedSet(lits)
	if err != nil {
		return symbol.Symbol{}, fmt.Errorf("compiling excepted set: %w", err)
	}
	id := symbol.ExceptedID(len(b.excepted))
	b.excepted = append(b.excepted, tab)
	b.exceptedOf = append(b.exceptedOf, of)
	return symbol.Except(of, id), nil
}

// Repeat builds a symbol matching of repeated between lo and hi times
// inclusive (hi == 0 means unbounded). of must be a Terminal or Regex, the
// same restriction as Except and for the same reason: the repetition
// counter is driven by the matcher stepping of's own DFA, not by
// re-deriving of through the Earley predictor on every iteration.
func (b *GrammarBuilder) Repeat(of symbol.Symbol, lo, hi uint32) (symbol.Symbol, error) {
	if !of.IsTerminalLike() || of.Kind == symbol.KindException || of.Kind == symbol.KindRepetition {
		return symbol.Symbol{}, fmt.Errorf("Repeat: of-symbol must be a Terminal or Regex, got %v", of.Kind)
	}
	if hi != 0 && lo > hi {
		return symbol.Symbol{}, fmt.Errorf("Repeat: lo (%d) > hi (%d)", lo, hi)
	}
	return symbol.Repeat(of, lo, hi), nil
}

// Build validates and finalizes the grammar: every referenced
// nonterminal must have at least one alternative, and the start
// nonterminal must have been set.
func (b *GrammarBuilder) Build() (*Grammar, error) {
	if b.err != nil {
		return nil, b.err
	}
	if !b.haveStart {
		return nil, fmt.Errorf("grammar has no start nonterminal; call SetStart")
	}
	rules := make([]Rule, len(b.names))
	for i, name := range b.names {
		if len(b.alts[i]) == 0 {
			return nil, fmt.Errorf("nonterminal %q has no alternatives", name)
		}
		rules[i] = Rule{Name: name, Alternatives: b.alts[i]}
	}

	idBytes := uuid.New()
	g := &Grammar{
		id:            binary.LittleEndian.Uint64(idBytes[:8]),
		start:         b.start,
		rules:         rules,
		nameToID:      b.nameToID,
		terminals:     b.terminals,
		regexes:       b.regexes,
		regexPatterns: b.regexPatterns,
		excepted:      b.excepted,
		exceptedOf:    b.exceptedOf,
	}

	g.terminalFirstByte = make([]FirstByteSet, len(b.terminals))
	g.terminalDFA = make([]*dfa.TransitionTable, len(b.terminals))
	for i, lit := range b.terminals {
		if len(lit) > 0 {
			g.terminalFirstByte[i].add(lit[0])
		}
		tab, err := dfa.CompileLiteral(lit)
		if err != nil {
			return nil, fmt.Errorf("compiling terminal %q: %w", lit, err)
		}
		g.terminalDFA[i] = tab
	}
	g.regexFirstByte = make([]FirstByteSet, len(b.regexes))
	for i, tab := range b.regexes {
		g.regexFirstByte[i] = firstBytesFromDFA(tab)
	}
	g.exceptedFirstByte = make([]FirstByteSet, len(b.excepted))
	for i, of := range b.exceptedOf {
		g.exceptedFirstByte[i] = exceptedFirstBytes(g.firstBytesOf(of))
	}

	if err := computeNullable(g); err != nil {
		return nil, err
	}

	return g, nil
}

// firstBytesOf is like Grammar.FirstBytes but usable mid-Build, before
// g.nullable is populated (FirstBytes itself never touches nullable, so
// this is just a visibility convenience for builder.go).
func (g *Grammar) firstBytesOf(sym symbol.Symbol) FirstByteSet {
	return g.FirstBytes(sym)
}
