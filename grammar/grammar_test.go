package grammar

import (
	"testing"

	"github.com/Dan-wanna-M/kbnf/symbol"
)

func buildSimpleGreeting(t *testing.T) *Grammar {
	t.Helper()
	b := NewBuilder()
	s := b.Nonterminal("s")
	b.SetStart("s")
	b.AddAlternative(s, b.Terminal("hi"), b.Terminal("!"))
	b.AddAlternative(s, b.Terminal("hi"), b.Terminal("?"))
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestBuildResolvesStartAndAlternatives(t *testing.T) {
	g := buildSimpleGreeting(t)

	id, ok := g.NonterminalByName("s")
	if !ok || id != g.Start() {
		t.Fatalf("expected \"s\" to resolve to the start nonterminal, got id=%v ok=%v start=%v", id, ok, g.Start())
	}
	if g.NumNonterminals() != 1 {
		t.Fatalf("expected 1 nonterminal, got %d", g.NumNonterminals())
	}
	rule := g.Rule(id)
	if len(rule.Alternatives) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(rule.Alternatives))
	}
}

func TestBuildRejectsMissingStart(t *testing.T) {
	b := NewBuilder()
	s := b.Nonterminal("s")
	b.AddAlternative(s, b.Terminal("x"))
	if _, err := b.Build(); err == nil {
		t.Fatal("expected Build to fail without SetStart")
	}
}

func TestBuildRejectsNonterminalWithNoAlternatives(t *testing.T) {
	b := NewBuilder()
	b.Nonterminal("s")
	b.SetStart("s")
	if _, err := b.Build(); err == nil {
		t.Fatal("expected Build to fail for a nonterminal with zero alternatives")
	}
}

func TestIsNullable(t *testing.T) {
	b := NewBuilder()
	s := b.Nonterminal("s")
	b.SetStart("s")
	b.AddAlternative(s) // empty alternative: s derives ""
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !g.IsNullable(g.Start()) {
		t.Fatal("expected start nonterminal with an empty alternative to be nullable")
	}
}

func TestIsNullableThroughNonterminalChain(t *testing.T) {
	b := NewBuilder()
	a := b.Nonterminal("a")
	s := b.Nonterminal("s")
	b.SetStart("s")
	b.AddAlternative(a)
	b.AddAlternative(s, symbol.N(a))
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !g.IsNullable(s) {
		t.Fatal("expected s to be nullable transitively through a")
	}
}

func TestFirstBytesOfTerminal(t *testing.T) {
	b := NewBuilder()
	s := b.Nonterminal("s")
	b.SetStart("s")
	hi := b.Terminal("hi")
	b.AddAlternative(s, hi)
	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	fb := g.FirstBytes(hi)
	if !fb.Contains('h') {
		t.Fatal("expected first-byte set of \"hi\" to contain 'h'")
	}
	if fb.Contains('x') {
		t.Fatal("expected first-byte set of \"hi\" to exclude 'x'")
	}
}

func TestExceptRejectsNonterminalLikeOf(t *testing.T) {
	b := NewBuilder()
	s := b.Nonterminal("s")
	b.SetStart("s")
	if _, err := b.Except(symbol.N(s), "x"); err == nil {
		t.Fatal("expected Except to reject a nonterminal of-symbol")
	}
}

func TestRepeatRejectsInvertedBounds(t *testing.T) {
	b := NewBuilder()
	s := b.Nonterminal("s")
	b.SetStart("s")
	b.AddAlternative(s, b.Terminal("x"))
	if _, err := b.Repeat(b.Terminal("x"), 3, 1); err == nil {
		t.Fatal("expected Repeat to reject lo > hi")
	}
}
