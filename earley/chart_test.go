package earley

import (
	"testing"

	"github.com/Dan-wanna-M/kbnf/grammar"
	"github.com/Dan-wanna-M/kbnf/symbol"
)

func feedString(c *Chart, s string) {
	for i := 0; i < len(s); i++ {
		c.Step(s[i])
	}
}

func TestChartLiteral(t *testing.T) {
	b := grammar.NewBuilder()
	b.SetStart("s")
	lit := b.Terminal("hello")
	b.AddAlternative(0, lit)
	g, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	c := New(g)
	feedString(c, "hello")
	if !c.IsAccepting() {
		t.Error("expected \"hello\" to be accepted")
	}
}

func TestChartAlternation(t *testing.T) {
	b := grammar.NewBuilder()
	s := b.Nonterminal("s")
	b.SetStart("s")
	cat := b.Terminal("cat")
	dog := b.Terminal("dog")
	b.AddAlternative(s, cat)
	b.AddAlternative(s, dog)
	g, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	for _, in := range []string{"cat", "dog"} {
		c := New(g)
		feedString(c, in)
		if !c.IsAccepting() {
			t.Errorf("expected %q to be accepted", in)
		}
	}

	c := New(g)
	feedString(c, "cow")
	if c.IsAccepting() {
		t.Error("expected \"cow\" to be rejected")
	}
}

// TestChartRightRecursion exercises the Leo shortcut: S -> 'a' S | ''
// accepts any run of 'a's, and each Step should do O(1) extra bookkeeping
// regardless of how many 'a's came before.
func TestChartRightRecursion(t *testing.T) {
	b := grammar.NewBuilder()
	s := b.Nonterminal("s")
	b.SetStart("s")
	a := b.Terminal("a")
	b.AddAlternative(s, a, symbol.N(s))
	b.AddAlternative(s) // empty alternative
	g, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	c := New(g)
	if !c.IsAccepting() {
		t.Error("expected the empty string to be accepted")
	}
	for i := 0; i < 50; i++ {
		c.Step('a')
		if !c.IsAccepting() {
			t.Errorf("expected %d a's to be accepted", i+1)
		}
	}
}

// TestChartNullableRepetition exercises spec.md's "grammar whose start
// rule is nullable" boundary behavior through a terminal-like symbol
// rather than a nonterminal: S -> 'x'{0,3} must accept the empty string
// and every rep count up to 3, and reject once it overruns hi.
func TestChartNullableRepetition(t *testing.T) {
	b := grammar.NewBuilder()
	b.SetStart("s")
	x := b.Terminal("x")
	rep, err := b.Repeat(x, 0, 3)
	if err != nil {
		t.Fatalf("repeat: %v", err)
	}
	b.AddAlternative(0, rep)
	g, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	c := New(g)
	if !c.IsAccepting() {
		t.Error("expected the empty string to be accepted by a {0,3} repetition")
	}
	for i := 1; i <= 3; i++ {
		c.Step('x')
		if !c.IsAccepting() {
			t.Errorf("expected %d x's to be accepted", i)
		}
	}
	c.Step('x')
	if c.IsAccepting() {
		t.Error("expected 4 x's to be rejected (above hi)")
	}
}

func TestChartNestedNonterminal(t *testing.T) {
	b := grammar.NewBuilder()
	s := b.Nonterminal("s")
	b.SetStart("s")
	digits := b.Nonterminal("digits")
	digit, err := b.Regex("[0-9]")
	if err != nil {
		t.Fatalf("regex: %v", err)
	}
	b.AddAlternative(digits, digit)
	b.AddAlternative(digits, digit, symbol.N(digits))
	open := b.Terminal("(")
	closeP := b.Terminal(")")
	b.AddAlternative(s, open, symbol.N(digits), closeP)
	g, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	c := New(g)
	feedString(c, "(123)")
	if !c.IsAccepting() {
		t.Error("expected \"(123)\" to be accepted")
	}
}
