package dfa

import "testing"

func runDFA(t *testing.T, tab *TransitionTable, input string) bool {
	t.Helper()
	s := tab.InitialStateID
	for i := 0; i < len(input); i++ {
		s = tab.Next(s, input[i])
		if s == StateIDInvalid {
			return false
		}
	}
	return tab.IsAccepting(s)
}

func TestCompileRegex(t *testing.T) {
	tests := []struct {
		caption string
		pattern string
		accept  []string
		reject  []string
	}{
		{
			caption: "literal",
			pattern: "abc",
			accept:  []string{"abc"},
			reject:  []string{"ab", "abcd", ""},
		},
		{
			caption: "alternation",
			pattern: "cat|dog",
			accept:  []string{"cat", "dog"},
			reject:  []string{"ca", "do", "catdog"},
		},
		{
			caption: "star",
			pattern: "ab*",
			accept:  []string{"a", "ab", "abbb"},
			reject:  []string{"b", "ba"},
		},
		{
			caption: "plus",
			pattern: "ab+",
			accept:  []string{"ab", "abbb"},
			reject:  []string{"a", "b"},
		},
		{
			caption: "bounded repeat",
			pattern: "a{2,3}",
			accept:  []string{"aa", "aaa"},
			reject:  []string{"a", "aaaa", ""},
		},
		{
			caption: "char class",
			pattern: "[0-9]+",
			accept:  []string{"0", "123", "9876543210"},
			reject:  []string{"", "a", "1a"},
		},
		{
			caption: "unicode char class",
			pattern: "[あ-ん]+",
			accept:  []string{"あ", "あん"},
			reject:  []string{"a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			tab, err := CompileRegex(tt.pattern)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, s := range tt.accept {
				if !runDFA(t, tab, s) {
					t.Errorf("expected %q to be accepted by /%s/", s, tt.pattern)
				}
			}
			for _, s := range tt.reject {
				if runDFA(t, tab, s) {
					t.Errorf("expected %q to be rejected by /%s/", s, tt.pattern)
				}
			}
		})
	}
}

func TestCompileLiteral(t *testing.T) {
	tab, err := CompileLiteral([]byte("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !runDFA(t, tab, "hello") {
		t.Error("expected \"hello\" to be accepted")
	}
	if runDFA(t, tab, "hell") {
		t.Error("expected \"hell\" to be rejected")
	}
	if runDFA(t, tab, "helloo") {
		t.Error("expected \"helloo\" to be rejected")
	}
}

func TestCompileExceptedSet(t *testing.T) {
	tab, err := CompileExceptedSet([][]byte{[]byte("foo"), []byte("bar")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !runDFA(t, tab, "foo") {
		t.Error("expected \"foo\" to be accepted")
	}
	if !runDFA(t, tab, "bar") {
		t.Error("expected \"bar\" to be accepted")
	}
	if runDFA(t, tab, "baz") {
		t.Error("expected \"baz\" to be rejected")
	}

	if _, err := CompileExceptedSet(nil); err == nil {
		t.Error("expected an error for an empty excepted set")
	}
}
