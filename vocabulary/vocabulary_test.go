package vocabulary

import "testing"

func TestVocabularyLookup(t *testing.T) {
	v, err := New([][]byte{[]byte("cat"), []byte("car"), []byte("dog")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if id, ok := v.TokenID([]byte("car")); !ok || id != 1 {
		t.Errorf("expected \"car\" to be token 1, got %d, %v", id, ok)
	}
	if _, ok := v.TokenID([]byte("cow")); ok {
		t.Error("expected \"cow\" to not be a token")
	}
	starters := v.TokensStartingWith('c')
	if len(starters) != 2 {
		t.Errorf("expected 2 tokens starting with 'c', got %d", len(starters))
	}
}

func TestVocabularyRejectsZeroLengthToken(t *testing.T) {
	_, err := New([][]byte{[]byte("cat"), {}})
	if err == nil {
		t.Fatal("expected a zero-length token to be rejected at construction")
	}
}

func TestTrieSharedPrefix(t *testing.T) {
	v, err := New([][]byte{[]byte("cat"), []byte("car"), []byte("dog")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	root := v.Trie().Root()
	c := root.Child('c')
	if c == nil {
		t.Fatal("expected a 'c' child at the root")
	}
	a := c.Child('a')
	if a == nil {
		t.Fatal("expected a 'c'->'a' child")
	}
	if a.Child('t') == nil || a.Child('r') == nil {
		t.Error("expected \"cat\" and \"car\" to share the \"ca\" prefix node")
	}
	if a.TokenEnds {
		t.Error("\"ca\" is not itself a token")
	}
}
