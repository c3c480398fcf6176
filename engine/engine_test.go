package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan-wanna-M/kbnf/cache"
	"github.com/Dan-wanna-M/kbnf/grammar"
	"github.com/Dan-wanna-M/kbnf/vocabulary"
)

func buildGreeting(t *testing.T) *grammar.Grammar {
	t.Helper()
	b := grammar.NewBuilder()
	s := b.Nonterminal("s")
	b.SetStart("s")
	b.AddAlternative(s, b.Terminal("hi"), b.Terminal("!"))
	b.AddAlternative(s, b.Terminal("hi"), b.Terminal("?"))
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func buildVocab(t *testing.T, toks ...string) *vocabulary.Vocabulary {
	t.Helper()
	raw := make([][]byte, len(toks))
	for i, s := range toks {
		raw[i] = []byte(s)
	}
	v, err := vocabulary.New(raw)
	require.NoError(t, err)
	return v
}

func TestEngineAllowsOnlyGrammaticalContinuations(t *testing.T) {
	g := buildGreeting(t)
	v := buildVocab(t, "hi", "bye", "!", "?", ".")
	e, err := New(g, v, Config{})
	require.NoError(t, err)

	mask, err := e.ComputeAllowedMask()
	require.NoError(t, err)
	hiID, _ := v.TokenID([]byte("hi"))
	byeID, _ := v.TokenID([]byte("bye"))
	assert.True(t, mask.Test(hiID), "expected \"hi\" to be allowed first")
	assert.False(t, mask.Test(byeID), "expected \"bye\" to be disallowed first")

	_, err = e.CommitToken(hiID)
	require.NoError(t, err)

	mask, err = e.ComputeAllowedMask()
	require.NoError(t, err)
	bangID, _ := v.TokenID([]byte("!"))
	qID, _ := v.TokenID([]byte("?"))
	dotID, _ := v.TokenID([]byte("."))
	assert.True(t, mask.Test(bangID), "expected \"!\" to be allowed after \"hi\"")
	assert.True(t, mask.Test(qID), "expected \"?\" to be allowed after \"hi\"")
	assert.False(t, mask.Test(dotID), "expected \".\" to remain disallowed")

	result, err := e.CommitToken(bangID)
	require.NoError(t, err)
	assert.Equal(t, Finished, result)
	assert.True(t, e.IsFinished())
}

func TestEngineRejectsUngrammaticalToken(t *testing.T) {
	g := buildGreeting(t)
	v := buildVocab(t, "hi", "bye", "!", "?")
	e, err := New(g, v, Config{})
	require.NoError(t, err)

	byeID, _ := v.TokenID([]byte("bye"))
	_, err = e.CommitToken(byeID)
	assert.Error(t, err, "expected \"bye\" to be rejected as the first token")
}

func TestEngineRejectLeavesStateUnchanged(t *testing.T) {
	g := buildGreeting(t)
	v := buildVocab(t, "hi", "bye", "!", "?")
	e, err := New(g, v, Config{})
	require.NoError(t, err)

	before, err := e.ComputeAllowedMask()
	require.NoError(t, err)

	byeID, _ := v.TokenID([]byte("bye"))
	_, err = e.CommitToken(byeID)
	require.Error(t, err)

	after, err := e.ComputeAllowedMask()
	require.NoError(t, err)
	assert.Equal(t, before.Count(), after.Count())
}

func TestEngineCloneIsIndependent(t *testing.T) {
	g := buildGreeting(t)
	v := buildVocab(t, "hi", "!", "?")
	e, err := New(g, v, Config{})
	require.NoError(t, err)

	hiID, _ := v.TokenID([]byte("hi"))
	_, err = e.CommitToken(hiID)
	require.NoError(t, err)

	clone := e.Clone()
	bangID, _ := v.TokenID([]byte("!"))
	_, err = clone.CommitToken(bangID)
	require.NoError(t, err)

	assert.True(t, clone.IsFinished())
	assert.False(t, e.IsFinished(), "expected original engine to be unaffected by the clone's progress")
}

func TestEngineTryAcceptTokenDoesNotMutate(t *testing.T) {
	g := buildGreeting(t)
	v := buildVocab(t, "hi", "bye", "!", "?")
	e, err := New(g, v, Config{})
	require.NoError(t, err)

	hiID, _ := v.TokenID([]byte("hi"))
	byeID, _ := v.TokenID([]byte("bye"))

	allowed, err := e.TryAcceptToken(hiID)
	require.NoError(t, err)
	assert.True(t, allowed)

	rejected, err := e.TryAcceptToken(byeID)
	require.NoError(t, err)
	assert.False(t, rejected)

	// Neither probe above should have advanced the chart: "hi" must still
	// be exactly what TryAcceptToken reports allowed, and CommitToken must
	// still succeed on it afterwards.
	allowedAgain, err := e.TryAcceptToken(hiID)
	require.NoError(t, err)
	assert.True(t, allowedAgain)
	assert.False(t, e.IsFinished())

	_, err = e.CommitToken(hiID)
	require.NoError(t, err)
}

func TestEngineSharedCacheAcrossGrammars(t *testing.T) {
	shared, err := cache.New(64)
	require.NoError(t, err)

	gA := buildGreeting(t)
	gB := buildGreeting(t)
	vA := buildVocab(t, "hi", "!", "?")
	vB := buildVocab(t, "hi", "!", "?")

	eA, err := New(gA, vA, Config{Cache: shared})
	require.NoError(t, err)
	eB, err := New(gB, vB, Config{Cache: shared})
	require.NoError(t, err)

	maskA, err := eA.ComputeAllowedMask()
	require.NoError(t, err)
	maskB, err := eB.ComputeAllowedMask()
	require.NoError(t, err)

	hiA, _ := vA.TokenID([]byte("hi"))
	hiB, _ := vB.TokenID([]byte("hi"))
	assert.True(t, maskA.Test(hiA))
	assert.True(t, maskB.Test(hiB))
	assert.True(t, shared.Len() > 0, "expected distinct grammars to populate the shared cache independently")
}

func TestEngineReset(t *testing.T) {
	g := buildGreeting(t)
	v := buildVocab(t, "hi", "!", "?")
	e, err := New(g, v, Config{})
	require.NoError(t, err)

	hiID, _ := v.TokenID([]byte("hi"))
	_, err = e.CommitToken(hiID)
	require.NoError(t, err)

	e.Reset()
	assert.False(t, e.IsFinished())
	mask, err := e.ComputeAllowedMask()
	require.NoError(t, err)
	assert.True(t, mask.Test(hiID), "expected a reset engine to allow \"hi\" again")
}
