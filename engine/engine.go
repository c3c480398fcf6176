// Package engine drives constrained token-by-token generation: it keeps
// one live [earley.Chart] per grammar instance, computes the set of
// vocabulary tokens that chart currently permits, and advances the chart
// once a caller commits one of those tokens. It is the Go counterpart of
// the original engine's EngineLike trait, reshaped into a single
// concrete type since Go favors a small concrete API over a trait object
// here (there is only ever one recognizer implementation to swap in).
package engine

import (
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/Dan-wanna-M/kbnf/cache"
	kerr "github.com/Dan-wanna-M/kbnf/error"
	"github.com/Dan-wanna-M/kbnf/earley"
	"github.com/Dan-wanna-M/kbnf/grammar"
	"github.com/Dan-wanna-M/kbnf/vocabulary"
)

// Engine is not safe for concurrent use by multiple goroutines; callers
// exploring several candidate continuations concurrently should Clone it
// per branch. The token-prefix cache underneath is shared and is safe for
// concurrent use on its own.
type Engine struct {
	id    string
	g     *grammar.Grammar
	vocab *vocabulary.Vocabulary
	chart *earley.Chart

	cache  *cache.TokenPrefixCache
	logger hclog.Logger

	mask      *cache.Mask
	maskValid bool
}

// ID returns the engine instance's unique identifier, included on every
// log line it emits so a caller running many engines concurrently (one
// per in-flight generation) can correlate log output back to the
// generation it came from.
func (e *Engine) ID() string { return e.id }

// New builds an Engine over g and vocab, seeded at the grammar's start
// state. Returns a GrammarUnsatisfiable error if the grammar cannot even
// accept the empty prefix going forward (no byte continues it and it
// never completes).
func New(g *grammar.Grammar, vocab *vocabulary.Vocabulary, cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	c := cfg.Cache
	if c == nil {
		var err error
		c, err = cache.New(cfg.CacheSize)
		if err != nil {
			return nil, kerr.Wrap(kerr.Internal, "constructing token-prefix cache", err)
		}
	}
	e := &Engine{id: uuid.NewString(), g: g, vocab: vocab, cache: c, logger: cfg.Logger}
	e.Reset()
	if !e.chart.CanContinue() && !e.chart.IsAccepting() {
		return nil, kerr.New(kerr.GrammarUnsatisfiable, "grammar's start nonterminal accepts no string")
	}
	return e, nil
}

// Reset returns the engine to the grammar's start state, discarding
// everything generated so far. The token-prefix cache is kept: its
// entries are keyed on chart shape, not on engine identity, and a fresh
// chart will ordinarily hit it immediately.
func (e *Engine) Reset() {
	e.chart = earley.New(e.g)
	e.mask = nil
	e.maskValid = false
	e.logger.Debug("engine reset to grammar start", "engine_id", e.id)
}

// IsFinished reports whether the chart can no longer be extended by any
// byte, i.e. generation must stop here.
func (e *Engine) IsFinished() bool {
	return !e.chart.CanContinue()
}

// Vocab returns the vocabulary this engine was built with.
func (e *Engine) Vocab() *vocabulary.Vocabulary { return e.vocab }

// AllowedMask returns the mask from the most recent ComputeAllowedMask
// call, or nil if none has been computed since the last Reset/accepted
// token.
func (e *Engine) AllowedMask() *cache.Mask {
	if !e.maskValid {
		return nil
	}
	return e.mask
}

// ComputeAllowedMask computes (or returns the already-cached) mask of
// every vocabulary token the engine currently permits as the next token.
// The result is cached on the engine until the next state change; the
// per-byte-prefix work behind it is additionally cached in the shared
// token-prefix cache (keyed by chart fingerprint and trie-node byte
// prefix), so a structurally identical chart reached via a different
// generation, or a different token sharing an already-walked prefix,
// never repeats that prefix's Earley work.
func (e *Engine) ComputeAllowedMask() (*cache.Mask, error) {
	if e.maskValid {
		return e.mask, nil
	}
	if e.IsFinished() {
		e.mask = cache.NewMask(e.vocab.Size())
		e.maskValid = true
		return e.mask, nil
	}

	fp := e.chart.Fingerprint()
	mask := cache.NewMask(e.vocab.Size())
	prefix := make([]byte, 0, 16)
	if err := e.walkVocabulary(fp, e.vocab.Trie().Root(), e.chart, prefix, mask); err != nil {
		return nil, kerr.Wrap(kerr.Internal, "computing allowed token mask", err)
	}
	e.mask = mask
	e.maskValid = true
	e.logger.Trace("computed allowed mask", "engine_id", e.id, "fingerprint", fp, "allowed_tokens", mask.Count())
	return mask, nil
}

// walkVocabulary is depth-first over the vocabulary trie starting at
// node, with chart already advanced to prefix (relative to the chart
// fingerprinted as rootFP). Every (rootFP, prefix) pair consulted here
// goes through the shared token-prefix cache: a hit resumes straight from
// the cached verdict's chart (or prunes the subtree on a cached
// rejection) without re-deriving that prefix's Earley work, whether the
// hit came from an earlier sibling token in this same walk or from a
// wholly different generation that reached the same chart fingerprint.
func (e *Engine) walkVocabulary(rootFP uint64, node *vocabulary.TrieNode, c *earley.Chart, prefix []byte, mask *cache.Mask) error {
	if node.TokenEnds {
		mask.Set(node.TokenID)
	}
	if !c.CanContinue() {
		return nil
	}
	allowed := c.AllowedBytes()
	for b, child := range node.Children {
		if !allowed.Contains(b) {
			continue
		}
		childPrefix := append(prefix, b)
		verdict, err := e.cache.GetOrCompute(rootFP, childPrefix, func() (cache.Verdict, error) {
			branch := c.Clone()
			branch.Step(b)
			if !branch.CanContinue() && !branch.IsAccepting() {
				return cache.Verdict{}, nil
			}
			return cache.Verdict{Accepted: true, Chart: branch}, nil
		})
		if err != nil {
			return err
		}
		if !verdict.Accepted {
			continue
		}
		if err := e.walkVocabulary(rootFP, child, verdict.Chart, childPrefix, mask); err != nil {
			return err
		}
	}
	return nil
}

// TryAcceptToken reports whether tokenID is permitted as the next token
// in the engine's current state. It never mutates the engine: a caller
// comparing several candidate tokens (top-k sampling, beam search) can
// call this once per candidate and CommitToken only the one it settles
// on, instead of Clone-ing the engine per candidate just to probe it.
func (e *Engine) TryAcceptToken(tokenID uint32) (bool, error) {
	if _, ok := e.vocab.Token(tokenID); !ok {
		return false, kerr.New(kerr.InvalidInput, "token id not in vocabulary").WithToken(tokenID)
	}
	mask, err := e.ComputeAllowedMask()
	if err != nil {
		return false, err
	}
	return mask.Test(tokenID), nil
}

// CommitToken permanently advances the chart through tokenID's bytes,
// provided tokenID is permitted in the engine's current state (see
// TryAcceptToken). On rejection the engine's state is left unchanged.
func (e *Engine) CommitToken(tokenID uint32) (AcceptResult, error) {
	tokenBytes, ok := e.vocab.Token(tokenID)
	if !ok {
		return 0, kerr.New(kerr.InvalidInput, "token id not in vocabulary").WithToken(tokenID)
	}
	allowed, err := e.TryAcceptToken(tokenID)
	if err != nil {
		return 0, err
	}
	if !allowed {
		return 0, kerr.New(kerr.Rejected, "token is not permitted by the grammar in this state").WithToken(tokenID)
	}

	for _, b := range tokenBytes {
		e.chart.Step(b)
	}
	e.mask = nil
	e.maskValid = false
	e.logger.Debug("committed token", "engine_id", e.id, "token_id", tokenID, "bytes", len(tokenBytes))

	if e.IsFinished() {
		return Finished, nil
	}
	return Ongoing, nil
}

// MaskLogits zeroes out (sets to -Inf) every logit whose token the
// grammar currently disallows, computing the mask first if necessary.
func (e *Engine) MaskLogits(logits []float32) error {
	mask, err := e.ComputeAllowedMask()
	if err != nil {
		return err
	}
	return mask.ApplyToLogits(logits)
}

// UpdateLogits is CommitToken followed by MaskLogits against the mask for
// the new state, for callers that want the post-acceptance mask applied
// in one call instead of two.
func (e *Engine) UpdateLogits(tokenID uint32, logits []float32) (AcceptResult, error) {
	result, err := e.CommitToken(tokenID)
	if err != nil {
		return 0, err
	}
	if err := e.MaskLogits(logits); err != nil {
		return 0, err
	}
	return result, nil
}

// Clone returns an independent Engine sharing this one's grammar,
// vocabulary and token-prefix cache but with its own chart, so a caller
// can explore a candidate continuation (e.g. one branch of a beam search)
// without disturbing the original.
func (e *Engine) Clone() *Engine {
	nc := *e
	nc.id = uuid.NewString()
	nc.chart = e.chart.Clone()
	return &nc
}
