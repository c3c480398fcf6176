package cache

import (
	"encoding/binary"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Dan-wanna-M/kbnf/earley"
)

// Verdict is the outcome of extending the chart fingerprinted at a given
// key's prefix by one more byte. A cache miss forks a scratch chart,
// steps it, and stores exactly one of these: Accepted carries the
// resulting chart forward (the "delta" a caller needs to keep walking
// without re-deriving the prefix's Earley work), Rejected carries
// nothing because there is nothing further to walk.
type Verdict struct {
	Accepted bool
	Chart    *earley.Chart
}

type key struct {
	fingerprint uint64
	prefix      string
}

// TokenPrefixCache memoizes, for a chart fingerprinted as f, the verdict
// of extending it by each byte prefix a vocabulary trie walk visits. It
// is safe for concurrent use, and is meant to be shared across every
// Engine built over the grammars/vocabularies live in one process:
// concurrent lookups of the same (fingerprint, prefix) pair (e.g. several
// beam-search branches, or two unrelated generations that happen to reach
// the same parser state) collapse into a single computation via
// singleflight, instead of each branch redundantly stepping the chart.
type TokenPrefixCache struct {
	entries *lru.Cache[key, Verdict]
	group   singleflight.Group
}

// New builds a TokenPrefixCache holding up to capacity (fingerprint,
// prefix) entries, evicting least-recently-used entries once full.
func New(capacity int) (*TokenPrefixCache, error) {
	entries, err := lru.New[key, Verdict](capacity)
	if err != nil {
		return nil, err
	}
	return &TokenPrefixCache{entries: entries}, nil
}

// GetOrCompute returns the verdict cached under (fingerprint, prefix),
// computing and storing it via compute if this pair has not been seen
// yet (or was since evicted). prefix is copied into the key immediately,
// so callers are free to reuse its backing array afterwards.
func (c *TokenPrefixCache) GetOrCompute(fingerprint uint64, prefix []byte, compute func() (Verdict, error)) (Verdict, error) {
	k := key{fingerprint: fingerprint, prefix: string(prefix)}
	if v, ok := c.entries.Get(k); ok {
		return v, nil
	}
	groupKey := groupKeyFor(fingerprint, prefix)
	v, err, _ := c.group.Do(groupKey, func() (interface{}, error) {
		if v, ok := c.entries.Get(k); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return Verdict{}, err
		}
		c.entries.Add(k, v)
		return v, nil
	})
	if err != nil {
		return Verdict{}, err
	}
	return v.(Verdict), nil
}

// groupKeyFor builds a singleflight key that packs fingerprint and prefix
// unambiguously: a plain string join could let a crafted prefix collide
// two distinct (fingerprint, prefix) pairs into one in-flight call.
func groupKeyFor(fingerprint uint64, prefix []byte) string {
	buf := make([]byte, 8+len(prefix))
	binary.LittleEndian.PutUint64(buf, fingerprint)
	copy(buf[8:], prefix)
	return string(buf)
}

// Len reports how many (fingerprint, prefix) verdicts are currently
// cached.
func (c *TokenPrefixCache) Len() int { return c.entries.Len() }

// Purge evicts every cached verdict, e.g. after swapping in a different
// grammar that would make stale fingerprints misleading.
func (c *TokenPrefixCache) Purge() { c.entries.Purge() }
