package engine

import (
	"github.com/hashicorp/go-hclog"

	"github.com/Dan-wanna-M/kbnf/cache"
)

// Config tunes an Engine's non-grammar behavior: how large its
// token-prefix cache is, whether that cache is private to this Engine or
// shared with others, and where it logs to.
type Config struct {
	// CacheSize bounds how many distinct (chart fingerprint, byte prefix)
	// entries a freshly-built token-prefix cache remembers at once; 0
	// uses a sensible default. Ignored when Cache is set.
	CacheSize int
	// Cache, if set, is used as-is instead of building a new
	// token-prefix cache. Pass the same *cache.TokenPrefixCache to New
	// for engines built over different grammars (or different
	// vocabularies) to let them share cached prefix work; Grammar.ID is
	// folded into every chart fingerprint so the grammars never collide
	// in the shared cache.
	Cache *cache.TokenPrefixCache
	// Logger receives structured trace/debug output for mask computation
	// and token acceptance. nil uses a no-op logger.
	Logger hclog.Logger
}

const defaultCacheSize = 512

// DefaultConfig returns the Config New uses when called with a zero
// Config.
func DefaultConfig() Config {
	return Config{
		CacheSize: defaultCacheSize,
		Logger:    hclog.NewNullLogger(),
	}
}

func (c Config) withDefaults() Config {
	if c.CacheSize <= 0 {
		c.CacheSize = defaultCacheSize
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	return c
}
