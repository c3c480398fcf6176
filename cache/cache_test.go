package cache

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPrefixCacheComputesOnce(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	var calls int
	var mu sync.Mutex
	compute := func() (Verdict, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return Verdict{Accepted: true}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrCompute(42, []byte("ab"), compute)
			if assert.NoError(t, err) {
				assert.True(t, v.Accepted)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls, "expected compute to run exactly once")
	assert.Equal(t, 1, c.Len())
}

func TestTokenPrefixCacheDistinctPrefixes(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	v1, err := c.GetOrCompute(1, []byte("a"), func() (Verdict, error) { return Verdict{Accepted: true}, nil })
	require.NoError(t, err)
	v2, err := c.GetOrCompute(1, []byte("b"), func() (Verdict, error) { return Verdict{Accepted: false}, nil })
	require.NoError(t, err)

	assert.True(t, v1.Accepted)
	assert.False(t, v2.Accepted)
	assert.Equal(t, 2, c.Len())
}

func TestTokenPrefixCacheSamePrefixDistinctFingerprints(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	v1, err := c.GetOrCompute(1, []byte("a"), func() (Verdict, error) { return Verdict{Accepted: true}, nil })
	require.NoError(t, err)
	v2, err := c.GetOrCompute(2, []byte("a"), func() (Verdict, error) { return Verdict{Accepted: false}, nil })
	require.NoError(t, err)

	assert.True(t, v1.Accepted)
	assert.False(t, v2.Accepted)
	assert.Equal(t, 2, c.Len(), "same prefix under a different fingerprint must not collide")
}

func TestTokenPrefixCacheReusesSharedPrefix(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	var calls int
	var mu sync.Mutex
	count := func() func() (Verdict, error) {
		return func() (Verdict, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return Verdict{Accepted: true}, nil
		}
	}

	// Two tokens sharing byte prefix "ca" (e.g. "cat" and "car") each
	// consult the same (fingerprint, "ca") entry once it's populated.
	_, err = c.GetOrCompute(7, []byte("c"), count())
	require.NoError(t, err)
	_, err = c.GetOrCompute(7, []byte("ca"), count())
	require.NoError(t, err)
	_, err = c.GetOrCompute(7, []byte("ca"), count())
	require.NoError(t, err)

	assert.Equal(t, 2, calls, "expected the shared prefix \"ca\" to be computed only once")
}

func TestMaskApplyToLogits(t *testing.T) {
	m := NewMask(3)
	m.Set(1)
	logits := []float32{1, 2, 3}
	require.NoError(t, m.ApplyToLogits(logits))

	assert.Equal(t, float32(2), logits[1], "expected allowed logit untouched")
	assert.True(t, math.IsInf(float64(logits[0]), -1), "expected disallowed logit to be -Inf")
	assert.Equal(t, 1, m.Count())
}

func TestMaskApplyToLogitsLengthMismatch(t *testing.T) {
	m := NewMask(3)
	err := m.ApplyToLogits([]float32{1, 2})
	assert.Error(t, err)
}
