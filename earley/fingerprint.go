package earley

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/Dan-wanna-M/kbnf/symbol"
)

// Fingerprint summarizes everything about the chart that matters to future
// bytes: the current column's pending scans. Older columns only matter
// through postdot/leo entries keyed at or before the current column, and
// those are never consulted again once a column is sealed (Step never
// revisits a past column), so they contribute nothing a cache lookup needs.
//
// Start offsets are folded in relative to the current column rather than
// as absolute positions, so two chart states that are structurally
// identical but reached at different generation offsets (e.g. the same
// right-recursive list, three items deep, starting at byte 10 vs byte 40)
// hash identically and share one [cache] entry instead of each earning
// its own.
//
// The owning grammar's own identity is mixed in too: a [cache] shared by
// engines built over different grammars must never let one grammar's
// chart collide with an unrelated grammar's structurally similar chart.
func (c *Chart) Fingerprint() uint64 {
	colIdx := len(c.columns) - 1
	col := c.columns[colIdx]

	type entry struct {
		nt     symbol.NonterminalID
		alt    int
		dot    int
		rel    int
		subFP  uint64
		hasSub bool
	}
	entries := make([]entry, 0, len(col.scanItems))
	for _, it := range col.scanItems {
		e := entry{nt: it.NT, alt: it.Alt, dot: it.Dot, rel: colIdx - it.Start}
		if it.Sub != nil {
			e.hasSub = true
			e.subFP = it.Sub.Fingerprint()
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.nt != b.nt {
			return a.nt < b.nt
		}
		if a.alt != b.alt {
			return a.alt < b.alt
		}
		if a.dot != b.dot {
			return a.dot < b.dot
		}
		if a.rel != b.rel {
			return a.rel < b.rel
		}
		return a.subFP < b.subFP
	})

	buf := make([]byte, 0, 40*len(entries)+16)
	var tmp [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}
	put(c.g.ID())
	put(uint64(len(entries)))
	for _, e := range entries {
		put(uint64(e.nt))
		put(uint64(e.alt))
		put(uint64(e.dot))
		put(uint64(e.rel))
		hasSub := uint64(0)
		if e.hasSub {
			hasSub = 1
		}
		put(hasSub)
		put(e.subFP)
	}
	return xxhash.Sum64(buf)
}
