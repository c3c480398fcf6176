package earley

import "github.com/Dan-wanna-M/kbnf/symbol"

// Clone deep-copies the chart so the original can keep accepting bytes
// while the clone is explored independently — the engine uses this to
// try a candidate token's bytes without disturbing the chart it will
// roll back to on rejection.
func (c *Chart) Clone() *Chart {
	nc := &Chart{
		g:       c.g,
		columns: make([]*column, len(c.columns)),
		postdot: make(map[postdotKey]*postdotEntry, len(c.postdot)),
		leo:     make(map[completedKey]completedKey, len(c.leo)),
	}
	for k, v := range c.leo {
		nc.leo[k] = v
	}
	for k, v := range c.postdot {
		items := append([]Item(nil), v.items...)
		nc.postdot[k] = &postdotEntry{items: items}
	}
	for i, col := range c.columns {
		nc.columns[i] = col.clone()
	}
	return nc
}

func (col *column) clone() *column {
	nc := &column{
		items:     append([]Item(nil), col.items...),
		scanItems: append([]Item(nil), col.scanItems...),
		seen:      make(map[symbolicKey]bool, len(col.seen)),
		predicted: make(map[symbol.NonterminalID]bool, len(col.predicted)),
		completed: make(map[completedKey]bool, len(col.completed)),
	}
	for k, v := range col.seen {
		nc.seen[k] = v
	}
	for k, v := range col.predicted {
		nc.predicted[k] = v
	}
	for k, v := range col.completed {
		nc.completed[k] = v
	}
	return nc
}
