package earley

import (
	"github.com/Dan-wanna-M/kbnf/grammar"
	"github.com/Dan-wanna-M/kbnf/matcher"
	"github.com/Dan-wanna-M/kbnf/symbol"
)

type postdotKey struct {
	nt     symbol.NonterminalID
	column int
}

// postdotEntry lists every item, across the whole chart, whose dot sits
// right before nt and which lives in the Earley set at column. Complete
// consults this to find which items to advance once nt is recognized
// starting at column.
type postdotEntry struct {
	items []Item
}

type column struct {
	items     []Item
	seen      map[symbolicKey]bool
	predicted map[symbol.NonterminalID]bool
	scanItems []Item
	completed map[completedKey]bool
}

func newColumn() *column {
	return &column{
		seen:      map[symbolicKey]bool{},
		predicted: map[symbol.NonterminalID]bool{},
		completed: map[completedKey]bool{},
	}
}

// Chart is a sealed-or-growing Earley chart: Len()-1 bytes have been
// consumed so far. It is not safe for concurrent use; callers needing
// concurrent forks should Clone it.
type Chart struct {
	g       *grammar.Grammar
	columns []*column

	// postdot and leo persist across the whole chart's lifetime: a parent
	// item registered at column s stays relevant to any future column
	// that completes the nonterminal it's waiting on.
	postdot map[postdotKey]*postdotEntry
	leo     map[completedKey]completedKey
}

// New builds a chart seeded with the grammar's start nonterminal at
// column 0.
func New(g *grammar.Grammar) *Chart {
	c := &Chart{
		g:       g,
		postdot: map[postdotKey]*postdotEntry{},
		leo:     map[completedKey]completedKey{},
	}
	c.columns = append(c.columns, newColumn())
	c.runFixpoint(0, []Item{{NT: g.Start(), Alt: -1, Dot: 0, Start: 0}})
	return c
}

// Len returns the number of columns, i.e. 1 + bytes consumed so far.
func (c *Chart) Len() int { return len(c.columns) }

// IsAccepting reports whether the start nonterminal has been fully
// derived across the whole input consumed so far.
func (c *Chart) IsAccepting() bool {
	last := c.columns[len(c.columns)-1]
	return last.completed[completedKey{nt: c.g.Start(), start: 0}]
}

// CanContinue reports whether at least one terminal-like scan is still
// alive at the current column, i.e. some byte could still extend the
// input without immediately being rejected.
func (c *Chart) CanContinue() bool {
	return c.AllowedBytes() != (grammar.FirstByteSet{})
}

// AllowedBytes returns the (possibly loose) set of bytes that could
// legally be consumed next: the first-byte set of every freshly predicted
// scan item, plus, for a scan already in progress, every byte its
// substate can still step on. The engine uses it to prune whole subtrees
// of the vocabulary trie before ever calling Step; Step itself is still
// authoritative.
func (c *Chart) AllowedBytes() grammar.FirstByteSet {
	var set grammar.FirstByteSet
	last := c.columns[len(c.columns)-1]
	for _, it := range last.scanItems {
		if it.Sub == nil {
			set.Merge(c.g.FirstBytes(it.next(c.g)))
			continue
		}
		for b := 0; b < 256; b++ {
			if _, ok := it.Sub.Step(byte(b)); ok {
				set[b/64] |= 1 << (b % 64)
			}
		}
	}
	return set
}

// Step advances the chart by one byte: every pending scan item attempts
// to consume b, successful continuations seed the next column's scan
// set, and every scan that newly reaches acceptance feeds a completed
// item into the next column's predict/complete fixpoint. Step always
// appends a column, even when no scan survives (CanContinue will then be
// false and IsAccepting reflects whatever completed on the way).
func (c *Chart) Step(b byte) {
	cur := c.columns[len(c.columns)-1]
	next := newColumn()
	var seeds []Item
	for _, it := range cur.scanItems {
		sub := it.Sub
		if sub == nil {
			s, err := matcher.New(c.g, it.next(c.g))
			if err != nil {
				continue
			}
			sub = s
		}
		ns, ok := sub.Step(b)
		if !ok {
			continue
		}
		advanced := Item{NT: it.NT, Alt: it.Alt, Dot: it.Dot, Start: it.Start, Sub: ns}
		if !next.seen[advanced.symbolicKey()] {
			next.seen[advanced.symbolicKey()] = true
			next.items = append(next.items, advanced)
			next.scanItems = append(next.scanItems, advanced)
		}
		if ns.IsAccept() {
			seeds = append(seeds, Item{NT: it.NT, Alt: it.Alt, Dot: it.Dot + 1, Start: it.Start})
		}
	}
	c.columns = append(c.columns, next)
	c.runFixpoint(len(c.columns)-1, seeds)
}

// runFixpoint drains a worklist of symbolic items (predict/complete, not
// scan), starting from seeds, until no more follow. A seed item with
// Alt == -1 is the synthetic "predict the start symbol" request used by
// New; every other item is a genuine dotted production.
func (c *Chart) runFixpoint(colIdx int, seeds []Item) {
	col := c.columns[colIdx]
	var queue []Item
	for _, it := range seeds {
		if it.Alt == -1 {
			c.predictNonterminal(colIdx, it.NT, &queue)
			continue
		}
		c.enqueue(colIdx, it, &queue)
	}
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		if it.complete(c.g) {
			c.complete(colIdx, it, &queue)
			continue
		}
		sym := it.next(c.g)
		if sym.Kind == symbol.KindNonterminal {
			c.registerPostdotParent(colIdx, it, sym.Nonterminal)
			c.predictNonterminal(colIdx, sym.Nonterminal, &queue)
			if c.g.IsNullable(sym.Nonterminal) {
				c.enqueue(colIdx, Item{NT: it.NT, Alt: it.Alt, Dot: it.Dot + 1, Start: it.Start}, &queue)
			}
			continue
		}
		col.scanItems = append(col.scanItems, it)
		// A terminal-like symbol can itself be nullable (an unbounded or
		// Lo==0 repetition, an empty literal, a regex whose start state
		// already accepts): a fresh Substate's IsAccept reports exactly
		// that. Mirror the nonterminal case above and advance the dot
		// past it with no byte consumed, the same epsilon move
		// grammar.computeNullable already credits this symbol with.
		if sub, err := matcher.New(c.g, sym); err == nil && sub.IsAccept() {
			c.enqueue(colIdx, Item{NT: it.NT, Alt: it.Alt, Dot: it.Dot + 1, Start: it.Start}, &queue)
		}
	}
}

// enqueue adds it to both the column's item log and the live worklist,
// unless an equivalent symbolic item has already been seen in this
// column.
func (c *Chart) enqueue(colIdx int, it Item, queue *[]Item) {
	col := c.columns[colIdx]
	if col.seen[it.symbolicKey()] {
		return
	}
	col.seen[it.symbolicKey()] = true
	col.items = append(col.items, it)
	*queue = append(*queue, it)
}

// registerPostdotParent records that it is waiting on nt at colIdx, and
// refreshes the Leo eligibility of (nt, colIdx): eligible exactly when it
// is (so far) the only parent and completing nt would itself complete it
// (nt is the last symbol of it's alternative), in which case the target
// chains through it's own Leo entry if it has one.
func (c *Chart) registerPostdotParent(colIdx int, it Item, nt symbol.NonterminalID) {
	pk := postdotKey{nt: nt, column: colIdx}
	entry := c.postdot[pk]
	if entry == nil {
		entry = &postdotEntry{}
		c.postdot[pk] = entry
	}
	entry.items = append(entry.items, it)

	ck := completedKey{nt: nt, start: colIdx}
	if len(entry.items) == 1 && it.Dot+1 == len(it.alt(c.g)) {
		target := it.completedKey()
		if t, ok := c.leo[it.completedKey()]; ok {
			target = t
		}
		c.leo[ck] = target
	} else {
		delete(c.leo, ck)
	}
}

// predictNonterminal expands every alternative of nt into the live
// worklist the first time nt is referenced in this column.
func (c *Chart) predictNonterminal(colIdx int, nt symbol.NonterminalID, queue *[]Item) {
	col := c.columns[colIdx]
	if col.predicted[nt] {
		return
	}
	col.predicted[nt] = true
	for altIdx := range c.g.Rule(nt).Alternatives {
		c.enqueue(colIdx, Item{NT: nt, Alt: altIdx, Dot: 0, Start: colIdx}, queue)
	}
}

// complete processes a fully-dotted item: it marks its completedKey as
// recognized in this column, then either follows the Leo shortcut
// straight to the ultimate item it chains to, or walks the (possibly
// many) ordinary parents waiting on it.
func (c *Chart) complete(colIdx int, it Item, queue *[]Item) {
	col := c.columns[colIdx]
	key := it.completedKey()

	target := key
	if t, ok := c.leo[key]; ok {
		target = t
	}
	// The Leo shortcut means key itself is never consulted again (it has
	// at most the one parent already folded into target), so only the
	// resolved target is a real, observable completion.
	col.completed[target] = true

	entry := c.postdot[postdotKey{nt: target.nt, column: target.start}]
	if entry == nil {
		return
	}
	for _, parent := range entry.items {
		advanced := Item{NT: parent.NT, Alt: parent.Alt, Dot: parent.Dot + 1, Start: parent.Start}
		c.enqueue(colIdx, advanced, queue)
	}
}
