package dfa

import (
	"fmt"
	"regexp/syntax"
	"sort"

	"github.com/Dan-wanna-M/kbnf/utf8"
)

// byteTree is a Glushkov-construction AST node over bytes: every leaf
// (symbolNode) occupies one position, and nullable/first/last describe
// how positions compose so followpos (and from there, DFA states) can be
// derived without ever materializing an NFA.
type byteTree interface {
	fmt.Stringer
	children() (byteTree, byteTree)
	nullable() bool
	first() *symbolPositionSet
	last() *symbolPositionSet
}

var (
	_ byteTree = &symbolNode{}
	_ byteTree = &acceptNode{}
	_ byteTree = &concatNode{}
	_ byteTree = &altNode{}
	_ byteTree = &repeatNode{}
	_ byteTree = &optionNode{}
)

type byteRange struct {
	from, to byte
}

type symbolNode struct {
	byteRange
	pos       symbolPosition
	firstMemo *symbolPositionSet
	lastMemo  *symbolPositionSet
}

func newRangeSymbolNode(from, to byte) *symbolNode {
	return &symbolNode{byteRange: byteRange{from: from, to: to}, pos: symbolPositionNil}
}

func (n *symbolNode) String() string { return fmt.Sprintf("byte %v-%v", n.from, n.to) }
func (n *symbolNode) children() (byteTree, byteTree) { return nil, nil }
func (n *symbolNode) nullable() bool                 { return false }

func (n *symbolNode) first() *symbolPositionSet {
	if n.firstMemo == nil {
		n.firstMemo = newSymbolPositionSet().add(n.pos)
	}
	return n.firstMemo
}

func (n *symbolNode) last() *symbolPositionSet {
	if n.lastMemo == nil {
		n.lastMemo = newSymbolPositionSet().add(n.pos)
	}
	return n.lastMemo
}

// acceptNode marks "the regex has matched here"; it occupies a position
// like a symbolNode so the accepting DFA states fall out of the same
// subset construction, but it never consumes a byte.
type acceptNode struct {
	pos       symbolPosition
	firstMemo *symbolPositionSet
	lastMemo  *symbolPositionSet
}

func newAcceptNode() *acceptNode { return &acceptNode{pos: symbolPositionNil} }

func (n *acceptNode) String() string                  { return "accept" }
func (n *acceptNode) children() (byteTree, byteTree) { return nil, nil }
func (n *acceptNode) nullable() bool                 { return false }

func (n *acceptNode) first() *symbolPositionSet {
	if n.firstMemo == nil {
		n.firstMemo = newSymbolPositionSet().add(n.pos)
	}
	return n.firstMemo
}

func (n *acceptNode) last() *symbolPositionSet {
	if n.lastMemo == nil {
		n.lastMemo = newSymbolPositionSet().add(n.pos)
	}
	return n.lastMemo
}

type concatNode struct {
	left, right        byteTree
	firstMemo, lastMemo *symbolPositionSet
}

func newConcatNode(left, right byteTree) *concatNode { return &concatNode{left: left, right: right} }

func (n *concatNode) String() string                  { return "concat" }
func (n *concatNode) children() (byteTree, byteTree) { return n.left, n.right }
func (n *concatNode) nullable() bool                 { return n.left.nullable() && n.right.nullable() }

func (n *concatNode) first() *symbolPositionSet {
	if n.firstMemo == nil {
		n.firstMemo = newSymbolPositionSet().merge(n.left.first())
		if n.left.nullable() {
			n.firstMemo.merge(n.right.first())
		}
	}
	return n.firstMemo
}

func (n *concatNode) last() *symbolPositionSet {
	if n.lastMemo == nil {
		n.lastMemo = newSymbolPositionSet().merge(n.right.last())
		if n.right.nullable() {
			n.lastMemo.merge(n.left.last())
		}
	}
	return n.lastMemo
}

type altNode struct {
	left, right        byteTree
	firstMemo, lastMemo *symbolPositionSet
}

func newAltNode(left, right byteTree) *altNode { return &altNode{left: left, right: right} }

func (n *altNode) String() string                  { return "alt" }
func (n *altNode) children() (byteTree, byteTree) { return n.left, n.right }
func (n *altNode) nullable() bool                 { return n.left.nullable() || n.right.nullable() }

func (n *altNode) first() *symbolPositionSet {
	if n.firstMemo == nil {
		n.firstMemo = newSymbolPositionSet().merge(n.left.first()).merge(n.right.first())
	}
	return n.firstMemo
}

func (n *altNode) last() *symbolPositionSet {
	if n.lastMemo == nil {
		n.lastMemo = newSymbolPositionSet().merge(n.left.last()).merge(n.right.last())
	}
	return n.lastMemo
}

// repeatNode is one-or-more (it is always paired with optionNode to model
// zero-or-more, and bounded {m,n} repeats are unrolled by the caller
// before reaching the tree).
type repeatNode struct {
	left                byteTree
	firstMemo, lastMemo *symbolPositionSet
}

func newRepeatNode(left byteTree) *repeatNode { return &repeatNode{left: left} }

func (n *repeatNode) String() string                  { return "repeat" }
func (n *repeatNode) children() (byteTree, byteTree) { return n.left, nil }
func (n *repeatNode) nullable() bool                 { return false }

func (n *repeatNode) first() *symbolPositionSet {
	if n.firstMemo == nil {
		n.firstMemo = newSymbolPositionSet().merge(n.left.first())
	}
	return n.firstMemo
}

func (n *repeatNode) last() *symbolPositionSet {
	if n.lastMemo == nil {
		n.lastMemo = newSymbolPositionSet().merge(n.left.last())
	}
	return n.lastMemo
}

type optionNode struct {
	left                byteTree
	firstMemo, lastMemo *symbolPositionSet
}

func newOptionNode(left byteTree) *optionNode { return &optionNode{left: left} }

func (n *optionNode) String() string                  { return "option" }
func (n *optionNode) children() (byteTree, byteTree) { return n.left, nil }
func (n *optionNode) nullable() bool                 { return true }

func (n *optionNode) first() *symbolPositionSet {
	if n.firstMemo == nil {
		n.firstMemo = newSymbolPositionSet().merge(n.left.first())
	}
	return n.firstMemo
}

func (n *optionNode) last() *symbolPositionSet {
	if n.lastMemo == nil {
		n.lastMemo = newSymbolPositionSet().merge(n.left.last())
	}
	return n.lastMemo
}

type followTable map[symbolPosition]*symbolPositionSet

func genFollowTable(root byteTree) followTable {
	follow := followTable{}
	calcFollow(follow, root)
	return follow
}

func calcFollow(follow followTable, t byteTree) {
	if t == nil {
		return
	}
	left, right := t.children()
	calcFollow(follow, left)
	calcFollow(follow, right)
	switch n := t.(type) {
	case *concatNode:
		for _, p := range n.left.last().set() {
			addFollow(follow, p, n.right.first())
		}
	case *repeatNode:
		for _, p := range n.last().set() {
			addFollow(follow, p, n.first())
		}
	case *optionNode:
		// zero-or-more is built as option(repeat(x)); optionNode alone
		// (zero-or-one) has no self-loop, so nothing to add here.
	}
}

func addFollow(follow followTable, p symbolPosition, set *symbolPositionSet) {
	if _, ok := follow[p]; !ok {
		follow[p] = newSymbolPositionSet()
	}
	follow[p].merge(set)
}

// positionSymbols assigns a unique position to every symbolNode/acceptNode
// in the tree, post-order, starting at n.
func positionSymbols(node byteTree, n uint16) (uint16, error) {
	if node == nil {
		return n, nil
	}
	l, r := node.children()
	p, err := positionSymbols(l, n)
	if err != nil {
		return p, err
	}
	p, err = positionSymbols(r, p)
	if err != nil {
		return p, err
	}
	switch v := node.(type) {
	case *symbolNode:
		v.pos, err = newSymbolPosition(p, false)
		if err != nil {
			return p, err
		}
		p++
	case *acceptNode:
		v.pos, err = newSymbolPosition(p, true)
		if err != nil {
			return p, err
		}
		p++
	}
	node.first()
	node.last()
	return p, nil
}

func concat(ts ...byteTree) byteTree {
	return foldTree(ts, func(l, r byteTree) byteTree { return newConcatNode(l, r) })
}

func oneOf(ts ...byteTree) byteTree {
	return foldTree(ts, func(l, r byteTree) byteTree { return newAltNode(l, r) })
}

func foldTree(ts []byteTree, combine func(l, r byteTree) byteTree) byteTree {
	var nonNil []byteTree
	for _, t := range ts {
		if t != nil {
			nonNil = append(nonNil, t)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	}
	acc := combine(nonNil[0], nonNil[1])
	for _, t := range nonNil[2:] {
		acc = combine(acc, t)
	}
	return acc
}

// compileRegexToByteTree translates a parsed Go regexp AST into a byteTree
// ready for positionSymbols + GenDFA. Only the operators needed for
// grammar-embedded terminals are handled; capture groups are treated as
// plain grouping, and unsupported operators (anchors other than implicit
// full-match, word boundaries) return an error rather than silently
// mis-compiling.
func compileRegexToByteTree(re *syntax.Regexp) (byteTree, error) {
	re = re.Simplify()
	t, err := convertRegexNode(re)
	if err != nil {
		return nil, err
	}
	root := concat(t, newAcceptNode())
	if _, err := positionSymbols(root, symbolPositionMin); err != nil {
		return nil, err
	}
	return root, nil
}

func convertRegexNode(re *syntax.Regexp) (byteTree, error) {
	switch re.Op {
	case syntax.OpEmptyMatch:
		return nil, nil
	case syntax.OpLiteral:
		var acc byteTree
		for _, r := range re.Rune {
			bt, err := runeRangeToByteTree(r, r)
			if err != nil {
				return nil, err
			}
			acc = concat(acc, bt)
		}
		return acc, nil
	case syntax.OpCharClass:
		var alt byteTree
		for i := 0; i+1 < len(re.Rune); i += 2 {
			bt, err := runeRangeToByteTree(re.Rune[i], re.Rune[i+1])
			if err != nil {
				return nil, err
			}
			alt = oneOf(alt, bt)
		}
		return alt, nil
	case syntax.OpAnyCharNotNL, syntax.OpAnyChar:
		return runeRangeToByteTree(0, 0x10ffff)
	case syntax.OpConcat:
		var acc byteTree
		for _, sub := range re.Sub {
			t, err := convertRegexNode(sub)
			if err != nil {
				return nil, err
			}
			acc = concat(acc, t)
		}
		return acc, nil
	case syntax.OpAlternate:
		var acc byteTree
		for _, sub := range re.Sub {
			t, err := convertRegexNode(sub)
			if err != nil {
				return nil, err
			}
			acc = oneOf(acc, t)
		}
		return acc, nil
	case syntax.OpStar:
		t, err := convertRegexNode(re.Sub[0])
		if err != nil {
			return nil, err
		}
		return newOptionNode(newRepeatNode(t)), nil
	case syntax.OpPlus:
		t, err := convertRegexNode(re.Sub[0])
		if err != nil {
			return nil, err
		}
		return newRepeatNode(t), nil
	case syntax.OpQuest:
		t, err := convertRegexNode(re.Sub[0])
		if err != nil {
			return nil, err
		}
		return newOptionNode(t), nil
	case syntax.OpRepeat:
		return convertBoundedRepeat(re)
	case syntax.OpCapture:
		return convertRegexNode(re.Sub[0])
	default:
		return nil, fmt.Errorf("unsupported regex operator in embedded terminal: %v", re.Op)
	}
}

// convertBoundedRepeat unrolls re{min,max} into an explicit concatenation,
// since the Glushkov tree has no native bounded-repeat node. max == -1
// (unbounded, "{min,}") degrades to min copies followed by a star.
func convertBoundedRepeat(re *syntax.Regexp) (byteTree, error) {
	unitCopy := *re.Sub[0]
	unit := &unitCopy

	var acc byteTree
	for i := 0; i < re.Min; i++ {
		t, err := convertRegexNode(unit)
		if err != nil {
			return nil, err
		}
		acc = concat(acc, t)
	}
	if re.Max < 0 {
		t, err := convertRegexNode(unit)
		if err != nil {
			return nil, err
		}
		acc = concat(acc, newOptionNode(newRepeatNode(t)))
		return acc, nil
	}
	for i := re.Min; i < re.Max; i++ {
		t, err := convertRegexNode(unit)
		if err != nil {
			return nil, err
		}
		acc = concat(acc, newOptionNode(t))
	}
	return acc, nil
}

func runeRangeToByteTree(from, to rune) (byteTree, error) {
	blocks, err := utf8.GenCharBlocks(from, to)
	if err != nil {
		return nil, err
	}
	var alt byteTree
	for _, blk := range blocks {
		var chain byteTree
		for i := range blk.From {
			chain = concat(chain, newRangeSymbolNode(blk.From[i], blk.To[i]))
		}
		alt = oneOf(alt, chain)
	}
	return alt, nil
}

// sortedPositions is a small helper used by callers that want a
// deterministic ordering of positions, e.g. when printing states for
// debugging.
func sortedPositions(s *symbolPositionSet) []symbolPosition {
	ps := append([]symbolPosition(nil), s.set()...)
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
	return ps
}
