package eventset

import (
	"math"

	"github.com/sarchlab/quartz/duration"
	"github.com/sarchlab/quartz/errs"
	"github.com/sarchlab/quartz/vtime"
)

// fibNode is one tree node of a Fibonacci heap (spec section 4.6:
// "Fibonacci heap: standard CLRS structure").
type fibNode struct {
	e               entry
	parent, child   *fibNode
	left, right     *fibNode // circular doubly linked sibling ring
	degree          int
	mark            bool
}

// FibonacciHeap is a CLRS Fibonacci heap keyed by tn. Adjust lowering a
// handle's tn uses decrease-key with cascading cut; raising it falls back
// to delete-then-reinsert, exactly as spec section 4.6 allows ("adjust
// implemented via decrease-key or delete+insert").
type FibonacciHeap struct {
	min   *fibNode
	nodes map[Handle]*fibNode
	n     int
	next  uint64
}

// NewFibonacciHeap constructs an empty FibonacciHeap.
func NewFibonacciHeap() *FibonacciHeap {
	return &FibonacciHeap{nodes: make(map[Handle]*fibNode)}
}

func (f *FibonacciHeap) Push(h Handle, tn vtime.TimePoint) {
	if node, ok := f.nodes[h]; ok {
		f.adjustNode(node, tn)
		return
	}
	node := &fibNode{e: entry{handle: h, tn: tn, seq: f.next}}
	f.next++
	node.left, node.right = node, node
	f.insertRoot(node)
	f.nodes[h] = node
	f.n++
}

func (f *FibonacciHeap) insertRoot(node *fibNode) {
	if f.min == nil {
		f.min = node
		return
	}
	spliceIntoRing(f.min, node)
	if node.e.tn.Compare(f.min.e.tn) < 0 {
		f.min = node
	}
}

// spliceIntoRing inserts node as a new sibling of ring (any node already in
// the circular list).
func spliceIntoRing(ring, node *fibNode) {
	node.left = ring
	node.right = ring.right
	ring.right.left = node
	ring.right = node
}

func removeFromRing(node *fibNode) {
	node.left.right = node.right
	node.right.left = node.left
	node.left, node.right = node, node
}

func (f *FibonacciHeap) Adjust(h Handle, tn vtime.TimePoint) error {
	node, ok := f.nodes[h]
	if !ok {
		return &errs.UnknownHandleError{Handle: toLabel(h)}
	}
	f.adjustNode(node, tn)
	return nil
}

func (f *FibonacciHeap) adjustNode(node *fibNode, tn vtime.TimePoint) {
	if tn.Compare(node.e.tn) <= 0 {
		f.decreaseKey(node, tn)
		return
	}
	// Raising a key: CLRS's decrease-key cannot do this directly, so
	// delete and reinsert (spec section 4.6's explicitly allowed
	// fallback).
	h := node.e.handle
	seq := node.e.seq
	f.deleteNode(node)
	newNode := &fibNode{e: entry{handle: h, tn: tn, seq: seq}}
	newNode.left, newNode.right = newNode, newNode
	f.insertRoot(newNode)
	f.nodes[h] = newNode
	f.n++
}

func (f *FibonacciHeap) decreaseKey(node *fibNode, tn vtime.TimePoint) {
	node.e.tn = tn
	parent := node.parent
	if parent != nil && tn.Compare(parent.e.tn) < 0 {
		f.cut(node, parent)
		f.cascadingCut(parent)
	}
	if tn.Compare(f.min.e.tn) < 0 {
		f.min = node
	}
}

func (f *FibonacciHeap) cut(node, parent *fibNode) {
	if node.right == node {
		parent.child = nil
	} else {
		if parent.child == node {
			parent.child = node.right
		}
		removeFromRing(node)
	}
	parent.degree--
	node.parent = nil
	node.mark = false
	node.left, node.right = node, node
	f.insertRoot(node)
}

func (f *FibonacciHeap) cascadingCut(node *fibNode) {
	parent := node.parent
	if parent == nil {
		return
	}
	if !node.mark {
		node.mark = true
		return
	}
	f.cut(node, parent)
	f.cascadingCut(parent)
}

func (f *FibonacciHeap) Delete(h Handle) error {
	node, ok := f.nodes[h]
	if !ok {
		return &errs.UnknownHandleError{Handle: toLabel(h)}
	}
	f.deleteNode(node)
	return nil
}

func (f *FibonacciHeap) deleteNode(node *fibNode) {
	negInf := vtime.Zero.Advance(duration.NegInfinity)
	f.decreaseKey(node, negInf)
	f.extractMin()
}

func (f *FibonacciHeap) PeekMin() (vtime.TimePoint, bool) {
	if f.min == nil {
		return vtime.Zero, false
	}
	return f.min.e.tn, true
}

// extractMin removes and returns the current minimum root, consolidating
// the root list so at most one tree of each degree remains.
func (f *FibonacciHeap) extractMin() *entry {
	z := f.min
	if z == nil {
		return nil
	}

	if z.child != nil {
		var children []*fibNode
		start := z.child
		cur := start
		for {
			children = append(children, cur)
			cur = cur.right
			if cur == start {
				break
			}
		}
		for _, child := range children {
			child.left, child.right = child, child
			child.parent = nil
			f.insertRoot(child)
		}
		z.child = nil
	}

	removeFromRing(z)
	if z == z.right {
		f.min = nil
	} else {
		f.min = z.right
		f.consolidate()
	}

	delete(f.nodes, z.e.handle)
	f.n--
	e := z.e
	return &e
}

func (f *FibonacciHeap) consolidate() {
	if f.min == nil {
		return
	}
	maxDegree := int(math.Log2(float64(f.n+1))) + 2
	degreeTable := make([]*fibNode, maxDegree+1)

	var roots []*fibNode
	start := f.min
	cur := start
	for {
		roots = append(roots, cur)
		cur = cur.right
		if cur == start {
			break
		}
	}

	for _, x := range roots {
		d := x.degree
		for d < len(degreeTable) && degreeTable[d] != nil {
			y := degreeTable[d]
			if y == x {
				break
			}
			if y.e.tn.Compare(x.e.tn) < 0 {
				x, y = y, x
			}
			f.link(y, x)
			degreeTable[d] = nil
			d++
		}
		if d < len(degreeTable) {
			degreeTable[d] = x
		}
	}

	f.min = nil
	for _, node := range degreeTable {
		if node == nil {
			continue
		}
		node.left, node.right = node, node
		node.parent = nil
		f.insertRoot(node)
	}
}

// link makes y a child of x, used when they tie for the same degree during
// consolidation.
func (f *FibonacciHeap) link(y, x *fibNode) {
	removeFromRing(y)
	y.parent = x
	y.mark = false
	if x.child == nil {
		x.child = y
		y.left, y.right = y, y
	} else {
		spliceIntoRing(x.child, y)
	}
	x.degree++
}

func (f *FibonacciHeap) PopImminent() []Handle {
	if f.min == nil {
		return nil
	}
	min := f.min.e.tn
	var popped []entry
	for f.min != nil && f.min.e.tn.Equal(min) {
		e := f.extractMin()
		popped = append(popped, *e)
	}
	sortEntriesBySeq(popped)
	out := make([]Handle, len(popped))
	for i, e := range popped {
		out[i] = e.handle
	}
	return out
}

func (f *FibonacciHeap) Size() int { return f.n }

func (f *FibonacciHeap) TieBreakOrder(t vtime.TimePoint) []Handle {
	entries := make([]entry, 0, len(f.nodes))
	for _, node := range f.nodes {
		entries = append(entries, node.e)
	}
	return tieBreakOrderFromEntries(entries, t)
}
