package rbtree

import (
	"github.com/kvtree/pagedtree/common"
	"github.com/kvtree/pagedtree/fragref"
	"github.com/kvtree/pagedtree/ordkey"
)

// balanceWithWriter restores the red-black invariant at a node that may have just
// gained a red child under a red grandchild (the four classical Okasaki patterns),
// then applies the depth-mod-3 flush: every third level down the recursion, the
// grandchildren just exposed by rebalancing are persisted and replaced by references,
// bounding how much of the tree ever sits inlined in memory at once.
func (t *Tree) balanceWithWriter(c fragref.Child, depth int, w common.KVWriter) (fragref.Child, error) {
	resolved, err := t.store.LoadTreeFragment(c, 2)
	if err != nil {
		return fragref.Child{}, err
	}
	top, ok := resolved.Inlined().(*node)
	if !ok {
		return fragref.Child{}, common.NewKindError(common.InvariantViolation, "rbtree: expected a node to balance")
	}

	if top.color == Black {
		newTop, matched, err := t.rotate(top, depth, w)
		if err != nil {
			return fragref.Child{}, err
		}
		if matched {
			return fragref.InlinedChild(newTop), nil
		}
	}
	return t.flushChildren(top, depth, w)
}

func getNode(c fragref.Child) *node {
	if c.IsNil() {
		return nil
	}
	return c.Inlined().(*node)
}

// rotate detects which of the four Okasaki patterns (if any) applies at top and
// assembles the rebalanced red(black(a,x,b), y, black(c,z,d)) replacement.
func (t *Tree) rotate(top *node, depth int, w common.KVWriter) (*node, bool, error) {
	left := getNode(top.left)
	right := getNode(top.right)

	if left != nil && left.color == Red {
		if ll := getNode(left.left); ll != nil && ll.color == Red {
			// black(red(red(a,x,b),y,c),z,d)
			n, err := t.assemble(ll.left, ll.key, ll.right, left.key, left.right, top.key, top.right, depth, w)
			return n, true, err
		}
		if lr := getNode(left.right); lr != nil && lr.color == Red {
			// black(red(a,x,red(b,y,c)),z,d)
			n, err := t.assemble(left.left, left.key, lr.left, lr.key, lr.right, top.key, top.right, depth, w)
			return n, true, err
		}
	}
	if right != nil && right.color == Red {
		if rr := getNode(right.right); rr != nil && rr.color == Red {
			// black(a,x,red(b,y,red(c,z,d)))
			n, err := t.assemble(top.left, top.key, right.left, right.key, rr.left, rr.key, rr.right, depth, w)
			return n, true, err
		}
		if rl := getNode(right.left); rl != nil && rl.color == Red {
			// black(a,x,red(red(b,y,c),z,d))
			n, err := t.assemble(top.left, top.key, rl.left, rl.key, rl.right, right.key, right.right, depth, w)
			return n, true, err
		}
	}
	return nil, false, nil
}

func (t *Tree) assemble(
	a fragref.Child, x ordkey.Key,
	b fragref.Child, y ordkey.Key,
	c fragref.Child, z ordkey.Key,
	d fragref.Child,
	depth int, w common.KVWriter,
) (*node, error) {
	a, err := t.flushChild(a, depth, w)
	if err != nil {
		return nil, err
	}
	b, err = t.flushChild(b, depth, w)
	if err != nil {
		return nil, err
	}
	c, err = t.flushChild(c, depth, w)
	if err != nil {
		return nil, err
	}
	d, err = t.flushChild(d, depth, w)
	if err != nil {
		return nil, err
	}
	left := fragref.InlinedChild(newNode(Black, a, x, b))
	right := fragref.InlinedChild(newNode(Black, c, z, d))
	return newNode(Red, left, y, right), nil
}

// flushChild persists c's fragment and replaces it with a reference when depth is a
// multiple of 3; otherwise c is returned unchanged. Nil slots are never flushed.
func (t *Tree) flushChild(c fragref.Child, depth int, w common.KVWriter) (fragref.Child, error) {
	if depth%3 != 0 || c.IsNil() || c.IsRef() {
		return c, nil
	}
	ref, err := t.store.CreateRefWithWriter(c.Inlined(), w)
	if err != nil {
		return fragref.Child{}, err
	}
	return fragref.RefChild(ref), nil
}

// flushChildren applies the same depth-mod-3 policy to top's own children when no
// rotation pattern matched.
func (t *Tree) flushChildren(top *node, depth int, w common.KVWriter) (fragref.Child, error) {
	if depth%3 != 0 {
		return fragref.InlinedChild(top), nil
	}
	left, err := t.flushChild(top.left, depth, w)
	if err != nil {
		return fragref.Child{}, err
	}
	right, err := t.flushChild(top.right, depth, w)
	if err != nil {
		return fragref.Child{}, err
	}
	return fragref.InlinedChild(newNode(top.color, left, top.key, right)), nil
}
