// Package btree implements a persistent B-tree: an ordered key-value map tuned for
// larger fan-out and forward iteration, paged through the fragment layer (fragref),
// with lookup, forward iteration, insertion, and deletion.
package btree

import (
	"sort"

	"github.com/kvtree/pagedtree/common"
	"github.com/kvtree/pagedtree/fragref"
	"github.com/kvtree/pagedtree/ordkey"
)

// Tree is a handle to the fragment layer a B-tree root is paged through, carrying
// the node-sizing configuration new nodes are built with.
type Tree struct {
	store *fragref.Store
	cfg   Config
}

// New wraps kv in a fragment layer configured per cfg.
func New(kv common.KVReader, cfg Config, cacheSize ...int) *Tree {
	return &Tree{store: fragref.NewStore(kv, decodeFragment, cacheSize...), cfg: cfg}
}

// Root is a B-tree root handle: either an inlined (not yet persisted) node or a
// reference.
type Root struct {
	child fragref.Child
}

// RootFromRef builds a root handle over an already-persisted fragment.
func RootFromRef(ref fragref.Ref) Root { return Root{child: fragref.RefChild(ref)} }

func (r Root) Ref() (fragref.Ref, bool) {
	if !r.child.IsRef() {
		return fragref.Ref{}, false
	}
	return r.child.Ref(), true
}

// Empty builds the root of a fresh, empty tree: a single empty data node, not yet
// persisted.
func (t *Tree) Empty() Root {
	return Root{child: fragref.InlinedChild(NewDataNode(t.cfg))}
}

func (t *Tree) resolveNode(c fragref.Child) (fragref.Node, error) {
	resolved, err := t.store.LoadTreeFragment(c, 0)
	if err != nil {
		return nil, err
	}
	return resolved.Inlined(), nil
}

// lastKey is the derived separator key: the last key of a data node, or the
// recursively resolved last key of an index node's rightmost child. Separator keys
// are never stored directly, only derived on demand, so an index node never goes
// stale when a descendant's content changes.
func (t *Tree) lastKey(c fragref.Child) (ordkey.Key, error) {
	n, err := t.resolveNode(c)
	if err != nil {
		return ordkey.Key{}, err
	}
	switch v := n.(type) {
	case *DataNode:
		if v.Len() == 0 {
			return ordkey.Key{}, common.NewKindError(common.InvariantViolation, "btree: last-key of an empty data node")
		}
		return v.LastKey(), nil
	case *IndexNode:
		return t.lastKey(v.children[len(v.children)-1])
	default:
		return ordkey.Key{}, common.NewKindError(common.InvariantViolation, "btree: unknown node type %T", n)
	}
}

// lookupChildIndex returns the smallest i such that key <= last-key(children[i]),
// clamped to the last child if key exceeds every last-key.
func (t *Tree) lookupChildIndex(n *IndexNode, key ordkey.Key) (int, error) {
	count := len(n.children)
	var ioErr error
	i := sort.Search(count, func(i int) bool {
		if ioErr != nil {
			return true
		}
		lk, err := t.lastKey(n.children[i])
		if err != nil {
			ioErr = err
			return true
		}
		return ordkey.Compare(key, lk) <= 0
	})
	if ioErr != nil {
		return 0, ioErr
	}
	if i >= count {
		i = count - 1
	}
	return i, nil
}

// lookupPath descends from root to the data node that would hold key, recording the
// index-node trail taken along the way.
func (t *Tree) lookupPath(root fragref.Child, key ordkey.Key) (*Path, error) {
	var path Path
	cur := root
	for {
		n, err := t.resolveNode(cur)
		if err != nil {
			return nil, err
		}
		if dn, ok := n.(*DataNode); ok {
			path.leaf = dn
			return &path, nil
		}
		idx := n.(*IndexNode)
		i, err := t.lookupChildIndex(idx, key)
		if err != nil {
			return nil, err
		}
		path.entries = append(path.entries, pathEntry{node: idx, index: i})
		cur = idx.children[i]
	}
}

// Lookup returns the value mapped to key, or ok == false if key is absent.
func (t *Tree) Lookup(root Root, key ordkey.Key) ([]byte, bool, error) {
	path, err := t.lookupPath(root.child, key)
	if err != nil {
		return nil, false, err
	}
	v, ok := path.leaf.Get(key)
	return v, ok, nil
}

// rightSuccessor ascends path until an ancestor has an unused child to the right of
// its chosen index, then descends leftmost to the next data node. A nil result (no
// error) means iteration has reached the end of the tree.
func (t *Tree) rightSuccessor(path *Path) (*Path, error) {
	for d := len(path.entries) - 1; d >= 0; d-- {
		pe := path.entries[d]
		if pe.index+1 >= len(pe.node.children) {
			continue
		}
		entries := make([]pathEntry, d+1)
		copy(entries, path.entries[:d])
		entries[d] = pathEntry{node: pe.node, index: pe.index + 1}
		cur := pe.node.children[pe.index+1]
		for {
			n, err := t.resolveNode(cur)
			if err != nil {
				return nil, err
			}
			if dn, ok := n.(*DataNode); ok {
				return &Path{entries: entries, leaf: dn}, nil
			}
			idx := n.(*IndexNode)
			entries = append(entries, pathEntry{node: idx, index: 0})
			cur = idx.children[0]
		}
	}
	return nil, nil
}

// Cursor is a lazy ascending sequence of (key, value) pairs over a tree.
type Cursor struct {
	t    *Tree
	path *Path
	pos  int
}

// Forward returns a cursor over the ascending sequence of (k, v) pairs starting
// from the first entry with k >= key.
func (t *Tree) Forward(root Root, key ordkey.Key) (*Cursor, error) {
	path, err := t.lookupPath(root.child, key)
	if err != nil {
		return nil, err
	}
	pos := sortedSearch(path.leaf.entries, key)
	return &Cursor{t: t, path: path, pos: pos}, nil
}

// Next returns the next (key, value) pair, or ok == false once the sequence is
// exhausted.
func (c *Cursor) Next() (ordkey.Key, []byte, bool, error) {
	for c.path != nil {
		if c.pos < len(c.path.leaf.entries) {
			e := c.path.leaf.entries[c.pos]
			c.pos++
			return e.key, e.value, true, nil
		}
		next, err := c.t.rightSuccessor(c.path)
		if err != nil {
			return ordkey.Key{}, nil, false, err
		}
		c.path = next
		c.pos = 0
	}
	return ordkey.Key{}, nil, false, nil
}

func spliceOne(children []fragref.Child, i int, replacement fragref.Child) []fragref.Child {
	out := make([]fragref.Child, 0, len(children))
	out = append(out, children[:i]...)
	out = append(out, replacement)
	out = append(out, children[i+1:]...)
	return out
}

func spliceTwo(children []fragref.Child, i int, a, b fragref.Child) []fragref.Child {
	out := make([]fragref.Child, 0, len(children)+1)
	out = append(out, children[:i]...)
	out = append(out, a, b)
	out = append(out, children[i+1:]...)
	return out
}

func spliceRange(children []fragref.Child, lo, hi int, replacement []fragref.Child) []fragref.Child {
	out := make([]fragref.Child, 0, len(children)-(hi-lo+1)+len(replacement))
	out = append(out, children[:lo]...)
	out = append(out, replacement...)
	out = append(out, children[hi+1:]...)
	return out
}

// Insert returns a new root with key mapped to value, leaving root and every
// fragment it reaches untouched.
func (t *Tree) Insert(root Root, key ordkey.Key, value []byte) (Root, error) {
	return t.InsertWithWriter(root, key, value, nil)
}

// InsertWithWriter is Insert but persists new fragments through w, for batching with
// an atomic stable-root publish.
func (t *Tree) InsertWithWriter(root Root, key ordkey.Key, value []byte, w common.KVWriter) (Root, error) {
	path, err := t.lookupPath(root.child, key)
	if err != nil {
		return Root{}, err
	}

	leaf := path.leaf.WithEntry(key, value)
	var curLeft, curRight fragref.Node
	if leaf.Overflow() {
		curLeft, curRight = leaf.splitNode()
	} else {
		curLeft = leaf
	}

	for d := len(path.entries) - 1; d >= 0; d-- {
		pe := path.entries[d]
		var children []fragref.Child
		if curRight == nil {
			ref, err := t.store.CreateRefWithWriter(curLeft, w)
			if err != nil {
				return Root{}, err
			}
			children = spliceOne(pe.node.children, pe.index, fragref.RefChild(ref))
		} else {
			refL, err := t.store.CreateRefWithWriter(curLeft, w)
			if err != nil {
				return Root{}, err
			}
			refR, err := t.store.CreateRefWithWriter(curRight, w)
			if err != nil {
				return Root{}, err
			}
			children = spliceTwo(pe.node.children, pe.index, fragref.RefChild(refL), fragref.RefChild(refR))
		}
		newIdx := NewIndexNode(pe.node.cfg, children, pe.node.opBuf)
		if newIdx.Overflow() {
			curLeft, curRight = newIdx.splitNode()
		} else {
			curLeft, curRight = newIdx, nil
		}
	}

	if curRight != nil {
		refL, err := t.store.CreateRefWithWriter(curLeft, w)
		if err != nil {
			return Root{}, err
		}
		refR, err := t.store.CreateRefWithWriter(curRight, w)
		if err != nil {
			return Root{}, err
		}
		newRoot := NewIndexNode(t.cfg, []fragref.Child{fragref.RefChild(refL), fragref.RefChild(refR)}, nil)
		ref, err := t.store.CreateRefWithWriter(newRoot, w)
		if err != nil {
			return Root{}, err
		}
		return Root{child: fragref.RefChild(ref)}, nil
	}

	ref, err := t.store.CreateRefWithWriter(curLeft, w)
	if err != nil {
		return Root{}, err
	}
	return Root{child: fragref.RefChild(ref)}, nil
}

// chooseSibling selects the larger neighboring sibling of the child at index i: the
// right sibling if it has strictly more entries, else the left; at either boundary,
// the only existing side is chosen.
func (t *Tree) chooseSibling(n *IndexNode, i int) (siblingIndex int, useRight bool, err error) {
	hasLeft := i > 0
	hasRight := i+1 < len(n.children)
	switch {
	case hasLeft && !hasRight:
		return i - 1, false, nil
	case hasRight && !hasLeft:
		return i + 1, true, nil
	case !hasLeft && !hasRight:
		return 0, false, common.NewKindError(common.InvariantViolation, "btree: underflowing node has no sibling to merge with")
	}
	left, err := t.resolveNode(n.children[i-1])
	if err != nil {
		return 0, false, err
	}
	right, err := t.resolveNode(n.children[i+1])
	if err != nil {
		return 0, false, err
	}
	if entryCount(right) > entryCount(left) {
		return i + 1, true, nil
	}
	return i - 1, false, nil
}

// Delete returns a new root with key removed, leaving root and every fragment it
// reaches untouched.
func (t *Tree) Delete(root Root, key ordkey.Key) (Root, error) {
	return t.DeleteWithWriter(root, key, nil)
}

// DeleteWithWriter is Delete but persists new fragments through w.
func (t *Tree) DeleteWithWriter(root Root, key ordkey.Key, w common.KVWriter) (Root, error) {
	path, err := t.lookupPath(root.child, key)
	if err != nil {
		return Root{}, err
	}

	var cur fragref.Node = path.leaf.WithoutEntry(key)

	for d := len(path.entries) - 1; d >= 0; d-- {
		pe := path.entries[d]
		if !isUnderflow(cur) {
			ref, err := t.store.CreateRefWithWriter(cur, w)
			if err != nil {
				return Root{}, err
			}
			children := spliceOne(pe.node.children, pe.index, fragref.RefChild(ref))
			cur = NewIndexNode(pe.node.cfg, children, pe.node.opBuf)
			continue
		}

		siblingIdx, useRight, err := t.chooseSibling(pe.node, pe.index)
		if err != nil {
			return Root{}, err
		}
		sibling, err := t.resolveNode(pe.node.children[siblingIdx])
		if err != nil {
			return Root{}, err
		}
		var mergeLeft, mergeRight fragref.Node
		if useRight {
			mergeLeft, mergeRight = cur, sibling
		} else {
			mergeLeft, mergeRight = sibling, cur
		}
		merged, err := mergeNodes(mergeLeft, mergeRight)
		if err != nil {
			return Root{}, err
		}

		lo, hi := pe.index, siblingIdx
		if hi < lo {
			lo, hi = hi, lo
		}

		if isOverflow(merged) {
			left, right := splitNode(merged)
			refL, err := t.store.CreateRefWithWriter(left, w)
			if err != nil {
				return Root{}, err
			}
			refR, err := t.store.CreateRefWithWriter(right, w)
			if err != nil {
				return Root{}, err
			}
			children := spliceRange(pe.node.children, lo, hi, []fragref.Child{fragref.RefChild(refL), fragref.RefChild(refR)})
			cur = NewIndexNode(pe.node.cfg, children, pe.node.opBuf)
		} else {
			ref, err := t.store.CreateRefWithWriter(merged, w)
			if err != nil {
				return Root{}, err
			}
			children := spliceRange(pe.node.children, lo, hi, []fragref.Child{fragref.RefChild(ref)})
			cur = NewIndexNode(pe.node.cfg, children, pe.node.opBuf)
		}
	}

	// Height decreases when the root is an index node with exactly one child.
	if idx, ok := cur.(*IndexNode); ok && len(idx.children) == 1 {
		return Root{child: idx.children[0]}, nil
	}

	ref, err := t.store.CreateRefWithWriter(cur, w)
	if err != nil {
		return Root{}, err
	}
	return Root{child: fragref.RefChild(ref)}, nil
}
