// Package rbtree implements a persistent red-black tree: an ordered set of comparable
// keys, paged through the fragment layer (fragref), with point lookup, insertion, and
// bounded range enumeration.
package rbtree

import (
	"github.com/kvtree/pagedtree/common"
	"github.com/kvtree/pagedtree/fragref"
	"github.com/kvtree/pagedtree/ordkey"
)

// Tree is a handle to the fragment layer a red-black root is paged through. It is
// stateless between calls: the root handle alone identifies the tree.
type Tree struct {
	store *fragref.Store
}

// New wraps kv in a fragment layer sized cacheSize (default fragref.DefaultCacheSize).
func New(kv common.KVReader, cacheSize ...int) *Tree {
	return &Tree{store: fragref.NewStore(kv, decodeNode, cacheSize...)}
}

// Root is a red-black tree root handle: empty, inlined (not yet persisted), or a
// reference. The zero Root is the empty tree.
type Root struct {
	child fragref.Child
}

func (r Root) IsEmpty() bool { return r.child.IsNil() }

// RootFromRef builds a root handle over an already-persisted fragment, e.g. one read
// back from a published stable key.
func RootFromRef(ref fragref.Ref) Root { return Root{child: fragref.RefChild(ref)} }

// Ref returns the FID a published root handle should be stored under. Only valid if
// the root was produced by Insert (which always persists the returned root) or built
// via RootFromRef.
func (r Root) Ref() (fragref.Ref, bool) {
	if !r.child.IsRef() {
		return fragref.Ref{}, false
	}
	return r.child.Ref(), true
}

// Insert returns a new root with x added, leaving root and every fragment it reaches
// untouched. The returned root is always persisted, ready to publish under a stable
// key.
func (t *Tree) Insert(root Root, x ordkey.Key) (Root, error) {
	newChild, err := t.insertRec(root.child, 0, x)
	if err != nil {
		return Root{}, err
	}
	if newChild.IsNil() {
		return Root{}, common.NewKindError(common.InvariantViolation, "rbtree: insert produced an empty tree")
	}
	top, err := t.resolve(newChild)
	if err != nil {
		return Root{}, err
	}
	top = top.withColor(Black)
	ref, err := t.store.CreateRef(top)
	if err != nil {
		return Root{}, err
	}
	return Root{child: fragref.RefChild(ref)}, nil
}

// InsertWithWriter is Insert but persists new fragments and the final root through w,
// for batching with an atomic stable-root publish.
func (t *Tree) InsertWithWriter(root Root, x ordkey.Key, w common.KVWriter) (Root, error) {
	newChild, err := t.insertRecWithWriter(root.child, 0, x, w)
	if err != nil {
		return Root{}, err
	}
	if newChild.IsNil() {
		return Root{}, common.NewKindError(common.InvariantViolation, "rbtree: insert produced an empty tree")
	}
	top, err := t.resolve(newChild)
	if err != nil {
		return Root{}, err
	}
	top = top.withColor(Black)
	ref, err := t.store.CreateRefWithWriter(top, w)
	if err != nil {
		return Root{}, err
	}
	return Root{child: fragref.RefChild(ref)}, nil
}

func (t *Tree) resolve(c fragref.Child) (*node, error) {
	resolved, err := t.store.LoadTreeFragment(c, 0)
	if err != nil {
		return nil, err
	}
	if resolved.IsNil() {
		return nil, common.NewKindError(common.InvariantViolation, "rbtree: expected a node, found nil")
	}
	n, ok := resolved.Inlined().(*node)
	if !ok {
		return nil, common.NewKindError(common.InvariantViolation, "rbtree: fragment is not a red-black node")
	}
	return n, nil
}

func (t *Tree) insertRec(c fragref.Child, depth int, x ordkey.Key) (fragref.Child, error) {
	return t.insertRecWithWriter(c, depth, x, nil)
}

func (t *Tree) insertRecWithWriter(c fragref.Child, depth int, x ordkey.Key, w common.KVWriter) (fragref.Child, error) {
	resolved, err := t.store.LoadTreeFragment(c, 0)
	if err != nil {
		return fragref.Child{}, err
	}
	if resolved.IsNil() {
		return fragref.InlinedChild(newNode(Red, fragref.NilChild, x, fragref.NilChild)), nil
	}
	cur, ok := resolved.Inlined().(*node)
	if !ok {
		return fragref.Child{}, common.NewKindError(common.InvariantViolation, "rbtree: fragment is not a red-black node")
	}
	cmp := ordkey.Compare(x, cur.key)
	switch {
	case cmp < 0:
		leftChild, err := t.insertRecWithWriter(cur.left, depth+1, x, w)
		if err != nil {
			return fragref.Child{}, err
		}
		return t.balanceWithWriter(fragref.InlinedChild(cur.WithChildAt(0, leftChild).(*node)), depth, w)
	case cmp > 0:
		rightChild, err := t.insertRecWithWriter(cur.right, depth+1, x, w)
		if err != nil {
			return fragref.Child{}, err
		}
		return t.balanceWithWriter(fragref.InlinedChild(cur.WithChildAt(1, rightChild).(*node)), depth, w)
	default:
		return resolved, nil
	}
}

// Find performs a standard BST descent, resolving references one level at a time.
func (t *Tree) Find(root Root, x ordkey.Key) (bool, error) {
	c := root.child
	for {
		resolved, err := t.store.LoadTreeFragment(c, 1)
		if err != nil {
			return false, err
		}
		if resolved.IsNil() {
			return false, nil
		}
		n, ok := resolved.Inlined().(*node)
		if !ok {
			return false, common.NewKindError(common.InvariantViolation, "rbtree: fragment is not a red-black node")
		}
		cmp := ordkey.Compare(x, n.key)
		switch {
		case cmp == 0:
			return true, nil
		case cmp < 0:
			c = n.left
		default:
			c = n.right
		}
	}
}

// Range returns the in-order sequence of keys y with s < y < e, exclusive on both
// ends.
func (t *Tree) Range(root Root, s, e ordkey.Key) ([]ordkey.Key, error) {
	var out []ordkey.Key
	if err := t.rangeRec(root.child, s, e, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tree) rangeRec(c fragref.Child, s, e ordkey.Key, out *[]ordkey.Key) error {
	resolved, err := t.store.LoadTreeFragment(c, 0)
	if err != nil {
		return err
	}
	if resolved.IsNil() {
		return nil
	}
	n, ok := resolved.Inlined().(*node)
	if !ok {
		return common.NewKindError(common.InvariantViolation, "rbtree: fragment is not a red-black node")
	}
	cmpS := ordkey.Compare(s, n.key)
	cmpE := ordkey.Compare(e, n.key)
	switch {
	case cmpS < 0 && cmpE > 0:
		if err := t.rangeRec(n.left, s, e, out); err != nil {
			return err
		}
		*out = append(*out, n.key)
		return t.rangeRec(n.right, s, e, out)
	case cmpS >= 0:
		return t.rangeRec(n.right, s, e, out)
	default: // cmpE <= 0
		return t.rangeRec(n.left, s, e, out)
	}
}
