package btree

import (
	"io"

	"github.com/kvtree/pagedtree/common"
	"github.com/kvtree/pagedtree/fragref"
	"github.com/kvtree/pagedtree/ordkey"
)

// DataNode is a B-tree leaf: an ordered key-to-value mapping with no children. A
// valid non-root data node holds between cfg.DataB and 2*cfg.DataB-1 entries; the
// root is exempt from the lower bound.
type DataNode struct {
	cfg     Config
	entries []entry
}

var _ fragref.Node = (*DataNode)(nil)

// NewDataNode builds an empty data node, the initial root of a fresh tree.
func NewDataNode(cfg Config) *DataNode {
	return &DataNode{cfg: cfg}
}

func (n *DataNode) Len() int { return len(n.entries) }

func (n *DataNode) Get(k ordkey.Key) ([]byte, bool) {
	i := sortedSearch(n.entries, k)
	if i >= len(n.entries) || !ordkey.Equal(n.entries[i].key, k) {
		return nil, false
	}
	return n.entries[i].value, true
}

// LastKey is the rightmost key held directly: a data node needs no further
// resolution, unlike an index node's derived last-key.
func (n *DataNode) LastKey() ordkey.Key {
	common.Assertf(len(n.entries) > 0, "btree: LastKey of an empty data node")
	return n.entries[len(n.entries)-1].key
}

func (n *DataNode) Overflow() bool { return len(n.entries) >= 2*n.cfg.DataB }

func (n *DataNode) Underflow() bool { return len(n.entries) < n.cfg.DataB }

// WithEntry returns a copy of n with k mapped to v (existing entries overwritten).
func (n *DataNode) WithEntry(k ordkey.Key, v []byte) *DataNode {
	return &DataNode{cfg: n.cfg, entries: sortedUpsert(n.entries, k, v)}
}

// WithoutEntry returns a copy of n with k removed, if present.
func (n *DataNode) WithoutEntry(k ordkey.Key) *DataNode {
	return &DataNode{cfg: n.cfg, entries: sortedRemove(n.entries, k)}
}

// EntriesFrom returns the ascending tail of entries with key >= k.
func (n *DataNode) EntriesFrom(k ordkey.Key) []entry {
	return n.entries[sortedSearch(n.entries, k):]
}

// Merge concatenates n ahead of sibling, preserving ascending order. The caller
// guarantees n and sibling are adjacent siblings, with n preceding sibling.
func (n *DataNode) Merge(sibling *DataNode) *DataNode {
	out := make([]entry, 0, len(n.entries)+len(sibling.entries))
	out = append(out, n.entries...)
	out = append(out, sibling.entries...)
	return &DataNode{cfg: n.cfg, entries: out}
}

// Split splits n at cfg.DataB into two halves; median is the rightmost key of left.
func (n *DataNode) Split() (left, right *DataNode, median ordkey.Key) {
	b := n.cfg.DataB
	left = &DataNode{cfg: n.cfg, entries: append([]entry(nil), n.entries[:b]...)}
	right = &DataNode{cfg: n.cfg, entries: append([]entry(nil), n.entries[b:]...)}
	return left, right, left.LastKey()
}

func (n *DataNode) splitNode() (fragref.Node, fragref.Node) {
	left, right, _ := n.Split()
	return left, right
}

func (n *DataNode) NumChildren() int { return 0 }

func (n *DataNode) ChildAt(int) fragref.Child { return fragref.NilChild }

func (n *DataNode) WithChildAt(int, fragref.Child) fragref.Node { return n }

func (n *DataNode) Write(w io.Writer) error {
	if err := common.WriteByte(w, kindData); err != nil {
		return err
	}
	if err := n.cfg.write(w); err != nil {
		return err
	}
	if err := common.WriteUint32(w, uint32(len(n.entries))); err != nil {
		return err
	}
	for _, e := range n.entries {
		if err := e.key.Write(w); err != nil {
			return err
		}
		if err := common.WriteBytes32(w, e.value); err != nil {
			return err
		}
	}
	return nil
}

func decodeDataNode(cfg Config, r io.Reader) (*DataNode, error) {
	var count uint32
	if err := common.ReadUint32(r, &count); err != nil {
		return nil, err
	}
	entries := make([]entry, 0, count)
	for i := uint32(0); i < count; i++ {
		k, err := ordkey.ReadKey(r)
		if err != nil {
			return nil, err
		}
		v, err := common.ReadBytes32(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: k, value: v})
	}
	return &DataNode{cfg: cfg, entries: entries}, nil
}
