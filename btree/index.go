package btree

import (
	"io"

	"github.com/kvtree/pagedtree/common"
	"github.com/kvtree/pagedtree/fragref"
)

// IndexNode is a B-tree internal node: an ordered sequence of child handles plus an
// opaque operation buffer reserved for a future write-optimized extension. The core
// never populates op-buf; it only preserves it across load, split, and merge.
type IndexNode struct {
	cfg      Config
	children []fragref.Child
	opBuf    []byte
}

var _ fragref.Node = (*IndexNode)(nil)

func NewIndexNode(cfg Config, children []fragref.Child, opBuf []byte) *IndexNode {
	return &IndexNode{cfg: cfg, children: children, opBuf: opBuf}
}

func (n *IndexNode) NumChildren() int { return len(n.children) }

func (n *IndexNode) ChildAt(i int) fragref.Child { return n.children[i] }

func (n *IndexNode) WithChildAt(i int, c fragref.Child) fragref.Node {
	cp := make([]fragref.Child, len(n.children))
	copy(cp, n.children)
	cp[i] = c
	return &IndexNode{cfg: n.cfg, children: cp, opBuf: n.opBuf}
}

func (n *IndexNode) Overflow() bool { return len(n.children) >= 2*n.cfg.IndexB }

func (n *IndexNode) Underflow() bool { return len(n.children) < n.cfg.IndexB }

// Split splits n's children at cfg.IndexB, distributing the op-buffer between
// halves by partitioning at the same position. The median separating key is derived
// from the content of left's rightmost child, which requires resolving a fragment
// reference — callers needing it use Tree.lastKey on the returned left node rather
// than a value returned here.
func (n *IndexNode) Split() (left, right *IndexNode) {
	b := n.cfg.IndexB
	leftChildren := append([]fragref.Child(nil), n.children[:b]...)
	rightChildren := append([]fragref.Child(nil), n.children[b:]...)
	leftBuf, rightBuf := splitOpBuf(n.opBuf, b, len(n.children))
	return &IndexNode{cfg: n.cfg, children: leftChildren, opBuf: leftBuf},
		&IndexNode{cfg: n.cfg, children: rightChildren, opBuf: rightBuf}
}

func (n *IndexNode) splitNode() (fragref.Node, fragref.Node) {
	left, right := n.Split()
	return left, right
}

// Merge concatenates n's children ahead of sibling's, and its op-buffer likewise.
func (n *IndexNode) Merge(sibling *IndexNode) *IndexNode {
	children := make([]fragref.Child, 0, len(n.children)+len(sibling.children))
	children = append(children, n.children...)
	children = append(children, sibling.children...)
	buf := make([]byte, 0, len(n.opBuf)+len(sibling.opBuf))
	buf = append(buf, n.opBuf...)
	buf = append(buf, sibling.opBuf...)
	return &IndexNode{cfg: n.cfg, children: children, opBuf: buf}
}

func splitOpBuf(buf []byte, leftCount, total int) (left, right []byte) {
	if len(buf) == 0 || total == 0 {
		return nil, nil
	}
	cut := len(buf) * leftCount / total
	return append([]byte(nil), buf[:cut]...), append([]byte(nil), buf[cut:]...)
}

func (n *IndexNode) Write(w io.Writer) error {
	if err := common.WriteByte(w, kindIndex); err != nil {
		return err
	}
	if err := n.cfg.write(w); err != nil {
		return err
	}
	if err := common.WriteUint32(w, uint32(len(n.children))); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := writeChild(w, c); err != nil {
			return err
		}
	}
	return common.WriteBytes16(w, n.opBuf)
}

func decodeIndexNode(cfg Config, r io.Reader) (*IndexNode, error) {
	var count uint32
	if err := common.ReadUint32(r, &count); err != nil {
		return nil, err
	}
	children := make([]fragref.Child, 0, count)
	for i := uint32(0); i < count; i++ {
		c, err := readChild(r)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	opBuf, err := common.ReadBytes16(r)
	if err != nil {
		return nil, err
	}
	return &IndexNode{cfg: cfg, children: children, opBuf: opBuf}, nil
}

// entryCount is the size used to compare siblings when choosing a delete-time merge
// partner: a data node's entry count, or an index node's child count.
func entryCount(n fragref.Node) int {
	switch v := n.(type) {
	case *DataNode:
		return v.Len()
	case *IndexNode:
		return len(v.children)
	default:
		common.Assertf(false, "btree: unknown node type %T", n)
		return 0
	}
}

func isUnderflow(n fragref.Node) bool {
	switch v := n.(type) {
	case *DataNode:
		return v.Underflow()
	case *IndexNode:
		return v.Underflow()
	default:
		common.Assertf(false, "btree: unknown node type %T", n)
		return false
	}
}

func isOverflow(n fragref.Node) bool {
	switch v := n.(type) {
	case *DataNode:
		return v.Overflow()
	case *IndexNode:
		return v.Overflow()
	default:
		common.Assertf(false, "btree: unknown node type %T", n)
		return false
	}
}

func splitNode(n fragref.Node) (fragref.Node, fragref.Node) {
	switch v := n.(type) {
	case *DataNode:
		return v.splitNode()
	case *IndexNode:
		return v.splitNode()
	default:
		common.Assertf(false, "btree: unknown node type %T", n)
		return nil, nil
	}
}

func mergeNodes(left, right fragref.Node) (fragref.Node, error) {
	switch l := left.(type) {
	case *DataNode:
		r, ok := right.(*DataNode)
		if !ok {
			return nil, common.NewKindError(common.InvariantViolation, "btree: cannot merge a data node with an index node")
		}
		return l.Merge(r), nil
	case *IndexNode:
		r, ok := right.(*IndexNode)
		if !ok {
			return nil, common.NewKindError(common.InvariantViolation, "btree: cannot merge an index node with a data node")
		}
		return l.Merge(r), nil
	default:
		return nil, common.NewKindError(common.InvariantViolation, "btree: unknown node type %T", left)
	}
}
