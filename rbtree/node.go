package rbtree

import (
	"bytes"
	"io"

	"github.com/kvtree/pagedtree/common"
	"github.com/kvtree/pagedtree/fragref"
	"github.com/kvtree/pagedtree/ordkey"
)

// Color is a red-black node's color.
type Color byte

const (
	Black Color = iota
	Red
)

func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "black"
}

// node is the red-black fragment: (color, left, key, right). It implements
// fragref.Node with exactly two child slots: 0 is left, 1 is right.
type node struct {
	color Color
	left  fragref.Child
	key   ordkey.Key
	right fragref.Child
}

var _ fragref.Node = (*node)(nil)

func newNode(color Color, left fragref.Child, key ordkey.Key, right fragref.Child) *node {
	return &node{color: color, left: left, key: key, right: right}
}

func (n *node) NumChildren() int { return 2 }

func (n *node) ChildAt(i int) fragref.Child {
	if i == 0 {
		return n.left
	}
	return n.right
}

func (n *node) WithChildAt(i int, c fragref.Child) fragref.Node {
	cp := *n
	if i == 0 {
		cp.left = c
	} else {
		cp.right = c
	}
	return &cp
}

func (n *node) withColor(color Color) *node {
	cp := *n
	cp.color = color
	return &cp
}

// Write serializes the node: color byte, key, left slot, right slot. Child slots
// written as either a one-byte nil tag or a one-byte ref tag followed by the FID —
// an inlined (not-yet-persisted) child can never legally reach the wire, since a
// fragment is only written once every child slot already holds a persisted reference.
func (n *node) Write(w io.Writer) error {
	if err := common.WriteByte(w, byte(n.color)); err != nil {
		return err
	}
	if err := n.key.Write(w); err != nil {
		return err
	}
	if err := writeChild(w, n.left); err != nil {
		return err
	}
	return writeChild(w, n.right)
}

const (
	slotNil byte = iota
	slotRef
)

func writeChild(w io.Writer, c fragref.Child) error {
	if c.IsNil() {
		return common.WriteByte(w, slotNil)
	}
	if !c.IsRef() {
		return common.NewKindError(common.InvariantViolation, "rbtree: attempted to persist a node with an unpersisted child")
	}
	if err := common.WriteByte(w, slotRef); err != nil {
		return err
	}
	fid := c.Ref().FID()
	_, err := w.Write(fid[:])
	return err
}

func readChild(r io.Reader) (fragref.Child, error) {
	tag, err := common.ReadByte(r)
	if err != nil {
		return fragref.Child{}, err
	}
	switch tag {
	case slotNil:
		return fragref.NilChild, nil
	case slotRef:
		buf := make([]byte, 32)
		if _, err := io.ReadFull(r, buf); err != nil {
			return fragref.Child{}, err
		}
		fid, err := fragref.FIDFromBytes(buf)
		if err != nil {
			return fragref.Child{}, err
		}
		return fragref.RefChild(fragref.RefTo(fid)), nil
	default:
		return fragref.Child{}, common.NewKindError(common.StoreInconsistent, "rbtree: bad child tag %d", tag)
	}
}

// decodeNode is the fragref.Decoder for this package's node shape.
func decodeNode(data []byte) (fragref.Node, error) {
	r := bytes.NewReader(data)
	colorByte, err := common.ReadByte(r)
	if err != nil {
		return nil, err
	}
	key, err := ordkey.ReadKey(r)
	if err != nil {
		return nil, err
	}
	left, err := readChild(r)
	if err != nil {
		return nil, err
	}
	right, err := readChild(r)
	if err != nil {
		return nil, err
	}
	return newNode(Color(colorByte), left, key, right), nil
}
