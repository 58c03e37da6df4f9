package btree

import (
	"bytes"
	"io"

	"github.com/kvtree/pagedtree/common"
	"github.com/kvtree/pagedtree/fragref"
)

const (
	kindData byte = iota
	kindIndex
)

// writeChild and readChild encode an index node's child slot as the bare 32-byte FID,
// with no tag byte (unlike rbtree's slots, which can also be nil): a B-tree index
// node's children are always persisted references by the time the node itself is
// written (an inlined child can never legally reach the wire).
func writeChild(w io.Writer, c fragref.Child) error {
	if !c.IsRef() {
		return common.NewKindError(common.InvariantViolation, "btree: attempted to persist a node with an unpersisted child")
	}
	fid := c.Ref().FID()
	_, err := w.Write(fid[:])
	return err
}

func readChild(r io.Reader) (fragref.Child, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(r, buf); err != nil {
		return fragref.Child{}, err
	}
	fid, err := fragref.FIDFromBytes(buf)
	if err != nil {
		return fragref.Child{}, err
	}
	return fragref.RefChild(fragref.RefTo(fid)), nil
}

// decodeFragment is the fragref.Decoder for this package: it dispatches on the
// leading kind byte to the data- or index-node codec.
func decodeFragment(data []byte) (fragref.Node, error) {
	r := bytes.NewReader(data)
	kind, err := common.ReadByte(r)
	if err != nil {
		return nil, err
	}
	cfg, err := readConfig(r)
	if err != nil {
		return nil, err
	}
	switch kind {
	case kindData:
		return decodeDataNode(cfg, r)
	case kindIndex:
		return decodeIndexNode(cfg, r)
	default:
		return nil, common.NewKindError(common.StoreInconsistent, "btree: unknown node kind %d", kind)
	}
}
