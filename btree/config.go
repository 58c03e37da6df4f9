package btree

import (
	"io"

	"github.com/kvtree/pagedtree/common"
)

// Config is the B-tree's node-sizing record: every node carries its own copy so a
// loaded node knows its own invariants without consulting a side channel.
type Config struct {
	IndexB    int
	DataB     int
	OpBufSize int
}

func (c Config) write(w io.Writer) error {
	if err := common.WriteUint32(w, uint32(c.IndexB)); err != nil {
		return err
	}
	if err := common.WriteUint32(w, uint32(c.DataB)); err != nil {
		return err
	}
	return common.WriteUint32(w, uint32(c.OpBufSize))
}

func readConfig(r io.Reader) (Config, error) {
	var indexB, dataB, opBufSize uint32
	if err := common.ReadUint32(r, &indexB); err != nil {
		return Config{}, err
	}
	if err := common.ReadUint32(r, &dataB); err != nil {
		return Config{}, err
	}
	if err := common.ReadUint32(r, &opBufSize); err != nil {
		return Config{}, err
	}
	return Config{IndexB: int(indexB), DataB: int(dataB), OpBufSize: int(opBufSize)}, nil
}
