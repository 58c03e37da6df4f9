package fragref_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/kvtree/pagedtree/common"
	"github.com/kvtree/pagedtree/fragref"
	"github.com/stretchr/testify/require"
)

// leafNode is a minimal fragref.Node with no children, used to exercise the fragment
// layer independent of any particular tree shape.
type leafNode struct {
	tag byte
	val []byte
}

func (n *leafNode) Write(w io.Writer) error {
	if err := common.WriteByte(w, n.tag); err != nil {
		return err
	}
	return common.WriteBytes16(w, n.val)
}

func (n *leafNode) NumChildren() int                         { return 0 }
func (n *leafNode) ChildAt(int) fragref.Child                 { return fragref.NilChild }
func (n *leafNode) WithChildAt(int, fragref.Child) fragref.Node { return n }

func decodeLeaf(data []byte) (fragref.Node, error) {
	r := bytes.NewReader(data)
	tag, err := common.ReadByte(r)
	if err != nil {
		return nil, err
	}
	val, err := common.ReadBytes16(r)
	if err != nil {
		return nil, err
	}
	return &leafNode{tag: tag, val: val}, nil
}

func TestCreateRefIdempotent(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	s := fragref.NewStore(kv, decodeLeaf)

	n := &leafNode{tag: 7, val: []byte("hello")}
	ref1, err := s.CreateRef(n)
	require.NoError(t, err)

	before := kv.Len()
	ref2, err := s.CreateRef(&leafNode{tag: 7, val: []byte("hello")})
	require.NoError(t, err)
	require.Equal(t, ref1.FID(), ref2.FID())
	require.Equal(t, before, kv.Len(), "re-persisting identical content must not write again")
}

func TestLoadRefRoundTrip(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	s := fragref.NewStore(kv, decodeLeaf)

	n := &leafNode{tag: 3, val: []byte("payload")}
	ref, err := s.CreateRef(n)
	require.NoError(t, err)

	s.Purge()
	loaded, err := s.LoadRef(ref)
	require.NoError(t, err)
	require.Equal(t, n, loaded)
}

func TestLoadRefMissingIsStoreInconsistent(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	s := fragref.NewStore(kv, decodeLeaf)

	bogus := fragref.RefTo(fragref.FID{0xAB})
	_, err := s.LoadRef(bogus)
	require.Error(t, err)
	require.True(t, common.IsKind(err, common.StoreInconsistent))
}

func TestCreateRefOnAlreadyPersistedReturnsUnchanged(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	s := fragref.NewStore(kv, decodeLeaf)

	ref, err := s.CreateRef(&leafNode{tag: 1, val: []byte("x")})
	require.NoError(t, err)

	ref2, err := s.CreateRef(ref)
	require.NoError(t, err)
	require.Equal(t, ref.FID(), ref2.FID())
}

func TestCacheLenAndPurge(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	s := fragref.NewStore(kv, decodeLeaf)

	_, err := s.CreateRef(&leafNode{tag: 1, val: []byte("a")})
	require.NoError(t, err)
	_, err = s.CreateRef(&leafNode{tag: 2, val: []byte("b")})
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	s.Purge()
	require.Equal(t, 0, s.Len())
}
