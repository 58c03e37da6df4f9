package btree_test

import (
	"testing"

	"github.com/kvtree/pagedtree/btree"
	"github.com/kvtree/pagedtree/common"
	"github.com/kvtree/pagedtree/ordkey"
	"github.com/stretchr/testify/require"
)

func smallCfg() btree.Config { return btree.Config{IndexB: 3, DataB: 3, OpBufSize: 2} }

func TestEmptyTreeLookup(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	tr := btree.New(kv, smallCfg())
	root := tr.Empty()

	_, ok, err := tr.Lookup(root, ordkey.Int(42))
	require.NoError(t, err)
	require.False(t, ok)
}

func buildTwoLeafTree(t *testing.T, tr *btree.Tree) btree.Root {
	t.Helper()
	root := tr.Empty()
	var err error
	// 3..8 overflow the root leaf, which splits into {3,4,5} and {6,7,8}; 1 and 2 then
	// land in the left leaf and 9 and 10 in the right: {1..5} and {6..10}.
	for _, i := range []int64{3, 4, 5, 6, 7, 8, 1, 2, 9, 10} {
		root, err = tr.Insert(root, ordkey.Int(i), []byte{byte(i)})
		require.NoError(t, err)
	}
	return root
}

func TestTwoLeafLookup(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	tr := btree.New(kv, smallCfg())
	root := buildTwoLeafTree(t, tr)

	for i := int64(1); i <= 10; i++ {
		v, ok, err := tr.Lookup(root, ordkey.Int(i))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, byte(i), v[0])
	}
	_, ok, err := tr.Lookup(root, ordkey.Int(-10))
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = tr.Lookup(root, ordkey.Int(100))
	require.NoError(t, err)
	require.False(t, ok)
}

func drain(t *testing.T, c *btree.Cursor) []int64 {
	t.Helper()
	var out []int64
	for {
		k, _, ok, err := c.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, k.Int64())
	}
}

func TestForwardIteration(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	tr := btree.New(kv, smallCfg())
	root := buildTwoLeafTree(t, tr)

	c, err := tr.Forward(root, ordkey.Int(4))
	require.NoError(t, err)
	require.Equal(t, []int64{4, 5, 6, 7, 8, 9, 10}, drain(t, c))

	c, err = tr.Forward(root, ordkey.Int(0))
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, drain(t, c))
}

func TestInsertDeleteRoundTrip(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	tr := btree.New(kv, smallCfg())
	root := tr.Empty()
	var err error
	for i := int64(0); i < 30; i++ {
		root, err = tr.Insert(root, ordkey.Int(i), []byte{byte(i)})
		require.NoError(t, err)
	}
	root, err = tr.Delete(root, ordkey.Int(15))
	require.NoError(t, err)
	_, ok, err := tr.Lookup(root, ordkey.Int(15))
	require.NoError(t, err)
	require.False(t, ok)
	for i := int64(0); i < 30; i++ {
		if i == 15 {
			continue
		}
		v, ok, err := tr.Lookup(root, ordkey.Int(i))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, byte(i), v[0])
	}
}

func TestBulkInsertAndLookup(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	cfg := btree.Config{IndexB: 500, DataB: 500, OpBufSize: 5}
	tr := btree.New(kv, cfg)
	root := tr.Empty()
	const n = 50000
	var err error
	for i := int64(0); i < n; i++ {
		root, err = tr.Insert(root, ordkey.Int(i), []byte{byte(i)})
		require.NoError(t, err)
	}
	for _, i := range []int64{0, 1, 17, 12345, 49999} {
		v, ok, err := tr.Lookup(root, ordkey.Int(i))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, byte(i), v[0])
	}

	c, err := tr.Forward(root, ordkey.Int(450))
	require.NoError(t, err)
	for i := int64(450); i < 460; i++ {
		k, _, ok, err := c.Next()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, k.Int64())
	}
}

func TestDeleteRootCollapse(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	cfg := btree.Config{IndexB: 2, DataB: 2, OpBufSize: 1}
	tr := btree.New(kv, cfg)
	root := tr.Empty()
	var err error
	for i := int64(0); i < 8; i++ {
		root, err = tr.Insert(root, ordkey.Int(i), []byte{byte(i)})
		require.NoError(t, err)
	}
	for i := int64(0); i < 5; i++ {
		root, err = tr.Delete(root, ordkey.Int(i))
		require.NoError(t, err)
	}
	for i := int64(5); i < 8; i++ {
		v, ok, err := tr.Lookup(root, ordkey.Int(i))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, byte(i), v[0])
	}
}

func TestInsertWithWriterBatchesWithPublish(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	tr := btree.New(kv, smallCfg())
	w := kv.BatchedWriter()
	root, err := tr.InsertWithWriter(tr.Empty(), ordkey.Int(1), []byte("x"), w)
	require.NoError(t, err)
	ref, ok := root.Ref()
	require.True(t, ok)
	w.Set([]byte("root"), ref.FID().Bytes())
	require.NoError(t, w.Commit())

	tr2 := btree.New(kv, smallCfg())
	root2 := btree.RootFromRef(ref)
	v, ok, err := tr2.Lookup(root2, ordkey.Int(1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("x"), v)
}
