package rbtree_test

import (
	"math/rand"
	"testing"

	"github.com/kvtree/pagedtree/common"
	"github.com/kvtree/pagedtree/ordkey"
	"github.com/kvtree/pagedtree/rbtree"
	"github.com/stretchr/testify/require"
)

func TestInsertFindBasic(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	tr := rbtree.New(kv)
	root := rbtree.Root{}

	vals := []int64{5, 3, 8, 1, 4, 7, 9, 2, 6, 0}
	var err error
	for _, v := range vals {
		root, err = tr.Insert(root, ordkey.Int(v))
		require.NoError(t, err)
	}
	for _, v := range vals {
		found, err := tr.Find(root, ordkey.Int(v))
		require.NoError(t, err)
		require.True(t, found, "expected %d present", v)
	}
	found, err := tr.Find(root, ordkey.Int(42))
	require.NoError(t, err)
	require.False(t, found)
}

func TestInsertDuplicateIsNoop(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	tr := rbtree.New(kv)
	root, err := tr.Insert(rbtree.Root{}, ordkey.Int(1))
	require.NoError(t, err)
	root2, err := tr.Insert(root, ordkey.Int(1))
	require.NoError(t, err)
	found, err := tr.Find(root2, ordkey.Int(1))
	require.NoError(t, err)
	require.True(t, found)
}

func TestRangeExclusiveBothEnds(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	tr := rbtree.New(kv)
	root := rbtree.Root{}
	var err error
	for _, v := range []int64{10, 20, 30, 40, 50} {
		root, err = tr.Insert(root, ordkey.Int(v))
		require.NoError(t, err)
	}
	got, err := tr.Range(root, ordkey.Int(10), ordkey.Int(50))
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int64(20), got[0].Int64())
	require.Equal(t, int64(30), got[1].Int64())
	require.Equal(t, int64(40), got[2].Int64())

	got, err = tr.Range(root, ordkey.Int(0), ordkey.Int(100))
	require.NoError(t, err)
	require.Len(t, got, 5)
}

func TestBulkInsertOrderedAndRange(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	tr := rbtree.New(kv)
	root := rbtree.Root{}
	const n = 2000
	var err error
	for i := 0; i < n; i++ {
		root, err = tr.Insert(root, ordkey.Int(int64(i)))
		require.NoError(t, err)
	}
	got, err := tr.Range(root, ordkey.Int(-1), ordkey.Int(n))
	require.NoError(t, err)
	require.Len(t, got, n)
	for i, k := range got {
		require.Equal(t, int64(i), k.Int64())
	}
}

func TestBulkInsertShuffled(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	tr := rbtree.New(kv)
	root := rbtree.Root{}
	const n = 2000
	order := rand.New(rand.NewSource(1)).Perm(n)
	var err error
	for _, v := range order {
		root, err = tr.Insert(root, ordkey.Int(int64(v)))
		require.NoError(t, err)
	}
	got, err := tr.Range(root, ordkey.Int(-1), ordkey.Int(n))
	require.NoError(t, err)
	require.Len(t, got, n)
	for i, k := range got {
		require.Equal(t, int64(i), k.Int64())
	}
}

func TestRootPersistedAcrossFreshStore(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	tr := rbtree.New(kv)
	root, err := tr.Insert(rbtree.Root{}, ordkey.Int(1))
	require.NoError(t, err)
	root, err = tr.Insert(root, ordkey.Int(2))
	require.NoError(t, err)
	ref, ok := root.Ref()
	require.True(t, ok)

	tr2 := rbtree.New(kv)
	root2 := rbtree.RootFromRef(ref)
	found, err := tr2.Find(root2, ordkey.Int(2))
	require.NoError(t, err)
	require.True(t, found)
}

func TestInsertWithWriterBatchesWithPublish(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	tr := rbtree.New(kv)
	w := kv.BatchedWriter()
	root, err := tr.InsertWithWriter(rbtree.Root{}, ordkey.Int(1), w)
	require.NoError(t, err)
	ref, ok := root.Ref()
	require.True(t, ok)
	w.Set([]byte("root"), ref.FID().Bytes())
	require.NoError(t, w.Commit())

	tr2 := rbtree.New(kv)
	root2 := rbtree.RootFromRef(ref)
	found, err := tr2.Find(root2, ordkey.Int(1))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, ref.FID().Bytes(), kv.Get([]byte("root")))
}
