package common_test

import (
	"testing"

	"github.com/kvtree/pagedtree/common"
	"github.com/stretchr/testify/require"
)

func TestInMemoryKVStoreBulkFillFromRandStream(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	stream := common.NewRandStreamIterator(common.RandStreamParams{
		Seed:       42,
		NumKVPairs: 500,
		MaxKey:     16,
		MaxValue:   32,
	})

	written := make(map[string][]byte)
	err := stream.Iterate(func(k, v []byte) bool {
		kv.Set(k, v)
		written[string(k)] = v
		return true
	})
	require.NoError(t, err)
	require.Equal(t, len(written), kv.Len())

	for k, v := range written {
		require.True(t, kv.Has([]byte(k)))
		require.Equal(t, v, kv.Get([]byte(k)))
	}
}

func TestInMemoryKVStoreBatchedWriterCommit(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	w := kv.BatchedWriter()
	w.Set([]byte("a"), []byte("1"))
	w.Set([]byte("b"), []byte("2"))
	require.NoError(t, w.Commit())

	require.Equal(t, []byte("1"), kv.Get([]byte("a")))
	require.Equal(t, []byte("2"), kv.Get([]byte("b")))
	require.Equal(t, 2, kv.Len())
}

func TestInMemoryKVStoreIterator(t *testing.T) {
	kv := common.NewInMemoryKVStore()
	kv.Set([]byte("px1"), []byte("1"))
	kv.Set([]byte("px2"), []byte("2"))
	kv.Set([]byte("qy1"), []byte("3"))

	seen := make(map[string]bool)
	kv.Iterator([]byte("px")).Iterate(func(k, v []byte) bool {
		seen[string(k)] = true
		return true
	})
	require.Len(t, seen, 2)
	require.True(t, seen["px1"])
	require.True(t, seen["px2"])
}
