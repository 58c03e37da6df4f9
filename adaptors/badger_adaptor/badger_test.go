package badger_adaptor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kvtree/pagedtree/common"
	"github.com/kvtree/pagedtree/ordkey"
	"github.com/kvtree/pagedtree/rbtree"
	"github.com/stretchr/testify/require"
)

const dbPath = "./tmpDB"

func TestBasic(t *testing.T) {
	db := MustCreateOrOpenBadgerDB(dbPath)
	defer db.Close()

	data := []string{"a", "ab", "1", "klmn"}
	a := New(db)

	for _, k := range data {
		a.Set([]byte(k), []byte(k+k))
	}

	count := 0
	a.Iterator(nil).Iterate(func(k, v []byte) bool {
		fmt.Printf("%d : '%s' - '%s'\n", count, string(k), string(v))
		count++
		return true
	})
	fmt.Printf("------ with prefix 'a'\n")

	a.Iterator([]byte("a")).Iterate(func(k, v []byte) bool {
		fmt.Printf("%d : '%s' - '%s'\n", count, string(k), string(v))
		count++
		return true
	})

	for _, k := range data {
		require.True(t, a.Has([]byte(k)))
		require.False(t, a.Has([]byte(k+k+k)))
		v := a.Get([]byte(k))
		require.EqualValues(t, k+k, string(v))
	}
}

func TestClose(t *testing.T) {
	db := MustCreateOrOpenBadgerDB(dbPath)
	a := New(db)
	a.Set([]byte("kuku"), []byte("mumu"))
	err := a.Close()
	require.NoError(t, err)

	err = common.CatchPanicOrError(func() error {
		a.Get([]byte("kuku"))
		return nil
	})
	require.True(t, errors.Is(err, common.ErrDBUnavailable))

	err = common.CatchPanicOrError(func() error {
		a.Set([]byte("kuku"), []byte("zzz"))
		return nil
	})
	require.True(t, errors.Is(common.ErrDBUnavailable, err))
}

// TestRBTreeOverBadgerNamespacedRoot wires a red-black tree's fragment store scoped
// to PartitionFragments, and a root published under PartitionRoots, both sharing one
// badger.DB without collision. A fresh Tree handle reading the published root back
// sees exactly what was inserted.
func TestRBTreeOverBadgerNamespacedRoot(t *testing.T) {
	dir := dbPath + "RB"
	db := MustCreateOrOpenBadgerDB(dir)
	defer db.Close()
	a := New(db)

	frags := NewFragmentNamespace(a, a)
	tr := rbtree.New(frags)

	root := rbtree.Root{}
	var err error
	for _, k := range []int64{5, 2, 8, 1, 9, 3} {
		root, err = tr.Insert(root, ordkey.Int(k))
		require.NoError(t, err)
	}
	ref, ok := root.Ref()
	require.True(t, ok)
	PublishRoot(a, "main", ref.FID().Bytes())

	fidBytes := ReadRoot(a, "main")
	require.Equal(t, ref.FID().Bytes(), fidBytes)

	tr2 := rbtree.New(NewFragmentNamespace(a, a))
	root2 := rbtree.RootFromRef(ref)
	for _, k := range []int64{5, 2, 8, 1, 9, 3} {
		found, err := tr2.Find(root2, ordkey.Int(k))
		require.NoError(t, err)
		require.True(t, found)
	}
	found, err := tr2.Find(root2, ordkey.Int(42))
	require.NoError(t, err)
	require.False(t, found)

	count := 0
	frags.Iterator(nil).IterateKeys(func(k []byte) bool {
		count++
		return true
	})
	require.Greater(t, count, 0)
}
