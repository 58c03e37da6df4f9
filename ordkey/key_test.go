package ordkey_test

import (
	"bytes"
	"testing"

	"github.com/kvtree/pagedtree/ordkey"
	"github.com/stretchr/testify/require"
)

func TestCompareNumericMixedWidth(t *testing.T) {
	require.True(t, ordkey.Less(ordkey.Int(1), ordkey.Int(2)))
	require.True(t, ordkey.Less(ordkey.Int(1), ordkey.Float(1.5)))
	require.True(t, ordkey.Equal(ordkey.Int(2), ordkey.Float(2.0)))
	require.True(t, ordkey.Less(ordkey.Float(-1.5), ordkey.Int(0)))
}

func TestCompareFallbackOrdering(t *testing.T) {
	// numeric kinds sort before any non-numeric kind, deterministically
	require.True(t, ordkey.Less(ordkey.Int(1000000), ordkey.String("a")))
	require.True(t, ordkey.Less(ordkey.String("a"), ordkey.Bytes([]byte("a"))))
	require.True(t, ordkey.Less(ordkey.String("a"), ordkey.String("b")))
	require.True(t, ordkey.Equal(ordkey.String("x"), ordkey.String("x")))
}

func TestKeyRoundTrip(t *testing.T) {
	keys := []ordkey.Key{
		ordkey.Int(-42),
		ordkey.Int(0),
		ordkey.Float(3.14159),
		ordkey.Bytes([]byte{0, 1, 2, 255}),
		ordkey.String("hello world"),
	}
	for _, k := range keys {
		var buf bytes.Buffer
		require.NoError(t, k.Write(&buf))
		decoded, err := ordkey.ReadKey(&buf)
		require.NoError(t, err)
		require.True(t, ordkey.Equal(k, decoded))
		require.Equal(t, k.Kind(), decoded.Kind())
	}
}

func TestCompareTotalOrder(t *testing.T) {
	keys := []ordkey.Key{
		ordkey.Int(-100),
		ordkey.Float(-1.5),
		ordkey.Int(0),
		ordkey.Float(0.5),
		ordkey.Int(10),
		ordkey.String("a"),
		ordkey.String("b"),
		ordkey.Bytes([]byte("z")),
	}
	for i := 0; i < len(keys)-1; i++ {
		require.True(t, ordkey.Compare(keys[i], keys[i+1]) < 0, "expected %v < %v", keys[i], keys[i+1])
	}
}
