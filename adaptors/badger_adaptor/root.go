package badger_adaptor

import "github.com/kvtree/pagedtree/common"

// PartitionRoots separates named stable-root keys from the fragment namespace, so a
// root name can never collide with a FID.
const PartitionRoots = byte(0)

// PartitionFragments is the namespace fragments are stored under, keyed by FID.
const PartitionFragments = byte(1)

// PublishRoot atomically writes ref under name in the roots partition. Durable on
// success.
func PublishRoot(w common.KVWriter, name string, ref []byte) {
	common.MakeWriterPartition(w, PartitionRoots).Set([]byte(name), ref)
}

// ReadRoot reads the reference last published under name, or nil if it was never set.
func ReadRoot(r common.KVReader, name string) []byte {
	return common.MakeReaderPartition(r, PartitionRoots).Get([]byte(name))
}

// FragmentNamespace scopes kv to the fragments partition, so a fragref.Store built on
// top of it never shares a keyspace with PublishRoot/ReadRoot's named roots. It keeps
// kv's Iterator (via TraversableReaderPartition), which is handy for tests and
// diagnostics that want to count or walk persisted fragments without a FID in hand.
type FragmentNamespace struct {
	*common.TraversableReaderPartition
	*common.WriterPartition
}

// NewFragmentNamespace wraps kv for use as the backing store of a fragref.Store.
func NewFragmentNamespace(kv common.KVTraversableReader, w common.KVWriter) *FragmentNamespace {
	return &FragmentNamespace{
		TraversableReaderPartition: common.MakeTraversableReaderPartition(kv, PartitionFragments),
		WriterPartition:            common.MakeWriterPartition(w, PartitionFragments),
	}
}
