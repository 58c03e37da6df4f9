package fragref

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/kvtree/pagedtree/common"
)

// DefaultCacheSize is the default LRU bound: least-recently-used eviction once the
// cache holds this many fragments.
const DefaultCacheSize = 1024

// Decoder turns a fragment's raw bytes back into the caller's concrete Node type.
// Supplied once per Store: rbtree and btree each construct their own Store with their
// own Decoder, since the fragment layer itself is agnostic to node shape.
type Decoder func(data []byte) (Node, error)

// Store is the fragment layer: content-addressed indirection over a KV store, with a
// bounded in-process LRU read cache. It is not a global singleton — its cache lives as
// long as the Store handle itself, so a process can run several independently cached
// Stores over distinct KV stores.
type Store struct {
	kvr    common.KVReader
	kvw    common.KVWriter
	cache  *lru.Cache
	decode Decoder
}

// NewStore builds a fragment layer over kv, decoding loaded bytes with decode. kv must
// implement at least KVReader; if it also implements KVWriter, CreateRef can persist
// new fragments through it directly (callers that only read use CreateRefWithWriter
// with an explicit writer, or a read-only Store that never calls CreateRef).
func NewStore(kv common.KVReader, decode Decoder, cacheSize ...int) *Store {
	size := DefaultCacheSize
	if len(cacheSize) > 0 && cacheSize[0] > 0 {
		size = cacheSize[0]
	}
	c, err := lru.New(size)
	common.AssertNoError(err)

	ret := &Store{
		kvr:    kv,
		decode: decode,
		cache:  c,
	}
	if w, ok := kv.(common.KVWriter); ok {
		ret.kvw = w
	}
	return ret
}

// Len reports how many fragments currently sit in the read cache.
func (s *Store) Len() int { return s.cache.Len() }

// Purge drops every cached fragment. Reads after Purge fall through to the store.
func (s *Store) Purge() { s.cache.Purge() }

// CreateRef persists fragment (unless it is already a reference, in which case it is
// returned unchanged) and returns a reference to it. Inlined children are persisted
// first and their slots replaced by references, so only reference and nil slots are
// ever encoded. Persisting the same content twice is idempotent: CreateRef checks the
// cache and the durable store before writing.
func (s *Store) CreateRef(frag Fragment) (Ref, error) {
	if ref, ok := frag.(Ref); ok {
		return ref, nil
	}
	return s.createRef(frag, s.kvw)
}

// CreateRefWithWriter is CreateRef but writes fragments through w instead of the
// Store's own writer — used to batch a mutation's new fragments with the stable-root
// publish into one atomic KVBatchedWriter commit.
func (s *Store) CreateRefWithWriter(frag Fragment, w common.KVWriter) (Ref, error) {
	if ref, ok := frag.(Ref); ok {
		return ref, nil
	}
	return s.createRef(frag, w)
}

func (s *Store) createRef(frag Fragment, w common.KVWriter) (Ref, error) {
	node, ok := frag.(Node)
	if !ok {
		return Ref{}, common.NewKindError(common.InvariantViolation, "fragref: CreateRef called with a non-Node fragment %T", frag)
	}
	for i := 0; i < node.NumChildren(); i++ {
		c := node.ChildAt(i)
		if c.IsNil() || c.IsRef() {
			continue
		}
		childRef, err := s.createRef(c.Inlined(), w)
		if err != nil {
			return Ref{}, err
		}
		node = node.WithChildAt(i, RefChild(childRef))
	}
	fid := computeFID(node)
	key := fid.Bytes()
	if _, hit := s.cache.Get(fid); hit {
		return RefTo(fid), nil
	}
	if !s.kvr.Has(key) {
		if w == nil {
			w = s.kvw
		}
		if w == nil {
			return Ref{}, common.NewKindError(common.StoreUnavailable, "fragref: store is read-only, cannot persist fragment %s", fid)
		}
		w.Set(key, common.MustBytes(node))
	}
	s.cache.Add(fid, node)
	return RefTo(fid), nil
}

// LoadRef resolves a reference via the cache, falling through to the durable store on
// a miss and populating the cache. A reference with no backing fragment is a
// StoreInconsistent failure: the index is corrupt.
func (s *Store) LoadRef(r Ref) (Node, error) {
	if v, hit := s.cache.Get(r.fid); hit {
		return v.(Node), nil
	}
	data := s.kvr.Get(r.fid.Bytes())
	if data == nil {
		return nil, common.NewKindError(common.StoreInconsistent, "fragref: reference %s has no backing fragment", r.fid)
	}
	node, err := s.decode(data)
	if err != nil {
		return nil, common.WrapKindError(common.StoreInconsistent, err)
	}
	s.cache.Add(r.fid, node)
	return node, nil
}

// LoadTreeFragment materializes c: a reference is always resolved, then its child
// slots are recursively materialized depth further levels down. depth == 0 therefore
// still resolves c itself and leaves its child slots as they are; only a nil c is
// returned unchanged. This is the shared primitive rbtree's balance (depth 2), rbtree's
// Find (depth 1) and btree's lookup/insert/delete path descent (depth 0) use to bound
// I/O.
func (s *Store) LoadTreeFragment(c Child, depth int) (Child, error) {
	if c.IsNil() {
		return c, nil
	}
	node := c.Inlined()
	if c.IsRef() {
		resolved, err := s.LoadRef(c.Ref())
		if err != nil {
			return Child{}, err
		}
		node = resolved
	}
	if depth <= 0 {
		return InlinedChild(node), nil
	}
	for i := 0; i < node.NumChildren(); i++ {
		resolvedChild, err := s.LoadTreeFragment(node.ChildAt(i), depth-1)
		if err != nil {
			return Child{}, err
		}
		node = node.WithChildAt(i, resolvedChild)
	}
	return InlinedChild(node), nil
}
