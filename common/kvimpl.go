package common

import (
	"bytes"
	"math/rand"
	"sync"
	"time"
)

// ----------------------------------------------------------------------------
// InMemoryKVStore is a KVStore implementation. Mostly used for testing
var (
	_ KVStore          = &InMemoryKVStore{}
	_ BatchedUpdatable = &InMemoryKVStore{}
	_ Traversable      = &InMemoryKVStore{}
	_ KVBatchedWriter  = &simpleBatchedMemoryWriter{}
	_ KVIterator       = &simpleInMemoryIterator{}
)

type (
	// InMemoryKVStore is thread-safe
	InMemoryKVStore struct {
		mutex sync.RWMutex
		m     map[string][]byte
	}

	simpleBatchedMemoryWriter struct {
		store     *InMemoryKVStore
		mutations *Mutations
	}

	simpleInMemoryIterator struct {
		store  *InMemoryKVStore
		prefix []byte
	}
)

func NewInMemoryKVStore() *InMemoryKVStore {
	return &InMemoryKVStore{
		mutex: sync.RWMutex{},
		m:     make(map[string][]byte),
	}
}

func (im *InMemoryKVStore) IsClosed() bool {
	return false
}

func (im *InMemoryKVStore) Get(k []byte) []byte {
	im.mutex.RLock()
	defer im.mutex.RUnlock()

	r := im.m[string(k)]
	if len(r) == 0 {
		return nil
	}
	ret := make([]byte, len(r))
	copy(ret, r)
	return ret
}

func (im *InMemoryKVStore) Has(k []byte) bool {
	im.mutex.RLock()
	defer im.mutex.RUnlock()

	_, ok := im.m[string(k)]
	return ok
}

func (im *InMemoryKVStore) Iterate(f func(k []byte, v []byte) bool) {
	im.mutex.RLock()
	defer im.mutex.RUnlock()

	for k, v := range im.m {
		if !f([]byte(k), v) {
			return
		}
	}
}

func (im *InMemoryKVStore) IterateKeys(f func(k []byte) bool) {
	im.mutex.RLock()
	defer im.mutex.RUnlock()

	for k := range im.m {
		if !f([]byte(k)) {
			return
		}
	}
}

func (im *InMemoryKVStore) Set(k, v []byte) {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	im.set(k, v)
}

func (im *InMemoryKVStore) set(k, v []byte) {
	if len(v) > 0 {
		vClone := make([]byte, len(v))
		copy(vClone, v)
		im.m[string(k)] = vClone
	} else {
		delete(im.m, string(k))
	}
}

func (im *InMemoryKVStore) Len() int {
	im.mutex.RLock()
	defer im.mutex.RUnlock()

	return len(im.m)
}

func (bw *simpleBatchedMemoryWriter) Set(key, value []byte) {
	bw.mutations.Set(key, value)
}

func (bw *simpleBatchedMemoryWriter) Commit() error {
	bw.store.mutex.Lock()
	defer bw.store.mutex.Unlock()

	bw.mutations.Iterate(func(k []byte, v []byte) bool {
		bw.store.set(k, v)
		return true
	})

	bw.mutations = nil // invalidate
	return nil
}

func (im *InMemoryKVStore) BatchedWriter() KVBatchedWriter {
	ret := &simpleBatchedMemoryWriter{
		store: im,
	}
	ret.mutations = NewMutations()
	return ret
}

func (im *InMemoryKVStore) Iterator(prefix []byte) KVIterator {
	return &simpleInMemoryIterator{
		store:  im,
		prefix: prefix,
	}
}

func (si *simpleInMemoryIterator) Iterate(f func(k []byte, v []byte) bool) {
	si.store.mutex.RLock()
	defer si.store.mutex.RUnlock()

	var key []byte
	for k, v := range si.store.m {
		key = []byte(k)
		if bytes.HasPrefix(key, si.prefix) {
			if !f(key, v) {
				return
			}
		}
	}
}

func (si *simpleInMemoryIterator) IterateKeys(f func(k []byte) bool) {
	si.store.mutex.RLock()
	defer si.store.mutex.RUnlock()

	var key []byte
	for k := range si.store.m {
		key = []byte(k)
		if bytes.HasPrefix(key, si.prefix) {
			if !f(key) {
				return
			}
		}
	}
}

// ----------------------------------------------------------------------------
// RandStreamIterator generates a deterministic stream of random key/value pairs.
// Used by the in-memory KV store's bulk-fill test (kvimpl_test.go) in place of
// committed fixture files.

var _ KVStreamIterator = &RandStreamIterator{}

// KVStreamIterator is an interface to iterate a stream of key/value pairs.
// In general, order is non-deterministic.
type KVStreamIterator interface {
	Iterate(func(k, v []byte) bool) error
}

type RandStreamIterator struct {
	rnd   *rand.Rand
	par   RandStreamParams
	count int
}

// RandStreamParams represents parameters of the RandStreamIterator
type RandStreamParams struct {
	// Seed for deterministic randomization
	Seed int64
	// NumKVPairs maximum number of key value pairs to generate. 0 means infinite
	NumKVPairs int
	// MaxKey maximum length of key (randomly generated)
	MaxKey int
	// MaxValue maximum length of value (randomly generated)
	MaxValue int
}

func NewRandStreamIterator(p ...RandStreamParams) *RandStreamIterator {
	ret := &RandStreamIterator{
		par: RandStreamParams{
			Seed:       time.Now().UnixNano(),
			NumKVPairs: 0, // infinite
			MaxKey:     64,
			MaxValue:   128,
		},
	}
	if len(p) > 0 {
		ret.par = p[0]
	}
	ret.rnd = rand.New(rand.NewSource(ret.par.Seed))
	return ret
}

func (r *RandStreamIterator) Iterate(fun func(k []byte, v []byte) bool) error {
	max := r.par.NumKVPairs
	if max <= 0 {
		max = 1<<31 - 1
	}
	for r.count < max {
		k := make([]byte, r.rnd.Intn(r.par.MaxKey)+1)
		r.rnd.Read(k)
		v := make([]byte, r.rnd.Intn(r.par.MaxValue)+1)
		r.rnd.Read(v)
		if !fun(k, v) {
			return nil
		}
		r.count++
	}
	return nil
}
