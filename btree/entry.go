package btree

import "github.com/kvtree/pagedtree/ordkey"

// entry is one key/value pair of a data node, kept in ascending key order.
type entry struct {
	key   ordkey.Key
	value []byte
}

// sortedSearch returns the index of the first entry with key >= k.
func sortedSearch(entries []entry, k ordkey.Key) int {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if ordkey.Compare(entries[mid].key, k) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// sortedUpsert returns a new ascending slice with k mapped to v, overwriting any
// existing entry for k.
func sortedUpsert(entries []entry, k ordkey.Key, v []byte) []entry {
	i := sortedSearch(entries, k)
	out := make([]entry, 0, len(entries)+1)
	out = append(out, entries[:i]...)
	if i < len(entries) && ordkey.Equal(entries[i].key, k) {
		out = append(out, entry{key: k, value: v})
		out = append(out, entries[i+1:]...)
	} else {
		out = append(out, entry{key: k, value: v})
		out = append(out, entries[i:]...)
	}
	return out
}

// sortedRemove returns a new ascending slice with k removed, if present.
func sortedRemove(entries []entry, k ordkey.Key) []entry {
	i := sortedSearch(entries, k)
	if i >= len(entries) || !ordkey.Equal(entries[i].key, k) {
		return entries
	}
	out := make([]entry, 0, len(entries)-1)
	out = append(out, entries[:i]...)
	out = append(out, entries[i+1:]...)
	return out
}
