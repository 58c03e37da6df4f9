package btree

// pathEntry records one index-node step taken while descending: the node itself and
// the child index chosen at it.
type pathEntry struct {
	node  *IndexNode
	index int
}

// Path is the alternating root-to-leaf trail: every index level passed through, plus
// the terminal data node. The top of the path is always the data node; for an empty
// tree the path is just that data node with no entries.
type Path struct {
	entries []pathEntry
	leaf    *DataNode
}
