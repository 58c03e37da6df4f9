package fragref

import "io"

// Fragment is anything content-addressable: a stable, deterministic byte encoding is
// all the fragment layer needs to compute a FID and persist the value.
type Fragment interface {
	Write(w io.Writer) error
}

// Ref is a lightweight handle carrying exactly one FID, standing in for a fragment
// not yet resolved. It is distinguishable at runtime from an inlined fragment via
// Child's tag, never by inspecting Ref itself.
type Ref struct {
	fid FID
}

func RefTo(fid FID) Ref { return Ref{fid: fid} }

func (r Ref) FID() FID { return r.fid }

func (r Ref) Write(w io.Writer) error {
	_, err := w.Write(r.fid[:])
	return err
}

// Node is a Fragment that may itself hold child slots, each either an inlined
// fragment or an already-persisted reference. LoadTreeFragment uses this contract to
// bound per-operation I/O without knowing whether it is paging through a red-black
// node or a B-tree node.
type Node interface {
	Fragment
	// NumChildren returns the fixed or current number of child slots.
	NumChildren() int
	// ChildAt returns child slot i.
	ChildAt(i int) Child
	// WithChildAt returns a copy of the node with slot i replaced by c.
	WithChildAt(i int, c Child) Node
}

// Child is a tagged union: a parent fragment holds either an inlined child fragment
// not yet persisted, an already-persisted reference, or nothing (a nil/leaf slot).
type Child struct {
	ref     *Ref
	inlined Node
}

// NilChild represents an absent child slot: neither an inlined fragment nor a
// reference.
var NilChild = Child{}

func InlinedChild(n Node) Child {
	if n == nil {
		return NilChild
	}
	return Child{inlined: n}
}

func RefChild(r Ref) Child {
	return Child{ref: &r}
}

func (c Child) IsNil() bool { return c.ref == nil && c.inlined == nil }

func (c Child) IsRef() bool { return c.ref != nil }

// Ref returns the reference carried by this slot. Valid only if IsRef().
func (c Child) Ref() Ref { return *c.ref }

// Inlined returns the fragment carried by this slot. Valid only if it holds an
// inlined node (neither nil nor a reference).
func (c Child) Inlined() Node { return c.inlined }
