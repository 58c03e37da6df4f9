package fragref

import (
	"encoding/hex"

	"github.com/kvtree/pagedtree/common"
)

// FID is a fragment identifier: an opaque, fixed-width value derived from a fragment's
// content. Two fragments with identical content share a FID.
type FID [32]byte

func (f FID) Bytes() []byte { return f[:] }

func (f FID) String() string { return hex.EncodeToString(f[:]) }

// FIDFromBytes rebuilds a FID from its 32-byte wire form, e.g. when reading a reference
// back out of a fragment that embedded it.
func FIDFromBytes(b []byte) (FID, error) {
	var f FID
	if len(b) != len(f) {
		return FID{}, common.NewKindError(common.StoreInconsistent, "fragref: bad FID length %d", len(b))
	}
	copy(f[:], b)
	return f, nil
}

// computeFID hashes the fragment's canonical byte encoding: deterministic,
// collision-resistant, pure over content.
func computeFID(f Fragment) FID {
	return common.Blake2b256(common.MustBytes(f))
}
