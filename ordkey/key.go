// Package ordkey implements a total ordering over tree keys: numeric keys compare by
// numeric value across integer and floating point widths, and every other kind falls
// back to a deterministic universal ordering. The same Key type is used by both
// rbtree and btree, so both share one comparator implementation.
package ordkey

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/kvtree/pagedtree/common"
)

// Kind tags which of Key's fields is populated.
type Kind byte

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindBytes
)

// Key is a comparable tree key of one of a fixed set of kinds. It is a value type:
// safe to copy, embed in immutable fragments, and hash as part of a fragment's content.
type Key struct {
	kind Kind
	i    int64
	f    float64
	b    []byte
}

func Int(v int64) Key { return Key{kind: KindInt, i: v} }

func Float(v float64) Key { return Key{kind: KindFloat, f: v} }

func Bytes(v []byte) Key {
	cp := make([]byte, len(v))
	copy(cp, v)
	return Key{kind: KindBytes, b: cp}
}

func String(v string) Key { return Key{kind: KindString, b: []byte(v)} }

func (k Key) Kind() Kind { return k.kind }

// Int64 returns the underlying value if Kind() == KindInt.
func (k Key) Int64() int64 { return k.i }

// Float64 returns the underlying value if Kind() == KindFloat.
func (k Key) Float64() float64 { return k.f }

// Raw returns the underlying bytes if Kind() is KindBytes or KindString.
func (k Key) Raw() []byte { return k.b }

func (k Key) String() string {
	switch k.kind {
	case KindInt:
		return fmt.Sprintf("%d", k.i)
	case KindFloat:
		return fmt.Sprintf("%g", k.f)
	default:
		return string(k.b)
	}
}

func (k Key) numeric() (float64, bool) {
	switch k.kind {
	case KindInt:
		return float64(k.i), true
	case KindFloat:
		return k.f, true
	default:
		return 0, false
	}
}

// Compare returns a negative number, zero, or a positive number as a is less than,
// equal to, or greater than b, implementing a single total order over every Kind.
//
// Numeric kinds (int, float) compare by numeric value regardless of width, applied
// uniformly rather than by the int/float pair's own bit width. Non-numeric kinds
// fall back to comparing by kind first, then raw bytes — deterministic, and otherwise
// an arbitrary but fixed tie-break.
func Compare(a, b Key) int {
	if a.kind == KindInt && b.kind == KindInt {
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		default:
			return 0
		}
	}
	aNum, aIsNum := a.numeric()
	bNum, bIsNum := b.numeric()
	if aIsNum && bIsNum {
		switch {
		case aNum < bNum:
			return -1
		case aNum > bNum:
			return 1
		default:
			return 0
		}
	}
	if aIsNum != bIsNum {
		// universal fallback: numeric kinds sort before non-numeric ones
		if aIsNum {
			return -1
		}
		return 1
	}
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	return bytes.Compare(a.b, b.b)
}

func Less(a, b Key) bool { return Compare(a, b) < 0 }

func Equal(a, b Key) bool { return Compare(a, b) == 0 }

// Write serializes k for content-addressing and durable storage.
func (k Key) Write(w io.Writer) error {
	if err := common.WriteByte(w, byte(k.kind)); err != nil {
		return err
	}
	switch k.kind {
	case KindInt:
		return common.WriteUint64(w, uint64(k.i))
	case KindFloat:
		return common.WriteUint64(w, math.Float64bits(k.f))
	default:
		return common.WriteBytes16(w, k.b)
	}
}

// ReadKey deserializes a Key written by Key.Write.
func ReadKey(r io.Reader) (Key, error) {
	kindByte, err := common.ReadByte(r)
	if err != nil {
		return Key{}, err
	}
	kind := Kind(kindByte)
	switch kind {
	case KindInt:
		v, err := common.ReadUint64(r)
		if err != nil {
			return Key{}, err
		}
		return Int(int64(v)), nil
	case KindFloat:
		v, err := common.ReadUint64(r)
		if err != nil {
			return Key{}, err
		}
		return Float(math.Float64frombits(v)), nil
	case KindBytes:
		b, err := common.ReadBytes16(r)
		if err != nil {
			return Key{}, err
		}
		return Bytes(b), nil
	case KindString:
		b, err := common.ReadBytes16(r)
		if err != nil {
			return Key{}, err
		}
		return String(string(b)), nil
	default:
		return Key{}, common.NewKindError(common.StoreInconsistent, "ordkey: unknown key kind %d", kindByte)
	}
}
