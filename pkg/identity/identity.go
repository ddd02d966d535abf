// Package identity implements the object-identity variants: a polymorphic
// (type-id, variant payload) value with equality and hashing, routable
// through a single map key.
package identity

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/xid"
)

// ID is a polymorphic object identity. Instances with different TypeID
// are never equal; with equal TypeID, Equal defers to the variant's own
// comparison.
type ID interface {
	// TypeID distinguishes the identity variant (not the net object's own
	// message types); colliding TypeIDs between unrelated variants is a
	// correctness bug, same caveat as the message registry's type-id hash.
	TypeID() byte
	// Equal reports whether other names the same object.
	Equal(other ID) bool
	// Hash is a stable 64-bit hash suitable for map keys.
	Hash() uint64
	// Key returns a canonical string usable as a Go map key, prefixed with
	// the variant's TypeID so keys of different variants never collide.
	Key() string
}

// Simple is the plainest identity variant: a type byte plus an instance
// short. Instance defaults to a value derived from a fresh xid when
// constructed via NewSimple.
const simpleTypeID byte = 0x01

type Simple struct {
	Type     byte
	Instance uint16
}

// NewSimple returns a Simple identity with a randomly assigned instance,
// derived from a fresh xid truncated to 16 bits.
func NewSimple(typ byte) Simple {
	id := xid.New()
	b := id.Bytes()
	instance := binary.BigEndian.Uint16(b[len(b)-2:])
	return Simple{Type: typ, Instance: instance}
}

func (s Simple) TypeID() byte { return simpleTypeID }

func (s Simple) Equal(other ID) bool {
	o, ok := other.(Simple)
	if !ok {
		return false
	}
	return s.Type == o.Type && s.Instance == o.Instance
}

func (s Simple) Hash() uint64 {
	var buf [3]byte
	buf[0] = s.Type
	binary.BigEndian.PutUint16(buf[1:], s.Instance)
	return xxhash.Sum64(buf[:])
}

func (s Simple) Key() string {
	return string([]byte{simpleTypeID, s.Type, byte(s.Instance >> 8), byte(s.Instance)})
}

// Keyed is the richer identity variant: a type byte plus an arbitrary
// 64-bit key, e.g. a derived owner handle.
const keyedTypeID byte = 0x02

type Keyed struct {
	Type byte
	Key64 uint64
}

// NewKeyed returns a Keyed identity for the given type and key.
func NewKeyed(typ byte, key uint64) Keyed {
	return Keyed{Type: typ, Key64: key}
}

func (k Keyed) TypeID() byte { return keyedTypeID }

func (k Keyed) Equal(other ID) bool {
	o, ok := other.(Keyed)
	if !ok {
		return false
	}
	return k.Type == o.Type && k.Key64 == o.Key64
}

func (k Keyed) Hash() uint64 {
	var buf [9]byte
	buf[0] = k.Type
	binary.BigEndian.PutUint64(buf[1:], k.Key64)
	return xxhash.Sum64(buf[:])
}

func (k Keyed) Key() string {
	var buf [10]byte
	buf[0] = keyedTypeID
	buf[1] = k.Type
	binary.BigEndian.PutUint64(buf[2:], k.Key64)
	return string(buf[:])
}

// Wire is the cbor-serializable encoding of an ID, letting object-scoped
// messages carry either variant over the wire.
type Wire struct {
	Variant byte
	Simple  *Simple `cbor:",omitempty"`
	Keyed   *Keyed  `cbor:",omitempty"`
}

// ToWire encodes id for transport. An id of neither known variant encodes
// to the zero Wire value, which FromWire rejects.
func ToWire(id ID) Wire {
	switch v := id.(type) {
	case Simple:
		return Wire{Variant: simpleTypeID, Simple: &v}
	case Keyed:
		return Wire{Variant: keyedTypeID, Keyed: &v}
	default:
		return Wire{}
	}
}

// FromWire decodes a Wire back into an ID.
func FromWire(w Wire) (ID, error) {
	switch w.Variant {
	case simpleTypeID:
		if w.Simple == nil {
			return nil, fmt.Errorf("identity: simple variant missing payload")
		}
		return *w.Simple, nil
	case keyedTypeID:
		if w.Keyed == nil {
			return nil, fmt.Errorf("identity: keyed variant missing payload")
		}
		return *w.Keyed, nil
	default:
		return nil, fmt.Errorf("identity: unknown variant %d", w.Variant)
	}
}
