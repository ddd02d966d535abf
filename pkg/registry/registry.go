// Package registry implements the process-wide type-id <-> constructor
// mapping. Type ids are a stable 64-bit hash of the registered type name,
// using github.com/cespare/xxhash/v2 rather than a hand-rolled polynomial
// hash, avoiding the collision risk a weak hash carries at this layer.
package registry

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"netrun-go/pkg/neterr"
)

// Message is a registered, polymorphic wire message. Serialize/Deserialize
// are an opaque byte-codec contract; Clone and CopyFrom back mementoes.
type Message interface {
	TypeID() uint64
	Serialize() ([]byte, error)
	Deserialize([]byte) error
	Clone() Message
	// CopyFrom copies other's state into the receiver. It MUST fail if
	// other's TypeID differs from the receiver's.
	CopyFrom(other Message) error
}

// TypeIDOf hashes name into a stable 64-bit type id. Registration should
// call this once and store the result rather than rehashing per message.
func TypeIDOf(name string) uint64 {
	return xxhash.Sum64String(name)
}

// Registry is a process-wide type-id -> factory mapping.
type Registry struct {
	mu        sync.RWMutex
	factories map[uint64]func() Message
	names     map[uint64]string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		factories: make(map[uint64]func() Message),
		names:     make(map[uint64]string),
	}
}

// Register associates name's type id with factory. Registering the same
// name twice is a no-op past the first call, mirroring the one-time
// registration pass a runtime performs at startup.
func (r *Registry) Register(name string, factory func() Message) uint64 {
	id := TypeIDOf(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[id]; !ok {
		r.factories[id] = factory
		r.names[id] = name
	}
	return id
}

// New constructs a zero-value message for typeID, or a CodecError if
// typeID is unregistered; the caller drops the datagram in that case.
func (r *Registry) New(typeID uint64) (Message, error) {
	r.mu.RLock()
	factory, ok := r.factories[typeID]
	r.mu.RUnlock()
	if !ok {
		return nil, neterr.NewCodecError("unknown message type id %d", typeID)
	}
	return factory(), nil
}

// NameOf returns the registered name for typeID, for logging.
func (r *Registry) NameOf(typeID uint64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[typeID]
	return name, ok
}
