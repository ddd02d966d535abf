// Package netobject implements the replicated-object layer: one master
// replica plus zero or more slave replicas per logical identity, message
// dispatch by (identity, type id), and periodic memento replication.
package netobject

import (
	"net"

	"netrun-go/pkg/identity"
	"netrun-go/pkg/registry"
	"netrun-go/pkg/wire"
)

// Host is the subset of the runtime a net object needs. Defined here,
// rather than imported from pkg/runtime, so this package never imports
// the runtime package; pkg/runtime implements Host instead, avoiding an
// import cycle.
type Host interface {
	// LocalAddr is this process's own bound address, used to detect the
	// self-send shortcut.
	LocalAddr() net.Addr
	// AuthorityAddr is the host/authority endpoint, used unconditionally
	// by SendToAuthority during discovery.
	AuthorityAddr() net.Addr
	// Peers lists every currently connected peer address.
	Peers() []net.Addr
	// IsKnownPeer reports whether peer has a live connection.
	IsKnownPeer(peer net.Addr) bool
	// Send stamps nothing itself; callers must have already stamped
	// identity. It serializes msg and hands it to the socket layer (or
	// dispatches locally for the self-send shortcut).
	Send(msg registry.Message, peer net.Addr, opts wire.Options)
	// Register adds obj to the runtime's identity -> object registry.
	Register(obj *Object)
	// Unregister removes id from the runtime's registry.
	Unregister(id identity.ID)
	// MementoRegistry is the registry used to construct/decode memento
	// snapshots, kept separate from the main message registry.
	MementoRegistry() *registry.Registry
}
