package netobject

import (
	"net"
	"time"

	"netrun-go/pkg/identity"
	"netrun-go/pkg/logging"
	"netrun-go/pkg/neterr"
	"netrun-go/pkg/registry"
	"netrun-go/pkg/wire"
	"netrun-go/pkg/wiremsg"
)

// Role is a net object's replication role.
type Role int

const (
	Master Role = iota
	Slave
)

func (r Role) String() string {
	if r == Master {
		return "master"
	}
	return "slave"
}

// Handler is invoked for an inbound message addressed to this object.
type Handler func(msg registry.Message, sender net.Addr)

// mementoSlot is a master-owned snapshot registered via RegisterMemento:
// the mutable handle user code writes authoritative state into, plus the
// replication cadence and last-broadcast timestamp.
type mementoSlot struct {
	snapshot     registry.Message
	period       time.Duration
	lastSendTime time.Time
}

// Object is one logical replicated entity: a master replica at exactly
// one peer, zero or more slave replicas elsewhere, all sharing the same
// identity.
type Object struct {
	host Host
	role Role
	id   identity.ID
	log  *logging.Logger

	handlers map[uint64]Handler

	mementos      map[uint64]*mementoSlot     // master only
	slaveMementos map[uint64]registry.Message // slave only, by memento type id

	knownAuthority net.Addr // slave only, nil until discovery completes

	onReplicaAdded func(net.Addr) // master only
	onReplicaLeft  func(net.Addr) // master only
}

// New constructs a net object under id with the given role, registers it
// with host, and wires the master-discovery handlers. Construction
// registers; Close unregisters.
func New(host Host, role Role, id identity.ID) *Object {
	o := &Object{
		host:     host,
		role:     role,
		id:       id,
		log:      logging.Scoped("netobject"),
		handlers: make(map[uint64]Handler),
	}
	if role == Master {
		o.mementos = make(map[uint64]*mementoSlot)
		o.handlers[wiremsg.SetMasterRequestTypeID] = o.handleSetMasterRequest
	} else {
		o.slaveMementos = make(map[uint64]registry.Message)
		o.handlers[wiremsg.SetMasterAssignmentTypeID] = o.handleSetMasterAssignment
	}
	o.handlers[wiremsg.MementoUpdateTypeID] = o.handleMementoUpdate

	host.Register(o)

	if role == Master {
		// Inform the host of this object's master address immediately, so
		// the host can relay future SetMasterRequests for objects it
		// doesn't have locally registered.
		o.SendToAuthority(&wiremsg.SetMasterAssignment{}, wire.Reliable)
	}

	return o
}

// Identity returns the object's identity.
func (o *Object) Identity() identity.ID { return o.id }

// Role returns the object's replication role.
func (o *Object) Role() Role { return o.role }

// On registers an application-level handler for typeID, overwriting any
// previous registration for the same type.
func (o *Object) On(typeID uint64, h Handler) {
	o.handlers[typeID] = h
}

// OnReplicaAdded stores a master-only replica-added callback on the
// object. Nothing in this package or in pkg/runtime calls it; peer
// arrivals are reported through the runtime's PeerConnected event.
func (o *Object) OnReplicaAdded(cb func(net.Addr)) { o.onReplicaAdded = cb }

// OnReplicaLeft stores a master-only replica-left callback on the object.
// Nothing in this package or in pkg/runtime calls it; reaped peers are
// reported through the runtime's PeerDisconnected event.
func (o *Object) OnReplicaLeft(cb func(net.Addr)) { o.onReplicaLeft = cb }

// Close unregisters the object from its host.
func (o *Object) Close() {
	o.host.Unregister(o.id)
}

func (o *Object) stamp(msg registry.Message) {
	if os, ok := msg.(wiremsg.ObjectScoped); ok {
		os.SetIdentity(o.id)
	}
}

// Broadcast sends msg to every known peer. Master-only.
func (o *Object) Broadcast(msg registry.Message, opts wire.Options) {
	if o.role != Master {
		o.log.Warn("Broadcast called on slave object", "err", neterr.NewProtocolMisuse("Broadcast on slave object %v", o.id))
		return
	}
	o.stamp(msg)
	for _, peer := range o.host.Peers() {
		o.host.Send(msg, peer, opts)
	}
}

// BroadcastExcept sends msg to every known peer other than except.
// Master-only.
func (o *Object) BroadcastExcept(msg registry.Message, except net.Addr, opts wire.Options) {
	if o.role != Master {
		o.log.Warn("BroadcastExcept called on slave object", "err", neterr.NewProtocolMisuse("BroadcastExcept on slave object %v", o.id))
		return
	}
	o.stamp(msg)
	exceptKey := except.String()
	for _, peer := range o.host.Peers() {
		if peer.String() == exceptKey {
			continue
		}
		o.host.Send(msg, peer, opts)
	}
}

// Unicast sends msg to peer, which must be a known connection.
// Master-only.
func (o *Object) Unicast(msg registry.Message, peer net.Addr, opts wire.Options) {
	if o.role != Master {
		o.log.Warn("Unicast called on slave object", "err", neterr.NewProtocolMisuse("Unicast on slave object %v", o.id))
		return
	}
	if !o.host.IsKnownPeer(peer) && peer.String() != o.host.LocalAddr().String() {
		o.log.Warn("Unicast to unknown peer", "err", neterr.NewProtocolMisuse("unicast to unknown peer %v", peer))
		return
	}
	o.stamp(msg)
	o.host.Send(msg, peer, opts)
}

// SendToMaster sends msg to the discovered authority address. Slave-only;
// silently dropped if discovery has not yet completed.
func (o *Object) SendToMaster(msg registry.Message, opts wire.Options) {
	if o.role != Slave {
		o.log.Warn("SendToMaster called on master object", "err", neterr.NewProtocolMisuse("SendToMaster on master object %v", o.id))
		return
	}
	if o.knownAuthority == nil {
		o.log.Debug("dropping send: master not yet discovered", "err", neterr.NewUnknownAuthority("object %v", o.id))
		return
	}
	o.stamp(msg)
	o.host.Send(msg, o.knownAuthority, opts)
}

// SendToAuthority sends msg to the host endpoint unconditionally, used
// during discovery.
func (o *Object) SendToAuthority(msg registry.Message, opts wire.Options) {
	o.stamp(msg)
	o.host.Send(msg, o.host.AuthorityAddr(), opts)
}

// Receive dispatches msg to the handler registered for its type id, or
// drops it.
func (o *Object) Receive(msg registry.Message, sender net.Addr) {
	h, ok := o.handlers[msg.TypeID()]
	if !ok {
		o.log.Debug("no handler for message type", "object", o.id, "type", msg.TypeID())
		return
	}
	h(msg, sender)
}

func (o *Object) handleSetMasterRequest(msg registry.Message, sender net.Addr) {
	o.host.Send(&wiremsg.SetMasterAssignment{Id: identity.ToWire(o.id)}, sender, wire.Reliable)
}

func (o *Object) handleSetMasterAssignment(msg registry.Message, sender net.Addr) {
	authority := sender
	if sma, ok := msg.(*wiremsg.SetMasterAssignment); ok && sma.Authority != "" {
		resolved, err := net.ResolveUDPAddr("udp", sma.Authority)
		if err == nil {
			authority = resolved
		}
	}
	o.knownAuthority = authority
}

// TransferMaster hands authority for this object to a different peer.
// Master-only: it broadcasts a SetMasterAssignment naming to to every
// known peer, including itself, and demotes its own bookkeeping to a
// slave watching that new authority.
func (o *Object) TransferMaster(to net.Addr) {
	if o.role != Master {
		o.log.Warn("TransferMaster called on slave object", "err", neterr.NewProtocolMisuse("TransferMaster on slave object %v", o.id))
		return
	}
	msg := &wiremsg.SetMasterAssignment{Id: identity.ToWire(o.id), Authority: to.String()}
	for _, peer := range o.host.Peers() {
		o.host.Send(msg, peer, wire.Reliable)
	}
	o.host.Send(msg, o.host.LocalAddr(), wire.Reliable)

	o.role = Slave
	o.mementos = nil
	o.slaveMementos = make(map[uint64]registry.Message)
	o.knownAuthority = to
	delete(o.handlers, wiremsg.SetMasterRequestTypeID)
	o.handlers[wiremsg.SetMasterAssignmentTypeID] = o.handleSetMasterAssignment
}

// RegisterMemento allocates a memento slot for typeID's snapshot type,
// initially holding snapshot's current (default) value, and returns the
// same pointer so user code can keep mutating it as authoritative state.
// Master-only.
func (o *Object) RegisterMemento(snapshot registry.Message, period time.Duration) registry.Message {
	if o.role != Master {
		o.log.Warn("RegisterMemento called on slave object", "err", neterr.NewProtocolMisuse("RegisterMemento on slave object %v", o.id))
		return snapshot
	}
	o.mementos[snapshot.TypeID()] = &mementoSlot{snapshot: snapshot, period: period}
	return snapshot
}

// Memento returns the slave's current mirrored value for typeID, if any
// MementoUpdate has been received yet.
func (o *Object) Memento(typeID uint64) (registry.Message, bool) {
	m, ok := o.slaveMementos[typeID]
	return m, ok
}

func (o *Object) handleMementoUpdate(msg registry.Message, sender net.Addr) {
	mu, ok := msg.(*wiremsg.MementoUpdate)
	if !ok {
		return
	}
	incoming, err := o.host.MementoRegistry().New(mu.MementoTypeID)
	if err != nil {
		o.log.Debug("dropping memento update: unregistered type", "err", err)
		return
	}
	if err := incoming.Deserialize(mu.MementoBytes); err != nil {
		o.log.Debug("dropping memento update: decode failed", "err", err)
		return
	}
	existing, ok := o.slaveMementos[mu.MementoTypeID]
	if !ok {
		o.slaveMementos[mu.MementoTypeID] = incoming
		return
	}
	if err := existing.CopyFrom(incoming); err != nil {
		o.log.Warn("memento copy-from failed", "err", err)
	}
}

// Tick drives the object's per-tick duties: master memento broadcasts
// past their period, and slave discovery retries while no master is
// known.
func (o *Object) Tick(now time.Time) {
	if o.role == Master {
		o.tickMementos(now)
		return
	}
	if o.knownAuthority == nil {
		o.SendToAuthority(&wiremsg.SetMasterRequest{Id: identity.ToWire(o.id)}, wire.Reliable)
	}
}

func (o *Object) tickMementos(now time.Time) {
	for typeID, slot := range o.mementos {
		if !slot.lastSendTime.IsZero() && now.Sub(slot.lastSendTime) < slot.period {
			continue
		}
		clone := slot.snapshot.Clone()
		body, err := clone.Serialize()
		if err != nil {
			o.log.Warn("memento serialize failed", "err", err)
			continue
		}
		o.Broadcast(&wiremsg.MementoUpdate{MementoTypeID: typeID, MementoBytes: body}, 0)
		slot.lastSendTime = now
	}
}
