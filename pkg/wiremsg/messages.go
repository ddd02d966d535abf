package wiremsg

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"netrun-go/pkg/identity"
	"netrun-go/pkg/registry"
)

var (
	SessionSetupTypeID        = registry.TypeIDOf("netrun.SessionSetup")
	SetMasterRequestTypeID    = registry.TypeIDOf("netrun.SetMasterRequest")
	SetMasterAssignmentTypeID = registry.TypeIDOf("netrun.SetMasterAssignment")
	MementoUpdateTypeID       = registry.TypeIDOf("netrun.MementoUpdate")
	TextTypeID                = registry.TypeIDOf("netrun.Text")
	ObjectSyncMementoTypeID   = registry.TypeIDOf("netrun.ObjectSyncMemento")
)

// RegisterBuiltins registers every message type the core depends on,
// independent of any application-level net object types. Call this once
// per registry before constructing a Runtime.
func RegisterBuiltins(reg *registry.Registry) {
	reg.Register("netrun.SessionSetup", func() registry.Message { return &SessionSetup{} })
	reg.Register("netrun.SetMasterRequest", func() registry.Message { return &SetMasterRequest{} })
	reg.Register("netrun.SetMasterAssignment", func() registry.Message { return &SetMasterAssignment{} })
	reg.Register("netrun.MementoUpdate", func() registry.Message { return &MementoUpdate{} })
	reg.Register("netrun.Text", func() registry.Message { return &Text{} })
}

// SessionSetup is the runtime-level handshake sent by the host to a
// freshly connected peer: the set of peer addresses already known to
// the host, so the newcomer can discover the rest of the mesh.
type SessionSetup struct {
	Peers []string
}

func (m *SessionSetup) TypeID() uint64 { return SessionSetupTypeID }

func (m *SessionSetup) Serialize() ([]byte, error) { return cbor.Marshal(m) }

func (m *SessionSetup) Deserialize(b []byte) error { return cbor.Unmarshal(b, m) }

func (m *SessionSetup) Clone() registry.Message {
	peers := make([]string, len(m.Peers))
	copy(peers, m.Peers)
	return &SessionSetup{Peers: peers}
}

func (m *SessionSetup) CopyFrom(other registry.Message) error {
	o, ok := other.(*SessionSetup)
	if !ok {
		return fmt.Errorf("wiremsg: CopyFrom type mismatch: %T into *SessionSetup", other)
	}
	m.Peers = append(m.Peers[:0], o.Peers...)
	return nil
}

// SetMasterRequest is sent to the host endpoint, once per tick, by a net
// object's slave replica that has not yet discovered its master.
type SetMasterRequest struct {
	Id identity.Wire
}

func (m *SetMasterRequest) TypeID() uint64 { return SetMasterRequestTypeID }

func (m *SetMasterRequest) Serialize() ([]byte, error) { return cbor.Marshal(m) }

func (m *SetMasterRequest) Deserialize(b []byte) error { return cbor.Unmarshal(b, m) }

func (m *SetMasterRequest) Clone() registry.Message {
	c := *m
	return &c
}

func (m *SetMasterRequest) CopyFrom(other registry.Message) error {
	o, ok := other.(*SetMasterRequest)
	if !ok {
		return fmt.Errorf("wiremsg: CopyFrom type mismatch: %T into *SetMasterRequest", other)
	}
	m.Id = o.Id
	return nil
}

func (m *SetMasterRequest) Identity() identity.ID {
	id, err := identity.FromWire(m.Id)
	if err != nil {
		return nil
	}
	return id
}

func (m *SetMasterRequest) SetIdentity(id identity.ID) { m.Id = identity.ToWire(id) }

// SetMasterAssignment answers a SetMasterRequest, or is sent unprompted
// on an authority migration: the identity's current master address
// asserting itself. Authority is empty in the ordinary discovery reply
// (the sender IS the authority); TransferMaster sets it to name a
// different peer as the new authority, since the announcing datagram's
// sender is the outgoing master, not the incoming one.
type SetMasterAssignment struct {
	Id        identity.Wire
	Authority string
}

func (m *SetMasterAssignment) TypeID() uint64 { return SetMasterAssignmentTypeID }

func (m *SetMasterAssignment) Serialize() ([]byte, error) { return cbor.Marshal(m) }

func (m *SetMasterAssignment) Deserialize(b []byte) error { return cbor.Unmarshal(b, m) }

func (m *SetMasterAssignment) Clone() registry.Message {
	c := *m
	return &c
}

func (m *SetMasterAssignment) CopyFrom(other registry.Message) error {
	o, ok := other.(*SetMasterAssignment)
	if !ok {
		return fmt.Errorf("wiremsg: CopyFrom type mismatch: %T into *SetMasterAssignment", other)
	}
	m.Id = o.Id
	m.Authority = o.Authority
	return nil
}

func (m *SetMasterAssignment) Identity() identity.ID {
	id, err := identity.FromWire(m.Id)
	if err != nil {
		return nil
	}
	return id
}

func (m *SetMasterAssignment) SetIdentity(id identity.ID) { m.Id = identity.ToWire(id) }

// MementoUpdate carries one net object's periodic snapshot replication:
// the memento's own type id plus its serialized bytes, looked up through
// the memento-scoped registry rather than the main message registry.
type MementoUpdate struct {
	Id            identity.Wire
	MementoTypeID uint64
	MementoBytes  []byte
}

func (m *MementoUpdate) TypeID() uint64 { return MementoUpdateTypeID }

func (m *MementoUpdate) Serialize() ([]byte, error) { return cbor.Marshal(m) }

func (m *MementoUpdate) Deserialize(b []byte) error { return cbor.Unmarshal(b, m) }

func (m *MementoUpdate) Clone() registry.Message {
	bytes := make([]byte, len(m.MementoBytes))
	copy(bytes, m.MementoBytes)
	return &MementoUpdate{Id: m.Id, MementoTypeID: m.MementoTypeID, MementoBytes: bytes}
}

func (m *MementoUpdate) CopyFrom(other registry.Message) error {
	o, ok := other.(*MementoUpdate)
	if !ok {
		return fmt.Errorf("wiremsg: CopyFrom type mismatch: %T into *MementoUpdate", other)
	}
	m.Id = o.Id
	m.MementoTypeID = o.MementoTypeID
	m.MementoBytes = append(m.MementoBytes[:0], o.MementoBytes...)
	return nil
}

func (m *MementoUpdate) Identity() identity.ID {
	id, err := identity.FromWire(m.Id)
	if err != nil {
		return nil
	}
	return id
}

func (m *MementoUpdate) SetIdentity(id identity.ID) { m.Id = identity.ToWire(id) }

// Text is a free-form object-scoped message used by the S3 scenario and
// by examples that just need something to send.
type Text struct {
	Id    identity.Wire
	Value string
}

func (m *Text) TypeID() uint64 { return TextTypeID }

func (m *Text) Serialize() ([]byte, error) { return cbor.Marshal(m) }

func (m *Text) Deserialize(b []byte) error { return cbor.Unmarshal(b, m) }

func (m *Text) Clone() registry.Message {
	c := *m
	return &c
}

func (m *Text) CopyFrom(other registry.Message) error {
	o, ok := other.(*Text)
	if !ok {
		return fmt.Errorf("wiremsg: CopyFrom type mismatch: %T into *Text", other)
	}
	m.Id = o.Id
	m.Value = o.Value
	return nil
}

func (m *Text) Identity() identity.ID {
	id, err := identity.FromWire(m.Id)
	if err != nil {
		return nil
	}
	return id
}

func (m *Text) SetIdentity(id identity.ID) { m.Id = identity.ToWire(id) }

// ObjectSyncMemento is a 2D position, velocity, scale and rotation
// snapshot for a replicated net object. It is a plain registry.Message,
// never ObjectScoped: mementos travel inside MementoUpdate.MementoBytes
// and are looked up via a separate memento-scoped registry, not the main
// message registry.
type ObjectSyncMemento struct {
	X, Y   float32
	DX, DY float32
	Scale  float32
	Rot    float32
}

func (m *ObjectSyncMemento) TypeID() uint64 { return ObjectSyncMementoTypeID }

func (m *ObjectSyncMemento) Serialize() ([]byte, error) { return cbor.Marshal(m) }

func (m *ObjectSyncMemento) Deserialize(b []byte) error { return cbor.Unmarshal(b, m) }

func (m *ObjectSyncMemento) Clone() registry.Message {
	c := *m
	return &c
}

func (m *ObjectSyncMemento) CopyFrom(other registry.Message) error {
	o, ok := other.(*ObjectSyncMemento)
	if !ok {
		return fmt.Errorf("wiremsg: CopyFrom type mismatch: %T into *ObjectSyncMemento", other)
	}
	*m = *o
	return nil
}
