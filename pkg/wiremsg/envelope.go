// Package wiremsg holds the registered message types the runtime itself
// depends on: SessionSetup, the master-discovery handshake, and memento
// replication, plus the envelope that prefixes every serialized message
// with its type id. Payload encoding uses github.com/fxamacker/cbor/v2.
package wiremsg

import (
	"encoding/binary"

	"netrun-go/pkg/identity"
	"netrun-go/pkg/neterr"
	"netrun-go/pkg/registry"
)

// ObjectScoped is a registered message addressed to a specific net
// object: its identity is stamped by the sender and read by the runtime
// to route the decoded message to the matching object.
type ObjectScoped interface {
	registry.Message
	Identity() identity.ID
	SetIdentity(identity.ID)
}

// Encode serializes msg as typeID(8 bytes BE) followed by its payload.
func Encode(msg registry.Message) ([]byte, error) {
	body, err := msg.Serialize()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 8+len(body))
	binary.BigEndian.PutUint64(buf, msg.TypeID())
	copy(buf[8:], body)
	return buf, nil
}

// Decode reads the type id prefix, constructs a zero-value message of
// that type from reg, and deserializes the remaining bytes into it.
func Decode(reg *registry.Registry, data []byte) (registry.Message, error) {
	if len(data) < 8 {
		return nil, neterr.NewCodecError("envelope truncated: need 8 bytes for type id, got %d", len(data))
	}
	typeID := binary.BigEndian.Uint64(data[:8])
	msg, err := reg.New(typeID)
	if err != nil {
		return nil, err
	}
	if err := msg.Deserialize(data[8:]); err != nil {
		return nil, err
	}
	return msg, nil
}
