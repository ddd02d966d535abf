// Package codec implements the framed packet wire format: a length-based
// discriminator between heartbeat, ack and data datagrams, keeping the hot
// receive path allocation-light and avoiding a magic byte.
package codec

import (
	"encoding/binary"
	"fmt"

	"netrun-go/pkg/neterr"
	"netrun-go/pkg/wire"
)

// ackSize is sizeof(seq): an 8-byte big-endian uint64.
const ackSize = 8

// Packet is a framed data unit: options, a monotonic sequence number, and
// an opaque payload.
type Packet struct {
	Options  wire.Options
	Sequence uint64
	Payload  []byte
}

// Serialize emits options, then sequence, then a length-prefixed payload.
// A data packet's minimum encoded size is 1 (options) + 8 (sequence) + 4
// (length prefix) = 13 bytes, strictly larger than ackSize, so a data
// packet can never be misclassified as an ack.
func Serialize(p *Packet) []byte {
	buf := make([]byte, 1+8+4+len(p.Payload))
	buf[0] = byte(p.Options)
	binary.BigEndian.PutUint64(buf[1:9], p.Sequence)
	binary.BigEndian.PutUint32(buf[9:13], uint32(len(p.Payload)))
	copy(buf[13:], p.Payload)
	return buf
}

// Deserialize is the inverse of Serialize. It fails with a *neterr.CodecError
// on truncation.
func Deserialize(data []byte) (*Packet, error) {
	if len(data) < 13 {
		return nil, neterr.NewCodecError("packet truncated: need at least 13 bytes, got %d", len(data))
	}
	p := &Packet{
		Options:  wire.Options(data[0]),
		Sequence: binary.BigEndian.Uint64(data[1:9]),
	}
	n := binary.BigEndian.Uint32(data[9:13])
	if uint32(len(data)-13) < n {
		return nil, neterr.NewCodecError("packet truncated: payload length %d exceeds remaining %d bytes", n, len(data)-13)
	}
	p.Payload = make([]byte, n)
	copy(p.Payload, data[13:13+n])
	return p, nil
}

// MakeHeartbeat returns the empty heartbeat datagram.
func MakeHeartbeat() []byte {
	return []byte{}
}

// MakeAck encodes a bare sequence number as an ack datagram.
func MakeAck(seq uint64) []byte {
	buf := make([]byte, ackSize)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

// pingByte/pongByte are the optional liveness-probe framing: a single
// byte, distinct in length from all three core framings (0, 8, >=13), so
// Connection can intercept them before handing a datagram to Classify.
const (
	pingByte byte = 0x01
	pongByte byte = 0x02
)

// MakePing returns the one-byte RTT probe datagram.
func MakePing() []byte { return []byte{pingByte} }

// MakePong returns the one-byte RTT probe reply datagram.
func MakePong() []byte { return []byte{pongByte} }

// IsPing reports whether data is a ping probe.
func IsPing(data []byte) bool { return len(data) == 1 && data[0] == pingByte }

// IsPong reports whether data is a pong reply.
func IsPong(data []byte) bool { return len(data) == 1 && data[0] == pongByte }

// FrameKind distinguishes the three framing variants classified by length.
type FrameKind int

const (
	FrameHeartbeat FrameKind = iota
	FrameAck
	FrameData
)

func (k FrameKind) String() string {
	switch k {
	case FrameHeartbeat:
		return "heartbeat"
	case FrameAck:
		return "ack"
	case FrameData:
		return "data"
	default:
		return fmt.Sprintf("FrameKind(%d)", int(k))
	}
}

// Frame is the result of classifying a raw datagram.
type Frame struct {
	Kind   FrameKind
	AckSeq uint64
	Packet *Packet
}

// Classify branches on datagram length first, then decodes: zero length is
// a heartbeat, exactly ackSize is an ack, anything else is a data packet.
func Classify(data []byte) (Frame, error) {
	switch {
	case len(data) == 0:
		return Frame{Kind: FrameHeartbeat}, nil
	case len(data) == ackSize:
		return Frame{Kind: FrameAck, AckSeq: binary.BigEndian.Uint64(data)}, nil
	default:
		p, err := Deserialize(data)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Kind: FrameData, Packet: p}, nil
	}
}
