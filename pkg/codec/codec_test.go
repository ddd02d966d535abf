package codec

import (
	"testing"

	"github.com/go-test/deep"

	"netrun-go/pkg/wire"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	p := &Packet{Options: wire.Reliable, Sequence: 42, Payload: []byte("hello")}

	encoded := Serialize(p)
	decoded, err := Deserialize(encoded)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if diff := deep.Equal(p, decoded); diff != nil {
		t.Errorf("round trip mismatch: %v", diff)
	}
}

func TestDeserializeTruncated(t *testing.T) {
	_, err := Deserialize([]byte{0x01, 0x02, 0x03})
	if err == nil {
		t.Fatal("expected CodecError on truncated input, got nil")
	}
}

func TestMakeHeartbeatIsEmpty(t *testing.T) {
	b := MakeHeartbeat()
	if len(b) != 0 {
		t.Errorf("heartbeat length = %d, want 0", len(b))
	}
}

func TestMakeAckLength(t *testing.T) {
	b := MakeAck(7)
	if len(b) != ackSize {
		t.Errorf("ack length = %d, want %d", len(b), ackSize)
	}
}

func TestClassifyHeartbeat(t *testing.T) {
	frame, err := Classify(MakeHeartbeat())
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if frame.Kind != FrameHeartbeat {
		t.Errorf("Kind = %v, want %v", frame.Kind, FrameHeartbeat)
	}
}

func TestClassifyAck(t *testing.T) {
	frame, err := Classify(MakeAck(123))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if frame.Kind != FrameAck {
		t.Errorf("Kind = %v, want %v", frame.Kind, FrameAck)
	}
	if frame.AckSeq != 123 {
		t.Errorf("AckSeq = %d, want 123", frame.AckSeq)
	}
}

func TestClassifyData(t *testing.T) {
	p := &Packet{Options: 0, Sequence: 9, Payload: []byte("x")}
	frame, err := Classify(Serialize(p))
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if frame.Kind != FrameData {
		t.Errorf("Kind = %v, want %v", frame.Kind, FrameData)
	}
	if frame.Packet.Sequence != 9 {
		t.Errorf("Sequence = %d, want 9", frame.Packet.Sequence)
	}
}

// TestDataNeverCollidesWithAckSize checks the framing invariant: no data
// packet, however small its payload, serializes to exactly ackSize bytes.
func TestDataNeverCollidesWithAckSize(t *testing.T) {
	p := &Packet{Options: 0, Sequence: 0, Payload: nil}
	b := Serialize(p)
	if len(b) == ackSize {
		t.Fatalf("empty-payload data packet serialized to ack size (%d bytes) -- ambiguous framing", ackSize)
	}
	if len(b) <= ackSize {
		t.Fatalf("data packet length %d must exceed ack size %d", len(b), ackSize)
	}
}

func TestPingPongMarkers(t *testing.T) {
	if !IsPing(MakePing()) {
		t.Error("MakePing() not recognized by IsPing")
	}
	if !IsPong(MakePong()) {
		t.Error("MakePong() not recognized by IsPong")
	}
	if IsPing(MakePong()) || IsPong(MakePing()) {
		t.Error("ping/pong markers must not cross-classify")
	}
}
