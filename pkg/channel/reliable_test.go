package channel

import (
	"testing"
	"time"

	"netrun-go/pkg/codec"
	"netrun-go/pkg/wire"
)

func TestReliableSendUntilAcked(t *testing.T) {
	r := NewReliable()
	r.EnqueueSend([]byte("a"), wire.Reliable)

	now := time.Now()
	first := r.TakeNextSend(now)
	if first == nil {
		t.Fatal("expected a send on first poll")
	}

	// Before the resend gate elapses, nothing more should go out.
	if b := r.TakeNextSend(now.Add(1 * time.Millisecond)); b != nil {
		t.Error("expected no resend before ResendInterval elapses")
	}

	resend := r.TakeNextSend(now.Add(wire.ResendInterval))
	if resend == nil {
		t.Fatal("expected a resend once ResendInterval elapsed")
	}

	frame, err := codec.Classify(resend)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	r.OnAck(frame.Packet.Sequence)

	if b := r.TakeNextSend(now.Add(10 * wire.ResendInterval)); b != nil {
		t.Error("expected no further resend after ack")
	}
}

func TestReliableHighPriorityShorterGate(t *testing.T) {
	r := NewReliable()
	r.EnqueueSend([]byte("hp"), wire.Reliable|wire.HighPriority)

	now := time.Now()
	r.TakeNextSend(now) // first send

	if b := r.TakeNextSend(now.Add(wire.HighPriorityResendInterval / 2)); b != nil {
		t.Error("expected no resend before HighPriorityResendInterval elapses")
	}
	if b := r.TakeNextSend(now.Add(wire.HighPriorityResendInterval)); b == nil {
		t.Error("expected a resend once HighPriorityResendInterval elapsed")
	}
}

func TestReliableAckPrioritizedOverResend(t *testing.T) {
	r := NewReliable()
	r.EnqueueSend([]byte("a"), wire.Reliable)
	now := time.Now()
	r.TakeNextSend(now)

	r.AcceptRecv(&codec.Packet{Sequence: 1, Payload: []byte("incoming")})

	b := r.TakeNextSend(now.Add(wire.ResendInterval))
	frame, err := codec.Classify(b)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if frame.Kind != codec.FrameAck {
		t.Errorf("expected the queued ack to be returned first, got %v", frame.Kind)
	}
}

func TestReliableInOrderExactlyOnceDelivery(t *testing.T) {
	r := NewReliable()
	r.AcceptRecv(&codec.Packet{Sequence: 2, Payload: []byte("second")})
	r.AcceptRecv(&codec.Packet{Sequence: 1, Payload: []byte("first")})

	if b := r.TakeNextRecv(); string(b) != "first" {
		t.Errorf("TakeNextRecv = %q, want %q", b, "first")
	}
	if b := r.TakeNextRecv(); string(b) != "second" {
		t.Errorf("TakeNextRecv = %q, want %q", b, "second")
	}
	if b := r.TakeNextRecv(); b != nil {
		t.Errorf("expected nil once buffer drained, got %q", b)
	}
}

func TestReliableDuplicateReceiveIsIdempotent(t *testing.T) {
	r := NewReliable()
	r.AcceptRecv(&codec.Packet{Sequence: 1, Payload: []byte("first")})
	r.AcceptRecv(&codec.Packet{Sequence: 1, Payload: []byte("first")})

	r.TakeNextRecv()
	if b := r.TakeNextRecv(); b != nil {
		t.Errorf("duplicate receive produced a second delivery: %q", b)
	}
}

func TestReliableOnAckUnknownSequenceIgnored(t *testing.T) {
	r := NewReliable()
	r.EnqueueSend([]byte("a"), wire.Reliable)
	r.OnAck(999) // should not panic or affect anything

	now := time.Now()
	if b := r.TakeNextSend(now); b == nil {
		t.Error("unrelated ack must not retire the real pending packet")
	}
}
