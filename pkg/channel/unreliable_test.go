package channel

import (
	"testing"

	"netrun-go/pkg/codec"
)

func TestUnreliableSendAtMostOnce(t *testing.T) {
	u := NewUnreliable()
	u.EnqueueSend([]byte("a"), 0)

	if p := u.TakeNextSend(); p == nil {
		t.Fatal("expected a packet on first poll")
	}
	if p := u.TakeNextSend(); p != nil {
		t.Error("best-effort packet must be sent at most once")
	}
}

func TestUnreliableSequenceNumbersMonotonic(t *testing.T) {
	u := NewUnreliable()
	u.EnqueueSend([]byte("a"), 0)
	u.EnqueueSend([]byte("b"), 0)

	p1 := u.TakeNextSend()
	p2 := u.TakeNextSend()
	if p2.Sequence <= p1.Sequence {
		t.Errorf("sequence %d did not increase past %d", p2.Sequence, p1.Sequence)
	}
}

func TestUnreliableDropsOlderAndDuplicate(t *testing.T) {
	u := NewUnreliable()
	u.AcceptRecv(&codec.Packet{Sequence: 5, Payload: []byte("five")})
	u.AcceptRecv(&codec.Packet{Sequence: 5, Payload: []byte("dup")})
	u.AcceptRecv(&codec.Packet{Sequence: 3, Payload: []byte("stale")})
	u.AcceptRecv(&codec.Packet{Sequence: 6, Payload: []byte("six")})

	first := u.TakeNextRecv()
	if string(first) != "five" {
		t.Errorf("first delivered = %q, want %q", first, "five")
	}
	second := u.TakeNextRecv()
	if string(second) != "six" {
		t.Errorf("second delivered = %q, want %q", second, "six")
	}
	if b := u.TakeNextRecv(); b != nil {
		t.Errorf("expected no further delivery, got %q", b)
	}
}

func TestUnreliableRecvQueueEmptyReturnsNil(t *testing.T) {
	u := NewUnreliable()
	if b := u.TakeNextRecv(); b != nil {
		t.Errorf("expected nil on empty queue, got %q", b)
	}
}
