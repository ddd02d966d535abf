// Package channel implements the two per-connection delivery channels:
// unreliable best-effort FIFO delivery, and reliable ordered delivery
// with retransmission and acknowledgement.
package channel

import (
	"github.com/eapache/queue"

	"netrun-go/pkg/codec"
	"netrun-go/pkg/wire"
)

// Unreliable is a per-connection FIFO of best-effort packets. Duplicates
// and packets older than the last-seen sequence are dropped on receive;
// nothing is ever retransmitted.
type Unreliable struct {
	sendQueue *queue.Queue // of *codec.Packet, awaiting a single send
	recvQueue *queue.Queue // of []byte, ready for delivery to the caller

	nextSendSeq uint64
	lastRecvSeq uint64
}

// NewUnreliable returns an empty unreliable channel.
func NewUnreliable() *Unreliable {
	return &Unreliable{
		sendQueue: queue.New(),
		recvQueue: queue.New(),
	}
}

// EnqueueSend assigns the next sequence number and queues payload for a
// single best-effort send. opts MUST NOT carry wire.Reliable.
func (u *Unreliable) EnqueueSend(payload []byte, opts wire.Options) {
	u.nextSendSeq++
	u.sendQueue.Add(&codec.Packet{
		Options:  opts,
		Sequence: u.nextSendSeq,
		Payload:  payload,
	})
}

// TakeNextSend pops the head of the send queue, or returns nil if empty.
// Best-effort packets are sent at most once by the channel.
func (u *Unreliable) TakeNextSend() *codec.Packet {
	if u.sendQueue.Length() == 0 {
		return nil
	}
	return u.sendQueue.Remove().(*codec.Packet)
}

// AcceptRecv appends packet to the receive queue only if its sequence is
// newer than the last one seen; duplicates and reorderings are dropped.
func (u *Unreliable) AcceptRecv(p *codec.Packet) {
	if p.Sequence <= u.lastRecvSeq {
		return
	}
	u.lastRecvSeq = p.Sequence
	u.recvQueue.Add(p.Payload)
}

// TakeNextRecv pops the head of the receive queue, or nil if empty.
func (u *Unreliable) TakeNextRecv() []byte {
	if u.recvQueue.Length() == 0 {
		return nil
	}
	return u.recvQueue.Remove().([]byte)
}
