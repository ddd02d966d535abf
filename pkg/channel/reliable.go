package channel

import (
	"time"

	"github.com/eapache/queue"

	"netrun-go/pkg/codec"
	"netrun-go/pkg/metrics"
	"netrun-go/pkg/wire"
)

// pendingPacket is one unacked reliable send. acked tombstones an entry
// that has been acknowledged but not yet compacted out of sendQueue: the
// backing queue.Queue supports O(1) push/pop-front and O(1) indexed peek,
// but not removal from the middle, so on_ack marks the slot instead of
// splicing it out, and takeNextSend compacts acked entries off the front
// opportunistically.
type pendingPacket struct {
	packet       *codec.Packet
	lastSentTime time.Time
	acked        bool
}

// Reliable is a per-connection ordered, reliable channel: unacked sends
// are retransmitted on a priority-aware timer until acked, and receives
// are buffered and handed to the caller strictly in order, exactly once.
type Reliable struct {
	sendQueue *queue.Queue // of *pendingPacket, insertion order
	ackQueue  *queue.Queue // of uint64, pending outbound ack frames

	recvBuffer map[uint64]*codec.Packet

	nextSendSeq     uint64 // pre-increment, starts at 0
	expectedRecvSeq uint64 // starts at 1
}

// NewReliable returns an empty reliable channel.
func NewReliable() *Reliable {
	return &Reliable{
		sendQueue:       queue.New(),
		ackQueue:        queue.New(),
		recvBuffer:      make(map[uint64]*codec.Packet),
		expectedRecvSeq: 1,
	}
}

// EnqueueSend assigns the next sequence number and stores the packet,
// never sent (lastSentTime is the zero time).
func (r *Reliable) EnqueueSend(payload []byte, opts wire.Options) {
	r.nextSendSeq++
	r.sendQueue.Add(&pendingPacket{
		packet: &codec.Packet{
			Options:  opts,
			Sequence: r.nextSendSeq,
			Payload:  payload,
		},
	})
}

// compactAcked drops acked entries sitting at the front of sendQueue.
func (r *Reliable) compactAcked() {
	for r.sendQueue.Length() > 0 {
		head := r.sendQueue.Peek().(*pendingPacket)
		if !head.acked {
			return
		}
		r.sendQueue.Remove()
	}
}

// TakeNextSend returns, in priority order: a pending ack frame if any is
// queued; else the first send-queue packet whose resend gate has
// elapsed, serialized and stamped with lastSentTime = now; else nil. The
// selected data packet remains in the queue until acked.
func (r *Reliable) TakeNextSend(now time.Time) []byte {
	r.compactAcked()

	if r.ackQueue.Length() > 0 {
		seq := r.ackQueue.Remove().(uint64)
		return codec.MakeAck(seq)
	}

	n := r.sendQueue.Length()
	for i := 0; i < n; i++ {
		pp := r.sendQueue.Get(i).(*pendingPacket)
		if pp.acked {
			continue
		}
		threshold := wire.ResendInterval
		if pp.packet.Options.Has(wire.HighPriority) {
			threshold = wire.HighPriorityResendInterval
		}
		if now.Sub(pp.lastSentTime) >= threshold {
			if !pp.lastSentTime.IsZero() {
				metrics.PacketsRetransmitted.Inc()
			}
			pp.lastSentTime = now
			return codec.Serialize(pp.packet)
		}
	}
	return nil
}

// AcceptRecv always queues one ack frame for packet's sequence, and
// inserts packet into the ordered receive buffer keyed by sequence;
// re-receiving the same sequence overwrites idempotently.
func (r *Reliable) AcceptRecv(p *codec.Packet) {
	r.ackQueue.Add(p.Sequence)
	r.recvBuffer[p.Sequence] = p
}

// TakeNextRecv returns the payload for expectedRecvSeq if it has arrived,
// advancing expectedRecvSeq; otherwise nil. This enforces strict
// in-order, exactly-once delivery.
func (r *Reliable) TakeNextRecv() []byte {
	p, ok := r.recvBuffer[r.expectedRecvSeq]
	if !ok {
		return nil
	}
	delete(r.recvBuffer, r.expectedRecvSeq)
	r.expectedRecvSeq++
	return p.Payload
}

// OnAck marks the send-queue entry matching seq as acknowledged. Acks for
// unknown sequences are ignored.
func (r *Reliable) OnAck(seq uint64) {
	n := r.sendQueue.Length()
	for i := 0; i < n; i++ {
		pp := r.sendQueue.Get(i).(*pendingPacket)
		if pp.packet.Sequence == seq {
			pp.acked = true
			return
		}
	}
}
