// Package connection implements the per-peer virtual connection: one
// reliable and one unreliable channel, keep-alive tracking, and
// heartbeat emission.
package connection

import (
	"time"

	"netrun-go/pkg/channel"
	"netrun-go/pkg/codec"
	"netrun-go/pkg/neterr"
	"netrun-go/pkg/wire"
)

// Connection owns one reliable and one unreliable channel for a single
// peer and tracks the timestamps that drive heartbeats and liveness.
type Connection struct {
	reliable   *channel.Reliable
	unreliable *channel.Unreliable

	lastSendTime time.Time
	lastRecvTime time.Time

	keepAliveTimeout time.Duration

	// pingEnabled switches idle heartbeats to a one-byte RTT probe
	// instead. Off by default, preserving the plain timer-only liveness
	// model.
	pingEnabled  bool
	pingSentTime time.Time
	pendingPong  bool
	lastRTT      time.Duration
}

// EnablePing turns the optional ping/pong RTT probe on or off. Disabled
// by default; enabling it never changes liveness or delivery semantics,
// only whether PollOutbound substitutes a 1-byte ping for the idle
// heartbeat.
func (c *Connection) EnablePing(enabled bool) {
	c.pingEnabled = enabled
}

// LastRTT returns the most recently measured ping round-trip time, or
// zero if ping is disabled or no round trip has completed yet.
func (c *Connection) LastRTT() time.Duration {
	return c.lastRTT
}

// New returns a fresh connection as of now, using the release-profile
// keep-alive timeout. Use NewWithTimeout to relax it for debug builds.
func New(now time.Time) *Connection {
	return NewWithTimeout(now, wire.KeepAliveTimeout)
}

// NewWithTimeout returns a fresh connection with a caller-supplied
// liveness window, letting a debug build relax it for breakpoints.
func NewWithTimeout(now time.Time, keepAliveTimeout time.Duration) *Connection {
	return &Connection{
		reliable:         channel.NewReliable(),
		unreliable:       channel.NewUnreliable(),
		lastSendTime:     now,
		lastRecvTime:     now,
		keepAliveTimeout: keepAliveTimeout,
	}
}

// Enqueue routes payload to the reliable channel if opts carries
// wire.Reliable, else to the unreliable channel.
func (c *Connection) Enqueue(payload []byte, opts wire.Options) {
	if opts.Has(wire.Reliable) {
		c.reliable.EnqueueSend(payload, opts)
	} else {
		c.unreliable.EnqueueSend(payload, opts)
	}
}

// DrainReceived classifies an inbound datagram and routes it: a
// heartbeat updates nothing beyond last-receive-time, an ack retires a
// reliable send, and a data packet is accepted by the matching channel.
// Every datagram, malformed or not, first advances last-receive-time.
// CodecError from a malformed datagram is returned for the caller to log
// and swallow; neither channel changes state on that path.
func (c *Connection) DrainReceived(now time.Time, data []byte) error {
	c.lastRecvTime = now

	if c.pingEnabled {
		switch {
		case codec.IsPing(data):
			c.pendingPong = true
			return nil
		case codec.IsPong(data):
			if !c.pingSentTime.IsZero() {
				c.lastRTT = now.Sub(c.pingSentTime)
				c.pingSentTime = time.Time{}
			}
			return nil
		}
	}

	frame, err := codec.Classify(data)
	if err != nil {
		return err
	}

	switch frame.Kind {
	case codec.FrameHeartbeat:
		// no further action
	case codec.FrameAck:
		c.reliable.OnAck(frame.AckSeq)
	case codec.FrameData:
		if frame.Packet.Options.Has(wire.Reliable) {
			c.reliable.AcceptRecv(frame.Packet)
		} else {
			c.unreliable.AcceptRecv(frame.Packet)
		}
	default:
		return neterr.NewCodecError("unrecognized frame kind %v", frame.Kind)
	}
	return nil
}

// PollOutbound returns the next bytestring to put on the wire: a
// reliable-channel send if one is due, else an unreliable-channel send,
// else a heartbeat if the connection has been idle for
// HeartbeatInterval. Whenever it returns non-nil, lastSendTime advances
// to now.
func (c *Connection) PollOutbound(now time.Time) []byte {
	if b := c.reliable.TakeNextSend(now); b != nil {
		c.lastSendTime = now
		return b
	}
	if p := c.unreliable.TakeNextSend(); p != nil {
		c.lastSendTime = now
		return codec.Serialize(p)
	}
	if c.pingEnabled && c.pendingPong {
		c.pendingPong = false
		c.lastSendTime = now
		return codec.MakePong()
	}
	if now.Sub(c.lastSendTime) >= wire.HeartbeatInterval {
		c.lastSendTime = now
		if c.pingEnabled {
			c.pingSentTime = now
			return codec.MakePing()
		}
		return codec.MakeHeartbeat()
	}
	return nil
}

// PollInbound returns the next payload ready for the caller: reliable
// delivery takes priority over unreliable, preserving strict ordering
// within a connection.
func (c *Connection) PollInbound() []byte {
	if b := c.reliable.TakeNextRecv(); b != nil {
		return b
	}
	return c.unreliable.TakeNextRecv()
}

// IsAlive reports whether a datagram has been received within the
// keep-alive window of now.
func (c *Connection) IsAlive(now time.Time) bool {
	return now.Sub(c.lastRecvTime) < c.keepAliveTimeout
}
