// Package wire defines the on-the-wire option bitmask, the sequence-number
// type, and the tunable timing constants shared by the channel, connection
// and socket layers.
package wire

import "time"

// Options is a bitmask carried on every outbound payload.
type Options uint8

const (
	// Reliable routes the payload through the reliable channel. Its
	// absence means best-effort delivery via the unreliable channel.
	Reliable Options = 1 << iota
	// HighPriority shortens the reliable-channel resend gate from
	// ResendInterval down to HighPriorityResendInterval. Meaningless
	// without Reliable.
	HighPriority
)

// Has reports whether flag is set.
func (o Options) Has(flag Options) bool {
	return o&flag != 0
}

// Sequence is the monotonic counter scoped to one channel of one
// connection.
type Sequence = uint64

// Release-profile timer parameters. Tunable constants, not part of the
// wire protocol.
const (
	HeartbeatInterval          = 100 * time.Millisecond
	KeepAliveTimeout           = 2000 * time.Millisecond
	ResendInterval             = 200 * time.Millisecond
	HighPriorityResendInterval = 10 * time.Millisecond
	MaxDatagram                = 1024
	MaxRead                    = 1024
)

// DebugKeepAliveTimeout relaxes the liveness window for debug builds so a
// breakpoint in one peer doesn't immediately evict it from the other.
const DebugKeepAliveTimeout = 30 * time.Second
