// Package neterr implements the error taxonomy of the runtime: transport
// failures, malformed payloads, API misuse, and sends attempted before
// discovery, each a wrapped error type with its own constructor.
package neterr

import "fmt"

// TransportError reports a send/receive failure at the OS. The caller
// logs it and drops the affected datagram; the connection itself is not
// torn down, since liveness timers handle that.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("netrun: transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError wraps the OS-level error f (formatted with a...).
func NewTransportError(f string, a ...interface{}) error {
	return &TransportError{Err: fmt.Errorf(f, a...)}
}

// CodecError reports a malformed payload: truncation, unknown type-id, or
// a length mismatch. The datagram is dropped silently, with no reply and
// no state change, to avoid amplification and keep the receive path total.
type CodecError struct {
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("netrun: codec error: %v", e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// NewCodecError constructs a CodecError.
func NewCodecError(f string, a ...interface{}) error {
	return &CodecError{Err: fmt.Errorf(f, a...)}
}

// ProtocolMisuse reports a master-only API called on a slave, or a
// unicast to an unknown peer. In a debug build this should be surfaced as
// a fatal assertion by the caller; in release it is a no-op, since such
// misuse indicates an application bug a library cannot recover from.
type ProtocolMisuse struct {
	Err error
}

func (e *ProtocolMisuse) Error() string {
	return fmt.Sprintf("netrun: protocol misuse: %v", e.Err)
}

func (e *ProtocolMisuse) Unwrap() error { return e.Err }

// NewProtocolMisuse constructs a ProtocolMisuse.
func NewProtocolMisuse(f string, a ...interface{}) error {
	return &ProtocolMisuse{Err: fmt.Errorf(f, a...)}
}

// UnknownAuthority reports a slave attempting to send before master
// discovery has completed. The caller is expected to tolerate early sends
// being silently dropped.
type UnknownAuthority struct {
	Err error
}

func (e *UnknownAuthority) Error() string {
	return fmt.Sprintf("netrun: unknown authority: %v", e.Err)
}

func (e *UnknownAuthority) Unwrap() error { return e.Err }

// NewUnknownAuthority constructs an UnknownAuthority.
func NewUnknownAuthority(f string, a ...interface{}) error {
	return &UnknownAuthority{Err: fmt.Errorf(f, a...)}
}
