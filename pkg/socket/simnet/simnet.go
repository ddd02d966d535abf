// Package simnet is an in-memory, deterministic stand-in for a kernel UDP
// socket, used to drive scenario tests (handshake, loss, dead-peer
// eviction) without touching a real network.
package simnet

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"
)

// Addr is a simnet peer address: an opaque string, satisfying net.Addr.
type Addr struct {
	id string
}

func (a *Addr) Network() string { return "simnet" }
func (a *Addr) String() string  { return a.id }

// NewAddr returns a simnet address identified by id.
func NewAddr(id string) *Addr { return &Addr{id: id} }

type datagram struct {
	data []byte
	from net.Addr
}

// Network is a shared medium that Conns are attached to. It may uniformly
// drop a configured fraction of datagrams in transit, simulating loss.
type Network struct {
	mu    sync.Mutex
	conns map[string]*Conn
	rng   *rand.Rand
	loss  float64
}

// NewNetwork returns an empty network with no simulated loss.
func NewNetwork(seed int64) *Network {
	return &Network{
		conns: make(map[string]*Conn),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// SetLoss sets the uniform drop probability in [0,1] applied to every
// datagram written to the network.
func (n *Network) SetLoss(rate float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.loss = rate
}

func (n *Network) shouldDrop() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.loss <= 0 {
		return false
	}
	return n.rng.Float64() < n.loss
}

// Listen attaches a new Conn bound to addr. Binding the same address
// twice panics, mirroring the OS refusing a duplicate bind.
func (n *Network) Listen(addr string) *Conn {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.conns[addr]; ok {
		panic(fmt.Sprintf("simnet: address %q already bound", addr))
	}
	c := &Conn{
		net:   n,
		addr:  &Addr{id: addr},
		inbox: make(chan datagram, 4096),
	}
	n.conns[addr] = c
	return c
}

func (n *Network) conn(addr string) (*Conn, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.conns[addr]
	return c, ok
}

func (n *Network) remove(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.conns, addr)
}

// Conn is one endpoint attached to a Network. It implements
// netrun-go/pkg/socket.PacketConn without ever blocking: ReadFrom drains
// whatever has already arrived and otherwise reports a timeout, matching
// the non-blocking contract of the real socket it stands in for.
type Conn struct {
	net    *Network
	addr   *Addr
	inbox  chan datagram
	closed bool
}

// WriteTo hands data to the destination's inbox, unless the network
// simulates loss for this datagram (in which case it is silently
// dropped, same as packet loss on a real network) or the destination is
// unknown.
func (c *Conn) WriteTo(p []byte, addr net.Addr) (int, error) {
	if c.net.shouldDrop() {
		return len(p), nil
	}
	dst, ok := c.net.conn(addr.String())
	if !ok {
		return 0, fmt.Errorf("simnet: no such peer %s", addr)
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	select {
	case dst.inbox <- datagram{data: cp, from: c.addr}:
	default:
		// inbox full: drop, same as a kernel receive buffer overrun
	}
	return len(p), nil
}

// ReadFrom never blocks: it returns the next queued datagram if one is
// available, or a timeout error otherwise.
func (c *Conn) ReadFrom(p []byte) (int, net.Addr, error) {
	select {
	case d := <-c.inbox:
		n := copy(p, d.data)
		return n, d.from, nil
	default:
		return 0, nil, timeoutError{}
	}
}

// SetReadDeadline is a no-op: ReadFrom is always non-blocking.
func (c *Conn) SetReadDeadline(_ time.Time) error { return nil }

// LocalAddr returns the bound address.
func (c *Conn) LocalAddr() net.Addr { return c.addr }

// Close detaches the conn from its network.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.net.remove(c.addr.id)
	return nil
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "simnet: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
