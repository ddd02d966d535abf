// Package socket owns the datagram endpoint and the map of peer
// connections, performing non-blocking I/O on each tick.
package socket

import (
	"errors"
	"net"
	"sort"
	"time"

	"netrun-go/pkg/codec"
	"netrun-go/pkg/connection"
	"netrun-go/pkg/logging"
	"netrun-go/pkg/metrics"
	"netrun-go/pkg/neterr"
	"netrun-go/pkg/wire"
)

// PacketConn is the non-blocking datagram endpoint the manager drives.
// *net.UDPConn and the in-memory pkg/socket/simnet.Conn both satisfy it.
type PacketConn interface {
	ReadFrom(p []byte) (n int, addr net.Addr, err error)
	WriteTo(p []byte, addr net.Addr) (n int, err error)
	SetReadDeadline(t time.Time) error
	LocalAddr() net.Addr
	Close() error
}

// QueryHandler answers a pre-connection query datagram. When installed, it
// is offered every datagram from a peer with no connection yet, before any
// framing is parsed; returning ok=false hands the datagram on to the
// normal connect-and-classify path. It is optional and entirely outside
// the connection/object layers.
type QueryHandler func(data []byte, from net.Addr) (reply []byte, ok bool)

// Manager owns the datagram endpoint and a map of peer to Connection.
type Manager struct {
	conn PacketConn
	log  *logging.Logger

	peers        map[string]*connection.Connection
	addrs        map[string]net.Addr
	pendingNew   []net.Addr
	keepAlive    time.Duration
	queryHandler QueryHandler
	pingEnabled  bool
}

// NewManager returns a manager driving conn, using the release-profile
// keep-alive timeout.
func NewManager(conn PacketConn) *Manager {
	return NewManagerWithTimeout(conn, wire.KeepAliveTimeout)
}

// NewManagerWithTimeout is NewManager with a caller-supplied liveness
// window, letting a debug build relax it.
func NewManagerWithTimeout(conn PacketConn, keepAlive time.Duration) *Manager {
	return &Manager{
		conn:      conn,
		log:       logging.Scoped("socket"),
		peers:     make(map[string]*connection.Connection),
		addrs:     make(map[string]net.Addr),
		keepAlive: keepAlive,
	}
}

// SetQueryHandler installs an optional pre-connection query responder.
func (m *Manager) SetQueryHandler(h QueryHandler) {
	m.queryHandler = h
}

// SetPingEnabled turns the optional ping/pong RTT probe on or off for
// every connection created from this point forward.
// Existing connections are unaffected; call this before any peer
// connects if uniform behavior is desired.
func (m *Manager) SetPingEnabled(enabled bool) {
	m.pingEnabled = enabled
}

// LocalAddr returns the bound local address.
func (m *Manager) LocalAddr() net.Addr {
	return m.conn.LocalAddr()
}

// Connect is idempotent: if peer is unknown, it creates a fresh
// connection and appends peer to the pending-new-peers list.
func (m *Manager) Connect(now time.Time, peer net.Addr) {
	key := peer.String()
	if _, ok := m.peers[key]; ok {
		return
	}
	conn := connection.NewWithTimeout(now, m.keepAlive)
	conn.EnablePing(m.pingEnabled)
	m.peers[key] = conn
	m.addrs[key] = peer
	m.pendingNew = append(m.pendingNew, peer)
}

// Send routes payload to peer's connection, connecting first if unknown.
// No immediate I/O happens here; the datagram is flushed on the next tick.
func (m *Manager) Send(now time.Time, payload []byte, peer net.Addr, opts wire.Options) {
	m.Connect(now, peer)
	m.peers[peer.String()].Enqueue(payload, opts)
}

// Receive scans peers in deterministic (map-iteration-stable-by-key)
// order and returns the first available inbound payload.
func (m *Manager) Receive() (payload []byte, from net.Addr, ok bool) {
	for _, key := range m.sortedKeys() {
		if b := m.peers[key].PollInbound(); b != nil {
			return b, m.addrs[key], true
		}
	}
	return nil, nil, false
}

// IsConnected reports whether peer has a live connection entry.
func (m *Manager) IsConnected(peer net.Addr) bool {
	_, ok := m.peers[peer.String()]
	return ok
}

// Connections returns every currently connected peer address.
func (m *Manager) Connections() []net.Addr {
	out := make([]net.Addr, 0, len(m.addrs))
	for _, key := range m.sortedKeys() {
		out = append(out, m.addrs[key])
	}
	return out
}

// Tick performs one round of I/O: flush every connection's outbound
// queue, drain the kernel receive queue, report newly connected peers,
// and reap dead connections.
func (m *Manager) Tick(now time.Time) (newPeers, deadPeers []net.Addr) {
	m.flushOutbound(now)
	m.drainInbound(now)

	newPeers = m.pendingNew
	m.pendingNew = nil

	for _, key := range m.sortedKeys() {
		if !m.peers[key].IsAlive(now) {
			deadPeers = append(deadPeers, m.addrs[key])
			delete(m.peers, key)
			delete(m.addrs, key)
			metrics.DeadPeerEvictions.Inc()
		}
	}
	metrics.ConnectionsLive.Set(float64(len(m.peers)))

	return newPeers, deadPeers
}

// flushOutbound drains every connection's outbound queue. A peer connected
// since the last tick that has nothing else to send announces itself with
// one heartbeat right away, instead of staying silent for a full
// heartbeat interval.
func (m *Manager) flushOutbound(now time.Time) {
	fresh := make(map[string]bool, len(m.pendingNew))
	for _, p := range m.pendingNew {
		fresh[p.String()] = true
	}
	for _, key := range m.sortedKeys() {
		conn := m.peers[key]
		addr := m.addrs[key]
		announce := fresh[key]
		for {
			b := conn.PollOutbound(now)
			if b == nil && announce {
				b = codec.MakeHeartbeat()
			}
			if b == nil {
				break
			}
			announce = false
			if _, err := m.conn.WriteTo(b, addr); err != nil {
				m.log.Warn("write failed", "peer", addr, "err", neterr.NewTransportError("write to %s: %w", addr, err))
				continue
			}
			metrics.PacketsSent.Inc()
		}
	}
}

func (m *Manager) drainInbound(now time.Time) {
	buf := make([]byte, wire.MaxRead)
	for {
		_ = m.conn.SetReadDeadline(now)
		n, from, err := m.conn.ReadFrom(buf)
		if err != nil {
			if isTimeout(err) {
				return
			}
			m.log.Warn("read failed", "err", neterr.NewTransportError("read: %w", err))
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		metrics.PacketsReceived.Inc()

		if m.queryHandler != nil && !m.IsConnected(from) {
			if reply, ok := m.tryQuery(data, from); ok {
				_, _ = m.conn.WriteTo(reply, from)
				continue
			}
		}

		m.Connect(now, from)
		if err := m.peers[from.String()].DrainReceived(now, data); err != nil {
			m.log.Debug("dropping malformed datagram", "from", from, "err", err)
			metrics.PacketsDropped.Inc()
		}
	}
}

func (m *Manager) tryQuery(data []byte, from net.Addr) ([]byte, bool) {
	defer func() { recover() }()
	return m.queryHandler(data, from)
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// sortedKeys returns peer keys in a deterministic order so Receive/Tick
// behave reproducibly across runs.
func (m *Manager) sortedKeys() []string {
	keys := make([]string, 0, len(m.peers))
	for k := range m.peers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
