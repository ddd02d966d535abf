// Package runtime implements the net runtime: a heap-allocated value
// explicitly threaded through constructors rather than a process-level
// singleton, owning the socket manager and the identity-to-net-object
// registry, and driving the top-level tick.
package runtime

import (
	"fmt"
	"net"
	"time"

	"netrun-go/pkg/identity"
	"netrun-go/pkg/logging"
	"netrun-go/pkg/metrics"
	"netrun-go/pkg/netobject"
	"netrun-go/pkg/registry"
	"netrun-go/pkg/socket"
	"netrun-go/pkg/wire"
	"netrun-go/pkg/wiremsg"
)

// Role distinguishes the session bootstrap path.
type Role int

const (
	// HostRole binds to a fixed address and bootstraps newcomers via
	// SessionSetup.
	HostRole Role = iota
	// ParticipantRole binds ephemerally and connects to the host.
	ParticipantRole
)

// Runtime is the net runtime. It implements netobject.Host.
type Runtime struct {
	role      Role
	authority net.Addr

	socket   *socket.Manager
	messages *registry.Registry
	mementos *registry.Registry

	objects map[string]*netobject.Object
	masters map[string]net.Addr // identity key -> last known master addr, host-side only

	events *EventManager

	log *logging.Logger
}

// Options configures Init.
type Options struct {
	// Role selects the session bootstrap path.
	Role Role
	// AuthorityAddr is the host/authority endpoint: what the host binds
	// to, and what participants connect to.
	AuthorityAddr net.Addr
	// Conn is the already-bound datagram endpoint (either a *net.UDPConn
	// or an in-memory pkg/socket/simnet.Conn).
	Conn socket.PacketConn
	// KeepAliveTimeout overrides the release-profile default, letting a
	// debug build relax the liveness window. Zero means use the release
	// default.
	KeepAliveTimeout time.Duration
	// Messages is the message registry to use; if nil, a fresh registry
	// is created and wiremsg.RegisterBuiltins is called on it.
	Messages *registry.Registry
	// Mementos is the memento-scoped registry; if nil, a fresh empty
	// registry is created. Applications register their own memento
	// snapshot types into it before Init, or via Runtime.Mementos().
	Mementos *registry.Registry
	// PingEnabled turns on the optional RTT probe for every connection.
	PingEnabled bool
}

// Init creates a runtime bound to opts.Conn.
func Init(opts Options) *Runtime {
	messages := opts.Messages
	if messages == nil {
		messages = registry.New()
		wiremsg.RegisterBuiltins(messages)
	}
	mementos := opts.Mementos
	if mementos == nil {
		mementos = registry.New()
	}

	var mgr *socket.Manager
	if opts.KeepAliveTimeout > 0 {
		mgr = socket.NewManagerWithTimeout(opts.Conn, opts.KeepAliveTimeout)
	} else {
		mgr = socket.NewManager(opts.Conn)
	}
	mgr.SetPingEnabled(opts.PingEnabled)

	rt := &Runtime{
		role:      opts.Role,
		authority: opts.AuthorityAddr,
		socket:    mgr,
		messages:  messages,
		mementos:  mementos,
		objects:   make(map[string]*netobject.Object),
		masters:   make(map[string]net.Addr),
		events:    newEventManager(),
		log:       logging.Scoped("runtime"),
	}

	if opts.Role == ParticipantRole {
		rt.socket.Connect(time.Now(), opts.AuthorityAddr)
	}

	return rt
}

// Events returns the runtime's peer-lifecycle event manager, so callers
// can subscribe to PeerConnected/PeerDisconnected without polling Tick's
// return value.
func (rt *Runtime) Events() *EventManager { return rt.events }

// Shutdown closes every registered net object and empties the registry.
// It does not close the socket: the datagram endpoint passed in
// Options.Conn stays open until its owner closes it.
func (rt *Runtime) Shutdown() {
	for _, obj := range rt.objects {
		obj.Close()
	}
	rt.objects = make(map[string]*netobject.Object)
}

// --- netobject.Host ---

func (rt *Runtime) LocalAddr() net.Addr { return rt.socket.LocalAddr() }

func (rt *Runtime) AuthorityAddr() net.Addr { return rt.authority }

func (rt *Runtime) Peers() []net.Addr { return rt.socket.Connections() }

func (rt *Runtime) IsKnownPeer(peer net.Addr) bool { return rt.socket.IsConnected(peer) }

// Send is the self-send shortcut: if peer is this process's own
// address, msg is dispatched locally without ever touching the wire.
func (rt *Runtime) Send(msg registry.Message, peer net.Addr, opts wire.Options) {
	if peer.String() == rt.LocalAddr().String() {
		rt.dispatch(msg, peer)
		return
	}
	body, err := wiremsg.Encode(msg)
	if err != nil {
		rt.log.Warn("encode failed", "err", err)
		return
	}
	rt.socket.Send(time.Now(), body, peer, opts)
}

func (rt *Runtime) Register(obj *netobject.Object) {
	rt.objects[obj.Identity().Key()] = obj
}

func (rt *Runtime) Unregister(id identity.ID) {
	delete(rt.objects, id.Key())
}

func (rt *Runtime) MementoRegistry() *registry.Registry { return rt.mementos }

// SetQueryHandler installs an optional pre-connection query responder
// on the underlying socket manager.
func (rt *Runtime) SetQueryHandler(h socket.QueryHandler) {
	rt.socket.SetQueryHandler(h)
}

// Messages returns the main message registry, so applications can
// register their own types before traffic starts.
func (rt *Runtime) Messages() *registry.Registry { return rt.messages }

// Mementos returns the memento-scoped registry.
func (rt *Runtime) Mementos() *registry.Registry { return rt.mementos }

// --- tick ---

// Tick drives one full pass: socket I/O, session bootstrap, inbound
// dispatch, then per-object tick hooks.
func (rt *Runtime) Tick(now time.Time) {
	start := time.Now()
	defer func() { metrics.TickDuration.Observe(time.Since(start).Seconds()) }()

	newPeers, deadPeers := rt.socket.Tick(now)

	if rt.role == HostRole {
		rt.bootstrapNewPeers(now, newPeers)
	} else if len(deadPeers) > 0 {
		// participants never tear down the authority connection here;
		// reconnect is handled by the caller re-invoking Init if needed.
	}

	for _, peer := range newPeers {
		rt.events.fireConnected(peer)
	}
	for _, peer := range deadPeers {
		rt.events.fireDisconnected(peer)
	}

	rt.drainInbound(now)

	for _, obj := range rt.objects {
		obj.Tick(now)
	}
}

func (rt *Runtime) bootstrapNewPeers(now time.Time, newPeers []net.Addr) {
	for _, newcomer := range newPeers {
		others := make([]string, 0, len(rt.objects))
		for _, peer := range rt.socket.Connections() {
			if peer.String() == newcomer.String() {
				continue
			}
			others = append(others, peer.String())
		}
		setup := &wiremsg.SessionSetup{Peers: others}
		rt.Send(setup, newcomer, wire.Reliable)
	}
}

func (rt *Runtime) drainInbound(now time.Time) {
	for {
		payload, from, ok := rt.socket.Receive()
		if !ok {
			return
		}
		msg, err := wiremsg.Decode(rt.messages, payload)
		if err != nil {
			rt.log.Debug("dropping undecodable message", "from", from, "err", err)
			continue
		}
		rt.route(msg, from)
	}
}

func (rt *Runtime) dispatch(msg registry.Message, from net.Addr) {
	rt.route(msg, from)
}

// route sends a decoded message either to its matching net object, if
// object-scoped and the identity is locally registered, to the runtime's
// own handler table (session setup), or, for a SetMasterRequest the host
// cannot satisfy locally, relays it to the last known master address.
func (rt *Runtime) route(msg registry.Message, from net.Addr) {
	if scoped, ok := msg.(wiremsg.ObjectScoped); ok {
		id := scoped.Identity()
		if id == nil {
			rt.log.Debug("dropping object-scoped message with invalid identity")
			return
		}
		if obj, ok := rt.objects[id.Key()]; ok {
			obj.Receive(msg, from)
			return
		}
		rt.relayOrRecordMaster(msg, id, from)
		return
	}

	switch m := msg.(type) {
	case *wiremsg.SessionSetup:
		rt.handleSessionSetup(m)
	default:
		rt.log.Debug("dropping unhandled runtime-level message", "type", fmt.Sprintf("%T", msg))
	}
}

// handleSessionSetup connects to every peer the host named. An address
// that does not resolve as UDP (e.g. a simnet address) is used verbatim.
func (rt *Runtime) handleSessionSetup(m *wiremsg.SessionSetup) {
	now := time.Now()
	for _, addr := range m.Peers {
		var peer net.Addr = peerAddr(addr)
		if resolved, err := net.ResolveUDPAddr("udp", addr); err == nil {
			peer = resolved
		}
		rt.socket.Connect(now, peer)
	}
}

// peerAddr is a peer address carried as its string form.
type peerAddr string

func (a peerAddr) Network() string { return "udp" }
func (a peerAddr) String() string  { return string(a) }

// relayOrRecordMaster is only meaningful on the host: a SetMasterAssignment
// addressed to the host (not matching any locally registered object)
// records which address now masters that identity; a SetMasterRequest
// the host can't satisfy locally is forwarded to that recorded address.
func (rt *Runtime) relayOrRecordMaster(msg registry.Message, id identity.ID, from net.Addr) {
	switch m := msg.(type) {
	case *wiremsg.SetMasterAssignment:
		authority := from
		if m.Authority != "" {
			if resolved, err := net.ResolveUDPAddr("udp", m.Authority); err == nil {
				authority = resolved
			}
		}
		rt.masters[id.Key()] = authority
	case *wiremsg.SetMasterRequest:
		if addr, ok := rt.masters[id.Key()]; ok {
			rt.Send(m, addr, wire.Reliable)
		}
	default:
		rt.log.Debug("dropping object-scoped message for unknown object", "identity", id)
	}
}
