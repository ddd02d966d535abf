package runtime

import "net"

// EventType distinguishes the peer-lifecycle events the runtime fires.
// Applications wanting richer event types layer their own dispatcher
// on top.
type EventType int

const (
	PeerConnected EventType = iota
	PeerDisconnected
)

// Event is a peer-lifecycle notification.
type Event struct {
	Type EventType
	Peer net.Addr
}

// EventHandler handles one Event.
type EventHandler func(event Event)

// EventManager fans peer-lifecycle events out to registered handlers.
type EventManager struct {
	handlers map[EventType][]EventHandler
}

func newEventManager() *EventManager {
	return &EventManager{handlers: make(map[EventType][]EventHandler)}
}

// On registers handler for eventType.
func (em *EventManager) On(eventType EventType, handler EventHandler) {
	em.handlers[eventType] = append(em.handlers[eventType], handler)
}

func (em *EventManager) fire(event Event) {
	for _, h := range em.handlers[event.Type] {
		h(event)
	}
}

func (em *EventManager) fireConnected(peer net.Addr) {
	em.fire(Event{Type: PeerConnected, Peer: peer})
}

func (em *EventManager) fireDisconnected(peer net.Addr) {
	em.fire(Event{Type: PeerDisconnected, Peer: peer})
}
