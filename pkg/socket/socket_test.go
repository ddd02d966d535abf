package socket

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"netrun-go/pkg/socket/simnet"
	"netrun-go/pkg/wire"
)

func TestManagerSendAndReceive(t *testing.T) {
	net := simnet.NewNetwork(1)
	connA := net.Listen("A")
	connB := net.Listen("B")

	mgrA := NewManager(connA)
	mgrB := NewManager(connB)

	now := time.Now()
	mgrA.Send(now, []byte("hello"), connB.LocalAddr(), wire.Reliable)

	for i := 0; i < 3; i++ {
		now = now.Add(10 * time.Millisecond)
		mgrA.Tick(now)
		mgrB.Tick(now)
	}

	payload, from, ok := mgrB.Receive()
	require.True(t, ok)
	require.Equal(t, "hello", string(payload))
	require.Equal(t, connA.LocalAddr().String(), from.String())
}

func TestManagerReportsNewPeers(t *testing.T) {
	net := simnet.NewNetwork(2)
	connA := net.Listen("A")
	connB := net.Listen("B")

	mgrA := NewManager(connA)
	mgrB := NewManager(connB)

	now := time.Now()
	mgrA.Connect(now, connB.LocalAddr())

	newPeers, _ := mgrA.Tick(now)
	require.Len(t, newPeers, 1)
	require.Equal(t, connB.LocalAddr().String(), newPeers[0].String())

	// B only learns of A once a datagram (the heartbeat flushed above)
	// actually arrives.
	now = now.Add(wire.HeartbeatInterval)
	mgrA.Tick(now)
	newPeersB, _ := mgrB.Tick(now)
	require.Len(t, newPeersB, 1)
}

func TestManagerReapsDeadPeer(t *testing.T) {
	net := simnet.NewNetwork(3)
	connA := net.Listen("A")
	connB := net.Listen("B")

	mgrA := NewManagerWithTimeout(connA, 100*time.Millisecond)
	mgrB := NewManagerWithTimeout(connB, 100*time.Millisecond)

	now := time.Now()
	mgrA.Connect(now, connB.LocalAddr())
	mgrA.Tick(now)
	mgrB.Tick(now)

	require.True(t, mgrA.IsConnected(connB.LocalAddr()))

	now = now.Add(200 * time.Millisecond)
	_, dead := mgrA.Tick(now)
	require.Len(t, dead, 1)
	require.False(t, mgrA.IsConnected(connB.LocalAddr()))
}

func TestManagerDeliversUnderLoss(t *testing.T) {
	net := simnet.NewNetwork(42)
	net.SetLoss(0.5)
	connA := net.Listen("A")
	connB := net.Listen("B")

	mgrA := NewManager(connA)
	mgrB := NewManager(connB)

	now := time.Now()
	const n = 20
	for i := 0; i < n; i++ {
		mgrA.Send(now, []byte{byte(i)}, connB.LocalAddr(), wire.Reliable)
	}

	received := make([]byte, 0, n)
	for tick := 0; tick < 500 && len(received) < n; tick++ {
		now = now.Add(5 * time.Millisecond)
		mgrA.Tick(now)
		mgrB.Tick(now)
		for {
			payload, _, ok := mgrB.Receive()
			if !ok {
				break
			}
			received = append(received, payload[0])
		}
	}

	require.Len(t, received, n)
	for i, b := range received {
		require.Equal(t, byte(i), b, "reliable delivery must preserve send order under loss")
	}
}

func TestManagerQueryHandlerRespondsBeforeConnect(t *testing.T) {
	simNet := simnet.NewNetwork(4)
	connA := simNet.Listen("A")
	connB := simNet.Listen("B")

	mgrB := NewManager(connB)
	mgrB.SetQueryHandler(func(data []byte, from net.Addr) ([]byte, bool) {
		if string(data) != "ping" {
			return nil, false
		}
		return []byte("pong"), true
	})
	mgrA := NewManager(connA)

	now := time.Now()
	_, err := connA.WriteTo([]byte("ping"), connB.LocalAddr())
	require.NoError(t, err)

	mgrB.Tick(now)
	mgrA.Tick(now)

	require.False(t, mgrB.IsConnected(connA.LocalAddr()), "a query responder must not create a connection")

	payload, from, ok := mgrA.Receive()
	require.False(t, ok, "query replies never enter the connection-level receive path")
	_ = payload
	_ = from
}
