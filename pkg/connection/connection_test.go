package connection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"netrun-go/pkg/codec"
	"netrun-go/pkg/wire"
)

func TestConnectionHeartbeatWhenIdle(t *testing.T) {
	now := time.Now()
	c := New(now)

	if b := c.PollOutbound(now); b != nil {
		t.Errorf("expected no heartbeat immediately, got %d bytes", len(b))
	}

	b := c.PollOutbound(now.Add(wire.HeartbeatInterval))
	require.NotNil(t, b)
	frame, err := codec.Classify(b)
	require.NoError(t, err)
	require.Equal(t, codec.FrameHeartbeat, frame.Kind)
}

func TestConnectionReliableTakesPriorityOverUnreliable(t *testing.T) {
	now := time.Now()
	c := New(now)
	c.Enqueue([]byte("unreliable"), 0)
	c.Enqueue([]byte("reliable"), wire.Reliable)

	b := c.PollOutbound(now)
	frame, err := codec.Classify(b)
	require.NoError(t, err)
	require.Equal(t, codec.FrameData, frame.Kind)
	require.True(t, frame.Packet.Options.Has(wire.Reliable))
}

func TestConnectionDrainReceivedUpdatesLastRecvTime(t *testing.T) {
	start := time.Now()
	c := New(start)

	later := start.Add(wire.KeepAliveTimeout / 2)
	err := c.DrainReceived(later, codec.MakeHeartbeat())
	require.NoError(t, err)

	require.True(t, c.IsAlive(later.Add(wire.KeepAliveTimeout-time.Millisecond)))
}

func TestConnectionIsAliveTransitionsFalseAfterTimeout(t *testing.T) {
	start := time.Now()
	c := New(start)

	require.True(t, c.IsAlive(start.Add(wire.KeepAliveTimeout-time.Millisecond)))
	require.False(t, c.IsAlive(start.Add(wire.KeepAliveTimeout+time.Millisecond)))
}

func TestConnectionAckRetiresReliableSend(t *testing.T) {
	now := time.Now()
	c := New(now)
	c.Enqueue([]byte("reliable"), wire.Reliable)

	sent := c.PollOutbound(now)
	frame, err := codec.Classify(sent)
	require.NoError(t, err)

	ack := codec.MakeAck(frame.Packet.Sequence)
	require.NoError(t, c.DrainReceived(now, ack))

	if b := c.PollOutbound(now.Add(10 * wire.ResendInterval)); b != nil {
		gotFrame, err := codec.Classify(b)
		require.NoError(t, err)
		require.NotEqual(t, codec.FrameData, gotFrame.Kind, "acked packet must not be resent")
	}
}

func TestConnectionInboundReliableBeforeUnreliable(t *testing.T) {
	now := time.Now()
	c := New(now)

	unreliablePkt := codec.Serialize(&codec.Packet{Options: 0, Sequence: 1, Payload: []byte("u")})
	reliablePkt := codec.Serialize(&codec.Packet{Options: wire.Reliable, Sequence: 1, Payload: []byte("r")})

	require.NoError(t, c.DrainReceived(now, unreliablePkt))
	require.NoError(t, c.DrainReceived(now, reliablePkt))

	require.Equal(t, "r", string(c.PollInbound()))
	require.Equal(t, "u", string(c.PollInbound()))
}

func TestConnectionPingPongMeasuresRTT(t *testing.T) {
	now := time.Now()
	a := New(now)
	b := New(now)
	a.EnablePing(true)
	b.EnablePing(true)

	ping := a.PollOutbound(now.Add(wire.HeartbeatInterval))
	require.True(t, codec.IsPing(ping))

	sendTime := now.Add(wire.HeartbeatInterval)
	require.NoError(t, b.DrainReceived(sendTime, ping))

	rtt := sendTime.Add(5 * time.Millisecond)
	pong := b.PollOutbound(rtt)
	require.True(t, codec.IsPong(pong))

	require.NoError(t, a.DrainReceived(rtt, pong))
	require.True(t, a.LastRTT() > 0)
}
