package realtime

import (
	"testing"

	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnStartsLiveAndUnjoined(t *testing.T) {
	c := NewConn(FamilyBoard, &fakeSocket{})

	assert.NotEmpty(t, c.ID())
	assert.Equal(t, FamilyBoard, c.Family())
	assert.False(t, c.Joined())
	assert.False(t, c.Closed())
	assert.True(t, c.expire(), "a fresh connection is considered alive")
}

func TestConnMembershipIsWriteOnce(t *testing.T) {
	c := NewConn(FamilyBoard, &fakeSocket{})

	require.True(t, c.setMembership("7", 1))
	assert.False(t, c.setMembership("8", 2), "second join must be refused")
	assert.Equal(t, "7", c.RoomKey())
	assert.Equal(t, int64(1), c.UserID())
}

func TestConnLivenessFlag(t *testing.T) {
	c := NewConn(FamilyBoard, &fakeSocket{})

	assert.True(t, c.expire(), "first expire sees the initial flag")
	assert.False(t, c.expire(), "flag stays cleared without traffic")

	c.MarkAlive()
	assert.True(t, c.expire(), "MarkAlive restores the flag")
}

func TestConnSendMarksClosedOnWriteError(t *testing.T) {
	sock := &fakeSocket{failWrites: true}
	c := NewConn(FamilyBoard, sock)

	err := c.Send(Event{Type: TypePong})
	require.Error(t, err)
	assert.True(t, c.Closed())

	// Later sends are skipped silently.
	sock.failWrites = false
	require.NoError(t, c.SendRaw([]byte("{}")))
	assert.Equal(t, 0, sock.frameCount())
}

func TestConnCloseWritesHandshakeOnce(t *testing.T) {
	sock := &fakeSocket{}
	c := NewConn(FamilyBoard, sock)

	c.Close(closePolicyViolation, "Unauthorized")
	c.Close(closePolicyViolation, "Unauthorized")

	assert.True(t, c.Closed())
	assert.True(t, sock.isClosed())
	assert.Equal(t, 1, sock.controlCount(), "close handshake must be written once")
	assert.Equal(t, closePolicyViolation, sock.closeCode())
}

func TestConnTerminateSkipsHandshake(t *testing.T) {
	sock := &fakeSocket{}
	c := NewConn(FamilyBoard, sock)

	c.Terminate()

	assert.True(t, c.Closed())
	assert.True(t, sock.isClosed())
	assert.Equal(t, 0, sock.controlCount(), "terminate must not write a close frame")
}

func TestConnPingSkippedWhenClosed(t *testing.T) {
	sock := &fakeSocket{}
	c := NewConn(FamilyBoard, sock)

	require.NoError(t, c.Ping())
	assert.Equal(t, []int{websocket.PingMessage}, sock.control)

	c.Terminate()
	require.NoError(t, c.Ping())
	assert.Equal(t, 1, sock.controlCount(), "no pings after close")
}
