package broadcast

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/dungeonserver/network"
	"github.com/wfunc/dungeonserver/room"
	"github.com/wfunc/dungeonserver/session"
	"github.com/wfunc/dungeonserver/state"
)

// recordingConn keeps the ids of frames it was asked to send.
type recordingConn struct {
	mu  sync.Mutex
	ids []uint16
}

func (c *recordingConn) Send(msgID uint16, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, msgID)
	return nil
}
func (c *recordingConn) Close() error                         { return nil }
func (c *recordingConn) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (c *recordingConn) SetHeartbeat(interval time.Duration)  {}
func (c *recordingConn) ReadPacket() (*network.Packet, error) { return nil, nil }

func (c *recordingConn) count(msgID uint16) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, id := range c.ids {
		if id == msgID {
			n++
		}
	}
	return n
}

func setup(t *testing.T) (*RoomBroadcaster, *room.Room, *recordingConn, *recordingConn) {
	t.Helper()
	rooms := room.NewRoomManager()
	sessions := session.NewManager()
	b := NewRoomBroadcaster(rooms, sessions)

	opts := room.Options{Settings: state.Settings{LobbyWaitTicks: 1 << 30}}
	r := rooms.CreateRoom("r1", "test", opts, b)
	t.Cleanup(func() { rooms.RemoveRoom("r1") })

	inConn, outConn := &recordingConn{}, &recordingConn{}
	in := session.NewSession("in", inConn)
	in.SetName("ana")
	out := session.NewSession("out", outConn)
	sessions.Add(in)
	sessions.Add(out)
	if err := r.Join(in); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	return b, r, inConn, outConn
}

func TestBroadcastToRoom(t *testing.T) {
	b, _, inConn, outConn := setup(t)

	if err := b.BroadcastToRoom("r1", network.MsgTypeGameSync, []byte("{}")); err != nil {
		t.Fatalf("BroadcastToRoom failed: %v", err)
	}
	if inConn.count(network.MsgTypeGameSync) != 1 {
		t.Error("the member should receive the frame")
	}
	if outConn.count(network.MsgTypeGameSync) != 0 {
		t.Error("a non-member should not receive the frame")
	}
	if err := b.BroadcastToRoom("missing", network.MsgTypeGameSync, nil); err != ErrRoomNotFound {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}
}

func TestSendToSession(t *testing.T) {
	b, _, _, outConn := setup(t)

	if err := b.SendToSession("out", network.MsgTypeCommandResult, []byte("{}")); err != nil {
		t.Fatalf("SendToSession failed: %v", err)
	}
	if outConn.count(network.MsgTypeCommandResult) != 1 {
		t.Error("expected one direct frame")
	}
	if err := b.SendToSession("ghost", network.MsgTypeCommandResult, nil); err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestBroadcastToAllAndUsers(t *testing.T) {
	b, _, inConn, outConn := setup(t)

	_ = b.BroadcastToAll(network.MsgTypeHeartbeat, nil)
	if inConn.count(network.MsgTypeHeartbeat) != 1 || outConn.count(network.MsgTypeHeartbeat) != 1 {
		t.Error("every session should receive a global broadcast")
	}

	_ = b.BroadcastToUsers([]string{"ana"}, network.MsgTypeGameEnd, nil)
	if inConn.count(network.MsgTypeGameEnd) != 1 {
		t.Error("ana should receive the frame")
	}
	if outConn.count(network.MsgTypeGameEnd) != 0 {
		t.Error("only named users receive the frame")
	}
}
