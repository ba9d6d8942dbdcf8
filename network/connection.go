package network

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrPacketTooLarge is returned by Send when the body exceeds MaxPayloadSize.
var ErrPacketTooLarge = errors.New("packet too large")

// Packet 一个完整的消息帧: 2 字节 msgID + 2 字节长度 + body
type Packet struct {
	MsgID uint16
	Data  []byte
}

// Connection is what a session writes to.
type Connection interface {
	Send(msgID uint16, data []byte) error
	Close() error
	RemoteAddr() net.Addr
	SetHeartbeat(interval time.Duration)
	ReadPacket() (*Packet, error)
}

// Encode frames a packet. Bodies larger than MaxPayloadSize are rejected.
func Encode(msgID uint16, data []byte) ([]byte, error) {
	if len(data) > MaxPayloadSize {
		return nil, ErrPacketTooLarge
	}
	buf := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(buf[0:2], msgID)
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(data)))
	copy(buf[4:], data)
	return buf, nil
}

// Decode parses one frame. Trailing bytes past the declared length are ignored.
func Decode(raw []byte) (*Packet, error) {
	if len(raw) < 4 {
		return nil, io.ErrShortBuffer
	}
	size := int(binary.BigEndian.Uint16(raw[2:4]))
	if len(raw) < 4+size {
		return nil, io.ErrShortBuffer
	}
	return &Packet{
		MsgID: binary.BigEndian.Uint16(raw[0:2]),
		Data:  raw[4 : 4+size],
	}, nil
}

// WSConnection 基于 gorilla/websocket 的连接实现
type WSConnection struct {
	conn      *websocket.Conn
	sendMutex sync.Mutex
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	return &WSConnection{conn: conn}
}

// Send 发送一帧，写操作需要加锁，gorilla 不支持并发写
func (c *WSConnection) Send(msgID uint16, data []byte) error {
	buf, err := Encode(msgID, data)
	if err != nil {
		return err
	}
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, buf)
}

func (c *WSConnection) Close() error {
	return c.conn.Close()
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetHeartbeat extends the read deadline on every pong.
func (c *WSConnection) SetHeartbeat(interval time.Duration) {
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * interval))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * interval))
	})
}

// ReadPacket blocks for the next binary frame.
func (c *WSConnection) ReadPacket() (*Packet, error) {
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}
