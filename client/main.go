package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeJoinRoom   = 101
	MsgTypeLeaveRoom  = 102
	MsgTypeCreateRoom = 103
	MsgTypeCommand    = 201
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func sendJSON(c *websocket.Conn, msgID uint16, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return send(c, msgID, data)
}

// parseLine turns a typed line into a packet.
//
//	create | join [room] | leave
//	draw | end | cancel | confirm
//	play <cardId> | cross <x> <y> [room] | hit <monsterId> <x> <y> | claim <monsterId>
func parseLine(line, name string) (uint16, any, bool) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return 0, nil, false
	}
	cmd := func(verb string, payload any) (uint16, any, bool) {
		return MsgTypeCommand, map[string]any{"verb": verb, "payload": payload}, true
	}
	num := func(i int) int {
		if i >= len(f) {
			return 0
		}
		n, _ := strconv.Atoi(f[i])
		return n
	}

	switch f[0] {
	case "create":
		return MsgTypeCreateRoom, map[string]string{"name": name}, true
	case "join":
		req := map[string]string{"name": name}
		if len(f) > 1 {
			req["room_id"] = f[1]
		}
		return MsgTypeJoinRoom, req, true
	case "leave":
		return MsgTypeLeaveRoom, map[string]string{}, true
	case "draw":
		return cmd("drawCard", nil)
	case "end":
		return cmd("endTurn", nil)
	case "cancel":
		return cmd("cancelCardAction", nil)
	case "confirm":
		return cmd("confirmCardAction", nil)
	case "play":
		if len(f) < 2 {
			return 0, nil, false
		}
		return cmd("playCard", map[string]string{"cardId": f[1]})
	case "cross":
		p := map[string]int{"x": num(1), "y": num(2)}
		if len(f) > 3 {
			p["roomIndex"] = num(3)
		}
		return cmd("crossSquare", p)
	case "hit":
		if len(f) < 4 {
			return 0, nil, false
		}
		return cmd("crossMonsterSquare", map[string]any{"monsterId": f[1], "x": num(2), "y": num(3)})
	case "claim":
		if len(f) < 2 {
			return 0, nil, false
		}
		return cmd("claimMonster", map[string]string{"monsterId": f[1]})
	}
	return 0, nil, false
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	name := flag.String("name", "adventurer", "player name")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			log.Printf("<- RECV (ID: %d): %s", msgID, string(message[4:]))
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	log.Println("Type create, join [room], draw, play <card>, cross <x> <y>, confirm, end ...")

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			msgID, payload, valid := parseLine(line, *name)
			if !valid {
				log.Printf("unknown input %q", line)
				continue
			}
			if err := sendJSON(c, msgID, payload); err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT (ID: %d)", msgID)
		}
	}
}
