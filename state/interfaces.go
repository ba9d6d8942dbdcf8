package state

import "github.com/wfunc/dungeonserver/game"

// Player is the part of a session a state needs.
type Player interface {
	GetID() string
	GetName() string
}

// Recorder archives a finished run.
type Recorder interface {
	RecordGame(roomID string, summary game.Summary) error
}

// Settings configures the lifecycle of one room.
type Settings struct {
	Game            game.Config
	LobbyWaitTicks  int
	SettlementTicks int
	// Seed replays the same dungeon; 0 rolls with the shared dice roller.
	Seed int64
}

// RoomContext is what a Room exposes to its states. It lives here to keep
// room and state from importing each other.
type RoomContext interface {
	GetID() string
	GetPlayers() []Player
	GetMaxPlayers() int
	Settings() Settings
	Recorder() Recorder
	ChangeState(newState State) error
	Broadcast(msgID uint16, data []byte) error
	SendTo(sessionID string, msgID uint16, data []byte) error
}
