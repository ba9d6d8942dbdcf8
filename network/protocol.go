package network

// 消息类型定义
const (
	MsgTypeHeartbeat = 1

	// 房间
	MsgTypeJoinRoom   = 101
	MsgTypeLeaveRoom  = 102
	MsgTypeCreateRoom = 103
	MsgTypeListRooms  = 104

	// 游戏指令, payload is a game.Command ({verb, payload})
	MsgTypeCommand       = 201
	MsgTypeCommandResult = 202

	// 服务器推送
	MsgTypeRoomState    = 301
	MsgTypeGameStart    = 303
	MsgTypeGameSync     = 304
	MsgTypeGameEnd      = 305
	MsgTypeTurnAdvanced = 306
	MsgTypeAttackPhase  = 307
	MsgTypeError        = 399
)

// MaxPayloadSize is the largest body the 2-byte length header can carry.
const MaxPayloadSize = 1<<16 - 1
