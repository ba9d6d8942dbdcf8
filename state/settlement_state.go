package state

import (
	"encoding/json"

	"github.com/wfunc/dungeonserver/game"
	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/network"
)

// SettlementState 结算状态: announces the result, archives it, then after
// SettlementTicks reopens the lobby.
type SettlementState struct {
	RoomStateBase
	Summary game.Summary
	timer   int
}

func NewSettlementState(room RoomContext, summary game.Summary) *SettlementState {
	return &SettlementState{
		RoomStateBase: RoomStateBase{
			ID:   IDSettlement,
			Room: room,
		},
		Summary: summary,
	}
}

func (s *SettlementState) OnEnter() {
	s.timer = s.Room.Settings().SettlementTicks
	logger.Log.Infof("房间 %s 游戏结束: %s on day %d after %d turns",
		s.Room.GetID(), s.Summary.Status, s.Summary.Day, s.Summary.Turns)

	data, err := json.Marshal(s.Summary)
	if err != nil {
		logger.Log.Errorf("Error marshalling summary: %v", err)
	} else if err := s.Room.Broadcast(network.MsgTypeGameEnd, data); err != nil {
		logger.Log.Debugf("room %s: game end broadcast failed: %v", s.Room.GetID(), err)
	}

	if rec := s.Room.Recorder(); rec != nil {
		if err := rec.RecordGame(s.Room.GetID(), s.Summary); err != nil {
			logger.Log.Errorf("room %s: archive failed: %v", s.Room.GetID(), err)
		}
	}
}

func (s *SettlementState) OnUpdate() {
	s.timer--
	if s.timer <= 0 {
		s.changeState(NewWaitingState(s.Room))
	}
}
