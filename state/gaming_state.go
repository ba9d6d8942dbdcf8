package state

import (
	"encoding/json"
	"fmt"

	"github.com/wfunc/dungeonserver/game"
	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/network"
	"github.com/wfunc/dungeonserver/roll"
)

// CommandReply is sent to the acting session after every command.
type CommandReply struct {
	Verb   string      `json:"verb"`
	Result game.Result `json:"result"`
}

// GamingState 游戏进行状态, hosting one dungeon run.
type GamingState struct {
	RoomStateBase
	Game *game.Game
}

// NewGamingState 创建新的游戏状态
func NewGamingState(room RoomContext) *GamingState {
	return &GamingState{
		RoomStateBase: RoomStateBase{
			ID:   IDGaming,
			Room: room,
		},
	}
}

// OnEnter deals every room member into a new game.
func (s *GamingState) OnEnter() {
	settings := s.Room.Settings()
	seed := settings.Seed
	roller := roll.Default()
	if seed != 0 {
		roller = roll.NewSeeded(seed)
	}
	s.Game = game.New(settings.Game, roller)
	for _, p := range s.Room.GetPlayers() {
		if err := s.Game.AddPlayer(p.GetID(), p.GetName()); err != nil {
			logger.Log.Warnf("room %s: %s not dealt in: %v", s.Room.GetID(), p.GetID(), err)
		}
	}
	logger.Log.Infof("房间 %s 进入游戏状态, %d players, seed %d", s.Room.GetID(), s.Game.PlayerCount(), seed)
	s.send(network.MsgTypeGameStart, s.Game.Snapshot())
}

// OnExit 退出游戏状态
func (s *GamingState) OnExit() {
	logger.Log.Infof("房间 %s 退出游戏状态", s.Room.GetID())
}

// HandleAction decodes a {verb, payload} command and runs it.
func (s *GamingState) HandleAction(player Player, actionData []byte) error {
	var cmd game.Command
	if err := json.Unmarshal(actionData, &cmd); err != nil {
		s.reply(player, CommandReply{Result: game.Result{Error: "Invalid command"}})
		return fmt.Errorf("failed to unmarshal command: %w", err)
	}

	out := s.Game.Handle(player.GetID(), cmd)
	s.reply(player, CommandReply{Verb: cmd.Verb, Result: out.Result})
	if out.Result.Success || len(out.Events) > 0 {
		s.publish(out.Events)
	}
	s.settleIfOver()
	return nil
}

// OnPlayerJoin deals a late joiner in.
func (s *GamingState) OnPlayerJoin(player Player) error {
	if err := s.Game.AddPlayer(player.GetID(), player.GetName()); err != nil {
		return err
	}
	s.publish(nil)
	return nil
}

// OnPlayerLeave drops the player; that may close the round.
func (s *GamingState) OnPlayerLeave(player Player) {
	events := s.Game.RemovePlayer(player.GetID())
	if s.Game.PlayerCount() == 0 {
		logger.Log.Infof("房间 %s: everyone left, run abandoned", s.Room.GetID())
		s.changeState(NewWaitingState(s.Room))
		return
	}
	s.publish(events)
	s.settleIfOver()
}

// publish pushes events in order, then a fresh snapshot.
func (s *GamingState) publish(events []game.Event) {
	for _, ev := range events {
		switch ev.Type {
		case game.EventTurnAdvanced:
			s.send(network.MsgTypeTurnAdvanced, ev.Payload)
		case game.EventMonsterAttackPhase:
			s.send(network.MsgTypeAttackPhase, ev.Payload)
		default:
			logger.Log.Warnf("room %s: unknown event %q", s.Room.GetID(), ev.Type)
		}
	}
	s.send(network.MsgTypeGameSync, s.Game.Snapshot())
}

func (s *GamingState) settleIfOver() {
	if s.Game.Status() == game.StatusInProgress {
		return
	}
	s.changeState(NewSettlementState(s.Room, s.Game.Summary()))
}

func (s *GamingState) reply(player Player, msg CommandReply) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Errorf("Error marshalling command reply: %v", err)
		return
	}
	if err := s.Room.SendTo(player.GetID(), network.MsgTypeCommandResult, data); err != nil {
		logger.Log.Debugf("reply to %s failed: %v", player.GetID(), err)
	}
}

func (s *GamingState) send(msgID uint16, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("Error marshalling message %d: %v", msgID, err)
		return
	}
	if err := s.Room.Broadcast(msgID, data); err != nil {
		logger.Log.Debugf("room %s: broadcast %d failed: %v", s.Room.GetID(), msgID, err)
	}
}
