package state

import (
	"errors"
	"sync"

	"github.com/wfunc/dungeonserver/logger"
)

// 状态 ID
const (
	IDWaiting    = "waiting"
	IDGaming     = "gaming"
	IDSettlement = "settlement"
)

// StateMachine 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from State, to State, condition func() bool) error
}

// State 状态接口. Every method runs on the owning room's loop goroutine.
type State interface {
	OnEnter()
	OnExit()
	OnUpdate()
	GetID() string
	HandleAction(player Player, actionData []byte) error
	OnPlayerJoin(player Player) error
	OnPlayerLeave(player Player)
}

var (
	// ErrTransitionNotAllowed is returned when a state transition is not allowed.
	ErrTransitionNotAllowed = errors.New("state transition not allowed")
	// ErrNotPlaying is returned for game commands outside the gaming state.
	ErrNotPlaying = errors.New("game not in progress")
)

// BaseStateMachine 基础状态机实现
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]func() bool // fromState -> toState -> condition
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

// ChangeState runs OnExit and OnEnter outside the lock, so a state may
// read the machine from its hooks.
func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	old := sm.currentState
	if conditions, exists := sm.transitions[old.GetID()]; exists {
		if condition, exists := conditions[newState.GetID()]; exists {
			if condition != nil && !condition() {
				sm.mutex.Unlock()
				return ErrTransitionNotAllowed
			}
		}
	}
	sm.currentState = newState
	sm.mutex.Unlock()

	old.OnExit()
	newState.OnEnter()
	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

func (sm *BaseStateMachine) AddTransition(from State, to State, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	fromID := from.GetID()
	toID := to.GetID()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]func() bool)
	}

	sm.transitions[fromID][toID] = condition
	return nil
}

// RoomStateBase 房间状态基础结构
type RoomStateBase struct {
	ID   string
	Room RoomContext
}

func (s *RoomStateBase) GetID() string {
	return s.ID
}

func (s *RoomStateBase) OnEnter() {}

func (s *RoomStateBase) OnExit() {}

func (s *RoomStateBase) OnUpdate() {}

func (s *RoomStateBase) HandleAction(player Player, actionData []byte) error {
	return ErrNotPlaying
}

func (s *RoomStateBase) OnPlayerJoin(player Player) error {
	return nil
}

func (s *RoomStateBase) OnPlayerLeave(player Player) {}

// changeState logs a refused transition; the caller stays in its state.
func (s *RoomStateBase) changeState(next State) bool {
	if err := s.Room.ChangeState(next); err != nil {
		logger.Log.Warnf("room %s: %s -> %s refused: %v", s.Room.GetID(), s.ID, next.GetID(), err)
		return false
	}
	return true
}

// NewWaitingState creates a new waiting state.
func NewWaitingState(room RoomContext) *WaitingState {
	return &WaitingState{
		RoomStateBase: RoomStateBase{
			ID:   IDWaiting,
			Room: room,
		},
	}
}

// WaitingState 等待状态: the lobby counts down once someone is present and
// starts at once when the room is full.
type WaitingState struct {
	RoomStateBase
	timer int
}

func (s *WaitingState) OnEnter() {
	s.timer = s.Room.Settings().LobbyWaitTicks
}

// Remaining is the number of ticks left on the countdown.
func (s *WaitingState) Remaining() int {
	return s.timer
}

func (s *WaitingState) OnPlayerLeave(player Player) {
	if len(s.Room.GetPlayers()) == 0 {
		s.timer = s.Room.Settings().LobbyWaitTicks
	}
}

func (s *WaitingState) OnUpdate() {
	players := len(s.Room.GetPlayers())
	if players == 0 {
		return
	}
	s.timer--
	if s.timer <= 0 || players >= s.Room.GetMaxPlayers() {
		s.changeState(NewGamingState(s.Room))
	}
}
