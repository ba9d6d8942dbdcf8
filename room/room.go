package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/network"
	"github.com/wfunc/dungeonserver/session"
	"github.com/wfunc/dungeonserver/state"
)

var (
	ErrRoomFull   = errors.New("room is full")
	ErrRoomClosed = errors.New("room is closed")
	ErrNotInRoom  = errors.New("session not in room")
)

// RoomStatus 表示房间的业务状态，例如等待、游戏中等
type RoomStatus int

const (
	StatusIdle RoomStatus = iota
	StatusWaiting
	StatusGaming
	StatusSettlement
)

func (s RoomStatus) String() string {
	switch s {
	case StatusWaiting:
		return state.IDWaiting
	case StatusGaming:
		return state.IDGaming
	case StatusSettlement:
		return state.IDSettlement
	default:
		return "idle"
	}
}

func statusFor(stateID string) RoomStatus {
	switch stateID {
	case state.IDWaiting:
		return StatusWaiting
	case state.IDGaming:
		return StatusGaming
	case state.IDSettlement:
		return StatusSettlement
	default:
		return StatusIdle
	}
}

// Options configures a room.
type Options struct {
	Settings     state.Settings
	Recorder     state.Recorder
	TickInterval time.Duration
	// OnAction, if set, observes how long each player action took.
	OnAction func(time.Duration)
}

// Info is the public listing of a room.
type Info struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
}

// Room 是游戏房间的核心结构. Every state change runs on the room's own
// goroutine; other goroutines submit jobs to it.
type Room struct {
	ID           string
	Name         string
	MaxPlayers   int
	StateMachine *state.BaseStateMachine
	CreatedAt    time.Time

	status      RoomStatus
	players     map[string]*session.Session // sessionID -> session
	order       []string
	opts        Options
	broadcaster Broadcaster
	statusMutex sync.RWMutex
	playerMutex sync.RWMutex
	jobs        chan func()
	ticker      *time.Ticker
	closeChan   chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
}

// NewRoom 创建一个新房间并启动主循环
func NewRoom(id, name string, opts Options, broadcaster Broadcaster) *Room {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 100 * time.Millisecond // 10 FPS
	}
	maxPlayers := opts.Settings.Game.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = 4
		opts.Settings.Game.MaxPlayers = maxPlayers
	}
	r := &Room{
		ID:          id,
		Name:        name,
		MaxPlayers:  maxPlayers,
		CreatedAt:   time.Now(),
		players:     make(map[string]*session.Session),
		opts:        opts,
		broadcaster: broadcaster,
		jobs:        make(chan func(), 64),
		closeChan:   make(chan struct{}),
		done:        make(chan struct{}),
	}

	// 初始化状态机，将房间自身(room)作为上下文传入
	waiting := state.NewWaitingState(r)
	r.StateMachine = state.NewBaseStateMachine(waiting)
	r.StateMachine.AddTransition(waiting, state.NewGamingState(r), func() bool {
		return r.PlayerCount() > 0
	})
	r.setStatus(StatusWaiting)

	r.ticker = time.NewTicker(opts.TickInterval)
	go r.loop()

	return r
}

// --- 实现 state.RoomContext 接口 ---

func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) GetMaxPlayers() int {
	return r.MaxPlayers
}

// GetPlayers returns the members in join order.
func (r *Room) GetPlayers() []state.Player {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	players := make([]state.Player, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, r.players[id])
	}
	return players
}

func (r *Room) Settings() state.Settings {
	return r.opts.Settings
}

func (r *Room) Recorder() state.Recorder {
	return r.opts.Recorder
}

// ChangeState 改变房间的状态机状态
func (r *Room) ChangeState(newState state.State) error {
	if err := r.StateMachine.ChangeState(newState); err != nil {
		return err
	}
	r.setStatus(statusFor(newState.GetID()))
	r.broadcastInfo()
	return nil
}

func (r *Room) Broadcast(msgID uint16, data []byte) error {
	return r.broadcaster.BroadcastToRoom(r.ID, msgID, data)
}

func (r *Room) SendTo(sessionID string, msgID uint16, data []byte) error {
	return r.broadcaster.SendToSession(sessionID, msgID, data)
}

// --- 对外接口, all routed through the loop ---

// Join adds a session and waits for the answer.
func (r *Room) Join(s *session.Session) error {
	return r.call(func() error { return r.join(s) })
}

// Leave removes a session and waits until the room has processed it.
func (r *Room) Leave(sessionID string) error {
	return r.call(func() error { return r.leave(sessionID) })
}

// HandleAction queues a player action for the current state.
func (r *Room) HandleAction(sessionID string, data []byte) error {
	return r.Submit(func() {
		start := time.Now()
		p, exists := r.GetPlayer(sessionID)
		if !exists {
			logger.Log.Warnf("room %s: action from non-member %s", r.ID, sessionID)
			return
		}
		if err := r.StateMachine.GetCurrentState().HandleAction(p, data); err != nil {
			logger.Log.Infof("room %s: action from %s: %v", r.ID, sessionID, err)
			if errors.Is(err, state.ErrNotPlaying) {
				r.sendError(sessionID, err)
			}
		}
		if r.opts.OnAction != nil {
			r.opts.OnAction(time.Since(start))
		}
	})
}

// Submit queues a job on the room goroutine.
func (r *Room) Submit(job func()) error {
	select {
	case <-r.closeChan:
		return ErrRoomClosed
	default:
	}
	select {
	case r.jobs <- job:
		return nil
	case <-r.closeChan:
		return ErrRoomClosed
	}
}

func (r *Room) call(fn func() error) error {
	errc := make(chan error, 1)
	if err := r.Submit(func() { errc <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-errc:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

func (r *Room) join(s *session.Session) error {
	r.playerMutex.Lock()
	if _, exists := r.players[s.ID]; exists {
		r.playerMutex.Unlock()
		return nil
	}
	if len(r.players) >= r.MaxPlayers {
		r.playerMutex.Unlock()
		return ErrRoomFull
	}
	r.players[s.ID] = s
	r.order = append(r.order, s.ID)
	r.playerMutex.Unlock()

	if err := r.StateMachine.GetCurrentState().OnPlayerJoin(s); err != nil {
		r.dropMember(s.ID)
		return fmt.Errorf("join refused: %w", err)
	}

	s.SetRoomID(r.ID)
	logger.Log.Infof("Session %s joined room %s", s.GetID(), r.ID)
	r.broadcastInfo()
	return nil
}

// dropMember removes a session from the member list and returns it.
func (r *Room) dropMember(sessionID string) (*session.Session, bool) {
	r.playerMutex.Lock()
	defer r.playerMutex.Unlock()
	s, exists := r.players[sessionID]
	if !exists {
		return nil, false
	}
	delete(r.players, sessionID)
	for i, id := range r.order {
		if id == sessionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return s, true
}

func (r *Room) leave(sessionID string) error {
	s, exists := r.dropMember(sessionID)
	if !exists {
		return ErrNotInRoom
	}
	s.SetRoomID("")
	r.StateMachine.GetCurrentState().OnPlayerLeave(s)
	logger.Log.Infof("Session %s left room %s", sessionID, r.ID)
	r.broadcastInfo()
	return nil
}

// GetPlayer 获取单个玩家
func (r *Room) GetPlayer(sessionID string) (*session.Session, bool) {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	player, exists := r.players[sessionID]
	return player, exists
}

// GetSessions returns a slice of all sessions in the room (thread-safe).
func (r *Room) GetSessions() []*session.Session {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	sessions := make([]*session.Session, 0, len(r.players))
	for _, s := range r.players {
		sessions = append(sessions, s)
	}
	return sessions
}

func (r *Room) PlayerCount() int {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()
	return len(r.players)
}

func (r *Room) setStatus(status RoomStatus) {
	r.statusMutex.Lock()
	defer r.statusMutex.Unlock()
	r.status = status
}

// GetStatus 获取房间的业务状态
func (r *Room) GetStatus() RoomStatus {
	r.statusMutex.RLock()
	defer r.statusMutex.RUnlock()
	return r.status
}

func (r *Room) Info() Info {
	return Info{
		ID:         r.ID,
		Name:       r.Name,
		Status:     r.GetStatus().String(),
		Players:    r.PlayerCount(),
		MaxPlayers: r.MaxPlayers,
	}
}

func (r *Room) sendError(sessionID string, err error) {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	if err := r.SendTo(sessionID, network.MsgTypeError, data); err != nil {
		logger.Log.Debugf("room %s: error reply to %s failed: %v", r.ID, sessionID, err)
	}
}

func (r *Room) broadcastInfo() {
	data, err := json.Marshal(r.Info())
	if err != nil {
		return
	}
	if err := r.Broadcast(network.MsgTypeRoomState, data); err != nil {
		logger.Log.Debugf("room %s: room state broadcast failed: %v", r.ID, err)
	}
}

// loop 是房间的主循环，串行处理定时更新和提交的任务
func (r *Room) loop() {
	defer close(r.done)
	defer r.ticker.Stop()
	for {
		select {
		case <-r.ticker.C:
			r.safely(r.update)
		case job := <-r.jobs:
			r.safely(job)
		case <-r.closeChan:
			return
		}
	}
}

func (r *Room) safely(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Log.Errorf("room %s: recovered from panic: %v", r.ID, rec)
		}
	}()
	fn()
}

func (r *Room) update() {
	if current := r.StateMachine.GetCurrentState(); current != nil {
		current.OnUpdate()
	}
}

// Close 关闭房间，停止主循环
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.closeChan) })
}

// Done is closed once the loop has exited.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// --- 房间管理器 ---

// Manager 管理所有房间
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
}

func NewRoomManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// CreateRoom 创建一个新房间并添加到管理器
func (m *Manager) CreateRoom(id, name string, opts Options, broadcaster Broadcaster) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room := NewRoom(id, name, opts, broadcaster)
	m.rooms[id] = room
	return room
}

// RemoveRoom 从管理器中移除并关闭一个房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, exists := m.rooms[id]; exists {
		room.Close()
		delete(m.rooms, id)
	}
}

func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// List returns every room, oldest first.
func (m *Manager) List() []Info {
	m.mutex.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mutex.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	infos := make([]Info, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, r.Info())
	}
	return infos
}

// FindAvailableRoom 查找一个可用的房间
func (m *Manager) FindAvailableRoom() *Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, room := range m.rooms {
		if room.PlayerCount() < room.MaxPlayers && room.GetStatus() == StatusWaiting {
			return room
		}
	}
	return nil
}
