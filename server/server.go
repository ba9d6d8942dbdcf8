package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/wfunc/dungeonserver/broadcast"
	"github.com/wfunc/dungeonserver/game"
	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/monitor"
	"github.com/wfunc/dungeonserver/network"
	"github.com/wfunc/dungeonserver/persistence"
	"github.com/wfunc/dungeonserver/room"
	gamerpc "github.com/wfunc/dungeonserver/rpc"
	"github.com/wfunc/dungeonserver/services"
	"github.com/wfunc/dungeonserver/session"
	"github.com/wfunc/dungeonserver/state"
	"github.com/wfunc/dungeonserver/timer"
)

// Options configures a GameServer.
type Options struct {
	HTTPAddr   string
	RPCAddr    string
	Settings   state.Settings
	RoomLinger time.Duration
	Archive    persistence.Archive
	// Registry receives the metrics; nil uses a private registry.
	Registry *prometheus.Registry
}

type GameServer struct {
	opts           Options
	upgrader       websocket.Upgrader
	router         chi.Router
	httpServer     *http.Server
	roomManager    *room.Manager
	sessionManager *session.Manager
	records        *services.RecordService
	broadcaster    broadcast.Broadcaster
	rpcServer      *gamerpc.Server
	monitor        *monitor.Monitor
	scheduler      *timer.Scheduler
	lingerMutex    sync.Mutex
	lingering      map[string]int64 // roomID -> scheduler task
	closeOnce      sync.Once
}

func NewGameServer(opts Options) (*GameServer, error) {
	if opts.Archive == nil {
		opts.Archive = persistence.NewMemory()
	}
	if opts.RoomLinger <= 0 {
		opts.RoomLinger = 30 * time.Second
	}

	s := &GameServer{
		opts:           opts,
		roomManager:    room.NewRoomManager(),
		sessionManager: session.NewManager(),
		records:        services.NewRecordService(opts.Archive),
		monitor:        monitor.NewMonitor("dungeon", opts.Registry),
		scheduler:      timer.NewScheduler(100 * time.Millisecond),
		lingering:      make(map[string]int64),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}
	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)

	rpcServer, err := gamerpc.NewServer(opts.RPCAddr)
	if err != nil {
		s.scheduler.Stop()
		return nil, err
	}
	if err := rpcServer.Register(gamerpc.NewGameService(s.records)); err != nil {
		rpcServer.Stop()
		s.scheduler.Stop()
		return nil, err
	}
	s.rpcServer = rpcServer

	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              opts.HTTPAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

func (s *GameServer) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/rooms", s.handleListRooms)
	r.Method(http.MethodGet, "/metrics", s.monitor.Handler())
	return r
}

// Handler is the HTTP entry point.
func (s *GameServer) Handler() http.Handler {
	return s.router
}

// RPCAddr is the bound RPC address.
func (s *GameServer) RPCAddr() string {
	return s.rpcServer.Addr()
}

// Run serves HTTP and RPC until ctx is cancelled or a listener fails.
func (s *GameServer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Infof("Game server listening on %s", s.opts.HTTPAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(s.rpcServer.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.httpServer.Shutdown(shutdownCtx)
		s.Close()
		return err
	})

	return g.Wait()
}

// Close stops the RPC listener, the scheduler, every room and every connection.
func (s *GameServer) Close() {
	s.closeOnce.Do(func() {
		s.rpcServer.Stop()
		s.scheduler.Stop()
		for _, info := range s.roomManager.List() {
			s.roomManager.RemoveRoom(info.ID)
		}
		for _, sess := range s.sessionManager.All() {
			sess.Close()
		}
	})
}

func (s *GameServer) handleListRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.roomManager.List()); err != nil {
		logger.Log.Warnf("list rooms: %v", err)
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.leaveRoom(sess)
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		packet, err := wsConn.ReadPacket()
		if err != nil {
			return
		}
		s.handlePacket(sess, packet)
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	s.monitor.IncMessagesReceived(strconv.Itoa(int(packet.MsgID)))
	sess.Touch()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Send(network.MsgTypeHeartbeat, nil)
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.leaveRoom(sess)
		s.reply(sess, network.MsgTypeLeaveRoom, map[string]string{})
	case network.MsgTypeListRooms:
		s.reply(sess, network.MsgTypeListRooms, s.roomManager.List())
	case network.MsgTypeCommand:
		s.handleCommand(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		s.replyError(sess, "unknown message type")
	}
}

// RoomRequest is the body of create and join requests. Both fields are
// optional; a join without a room id picks any open room.
type RoomRequest struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

func decodeRoomRequest(data []byte) (RoomRequest, error) {
	var req RoomRequest
	if len(data) == 0 {
		return req, nil
	}
	err := json.Unmarshal(data, &req)
	return req, err
}

func (s *GameServer) newRoomOptions() room.Options {
	return room.Options{
		Settings: s.opts.Settings,
		Recorder: recorder{records: s.records, monitor: s.monitor},
		OnAction: s.monitor.ObserveActionLatency,
	}
}

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	req, err := decodeRoomRequest(packet.Data)
	if err != nil {
		s.replyError(sess, "invalid request")
		return
	}
	if req.Name != "" {
		sess.SetName(req.Name)
	}
	s.leaveRoom(sess)

	roomID := uuid.New().String()
	r := s.roomManager.CreateRoom(roomID, "Dungeon "+roomID[:8], s.newRoomOptions(), s.broadcaster)
	s.monitor.SetActiveRooms(s.roomManager.Count())
	logger.Log.Infof("Session %s created room %s", sess.GetID(), roomID)

	if err := r.Join(sess); err != nil {
		s.replyError(sess, err.Error())
		s.scheduleCleanup(r)
		return
	}
	s.reply(sess, network.MsgTypeCreateRoom, map[string]string{"room_id": roomID, "session_id": sess.GetID()})
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	req, err := decodeRoomRequest(packet.Data)
	if err != nil {
		s.replyError(sess, "invalid request")
		return
	}
	if req.Name != "" {
		sess.SetName(req.Name)
	}

	var r *room.Room
	if req.RoomID == "" {
		r = s.roomManager.FindAvailableRoom()
	} else {
		r, _ = s.roomManager.GetRoom(req.RoomID)
	}
	if r == nil {
		s.replyError(sess, broadcast.ErrRoomNotFound.Error())
		return
	}
	if sess.RoomID() == r.ID {
		s.reply(sess, network.MsgTypeJoinRoom, map[string]string{"room_id": r.ID, "session_id": sess.GetID()})
		return
	}

	s.leaveRoom(sess)
	if err := r.Join(sess); err != nil {
		s.replyError(sess, err.Error())
		return
	}
	s.cancelCleanup(r.ID)
	s.reply(sess, network.MsgTypeJoinRoom, map[string]string{"room_id": r.ID, "session_id": sess.GetID()})
}

func (s *GameServer) handleCommand(sess *session.Session, packet *network.Packet) {
	roomID := sess.RoomID()
	if roomID == "" {
		logger.Log.Warnf("Session %s sent a command but is not in a room", sess.GetID())
		s.replyError(sess, "not in a room")
		return
	}
	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		logger.Log.Errorf("Room %s not found for session %s", roomID, sess.GetID())
		s.replyError(sess, broadcast.ErrRoomNotFound.Error())
		return
	}
	if err := r.HandleAction(sess.GetID(), packet.Data); err != nil {
		s.replyError(sess, err.Error())
	}
}

// leaveRoom takes the session out of its room, if any, and schedules the
// room for removal when it is left empty.
func (s *GameServer) leaveRoom(sess *session.Session) {
	roomID := sess.RoomID()
	if roomID == "" {
		return
	}
	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		sess.SetRoomID("")
		return
	}
	if err := r.Leave(sess.GetID()); err != nil {
		logger.Log.Debugf("leave room %s: %v", roomID, err)
	}
	sess.SetRoomID("")
	s.scheduleCleanup(r)
}

func (s *GameServer) scheduleCleanup(r *room.Room) {
	if r.PlayerCount() > 0 {
		return
	}
	s.lingerMutex.Lock()
	defer s.lingerMutex.Unlock()
	if _, pending := s.lingering[r.ID]; pending {
		return
	}
	roomID := r.ID
	s.lingering[roomID] = s.scheduler.After(s.opts.RoomLinger, func() {
		s.lingerMutex.Lock()
		delete(s.lingering, roomID)
		s.lingerMutex.Unlock()

		if cur, exists := s.roomManager.GetRoom(roomID); exists && cur.PlayerCount() == 0 {
			s.roomManager.RemoveRoom(roomID)
			s.monitor.SetActiveRooms(s.roomManager.Count())
			logger.Log.Infof("Room %s removed after idling", roomID)
		}
	})
}

func (s *GameServer) cancelCleanup(roomID string) {
	s.lingerMutex.Lock()
	defer s.lingerMutex.Unlock()
	if id, pending := s.lingering[roomID]; pending {
		s.scheduler.Cancel(id)
		delete(s.lingering, roomID)
	}
}

func (s *GameServer) reply(sess *session.Session, msgID uint16, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Log.Errorf("marshal reply %d: %v", msgID, err)
		return
	}
	if err := sess.Send(msgID, data); err != nil {
		logger.Log.Debugf("reply %d to %s: %v", msgID, sess.GetID(), err)
	}
}

func (s *GameServer) replyError(sess *session.Session, msg string) {
	s.reply(sess, network.MsgTypeError, map[string]string{"error": msg})
}

// recorder archives finished runs and counts them.
type recorder struct {
	records *services.RecordService
	monitor *monitor.Monitor
}

func (r recorder) RecordGame(roomID string, summary game.Summary) error {
	r.monitor.IncGamesFinished(string(summary.Status))
	return r.records.RecordGame(roomID, summary)
}
