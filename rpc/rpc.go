package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/models"
	"github.com/wfunc/dungeonserver/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr. Services are added with Register before Start.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpc.NewServer(),
	}, nil
}

// Addr is the bound address.
func (s *Server) Addr() string {
	return s.address
}

func (s *Server) Register(rcvr any) error {
	return s.rpc.Register(rcvr)
}

// Start serves until the listener is closed.
func (s *Server) Start() error {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return nil
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// GameService exposes the run archive. Methods follow the net/rpc shape:
// exported args, pointer reply, error result.
type GameService struct {
	records *services.RecordService
}

func NewGameService(records *services.RecordService) *GameService {
	return &GameService{records: records}
}

type GetPlayerStatsArgs struct {
	Name string
}

type GetPlayerStatsReply struct {
	Stats models.PlayerStats
}

func (gs *GameService) GetPlayerStats(args *GetPlayerStatsArgs, reply *GetPlayerStatsReply) error {
	stats, err := gs.records.GetPlayerStats(args.Name)
	if err != nil {
		return err
	}
	reply.Stats = *stats
	return nil
}

type ListRecentGamesArgs struct {
	Limit int
}

type ListRecentGamesReply struct {
	Games []models.GameRecord
}

func (gs *GameService) ListRecentGames(args *ListRecentGamesArgs, reply *ListRecentGamesReply) error {
	games, err := gs.records.ListRecentGames(args.Limit)
	if err != nil {
		return err
	}
	reply.Games = games
	return nil
}
