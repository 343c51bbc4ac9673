package remote

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/gravitybox/game/internal/leaderboard"
	"go.uber.org/zap"
)

// Server exposes a leaderboard.Remote over websocket.
type Server struct {
	remote   leaderboard.Remote
	log      *zap.Logger
	upgrader websocket.Upgrader
	timeout  time.Duration

	// upgraded connections outlive http.Server.Shutdown, Close ends them
	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
}

func NewServer(remote leaderboard.Remote, timeout time.Duration, log *zap.Logger) *Server {
	return &Server{
		remote: remote,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		timeout: timeout,
		conns:   make(map[*websocket.Conn]struct{}),
	}
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// Close ends every open client connection and refuses new ones.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	for _, c := range conns {
		c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
		c.Close()
	}
	s.log.Info("leaderboard connections closed", zap.Int("count", len(conns)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	defer conn.Close()
	if !s.track(conn) {
		return
	}
	defer s.untrack(conn)

	log := s.log.With(zap.String("remote", conn.RemoteAddr().String()))
	log.Debug("leaderboard client connected")

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("leaderboard client read error", zap.Error(err))
			}
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		req, err := decodeRequest(data)
		if err != nil {
			log.Warn("bad leaderboard request", zap.Error(err))
			continue
		}

		resp := s.handle(r.Context(), req)
		out, err := encode(&resp)
		if err != nil {
			log.Error("encode leaderboard response", zap.Error(err))
			return
		}
		if s.timeout > 0 {
			conn.SetWriteDeadline(time.Now().Add(s.timeout))
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, out); err != nil {
			log.Warn("leaderboard client write error", zap.Error(err))
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, req Request) Response {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp := Response{ID: req.ID}
	switch req.Op {
	case OpReadAll:
		shots, err := s.remote.ReadAll(ctx)
		if err != nil {
			s.log.Error("read leaderboard", zap.Error(err))
			resp.Error = err.Error()
			return resp
		}
		resp.Levels = shots.Levels
	case OpAdjust:
		if req.Delta != 1 && req.Delta != -1 {
			resp.Error = "delta must be 1 or -1"
			return resp
		}
		if err := s.remote.Adjust(ctx, req.Level, req.Shots, req.Delta); err != nil {
			s.log.Error("adjust leaderboard", zap.Int("level", req.Level), zap.Int("shots", req.Shots), zap.Error(err))
			resp.Error = err.Error()
			return resp
		}
	default:
		resp.Error = "unknown op " + req.Op
	}
	return resp
}
