package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/art-battle-backend/internal/lobby"
	"github.com/DoyleJ11/art-battle-backend/internal/types"
)

// session is one websocket connection. It is the lobby.Peer for that
// connection: lobbies push into out, the write loop drains it.
type session struct {
	id      string
	g       *gateway
	conn    *websocket.Conn
	out     chan types.ServerMessage
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
	limiter *rate.Limiter
	log     *zap.Logger

	// Only touched by the read loop.
	lobby *lobby.Lobby
}

func (s *session) ID() string { return s.id }

func (s *session) Send(m types.ServerMessage) bool {
	if s.ctx.Err() != nil {
		return true
	}
	select {
	case s.out <- m:
		return true
	default:
		return false
	}
}

func (s *session) Close() {
	s.once.Do(s.cancel)
}

// push queues a direct reply. A client too slow to take its own replies
// is disconnected.
func (s *session) push(m types.ServerMessage) {
	if !s.Send(m) {
		s.log.Warn("outbox full, closing connection", zap.String("event", m.Type))
		s.Close()
	}
}

func (s *session) ack(ref int64, data any) {
	if ref == 0 {
		return
	}
	s.push(types.Ack(ref, data))
}

func (s *session) readLoop() {
	for {
		_, data, err := s.conn.Read(s.ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				s.log.Debug("client closed connection")
			default:
				if !errors.Is(err, context.Canceled) {
					s.log.Debug("read failed", zap.Error(err))
				}
			}
			return
		}
		s.dispatch(data)
	}
}

func (s *session) writeLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case m := <-s.out:
			ctx, cancel := context.WithTimeout(s.ctx, writeTimeout)
			err := wsjson.Write(ctx, s.conn, m)
			cancel()
			if err != nil {
				s.log.Debug("write failed", zap.Error(err))
				s.Close()
				return
			}
		}
	}
}

// pingLoop disconnects peers that stop answering pings.
func (s *session) pingLoop() {
	ticker := time.NewTicker(s.g.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(s.ctx, s.g.cfg.PongTimeout)
			err := s.conn.Ping(ctx)
			cancel()
			if err != nil {
				s.log.Debug("ping failed", zap.Error(err))
				s.Close()
				return
			}
		}
	}
}

// finish runs the disconnect path: leave the current lobby, forget the
// identity and close the socket.
func (s *session) finish() {
	s.leaveCurrent()
	s.g.Identities.Forget(s.id)
	s.Close()
	s.conn.Close(websocket.StatusNormalClosure, "bye")
}

func (s *session) leaveCurrent() {
	if s.lobby == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
	defer cancel()
	s.lobby.Post(ctx, lobby.Leave{ClientID: s.id})
	s.lobby = nil
}
