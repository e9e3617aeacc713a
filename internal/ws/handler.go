package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/art-battle-backend/internal/hub"
	"github.com/DoyleJ11/art-battle-backend/internal/identity"
	"github.com/DoyleJ11/art-battle-backend/internal/types"
	wire "github.com/DoyleJ11/art-battle-backend/pkg/types"
)

const (
	writeTimeout   = 5 * time.Second
	resolveTimeout = 2 * time.Second
	leaveTimeout   = time.Second

	// room for the largest payload plus its envelope
	readLimit = wire.MaxImageBytes + 64<<10
)

// AccountResolver turns a session token into a persistent account id.
type AccountResolver interface {
	ResolveAccount(ctx context.Context, token string) (string, error)
}

type Config struct {
	OriginPatterns []string
	SessionCookie  string
	SessionSecret  string
	OutboxSize     int
	PingInterval   time.Duration
	PongTimeout    time.Duration
	StrokeRate     float64
	StrokeBurst    int
}

type Deps struct {
	Hub        *hub.Hub
	Identities *identity.Map
	Accounts   AccountResolver
	Log        *zap.Logger
}

type gateway struct {
	Deps
	cfg Config
}

func Handler(d Deps, cfg Config) http.HandlerFunc {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = 256
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 20 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	if cfg.StrokeRate <= 0 {
		cfg.StrokeRate = 120
	}
	if cfg.StrokeBurst <= 0 {
		cfg.StrokeBurst = int(cfg.StrokeRate) * 2
	}
	g := &gateway{Deps: d, cfg: cfg}

	return func(w http.ResponseWriter, r *http.Request) {
		accountID := g.resolveAccount(r)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns:     cfg.OriginPatterns,
			InsecureSkipVerify: len(cfg.OriginPatterns) == 0,
		})
		if err != nil {
			g.Log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		conn.SetReadLimit(readLimit)

		s := g.newSession(r.Context(), conn)
		if accountID != "" {
			g.Identities.Bind(s.id, accountID)
		}
		defer s.finish()

		go s.writeLoop()
		go s.pingLoop()

		s.push(types.Event(wire.EvtWelcome, wire.Welcome{
			ConnectionID: s.id,
			Nickname:     g.Identities.Nickname(s.id),
			AccountID:    accountID,
		}))
		s.readLoop()
	}
}

func (g *gateway) newSession(parent context.Context, conn *websocket.Conn) *session {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()
	return &session{
		id:      id,
		g:       g,
		conn:    conn,
		out:     make(chan types.ServerMessage, g.cfg.OutboxSize),
		ctx:     ctx,
		cancel:  cancel,
		limiter: rate.NewLimiter(rate.Limit(g.cfg.StrokeRate), g.cfg.StrokeBurst),
		log:     g.Log.With(zap.String("conn", id)),
	}
}

// resolveAccount maps the session cookie to an account id. Any failure
// leaves the connection anonymous.
func (g *gateway) resolveAccount(r *http.Request) string {
	if g.Accounts == nil {
		return ""
	}
	token, ok := sessionToken(r, g.cfg.SessionCookie, g.cfg.SessionSecret)
	if !ok {
		return ""
	}

	ctx, cancel := context.WithTimeout(r.Context(), resolveTimeout)
	defer cancel()
	accountID, err := g.Accounts.ResolveAccount(ctx, token)
	if err != nil {
		g.Log.Debug("session did not resolve to an account", zap.Error(err))
		return ""
	}
	return accountID
}
