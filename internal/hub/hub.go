package hub

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/DoyleJ11/art-battle-backend/internal/lobby"
)

var (
	ErrLobbyNotFound = errors.New("lobby not found")
	ErrNoPublicLobby = errors.New("no public lobbies available")
	ErrHubClosed     = errors.New("hub closed")
)

type HubMsg interface{ isHubMsg() }

type Created struct {
	Lobby *lobby.Lobby
	Err   error
}

// CreateLobby allocates a fresh code and starts a lobby with Creator as host.
type CreateLobby struct {
	Creator lobby.Peer
	Reply   chan Created
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// RemoveLobby only removes the entry if it still points at Lobby, so a late
// removal never evicts a newer lobby that reused the code.
type RemoveLobby struct {
	Code  string
	Lobby *lobby.Lobby
}

type ListPublic struct {
	Reply chan []lobby.Description
}

type RandomPublic struct {
	Reply chan *lobby.Lobby
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg()  {}
func (GetLobby) isHubMsg()     {}
func (RemoveLobby) isHubMsg()  {}
func (ListPublic) isHubMsg()   {}
func (RandomPublic) isHubMsg() {}
func (ShutdownHub) isHubMsg()  {}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	ctx     context.Context
	cancel  context.CancelFunc
	opts    lobby.Options
	log     *zap.Logger
}

// NewHub starts the registry goroutine. Every lobby it creates shares opts
// and is shut down with the hub.
func NewHub(parent context.Context, opts lobby.Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		ctx:     ctx,
		cancel:  cancel,
		opts:    opts,
		log:     opts.Log.Named("hub"),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				code, err := generateCode(h.taken)
				if err != nil {
					h.log.Error("cannot allocate lobby code", zap.Int("lobbies", len(h.lobbies)), zap.Error(err))
					msg.Reply <- Created{Err: err}
					break
				}
				lb := lobby.NewLobby(h.ctx, code, msg.Creator, h.opts, h.remove)
				h.lobbies[code] = lb
				msg.Reply <- Created{Lobby: lb}

			case GetLobby:
				msg.Reply <- h.lobbies[normalizeCode(msg.Code)] // May be nil

			case RemoveLobby:
				if h.lobbies[msg.Code] == msg.Lobby {
					delete(h.lobbies, msg.Code)
					h.log.Debug("lobby removed", zap.String("lobby", msg.Code), zap.Int("lobbies", len(h.lobbies)))
				}

			case ListPublic:
				msg.Reply <- h.public()

			case RandomPublic:
				public := h.public()
				if len(public) == 0 {
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.lobbies[public[rand.IntN(len(public))].Code]

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) taken(code string) bool {
	_, ok := h.lobbies[code]
	return ok
}

// public lists joinable lobbies ordered by code. A lobby whose description
// says it is closed may still be in the map until its RemoveLobby arrives.
func (h *Hub) public() []lobby.Description {
	var out []lobby.Description
	for _, lb := range h.lobbies {
		if d := lb.Description(); d.Listable() {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b lobby.Description) int { return strings.Compare(a.Code, b.Code) })
	return out
}

// remove runs on a lobby goroutine once the lobby is empty.
func (h *Hub) remove(lb *lobby.Lobby) {
	select {
	case h.inbox <- RemoveLobby{Code: lb.Code(), Lobby: lb}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) shutdown() {
	h.log.Info("hub shutting down", zap.Int("lobbies", len(h.lobbies)))
	clear(h.lobbies)
	h.cancel()
}

func (h *Hub) Create(ctx context.Context, creator lobby.Peer) (*lobby.Lobby, error) {
	res, err := request(ctx, h, func(reply chan Created) HubMsg {
		return CreateLobby{Creator: creator, Reply: reply}
	})
	if err != nil {
		return nil, err
	}
	return res.Lobby, res.Err
}

func (h *Hub) Get(ctx context.Context, code string) (*lobby.Lobby, error) {
	lb, err := request(ctx, h, func(reply chan *lobby.Lobby) HubMsg {
		return GetLobby{Code: code, Reply: reply}
	})
	if err != nil {
		return nil, err
	}
	if lb == nil {
		return nil, ErrLobbyNotFound
	}
	return lb, nil
}

func (h *Hub) ListPublic(ctx context.Context) ([]lobby.Description, error) {
	return request(ctx, h, func(reply chan []lobby.Description) HubMsg {
		return ListPublic{Reply: reply}
	})
}

func (h *Hub) RandomPublic(ctx context.Context) (*lobby.Lobby, error) {
	lb, err := request(ctx, h, func(reply chan *lobby.Lobby) HubMsg {
		return RandomPublic{Reply: reply}
	})
	if err != nil {
		return nil, err
	}
	if lb == nil {
		return nil, ErrNoPublicLobby
	}
	return lb, nil
}

// Shutdown stops the hub and every lobby it owns.
func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
	<-h.ctx.Done()
}

func request[T any](ctx context.Context, h *Hub, build func(chan T) HubMsg) (T, error) {
	var zero T
	reply := make(chan T, 1)

	select {
	case h.inbox <- build(reply):
	case <-h.ctx.Done():
		return zero, ErrHubClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case v := <-reply:
		return v, nil
	case <-h.ctx.Done():
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrHubClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
