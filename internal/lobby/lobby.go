package lobby

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/art-battle-backend/internal/engine"
	"github.com/DoyleJ11/art-battle-backend/internal/types"
	wire "github.com/DoyleJ11/art-battle-backend/pkg/types"
)

var ErrLobbyClosed = errors.New("lobby closed")

// Peer is one connected client as the lobby sees it. Send must not block:
// it returns false when the client cannot keep up, and the lobby then drops
// that member and closes it.
type Peer interface {
	ID() string
	Send(msg types.ServerMessage) bool
	Close()
}

type Directory interface {
	Nickname(conn string) string
	Account(conn string) (string, bool)
}

// OutcomeRecorder is the fire-and-forget sink for per-account results.
type OutcomeRecorder interface {
	Record(accountID string, won bool)
}

type Options struct {
	Log                 *zap.Logger
	Directory           Directory
	Outcomes            OutcomeRecorder
	DefaultRoundSeconds int
	GracePeriod         time.Duration
	ReplayLimit         int
	Now                 func() time.Time
	Prompt              func() string

	// Second is the wall-clock length of one round second. Tests shorten it.
	Second time.Duration
}

func (o Options) withDefaults() Options {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	if o.Directory == nil {
		o.Directory = anonymous{}
	}
	if o.Outcomes == nil {
		o.Outcomes = discard{}
	}
	if o.DefaultRoundSeconds <= 0 {
		o.DefaultRoundSeconds = engine.DefaultRoundSeconds
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = 3 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Prompt == nil {
		o.Prompt = engine.RandomPrompt
	}
	if o.Second <= 0 {
		o.Second = time.Second
	}
	return o
}

// Description is the registry-facing summary of a lobby. It is republished
// by the lobby goroutine before any event announcing the change goes out.
type Description struct {
	Code        string
	Private     bool
	RoundActive bool
	Players     int
	Handedness  wire.Handedness
	Closed      bool
}

// Listable reports whether the lobby belongs in the public listing.
func (d Description) Listable() bool {
	return !d.Private && !d.RoundActive && !d.Closed && d.Players > 0
}

type View struct {
	Code         string
	Members      []string
	Private      bool
	Handedness   wire.Handedness
	Phase        engine.Phase
	Participants []string
	Submissions  int
	HasBallot    bool
	VotingClosed bool
	Strokes      int
	Voice        []string
}

type Lobby struct {
	code    string
	inbox   chan Msg
	ctx     context.Context
	cancel  context.CancelFunc
	opts    Options
	log     *zap.Logger
	onClose func(*Lobby)

	// Owned by the loop goroutine.
	members    []string
	peers      map[string]Peer
	private    bool
	handedness wire.Handedness
	round      *engine.Round
	canvas     *engine.Canvas
	voice      map[string]bool
	timer      *time.Timer
	timerGen   int
	drops      []string
	closed     bool

	desc atomic.Pointer[Description]
}

// NewLobby starts a lobby goroutine with creator as its only member and
// host. onClose runs on the lobby goroutine once the last member has left.
func NewLobby(parent context.Context, code string, creator Peer, opts Options, onClose func(*Lobby)) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	opts = opts.withDefaults()

	l := &Lobby{
		code:       code,
		inbox:      make(chan Msg, 256),
		ctx:        ctx,
		cancel:     cancel,
		opts:       opts,
		log:        opts.Log.With(zap.String("lobby", code)),
		onClose:    onClose,
		members:    []string{creator.ID()},
		peers:      map[string]Peer{creator.ID(): creator},
		handedness: wire.HandRight,
		canvas:     engine.NewCanvas(opts.ReplayLimit),
		voice:      map[string]bool{},
	}
	l.publish()

	go l.loop()
	return l
}

func (l *Lobby) Code() string { return l.code }

// Expose the inbox so tests or the gateway can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

func (l *Lobby) Description() Description { return *l.desc.Load() }

func (l *Lobby) loop() {
	defer l.cancel()

	l.log.Info("lobby created", zap.String("host", l.members[0]))
	l.broadcastLobbyUpdate()
	l.flushDrops()

	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			l.handle(m)
			l.flushDrops()
			if l.closed {
				return
			}
		}
	}
}

func (l *Lobby) handle(m Msg) {
	switch msg := m.(type) {
	case Join:
		l.handleJoin(msg)
	case Leave:
		l.removeMember(msg.ClientID)
	case Kick:
		l.handleKick(msg)
	case SetPrivacy:
		l.handleSetPrivacy(msg)
	case SetHandedness:
		l.handleSetHandedness(msg)
	case StartRound:
		l.handleStartRound(msg)
	case timerFired:
		l.handleTimer(msg)
	case SubmitImage:
		l.handleSubmitImage(msg)
	case SubmitVotes:
		l.handleSubmitVotes(msg)
	case RoundStatus:
		l.handleRoundStatus(msg)
	case GetPrompt:
		l.handleGetPrompt(msg)
	case Stroke:
		l.handleStroke(msg)
	case RequestReplay:
		l.handleRequestReplay(msg)
	case ClearCanvas:
		l.handleClearCanvas(msg)
	case VideoFrame:
		l.handleVideoFrame(msg)
	case VoiceJoin:
		l.handleVoiceJoin(msg)
	case VoiceLeave:
		l.handleVoiceLeave(msg.From)
	case Signal:
		l.handleSignal(msg)
	case GetState:
		// test-only: reflect internal state without data races
		msg.Reply <- l.view()
	case Shutdown:
		l.shutdown()
	}
}

func (l *Lobby) handleJoin(msg Join) {
	id := msg.Peer.ID()
	if !l.isMember(id) {
		l.members = append(l.members, id)
	}
	l.peers[id] = msg.Peer
	msg.Reply <- true

	l.log.Info("member joined", zap.String("conn", id), zap.Int("members", len(l.members)))
	l.publish()
	l.broadcastLobbyUpdate()

	if l.round.Active() {
		l.send(id, types.Event(wire.EvtRoundInProgress, wire.RoundInProgress{
			TimeLeft: l.round.TimeLeft(l.opts.Now()),
			Prompt:   l.round.Prompt,
		}))
	}
}

func (l *Lobby) handleKick(msg Kick) {
	if !l.isHost(msg.By) || msg.Target == msg.By || !l.isMember(msg.Target) {
		l.log.Debug("kick ignored", zap.String("by", msg.By), zap.String("target", msg.Target))
		return
	}
	l.send(msg.Target, types.Event(wire.EvtKicked, wire.LobbyRef{Code: l.code}))
	l.log.Info("member kicked", zap.String("conn", msg.Target))
	l.removeMember(msg.Target)
}

func (l *Lobby) handleSetPrivacy(msg SetPrivacy) {
	if !l.isHost(msg.By) {
		return
	}
	l.private = msg.Private
	l.publish()
	l.broadcastLobbyUpdate()
}

func (l *Lobby) handleSetHandedness(msg SetHandedness) {
	if !l.isMember(msg.By) || !msg.Handedness.Valid() {
		return
	}
	l.handedness = msg.Handedness
	l.publish()
	l.broadcastLobbyUpdate()
}

// removeMember is the single leave path: disconnects, explicit leaves,
// kicks and slow-client drops all end here.
func (l *Lobby) removeMember(id string) {
	idx := slices.Index(l.members, id)
	if idx < 0 {
		return
	}
	wasHost := idx == 0
	l.members = slices.Delete(l.members, idx, idx+1)
	delete(l.peers, id)
	l.log.Info("member left", zap.String("conn", id), zap.Int("members", len(l.members)))

	if l.voice[id] {
		l.handleVoiceLeave(id)
	}

	if len(l.members) == 0 {
		l.destroy()
		return
	}

	l.publish()
	if wasHost {
		l.log.Info("host promoted", zap.String("conn", l.members[0]))
		l.send(l.members[0], types.Event(wire.EvtHostPromoted, wire.LobbyRef{Code: l.code}))
	}
	l.broadcastLobbyUpdate()
}

func (l *Lobby) destroy() {
	l.stopTimer()
	l.round = nil
	l.closed = true
	l.publish()
	l.log.Info("lobby destroyed")
	if l.onClose != nil {
		l.onClose(l)
	}
}

func (l *Lobby) shutdown() {
	l.stopTimer()
	l.closed = true
	l.publish()
	l.cancel()
}

func (l *Lobby) isMember(id string) bool { return slices.Contains(l.members, id) }

func (l *Lobby) isHost(id string) bool {
	return len(l.members) > 0 && l.members[0] == id
}

func (l *Lobby) publish() {
	l.desc.Store(&Description{
		Code:        l.code,
		Private:     l.private,
		RoundActive: l.round.Active(),
		Players:     len(l.members),
		Handedness:  l.handedness,
		Closed:      l.closed,
	})
}

func (l *Lobby) send(id string, msg types.ServerMessage) {
	p, ok := l.peers[id]
	if !ok {
		return
	}
	if !p.Send(msg) {
		l.log.Warn("dropping slow client", zap.String("conn", id), zap.String("event", msg.Type))
		l.drops = append(l.drops, id)
	}
}

func (l *Lobby) broadcast(msg types.ServerMessage) {
	for _, id := range l.members {
		l.send(id, msg)
	}
}

func (l *Lobby) broadcastExcept(except string, msg types.ServerMessage) {
	for _, id := range l.members {
		if id != except {
			l.send(id, msg)
		}
	}
}

func (l *Lobby) broadcastLobbyUpdate() {
	players := make([]wire.PlayerView, 0, len(l.members))
	for i, id := range l.members {
		players = append(players, wire.PlayerView{
			ID:       id,
			Nickname: l.opts.Directory.Nickname(id),
			IsHost:   i == 0,
		})
	}
	hostID := ""
	if len(l.members) > 0 {
		hostID = l.members[0]
	}
	l.broadcast(types.Event(wire.EvtLobbyUpdate, wire.LobbyUpdate{
		Code:       l.code,
		Players:    players,
		HostID:     hostID,
		IsPrivate:  l.private,
		Handedness: l.handedness,
	}))
}

// flushDrops removes members whose outbox overflowed. Removal broadcasts
// can overflow further outboxes, so keep going until none are pending.
func (l *Lobby) flushDrops() {
	for len(l.drops) > 0 && !l.closed {
		id := l.drops[0]
		l.drops = l.drops[1:]
		p, ok := l.peers[id]
		if !ok {
			continue
		}
		l.removeMember(id)
		p.Close()
	}
	l.drops = l.drops[:0]
}

func (l *Lobby) view() View {
	v := View{
		Code:       l.code,
		Members:    slices.Clone(l.members),
		Private:    l.private,
		Handedness: l.handedness,
		Phase:      engine.PhaseIdle,
		Strokes:    l.canvas.Len(),
	}
	if l.round != nil {
		v.Phase = l.round.Phase
		v.Participants = slices.Clone(l.round.Participants)
		v.Submissions = len(l.round.Submissions)
		v.HasBallot = l.round.HasBallot()
		v.VotingClosed = l.round.VotingClosed()
	}
	for id := range l.voice {
		v.Voice = append(v.Voice, id)
	}
	slices.Sort(v.Voice)
	return v
}

type anonymous struct{}

func (anonymous) Nickname(conn string) string         { return conn }
func (anonymous) Account(conn string) (string, bool) { return "", false }

type discard struct{}

func (discard) Record(string, bool) {}
