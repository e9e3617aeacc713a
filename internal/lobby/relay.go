package lobby

import (
	"go.uber.org/zap"

	"github.com/DoyleJ11/art-battle-backend/internal/types"
	wire "github.com/DoyleJ11/art-battle-backend/pkg/types"
)

// Strokes and frames are relayed to every other member as they arrive. The
// canvas keeps a copy of strokes only so late joiners can replay them.

func (l *Lobby) handleStroke(msg Stroke) {
	if !l.isMember(msg.From) {
		return
	}
	if !l.canvas.Append(msg.From, msg.Segment) {
		l.log.Debug("replay buffer full", zap.String("conn", msg.From))
	}
	l.broadcastExcept(msg.From, types.Event(wire.EvtPeerStroke, wire.PeerStroke{
		PeerID:  msg.From,
		Segment: msg.Segment,
	}))
}

func (l *Lobby) handleRequestReplay(msg RequestReplay) {
	if !l.isMember(msg.From) {
		msg.Reply <- nil
		return
	}
	msg.Reply <- l.canvas.Snapshot()
}

func (l *Lobby) handleClearCanvas(msg ClearCanvas) {
	if !l.isMember(msg.From) {
		return
	}
	l.canvas.Clear()
	l.broadcast(types.Event(wire.EvtCanvasCleared, wire.Empty{}))
}

func (l *Lobby) handleVideoFrame(msg VideoFrame) {
	if !l.isMember(msg.From) {
		return
	}
	l.broadcastExcept(msg.From, types.Event(wire.EvtPeerFrame, wire.PeerFrame{
		PeerID: msg.From,
		Image:  msg.Image,
	}))
}

func (l *Lobby) handleVoiceJoin(msg VoiceJoin) {
	if !l.isMember(msg.From) || l.voice[msg.From] {
		return
	}
	l.voice[msg.From] = true
	l.broadcastExcept(msg.From, types.Event(wire.EvtVoicePeerJoined, wire.PeerRef{PeerID: msg.From}))
}

func (l *Lobby) handleVoiceLeave(from string) {
	if !l.voice[from] {
		return
	}
	delete(l.voice, from)
	l.broadcastExcept(from, types.Event(wire.EvtVoiceLeave, wire.PeerRef{PeerID: from}))
}

func (l *Lobby) handleSignal(msg Signal) {
	if msg.From == msg.To || !l.isMember(msg.From) || !l.isMember(msg.To) {
		return
	}
	l.send(msg.To, types.Event(msg.Kind, wire.RelayedSignal{From: msg.From, Payload: msg.Payload}))
}
