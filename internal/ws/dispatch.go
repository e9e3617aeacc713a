package ws

import (
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/art-battle-backend/internal/engine"
	"github.com/DoyleJ11/art-battle-backend/internal/lobby"
	"github.com/DoyleJ11/art-battle-backend/internal/types"
	wire "github.com/DoyleJ11/art-battle-backend/pkg/types"
)

var signalEvents = map[string]string{
	wire.VerbVoiceOffer:     wire.EvtVoiceOffer,
	wire.VerbVoiceAnswer:    wire.EvtVoiceAnswer,
	wire.VerbVoiceCandidate: wire.EvtVoiceCandidate,
}

func (s *session) dispatch(data []byte) {
	req, err := types.Decode(data)
	if err != nil {
		s.log.Debug("rejected message", zap.String("type", req.Type), zap.Error(err))
		s.push(types.Error(req.Ref, err.Error()))
		return
	}

	switch p := req.Payload.(type) {
	case *wire.CreateLobby:
		s.createLobby(req.Ref, p)
	case *wire.JoinLobby:
		s.joinLobby(req.Ref, p)
	case *wire.JoinRandomPublic:
		s.joinRandomPublic(req.Ref, p)
	case *wire.LeaveLobby:
		s.leaveLobby(req.Ref, p)
	case *wire.SetPrivacy:
		s.forward(req.Ref, p.Code, lobby.SetPrivacy{By: s.id, Private: *p.Private})
	case *wire.SetHandedness:
		if s.forward(0, p.Code, lobby.SetHandedness{By: s.id, Handedness: p.Handedness}) {
			s.ack(req.Ref, wire.Ack{OK: true, Handedness: p.Handedness})
		} else {
			s.ack(req.Ref, wire.Ack{OK: false})
		}
	case *wire.Kick:
		s.forward(req.Ref, p.Code, lobby.Kick{By: s.id, Target: p.TargetID})
	case *wire.StartRound:
		s.forward(req.Ref, p.Code, lobby.StartRound{By: s.id, DurationSeconds: p.Duration()})
	case *wire.Stroke:
		if s.throttled(req.Type) {
			return
		}
		s.forward(req.Ref, p.RoomID, lobby.Stroke{From: s.id, Segment: p.Segment()})
	case *wire.VideoFrame:
		if s.throttled(req.Type) {
			return
		}
		s.forward(req.Ref, p.RoomID, lobby.VideoFrame{From: s.id, Image: p.Image})
	case *wire.SubmitImage:
		s.forward(req.Ref, p.RoomID, lobby.SubmitImage{From: s.id, Image: p.Image})
	case *wire.SubmitVotes:
		s.submitVotes(req.Ref, p)
	case *wire.Identify:
		s.g.Identities.Bind(s.id, p.AccountID)
		s.ack(req.Ref, wire.Ack{OK: true})
	case *wire.Signal:
		s.forward(req.Ref, p.RoomID, lobby.Signal{
			From:    s.id,
			To:      p.To,
			Kind:    signalEvents[req.Type],
			Payload: p.Payload,
		})
	case *wire.RoomRef:
		s.roomRequest(req)
	case *wire.CodeRef:
		s.codeRequest(req)
	}
}

func (s *session) roomRequest(req types.Request) {
	code := req.Payload.(*wire.RoomRef).RoomID
	switch req.Type {
	case wire.VerbRequestReplay:
		s.requestReplay(req.Ref, code)
	case wire.VerbClearCanvas:
		s.forward(req.Ref, code, lobby.ClearCanvas{From: s.id})
	case wire.VerbVoiceJoin:
		s.forward(req.Ref, code, lobby.VoiceJoin{From: s.id})
	case wire.VerbVoiceLeave:
		s.forward(req.Ref, code, lobby.VoiceLeave{From: s.id})
	}
}

func (s *session) codeRequest(req types.Request) {
	code := req.Payload.(*wire.CodeRef).Code
	switch req.Type {
	case wire.VerbGetRoundStatus:
		s.roundStatus(req.Ref, code)
	case wire.VerbGetPrompt:
		s.getPrompt(req.Ref, code)
	}
}

// current returns the session's lobby if it is the one named by code. A
// connection only ever addresses the lobby it is in.
func (s *session) current(code string) *lobby.Lobby {
	if s.lobby == nil || s.lobby.Code() != code {
		return nil
	}
	return s.lobby
}

// forward posts m to the addressed lobby and acks the outcome.
func (s *session) forward(ref int64, code string, m lobby.Msg) bool {
	lb := s.current(code)
	ok := lb != nil && lb.Post(s.ctx, m)
	s.ack(ref, wire.Ack{OK: ok})
	return ok
}

func (s *session) throttled(verb string) bool {
	if s.limiter.Allow() {
		return false
	}
	s.log.Debug("rate limited", zap.String("type", verb))
	return true
}

func (s *session) createLobby(ref int64, p *wire.CreateLobby) {
	if p.Nickname != "" {
		s.g.Identities.SetNickname(s.id, p.Nickname)
	}
	s.leaveCurrent()

	lb, err := s.g.Hub.Create(s.ctx, s)
	if err != nil {
		s.log.Warn("create lobby failed", zap.Error(err))
		s.ack(ref, wire.Ack{OK: false})
		return
	}
	s.lobby = lb
	s.ack(ref, wire.Ack{OK: true, Code: lb.Code()})
}

func (s *session) joinLobby(ref int64, p *wire.JoinLobby) {
	lb, err := s.g.Hub.Get(s.ctx, p.Code)
	if err != nil {
		s.ack(ref, wire.Ack{OK: false})
		return
	}
	s.g.Identities.SetNickname(s.id, p.Nickname)
	s.enter(ref, lb)
}

func (s *session) joinRandomPublic(ref int64, p *wire.JoinRandomPublic) {
	lb, err := s.g.Hub.RandomPublic(s.ctx)
	if err != nil {
		s.ack(ref, wire.Ack{OK: false})
		return
	}
	s.g.Identities.SetNickname(s.id, p.Nickname)
	s.enter(ref, lb)
}

func (s *session) enter(ref int64, lb *lobby.Lobby) {
	if s.lobby != lb {
		s.leaveCurrent()
	}
	if err := lb.Join(s.ctx, s); err != nil {
		s.log.Debug("join failed", zap.String("lobby", lb.Code()), zap.Error(err))
		s.lobby = nil
		s.ack(ref, wire.Ack{OK: false})
		return
	}
	s.lobby = lb
	s.ack(ref, wire.Ack{OK: true, Code: lb.Code()})
}

func (s *session) leaveLobby(ref int64, p *wire.LeaveLobby) {
	if s.current(p.Code) == nil {
		s.ack(ref, wire.Ack{OK: false})
		return
	}
	s.leaveCurrent()
	s.ack(ref, wire.Ack{OK: true})
}

func (s *session) requestReplay(ref int64, code string) {
	lb := s.current(code)
	if lb == nil {
		s.ack(ref, wire.Replay{OK: false, Strokes: map[string][]wire.Segment{}})
		return
	}
	strokes, err := lb.Replay(s.ctx, s.id)
	if err != nil || strokes == nil {
		s.ack(ref, wire.Replay{OK: false, Strokes: map[string][]wire.Segment{}})
		return
	}
	s.ack(ref, wire.Replay{OK: true, Strokes: strokes})
}

// submitVotes reports only malformed ratings back to the client. Spectators,
// late ballots and ballots for a closed vote are dropped quietly.
func (s *session) submitVotes(ref int64, p *wire.SubmitVotes) {
	lb := s.current(p.RoomID)
	if lb == nil {
		s.ack(ref, wire.Ack{OK: false})
		return
	}

	err := lb.Vote(s.ctx, s.id, p.Ratings)
	switch {
	case err == nil:
		s.ack(ref, wire.Ack{OK: true})
	case errors.Is(err, engine.ErrInvalidRating):
		s.push(types.Error(ref, types.ErrMalformedPayload.Error()+": "+err.Error()))
	default:
		s.log.Debug("ballot ignored", zap.Error(err))
		s.ack(ref, wire.Ack{OK: false})
	}
}

// roundStatus may be asked about any lobby, not just the current one, so
// a client can sync a countdown before joining.
func (s *session) roundStatus(ref int64, code string) {
	lb, err := s.g.Hub.Get(s.ctx, code)
	if err != nil {
		s.ack(ref, wire.RoundStatus{OK: false})
		return
	}
	left, err := lb.Status(s.ctx)
	if err != nil {
		s.ack(ref, wire.RoundStatus{OK: false})
		return
	}
	s.ack(ref, wire.RoundStatus{OK: true, TimeLeft: left})
}

func (s *session) getPrompt(ref int64, code string) {
	lb := s.current(code)
	if lb == nil {
		s.ack(ref, wire.Ack{OK: false})
		return
	}
	prompt, err := lb.Prompt(s.ctx, s.id)
	if err != nil || prompt == "" {
		s.ack(ref, wire.Ack{OK: false})
		return
	}
	s.push(types.Event(wire.EvtPrompt, wire.PromptMessage{Prompt: prompt}))
	s.ack(ref, wire.Ack{OK: true, Prompt: prompt})
}
