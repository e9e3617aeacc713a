package lobby

import (
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/art-battle-backend/internal/engine"
	"github.com/DoyleJ11/art-battle-backend/internal/types"
	wire "github.com/DoyleJ11/art-battle-backend/pkg/types"
)

// Round lifecycle:
//
//	idle --start-round--> drawing --duration--> grace --grace period--> gallery
//
// start-round from the host is accepted in any phase and replaces the
// current round, cancelling its timer.

func (l *Lobby) handleStartRound(msg StartRound) {
	if !l.isHost(msg.By) {
		l.log.Debug("start-round from non-host ignored", zap.String("conn", msg.By))
		return
	}

	secs := engine.ClampDuration(msg.DurationSeconds, l.opts.DefaultRoundSeconds)
	l.round = engine.NewRound(l.members, secs, l.opts.Prompt(), l.opts.Now())
	l.canvas.Clear()
	l.publish()

	l.log.Info("round started",
		zap.Int("durationSeconds", secs),
		zap.Int("participants", len(l.round.Participants)),
	)

	l.broadcast(types.Event(wire.EvtCanvasCleared, wire.Empty{}))
	l.broadcast(types.Event(wire.EvtRoundStarted, wire.RoundStarted{
		DurationSeconds: secs,
		Prompt:          l.round.Prompt,
	}))

	l.schedule(time.Duration(secs)*l.opts.Second, engine.PhaseGrace)
}

func (l *Lobby) handleTimer(msg timerFired) {
	if msg.gen != l.timerGen || l.round == nil {
		l.log.Debug("stale timer dropped", zap.Int("gen", msg.gen))
		return
	}
	l.timer = nil

	switch msg.next {
	case engine.PhaseGrace:
		l.enterGrace()
	case engine.PhaseGallery:
		l.enterGallery()
	}
}

func (l *Lobby) enterGrace() {
	if l.round.Phase != engine.PhaseDrawing {
		return
	}
	l.round.Phase = engine.PhaseGrace
	l.canvas.Clear()

	l.broadcast(types.Event(wire.EvtRoundEnded, wire.Empty{}))
	l.broadcast(types.Event(wire.EvtCanvasCleared, wire.Empty{}))

	l.schedule(l.opts.GracePeriod, engine.PhaseGallery)
}

func (l *Lobby) enterGallery() {
	if l.round.Phase != engine.PhaseGrace {
		return
	}
	l.round.Phase = engine.PhaseGallery
	l.publish()

	artifacts := make(map[string]wire.Artifact, len(l.round.Submissions))
	for id, img := range l.round.Submissions {
		artifacts[id] = wire.Artifact{Nickname: l.opts.Directory.Nickname(id), Image: img}
	}

	winner, ok := l.round.Leader()
	if !ok {
		winner = engine.RandomWinner(l.round.Submitters())
	}

	l.log.Info("gallery published", zap.Int("artifacts", len(artifacts)), zap.String("winner", winner))
	l.broadcast(types.Event(wire.EvtGallery, wire.Gallery{
		Artifacts: artifacts,
		Winner:    optional(winner),
		HostID:    l.members[0],
	}))
}

func (l *Lobby) handleSubmitImage(msg SubmitImage) {
	if !l.isMember(msg.From) || l.round == nil {
		return
	}
	if !l.round.Submit(msg.From, msg.Image) {
		l.log.Debug("late submission ignored", zap.String("conn", msg.From))
	}
}

func (l *Lobby) handleSubmitVotes(msg SubmitVotes) {
	if !l.isMember(msg.From) {
		msg.Reply <- engine.ErrNotParticipant
		return
	}
	if l.round == nil {
		msg.Reply <- engine.ErrNoRound
		return
	}

	out, err := l.round.Vote(msg.From, msg.Ratings)
	msg.Reply <- err
	if err != nil {
		l.log.Debug("ballot rejected", zap.String("conn", msg.From), zap.Error(err))
		return
	}

	if !out.Quorum {
		l.send(msg.From, types.Event(wire.EvtWaitingForOthers, wire.WaitingForOthers{
			Submitted: out.Submitted,
			Required:  out.Required,
		}))
		return
	}

	l.log.Info("voting closed", zap.String("winner", out.Winner))
	l.broadcast(types.Event(wire.EvtVotingResults, wire.VotingResults{
		Winner:  optional(out.Winner),
		Tallies: out.Tallies,
	}))
	l.recordOutcomes(out.Winner)
}

// recordOutcomes hands one result per round participant still in the lobby
// with a linked account to the recorder. Late joiners watched and are not
// counted. The recorder never blocks the lobby.
func (l *Lobby) recordOutcomes(winner string) {
	for _, id := range l.members {
		if !l.round.IsParticipant(id) {
			continue
		}
		acc, ok := l.opts.Directory.Account(id)
		if !ok {
			continue
		}
		l.opts.Outcomes.Record(acc, id == winner)
	}
}

func (l *Lobby) handleRoundStatus(msg RoundStatus) {
	if !l.round.Active() {
		msg.Reply <- nil
		return
	}
	left := l.round.TimeLeft(l.opts.Now())
	msg.Reply <- &left
}

func (l *Lobby) handleGetPrompt(msg GetPrompt) {
	if !l.isMember(msg.From) || l.round == nil {
		msg.Reply <- ""
		return
	}
	msg.Reply <- l.round.Prompt
}

// schedule arms the single lobby timer. Bumping the generation makes any
// callback already in flight from a previous timer a no-op.
func (l *Lobby) schedule(d time.Duration, next engine.Phase) {
	l.stopTimer()
	l.timerGen++
	gen := l.timerGen

	l.timer = time.AfterFunc(d, func() {
		select {
		case l.inbox <- timerFired{gen: gen, next: next}:
		case <-l.ctx.Done():
		}
	})
}

func (l *Lobby) stopTimer() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.timerGen++
}

func optional(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
