package engine

import (
	"errors"
	"slices"
	"time"
)

var ErrNoRound = errors.New("no round in progress")
var ErrRoundNotEnded = errors.New("round has not ended")
var ErrNotParticipant = errors.New("not an active participant")
var ErrVotingClosed = errors.New("voting already closed")
var ErrInvalidRating = errors.New("rating must be between 0 and 5 in steps of 0.5")

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseDrawing Phase = "drawing"
	PhaseGrace   Phase = "grace"
	PhaseGallery Phase = "gallery"
)

// Round is one timed drawing cycle. Participants is the membership snapshot
// taken at start; it scopes voting and never changes afterwards.
type Round struct {
	Prompt          string
	StartedAt       time.Time
	DurationSeconds int
	Phase           Phase
	Participants    []string
	Submissions     map[string]string

	ballot       *Ballot
	votingClosed bool
	winner       string
}

func NewRound(participants []string, durationSeconds int, prompt string, now time.Time) *Round {
	return &Round{
		Prompt:          prompt,
		StartedAt:       now,
		DurationSeconds: durationSeconds,
		Phase:           PhaseDrawing,
		Participants:    slices.Clone(participants),
		Submissions:     map[string]string{},
	}
}

// Active reports whether the round is still being drawn or in its grace
// period. A round in the gallery has ended; the lobby is idle again for
// discovery and status purposes.
func (r *Round) Active() bool {
	return r != nil && (r.Phase == PhaseDrawing || r.Phase == PhaseGrace)
}

func (r *Round) Duration() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

// TimeLeft is max(0, duration - whole seconds elapsed since start).
func (r *Round) TimeLeft(now time.Time) int {
	elapsed := int(now.Sub(r.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	return max(0, r.DurationSeconds-elapsed)
}

func (r *Round) IsParticipant(id string) bool {
	return slices.Contains(r.Participants, id)
}

// Submit stores the final artifact of a connection. Submissions after the
// gallery has been published are ignored.
func (r *Round) Submit(id, image string) bool {
	if r.Phase == PhaseGallery {
		return false
	}
	r.Submissions[id] = image
	return true
}

// Submitters returns the ids that submitted an artifact, participants first
// in join order, then anyone else sorted.
func (r *Round) Submitters() []string {
	ids := make([]string, 0, len(r.Submissions))
	for _, id := range r.Participants {
		if _, ok := r.Submissions[id]; ok {
			ids = append(ids, id)
		}
	}
	var rest []string
	for id := range r.Submissions {
		if !r.IsParticipant(id) {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	return append(ids, rest...)
}

type VoteOutcome struct {
	Quorum    bool
	Submitted int
	Required  int
	Winner    string
	Tallies   map[string]float64
}

// Vote records a ballot. The ballot is created on the first submission and
// discarded once quorum is reached; after that the round rejects votes so
// results and outcome side effects happen exactly once.
func (r *Round) Vote(voter string, ratings map[string]float64) (VoteOutcome, error) {
	if r.Phase == PhaseDrawing {
		return VoteOutcome{}, ErrRoundNotEnded
	}
	if r.votingClosed {
		return VoteOutcome{}, ErrVotingClosed
	}
	if r.ballot == nil {
		r.ballot = NewBallot(r.Participants)
	}
	if err := r.ballot.Submit(voter, ratings); err != nil {
		return VoteOutcome{}, err
	}

	out := VoteOutcome{Submitted: r.ballot.Submitted(), Required: r.ballot.Required()}
	if !r.ballot.Quorum() {
		return out, nil
	}

	out.Quorum = true
	out.Winner, out.Tallies = r.ballot.Tally()
	r.ballot = nil
	r.votingClosed = true
	r.winner = out.Winner
	return out, nil
}

// Leader returns the winner of a closed vote, or the current tally leader
// if any ballot has been submitted.
func (r *Round) Leader() (string, bool) {
	if r.votingClosed {
		return r.winner, r.winner != ""
	}
	if r.ballot == nil || r.ballot.Submitted() == 0 {
		return "", false
	}
	winner, _ := r.ballot.Tally()
	return winner, winner != ""
}

func (r *Round) HasBallot() bool { return r.ballot != nil }
func (r *Round) VotingClosed() bool { return r.votingClosed }
func (r *Round) BallotSize() (int, int) {
	if r.ballot == nil {
		return 0, len(r.Participants)
	}
	return r.ballot.Submitted(), r.ballot.Required()
}
