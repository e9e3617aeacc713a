package engine

import (
	"maps"
	"math"
	"slices"
)

const (
	MinRating  = 0.0
	MaxRating  = 5.0
	RatingStep = 0.5
)

// Ballot collects pairwise ratings for one round.
//
// Quorum only counts ballots: every active participant must submit one, but
// a ballot is not required to rate every other participant.
type Ballot struct {
	participants []string
	ratings      map[string]map[string]float64
	submitters   map[string]struct{}
}

func NewBallot(participants []string) *Ballot {
	return &Ballot{
		participants: slices.Clone(participants),
		ratings:      map[string]map[string]float64{},
		submitters:   map[string]struct{}{},
	}
}

// Submit stores (or replaces) a voter's ratings. Self ratings and ratings
// for connections outside the participant set are dropped.
func (b *Ballot) Submit(voter string, ratings map[string]float64) error {
	if !slices.Contains(b.participants, voter) {
		return ErrNotParticipant
	}
	for _, v := range ratings {
		if !ValidRating(v) {
			return ErrInvalidRating
		}
	}

	kept := make(map[string]float64, len(ratings))
	for target, v := range ratings {
		if target == voter || !slices.Contains(b.participants, target) {
			continue
		}
		kept[target] = v
	}

	b.ratings[voter] = kept
	b.submitters[voter] = struct{}{}
	return nil
}

func (b *Ballot) Submitted() int { return len(b.submitters) }
func (b *Ballot) Required() int { return len(b.participants) }

func (b *Ballot) Quorum() bool {
	return len(b.submitters) == len(b.participants)
}

func (b *Ballot) Ratings(voter string) map[string]float64 {
	return maps.Clone(b.ratings[voter])
}

// Tally averages the ratings each participant received. Unrated pairs are
// absent from the average; a participant nobody rated averages 0. The winner
// has the strictly greatest average, ties going to the earlier participant.
func (b *Ballot) Tally() (string, map[string]float64) {
	tallies := make(map[string]float64, len(b.participants))
	winner := ""
	best := math.Inf(-1)

	for _, p := range b.participants {
		sum, n := 0.0, 0
		for _, voter := range b.participants {
			if v, ok := b.ratings[voter][p]; ok {
				sum += v
				n++
			}
		}
		avg := 0.0
		if n > 0 {
			avg = sum / float64(n)
		}
		tallies[p] = avg
		if avg > best {
			best = avg
			winner = p
		}
	}
	return winner, tallies
}

func ValidRating(v float64) bool {
	if math.IsNaN(v) || v < MinRating || v > MaxRating {
		return false
	}
	return math.Mod(v, RatingStep) == 0
}
