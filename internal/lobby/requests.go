package lobby

import (
	"context"

	wire "github.com/DoyleJ11/art-battle-backend/pkg/types"
)

// Post delivers a fire-and-forget message. It reports false once the lobby
// has shut down or ctx is done.
func (l *Lobby) Post(ctx context.Context, m Msg) bool {
	select {
	case l.inbox <- m:
		return true
	case <-l.ctx.Done():
		return false
	case <-ctx.Done():
		return false
	}
}

func (l *Lobby) Join(ctx context.Context, p Peer) error {
	_, err := request(ctx, l, func(reply chan bool) Msg { return Join{Peer: p, Reply: reply} })
	return err
}

func (l *Lobby) Replay(ctx context.Context, from string) (map[string][]wire.Segment, error) {
	return request(ctx, l, func(reply chan map[string][]wire.Segment) Msg {
		return RequestReplay{From: from, Reply: reply}
	})
}

func (l *Lobby) Status(ctx context.Context) (*int, error) {
	return request(ctx, l, func(reply chan *int) Msg { return RoundStatus{Reply: reply} })
}

func (l *Lobby) Prompt(ctx context.Context, from string) (string, error) {
	return request(ctx, l, func(reply chan string) Msg { return GetPrompt{From: from, Reply: reply} })
}

// Vote submits a ballot and returns the engine's verdict on it.
func (l *Lobby) Vote(ctx context.Context, from string, ratings map[string]float64) error {
	verdict, err := request(ctx, l, func(reply chan error) Msg {
		return SubmitVotes{From: from, Ratings: ratings, Reply: reply}
	})
	if err != nil {
		return err
	}
	return verdict
}

func (l *Lobby) View(ctx context.Context) (View, error) {
	return request(ctx, l, func(reply chan View) Msg { return GetState{Reply: reply} })
}

func request[T any](ctx context.Context, l *Lobby, build func(chan T) Msg) (T, error) {
	var zero T
	reply := make(chan T, 1)
	if !l.Post(ctx, build(reply)) {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, ErrLobbyClosed
	}

	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-l.ctx.Done():
		// the loop may have answered just before exiting
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrLobbyClosed
		}
	}
}
