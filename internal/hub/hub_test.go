package hub

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/art-battle-backend/internal/lobby"
	"github.com/DoyleJ11/art-battle-backend/internal/types"
)

type fakePeer struct {
	id  string
	out chan types.ServerMessage
}

func newPeer(id string) *fakePeer {
	return &fakePeer{id: id, out: make(chan types.ServerMessage, 64)}
}

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Send(m types.ServerMessage) bool {
	select {
	case p.out <- m:
		return true
	default:
		return false
	}
}

func (p *fakePeer) Close() {}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewHub(ctx, lobby.Options{Prompt: func() string { return "cat" }})
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	lb1, err := h.Create(ctx, newPeer("a"))
	require.NoError(t, err)

	code, err := strconv.Atoi(lb1.Code())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, code, minCode)
	assert.LessOrEqual(t, code, maxCode)

	lb2, err := h.Get(ctx, " "+lb1.Code()+" ")
	require.NoError(t, err)
	assert.Same(t, lb1, lb2)
}

func TestHub_UnknownCode(t *testing.T) {
	h := newTestHub(t)
	_, err := h.Get(context.Background(), "0000")
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestHub_CodesAreUnique(t *testing.T) {
	h := newTestHub(t)
	seen := map[string]bool{}
	for i := range 50 {
		lb, err := h.Create(context.Background(), newPeer(strconv.Itoa(i)))
		require.NoError(t, err)
		require.False(t, seen[lb.Code()], "duplicate code %s", lb.Code())
		seen[lb.Code()] = true
	}
}

func TestHub_EmptyLobbyIsRemoved(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	lb, err := h.Create(ctx, newPeer("a"))
	require.NoError(t, err)
	require.True(t, lb.Post(ctx, lobby.Leave{ClientID: "a"}))

	require.Eventually(t, func() bool {
		_, err := h.Get(ctx, lb.Code())
		return err == ErrLobbyNotFound
	}, time.Second, 5*time.Millisecond)
}

func TestHub_StaleRemoveKeepsNewerLobby(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	lb, err := h.Create(ctx, newPeer("a"))
	require.NoError(t, err)

	h.Inbox() <- RemoveLobby{Code: lb.Code(), Lobby: nil}
	got, err := h.Get(ctx, lb.Code())
	require.NoError(t, err)
	assert.Same(t, lb, got)
}

func TestHub_PublicListing(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	open, err := h.Create(ctx, newPeer("a"))
	require.NoError(t, err)
	private, err := h.Create(ctx, newPeer("b"))
	require.NoError(t, err)
	busy, err := h.Create(ctx, newPeer("c"))
	require.NoError(t, err)

	require.True(t, private.Post(ctx, lobby.SetPrivacy{By: "b", Private: true}))
	require.True(t, busy.Post(ctx, lobby.StartRound{By: "c"}))
	// round trips through each lobby so the posts above have been applied
	for _, lb := range []*lobby.Lobby{private, busy} {
		_, err := lb.View(ctx)
		require.NoError(t, err)
	}

	listed, err := h.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, open.Code(), listed[0].Code)
	assert.Equal(t, 1, listed[0].Players)

	for range 10 {
		lb, err := h.RandomPublic(ctx)
		require.NoError(t, err)
		assert.Same(t, open, lb)
	}

	require.True(t, open.Post(ctx, lobby.SetPrivacy{By: "a", Private: true}))
	_, err = open.View(ctx)
	require.NoError(t, err)

	_, err = h.RandomPublic(ctx)
	assert.ErrorIs(t, err, ErrNoPublicLobby)
}

func TestHub_ShutdownStopsLobbies(t *testing.T) {
	h := newTestHub(t)
	ctx := context.Background()

	lb, err := h.Create(ctx, newPeer("a"))
	require.NoError(t, err)

	h.Shutdown()

	select {
	case <-lb.Done():
	case <-time.After(time.Second):
		t.Fatal("lobby still running after hub shutdown")
	}
	_, err = h.Create(ctx, newPeer("b"))
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestGenerateCode(t *testing.T) {
	t.Run("falls back to the only free code", func(t *testing.T) {
		code, err := generateCode(func(c string) bool { return c != "4321" })
		require.NoError(t, err)
		assert.Equal(t, "4321", code)
	})

	t.Run("registry full", func(t *testing.T) {
		_, err := generateCode(func(string) bool { return true })
		assert.ErrorIs(t, err, ErrRegistryFull)
	})
}
