package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/art-battle-backend/internal/hub"
	"github.com/DoyleJ11/art-battle-backend/internal/lobby"
	"github.com/DoyleJ11/art-battle-backend/internal/types"
)

type peer string

func (p peer) ID() string                    { return string(p) }
func (p peer) Send(types.ServerMessage) bool { return true }
func (p peer) Close()                        {}

func setup(t *testing.T) (*hub.Hub, http.Handler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, lobby.Options{})
	return h, SetupRoutes(Deps{Hub: h, PublicURL: "https://draw.example.com/play"})
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	_, handler := setup(t)
	assert.Equal(t, http.StatusOK, get(t, handler, "/healthz").Code)
}

func TestListLobbies(t *testing.T) {
	h, handler := setup(t)
	ctx := context.Background()

	rec := get(t, handler, "/lobbies")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"lobbies":[]}`, rec.Body.String())

	open, err := h.Create(ctx, peer("a"))
	require.NoError(t, err)
	hidden, err := h.Create(ctx, peer("b"))
	require.NoError(t, err)
	require.True(t, hidden.Post(ctx, lobby.SetPrivacy{By: "b", Private: true}))
	_, err = hidden.View(ctx)
	require.NoError(t, err)

	rec = get(t, handler, "/lobbies")
	require.Equal(t, http.StatusOK, rec.Code)

	var body lobbyList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Lobbies, 1)
	assert.Equal(t, open.Code(), body.Lobbies[0].Code)
	assert.Equal(t, 1, body.Lobbies[0].Players)
	assert.Equal(t, "right", string(body.Lobbies[0].Handedness))
}

func TestLobbyStatus(t *testing.T) {
	h, handler := setup(t)
	ctx := context.Background()

	assert.Equal(t, http.StatusNotFound, get(t, handler, "/lobbies/0000/status").Code)

	lb, err := h.Create(ctx, peer("a"))
	require.NoError(t, err)

	rec := get(t, handler, "/lobbies/"+lb.Code()+"/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":"`+lb.Code()+`","timeLeft":null}`, rec.Body.String())

	require.True(t, lb.Post(ctx, lobby.StartRound{By: "a"}))
	_, err = lb.View(ctx)
	require.NoError(t, err)

	rec = get(t, handler, "/lobbies/"+lb.Code()+"/status")
	var status lobbyStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.NotNil(t, status.TimeLeft)
	assert.InDelta(t, 15, *status.TimeLeft, 1)
}

func TestLobbyQR(t *testing.T) {
	h, handler := setup(t)

	assert.Equal(t, http.StatusNotFound, get(t, handler, "/lobbies/0000/qr").Code)

	lb, err := h.Create(context.Background(), peer("a"))
	require.NoError(t, err)

	rec := get(t, handler, "/lobbies/"+lb.Code()+"/qr")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestJoinURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{base: "https://draw.example.com/play", want: "https://draw.example.com/play?code=1234"},
		{base: "https://draw.example.com/?ref=qr", want: "https://draw.example.com/?code=1234&ref=qr"},
		{base: "", want: "?code=1234"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, JoinURL(tc.base, "1234"), tc.base)
	}
}
