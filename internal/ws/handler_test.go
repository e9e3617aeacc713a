package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/art-battle-backend/internal/hub"
	"github.com/DoyleJ11/art-battle-backend/internal/identity"
	"github.com/DoyleJ11/art-battle-backend/internal/lobby"
	wire "github.com/DoyleJ11/art-battle-backend/pkg/types"
)

type envelope struct {
	Type string          `json:"type"`
	Ref  int64           `json:"ref"`
	Data json.RawMessage `json:"data"`
}

type resolver map[string]string

func (r resolver) ResolveAccount(_ context.Context, token string) (string, error) {
	if acc, ok := r[token]; ok {
		return acc, nil
	}
	return "", errors.New("no such session")
}

func newServer(t *testing.T, accounts AccountResolver, cfg Config) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ids := identity.NewMap()
	h := hub.NewHub(ctx, lobby.Options{Directory: ids, Prompt: func() string { return "cat" }})

	r := chi.NewRouter()
	r.Get("/ws", Handler(Deps{Hub: h, Identities: ids, Accounts: accounts}, cfg))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, kind string, ref int64, data any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{"type": kind, "ref": ref, "data": data}))
}

// helper: read until a message of the given type arrives, failing after a second
func recv(t *testing.T, conn *websocket.Conn, kind string) envelope {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for {
		var env envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			t.Fatalf("waiting for %q: %v", kind, err)
		}
		if env.Type == kind {
			return env
		}
	}
}

func recvAck(t *testing.T, conn *websocket.Conn, ref int64) wire.Ack {
	t.Helper()
	env := recv(t, conn, wire.EvtAck)
	require.Equal(t, ref, env.Ref)
	var ack wire.Ack
	require.NoError(t, json.Unmarshal(env.Data, &ack))
	return ack
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestGateway_Welcome(t *testing.T) {
	srv := newServer(t, nil, Config{})
	conn := dial(t, srv, nil)

	w := decode[wire.Welcome](t, recv(t, conn, wire.EvtWelcome))
	assert.NotEmpty(t, w.ConnectionID)
	assert.Equal(t, identity.Fallback(w.ConnectionID), w.Nickname)
	assert.Empty(t, w.AccountID)
}

func TestGateway_WelcomeResolvesSignedSession(t *testing.T) {
	srv := newServer(t, resolver{"sid-1": "acc-1"}, Config{SessionCookie: "connect.sid", SessionSecret: "shh"})

	header := http.Header{}
	header.Set("Cookie", "connect.sid=s:sid-1."+sign("sid-1", "shh"))
	conn := dial(t, srv, header)

	w := decode[wire.Welcome](t, recv(t, conn, wire.EvtWelcome))
	assert.Equal(t, "acc-1", w.AccountID)
}

func TestGateway_CreateJoinAndRelay(t *testing.T) {
	srv := newServer(t, nil, Config{})
	a, b := dial(t, srv, nil), dial(t, srv, nil)
	recv(t, a, wire.EvtWelcome)
	bID := decode[wire.Welcome](t, recv(t, b, wire.EvtWelcome)).ConnectionID

	send(t, a, wire.VerbCreateLobby, 1, wire.CreateLobby{Nickname: "Ada"})
	created := recvAck(t, a, 1)
	require.True(t, created.OK)
	require.Len(t, created.Code, 4)

	send(t, b, wire.VerbJoinLobby, 2, wire.JoinLobby{Code: created.Code, Nickname: "Bob"})
	assert.True(t, recvAck(t, b, 2).OK)

	upd := decode[wire.LobbyUpdate](t, recv(t, a, wire.EvtLobbyUpdate))
	for len(upd.Players) < 2 {
		upd = decode[wire.LobbyUpdate](t, recv(t, a, wire.EvtLobbyUpdate))
	}
	assert.Equal(t, "Ada", upd.Players[0].Nickname)
	assert.Equal(t, wire.PlayerView{ID: bID, Nickname: "Bob"}, upd.Players[1])

	send(t, b, wire.VerbStroke, 0, wire.Stroke{
		RoomID: created.Code,
		From:   wire.Point{X: 1, Y: 2},
		To:     wire.Point{X: 3, Y: 4},
		Color:  "#ff0000",
	})
	ps := decode[wire.PeerStroke](t, recv(t, a, wire.EvtPeerStroke))
	assert.Equal(t, bID, ps.PeerID)
	assert.Equal(t, wire.Point{X: 3, Y: 4}, ps.To)

	send(t, a, wire.VerbRequestReplay, 3, wire.RoomRef{RoomID: created.Code})
	replay := decode[wire.Replay](t, recv(t, a, wire.EvtAck))
	require.True(t, replay.OK)
	require.Len(t, replay.Strokes[bID], 1)
	assert.Equal(t, "#ff0000", replay.Strokes[bID][0].Color)
}

func TestGateway_EmptyReplayIsAnObject(t *testing.T) {
	srv := newServer(t, nil, Config{})
	conn := dial(t, srv, nil)
	recv(t, conn, wire.EvtWelcome)

	send(t, conn, wire.VerbCreateLobby, 1, wire.CreateLobby{})
	code := recvAck(t, conn, 1).Code

	send(t, conn, wire.VerbRequestReplay, 2, wire.RoomRef{RoomID: code})
	env := recv(t, conn, wire.EvtAck)
	assert.JSONEq(t, `{"ok":true,"strokes":{}}`, string(env.Data))
}

func TestGateway_StartRoundWithStringDurationUsesDefault(t *testing.T) {
	srv := newServer(t, nil, Config{})
	conn := dial(t, srv, nil)
	recv(t, conn, wire.EvtWelcome)

	send(t, conn, wire.VerbCreateLobby, 1, wire.CreateLobby{})
	code := recvAck(t, conn, 1).Code

	send(t, conn, wire.VerbStartRound, 0, wire.StartRound{Code: code, DurationSeconds: json.RawMessage(`"30"`)})
	started := decode[wire.RoundStarted](t, recv(t, conn, wire.EvtRoundStarted))
	assert.Equal(t, 15, started.DurationSeconds)
}

func TestGateway_JoinUnknownLobby(t *testing.T) {
	srv := newServer(t, nil, Config{})
	conn := dial(t, srv, nil)
	recv(t, conn, wire.EvtWelcome)

	send(t, conn, wire.VerbJoinLobby, 7, wire.JoinLobby{Code: "0000", Nickname: "x"})
	assert.False(t, recvAck(t, conn, 7).OK)

	send(t, conn, wire.VerbJoinRandomPublic, 8, wire.JoinRandomPublic{Nickname: "x"})
	assert.False(t, recvAck(t, conn, 8).OK)
}

func TestGateway_MalformedMessagesKeepConnection(t *testing.T) {
	srv := newServer(t, nil, Config{})
	conn := dial(t, srv, nil)
	recv(t, conn, wire.EvtWelcome)

	send(t, conn, "paint-the-town", 4, nil)
	env := recv(t, conn, wire.EvtError)
	assert.Equal(t, int64(4), env.Ref)
	assert.Contains(t, decode[wire.ErrorMessage](t, env).Message, "unknown message type")

	send(t, conn, wire.VerbKick, 5, map[string]any{"code": "1234"})
	env = recv(t, conn, wire.EvtError)
	assert.Equal(t, int64(5), env.Ref)

	send(t, conn, wire.VerbCreateLobby, 6, wire.CreateLobby{})
	assert.True(t, recvAck(t, conn, 6).OK)
}

func TestGateway_RoundStatusIsNullWhenIdle(t *testing.T) {
	srv := newServer(t, nil, Config{})
	conn := dial(t, srv, nil)
	recv(t, conn, wire.EvtWelcome)

	send(t, conn, wire.VerbCreateLobby, 1, wire.CreateLobby{})
	code := recvAck(t, conn, 1).Code

	send(t, conn, wire.VerbGetRoundStatus, 2, wire.CodeRef{Code: code})
	env := recv(t, conn, wire.EvtAck)
	assert.JSONEq(t, `{"ok":true,"timeLeft":null}`, string(env.Data))

	send(t, conn, wire.VerbStartRound, 0, wire.StartRound{Code: code, DurationSeconds: json.RawMessage("30")})
	recv(t, conn, wire.EvtRoundStarted)

	send(t, conn, wire.VerbGetRoundStatus, 3, wire.CodeRef{Code: code})
	status := decode[wire.RoundStatus](t, recv(t, conn, wire.EvtAck))
	require.NotNil(t, status.TimeLeft)
	assert.InDelta(t, 30, *status.TimeLeft, 1)

	send(t, conn, wire.VerbGetPrompt, 4, wire.CodeRef{Code: code})
	assert.Equal(t, "cat", decode[wire.PromptMessage](t, recv(t, conn, wire.EvtPrompt)).Prompt)
}

func TestGateway_VotesWithoutRoundAreRefused(t *testing.T) {
	srv := newServer(t, nil, Config{})
	conn := dial(t, srv, nil)
	recv(t, conn, wire.EvtWelcome)

	send(t, conn, wire.VerbCreateLobby, 1, wire.CreateLobby{})
	code := recvAck(t, conn, 1).Code

	// no round yet: quietly refused
	send(t, conn, wire.VerbSubmitVotes, 2, wire.SubmitVotes{RoomID: code, Ratings: map[string]float64{}})
	assert.False(t, recvAck(t, conn, 2).OK)
}

func TestSessionToken(t *testing.T) {
	signed := "s:abc." + sign("abc", "secret")

	cases := []struct {
		name   string
		cookie string
		secret string
		want   string
		wantOK bool
	}{
		{name: "no cookie", cookie: "", secret: "", wantOK: false},
		{name: "plain without secret", cookie: "abc", secret: "", want: "abc", wantOK: true},
		{name: "plain with secret refused", cookie: "abc", secret: "secret", wantOK: false},
		{name: "signed and verified", cookie: signed, secret: "secret", want: "abc", wantOK: true},
		{name: "signed url-escaped", cookie: strings.ReplaceAll(signed, ":", "%3A"), secret: "secret", want: "abc", wantOK: true},
		{name: "signature with plus", cookie: "s:abc.mUba1OAOkT/Ivo5dP34RCkqegy+D+wnDRShdeGONig4", secret: "secret", want: "abc", wantOK: true},
		{name: "escaped plus", cookie: "s%3Aabc.mUba1OAOkT%2FIvo5dP34RCkqegy%2BD%2BwnDRShdeGONig4", secret: "secret", want: "abc", wantOK: true},
		{name: "bad signature", cookie: "s:abc.bogus", secret: "secret", wantOK: false},
		{name: "signed without secret", cookie: signed, secret: "", want: "abc", wantOK: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tc.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "connect.sid", Value: tc.cookie})
			}
			got, ok := sessionToken(r, "connect.sid", tc.secret)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
