package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"github.com/DoyleJ11/art-battle-backend/internal/hub"
	wire "github.com/DoyleJ11/art-battle-backend/pkg/types"
)

const qrSize = 256

type lobbyList struct {
	Lobbies []wire.PublicLobby `json:"lobbies"`
}

type lobbyStatus struct {
	Code     string `json:"code"`
	TimeLeft *int   `json:"timeLeft"`
}

type apiError struct {
	Error string `json:"error"`
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func ListLobbies(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		descs, err := h.ListPublic(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, apiError{Error: err.Error()})
			return
		}

		out := lobbyList{Lobbies: make([]wire.PublicLobby, 0, len(descs))}
		for _, d := range descs {
			out.Lobbies = append(out.Lobbies, wire.PublicLobby{
				Code:       d.Code,
				Players:    d.Players,
				Handedness: d.Handedness,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func LobbyStatus(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		lb, err := h.Get(r.Context(), code)
		if err != nil {
			writeLookupError(w, err)
			return
		}
		left, err := lb.Status(r.Context())
		if err != nil {
			writeJSON(w, http.StatusNotFound, apiError{Error: hub.ErrLobbyNotFound.Error()})
			return
		}
		writeJSON(w, http.StatusOK, lobbyStatus{Code: code, TimeLeft: left})
	}
}

// LobbyQR renders a PNG QR code of the lobby's join link.
func LobbyQR(h *hub.Hub, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if _, err := h.Get(r.Context(), code); err != nil {
			writeLookupError(w, err)
			return
		}

		png, err := qrcode.Encode(JoinURL(publicURL, code), qrcode.Medium, qrSize)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to render qr code"})
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}

// JoinURL is the share link for a lobby: the client URL with ?code= set.
func JoinURL(publicURL, code string) string {
	u, err := url.Parse(publicURL)
	if err != nil || publicURL == "" {
		return "?code=" + url.QueryEscape(code)
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()
	return u.String()
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, hub.ErrLobbyNotFound) {
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, apiError{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
