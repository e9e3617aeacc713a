package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/art-battle-backend/internal/hub"
)

type Deps struct {
	Hub *hub.Hub
	Log *zap.Logger

	// WS upgrades /ws; see ws.Handler.
	WS http.HandlerFunc

	// PublicURL is where the web client is served; share links point there.
	PublicURL string
}

func SetupRoutes(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Log))
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	if d.WS != nil {
		r.Get("/ws", d.WS)
	}
	r.Route("/lobbies", func(r chi.Router) {
		r.Get("/", ListLobbies(d.Hub))
		r.Get("/{code}/status", LobbyStatus(d.Hub))
		r.Get("/{code}/qr", LobbyQR(d.Hub, d.PublicURL))
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("requestId", middleware.GetReqID(r.Context())),
			)
		})
	}
}
