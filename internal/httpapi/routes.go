package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/minigame-session/internal/hub"
	"github.com/DoyleJ11/minigame-session/internal/store"
	"github.com/DoyleJ11/minigame-session/internal/ws"
)

func SetupRoutes(h *hub.Hub, s store.Store, log *zap.Logger, wsOpts ws.Options) http.Handler {
	hd := &handlers{hub: h, store: s, validate: newValidator(), log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, requestLogger(log))

	// Public routes
	r.Post("/minigames", hd.CreateSession)
	r.Route("/towns/{townID}/minigames", func(r chi.Router) {
		r.Get("/", hd.ListAreas)
		r.Post("/{label}/players", hd.JoinArea)
		r.Delete("/{label}", hd.RemoveArea)
	})
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log.Named("ws"), wsOpts))
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
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
