package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jopatk123/myweb-sub001/internal/registry"
	"github.com/jopatk123/myweb-sub001/internal/session"
	"github.com/jopatk123/myweb-sub001/internal/ws"
)

func SetupRoutes(reg *registry.Registry, tracker *session.Tracker, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/api/rooms", CreateRoom(reg))
	r.Get("/api/rooms", ListRooms(reg))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(reg, tracker, logger))
	return r
}
