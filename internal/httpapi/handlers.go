package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/jopatk123/myweb-sub001/internal/game"
	"github.com/jopatk123/myweb-sub001/internal/registry"
	"github.com/jopatk123/myweb-sub001/internal/room"
)

type createRoomRequest struct {
	Mode       string `json:"mode"`
	MaxPlayers int    `json:"max_players,omitempty"`
	WithAI     bool   `json:"with_ai,omitempty"`
}

// CreateRoom is the REST entry point for room creation. It carries no host
// session: the first session to join over the websocket becomes host.
func CreateRoom(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		mode, ok := game.ParseMode(req.Mode)
		if !ok {
			http.Error(w, "unsupported mode", http.StatusBadRequest)
			return
		}

		reply := make(chan registry.CreateReply, 1)
		reg.Inbox() <- registry.Create{
			Mode:     mode,
			Settings: room.Settings{MaxPlayers: req.MaxPlayers, WithAI: req.WithAI},
			Reply:    reply,
		}
		rep := <-reply
		if rep.Err != nil {
			http.Error(w, rep.Err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(struct {
			Code string `json:"code"`
		}{Code: rep.Code})
	}
}

func ListRooms(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []registry.Info, 1)
		reg.Inbox() <- registry.List{Reply: reply}
		infos := <-reply

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Rooms []registry.Info `json:"rooms"`
		}{Rooms: infos})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
