// Package admin exposes the hot-patchable config subset and per-room
// metrics over a small JSON HTTP surface.
//
// Grounded directly on the teacher's server/admin.go: GET returns the
// current value, POST decodes a partial JSON body and applies whatever
// fields were present. Generalized from the teacher's five scalar
// fields to spec.md §6's hot-patchable subset (food density, input
// rate, self-collision).
package admin

import (
	"encoding/json"
	"net/http"

	"wormarena/internal/config"
	"wormarena/internal/log"
	"wormarena/internal/roommanager"
)

var logger = log.Named("admin")

type patch struct {
	FoodTarget     *int     `json:"foodTarget,omitempty"`
	RespawnPerTick *int     `json:"respawnPerTick,omitempty"`
	MaxInputRate   *int     `json:"maxInputRate,omitempty"`
	SelfCollision  *bool    `json:"selfCollision,omitempty"`
	RView          *float64 `json:"rView,omitempty"`
}

// HandleConfig serves GET/POST /admin/config?room=<id>, mirroring the
// teacher's HandleAdminConfig.
func HandleConfig(mgr *roommanager.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		if roomID == "" {
			roomID = roommanager.DefaultRoomID
		}
		rm := mgr.Room(roomID)
		if rm == nil {
			http.Error(w, "unknown room", http.StatusNotFound)
			return
		}

		switch r.Method {
		case http.MethodGet:
			writeJSON(w, toPatch(rm.Config()))
		case http.MethodPost:
			var body patch
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
			rm.PatchConfig(func(t *config.Tunables) { applyPatch(t, body) })
			logger.Infof("room %s config patched: %+v", roomID, body)
			writeJSON(w, map[string]any{"ok": true})
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func toPatch(t config.Tunables) patch {
	return patch{
		FoodTarget:     &t.FoodTarget,
		RespawnPerTick: &t.RespawnPerTick,
		MaxInputRate:   &t.MaxInputRate,
		SelfCollision:  &t.SelfCollision,
		RView:          &t.RView,
	}
}

func applyPatch(t *config.Tunables, body patch) {
	if body.FoodTarget != nil {
		t.FoodTarget = *body.FoodTarget
	}
	if body.RespawnPerTick != nil {
		t.RespawnPerTick = *body.RespawnPerTick
	}
	if body.MaxInputRate != nil {
		t.MaxInputRate = *body.MaxInputRate
	}
	if body.SelfCollision != nil {
		t.SelfCollision = *body.SelfCollision
	}
	if body.RView != nil {
		t.RView = *body.RView
	}
}

// HandleMetrics serves GET /metrics?room=<id>, mirroring the teacher's
// HandleMetrics.
func HandleMetrics(mgr *roommanager.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		if roomID == "" {
			roomID = roommanager.DefaultRoomID
		}
		rm := mgr.Room(roomID)
		if rm == nil {
			http.Error(w, "unknown room", http.StatusNotFound)
			return
		}
		writeJSON(w, rm.Snapshot())
	}
}

// HandleRooms serves GET /admin/rooms: every room's status snapshot.
func HandleRooms(mgr *roommanager.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mgr.ListRooms())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
