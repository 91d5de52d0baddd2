package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wormarena/internal/config"
	"wormarena/internal/roommanager"
)

func freshManager(t *testing.T) *roommanager.Manager {
	t.Helper()
	roommanager.ResetForTest()
	cfg := config.Default()
	cfg.TickRate = 100
	cfg.BroadcastRate = 50
	m := roommanager.Get(cfg, func() int64 { return time.Now().UnixMilli() })
	t.Cleanup(roommanager.ResetForTest)
	return m
}

func TestHandleConfigGetReturnsCurrentValues(t *testing.T) {
	mgr := freshManager(t)
	mgr.DefaultRoom().PatchConfig(func(c *config.Tunables) { c.FoodTarget = 77 })

	req := httptest.NewRequest(http.MethodGet, "/admin/config", nil)
	rec := httptest.NewRecorder()
	HandleConfig(mgr)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got patch
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.FoodTarget == nil || *got.FoodTarget != 77 {
		t.Fatalf("FoodTarget = %v, want 77", got.FoodTarget)
	}
}

func TestHandleConfigPostAppliesPartialPatch(t *testing.T) {
	mgr := freshManager(t)

	body, _ := json.Marshal(map[string]any{"foodTarget": 99})
	req := httptest.NewRequest(http.MethodPost, "/admin/config", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	HandleConfig(mgr)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	if got := mgr.DefaultRoom().Config().FoodTarget; got != 99 {
		t.Fatalf("FoodTarget after patch = %d, want 99", got)
	}
}

func TestHandleConfigUnknownRoomReturns404(t *testing.T) {
	mgr := freshManager(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/config?room=nonexistent", nil)
	rec := httptest.NewRecorder()
	HandleConfig(mgr)(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleConfigRejectsUnsupportedMethod(t *testing.T) {
	mgr := freshManager(t)

	req := httptest.NewRequest(http.MethodDelete, "/admin/config", nil)
	rec := httptest.NewRecorder()
	HandleConfig(mgr)(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHandleMetricsReturnsRoomSnapshot(t *testing.T) {
	mgr := freshManager(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	HandleMetrics(mgr)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var snap map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if _, ok := snap["self_collision"]; !ok {
		t.Fatalf("expected a self_collision field in the snapshot, got %v", snap)
	}
}

func TestHandleRoomsListsEveryRoom(t *testing.T) {
	mgr := freshManager(t)
	if _, err := mgr.CreateRoom("extra", config.Default()); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.DestroyRoom("extra") })

	req := httptest.NewRequest(http.MethodGet, "/admin/rooms", nil)
	rec := httptest.NewRecorder()
	HandleRooms(mgr)(rec, req)

	var rooms []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rooms); err != nil {
		t.Fatalf("unmarshal rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("len(rooms) = %d, want 2", len(rooms))
	}
}
