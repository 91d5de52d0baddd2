package room

import (
	"testing"
	"time"

	"wormarena/internal/config"
	"wormarena/internal/ids"
	"wormarena/internal/input"
	"wormarena/internal/protocol"
)

// fakeTransport is the test double for Transport, grounded on the same
// shape as the teacher's test fakeConn: a buffered channel of whatever
// was sent, plus a close flag.
type fakeTransport struct {
	sent   chan protocol.Message
	closed chan ids.PlayerID
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sent: make(chan protocol.Message, 256), closed: make(chan ids.PlayerID, 8)}
}

func (f *fakeTransport) Send(playerID ids.PlayerID, msg protocol.Message) error {
	select {
	case f.sent <- msg:
	default:
	}
	return nil
}

func (f *fakeTransport) Close(playerID ids.PlayerID) {
	f.closed <- playerID
}

func testConfig() config.Tunables {
	cfg := config.Default()
	cfg.TickRate = 100
	cfg.BroadcastRate = 50
	cfg.FoodTarget = 5
	cfg.RespawnPerTick = 5
	cfg.WorldWidth = 2000
	cfg.WorldHeight = 2000
	cfg.RMap = 1000
	return cfg
}

func waitForMessage(t *testing.T, ch chan protocol.Message, timeout time.Duration) protocol.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

func TestRoomJoinAssignsPlayerAndWorm(t *testing.T) {
	r := New("test", testConfig(), func() int64 { return time.Now().UnixMilli() })
	r.Start()
	defer r.Stop()

	tr := newFakeTransport()
	playerID, wormID, err := r.Join("socket-1", "alice", "default", tr)
	if err != nil {
		t.Fatalf("Join returned error: %v", err)
	}
	if playerID == 0 || wormID == 0 {
		t.Fatalf("expected nonzero IDs, got playerID=%v wormID=%v", playerID, wormID)
	}
}

func TestRoomJoinRejectsInvalidName(t *testing.T) {
	r := New("test", testConfig(), func() int64 { return time.Now().UnixMilli() })
	r.Start()
	defer r.Stop()

	tr := newFakeTransport()
	_, _, err := r.Join("socket-1", "bad/name!!", "default", tr)
	if err == nil {
		t.Fatal("expected an error for a name outside the allowed character set")
	}
	coder, ok := err.(interface{ Code() string })
	if !ok || coder.Code() != protocol.ErrInvalidName {
		t.Fatalf("expected INVALID_NAME error code, got %v", err)
	}
}

func TestRoomBroadcastsFullSnapshotAfterJoin(t *testing.T) {
	r := New("test", testConfig(), func() int64 { return time.Now().UnixMilli() })
	r.Start()
	defer r.Stop()

	tr := newFakeTransport()
	playerID, _, err := r.Join("socket-1", "alice", "default", tr)
	if err != nil {
		t.Fatalf("Join returned error: %v", err)
	}

	msg := waitForMessage(t, tr.sent, 2*time.Second)
	gs, ok := msg.(protocol.GameStateMsg)
	if !ok {
		t.Fatalf("first broadcast should be a GameStateMsg, got %T", msg)
	}
	found := false
	for _, w := range gs.Worms {
		if w.PlayerID == uint64(playerID) {
			found = true
		}
	}
	if !found {
		t.Fatalf("joined player's worm should appear in the first snapshot, worms=%v", gs.Worms)
	}
}

func TestRoomSecondPlayerSeesFirstPlayer(t *testing.T) {
	r := New("test", testConfig(), func() int64 { return time.Now().UnixMilli() })
	r.Start()
	defer r.Stop()

	tr1 := newFakeTransport()
	playerID1, _, err := r.Join("socket-1", "alice", "default", tr1)
	if err != nil {
		t.Fatalf("first Join failed: %v", err)
	}

	tr2 := newFakeTransport()
	playerID2, _, err := r.Join("socket-2", "bob", "default", tr2)
	if err != nil {
		t.Fatalf("second Join failed: %v", err)
	}

	var gs protocol.GameStateMsg
	deadline := time.After(3 * time.Second)
	for {
		select {
		case msg := <-tr2.sent:
			if s, ok := msg.(protocol.GameStateMsg); ok {
				gs = s
			}
		case <-deadline:
			t.Fatal("timed out waiting for a full snapshot visible to the second player")
		}
		if len(gs.Worms) >= 2 {
			break
		}
	}

	names := map[uint64]bool{}
	for _, w := range gs.Worms {
		names[w.PlayerID] = true
	}
	if !names[uint64(playerID2)] {
		t.Fatal("second player's own worm should be visible to itself")
	}
	if !names[uint64(playerID1)] {
		t.Fatal("first player's worm should be visible to the second player")
	}
}

func TestRoomLeaveRemovesPlayerAndClosesTransport(t *testing.T) {
	r := New("test", testConfig(), func() int64 { return time.Now().UnixMilli() })
	r.Start()
	defer r.Stop()

	tr := newFakeTransport()
	playerID, _, err := r.Join("socket-1", "alice", "default", tr)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	r.RequestLeave(playerID)

	select {
	case closedID := <-tr.closed:
		if closedID != playerID {
			t.Fatalf("closed playerID = %v, want %v", closedID, playerID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the transport to be closed after leave")
	}
}

func TestRoomOnInputAppliesDirectionChange(t *testing.T) {
	r := New("test", testConfig(), func() int64 { return time.Now().UnixMilli() })
	r.Start()
	defer r.Stop()

	tr := newFakeTransport()
	playerID, wormID, err := r.Join("socket-1", "alice", "default", tr)
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	r.OnInput(playerID, input.RawCommand{Type: "direction-change", HasDir: true, Direction: 1.0})

	// World state is only safely observable from outside the worker
	// goroutine through what it broadcasts, never by reading r.world
	// directly — so the turn is confirmed via the worm's published
	// heading approaching the requested direction over a few ticks.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		msg := waitForMessage(t, tr.sent, 2*time.Second)
		var direction float64
		switch m := msg.(type) {
		case protocol.GameStateMsg:
			for _, w := range m.Worms {
				if w.PlayerID == uint64(playerID) {
					direction = w.Direction
				}
			}
		case protocol.DeltaUpdateMsg:
			for _, w := range m.WormsUpdated {
				if w.ID == uint64(wormID) && w.Direction != nil {
					direction = *w.Direction
				}
			}
		}
		if direction > 0 {
			return
		}
	}
	t.Fatal("direction change input was never reflected in broadcast heading")
}

func TestRoomSnapshotReportsSelfCollisionFlag(t *testing.T) {
	cfg := testConfig()
	cfg.SelfCollision = true
	r := New("test", cfg, func() int64 { return time.Now().UnixMilli() })
	snap := r.Snapshot()
	if snap["self_collision"] != true {
		t.Fatalf("Snapshot()[\"self_collision\"] = %v, want true", snap["self_collision"])
	}
}

func TestRoomPatchConfigAppliesChange(t *testing.T) {
	r := New("test", testConfig(), func() int64 { return time.Now().UnixMilli() })
	r.PatchConfig(func(c *config.Tunables) { c.FoodTarget = 42 })
	if r.Config().FoodTarget != 42 {
		t.Fatalf("FoodTarget = %d, want 42 after PatchConfig", r.Config().FoodTarget)
	}
}
